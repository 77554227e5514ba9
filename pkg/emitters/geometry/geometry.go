// Package geometry sizes and positions the forest for the emitters that draw
// boxes: draw.io and SVG.
package geometry

import (
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

type Options struct {
	LeafWidth  float64
	LeafHeight float64
	IconSize   float64
	Padding    float64
	Gap        float64
	Header     float64
	Margin     float64
	MinGroup   float64
	MaxColumns int
}

func DefaultOptions() Options {
	return Options{
		LeafWidth:  120,
		LeafHeight: 110,
		IconSize:   48,
		Padding:    20,
		Gap:        20,
		Header:     40,
		Margin:     20,
		MinGroup:   200,
		MaxColumns: 4,
	}
}

// Box is the placed rectangle of one node. X and Y are relative to the parent
// box; AbsX and AbsY to the canvas.
type Box struct {
	Node     *layout.Node
	Parent   *Box
	Children []*Box

	X, Y       float64
	W, H       float64
	AbsX, AbsY float64
}

func (b *Box) Center() (float64, float64) {
	return b.AbsX + b.W/2, b.AbsY + b.H/2
}

// Icon returns the absolute square for a leaf icon, centred horizontally.
func (b *Box) Icon(size float64) (x, y float64) {
	return b.AbsX + (b.W-size)/2, b.AbsY + 10
}

type Canvas struct {
	W, H  float64
	Roots []*Box
	byID  map[string]*Box
}

func (c *Canvas) Box(id string) (*Box, bool) {
	b, ok := c.byID[id]
	return b, ok
}

// Walk visits boxes depth first, parents before children.
func (c *Canvas) Walk(fn func(b *Box)) {
	var visit func(b *Box)
	visit = func(b *Box) {
		fn(b)
		for _, child := range b.Children {
			visit(child)
		}
	}
	for _, r := range c.Roots {
		visit(r)
	}
}

// Arrange lays the trees out top to bottom. Inside a group, child groups share
// one row (availability zones stack vertically instead) and leaves wrap after
// MaxColumns.
func Arrange(forest *layout.Forest, opts Options) *Canvas {
	if opts.MaxColumns < 1 {
		opts.MaxColumns = 1
	}
	a := &arranger{opts: opts}
	c := &Canvas{byID: make(map[string]*Box)}

	y := opts.Margin
	width := 0.0
	if forest != nil {
		for _, t := range forest.Trees {
			b := a.size(t)
			b.X, b.Y = opts.Margin, y
			c.Roots = append(c.Roots, b)
			y += b.H + opts.Gap
			width = max(width, b.W)
		}
	}

	c.Walk(func(b *Box) {
		if b.Parent == nil {
			b.AbsX, b.AbsY = b.X, b.Y
		} else {
			b.AbsX, b.AbsY = b.Parent.AbsX+b.X, b.Parent.AbsY+b.Y
		}
		c.byID[b.Node.ID] = b
	})

	c.W = width + 2*opts.Margin
	c.H = y - opts.Gap + opts.Margin
	if len(c.Roots) == 0 {
		c.W, c.H = 2*opts.Margin, 2*opts.Margin
	}
	return c
}

type arranger struct {
	opts Options
}

func (a *arranger) size(n *layout.Node) *Box {
	o := a.opts
	b := &Box{Node: n}
	if !n.IsGroup() {
		b.W, b.H = o.LeafWidth, o.LeafHeight
		return b
	}

	var groups, leaves []*Box
	for _, child := range n.Children {
		cb := a.size(child)
		cb.Parent = b
		b.Children = append(b.Children, cb)
		if child.IsGroup() {
			groups = append(groups, cb)
		} else {
			leaves = append(leaves, cb)
		}
	}

	y := o.Header
	width := 0.0
	place := func(items []*Box, cols int) {
		if len(items) == 0 {
			return
		}
		cols = max(cols, 1)
		for i := 0; i < len(items); i += cols {
			row := items[i:min(i+cols, len(items))]
			x := o.Padding
			rowH := 0.0
			for _, it := range row {
				it.X, it.Y = x, y
				x += it.W + o.Gap
				rowH = max(rowH, it.H)
			}
			width = max(width, x-o.Gap)
			y += rowH + o.Gap
		}
	}

	switch n.Group {
	case layout.GroupAZ:
		place(groups, 1)
	default:
		place(groups, len(groups))
	}
	cols := o.MaxColumns
	if n.Group == layout.GroupExternal || n.Group == layout.GroupVPC {
		cols = 2 * o.MaxColumns
	}
	place(leaves, cols)

	if len(b.Children) > 0 {
		y -= o.Gap
	}
	b.W = max(width+o.Padding, o.MinGroup)
	b.H = y + o.Padding
	return b
}
