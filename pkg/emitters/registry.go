// Package emitters renders a planned diagram into files.
package emitters

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/de-tools/aws-atlas/pkg/emitters/dot"
	"github.com/de-tools/aws-atlas/pkg/emitters/drawio"
	"github.com/de-tools/aws-atlas/pkg/emitters/jsonout"
	"github.com/de-tools/aws-atlas/pkg/emitters/markdown"
	"github.com/de-tools/aws-atlas/pkg/emitters/mermaid"
	"github.com/de-tools/aws-atlas/pkg/emitters/svg"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

var ErrUnknownFormat = errors.New("unknown diagram format")

// Emitter writes one output format.
type Emitter interface {
	// Format is the name used on the command line, e.g. "drawio"
	Format() string
	// Extension is the file extension without the dot
	Extension() string
	// ContentType is the MIME type served by the web API
	ContentType() string
	Emit(w io.Writer, d *layout.Diagram) error
}

// Registry manages the available emitters
type Registry interface {
	// Register adds an emitter under its format name
	Register(e Emitter) error
	// Get returns the emitter for a format
	Get(format string) (Emitter, error)
	// Formats returns the registered format names, sorted
	Formats() []string
}

type registry struct {
	mu       sync.RWMutex
	emitters map[string]Emitter
}

func NewRegistry(emitters ...Emitter) (Registry, error) {
	r := &registry{
		emitters: make(map[string]Emitter),
	}
	for _, e := range emitters {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns a registry with every built-in format.
func Default() Registry {
	r, err := NewRegistry(
		drawio.New(),
		svg.New(),
		mermaid.New(),
		dot.New(),
		dot.NewPNG(dot.ExecRunner),
		jsonout.New(),
		markdown.New(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *registry) Register(e Emitter) error {
	if e == nil {
		return fmt.Errorf("emitter cannot be nil")
	}
	format := e.Format()
	if format == "" {
		return fmt.Errorf("format name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emitters[format]; exists {
		return fmt.Errorf("format %q is already registered", format)
	}
	r.emitters[format] = e
	return nil
}

func (r *registry) Get(format string) (Emitter, error) {
	r.mu.RLock()
	e, exists := r.emitters[format]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return e, nil
}

func (r *registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.emitters))
	for format := range r.emitters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}
