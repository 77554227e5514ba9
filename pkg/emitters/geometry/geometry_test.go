package geometry

import (
	"fmt"
	"testing"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedForest(leaves int) *layout.Forest {
	sub := &layout.Node{ID: "subnet-1", Type: layout.NodeGroup, Group: layout.GroupSubnet}
	for i := 0; i < leaves; i++ {
		sub.Children = append(sub.Children, &layout.Node{
			ID:   fmt.Sprintf("i-%d", i),
			Type: layout.NodeLeaf,
			Kind: domain.KindInstance,
		})
	}
	az := &layout.Node{ID: "az", Type: layout.NodeGroup, Group: layout.GroupAZ, Children: []*layout.Node{sub}}
	vpc := &layout.Node{ID: "vpc-1", Type: layout.NodeGroup, Group: layout.GroupVPC, Children: []*layout.Node{az}}
	return &layout.Forest{Trees: []*layout.Node{vpc}}
}

func TestArrange(t *testing.T) {
	c := Arrange(nestedForest(5), DefaultOptions())

	sub, ok := c.Box("subnet-1")
	require.True(t, ok)
	assert.Equal(t, 580.0, sub.W)
	assert.Equal(t, 300.0, sub.H)
	assert.Equal(t, 60.0, sub.AbsX)
	assert.Equal(t, 100.0, sub.AbsY)

	vpc, _ := c.Box("vpc-1")
	assert.Equal(t, 660.0, vpc.W)
	assert.Equal(t, 420.0, vpc.H)

	last, _ := c.Box("i-4")
	assert.Equal(t, 80.0, last.AbsX)
	assert.Equal(t, 270.0, last.AbsY)

	assert.Equal(t, 700.0, c.W)
	assert.Equal(t, 460.0, c.H)
}

func TestArrange_Empty(t *testing.T) {
	c := Arrange(&layout.Forest{}, DefaultOptions())
	assert.Empty(t, c.Roots)
	assert.Equal(t, 40.0, c.W)

	empty := &layout.Forest{Trees: []*layout.Node{{ID: "vpc-1", Type: layout.NodeGroup, Group: layout.GroupVPC}}}
	c = Arrange(empty, DefaultOptions())
	b, _ := c.Box("vpc-1")
	assert.Equal(t, 200.0, b.W)
	assert.Equal(t, 60.0, b.H)
}

func TestGroupColors(t *testing.T) {
	stroke, fill := GroupColors(&layout.Node{Group: layout.GroupSubnet, Public: true})
	assert.Equal(t, ColorPublic, stroke)
	assert.Equal(t, ColorPublicFill, fill)

	stroke, _ = GroupColors(&layout.Node{Group: layout.GroupSubnet})
	assert.Equal(t, ColorPrivate, stroke)

	assert.Equal(t, "general", StyleOf("Unknown").Icon)
	assert.Equal(t, "lambda", StyleOf(domain.KindLambdaFunction).Icon)
}
