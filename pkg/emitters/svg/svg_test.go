package svg

import (
	"bytes"
	"testing"

	"github.com/beevik/etree"
	"github.com/de-tools/aws-atlas/pkg/emitters/internal/sample"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit(t *testing.T) {
	d, err := sample.Diagram()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New().Emit(&buf, d))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	svg := doc.SelectElement("svg")
	require.NotNil(t, svg)
	assert.Contains(t, buf.String(), `xmlns="http://www.w3.org/2000/svg"`)
	assert.Equal(t, "sample", svg.SelectElement("title").Text())

	groups := doc.FindElements("//g[@id='nodes']/g")
	assert.Len(t, groups, 11)

	vpc := doc.FindElement("//g[@id='vpc-1']")
	require.NotNil(t, vpc)
	assert.Equal(t, "group vpc", vpc.SelectAttrValue("class", ""))

	lines := doc.FindElements("//g[@id='connectors']/line")
	require.Len(t, lines, 1)
	assert.Equal(t, "TRIGGERS", lines[0].SelectAttrValue("data-relation", ""))
	assert.Equal(t, "url(#arrow-triggers)", lines[0].SelectAttrValue("marker-end", ""))

	assert.Contains(t, buf.String(), "assets &lt;prod&gt;")
}

func TestEmit_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Emit(&buf, &layout.Diagram{Forest: &layout.Forest{}}))
	assert.Contains(t, buf.String(), `width="40"`)
}

func TestAbbreviation(t *testing.T) {
	assert.Equal(t, "EC2", abbreviation(&layout.Node{Kind: domain.KindInstance}))
	assert.Equal(t, "VPCE", abbreviation(&layout.Node{Kind: domain.KindVpcEndpoint}))
	assert.Equal(t, "IAMR", abbreviation(&layout.Node{Kind: domain.KindIamRole}))
}
