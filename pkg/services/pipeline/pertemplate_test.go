package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/aws-atlas/pkg/emitters/markdown"
	"github.com/de-tools/aws-atlas/pkg/emitters/svg"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const networkTemplate = `
Resources:
  MainVpc:
    Type: AWS::EC2::VPC
    Properties:
      CidrBlock: 10.0.0.0/16
  WebSubnet:
    Type: AWS::EC2::Subnet
    Properties:
      VpcId: !Ref MainVpc
      AvailabilityZone: ap-northeast-1a
`

const queueTemplate = `
Resources:
  Jobs:
    Type: AWS::SQS::Queue
`

func writeTemplates(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func TestRunPerTemplate(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"network.yaml":   networkTemplate,
		"apps/queue.yml": queueTemplate,
		"broken.yaml":    "Resources: [unclosed",
		"custom.yaml":    "Resources:\n  Thing:\n    Type: Custom::Thing\n",
		"README.md":      "not a template",
	})
	out := t.TempDir()

	results, err := RunPerTemplate(testContext(), dir, Options{
		OutputDir:      out,
		OutputName:     "arch",
		Formats:        []string{"markdown", "svg", "json"},
		MergeThreshold: 5,
		Emitters:       testRegistry(t, markdown.New(), svg.New()),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	queue, network := results[0], results[1]
	assert.Equal(t, filepath.Join(dir, "apps", "queue.yml"), queue.Template)
	assert.Equal(t, "AWS Architecture: apps-queue", queue.Diagram.Title)
	assert.Equal(t, 1, queue.Run.Resources)
	assert.Equal(t, SourceSnapshot, queue.Run.Source)

	assert.Equal(t, "AWS Architecture: network", network.Diagram.Title)
	assert.Equal(t, 2, network.Run.Resources)
	assert.Equal(t, map[domain.Kind]int{domain.KindVPC: 1, domain.KindSubnet: 1}, network.Run.Kinds)
	assert.NotEqual(t, queue.Run.ID, network.Run.ID)

	require.Len(t, network.Outputs, 3)
	for _, o := range network.Outputs {
		assert.FileExists(t, o.Path)
	}
	assert.Equal(t, filepath.Join(out, diagramsDir, "arch-network.md"), network.Outputs[0].Path)
	assert.Equal(t, filepath.Join(out, diagramsDir, "arch-apps-queue.json"), queue.Outputs[2].Path)

	report, err := os.ReadFile(network.Outputs[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(report), "![AWS Architecture: network](arch-network.svg)")
	assert.Contains(t, string(report), "| cidr_block | 10.0.0.0/16 |")
	assert.NotContains(t, string(report), "Jobs")
}

func TestRunPerTemplate_NoDiagram(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"network.yaml": networkTemplate})

	results, err := RunPerTemplate(testContext(), dir, Options{
		OutputDir:  t.TempDir(),
		OutputName: "arch",
		Formats:    []string{"json"},
		NoDiagram:  true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Outputs)
}

func TestRunPerTemplate_NoTemplates(t *testing.T) {
	_, err := RunPerTemplate(testContext(), t.TempDir(), Options{OutputName: "arch"})
	assert.ErrorIs(t, err, ErrNoTemplates)

	_, err = RunPerTemplate(testContext(), filepath.Join(t.TempDir(), "missing"), Options{OutputName: "arch"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRender_MarkdownWithoutImage(t *testing.T) {
	res, err := Analyze(testContext(), sampleResources(), Options{MergeThreshold: 5})
	require.NoError(t, err)

	outputs, err := Render(testContext(), res.Diagram, Options{
		OutputDir:  t.TempDir(),
		OutputName: "arch",
		Formats:    []string{"markdown", "mermaid"},
		Emitters:   testRegistry(t, markdown.New()),
	})
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	report, err := os.ReadFile(outputs[0].Path)
	require.NoError(t, err)
	assert.NotContains(t, string(report), "![")
	assert.Contains(t, string(report), "| `"+queueArn+"` | TRIGGERS | `"+lambdaArn+"` |")
}

func TestTemplateStem(t *testing.T) {
	dir := filepath.Join("cf", "out")
	assert.Equal(t, "network", templateStem(dir, filepath.Join(dir, "network.yaml")))
	assert.Equal(t, "apps-queue", templateStem(dir, filepath.Join(dir, "apps", "queue.yml")))
}
