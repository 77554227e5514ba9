package terminal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/pipeline"
	awsreader "github.com/de-tools/aws-atlas/pkg/services/reader/aws"
	"github.com/de-tools/aws-atlas/pkg/store/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	resources map[domain.Kind][]domain.Resource
}

func (s *stubCollector) ReadAll(context.Context, []string) (map[domain.Kind][]domain.Resource, []awsreader.ReadError, error) {
	return s.resources, nil, nil
}

func sampleResources() map[domain.Kind][]domain.Resource {
	return map[domain.Kind][]domain.Resource{
		domain.KindVPC: {{ID: "vpc-1", Kind: domain.KindVPC, Region: "ap-northeast-1", Attributes: map[string]any{
			domain.AttrCidrBlock: "10.0.0.0/16",
		}}},
		domain.KindSubnet: {{ID: "subnet-1", Kind: domain.KindSubnet, Region: "ap-northeast-1", Attributes: map[string]any{
			domain.AttrVpcID:            "vpc-1",
			domain.AttrAvailabilityZone: "ap-northeast-1a",
		}}},
		domain.KindS3Bucket: {{ID: "arn:aws:s3:::assets", Kind: domain.KindS3Bucket, Name: "assets", Region: "ap-northeast-1"}},
	}
}

type harness struct {
	cli    *CLI
	out    *bytes.Buffer
	errOut *bytes.Buffer
	calls  int
}

func newHarness(t *testing.T, resources map[domain.Kind][]domain.Resource) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.cli = NewCLI(Options{
		Output:    h.out,
		ErrOutput: h.errOut,
		AWSSource: func(_ context.Context, profile, region string, services []string, _ int) (pipeline.Source, error) {
			h.calls++
			return pipeline.NewCollectorSource(&stubCollector{resources: resources}, nil, profile, region, services), nil
		},
	})
	return h
}

func (h *harness) run(args ...string) error {
	h.cli.SetArgs(args)
	return h.cli.Execute()
}

func TestCLI_Kinds(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run("kinds"))

	out := h.out.String()
	assert.Contains(t, out, "| Kind ")
	assert.Contains(t, out, "AWS::EC2::VPC")
	assert.Contains(t, out, "cloudwatch-log-group")
	assert.Equal(t, len(domain.Kinds())+4, strings.Count(out, "\n"))
}

func TestCLI_GenerateFromAWS(t *testing.T) {
	h := newHarness(t, sampleResources())
	out := t.TempDir()

	err := h.run("generate", "--output-dir", out, "--format", "json", "--drawio", "--export-cf", "--region", "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, 1, h.calls)

	assert.FileExists(t, filepath.Join(out, "diagrams", "aws-architecture.json"))
	assert.FileExists(t, filepath.Join(out, "diagrams", "aws-architecture.drawio"))
	assert.FileExists(t, filepath.Join(out, "cloudformation", "vpc", "vpc-1.yaml"))

	report := h.out.String()
	assert.Contains(t, report, "AWS Architecture")
	assert.Contains(t, report, "Source: aws  Region: eu-west-1")
	assert.Contains(t, report, "Resources: 3")
	assert.Contains(t, report, "Snapshot: 3 templates")
	assert.Contains(t, report, "- drawio: ")
}

func TestCLI_GenerateFromSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	dir := t.TempDir()
	var resources []domain.Resource
	for _, list := range sampleResources() {
		resources = append(resources, list...)
	}
	_, err := snapshot.Export(filepath.Join(dir, "cf"), resources)
	require.NoError(t, err)

	db := filepath.Join(dir, "inventory.db")
	err = h.run("generate", "--from-cf", filepath.Join(dir, "cf"), "--output-dir", dir, "--output-name", "snap",
		"--format", "mermaid", "--export-db", db)
	require.NoError(t, err)
	assert.Zero(t, h.calls)
	assert.FileExists(t, filepath.Join(dir, "diagrams", "snap.mmd"))

	h.out.Reset()
	require.NoError(t, h.run("runs", "--db", db))
	assert.Contains(t, h.out.String(), "snapshot")
	assert.Contains(t, h.out.String(), "| 3 ")
}

func TestCLI_GeneratePerTemplate(t *testing.T) {
	h := newHarness(t, nil)
	dir := t.TempDir()
	cf := filepath.Join(dir, "cf")
	require.NoError(t, os.MkdirAll(cf, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cf, "network.yaml"), []byte(`
Resources:
  MainVpc:
    Type: AWS::EC2::VPC
    Properties:
      CidrBlock: 10.0.0.0/16
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cf, "storage.yaml"), []byte(`
Resources:
  Assets:
    Type: AWS::S3::Bucket
`), 0o644))

	err := h.run("generate", "--from-cf", cf, "--per-template", "--output-dir", dir, "--output-name", "stack",
		"--format", "mermaid", "--format", "markdown")
	require.NoError(t, err)
	assert.Zero(t, h.calls)

	for _, name := range []string{"stack-network.mmd", "stack-network.md", "stack-storage.mmd", "stack-storage.md"} {
		assert.FileExists(t, filepath.Join(dir, "diagrams", name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "diagrams", "stack.mmd"))

	report := h.out.String()
	assert.Contains(t, report, "AWS Architecture: network")
	assert.Contains(t, report, "Template: "+filepath.Join(cf, "storage.yaml"))
	assert.Equal(t, 2, strings.Count(report, "Template: "))
}

func TestCLI_GenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown format", []string{"generate", "--format", "visio"}, `unknown diagram format: "visio"`},
		{"two sources", []string{"generate", "--from-cf", "a", "--from-db", "b", "--run", "r"}, "--from-cf and --from-db cannot be used together"},
		{"db without run", []string{"generate", "--from-db", "b"}, "--from-db requires --run"},
		{"no resources", []string{"generate", "--no-diagram"}, "no resources found: check the aws source"},
		{"low threshold", []string{"generate", "--merge-threshold", "1"}, "merge threshold must be at least 2, got 1"},
		{"per template without templates", []string{"generate", "--per-template"}, "--per-template requires --from-cf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, map[domain.Kind][]domain.Resource{})
			err := h.run(append(tt.args, "--output-dir", t.TempDir())...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCLI_ConfigFile(t *testing.T) {
	h := newHarness(t, sampleResources())
	dir := t.TempDir()
	cfg := filepath.Join(dir, "awsdiagram.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output_name: from-config\nformats: [json]\n"), 0o644))

	require.NoError(t, h.run("generate", "--config", cfg, "--output-dir", dir))
	assert.FileExists(t, filepath.Join(dir, "diagrams", "from-config.json"))
}

func TestCLI_Profiles(t *testing.T) {
	h := newHarness(t, nil)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfg, []byte("[profile dev]\nregion = us-east-1\n"), 0o600))

	require.NoError(t, h.run("profiles", "--aws-config", cfg, "--aws-credentials", filepath.Join(dir, "none")))
	assert.Contains(t, h.out.String(), "| dev ")
	assert.Contains(t, h.out.String(), "us-east-1")
}
