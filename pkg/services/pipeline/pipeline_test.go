package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/de-tools/aws-atlas/pkg/emitters"
	"github.com/de-tools/aws-atlas/pkg/emitters/jsonout"
	"github.com/de-tools/aws-atlas/pkg/emitters/mermaid"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
	awsreader "github.com/de-tools/aws-atlas/pkg/services/reader/aws"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	queueArn  = "arn:aws:sqs:ap-northeast-1:123456789012:jobs"
	lambdaArn = "arn:aws:lambda:ap-northeast-1:123456789012:function:worker"
	missingLB = "arn:aws:elasticloadbalancing:ap-northeast-1:123456789012:loadbalancer/app/gone/1"
)

type stubCollector struct {
	resources map[domain.Kind][]domain.Resource
	failures  []awsreader.ReadError
	err       error
	services  []string
}

func (s *stubCollector) ReadAll(_ context.Context, services []string) (map[domain.Kind][]domain.Resource, []awsreader.ReadError, error) {
	s.services = services
	return s.resources, s.failures, s.err
}

type failingEmitter struct{}

func (failingEmitter) Format() string      { return "broken" }
func (failingEmitter) Extension() string   { return "txt" }
func (failingEmitter) ContentType() string { return "text/plain" }

func (failingEmitter) Emit(w io.Writer, _ *layout.Diagram) error {
	_, _ = io.WriteString(w, "partial")
	return errors.New("renderer crashed")
}

func r(id string, kind domain.Kind, attrs map[string]any) domain.Resource {
	return domain.Resource{ID: id, Kind: kind, Region: "ap-northeast-1", Attributes: attrs}
}

func sampleResources() map[domain.Kind][]domain.Resource {
	return map[domain.Kind][]domain.Resource{
		domain.KindVPC: {r("vpc-1", domain.KindVPC, map[string]any{domain.AttrCidrBlock: "10.0.0.0/16"})},
		domain.KindSubnet: {r("subnet-1", domain.KindSubnet, map[string]any{
			domain.AttrVpcID:            "vpc-1",
			domain.AttrAvailabilityZone: "ap-northeast-1a",
		})},
		domain.KindInstance: {
			r("i-1", domain.KindInstance, map[string]any{domain.AttrSubnetID: "subnet-1", domain.AttrVpcID: "vpc-1"}),
			r("i-2", domain.KindInstance, map[string]any{domain.AttrSubnetID: "subnet-1", domain.AttrVpcID: "vpc-1"}),
		},
		domain.KindQueue: {r(queueArn, domain.KindQueue, nil)},
		domain.KindLambdaFunction: {r(lambdaArn, domain.KindLambdaFunction, map[string]any{
			domain.AttrEventSourceArns: []string{queueArn},
		})},
		domain.KindTargetGroup: {r("arn:aws:elasticloadbalancing:ap-northeast-1:123456789012:targetgroup/web/1", domain.KindTargetGroup, map[string]any{
			domain.AttrLoadBalancerArns: []string{missingLB},
		})},
	}
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func testRegistry(t *testing.T, extra ...emitters.Emitter) emitters.Registry {
	reg, err := emitters.NewRegistry(append([]emitters.Emitter{jsonout.New(), mermaid.New()}, extra...)...)
	require.NoError(t, err)
	return reg
}

func TestAnalyze(t *testing.T) {
	res, err := Analyze(testContext(), sampleResources(), Options{MergeThreshold: 5})
	require.NoError(t, err)

	assert.Equal(t, 7, res.Catalog.Len())
	assert.Equal(t, DefaultTitle, res.Diagram.Title)
	require.Len(t, res.Warnings, 1, "dangling load balancer reference")
	assert.Equal(t, missingLB, res.Warnings[0].Ref)

	require.Len(t, res.Diagram.Connectors, 1)
	assert.Equal(t, domain.RelationTriggers, res.Diagram.Connectors[0].Relation)
}

func TestAnalyze_DuplicateID(t *testing.T) {
	resources := sampleResources()
	resources[domain.KindVPC] = append(resources[domain.KindVPC], resources[domain.KindVPC][0])

	_, err := Analyze(testContext(), resources, Options{})
	assert.ErrorContains(t, err, "failed to build catalog")
}

func TestRun_FromCollector(t *testing.T) {
	out := t.TempDir()
	collector := &stubCollector{
		resources: sampleResources(),
		failures: []awsreader.ReadError{{
			Service: "iam",
			Err:     &smithy.GenericAPIError{Code: "AccessDenied"},
		}},
	}
	src := NewCollectorSource(collector, func(context.Context) (string, error) {
		return "123456789012", nil
	}, "dev", "ap-northeast-1", []string{"ec2"})

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := inventory.NewStore(db)
	require.NoError(t, err)

	res, err := Run(testContext(), src, Options{
		OutputDir:   out,
		OutputName:  "arch",
		Formats:     []string{"json", "mermaid", "json"},
		SnapshotDir: filepath.Join(out, "cloudformation"),
		Inventory:   store,
		Emitters:    testRegistry(t),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ec2"}, collector.services)
	require.Len(t, res.ReadErrors, 1)
	assert.True(t, res.ReadErrors[0].AccessDenied())

	assert.Equal(t, SourceAWS, res.Run.Source)
	assert.Equal(t, "123456789012", res.Run.AccountID)
	assert.Equal(t, 7, res.Run.Resources)
	assert.Equal(t, 2, res.Run.Kinds[domain.KindInstance])
	assert.NotEmpty(t, res.Run.ID)

	assert.Equal(t, 7, res.SnapshotFiles)
	assert.FileExists(t, filepath.Join(out, "cloudformation", "vpc", "vpc-1.yaml"))

	require.Len(t, res.Outputs, 2)
	assert.Equal(t, Output{Format: "json", Path: filepath.Join(out, "diagrams", "arch.json")}, res.Outputs[0])
	assert.Equal(t, filepath.Join(out, "diagrams", "arch.mmd"), res.Outputs[1].Path)
	assert.FileExists(t, res.Outputs[1].Path)

	t.Run("re-render from snapshot", func(t *testing.T) {
		again, err := Run(testContext(), NewSnapshotSource(filepath.Join(out, "cloudformation")), Options{NoDiagram: true})
		require.NoError(t, err)
		assert.Equal(t, 7, again.Catalog.Len())
		assert.Equal(t, res.Edges.Edges(), again.Edges.Edges())
		assert.Equal(t, "ap-northeast-1", again.Run.Region)
		assert.Empty(t, again.Outputs)
	})

	t.Run("re-render from inventory", func(t *testing.T) {
		again, err := Run(testContext(), NewInventorySource(store, res.Run.ID), Options{NoDiagram: true})
		require.NoError(t, err)
		assert.Equal(t, 7, again.Catalog.Len())
		assert.Equal(t, res.Edges.Edges(), again.Edges.Edges())
		assert.Equal(t, "dev", again.Run.Profile)
	})
}

func TestRun_SourceErrors(t *testing.T) {
	t.Run("collector", func(t *testing.T) {
		src := NewCollectorSource(&stubCollector{err: context.Canceled}, nil, "", "", nil)
		_, err := Run(testContext(), src, Options{NoDiagram: true})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing snapshot directory", func(t *testing.T) {
		_, err := Run(testContext(), NewSnapshotSource(filepath.Join(t.TempDir(), "nope")), Options{NoDiagram: true})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("inventory without run", func(t *testing.T) {
		_, err := NewInventorySource(nil, "").Load(testContext())
		assert.EqualError(t, err, "run id is required")
	})
}

func TestRender(t *testing.T) {
	res, err := Analyze(testContext(), sampleResources(), Options{})
	require.NoError(t, err)

	t.Run("unknown format", func(t *testing.T) {
		_, err := Render(testContext(), res.Diagram, Options{OutputDir: t.TempDir(), OutputName: "x", Formats: []string{"visio"}, Emitters: testRegistry(t)})
		assert.ErrorIs(t, err, emitters.ErrUnknownFormat)
	})

	t.Run("failing emitter removes partial file", func(t *testing.T) {
		dir := t.TempDir()
		outputs, err := Render(testContext(), res.Diagram, Options{
			OutputDir:  dir,
			OutputName: "x",
			Formats:    []string{"json", "broken"},
			Emitters:   testRegistry(t, failingEmitter{}),
		})
		assert.ErrorContains(t, err, "failed to render broken: renderer crashed")
		assert.Len(t, outputs, 1)
		assert.NoFileExists(t, filepath.Join(dir, "diagrams", "x.txt"))
	})
}

func TestCommonRegion(t *testing.T) {
	assert.Equal(t, "ap-northeast-1", commonRegion(sampleResources()))
	assert.Equal(t, "", commonRegion(map[domain.Kind][]domain.Resource{
		domain.KindVPC: {{ID: "a", Region: "us-east-1"}, {ID: "b", Region: "eu-west-1"}},
	}))
	assert.Equal(t, "us-east-1", commonRegion(map[domain.Kind][]domain.Resource{
		domain.KindIamRole: {{ID: "r", Region: awsreader.GlobalRegion}},
		domain.KindVPC:     {{ID: "a", Region: "us-east-1"}},
	}))
}
