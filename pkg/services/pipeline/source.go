package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	awsreader "github.com/de-tools/aws-atlas/pkg/services/reader/aws"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/de-tools/aws-atlas/pkg/store/snapshot"
	"github.com/rs/zerolog"
)

const (
	SourceAWS       = "aws"
	SourceSnapshot  = "snapshot"
	SourceInventory = "inventory"
)

// Loaded is what a source hands to the rest of the pipeline.
type Loaded struct {
	Resources  map[domain.Kind][]domain.Resource
	ReadErrors []awsreader.ReadError
	Profile    string
	Region     string
	AccountID  string
}

// Source yields the resources a diagram is drawn from.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Loaded, error)
}

// Collector reads resources from the AWS APIs; *aws.Controller implements it.
type Collector interface {
	ReadAll(ctx context.Context, services []string) (map[domain.Kind][]domain.Resource, []awsreader.ReadError, error)
}

type AccountResolver func(ctx context.Context) (string, error)

type awsSource struct {
	collector Collector
	account   AccountResolver
	services  []string
	profile   string
	region    string
}

// NewAWSSource connects to AWS with the given profile and region.
func NewAWSSource(ctx context.Context, profile, region string, services []string, concurrency int) (Source, error) {
	ctrl, cfg, err := awsreader.ControllerFactory(ctx, profile, region, concurrency)
	if err != nil {
		return nil, err
	}
	client := sts.NewFromConfig(*cfg)
	return NewCollectorSource(ctrl, func(ctx context.Context) (string, error) {
		return awsreader.AccountID(ctx, client)
	}, profile, cfg.Region, services), nil
}

// NewCollectorSource wraps an already configured collector. account may be nil.
func NewCollectorSource(collector Collector, account AccountResolver, profile, region string, services []string) Source {
	return &awsSource{
		collector: collector,
		account:   account,
		services:  services,
		profile:   profile,
		region:    region,
	}
}

func (s *awsSource) Name() string { return SourceAWS }

func (s *awsSource) Load(ctx context.Context) (*Loaded, error) {
	logger := zerolog.Ctx(ctx)

	loaded := &Loaded{Profile: s.profile, Region: s.region}
	if s.account != nil {
		accountID, err := s.account(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("could not resolve account id")
		}
		loaded.AccountID = accountID
	}

	logger.Info().Str("region", s.region).Str("profile", s.profile).Msg("reading resources from AWS")
	resources, failures, err := s.collector.ReadAll(ctx, s.services)
	if err != nil {
		return nil, fmt.Errorf("failed to read AWS resources: %w", err)
	}
	loaded.Resources = resources
	loaded.ReadErrors = failures
	return loaded, nil
}

type snapshotSource struct {
	dir string
}

// NewSnapshotSource reads a directory written by snapshot.Export, or any
// directory of CloudFormation templates.
func NewSnapshotSource(dir string) Source {
	return &snapshotSource{dir: dir}
}

func (s *snapshotSource) Name() string { return SourceSnapshot }

func (s *snapshotSource) Load(ctx context.Context) (*Loaded, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot directory %s: %w", s.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot directory %s: not a directory", s.dir)
	}

	resources, errs := snapshot.Import(s.dir)
	logger := zerolog.Ctx(ctx)
	for _, err := range errs {
		logger.Warn().Err(err).Msg("skipping template")
	}

	loaded := &Loaded{Resources: resources}
	loaded.Region = commonRegion(resources)
	return loaded, nil
}

// commonRegion is the region shared by all regional resources, or "".
func commonRegion(resources map[domain.Kind][]domain.Resource) string {
	region := ""
	for _, list := range resources {
		for _, r := range list {
			if r.Region == "" || r.Region == awsreader.GlobalRegion {
				continue
			}
			if region != "" && region != r.Region {
				return ""
			}
			region = r.Region
		}
	}
	return region
}

type inventorySource struct {
	store inventory.Store
	runID string
}

// NewInventorySource re-reads a run saved in the inventory database.
func NewInventorySource(store inventory.Store, runID string) Source {
	return &inventorySource{store: store, runID: runID}
}

func (s *inventorySource) Name() string { return SourceInventory }

func (s *inventorySource) Load(ctx context.Context) (*Loaded, error) {
	if s.runID == "" {
		return nil, errors.New("run id is required")
	}
	run, err := s.store.GetRun(ctx, s.runID)
	if err != nil {
		return nil, err
	}
	resources, err := s.store.LoadResources(ctx, s.runID)
	if err != nil {
		return nil, err
	}
	return &Loaded{
		Resources: resources,
		Profile:   run.Profile,
		Region:    run.Region,
		AccountID: run.AccountID,
	}, nil
}
