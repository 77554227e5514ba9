package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/emitters"
	"github.com/de-tools/aws-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/aws-atlas/pkg/services/config"
	"github.com/de-tools/aws-atlas/pkg/services/pipeline"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// AWSSourceFactory connects to AWS for a generate run.
type AWSSourceFactory func(ctx context.Context, profile, region string, services []string, concurrency int) (pipeline.Source, error)

type GenerateCmd struct {
	viper    *viper.Viper
	emitters emitters.Registry
	reporter *export.Reporter
	connect  AWSSourceFactory
	drawio   bool
}

func NewGenerateCmd(v *viper.Viper, registry emitters.Registry, reporter *export.Reporter, connect AWSSourceFactory) *cobra.Command {
	gc := &GenerateCmd{viper: v, emitters: registry, reporter: reporter, connect: connect}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Read AWS resources and draw an architecture diagram",
		Example: `  awsdiagram generate --region ap-northeast-1 --format drawio --format svg
  awsdiagram generate --export-cf --no-diagram
  awsdiagram generate --from-cf ./aws-outputs/cloudformation --format mermaid
  awsdiagram generate --from-cf ./templates --per-template --format svg --format markdown
  awsdiagram generate --from-db inventory.db --run <run-id>`,
		Args: cobra.NoArgs,
		RunE: gc.run,
	}

	flags := cmd.Flags()
	flags.String("region", config.DefaultRegion, "AWS region to read")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("output-dir", config.DefaultOutputDir, "Output directory")
	flags.String("output-name", config.DefaultOutputName, "Base name of the diagram files")
	flags.StringSlice("format", []string{"png"}, fmt.Sprintf("Diagram format, repeatable (%s)", strings.Join(registry.Formats(), ", ")))
	flags.BoolVar(&gc.drawio, "drawio", false, "Shorthand for --format drawio")
	flags.Int("merge-threshold", config.DefaultMergeLimit, "Same-kind siblings at which leaves collapse into a summary node")
	flags.StringSlice("services", nil, "Only read these services (default all)")
	flags.Bool("show-attachments", false, "Also draw security group, role and log group attachments")
	flags.Int("concurrency", config.DefaultConcurrency, "Services read in parallel")
	flags.Bool("no-diagram", false, "Skip diagram generation")
	flags.Bool("export-cf", false, "Export resources as CloudFormation templates to <output-dir>/cloudformation")
	flags.String("export-db", "", "Save the run to this DuckDB inventory")
	flags.String("from-cf", "", "Read resources from a CloudFormation directory instead of AWS")
	flags.String("from-db", "", "Read resources from a DuckDB inventory instead of AWS")
	flags.String("run", "", "Run id to load with --from-db")
	flags.Bool("per-template", false, "With --from-cf, draw one diagram per template file")

	bind(v, flags, map[string]string{
		"region":           "region",
		"profile":          "profile",
		"output_dir":       "output-dir",
		"output_name":      "output-name",
		"formats":          "format",
		"merge_threshold":  "merge-threshold",
		"services":         "services",
		"show_attachments": "show-attachments",
		"concurrency":      "concurrency",
		"no_diagram":       "no-diagram",
		"export_cf":        "export-cf",
		"export_db":        "export-db",
		"from_cf":          "from-cf",
		"from_db":          "from-db",
		"run":              "run",
		"per_template":     "per-template",
	})

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	settings, err := config.Load(gc.viper)
	if err != nil {
		return err
	}
	if gc.drawio {
		if cmd.Flags().Changed("format") {
			settings.Formats = append(settings.Formats, "drawio")
		} else {
			settings.Formats = []string{"drawio"}
		}
	}

	opts := pipeline.Options{
		OutputDir:       settings.OutputDir,
		OutputName:      settings.OutputName,
		Formats:         settings.Formats,
		NoDiagram:       settings.NoDiagram,
		MergeThreshold:  settings.MergeThreshold,
		ShowAttachments: settings.ShowAttachments,
		Emitters:        gc.emitters,
	}
	if !opts.NoDiagram {
		for _, f := range opts.Formats {
			if _, err := gc.emitters.Get(f); err != nil {
				return fmt.Errorf("%w (supported: %s)", err, strings.Join(gc.emitters.Formats(), ", "))
			}
		}
	}

	if settings.PerTemplate {
		return gc.perTemplate(ctx, settings, opts)
	}

	src, closeSource, err := gc.source(ctx, settings)
	if err != nil {
		return err
	}
	defer closeSource()

	if settings.ExportCF {
		if src.Name() == pipeline.SourceSnapshot {
			logger.Warn().Msg("--export-cf ignored when reading from CloudFormation")
		} else {
			opts.SnapshotDir = settings.SnapshotDir()
		}
	}
	if settings.ExportDB != "" {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: settings.ExportDB})
		if err != nil {
			return fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		defer db.Close()
		store, err := inventory.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create inventory store: %w", err)
		}
		opts.Inventory = store
	}

	res, err := pipeline.Run(ctx, src, opts)
	if err != nil {
		return err
	}
	if res.Catalog.Len() == 0 {
		return fmt.Errorf("no resources found: check the %s source", src.Name())
	}
	return gc.reporter.Handle(res)
}

func (gc *GenerateCmd) perTemplate(ctx context.Context, s *config.Settings, opts pipeline.Options) error {
	logger := zerolog.Ctx(ctx)
	if s.ExportCF || s.ExportDB != "" {
		logger.Warn().Msg("--export-cf and --export-db are ignored with --per-template")
	}

	results, err := pipeline.RunPerTemplate(ctx, s.FromCF, opts)
	for _, res := range results {
		if herr := gc.reporter.Handle(res); herr != nil {
			return herr
		}
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no resources found in the templates under %s", s.FromCF)
	}
	return nil
}

// source picks where resources come from; the returned func releases it.
func (gc *GenerateCmd) source(ctx context.Context, s *config.Settings) (pipeline.Source, func(), error) {
	switch {
	case s.FromCF != "":
		return pipeline.NewSnapshotSource(s.FromCF), func() {}, nil
	case s.FromDB != "":
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: s.FromDB})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open inventory: %w", err)
		}
		store, err := inventory.NewStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return pipeline.NewInventorySource(store, s.Run), func() { db.Close() }, nil
	default:
		src, err := gc.connect(ctx, s.Profile, s.Region, s.Services, s.Concurrency)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	}
}
