// Package pipeline runs a full generation: load resources from a source, build
// the catalog, infer edges, plan the layout, then persist and render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/emitters"
	"github.com/de-tools/aws-atlas/pkg/emitters/markdown"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/inference"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
	awsreader "github.com/de-tools/aws-atlas/pkg/services/reader/aws"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/de-tools/aws-atlas/pkg/store/snapshot"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultTitle = "AWS Architecture"
	diagramsDir  = "diagrams"
)

type Options struct {
	Title          string
	OutputDir      string
	OutputName     string
	Formats        []string
	NoDiagram      bool
	MergeThreshold int
	// ShowAttachments also draws ATTACHED_TO edges such as security groups.
	ShowAttachments bool
	// SnapshotDir, when set, receives one template per resource.
	SnapshotDir string
	// Inventory, when set, stores the run.
	Inventory inventory.Store
	Emitters  emitters.Registry
}

// Output is one rendered file.
type Output struct {
	Format string
	Path   string
}

type Result struct {
	// Template is the source file of a per-template run.
	Template      string
	Run           domain.Run
	Catalog       *catalog.Catalog
	Edges         *inference.EdgeSet
	Diagram       *layout.Diagram
	Warnings      []inference.Warning
	ReadErrors    []awsreader.ReadError
	SnapshotFiles int
	Outputs       []Output
}

// Analyze builds the catalog, edges and diagram without touching the disk.
func Analyze(ctx context.Context, resources map[domain.Kind][]domain.Resource, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	cat, err := catalog.FromSnapshot(resources)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	edges, warnings := inference.New(inference.WithLogger(*logger)).Infer(cat)
	forest := layout.NewPlanner(layout.Policy{MergeThreshold: opts.MergeThreshold}).Plan(cat, edges)

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	relations := layout.DefaultConnectorRelations()
	if opts.ShowAttachments {
		relations = append(relations, domain.RelationAttachedTo)
	}

	logger.Info().
		Int("resources", cat.Len()).
		Int("edges", edges.Len()).
		Int("warnings", len(warnings)).
		Msg("analysis complete")

	return &Result{
		Catalog:  cat,
		Edges:    edges,
		Diagram:  layout.NewDiagram(title, forest, edges, relations...),
		Warnings: warnings,
	}, nil
}

// Run loads resources from src and produces every artifact opts asks for.
func Run(ctx context.Context, src Source, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range loaded.ReadErrors {
		logger.Warn().Str("service", f.Service).Bool("access_denied", f.AccessDenied()).Err(f.Err).Msg("service skipped")
	}

	res, err := Analyze(ctx, loaded.Resources, opts)
	if err != nil {
		return nil, err
	}
	res.ReadErrors = loaded.ReadErrors
	res.Run = newRun(src.Name(), loaded, res)

	if res.Catalog.Len() == 0 {
		logger.Warn().Str("source", src.Name()).Msg("no resources found")
	}

	if opts.SnapshotDir != "" {
		n, err := snapshot.Export(opts.SnapshotDir, slices.Collect(res.Catalog.All()))
		if err != nil {
			return res, fmt.Errorf("failed to export snapshot: %w", err)
		}
		res.SnapshotFiles = n
		logger.Info().Int("files", n).Str("dir", opts.SnapshotDir).Msg("snapshot exported")
	}

	if opts.Inventory != nil {
		if err := opts.Inventory.SaveRun(ctx, res.Run, slices.Collect(res.Catalog.All()), res.Edges.Edges()); err != nil {
			return res, fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info().Str("run", res.Run.ID).Msg("run saved")
	}

	if opts.NoDiagram {
		return res, nil
	}

	outputs, err := Render(ctx, res.Diagram, opts)
	res.Outputs = outputs
	if err != nil {
		return res, err
	}
	return res, nil
}

func newRun(source string, loaded *Loaded, res *Result) domain.Run {
	kinds := make(map[domain.Kind]int)
	for _, k := range res.Catalog.Kinds() {
		kinds[k] = res.Catalog.CountOfKind(k)
	}
	return domain.Run{
		ID:        uuid.NewString(),
		Source:    source,
		Profile:   loaded.Profile,
		Region:    loaded.Region,
		AccountID: loaded.AccountID,
		CreatedAt: time.Now().UTC(),
		Resources: res.Catalog.Len(),
		Edges:     res.Edges.Len(),
		Kinds:     kinds,
	}
}

// Render writes the diagram in every requested format to
// <OutputDir>/diagrams/<OutputName>.<ext>.
func Render(ctx context.Context, d *layout.Diagram, opts Options) ([]Output, error) {
	registry := opts.Emitters
	if registry == nil {
		registry = emitters.Default()
	}

	var selected []emitters.Emitter
	for _, format := range uniqueFormats(opts.Formats) {
		e, err := registry.Get(format)
		if err != nil {
			return nil, err
		}
		selected = append(selected, e)
	}

	dir := filepath.Join(opts.OutputDir, diagramsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	image := ""
	for _, e := range selected {
		if ext := e.Extension(); ext == "png" || ext == "svg" {
			image = opts.OutputName + "." + ext
			break
		}
	}

	logger := zerolog.Ctx(ctx)
	var outputs []Output
	for _, e := range selected {
		if m, ok := e.(*markdown.Emitter); ok && m.DiagramFile == "" && image != "" {
			e = markdown.WithDiagram(image)
		}
		path := filepath.Join(dir, opts.OutputName+"."+e.Extension())
		if err := writeFile(path, e, d); err != nil {
			return outputs, fmt.Errorf("failed to render %s: %w", e.Format(), err)
		}
		logger.Info().Str("format", e.Format()).Str("path", path).Msg("diagram written")
		outputs = append(outputs, Output{Format: e.Format(), Path: path})
	}
	return outputs, nil
}

func writeFile(path string, e emitters.Emitter, d *layout.Diagram) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()
	return e.Emit(f, d)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func uniqueFormats(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
