// Package explorer serves an analyzed inventory to the web API.
package explorer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/inference"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
	"github.com/de-tools/aws-atlas/pkg/services/pipeline"
)

type Explorer interface {
	Diagram(ctx context.Context) (*layout.Diagram, error)
	// Resources lists catalog records in insertion order; an empty kind means all.
	Resources(ctx context.Context, kind domain.Kind) ([]domain.Resource, error)
	Warnings(ctx context.Context) ([]inference.Warning, error)
	Reload(ctx context.Context) error
}

type sourceExplorer struct {
	source pipeline.Source
	opts   pipeline.Options

	mu     sync.Mutex
	result *pipeline.Result
}

// NewExplorer analyzes the source on first use and keeps the result until
// Reload is called.
func NewExplorer(source pipeline.Source, opts pipeline.Options) Explorer {
	return &sourceExplorer{source: source, opts: opts}
}

func (e *sourceExplorer) load(ctx context.Context) (*pipeline.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.result != nil {
		return e.result, nil
	}
	res, err := e.analyze(ctx)
	if err != nil {
		return nil, err
	}
	e.result = res
	return res, nil
}

func (e *sourceExplorer) analyze(ctx context.Context) (*pipeline.Result, error) {
	loaded, err := e.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", e.source.Name(), err)
	}
	return pipeline.Analyze(ctx, loaded.Resources, e.opts)
}

func (e *sourceExplorer) Reload(ctx context.Context) error {
	res, err := e.analyze(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.result = res
	e.mu.Unlock()
	return nil
}

func (e *sourceExplorer) Diagram(ctx context.Context) (*layout.Diagram, error) {
	res, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	return res.Diagram, nil
}

func (e *sourceExplorer) Resources(ctx context.Context, kind domain.Kind) ([]domain.Resource, error) {
	res, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return slices.Collect(res.Catalog.All()), nil
	}
	return slices.Collect(res.Catalog.AllOfKind(kind)), nil
}

func (e *sourceExplorer) Warnings(ctx context.Context) ([]inference.Warning, error) {
	res, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	return res.Warnings, nil
}
