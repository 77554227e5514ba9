package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/store/snapshot"
	"github.com/rs/zerolog"
)

var ErrNoTemplates = errors.New("no templates found")

// RunPerTemplate draws one diagram per CloudFormation template below dir,
// named <OutputName>-<template stem>. Templates that fail to parse or hold no
// known resources are skipped with a warning.
func RunPerTemplate(ctx context.Context, dir string, opts Options) ([]*Result, error) {
	logger := zerolog.Ctx(ctx)

	files, err := snapshot.Templates(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTemplates, dir)
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	used := make(map[string]int)

	var results []*Result
	for _, path := range files {
		resources, err := snapshot.ImportFile(path)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping template")
			continue
		}

		stem := templateStem(dir, path)
		if n := used[stem]; n > 0 {
			used[stem] = n + 1
			stem = fmt.Sprintf("%s-%d", stem, n+1)
		} else {
			used[stem] = 1
		}

		o := opts
		o.Title = fmt.Sprintf("%s: %s", title, stem)
		o.OutputName = opts.OutputName + "-" + stem

		res, err := Analyze(ctx, resources, o)
		if err != nil {
			return results, fmt.Errorf("%s: %w", path, err)
		}
		if res.Catalog.Len() == 0 {
			logger.Warn().Str("template", path).Msg("no known resources in template")
			continue
		}
		res.Template = path
		res.Run = newRun(SourceSnapshot, &Loaded{Resources: resources, Region: commonRegion(resources)}, res)

		if !o.NoDiagram {
			outputs, err := Render(ctx, res.Diagram, o)
			res.Outputs = outputs
			if err != nil {
				return append(results, res), err
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// templateStem names a template by its path below dir without extension,
// e.g. apps/queue.yaml becomes apps-queue.
func templateStem(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}
