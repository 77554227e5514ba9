package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/pipeline"
)

type TableConfig struct {
	MinWidth int
	MaxWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MinWidth: 5,
		MaxWidth: 80,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type kindCount struct {
	Kind  domain.Kind
	Count int
}

type summary struct {
	*pipeline.Result
	Kinds []kindCount
}

const summaryTemplate = `
{{.Diagram.Title}}
{{- if .Template}}
Template: {{.Template}}{{end}}
Source: {{.Run.Source}}{{if .Run.Region}}  Region: {{.Run.Region}}{{end}}{{if .Run.AccountID}}  Account: {{.Run.AccountID}}{{end}}
Run: {{.Run.ID}}

Resources: {{.Run.Resources}}  Edges: {{.Run.Edges}}  Warnings: {{len .Warnings}}
{{if .Kinds}}
{{table .Kinds}}{{end}}
{{- if .ReadErrors}}
=== Skipped services ===
{{range .ReadErrors}}- {{.Service}}: {{if .AccessDenied}}access denied{{else}}{{.Err}}{{end}}
{{end}}{{end}}
{{- if .Warnings}}
=== Warnings ===
{{range .Warnings}}- {{.}}
{{end}}{{end}}
{{- if .SnapshotFiles}}
Snapshot: {{.SnapshotFiles}} templates
{{end}}
{{- if .Outputs}}
=== Diagrams ===
{{range .Outputs}}- {{.Format}}: {{.Path}}
{{end}}{{end}}`

// Handle prints the summary of a generate run.
func (c *Reporter) Handle(res *pipeline.Result) error {
	funcMap := template.FuncMap{
		"table": func(kinds []kindCount) string {
			rows := make([][]string, 0, len(kinds))
			for _, k := range kinds {
				rows = append(rows, []string{string(k.Kind), fmt.Sprint(k.Count)})
			}
			return c.render([]string{"Kind", "Count"}, rows)
		},
	}

	t, err := template.New("summary").Funcs(funcMap).Parse(summaryTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	s := summary{Result: res}
	for k, n := range res.Run.Kinds {
		s.Kinds = append(s.Kinds, kindCount{Kind: k, Count: n})
	}
	sort.Slice(s.Kinds, func(i, j int) bool {
		return domain.CompareKinds(s.Kinds[i].Kind, s.Kinds[j].Kind) < 0
	})
	return t.Execute(c.writer, s)
}

// Table prints rows under a header row.
func (c *Reporter) Table(headers []string, rows [][]string) error {
	_, err := io.WriteString(c.writer, c.render(headers, rows))
	return err
}

func (c *Reporter) render(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = max(c.config.MinWidth, utf8.RuneCountInString(h))
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], c.config.MaxWidth)
	}

	var b strings.Builder
	separator := func() {
		b.WriteString("+")
		for _, w := range widths {
			b.WriteString(strings.Repeat("-", w+2))
			b.WriteString("+")
		}
		b.WriteString("\n")
	}
	line := func(cells []string) {
		b.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = domain.ShortName(cells[i], w)
			}
			fmt.Fprintf(&b, " %-*s |", w, cell)
		}
		b.WriteString("\n")
	}

	separator()
	line(headers)
	separator()
	for _, row := range rows {
		line(row)
	}
	separator()
	return b.String()
}
