// Package jsonout writes the planned forest and its connectors as JSON.
package jsonout

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/de-tools/aws-atlas/pkg/adapters"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

type Emitter struct{}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Format() string      { return "json" }
func (e *Emitter) Extension() string   { return "json" }
func (e *Emitter) ContentType() string { return "application/json" }

func (e *Emitter) Emit(w io.Writer, d *layout.Diagram) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(adapters.MapDiagramToApi(d)); err != nil {
		return fmt.Errorf("failed to encode diagram: %w", err)
	}
	return nil
}
