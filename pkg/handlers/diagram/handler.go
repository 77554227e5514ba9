package diagram

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/aws-atlas/pkg/adapters"
	"github.com/de-tools/aws-atlas/pkg/emitters"
	"github.com/de-tools/aws-atlas/pkg/models/api"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/explorer"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	explorer  explorer.Explorer
	emitters  emitters.Registry
	inventory inventory.Store
}

// NewHandler wires the diagram endpoints. The inventory store is optional.
func NewHandler(exp explorer.Explorer, registry emitters.Registry, store inventory.Store) *Handler {
	return &Handler{
		explorer:  exp,
		emitters:  registry,
		inventory: store,
	}
}

func (h *Handler) GetDiagram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	d, err := h.explorer.Diagram(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build diagram")
		http.Error(w, "failed to build diagram", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, adapters.MapDiagramToApi(d))
}

func (h *Handler) RenderDiagram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	format := chi.URLParam(r, "format")

	emitter, err := h.emitters.Get(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	d, err := h.explorer.Diagram(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build diagram")
		http.Error(w, "failed to build diagram", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", emitter.ContentType())
	if err := emitter.Emit(w, d); err != nil {
		logger.Error().
			Err(err).
			Str("format", format).
			Msg("failed to render diagram")
	}
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var kind domain.Kind
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, err := domain.ParseKind(k)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = parsed
	}

	resources, err := h.explorer.Resources(ctx, kind)
	if err != nil {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to list resources")
		http.Error(w, "failed to list resources", http.StatusInternalServerError)
		return
	}

	response := make([]api.Resource, 0, len(resources))
	for _, res := range resources {
		response = append(response, adapters.MapResourceDomainToApi(res))
	}
	writeJSON(w, r, response)
}

func (h *Handler) ListWarnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	warnings, err := h.explorer.Warnings(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list warnings")
		http.Error(w, "failed to list warnings", http.StatusInternalServerError)
		return
	}

	response := make([]api.Warning, 0, len(warnings))
	for _, warn := range warnings {
		response = append(response, adapters.MapWarningToApi(warn))
	}
	writeJSON(w, r, response)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.inventory == nil {
		http.Error(w, "inventory is not configured", http.StatusNotFound)
		return
	}

	runs, err := h.inventory.ListRuns(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list runs")
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	response := make([]api.Run, 0, len(runs))
	for _, run := range runs {
		response = append(response, adapters.MapRunDomainToApi(run))
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	runID := chi.URLParam(r, "run")

	if h.inventory == nil {
		http.Error(w, "inventory is not configured", http.StatusNotFound)
		return
	}

	run, err := h.inventory.GetRun(ctx, runID)
	if errors.Is(err, inventory.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("run", runID).Msg("failed to get run")
		http.Error(w, "failed to get run", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, adapters.MapRunDomainToApi(*run))
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
