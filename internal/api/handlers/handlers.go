// Package handlers exposes the HTTP API. Import endpoints stream the
// uploaded file into the pipeline service; the rest are thin reads and
// deletes over the store.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rfmelo/gestorpme/internal/api/middleware"
	"github.com/rfmelo/gestorpme/internal/delimited"
	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/extract"
	"github.com/rfmelo/gestorpme/internal/importer"
	"github.com/rfmelo/gestorpme/internal/pipeline"
	"github.com/rfmelo/gestorpme/internal/store"
)

// maxUploadBytes caps multipart uploads at 32 MiB.
const maxUploadBytes = 32 << 20

type Handler struct {
	svc   *pipeline.Service
	store store.Store
	log   zerolog.Logger
}

func New(svc *pipeline.Service, s store.Store, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, store: s, log: log}
}

// Router binds every route onto a fresh mux.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/imports/csv", h.importCSV)
	mux.HandleFunc("POST /api/imports/ai", h.importAI)
	mux.HandleFunc("POST /api/imports/convert", h.importConvert)
	mux.HandleFunc("GET /api/imports/log", h.getImportLog)
	mux.HandleFunc("DELETE /api/imports/log", h.clearImportLog)
	mux.HandleFunc("GET /api/imports/runs", h.listRuns)
	mux.HandleFunc("GET /api/imports/runs/{id}", h.getRun)

	mux.HandleFunc("GET /api/clients", h.listClients)
	mux.HandleFunc("POST /api/clients", h.createClient)
	mux.HandleFunc("DELETE /api/clients/{id}", h.deleteClient)
	mux.HandleFunc("GET /api/transactions", h.listTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.deleteTransaction)
	mux.HandleFunc("GET /api/files", h.listFiles)
	mux.HandleFunc("GET /api/settings", h.getSettings)
	mux.HandleFunc("PUT /api/settings", h.putSettings)

	mux.HandleFunc("GET /health", h.health)

	return mux
}

// readUpload pulls the "file" part out of a multipart request.
func readUpload(r *http.Request) (pipeline.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return pipeline.Upload{}, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return pipeline.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Upload{}, err
	}
	return pipeline.Upload{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}

func parsePolarity(s string) domain.PolarityHint {
	switch s {
	case "income", "receita":
		return domain.PolarityForceIncome
	case "expense", "despesa":
		return domain.PolarityForceExpense
	default:
		return domain.PolarityAuto
	}
}

// parseMode resolves the model tier. Document work defaults to the
// thinking tier; faster tiers must be requested explicitly.
func parseMode(s string) extract.Mode {
	switch s {
	case "fast":
		return extract.ModeFast
	case "standard":
		return extract.ModeStandard
	default:
		return extract.ModeThinking
	}
}

// writeImportError maps pipeline failures onto status codes. A concurrent
// import is a conflict, a malformed file is the caller's fault, everything
// else is ours.
func (h *Handler) writeImportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importer.ErrImportBusy):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, delimited.ErrTooShort):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("importação falhou")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "arquivo ausente ou inválido")
		return
	}
	target := pipeline.TargetTransactions
	if r.FormValue("kind") == "clients" {
		target = pipeline.TargetClients
	}

	result, err := h.svc.ImportDelimited(r.Context(), up, target, parsePolarity(r.FormValue("polarity")))
	if err != nil {
		h.writeImportError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) importAI(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "arquivo ausente ou inválido")
		return
	}

	result, err := h.svc.ImportDocument(r.Context(), up, parseMode(r.FormValue("mode")), parsePolarity(r.FormValue("polarity")))
	if err != nil {
		h.writeImportError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) importConvert(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "arquivo ausente ou inválido")
		return
	}

	result, err := h.svc.ConvertAndImport(r.Context(), up, parseMode(r.FormValue("mode")), parsePolarity(r.FormValue("polarity")))
	if err != nil {
		// The artifact is returned even when the follow-up import failed,
		// so the operator can download and fix it by hand.
		if result.Artifact != "" {
			middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    err.Error(),
				"artifact": result.Artifact,
				"runId":    result.RunID,
			})
			return
		}
		h.writeImportError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) getImportLog(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": h.svc.Activity().Entries(),
	})
}

func (h *Handler) clearImportLog(w http.ResponseWriter, r *http.Request) {
	h.svc.Activity().Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"runs": h.svc.Runs().List()})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Runs().Get(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, run)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("falha ao listar clientes")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var c domain.Client
	if err := decodeJSON(r, &c); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	if c.Name == "" && c.TaxID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "informe nome ou CPF/CNPJ")
		return
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	if err := h.store.BulkUpsertClients(r.Context(), []domain.Client{c}); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.ListTransactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("falha ao listar lançamentos")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"transactions": txs, "count": len(txs)})
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.ListFiles(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(r, &settings); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	if err := h.store.SaveSettings(r.Context(), settings); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, settings)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
