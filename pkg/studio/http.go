package studio

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tunelab-ai/studio/pkg/api"
	"github.com/tunelab-ai/studio/pkg/common/logger"
	"github.com/tunelab-ai/studio/pkg/common/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/sessions", h.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", h.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", h.handleCloseSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/model", h.handleSelectModel).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/model/source", h.handleSwitchModelSource).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/model/upload", h.handleModelUploadProgress).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/dataset", h.handleSelectDataset).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/dataset/source", h.handleSwitchDatasetSource).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/dataset/upload", h.handleDatasetUploadProgress).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/dataset/preview", h.handleDatasetPreview).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/training", h.handleSetTrainingField).Methods(http.MethodPatch)
	r.HandleFunc("/sessions/{id}/lora", h.handleSetAdapterField).Methods(http.MethodPatch)
	r.HandleFunc("/sessions/{id}/export", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/import", h.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/submit", h.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/save", h.handleSaveConfiguration).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/load/{savedID}", h.handleLoadConfiguration).Methods(http.MethodPost)
	r.HandleFunc("/configurations", h.handleListConfigurations).Methods(http.MethodGet)
	r.HandleFunc("/configurations/{id}", h.handleDeleteConfiguration).Methods(http.MethodDelete)
}

type fieldUpdateRequest struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

type sourceSwitchRequest struct {
	Source SourceKind `json:"source"`
}

type saveRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.CreateSession(resolveActor(r))
	writeJSON(w, http.StatusCreated, snapshot)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snapshot, err := h.service.GetSession(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.service.CloseSession(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSelectModel(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var input SelectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.SelectModel(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSelectDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var input SelectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.SelectDataset(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSwitchModelSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req sourceSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.SwitchModelSource(id, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSwitchDatasetSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req sourceSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.SwitchDatasetSource(id, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleModelUploadProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	progress, ready, err := h.service.ModelUploadProgress(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": progress, "ready": ready})
}

func (h *Handler) handleDatasetUploadProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	progress, ready, err := h.service.DatasetUploadProgress(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": progress, "ready": ready})
}

// Dataset preview is a deferred capability of the dashboard, not a data
// fetch. It stays 501 until a real preview pipeline exists.
func (h *Handler) handleDatasetPreview(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "dataset preview is not implemented", http.StatusNotImplemented)
}

func (h *Handler) handleSetTrainingField(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req fieldUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.SetTrainingField(id, req.Field, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSetAdapterField(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req fieldUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.SetAdapterField(id, req.Field, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	data, err := h.service.Export(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="finetune-config.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Log.WithError(err).Error("failed to write exported configuration")
	}
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.Import(id, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	message, err := h.service.Submit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: message})
}

func (h *Handler) handleSaveConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	saved, err := h.service.SaveConfiguration(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleLoadConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	savedID, err := uuid.Parse(mux.Vars(r)["savedID"])
	if err != nil {
		http.Error(w, "invalid configuration id", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.LoadConfiguration(r.Context(), id, savedID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	rows, err := h.service.ListSavedConfigurations(r.Context(), resolveActor(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": rows})
}

func (h *Handler) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	savedID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid configuration id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteSavedConfiguration(r.Context(), savedID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return uuid.UUID{}, false
	}
	return id, true
}

func resolveActor(r *http.Request) string {
	if identity, ok := api.IdentityFromContext(r.Context()); ok {
		return identity.UserID.String()
	}
	return ""
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrConfigurationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrFileTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrSubmissionFailed):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, ErrIncompleteConfiguration):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnsupportedFile),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrMalformedConfiguration),
		errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrUnknownCatalogEntry),
		errors.Is(err, ErrUploadNotReady):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Log.WithError(err).Error("studio request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
