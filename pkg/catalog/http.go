package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Handler exposes the read side of both catalogs plus artifact registration
// for the existing/local selection variants.
type Handler struct {
	service *Service
	repo    *Repository
}

func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/catalog/models", h.handleListModels).Methods(http.MethodGet)
	r.HandleFunc("/catalog/models", h.handleRegisterModel).Methods(http.MethodPost)
	r.HandleFunc("/catalog/datasets", h.handleListDatasets).Methods(http.MethodGet)
	r.HandleFunc("/catalog/datasets", h.handleRegisterDataset).Methods(http.MethodPost)
}

type registerRequest struct {
	CatalogID string `json:"catalog_id"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"online": h.service.Models().Entries,
	}
	if h.repo != nil {
		registered, err := h.repo.ListModels(r.Context(), listLimit(r))
		if err != nil {
			http.Error(w, "failed to list registered models", http.StatusInternalServerError)
			return
		}
		response["registered"] = registered
	}
	writeCatalogJSON(w, http.StatusOK, response)
}

func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"online": h.service.Datasets().Entries,
	}
	if h.repo != nil {
		registered, err := h.repo.ListDatasets(r.Context(), listLimit(r))
		if err != nil {
			http.Error(w, "failed to list registered datasets", http.StatusInternalServerError)
			return
		}
		response["registered"] = registered
	}
	writeCatalogJSON(w, http.StatusOK, response)
}

func (h *Handler) handleRegisterModel(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "artifact registration is not enabled", http.StatusNotImplemented)
		return
	}
	req, ok := decodeRegisterRequest(w, r)
	if !ok {
		return
	}
	model, err := h.repo.RegisterModel(r.Context(), req.CatalogID, req.Path, req.SizeBytes)
	if err != nil {
		http.Error(w, "failed to register model", http.StatusInternalServerError)
		return
	}
	writeCatalogJSON(w, http.StatusCreated, model)
}

func (h *Handler) handleRegisterDataset(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "artifact registration is not enabled", http.StatusNotImplemented)
		return
	}
	req, ok := decodeRegisterRequest(w, r)
	if !ok {
		return
	}
	dataset, err := h.repo.RegisterDataset(r.Context(), req.CatalogID, req.Path, req.SizeBytes)
	if err != nil {
		http.Error(w, "failed to register dataset", http.StatusInternalServerError)
		return
	}
	writeCatalogJSON(w, http.StatusCreated, dataset)
}

func decodeRegisterRequest(w http.ResponseWriter, r *http.Request) (registerRequest, bool) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return registerRequest{}, false
	}
	if req.CatalogID == "" || req.Path == "" {
		http.Error(w, "catalog_id and path are required", http.StatusBadRequest)
		return registerRequest{}, false
	}
	return req, true
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}

func writeCatalogJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
