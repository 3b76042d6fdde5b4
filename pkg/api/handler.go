package api

import (
	"encoding/json"
	"net/http"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/kit"
)

// NewRouter returns an http.Handler with all registry API routes.
func NewRouter(n *catalog.Normalizer, cat *catalog.Catalog) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		normalizeTerm:  normalizeTermEndpoint(n),
		normalizeBatch: normalizeBatchEndpoint(n),
		listCatalog:    listCatalogEndpoint(cat),
		normalizer:     n,
	}

	mux.HandleFunc("GET /v1/normalize/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/normalize/batch", h.handleNormalizeBatch)
	mux.HandleFunc("GET /v1/normalize/{term}", h.handleNormalizeTerm)
	mux.HandleFunc("GET /v1/catalog", h.handleListCatalog)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(mux)
}

type handler struct {
	normalizeTerm  kit.Endpoint
	normalizeBatch kit.Endpoint
	listCatalog    kit.Endpoint
	normalizer     *catalog.Normalizer
}

// --- normalize single term ---

func (h *handler) handleNormalizeTerm(w http.ResponseWriter, r *http.Request) {
	term := r.PathValue("term")
	if term == "" {
		writeError(w, http.StatusBadRequest, "missing term")
		return
	}

	resp, err := h.normalizeTerm(r.Context(), &normalizeTermReq{Term: term})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- normalize batch ---

type httpBatchRequest struct {
	Terms []string `json:"terms"`
}

func (h *handler) handleNormalizeBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.normalizeBatch(r.Context(), &normalizeBatchReq{Terms: req.Terms})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- catalog listing ---

func (h *handler) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listCatalog(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status      string `json:"status"`
	CatalogSize int    `json:"catalog_size"`
	CachedTerms int    `json:"cached_terms"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		CatalogSize: h.normalizer.CatalogLen(),
		CachedTerms: h.normalizer.CacheLen(),
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
