package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/services"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProxyHandler serves GET /api/cloudinary?type=image|video[&tag=...].
type ProxyHandler struct {
	lister services.Lister
	logger *log.Logger
}

// NewProxyHandler creates a [ProxyHandler] backed by lister.
func NewProxyHandler(lister services.Lister, logger *log.Logger) *ProxyHandler {
	return &ProxyHandler{lister: lister, logger: logger}
}

// Routes implements [Handler].
func (h *ProxyHandler) Routes() []string {
	return []string{"/api/cloudinary"}
}

// ServeHTTP lists resources of the requested type. The type defaults to image; a tag of
// "undefined" or "null" is ignored.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	kind := models.KindImage
	if t := r.URL.Query().Get("type"); t != "" {
		parsed, err := models.ParseKind(t)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid type", Details: err.Error()})
			return
		}
		kind = parsed
	}

	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	if tag == "undefined" || tag == "null" {
		tag = ""
	}

	resources, err := h.lister.ListResources(r.Context(), kind, tag)
	if err != nil {
		h.logger.Error("failed to fetch media", "type", kind, "tag", tag, "err", err, "request_id", RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch media", Details: err.Error()})
		return
	}
	if resources == nil {
		resources = []models.RemoteResource{}
	}

	writeJSON(w, http.StatusOK, models.ListingResponse{Resources: resources})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
