package devapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/logging"
)

// Handler serves the video service HTTP contract.
func Handler(svc *Service, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &handler{svc: svc, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos", h.videos)
	mux.HandleFunc("GET /api/videos/{id}", h.video)
	mux.HandleFunc("GET /api/featured-video", h.featured)
	mux.HandleFunc("GET /api/user/profile", h.profile)
	mux.HandleFunc("GET /api/search/suggestions", h.suggestions)
	return withCORS(mux)
}

type handler struct {
	svc    *Service
	logger *logging.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) videos(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Videos(r.URL.Query().Get("search")))
}

func (h *handler) video(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "video not found"})
		return
	}
	rec, ok := h.svc.View(id)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "video not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *handler) featured(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.svc.Featured()
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no videos"})
		return
	}
	h.writeJSON(w, http.StatusOK, model.FeaturedVideo{
		Video:       rec.Video,
		VideoURL:    rec.VideoURL,
		Description: rec.Description,
	})
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if !strings.HasPrefix(auth, "Bearer ") || token == "" {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	h.writeJSON(w, http.StatusOK, Profile())
}

func (h *handler) suggestions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Suggestions(r.URL.Query().Get("q")))
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("devapi", "encode response", err, map[string]any{"status": status})
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
