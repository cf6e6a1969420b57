// Package server renders the iVideo page for a single visitor and routes form
// submissions to the page actions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Its-donkey/ivideo/internal/ui/app"
	"github.com/Its-donkey/ivideo/internal/ui/catalog"
	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/logging"
)

const (
	loadingRefreshSeconds = 1
	searchWait            = 5 * time.Second
	recentLogLimit        = 200
)

// Page is the subset of app.App the server drives.
type Page interface {
	View() app.View
	SetSearchTerm(term string)
	SubmitSearch() <-chan struct{}
	Login(ctx context.Context, creds model.Credentials) *model.Session
	Logout(ctx context.Context)
	Suggestions(ctx context.Context, q string) []string
	OpenVideo(ctx context.Context, id int64) (*model.Video, error)
}

// Options configures the preview server.
type Options struct {
	Page         Page
	Logger       *logging.Logger
	TemplatesDir string
	// LogPath enables GET /debug/logs when set.
	LogPath string
}

type server struct {
	page        Page
	logger      *logging.Logger
	templates   map[string]*template.Template
	logPath     string
	currentYear int
}

type basePageData struct {
	PageTitle   string
	Refresh     int
	CurrentYear int
	SearchTerm  string
	Session     *model.Session
}

type homePageData struct {
	basePageData
	Featured   *model.FeaturedVideo
	Videos     []model.Video
	Categories []model.Category
}

type videoPageData struct {
	basePageData
	Video        *model.Video
	ErrorTitle   string
	ErrorMessage string
}

// New builds the HTTP handler for the preview page.
func New(opts Options) (http.Handler, error) {
	if opts.Page == nil {
		return nil, errors.New("server: page is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	tmpl, err := loadTemplates(opts.TemplatesDir)
	if err != nil {
		return nil, err
	}
	s := &server{
		page:        opts.Page,
		logger:      logger,
		templates:   tmpl,
		logPath:     opts.LogPath,
		currentYear: time.Now().Year(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /videos/{id}", s.handleVideo)
	mux.HandleFunc("GET /api/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.logPath != "" {
		mux.HandleFunc("GET /debug/logs", s.handleLogs)
	}
	return logging.NewHTTPLogger(logger, 0).Middleware(mux), nil
}

func (s *server) base(title string, view app.View) basePageData {
	return basePageData{
		PageTitle:   title,
		CurrentYear: s.currentYear,
		SearchTerm:  view.SearchTerm,
		Session:     view.Session,
	}
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		s.page.SetSearchTerm(strings.Join(q, " "))
	}
	view := s.page.View()

	if view.Loading() {
		data := s.base("iVideo", view)
		data.Refresh = loadingRefreshSeconds
		s.render(w, http.StatusOK, "loading", data)
		return
	}
	s.render(w, http.StatusOK, "home", homePageData{
		basePageData: s.base("iVideo", view),
		Featured:     view.Featured,
		Videos:       view.Videos,
		Categories:   view.Categories,
	})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s.page.SetSearchTerm(r.PostFormValue("q"))
	done := s.page.SubmitSearch()

	ctx, cancel := context.WithTimeout(r.Context(), searchWait)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		s.requestLog(w).WithField("term", r.PostFormValue("q")).Warn("search still running, rendering current catalog")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	session := s.page.Login(r.Context(), model.Credentials{
		Username:    r.PostFormValue("username"),
		DisplayName: r.PostFormValue("name"),
		Password:    r.PostFormValue("password"),
	})
	if session != nil {
		s.requestLog(w).WithField("username", session.Username).Info("visitor signed in")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.page.Logout(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleVideo(w http.ResponseWriter, r *http.Request) {
	view := s.page.View()
	data := videoPageData{basePageData: s.base("iVideo", view)}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		data.ErrorTitle = "Video not found"
		data.ErrorMessage = "That video does not exist."
		s.render(w, http.StatusNotFound, "video", data)
		return
	}

	video, err := s.page.OpenVideo(r.Context(), id)
	if err != nil {
		s.requestLog(w).WithField("id", id).WithField("kind", catalog.Kind(err)).Error("open video failed", err)
		status := http.StatusBadGateway
		var statusErr *catalog.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			status = http.StatusNotFound
			data.ErrorTitle = "Video not found"
			data.ErrorMessage = "That video does not exist."
		} else {
			data.ErrorTitle = "Video unavailable"
			data.ErrorMessage = "The video service could not be reached. Try again shortly."
		}
		s.render(w, status, "video", data)
		return
	}
	data.PageTitle = video.Title + " · iVideo"
	data.Video = video
	s.render(w, http.StatusOK, "video", data)
}

func (s *server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.page.Suggestions(r.Context(), r.URL.Query().Get("q")))
}

func (s *server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := recentLogLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v < limit {
		limit = v
	}
	entries, err := logging.ReadRecent(s.logPath, limit)
	if err != nil {
		s.requestLog(w).Error("read recent logs", err)
		http.Error(w, "failed to read logs", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, entries)
}

// requestLog scopes entries to the request ID the logging middleware assigned.
func (s *server) requestLog(w http.ResponseWriter) *logging.LogContext {
	return s.logger.WithRequestID(w.Header().Get(logging.RequestIDHeader)).WithCategory("server")
}

func (s *server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "template missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Error("server", "render template", err, map[string]any{"template": name})
	}
}

func (s *server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("server", "encode response", err, nil)
	}
}
