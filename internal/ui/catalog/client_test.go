package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientVideosPassesSearch(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/videos" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("search")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":1,"title":"Big Buck Bunny","views":42,"uploadDate":"2024-01-02"}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", nil)
	videos, err := client.Videos(context.Background(), "big buck")
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if gotQuery != "big buck" {
		t.Fatalf("expected search param, got %q", gotQuery)
	}
	if len(videos) != 1 || videos[0].Title != "Big Buck Bunny" || videos[0].Views != 42 || videos[0].UploadDate != "2024-01-02" {
		t.Fatalf("unexpected videos: %+v", videos)
	}
}

func TestClientVideosOmitsEmptySearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `null`)
	}))
	defer srv.Close()

	videos, err := NewClient(srv.URL, nil).Videos(context.Background(), "")
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if videos == nil || len(videos) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", videos)
	}
}

func TestClientVideosSendsTermVerbatim(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).Videos(context.Background(), " bun"); err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if gotQuery != " bun" {
		t.Fatalf("term should not be trimmed, got %q", gotQuery)
	}
}

func TestClientFeaturedRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`null`, `{}`, `{"videoUrl":""}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))
		featured, err := NewClient(srv.URL, nil).Featured(context.Background())
		srv.Close()
		if featured != nil || Kind(err) != "parse" {
			t.Fatalf("body %s: expected parse error, got %+v (%v)", body, featured, err)
		}
	}
}

func TestClientProfileSendsBearer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":7,"username":"ada","name":"Ada"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	session, err := client.Profile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if session.UserID != 7 || session.Username != "ada" || session.DisplayName != "Ada" {
		t.Fatalf("unexpected session: %+v", session)
	}

	_, err = client.Profile(context.Background(), "wrong")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if !errors.Is(err, ErrProtocol) || Kind(err) != "protocol" {
		t.Fatalf("expected protocol kind, got %q", Kind(err))
	}
}

func TestClientErrorKinds(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/featured-video":
			fmt.Fprint(w, `{"id":`)
		case "/api/user/profile":
			fmt.Fprint(w, `{}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	if _, err := client.Featured(ctx); Kind(err) != "parse" {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := client.Profile(ctx, "tok"); Kind(err) != "parse" {
		t.Fatalf("expected parse error for empty profile, got %v", err)
	}
	if _, err := client.Video(ctx, 3); Kind(err) != "protocol" {
		t.Fatalf("expected protocol error, got %v", err)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	if _, err := NewClient(closed.URL, nil).Videos(ctx, ""); Kind(err) != "network" {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClientVideoAndSuggestions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/videos/12":
			fmt.Fprint(w, `{"id":12,"title":"Sintel","description":"A girl and a dragon"}`)
		case "/api/search/suggestions":
			if r.URL.Query().Get("q") != "si" {
				t.Errorf("unexpected q %q", r.URL.Query().Get("q"))
			}
			fmt.Fprint(w, `["Sintel"]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := NewClient(srv.URL, nil)

	video, err := client.Video(context.Background(), 12)
	if err != nil || video.Description != "A girl and a dragon" {
		t.Fatalf("unexpected video %+v, err %v", video, err)
	}
	titles, err := client.Suggestions(context.Background(), "si")
	if err != nil || len(titles) != 1 || titles[0] != "Sintel" {
		t.Fatalf("unexpected suggestions %v, err %v", titles, err)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: dial", ErrNetwork), "network"},
		{&StatusError{Code: 404, Status: "404 Not Found"}, "protocol"},
		{fmt.Errorf("wrap: %w", fmt.Errorf("%w: eof", ErrParse)), "parse"},
		{errors.New("other"), "unknown"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
