// Package catalog talks to the remote video service and applies its answers to
// page state.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/logging"
)

const defaultTimeout = 8 * time.Second

// Client performs requests against the video service HTTP contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

// NewClient builds a client for baseURL. Outbound requests carry a request ID
// and are logged through logger.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: logging.NewTransport(nil, logger),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Videos fetches the catalog, narrowed server-side when search is not empty.
// The term is sent verbatim, matching search.Filter, which does not trim either.
func (c *Client) Videos(ctx context.Context, search string) ([]model.Video, error) {
	endpoint := "/api/videos"
	if search != "" {
		endpoint += "?search=" + url.QueryEscape(search)
	}
	var videos []model.Video
	if err := c.getJSON(ctx, endpoint, "", &videos); err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// Featured fetches the featured video.
func (c *Client) Featured(ctx context.Context) (*model.FeaturedVideo, error) {
	var featured model.FeaturedVideo
	if err := c.getJSON(ctx, "/api/featured-video", "", &featured); err != nil {
		return nil, err
	}
	if featured.ID == 0 && featured.Title == "" {
		return nil, fmt.Errorf("%w: featured video is empty", ErrParse)
	}
	return &featured, nil
}

// Profile resolves token into the session it belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	if err := c.getJSON(ctx, "/api/user/profile", token, &session); err != nil {
		return nil, err
	}
	if session.UserID == 0 && session.Username == "" {
		return nil, fmt.Errorf("%w: profile has no user", ErrParse)
	}
	return &session, nil
}

// Video fetches one video by ID for a detail view.
func (c *Client) Video(ctx context.Context, id int64) (*model.Video, error) {
	var video model.Video
	if err := c.getJSON(ctx, "/api/videos/"+strconv.FormatInt(id, 10), "", &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Suggestions fetches title suggestions for a partial query.
func (c *Client) Suggestions(ctx context.Context, q string) ([]string, error) {
	var titles []string
	if err := c.getJSON(ctx, "/api/search/suggestions?q="+url.QueryEscape(q), "", &titles); err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Status: resp.Status}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}
