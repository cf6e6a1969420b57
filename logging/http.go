package logging

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on inbound and outbound requests.
const RequestIDHeader = "X-Request-ID"

// HTTPLogger logs HTTP requests and responses handled by a server.
type HTTPLogger struct {
	logger      *Logger
	maxBodySize int
}

// NewHTTPLogger creates a new HTTP logger.
func NewHTTPLogger(logger *Logger, maxBodySize int) *HTTPLogger {
	if maxBodySize == 0 {
		maxBodySize = 10 * 1024 // 10KB default
	}
	return &HTTPLogger{
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// responseRecorder captures the response for logging.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	body        *bytes.Buffer
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
		r.ResponseWriter.WriteHeader(status)
	}
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	if r.body != nil && r.body.Len() < 10*1024 {
		r.body.Write(b[:min(len(b), 10*1024-r.body.Len())])
	}
	return n, err
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := r.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("responseRecorder does not support hijacking")
}

func (r *responseRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Middleware returns an HTTP middleware that logs requests and responses.
func (h *HTTPLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.New().String()
		}

		var requestBody string
		if r.Body != nil && r.ContentLength > 0 && r.ContentLength < int64(h.maxBodySize) {
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, int64(h.maxBodySize)))
			if err == nil {
				requestBody = string(bodyBytes)
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			}
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		recorder.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Milliseconds()

		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"status":      recorder.status,
			"size":        recorder.size,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}

		if requestBody != "" && !isSensitiveBody(r.URL.Path) {
			fields["request_body"] = truncate(requestBody, 1000)
		}

		if ct := recorder.Header().Get("Content-Type"); recorder.body.Len() > 0 && strings.HasPrefix(ct, "application/json") {
			fields["response_body"] = truncate(recorder.body.String(), 1000)
		}

		headers := make(map[string]string)
		for name, values := range r.Header {
			if !isSensitiveHeader(name) {
				headers[name] = strings.Join(values, ", ")
			}
		}
		if len(headers) > 0 {
			fields["request_headers"] = headers
		}

		h.logger.write(Entry{
			Timestamp: time.Now().UTC(),
			Level:     levelForStatus(recorder.status).String(),
			Category:  "http",
			Message:   fmt.Sprintf("%s %s %d", r.Method, r.URL.Path, recorder.status),
			Fields:    fields,
			RequestID: requestID,
			Duration:  &duration,
		})
	})
}

// Transport is an http.RoundTripper that stamps a request ID on outbound
// requests and logs their outcome under the "fetch" category.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	if t.Logger == nil {
		return resp, err
	}

	fields := map[string]any{
		"method": req.Method,
		"host":   req.URL.Host,
		"path":   req.URL.Path,
		"query":  req.URL.RawQuery,
	}
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Category:  "fetch",
		Fields:    fields,
		RequestID: requestID,
		Duration:  &duration,
	}
	if err != nil {
		entry.Level = WARN.String()
		entry.Message = fmt.Sprintf("%s %s failed", req.Method, req.URL.Path)
		entry.Error = err.Error()
		if WARN >= t.Logger.minLevel {
			t.Logger.write(entry)
		}
		return resp, err
	}

	fields["status"] = resp.StatusCode
	level := levelForStatus(resp.StatusCode)
	if level == ERROR {
		// Upstream failures are handled by the caller; keep them at WARN.
		level = WARN
	}
	if level == INFO {
		level = DEBUG
	}
	if level >= t.Logger.minLevel {
		entry.Level = level.String()
		entry.Message = fmt.Sprintf("%s %s %d", req.Method, req.URL.Path, resp.StatusCode)
		t.Logger.write(entry)
	}
	return resp, nil
}

func levelForStatus(status int) Level {
	switch {
	case status >= 500:
		return ERROR
	case status >= 400:
		return WARN
	default:
		return INFO
	}
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "auth") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "cookie") ||
		strings.Contains(lower, "key") ||
		strings.Contains(lower, "secret")
}

func isSensitiveBody(path string) bool {
	return strings.Contains(strings.ToLower(path), "login")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... [truncated]"
}
