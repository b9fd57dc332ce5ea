package puppet

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source provides an SVG document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource is a path on disk.
type FileSource string

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(string(s))
}

func (s FileSource) String() string { return string(s) }

// InlineSource is the document itself.
type InlineSource string

func (s InlineSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

func (s InlineSource) String() string { return "<inline svg>" }

// DefaultClient is used by URL sources without client.
var DefaultClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	},
	Timeout: time.Minute,
}

// URLSource downloads the document.
type URLSource struct {
	URL    string
	Client *http.Client // optional
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %s", s.URL, resp.Status)
	}
	return resp.Body, nil
}

func (s URLSource) String() string { return s.URL }

// ParseSource interprets s as inline SVG if it starts with '<',
// as an URL for the http and https schemes, and as a file path otherwise.
func ParseSource(s string) Source {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(trimmed, "<"):
		return InlineSource(trimmed)
	case strings.HasPrefix(trimmed, "http://"), strings.HasPrefix(trimmed, "https://"):
		return URLSource{URL: trimmed}
	default:
		return FileSource(s)
	}
}
