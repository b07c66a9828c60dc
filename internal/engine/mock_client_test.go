package engine

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/dm/spm-go/internal/client"
)

// mockSplunkClient implements client.SplunkClient for testing. Feeds and Raw
// are served by path; Errs take precedence; any other path answers 404.
type mockSplunkClient struct {
	URL   string
	Feeds map[string]*client.Feed
	Raw   map[string]string
	Errs  map[string]error

	GetFn  func(ctx context.Context, path string) (*client.Feed, error)
	PostFn func(ctx context.Context, path string, form url.Values) (*client.Feed, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockSplunkClient) record(path string) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()
}

func (m *mockSplunkClient) called(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == path {
			return true
		}
	}
	return false
}

func (m *mockSplunkClient) Get(ctx context.Context, path string) (*client.Feed, error) {
	m.record(path)
	if m.GetFn != nil {
		return m.GetFn(ctx, path)
	}
	if err, ok := m.Errs[path]; ok {
		return nil, err
	}
	if f, ok := m.Feeds[path]; ok {
		return f, nil
	}
	return nil, &client.StatusError{Status: 404, Body: "not found"}
}

func (m *mockSplunkClient) GetRaw(ctx context.Context, path string) (string, error) {
	m.record(path)
	if err, ok := m.Errs[path]; ok {
		return "", err
	}
	if s, ok := m.Raw[path]; ok {
		return s, nil
	}
	return "", &client.StatusError{Status: 404, Body: "not found"}
}

func (m *mockSplunkClient) Post(ctx context.Context, path string, form url.Values) (*client.Feed, error) {
	m.record(path)
	if m.PostFn != nil {
		return m.PostFn(ctx, path, form)
	}
	return &client.Feed{}, nil
}

func (m *mockSplunkClient) BaseURL() string {
	if m.URL == "" {
		return "https://mock:8089"
	}
	return m.URL
}

// feed builds a feed with one entry per content, named by the "name" key
// when present.
func feed(contents ...client.Content) *client.Feed {
	f := &client.Feed{}
	for _, c := range contents {
		name, _ := c["name"].(string)
		f.Entries = append(f.Entries, client.Entry{Name: name, Content: c})
	}
	return f
}

func named(name string, c client.Content) client.Content {
	out := client.Content{"name": name}
	for k, v := range c {
		out[k] = v
	}
	return out
}

var errMockFailure = errors.New("mock failure")
