// Package testutil holds shared test fakes: a mock Chatwork API server and
// in-memory implementations of the watermark store and document store.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/chatstock/docstore"
)

// MockChatworkServer creates a test server that mocks Chatwork API responses.
type MockChatworkServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockChatworkServer creates a new mock Chatwork API server.
func NewMockChatworkServer(t *testing.T) *MockChatworkServer {
	t.Helper()
	m := &MockChatworkServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockMessagesResponse serves a raw JSON body for /rooms/{roomID}/messages.
func (m *MockChatworkServer) MockMessagesResponse(roomID, body string) {
	m.Handlers["/rooms/"+roomID+"/messages"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test mock response
	}
}

// MockNoContent serves a 204 for /rooms/{roomID}/messages.
func (m *MockChatworkServer) MockNoContent(roomID string) {
	m.Handlers["/rooms/"+roomID+"/messages"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// MemKV is an in-memory watermark/config store.
type MemKV struct {
	Data   map[string]string
	SetErr error // when set, Set fails with this error
}

func NewMemKV() *MemKV { return &MemKV{Data: make(map[string]string)} }

func (k *MemKV) Get(ctx context.Context, key string) (string, error) {
	return k.Data[key], nil
}

func (k *MemKV) Set(ctx context.Context, key, value string) error {
	if k.SetErr != nil {
		return k.SetErr
	}
	k.Data[key] = value
	return nil
}

// MemDocStore is an in-memory destination document.
type MemDocStore struct {
	Roots      []*docstore.Section
	Paragraphs map[int64][]string
	AppendErr  error // when set, Append fails with this error
}

func NewMemDocStore(roots ...*docstore.Section) *MemDocStore {
	return &MemDocStore{Roots: roots, Paragraphs: make(map[int64][]string)}
}

func (s *MemDocStore) FindSection(ctx context.Context, name string) (*docstore.Section, error) {
	return docstore.FindByName(s.Roots, name), nil
}

func (s *MemDocStore) Append(ctx context.Context, sec *docstore.Section, text string) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.Paragraphs[sec.ID] = append(s.Paragraphs[sec.ID], text)
	return nil
}
