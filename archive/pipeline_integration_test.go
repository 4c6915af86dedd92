package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/chatstock/chatwork"
	"github.com/onnwee/chatstock/config"
	"github.com/onnwee/chatstock/docstore"
	"github.com/onnwee/chatstock/testutil"
	"github.com/onnwee/chatstock/textproc"
)

// End-to-end over the wire: real HTTP client against the mock Chatwork API,
// in-memory watermark and document stores.
func TestRunCycleOverHTTP(t *testing.T) {
	srv := testutil.NewMockChatworkServer(t)
	srv.MockMessagesResponse("101", `[
		{"message_id":"2001","send_time":1700000100,"body":"[qtmeta aid=9]hello team","account":{"account_id":9,"name":"Tanaka"}},
		{"message_id":"2002","send_time":1700000200,"body":"[To:9] the password is hunter2","account":{"account_id":12,"name":"Mori"}}
	]`)
	srv.MockNoContent("102")

	kv := testutil.NewMemKV()
	store := testutil.NewMemDocStore(
		&docstore.Section{ID: 1, Name: "General", Children: []*docstore.Section{
			{ID: 2, Name: "Logs"},
		}},
	)

	p := &Pipeline{
		Fetcher:     &chatwork.Client{Token: "tok", BaseURL: srv.URL},
		KV:          kv,
		Store:       store,
		Transformer: &textproc.Transformer{},
		Cfg: &config.Config{
			Rooms: []config.Room{
				{ID: "101", Section: "Logs"},
				{ID: "102", Section: "Logs"},
			},
			Timezone:    time.UTC,
			MaskSecrets: true,
		},
		Now: func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}

	status := p.RunCycle(context.Background())
	if !strings.Contains(status, "archived 2 new messages") {
		t.Errorf("status = %q, want 2 new messages", status)
	}
	if kv.Data["lastId:101"] != "2002" {
		t.Errorf("watermark for 101 = %q, want 2002", kv.Data["lastId:101"])
	}
	if _, ok := kv.Data["lastId:102"]; ok {
		t.Errorf("empty room 102 must not gain a watermark, got %q", kv.Data["lastId:102"])
	}

	paras := store.Paragraphs[2]
	if len(paras) != 1 {
		t.Fatalf("got %d paragraphs, want 1", len(paras))
	}
	block := paras[0]
	if strings.Contains(block, "[qtmeta") {
		t.Errorf("qtmeta marker leaked into block:\n%s", block)
	}
	if !strings.Contains(block, "【TO: Tanaka】") {
		t.Errorf("mention not resolved against sender table:\n%s", block)
	}
	if strings.Contains(block, "hunter2") || !strings.Contains(block, textproc.MaskedLine) {
		t.Errorf("password line not masked:\n%s", block)
	}
}

// A second cycle against the same window must be a no-op: everything at or
// below the watermark is filtered out before any write.
func TestRunCycleOverHTTPIdempotent(t *testing.T) {
	srv := testutil.NewMockChatworkServer(t)
	srv.MockMessagesResponse("101", `[
		{"message_id":"2001","send_time":1700000100,"body":"hello","account":{"account_id":9,"name":"Tanaka"}}
	]`)

	kv := testutil.NewMemKV()
	store := testutil.NewMemDocStore(&docstore.Section{ID: 1, Name: "Logs"})
	p := &Pipeline{
		Fetcher:     &chatwork.Client{Token: "tok", BaseURL: srv.URL},
		KV:          kv,
		Store:       store,
		Transformer: &textproc.Transformer{},
		Cfg: &config.Config{
			Rooms:    []config.Room{{ID: "101", Section: "Logs"}},
			Timezone: time.UTC,
		},
		Now: func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}

	p.RunCycle(context.Background())
	status := p.RunCycle(context.Background())

	if len(store.Paragraphs[1]) != 1 {
		t.Errorf("got %d paragraphs after two cycles, want 1", len(store.Paragraphs[1]))
	}
	if !strings.Contains(status, "archived 0 new messages") {
		t.Errorf("second cycle status = %q, want 0 new messages", status)
	}
}
