package chatwork

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchMessages(t *testing.T) {
	var gotToken string
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-ChatWorkToken")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"message_id":"1002","body":"second","send_time":1700000100,"account":{"account_id":42,"name":"Sato"}},
			{"message_id":"1001","body":"first","send_time":1700000000,"account":{"account_id":7,"name":"Suzuki"}}
		]`))
	}))
	defer srv.Close()

	c := &Client{Token: "tok", BaseURL: srv.URL}
	msgs, err := c.FetchMessages(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchMessages error: %v", err)
	}
	if gotToken != "tok" {
		t.Errorf("token header = %q, want tok", gotToken)
	}
	if gotQuery != "force=1" {
		t.Errorf("query = %q, want force=1", gotQuery)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	// API order must be preserved (sorting is the tracker's job)
	if msgs[0].ID != 1002 || msgs[1].ID != 1001 {
		t.Errorf("ids = %d,%d; want 1002,1001", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Account.Name != "Sato" || msgs[1].Account.AccountID != 7 {
		t.Errorf("account metadata lost: %+v", msgs)
	}
}

func TestFetchMessagesNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := &Client{Token: "tok", BaseURL: srv.URL}
	msgs, err := c.FetchMessages(context.Background(), "123")
	if err != nil {
		t.Fatalf("204 must not be an error, got %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty result, got %d", len(msgs))
	}
}

func TestFetchMessagesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":["invalid token"]}`))
	}))
	defer srv.Close()

	c := &Client{Token: "bad", BaseURL: srv.URL}
	_, err := c.FetchMessages(context.Background(), "123")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T (%v)", err, err)
	}
	if te.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", te.StatusCode)
	}
}

func TestFetchMessagesSkipsUnparseableID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"message_id":"abc","body":"weird","send_time":1,"account":{"account_id":1,"name":"x"}},
			{"message_id":"5","body":"ok","send_time":2,"account":{"account_id":1,"name":"x"}}
		]`))
	}))
	defer srv.Close()

	c := &Client{Token: "tok", BaseURL: srv.URL}
	msgs, err := c.FetchMessages(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchMessages error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != 5 {
		t.Errorf("expected only the parseable message, got %+v", msgs)
	}
}

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account_id":99,"name":"Archiver Bot"}`))
	}))
	defer srv.Close()

	c := &Client{Token: "tok", BaseURL: srv.URL}
	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe error: %v", err)
	}
	if me.AccountID != 99 || me.Name != "Archiver Bot" {
		t.Errorf("unexpected me: %+v", me)
	}
}
