// Package chatwork contains a minimal client for the Chatwork v2 REST API,
// covering message retrieval for the archival pipeline and a connection test.
package chatwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// Message is one chat message as returned by the rooms/{id}/messages endpoint.
// The message id is a decimal string on the wire but totally ordered as an
// integer, so it is parsed on decode.
type Message struct {
	ID       int64
	SendTime int64
	Body     string
	Account  Account
}

// Account is the sender metadata attached to each message.
type Account struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
}

// TransportError is a non-success response from the Chatwork API.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chatwork api status %d: %s", e.StatusCode, e.Body)
}

// Client provides the few Chatwork API methods needed for archival.
type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://api.chatwork.com/v2"
}

// FetchMessages returns the most recent window of messages for a room, in
// whatever order the API chooses. It always uses force=1 (full recent window):
// the unread-only mode marks messages read server-side, and a human opening
// the room can then suppress delivery entirely. Duplicates are expected and
// filtered downstream by message id.
func (c *Client) FetchMessages(ctx context.Context, roomID string) ([]Message, error) {
	if roomID == "" {
		return nil, fmt.Errorf("room id empty")
	}
	url := fmt.Sprintf("%s/rooms/%s/messages?force=1", c.base(), roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-ChatWorkToken", c.Token)
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNoContent:
		return []Message{}, nil
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var raw []struct {
		MessageID string  `json:"message_id"`
		Body      string  `json:"body"`
		SendTime  int64   `json:"send_time"`
		Account   Account `json:"account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		id, err := strconv.ParseInt(m.MessageID, 10, 64)
		if err != nil {
			// An unparseable id cannot be ordered against the watermark; skip it.
			slog.Warn("skipping message with non-numeric id", slog.String("message_id", m.MessageID), slog.String("room_id", roomID))
			continue
		}
		out = append(out, Message{ID: id, SendTime: m.SendTime, Body: m.Body, Account: m.Account})
	}
	return out, nil
}

// GetMe fetches the authenticated account, as a cheap token/connectivity test.
func (c *Client) GetMe(ctx context.Context) (Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/me", nil)
	if err != nil {
		return Account{}, err
	}
	req.Header.Set("X-ChatWorkToken", c.Token)
	resp, err := c.http().Do(req)
	if err != nil {
		return Account{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Account{}, &TransportError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var me Account
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return Account{}, fmt.Errorf("decode me: %w", err)
	}
	return me, nil
}
