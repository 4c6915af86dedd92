package archive

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"github.com/onnwee/chatstock/chatwork"
	"github.com/onnwee/chatstock/db"
)

// KV is the durable key-value store holding per-room watermarks.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// dbKV backs KV with the Postgres kv table.
type dbKV struct{ db *sql.DB }

func (k dbKV) Get(ctx context.Context, key string) (string, error) {
	return db.KVGet(ctx, k.db, key)
}

func (k dbKV) Set(ctx context.Context, key, value string) error {
	return db.KVSet(ctx, k.db, key, value)
}

func watermarkKey(roomID string) string { return "lastId:" + roomID }

// lastID reads a room's watermark; 0 means nothing archived yet.
func (p *Pipeline) lastID(ctx context.Context, roomID string) (int64, error) {
	v, err := p.KV.Get(ctx, watermarkKey(roomID))
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt watermark for room %s: %w", roomID, err)
	}
	return id, nil
}

// commit persists the highest archived id for a room. It must only be called
// after the document append is confirmed, and it never runs on an empty set.
func (p *Pipeline) commit(ctx context.Context, roomID string, msgs []chatwork.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	newest := msgs[len(msgs)-1].ID
	return p.KV.Set(ctx, watermarkKey(roomID), strconv.FormatInt(newest, 10))
}

// FilterAndOrder keeps only messages newer than the watermark and sorts them
// ascending by id, so the archive reads chronologically regardless of the
// order the API returned. Duplicate ids are dropped silently.
func FilterAndOrder(batch []chatwork.Message, lastID int64) []chatwork.Message {
	out := make([]chatwork.Message, 0, len(batch))
	seen := make(map[int64]struct{}, len(batch))
	for _, m := range batch {
		if m.ID <= lastID {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
