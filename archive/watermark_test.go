package archive

import (
	"context"
	"testing"

	"github.com/onnwee/chatstock/chatwork"
	"github.com/onnwee/chatstock/testutil"
)

func TestFilterAndOrder(t *testing.T) {
	batch := []chatwork.Message{{ID: 5}, {ID: 3}, {ID: 7}}
	got := FilterAndOrder(batch, 4)
	if len(got) != 2 || got[0].ID != 5 || got[1].ID != 7 {
		t.Errorf("FilterAndOrder = %+v, want ids [5 7]", got)
	}
}

func TestFilterAndOrderSortsDescendingInput(t *testing.T) {
	// The API window may arrive newest-first; the archive must read chronologically.
	batch := []chatwork.Message{{ID: 30}, {ID: 20}, {ID: 10}}
	got := FilterAndOrder(batch, 0)
	if len(got) != 3 || got[0].ID != 10 || got[2].ID != 30 {
		t.Errorf("FilterAndOrder = %+v, want ascending ids", got)
	}
}

func TestFilterAndOrderDropsDuplicates(t *testing.T) {
	batch := []chatwork.Message{{ID: 5, Body: "a"}, {ID: 5, Body: "b"}, {ID: 6}}
	got := FilterAndOrder(batch, 0)
	if len(got) != 2 {
		t.Fatalf("duplicate id must be dropped, got %+v", got)
	}
	if got[0].ID != 5 || got[0].Body != "a" {
		t.Errorf("first occurrence should win: %+v", got[0])
	}
}

func TestFilterAndOrderAllOld(t *testing.T) {
	batch := []chatwork.Message{{ID: 1}, {ID: 2}}
	if got := FilterAndOrder(batch, 2); len(got) != 0 {
		t.Errorf("expected empty, got %+v", got)
	}
}

func TestCommitAdvancesToNewest(t *testing.T) {
	kv := testutil.NewMemKV()
	p := &Pipeline{KV: kv}
	msgs := FilterAndOrder([]chatwork.Message{{ID: 5}, {ID: 3}, {ID: 7}}, 4)
	if err := p.commit(context.Background(), "r1", msgs); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if kv.Data["lastId:r1"] != "7" {
		t.Errorf("watermark = %q, want 7", kv.Data["lastId:r1"])
	}
}

func TestCommitNoopOnEmpty(t *testing.T) {
	kv := testutil.NewMemKV()
	kv.Data["lastId:r1"] = "9"
	p := &Pipeline{KV: kv}
	if err := p.commit(context.Background(), "r1", nil); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if kv.Data["lastId:r1"] != "9" {
		t.Errorf("watermark must not move on an empty set, got %q", kv.Data["lastId:r1"])
	}
}

func TestLastIDDefaultsToZero(t *testing.T) {
	p := &Pipeline{KV: testutil.NewMemKV()}
	last, err := p.lastID(context.Background(), "never-seen")
	if err != nil || last != 0 {
		t.Errorf("lastID = %d, %v; want 0, nil", last, err)
	}
}

func TestLastIDCorruptValue(t *testing.T) {
	kv := testutil.NewMemKV()
	kv.Data["lastId:r1"] = "not-a-number"
	p := &Pipeline{KV: kv}
	if _, err := p.lastID(context.Background(), "r1"); err == nil {
		t.Errorf("expected error for corrupt watermark")
	}
}
