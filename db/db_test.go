package db_test

import (
	"context"
	"testing"

	"github.com/onnwee/chatstock/db"
	"github.com/onnwee/chatstock/testutil"
)

func TestMigrateIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	// SetupTestDB already migrated once; a second run must be a no-op.
	if err := db.Migrate(context.Background(), database); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestKVRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	v, err := db.KVGet(ctx, database, "kv_test_missing")
	if err != nil || v != "" {
		t.Errorf("missing key = %q, %v; want empty, nil", v, err)
	}

	if err := db.KVSet(ctx, database, "kv_test_key", "42"); err != nil {
		t.Fatalf("KVSet error: %v", err)
	}
	v, err = db.KVGet(ctx, database, "kv_test_key")
	if err != nil || v != "42" {
		t.Errorf("KVGet = %q, %v; want 42", v, err)
	}

	// Upsert overwrites.
	if err := db.KVSet(ctx, database, "kv_test_key", "43"); err != nil {
		t.Fatalf("KVSet error: %v", err)
	}
	v, _ = db.KVGet(ctx, database, "kv_test_key")
	if v != "43" {
		t.Errorf("KVGet after upsert = %q, want 43", v)
	}
}

func TestVersionedMigrationRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)

	if err := db.RunMigrationsFromPath(database, "file://migrations"); err != nil {
		t.Fatalf("versioned up failed: %v", err)
	}
	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		t.Fatalf("GetMigrationVersion error: %v", err)
	}
	if version == 0 || dirty {
		t.Errorf("version = %d dirty = %v, want applied and clean", version, dirty)
	}

	if err := db.MigrateDown(database); err != nil {
		t.Fatalf("MigrateDown error: %v", err)
	}
	version, _, err = db.GetMigrationVersion(database)
	if err != nil {
		t.Fatalf("GetMigrationVersion after down: %v", err)
	}
	if version != 0 {
		t.Errorf("version after rollback = %d, want 0", version)
	}

	// Restore the schema for whatever runs after this test.
	if err := db.RunMigrationsFromPath(database, "file://migrations"); err != nil {
		t.Fatalf("re-apply failed: %v", err)
	}
}
