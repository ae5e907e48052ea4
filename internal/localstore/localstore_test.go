package localstore

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenAppliesJournalAndBusyTimeoutPragmas(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	var journalMode string
	if err := store.db.QueryRow(`PRAGMA journal_mode`).Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want %q", journalMode, "wal")
	}

	var busyTimeout int
	if err := store.db.QueryRow(`PRAGMA busy_timeout`).Scan(&busyTimeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if err := store.Put("token", "access-1"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok, err := store.Get("token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || got != "access-1" {
		t.Errorf("Get() = (%q, %v), want (%q, true)", got, ok, "access-1")
	}
}

func TestPutReplacesExistingValue(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if err := store.Put("token", "old"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put("token", "new"); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	got, ok, err := store.Get("token")
	if err != nil || !ok {
		t.Fatalf("Get() = (%q, %v, %v)", got, ok, err)
	}
	if got != "new" {
		t.Errorf("Get() = %q, want %q", got, "new")
	}
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	got, ok, err := store.Get("absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || got != "" {
		t.Errorf("Get(absent) = (%q, %v), want empty and false", got, ok)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if err := store.Put("userData", `{"user_id":1}`); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete("userData"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete("userData"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if _, ok, _ := store.Get("userData"); ok {
		t.Error("key present after Delete()")
	}
}

func TestClearAllRemovesEveryKey(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	keys := []string{"token", "refreshToken", "userData", "assistantsData"}
	for _, key := range keys {
		if err := store.Put(key, "v"); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}
	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	for _, key := range keys {
		if _, ok, _ := store.Get(key); ok {
			t.Errorf("key %q survived ClearAll()", key)
		}
	}
}

func TestReopenPersistsValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "persist.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Put("token", "survives"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get("token")
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = (%q, %v, %v)", got, ok, err)
	}
	if got != "survives" {
		t.Errorf("Get() = %q, want %q", got, "survives")
	}
}
