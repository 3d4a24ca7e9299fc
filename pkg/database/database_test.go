package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "hashes.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_SaveAndLookup(t *testing.T) {
	db := newTestDB(t)

	if err := db.Save("/data/a.txt", 100, 1700000000, "abc123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	hash, ok, err := db.Lookup("/data/a.txt", 100, 1700000000)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatal("Expected a hit for matching size and mtime")
	}
	if hash != "abc123" {
		t.Errorf("Lookup() hash = %s, want abc123", hash)
	}
}

func TestDatabase_Lookup_Miss(t *testing.T) {
	db := newTestDB(t)

	_, ok, err := db.Lookup("/data/unknown.txt", 1, 1)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Error("Expected a miss for unknown path")
	}
}

func TestDatabase_Lookup_StaleRecord(t *testing.T) {
	db := newTestDB(t)

	if err := db.Save("/data/a.txt", 100, 1700000000, "abc123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// 文件内容变化（大小不同）或被重写（mtime 不同）都必须视为失效
	if _, ok, _ := db.Lookup("/data/a.txt", 200, 1700000000); ok {
		t.Error("Expected stale record for size mismatch")
	}
	if _, ok, _ := db.Lookup("/data/a.txt", 100, 1700009999); ok {
		t.Error("Expected stale record for mtime mismatch")
	}
}

func TestDatabase_Save_Upsert(t *testing.T) {
	db := newTestDB(t)

	if err := db.Save("/data/a.txt", 100, 1700000000, "abc123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := db.Save("/data/a.txt", 150, 1700000500, "def456"); err != nil {
		t.Fatalf("Save() re-save error = %v", err)
	}

	hash, ok, err := db.Lookup("/data/a.txt", 150, 1700000500)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok || hash != "def456" {
		t.Errorf("Lookup() = (%s, %v), want (def456, true)", hash, ok)
	}

	// 旧版本记录不能再命中
	if _, ok, _ := db.Lookup("/data/a.txt", 100, 1700000000); ok {
		t.Error("Old record version should be gone after upsert")
	}
}

func TestDatabase_Forget(t *testing.T) {
	db := newTestDB(t)

	if err := db.Save("/data/a.txt", 100, 1700000000, "abc123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := db.Forget("/data/a.txt"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if _, ok, _ := db.Lookup("/data/a.txt", 100, 1700000000); ok {
		t.Error("Forgotten record should not be found")
	}

	// 删除不存在的记录不是错误
	if err := db.Forget("/data/never-existed.txt"); err != nil {
		t.Errorf("Forget() on missing record error = %v", err)
	}
}

func TestDatabase_PersistsAcrossConnections(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hashes.db")

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Save("/data/a.txt", 100, 1700000000, "abc123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer second.Close()

	hash, ok, err := second.Lookup("/data/a.txt", 100, 1700000000)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok || hash != "abc123" {
		t.Errorf("Lookup() after reopen = (%s, %v), want (abc123, true)", hash, ok)
	}
}
