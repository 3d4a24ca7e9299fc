package deduplicator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/database"
)

func writeFile(t *testing.T, fs afero.Fs, path string, content []byte) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := afero.WriteFile(fs, path, content, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func countExisting(t *testing.T, fs afero.Fs, paths []string) int {
	t.Helper()
	n := 0
	for _, p := range paths {
		exists, err := afero.Exists(fs, p)
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if exists {
			n++
		}
	}
	return n
}

func TestDeduplicator_Process_RemovesDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/b.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/c.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/unique.txt", []byte("one of a kind"))

	stats, err := New(fs, WithWorkers(2)).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if stats.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", stats.Scanned)
	}
	if stats.Groups != 1 {
		t.Errorf("Groups = %d, want 1", stats.Groups)
	}
	if stats.Removed != 2 {
		t.Errorf("Removed = %d, want 2", stats.Removed)
	}

	group := []string{"/data/a.txt", "/data/b.txt", "/data/c.txt"}
	if got := countExisting(t, fs, group); got != 1 {
		t.Errorf("Expected exactly 1 survivor in the group, got %d", got)
	}
	exists, _ := afero.Exists(fs, "/data/unique.txt")
	if !exists {
		t.Error("Unique file must never be touched")
	}
}

func TestDeduplicator_Process_KeepOldest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/old.txt", []byte("same bytes"))
	writeFile(t, fs, "/data/new.txt", []byte("same bytes"))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := fs.Chtimes("/data/old.txt", base, base); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := fs.Chtimes("/data/new.txt", base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, err := New(fs, WithKeepOldest(true)).Process("/data", true, false, false); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	exists, _ := afero.Exists(fs, "/data/old.txt")
	if !exists {
		t.Error("Expected oldest copy to survive")
	}
	exists, _ = afero.Exists(fs, "/data/new.txt")
	if exists {
		t.Error("Expected newest copy to be removed")
	}
}

func TestDeduplicator_Process_KeepNewest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/old.txt", []byte("same bytes"))
	writeFile(t, fs, "/data/new.txt", []byte("same bytes"))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := fs.Chtimes("/data/old.txt", base, base); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := fs.Chtimes("/data/new.txt", base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, err := New(fs, WithKeepOldest(false)).Process("/data", true, false, false); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	exists, _ := afero.Exists(fs, "/data/new.txt")
	if !exists {
		t.Error("Expected newest copy to survive")
	}
	exists, _ = afero.Exists(fs, "/data/old.txt")
	if exists {
		t.Error("Expected oldest copy to be removed")
	}
}

func TestDeduplicator_Process_NoDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("first"))
	writeFile(t, fs, "/data/b.txt", []byte("second!"))

	stats, err := New(fs).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if stats.Groups != 0 || stats.Removed != 0 {
		t.Errorf("Groups/Removed = %d/%d, want 0/0", stats.Groups, stats.Removed)
	}
}

func TestDeduplicator_Process_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/b.txt", []byte("duplicate content"))

	stats, err := New(fs, WithDryRun(true)).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1 (counted, not executed)", stats.Removed)
	}
	if stats.FreedSpace != int64(len("duplicate content")) {
		t.Errorf("FreedSpace = %d, want %d", stats.FreedSpace, len("duplicate content"))
	}

	// 预览模式绝不改动文件
	if got := countExisting(t, fs, []string{"/data/a.txt", "/data/b.txt"}); got != 2 {
		t.Errorf("Expected both files untouched, got %d", got)
	}
}

func TestDeduplicator_Process_MoveMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/b.txt", []byte("duplicate content"))

	stats, err := New(fs, WithMode(internal.ModeMove, "/quarantine")).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if stats.Moved != 1 || stats.Removed != 0 {
		t.Errorf("Moved/Removed = %d/%d, want 1/0", stats.Moved, stats.Removed)
	}
	if got := countExisting(t, fs, []string{"/data/a.txt", "/data/b.txt"}); got != 1 {
		t.Errorf("Expected 1 survivor in source dir, got %d", got)
	}

	entries, err := afero.ReadDir(fs, "/quarantine")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 quarantined file, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".txt" {
		t.Errorf("Quarantined file should keep its extension, got %s", entries[0].Name())
	}
}

func TestDeduplicator_Process_SingleLevel(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/sub/b.txt", []byte("duplicate content"))

	stats, err := New(fs).Process("/data", false, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 非递归模式看不到子目录中的副本
	if stats.Groups != 0 {
		t.Errorf("Groups = %d, want 0", stats.Groups)
	}
	if got := countExisting(t, fs, []string{"/data/a.txt", "/data/sub/b.txt"}); got != 2 {
		t.Errorf("Expected both files untouched, got %d", got)
	}
}

func TestDeduplicator_Process_ExcludesHidden(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/.b.txt", []byte("duplicate content"))

	stats, err := New(fs).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if stats.Groups != 0 {
		t.Errorf("Hidden files must not join duplicate groups, groups = %d", stats.Groups)
	}
}

func TestDeduplicator_Process_GroupsRequireMatchingSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("aaaaa"))
	writeFile(t, fs, "/data/b.txt", []byte("bbbbbbbbb"))

	db, err := database.New(filepath.Join(t.TempDir(), "hashes.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	// 索引中为两个大小不同的文件伪造同一个哈希，模拟跨大小的哈希碰撞
	for _, p := range []string{"/data/a.txt", "/data/b.txt"} {
		info, err := fs.Stat(p)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if err := db.Save(p, info.Size(), info.ModTime().UnixNano(), "00000000deadbeef"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	stats, err := New(fs, WithDatabase(db)).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 大小不同的文件即使哈希相同也不是重复
	if stats.Groups != 0 || stats.Removed != 0 {
		t.Errorf("Groups/Removed = %d/%d, want 0/0", stats.Groups, stats.Removed)
	}
	if got := countExisting(t, fs, []string{"/data/a.txt", "/data/b.txt"}); got != 2 {
		t.Errorf("Expected both files untouched, got %d", got)
	}
}

func TestDeduplicator_Process_DryRunLeavesIndexUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.txt", []byte("duplicate content"))
	writeFile(t, fs, "/data/b.txt", []byte("duplicate content"))

	db, err := database.New(filepath.Join(t.TempDir(), "hashes.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	stats, err := New(fs, WithDryRun(true), WithDatabase(db)).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1 (counted, not executed)", stats.Removed)
	}

	// 预览模式不写哈希索引
	for _, p := range []string{"/data/a.txt", "/data/b.txt"} {
		info, err := fs.Stat(p)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if _, ok, _ := db.Lookup(p, info.Size(), info.ModTime().UnixNano()); ok {
			t.Errorf("Dry-run must not persist index entries, found %s", p)
		}
	}
}

func TestDeduplicator_Process_NeverDeletesWholeGroup(t *testing.T) {
	fs := afero.NewMemMapFs()
	var paths []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		p := "/data/" + name + ".bin"
		writeFile(t, fs, p, []byte("identical payload"))
		paths = append(paths, p)
	}

	stats, err := New(fs).Process("/data", true, false, false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := countExisting(t, fs, paths); got != 1 {
		t.Errorf("Expected exactly 1 survivor, got %d", got)
	}
	if stats.Removed != 4 {
		t.Errorf("Removed = %d, want 4", stats.Removed)
	}
}
