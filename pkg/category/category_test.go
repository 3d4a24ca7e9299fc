package category

import (
	"testing"
)

func TestTable_CategoryFor(t *testing.T) {
	table := NewDefaultTable()

	tests := []struct {
		ext      string
		want     string
		wantFind bool
	}{
		{".jpg", "Images", true},
		{".JPG", "Images", true},
		{".Pdf", "Documents", true},
		{".zip", "Archives", true},
		{".mp4", "Videos", true},
		{".mp3", "Audio", true},
		{".torrent", "Torrents", true},
		{".xyz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := table.CategoryFor(tt.ext)
		if ok != tt.wantFind {
			t.Errorf("CategoryFor(%q) found = %v, want %v", tt.ext, ok, tt.wantFind)
		}
		if got != tt.want {
			t.Errorf("CategoryFor(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestTable_Conflicts(t *testing.T) {
	table := NewDefaultTable()

	// 历史默认表中 .pptx 和 .key 各被两个分类声明
	conflicts := table.Conflicts()
	if len(conflicts) != 2 {
		t.Fatalf("Expected 2 conflicts in default table, got %d: %+v", len(conflicts), conflicts)
	}

	byExt := make(map[string]Conflict)
	for _, c := range conflicts {
		byExt[c.Extension] = c
	}

	if c, ok := byExt[".pptx"]; !ok || c.Kept != "Documents" || c.Ignored != "Presentations" {
		t.Errorf("Unexpected .pptx conflict resolution: %+v", c)
	}
	if c, ok := byExt[".key"]; !ok || c.Kept != "Presentations" || c.Ignored != "Certificates" {
		t.Errorf("Unexpected .key conflict resolution: %+v", c)
	}

	// 先声明者生效
	if got, _ := table.CategoryFor(".pptx"); got != "Documents" {
		t.Errorf("CategoryFor(.pptx) = %q, want Documents", got)
	}
	if got, _ := table.CategoryFor(".key"); got != "Presentations" {
		t.Errorf("CategoryFor(.key) = %q, want Presentations", got)
	}
}

func TestTable_Categories(t *testing.T) {
	table := NewDefaultTable()

	categories := table.Categories()
	if len(categories) != 14 {
		t.Errorf("Expected 14 categories, got %d", len(categories))
	}
	if categories[0] != "Images" {
		t.Errorf("Expected declaration order to be preserved, got first = %s", categories[0])
	}
}

func TestTable_ExtensionCounts(t *testing.T) {
	table := NewDefaultTable()

	counts := table.ExtensionCounts()
	if counts["Images"] != 8 {
		t.Errorf("Expected 8 image extensions, got %d", counts["Images"])
	}
	if counts["Torrents"] != 1 {
		t.Errorf("Expected 1 torrent extension, got %d", counts["Torrents"])
	}
}

func TestNewTable_NormalizesExtensions(t *testing.T) {
	table := NewTable([]Definition{
		{"Photos", []string{"JPG", ".PNG"}},
	})

	if got, ok := table.CategoryFor(".jpg"); !ok || got != "Photos" {
		t.Errorf("Expected missing dot and upper case to be normalized, got (%q, %v)", got, ok)
	}
	if got, ok := table.CategoryFor(".png"); !ok || got != "Photos" {
		t.Errorf("CategoryFor(.png) = (%q, %v), want (Photos, true)", got, ok)
	}
}

func TestFromConfig(t *testing.T) {
	table := FromConfig(map[string][]string{
		"media": {".mp4", ".mp3"},
		"docs":  {".pdf"},
	})

	if got, _ := table.CategoryFor(".pdf"); got != "docs" {
		t.Errorf("CategoryFor(.pdf) = %q, want docs", got)
	}
	if got, _ := table.CategoryFor(".mp4"); got != "media" {
		t.Errorf("CategoryFor(.mp4) = %q, want media", got)
	}

	// 覆盖为空时回退到默认表
	fallback := FromConfig(nil)
	if got, _ := fallback.CategoryFor(".jpg"); got != "Images" {
		t.Errorf("Expected default table fallback, got %q", got)
	}
}
