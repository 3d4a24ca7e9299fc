package category

import (
	"sort"
	"strings"

	"github.com/moyu-x/file-organizer/pkg/logger"
)

// Definition 一个分类及其声明的扩展名列表（带前导点）
type Definition struct {
	Name       string
	Extensions []string
}

// Conflict 同一个扩展名被多个分类声明
type Conflict struct {
	Extension string
	Kept      string
	Ignored   string
}

// DefaultDefinitions 默认分类表
// 注意：历史表中 .pptx 同时出现在 Documents 和 Presentations，.key 同时出现在
// Presentations 和 Certificates；按声明顺序先到先得，冲突会在构造时被标记出来
func DefaultDefinitions() []Definition {
	return []Definition{
		{"Images", []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".tiff"}},
		{"Documents", []string{".pdf", ".docx", ".doc", ".txt", ".rtf", ".xlsx", ".xls", ".pptx", ".odt", ".odp", ".ods"}},
		{"Archives", []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz"}},
		{"Scripts", []string{".py", ".js", ".java", ".cpp", ".c", ".h", ".html", ".css", ".php", ".sh", ".bat"}},
		{"Videos", []string{".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv", ".webm", ".m4v"}},
		{"Audio", []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma"}},
		{"Executables", []string{".exe", ".msi", ".dmg", ".apk", ".app", ".deb", ".rpm"}},
		{"Fonts", []string{".ttf", ".otf", ".woff", ".woff2", ".eot"}},
		{"Data", []string{".csv", ".json", ".xml", ".sql", ".db", ".sqlite", ".yaml", ".yml"}},
		{"Presentations", []string{".ppt", ".pptx", ".key"}},
		{"Ebooks", []string{".epub", ".mobi", ".azw3"}},
		{"Torrents", []string{".torrent"}},
		{"Certificates", []string{".pem", ".crt", ".key", ".cer", ".pfx"}},
		{"Configs", []string{".ini", ".cfg", ".conf", ".properties"}},
	}
}

// Table 扩展名到分类的只读映射，启动时构造一次
type Table struct {
	order     []string
	byExt     map[string]string
	extCounts map[string]int
	conflicts []Conflict
}

// NewTable 根据定义构造分类表
// 扩展名统一转为小写；重复声明的扩展名保留第一个分类并记录冲突
func NewTable(defs []Definition) *Table {
	t := &Table{
		byExt:     make(map[string]string),
		extCounts: make(map[string]int),
	}

	for _, def := range defs {
		t.order = append(t.order, def.Name)
		t.extCounts[def.Name] = len(def.Extensions)

		for _, ext := range def.Extensions {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}

			if owner, ok := t.byExt[ext]; ok {
				t.conflicts = append(t.conflicts, Conflict{
					Extension: ext,
					Kept:      owner,
					Ignored:   def.Name,
				})
				logger.Get().Warn().Msgf("扩展名 %s 被多个分类声明: 保留 %s，忽略 %s", ext, owner, def.Name)
				continue
			}
			t.byExt[ext] = def.Name
		}
	}

	return t
}

// NewDefaultTable 使用默认定义构造分类表
func NewDefaultTable() *Table {
	return NewTable(DefaultDefinitions())
}

// FromConfig 从配置覆盖构造分类表；覆盖为空时使用默认表
// 配置是无序 map，按分类名排序以保证冲突裁决结果可复现
func FromConfig(overrides map[string][]string) *Table {
	if len(overrides) == 0 {
		return NewDefaultTable()
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Definition{Name: name, Extensions: overrides[name]})
	}
	return NewTable(defs)
}

// CategoryFor 返回扩展名所属的分类（不区分大小写）
// 没有分类声明该扩展名时返回 ("", false)，调用方应视为"原地保留/跳过"而不是错误
func (t *Table) CategoryFor(ext string) (string, bool) {
	name, ok := t.byExt[strings.ToLower(ext)]
	return name, ok
}

// Categories 按声明顺序返回所有分类名
func (t *Table) Categories() []string {
	return t.order
}

// ExtensionCounts 每个分类声明的扩展名数量，用于报告
func (t *Table) ExtensionCounts() map[string]int {
	counts := make(map[string]int, len(t.extCounts))
	for k, v := range t.extCounts {
		counts[k] = v
	}
	return counts
}

// Conflicts 构造时发现的扩展名冲突
func (t *Table) Conflicts() []Conflict {
	return t.conflicts
}
