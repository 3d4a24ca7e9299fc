package resolver

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/hasher"
	"github.com/moyu-x/file-organizer/pkg/logger"
)

// Action 冲突决议结果：要么是已有文件的字节级重复，要么是一个未被占用的目标路径
type Action struct {
	Duplicate bool
	Existing  string // Duplicate 为 true 时指向内容相同的已有文件
	DestPath  string // Duplicate 为 false 时的目标路径
	Renamed   bool   // 目标文件名与原始文件名不同
}

// Overlay 预览模式下的虚拟目标状态
// 记录"本应已移动"的文件，让后续文件的重复判定和命名
// 看到与正式运行相同的目标目录
type Overlay struct {
	entries map[string]overlayEntry
}

type overlayEntry struct {
	size int64
	src  string // 仍在原位的源文件，按需计算哈希
}

func NewOverlay() *Overlay {
	return &Overlay{entries: make(map[string]overlayEntry)}
}

// Record 记录一次虚拟移动：dest 被视为已被 src 的内容占据
func (o *Overlay) Record(dest string, size int64, src string) {
	o.entries[dest] = overlayEntry{size: size, src: src}
}

func (o *Overlay) occupied(path string) bool {
	if o == nil {
		return false
	}
	_, ok := o.entries[path]
	return ok
}

// Resolver 重复判定与安全重命名
// 对给定文件决定：与目标位置的已有文件内容完全相同（重复），
// 还是应当放到一个生成的唯一路径上，且保证有限步内终止
type Resolver struct {
	fs      afero.Fs
	cache   *hasher.Cache
	sink    internal.EventSink
	overlay *Overlay
}

func New(fs afero.Fs, cache *hasher.Cache, sink internal.EventSink) *Resolver {
	if sink == nil {
		sink = internal.NopSink{}
	}
	return &Resolver{fs: fs, cache: cache, sink: sink}
}

// AttachOverlay 启用虚拟目标状态：预览模式下由引擎记录虚拟移动，
// 决议器将其与磁盘上的真实文件同等对待
func (r *Resolver) AttachOverlay(o *Overlay) {
	r.overlay = o
}

// Cache 返回本次运行使用的哈希缓存
func (r *Resolver) Cache() *hasher.Cache {
	return r.cache
}

// Resolve 对 src 在 targetDir 下做冲突决议
// 重复判定基于内容而非文件名：目标目录中任何一个字节级相同的文件
// 都会让 src 被判为重复。非重复时按 base_1.ext、base_2.ext … 生成候选名，
// 超过 100 次后退化为高精度时间戳后缀，保证终止
func (r *Resolver) Resolve(src, targetDir string) (Action, error) {
	srcInfo, err := r.fs.Stat(src)
	if err != nil {
		return Action{}, fmt.Errorf("读取源文件信息失败: %w", err)
	}

	if existing, ok := r.findContentMatch(src, srcInfo.Size(), targetDir); ok {
		logger.Get().Info().Msgf("发现完全重复: %s -> %s", filepath.Base(src), filepath.Base(existing))
		return Action{Duplicate: true, Existing: existing}, nil
	}

	originalName := filepath.Base(src)
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(originalName, ext)

	name := originalName
	candidate := filepath.Join(targetDir, name)

	for attempts := 0; ; {
		exists, err := afero.Exists(r.fs, candidate)
		if err != nil {
			return Action{}, fmt.Errorf("检查目标路径失败: %w", err)
		}
		if !exists && !r.overlay.occupied(candidate) {
			break
		}

		attempts++
		if attempts > internal.MaxRenameAttempts {
			// 病态冲突风暴：改用时间戳后缀强制生成唯一名
			now := time.Now()
			name = fmt.Sprintf("%s_%s_%06d%s", base, now.Format("20060102_150405"), now.Nanosecond()/1000, ext)
			candidate = filepath.Join(targetDir, name)
			logger.Get().Warn().Msgf("重命名尝试超过 %d 次，使用时间戳后缀: %s", internal.MaxRenameAttempts, name)
			break
		}

		name = fmt.Sprintf("%s_%d%s", base, attempts, ext)
		candidate = filepath.Join(targetDir, name)
	}

	r.checkCaseInsensitiveCollision(name, targetDir)

	return Action{DestPath: candidate, Renamed: name != originalName}, nil
}

// findContentMatch 在目标目录中查找与 src 内容完全相同的文件
// 大小不同的文件直接跳过，不触发哈希计算；目录不存在视为无匹配
// 预览模式下虚拟放置的文件参与同样的判定
func (r *Resolver) findContentMatch(src string, srcSize int64, targetDir string) (string, bool) {
	entries, err := afero.ReadDir(r.fs, targetDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || entry.Size() != srcSize {
				continue
			}
			occupant := filepath.Join(targetDir, entry.Name())
			if occupant == src {
				continue
			}
			dup, err := r.isExactDuplicate(src, srcSize, occupant)
			if err == nil && dup {
				return occupant, true
			}
		}
	}

	if r.overlay != nil {
		return r.overlayContentMatch(src, srcSize, targetDir)
	}
	return "", false
}

// overlayContentMatch 对虚拟放置的文件做内容比对，哈希取自仍在原位的源文件
func (r *Resolver) overlayContentMatch(src string, srcSize int64, targetDir string) (string, bool) {
	dests := make([]string, 0, len(r.overlay.entries))
	for dest := range r.overlay.entries {
		dests = append(dests, dest)
	}
	sort.Strings(dests)

	for _, dest := range dests {
		entry := r.overlay.entries[dest]
		if filepath.Dir(dest) != targetDir || entry.size != srcSize {
			continue
		}

		srcHash, err := r.cache.Get(src)
		if err != nil || srcHash == "" {
			return "", false
		}
		occHash, err := r.cache.Get(entry.src)
		if err != nil || occHash == "" {
			continue
		}
		if srcHash == occHash {
			return dest, true
		}
	}
	return "", false
}

// isExactDuplicate 判断两个文件是否字节级相同：先比大小，再比内容哈希
// 任一文件的哈希计算失败都视为"非重复"，绝不因读失败误删数据
func (r *Resolver) isExactDuplicate(src string, srcSize int64, occupant string) (bool, error) {
	occInfo, err := r.fs.Stat(occupant)
	if err != nil {
		return false, err
	}
	if srcSize != occInfo.Size() {
		return false, nil
	}

	srcHash, err := r.cache.Get(src)
	if err != nil {
		srcHash = ""
	}
	occHash, err := r.cache.Get(occupant)
	if err != nil {
		occHash = ""
	}

	// 空哈希（读取失败）永远不相等：两个不可读的文件不会被判为彼此的重复
	return srcHash != "" && occHash != "" && srcHash == occHash, nil
}

// checkCaseInsensitiveCollision 对目标目录做一次忽略大小写的同名检查
// 仅为提示：大小写敏感性取决于文件系统，不能据此合并或拒绝文件
func (r *Resolver) checkCaseInsensitiveCollision(name, targetDir string) {
	entries, err := afero.ReadDir(r.fs, targetDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() != name && strings.EqualFold(entry.Name(), name) {
			logger.Get().Warn().Msgf("目标目录已存在仅大小写不同的同名文件: %s ~ %s", name, entry.Name())
			r.sink.Emit(internal.Event{
				Type: internal.EventCaseCollision,
				Path: name,
				Dest: filepath.Join(targetDir, entry.Name()),
			})
			return
		}
	}
}
