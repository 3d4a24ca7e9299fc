package organizer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/category"
	"github.com/moyu-x/file-organizer/pkg/hasher"
	"github.com/moyu-x/file-organizer/pkg/logger"
	"github.com/moyu-x/file-organizer/pkg/resolver"
)

// Engine 按文件驱动整理流程：分类 -> 冲突决议 -> 移动或删除，并累计统计
type Engine struct {
	fs       afero.Fs
	table    *category.Table
	resolver *resolver.Resolver
	overlay  *resolver.Overlay
	sink     internal.EventSink
	dryRun   bool
	sniff    bool
	stats    internal.OrganizeStats
}

// Option 引擎可选配置
type Option func(*Engine)

// WithDryRun 预览模式：统计照常计算，但不做任何文件系统修改
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// WithSniff 对扩展名未知的文件按文件头魔数推断分类
func WithSniff(sniff bool) Option {
	return func(e *Engine) { e.sniff = sniff }
}

// WithSink 注入事件接收器
func WithSink(sink internal.EventSink) Option {
	return func(e *Engine) { e.sink = sink }
}

func New(fs afero.Fs, table *category.Table, opts ...Option) *Engine {
	e := &Engine{
		fs:    fs,
		table: table,
		sink:  LogSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = resolver.New(fs, hasher.NewCache(fs), e.sink)
	if e.dryRun {
		// 预览模式下决议器通过叠加层看到虚拟移动后的目标目录，
		// 统计结果与正式运行一致
		e.overlay = resolver.NewOverlay()
		e.resolver.AttachOverlay(e.overlay)
	}
	return e
}

// Stats 当前统计
func (e *Engine) Stats() *internal.OrganizeStats {
	return &e.stats
}

// Organize 整理源目录中的文件
// 唯一的致命错误是源目录不存在；其余所有单文件失败都计入统计后继续
func (e *Engine) Organize(source string) (*internal.OrganizeStats, error) {
	e.stats = internal.OrganizeStats{}
	if e.dryRun {
		e.overlay = resolver.NewOverlay()
		e.resolver.AttachOverlay(e.overlay)
	}

	exists, err := afero.DirExists(e.fs, source)
	if err != nil {
		return nil, fmt.Errorf("检查源目录失败: %w", err)
	}
	if !exists {
		logger.Get().Error().Msgf("源目录不存在: %s", source)
		return nil, fmt.Errorf("%w: %s", internal.ErrFolderNotFound, source)
	}

	e.createCategoryFolders(source)

	// 先拍快照再改动：处理过程中移动的文件不会被重新扫描
	files, err := e.snapshot(source)
	if err != nil {
		return nil, fmt.Errorf("扫描源目录失败: %w", err)
	}

	e.stats.Processed = len(files)
	logger.Get().Info().Msgf("待处理文件: %d", len(files))

	for _, name := range files {
		e.processFile(source, name)
	}

	return &e.stats, nil
}

// createCategoryFolders 确保所有分类目录存在（幂等，已存在不算错误）
func (e *Engine) createCategoryFolders(source string) {
	for _, name := range e.table.Categories() {
		path := filepath.Join(source, name)
		exists, err := afero.DirExists(e.fs, path)
		if err != nil || exists {
			continue
		}
		if !e.dryRun {
			if err := e.fs.MkdirAll(path, 0755); err != nil {
				logger.Get().Error().Err(err).Msgf("创建分类目录失败: %s", path)
				continue
			}
		}
		e.sink.Emit(internal.Event{Type: internal.EventFolderCreated, Path: name, DryRun: e.dryRun})
	}
}

// snapshot 单层列出源目录中的普通文件，排除隐藏文件、日志和报告文件
func (e *Engine) snapshot(source string) ([]string, error) {
	entries, err := afero.ReadDir(e.fs, source)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".log") || name == internal.ReportFileName {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// processFile 处理单个文件，产生且仅产生一种结果：移动/去重删除/跳过/错误
func (e *Engine) processFile(source, name string) {
	path := filepath.Join(source, name)

	cat, ok := e.table.CategoryFor(filepath.Ext(name))
	if !ok && e.sniff {
		cat, ok = category.Sniff(e.fs, path)
	}
	if !ok {
		e.stats.Skipped++
		e.sink.Emit(internal.Event{Type: internal.EventFileSkipped, Path: name})
		return
	}

	targetDir := filepath.Join(source, cat)
	action, err := e.resolver.Resolve(path, targetDir)
	if err != nil {
		e.stats.Errors++
		e.sink.Emit(internal.Event{Type: internal.EventOperationFailed, Path: name, Err: err})
		return
	}

	if action.Duplicate {
		e.removeDuplicate(path, action.Existing)
		return
	}

	e.moveToDest(path, action, cat)
}

// removeDuplicate 删除与已有文件内容完全相同的源文件
func (e *Engine) removeDuplicate(path, existing string) {
	e.stats.DuplicatesFound++
	e.sink.Emit(internal.Event{Type: internal.EventDuplicateFound, Path: filepath.Base(path), Dest: existing, DryRun: e.dryRun})

	if e.dryRun {
		e.stats.DuplicatesRemoved++
		e.sink.Emit(internal.Event{Type: internal.EventDuplicateRemoved, Path: filepath.Base(path), DryRun: true})
		return
	}

	if err := e.fs.Remove(path); err != nil {
		e.stats.Errors++
		e.sink.Emit(internal.Event{Type: internal.EventOperationFailed, Path: filepath.Base(path), Err: err})
		return
	}

	e.resolver.Cache().Invalidate(path)
	e.stats.DuplicatesRemoved++
	e.sink.Emit(internal.Event{Type: internal.EventDuplicateRemoved, Path: filepath.Base(path)})
}

// moveToDest 将文件移动到决议出的唯一目标路径
func (e *Engine) moveToDest(path string, action resolver.Action, cat string) {
	destName := filepath.Base(action.DestPath)

	if e.dryRun {
		if info, err := e.fs.Stat(path); err == nil {
			e.overlay.Record(action.DestPath, info.Size(), path)
		}
		e.stats.Moved++
		if action.Renamed {
			e.stats.Renamed++
		}
		e.sink.Emit(internal.Event{Type: internal.EventFileMoved, Path: filepath.Base(path), Dest: destName, Category: cat, DryRun: true})
		return
	}

	if err := e.moveFile(path, action.DestPath); err != nil {
		e.stats.Errors++
		e.sink.Emit(internal.Event{Type: internal.EventOperationFailed, Path: filepath.Base(path), Err: err})
		return
	}

	e.resolver.Cache().Invalidate(path)
	e.stats.Moved++
	if action.Renamed {
		e.stats.Renamed++
	}
	e.sink.Emit(internal.Event{Type: internal.EventFileMoved, Path: filepath.Base(path), Dest: destName, Category: cat})
}

// moveFile 优先使用 rename，失败（可能是跨卷移动）时复制后删除
func (e *Engine) moveFile(src, dst string) error {
	err := e.fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	logger.Get().Debug().Err(err).Msgf("直接重命名失败，尝试复制后删除: %s -> %s", src, dst)

	sourceFile, err := e.fs.Open(src)
	if err != nil {
		return fmt.Errorf("打开源文件失败: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := e.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("创建目标文件失败: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("复制文件内容失败: %w", err)
	}

	if err := e.fs.Remove(src); err != nil {
		return fmt.Errorf("删除原文件失败: %w", err)
	}

	return nil
}
