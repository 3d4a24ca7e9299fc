package deduplicator

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/database"
	"github.com/moyu-x/file-organizer/pkg/hasher"
	"github.com/moyu-x/file-organizer/pkg/logger"
	"github.com/moyu-x/file-organizer/pkg/progress"
	"github.com/moyu-x/file-organizer/pkg/scanner"
)

// member 重复组中的一个成员
type member struct {
	path    string
	size    int64
	modTime time.Time
}

// groupKey 重复组的键
// 完全重复要求大小和哈希都一致，大小参与分组以排除跨大小的哈希碰撞
type groupKey struct {
	size int64
	hash string
}

// Deduplicator 全量去重：按内容哈希分组，每组只保留一个代表
// 与分类目录无关，可独立执行，也可在整理之后执行以捕获跨分类的重复
type Deduplicator struct {
	fs         afero.Fs
	workers    int
	mode       internal.OperationMode
	targetDir  string
	keepOldest bool
	dryRun     bool
	db         *database.Database
	tracker    *progress.Tracker
	stats      internal.DedupStats
}

// Option 去重器可选配置
type Option func(*Deduplicator)

// WithMode 重复文件处理方式：delete 直接删除，move 移动到隔离目录
func WithMode(mode internal.OperationMode, targetDir string) Option {
	return func(d *Deduplicator) {
		d.mode = mode
		d.targetDir = targetDir
	}
}

// WithKeepOldest true 保留最旧副本，false 保留最新副本
func WithKeepOldest(keepOldest bool) Option {
	return func(d *Deduplicator) { d.keepOldest = keepOldest }
}

// WithDryRun 预览模式，不实际修改文件
func WithDryRun(dryRun bool) Option {
	return func(d *Deduplicator) { d.dryRun = dryRun }
}

// WithDatabase 启用持久化哈希索引，未变化的文件跳过重新计算
func WithDatabase(db *database.Database) Option {
	return func(d *Deduplicator) { d.db = db }
}

// WithWorkers 哈希计算线程数
func WithWorkers(workers int) Option {
	return func(d *Deduplicator) { d.workers = workers }
}

func New(fs afero.Fs, opts ...Option) *Deduplicator {
	d := &Deduplicator{
		fs:         fs,
		workers:    internal.DefaultWorkers,
		mode:       internal.ModeDelete,
		keepOldest: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	globalDedup = d
	return d
}

var globalDedup *Deduplicator

// SetupSignalHandler 收到中断信号时刷新进度文件后退出
func SetupSignalHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Get().Warn().Msgf("收到信号 %v，正在保存进度...", sig)
		if globalDedup != nil && globalDedup.tracker != nil {
			if err := globalDedup.tracker.Flush(); err != nil {
				logger.Get().Error().Err(err).Msg("保存进度失败")
			}
		}
		os.Exit(0)
	}()
}

// Process 在目录内查找并处理重复文件，返回统计
// resume 为 true 时跳过进度文件中记录的文件；reset 为 true 时先清空进度
func (d *Deduplicator) Process(dir string, recursive, resume, reset bool) (*internal.DedupStats, error) {
	d.stats = internal.DedupStats{StartTime: time.Now()}

	// 预览模式不触碰进度文件
	if (resume || reset) && !d.dryRun {
		tracker, err := progress.NewTracker(d.fs, dir)
		if err != nil {
			return nil, fmt.Errorf("创建进度跟踪器失败: %w", err)
		}
		d.tracker = tracker
		defer d.closeTracker()

		if reset {
			if err := tracker.Clean(); err != nil {
				return nil, fmt.Errorf("重置进度失败: %w", err)
			}
		}
		if resume && tracker.ProcessedCount() > 0 {
			logger.Get().Info().Msgf("发现未完成的扫描，已处理 %d 个文件", tracker.ProcessedCount())
		}
	}

	groups, err := d.findDuplicates(dir, recursive)
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		logger.Get().Info().Msg("未发现重复文件")
		d.stats.EndTime = time.Now()
		return &d.stats, nil
	}

	totalDuplicates := 0
	for _, members := range groups {
		totalDuplicates += len(members) - 1
	}
	d.stats.Groups = len(groups)
	logger.Get().Info().Msgf("发现 %d 组重复文件，共 %d 个多余副本", len(groups), totalDuplicates)

	for key, members := range groups {
		d.processGroup(key.hash, members)
	}

	d.stats.EndTime = time.Now()
	logger.Get().Info().Msgf("去重完成: 删除 %d 个，移动 %d 个，总耗时 %v",
		d.stats.Removed, d.stats.Moved, d.stats.EndTime.Sub(d.stats.StartTime).Round(time.Millisecond))
	return &d.stats, nil
}

// findDuplicates 枚举并哈希候选文件，按哈希分组，丢弃只有一个成员的组
// 单个文件的哈希失败只会把它排除在分组之外，不会中断整个扫描
func (d *Deduplicator) findDuplicates(dir string, recursive bool) (map[groupKey][]member, error) {
	walker := scanner.NewFileWalker(d.fs)

	var candidates []member
	collect := func(path string, info os.FileInfo) error {
		if d.tracker != nil && d.tracker.IsProcessed(path) {
			return nil
		}
		candidates = append(candidates, member{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	}

	if recursive {
		if err := walker.Walk(dir, collect); err != nil {
			return nil, fmt.Errorf("遍历目录失败: %w", err)
		}
	} else {
		infos, err := walker.List(dir)
		if err != nil {
			return nil, fmt.Errorf("读取目录失败: %w", err)
		}
		for _, info := range infos {
			if err := collect(filepath.Join(dir, info.Name()), info); err != nil {
				return nil, err
			}
		}
	}

	d.stats.Scanned = len(candidates)
	logger.Get().Info().Msgf("在 %d 个文件中查找重复...", len(candidates))

	groups := make(map[groupKey][]member)
	byPath := make(map[string]member, len(candidates))
	for _, c := range candidates {
		byPath[c.path] = c
	}

	// 哈希索引命中的文件直接入组，其余交给计算池
	var toHash []member
	for _, c := range candidates {
		if hash, ok := d.lookupIndex(c.path, c.size, c.modTime.UnixNano()); ok {
			key := groupKey{size: c.size, hash: hash}
			groups[key] = append(groups[key], c)
			continue
		}
		toHash = append(toHash, c)
	}

	pool := hasher.NewHashPool(d.fs, d.workers)
	if err := pool.Start(); err != nil {
		return nil, err
	}
	defer pool.Release()

	go func() {
		for _, c := range toHash {
			pool.AddTask(hasher.HashTask{Path: c.path, Size: c.size, ModTime: c.modTime.UnixNano()})
		}
		pool.Done()
	}()

	for result := range pool.Results() {
		if result.Error != nil {
			logger.Get().Warn().Err(result.Error).Msgf("无法计算哈希，跳过: %s", result.Path)
			continue
		}
		key := groupKey{size: result.Size, hash: result.Hash}
		groups[key] = append(groups[key], byPath[result.Path])
		d.saveIndex(result)
	}

	for key, members := range groups {
		if len(members) < 2 {
			delete(groups, key)
		}
	}
	return groups, nil
}

func (d *Deduplicator) lookupIndex(path string, size, modTime int64) (string, bool) {
	if d.db == nil {
		return "", false
	}
	hash, ok, err := d.db.Lookup(path, size, modTime)
	if err != nil || !ok {
		return "", false
	}
	return hash, true
}

// saveIndex 写入哈希索引；预览模式不碰任何持久化状态
func (d *Deduplicator) saveIndex(result hasher.HashResult) {
	if d.db == nil || d.dryRun {
		return
	}
	if err := d.db.Save(result.Path, result.Size, result.ModTime, result.Hash); err != nil {
		logger.Get().Warn().Err(err).Msgf("写入哈希索引失败: %s", result.Path)
	}
}

// processGroup 处理一组内容相同的文件：按修改时间排序后保留一个，处理其余
// 每组至少保留一个代表，单个失败不影响组内其余文件的处理
func (d *Deduplicator) processGroup(hash string, members []member) {
	sort.Slice(members, func(i, j int) bool {
		return members[i].modTime.Before(members[j].modTime)
	})

	if !d.keepOldest {
		// 反转顺序，保留最新的副本
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}

	keep := members[0]
	logger.Get().Debug().Msgf("重复组 %s: 保留 %s", hash, keep.path)
	d.markProcessed(keep.path)

	for _, m := range members[1:] {
		d.removeDuplicate(m, keep, hash)
		d.markProcessed(m.path)
	}
}

func (d *Deduplicator) removeDuplicate(m, keep member, hash string) {
	if d.dryRun {
		logger.Get().Info().Msgf("[预览] 将处理重复文件: %s (保留: %s)", m.path, filepath.Base(keep.path))
		if d.mode == internal.ModeMove {
			d.stats.Moved++
		} else {
			d.stats.Removed++
		}
		d.stats.FreedSpace += m.size
		return
	}

	switch d.mode {
	case internal.ModeMove:
		if err := d.quarantine(m.path, hash); err != nil {
			logger.Get().Error().Err(err).Msgf("移动重复文件失败: %s", m.path)
			d.stats.Errors++
			return
		}
		d.stats.Moved++
		d.forgetIndex(m.path)
		logger.Get().Info().Msgf("已移动重复文件: %s (保留: %s)", m.path, filepath.Base(keep.path))
	default:
		if err := d.fs.Remove(m.path); err != nil {
			logger.Get().Error().Err(err).Msgf("删除重复文件失败: %s", m.path)
			d.stats.Errors++
			return
		}
		d.stats.Removed++
		d.forgetIndex(m.path)
		logger.Get().Info().Msgf("已删除重复文件: %s (保留: %s)", m.path, filepath.Base(keep.path))
	}

	d.stats.FreedSpace += m.size
}

// quarantine 把重复文件移动到隔离目录，以哈希前缀命名避免冲突
func (d *Deduplicator) quarantine(srcPath, hash string) error {
	if d.targetDir == "" {
		return fmt.Errorf("未指定隔离目录")
	}

	if err := d.fs.MkdirAll(d.targetDir, 0755); err != nil {
		return err
	}

	ext := filepath.Ext(srcPath)
	dstPath := filepath.Join(d.targetDir, hash[:8]+"_"+hash[8:]+ext)
	if exists, _ := afero.Exists(d.fs, dstPath); exists {
		dstPath = filepath.Join(d.targetDir, fmt.Sprintf("%s_%d%s", hash, time.Now().UnixNano(), ext))
	}

	return d.fs.Rename(srcPath, dstPath)
}

func (d *Deduplicator) forgetIndex(path string) {
	if d.db == nil {
		return
	}
	if err := d.db.Forget(path); err != nil {
		logger.Get().Warn().Err(err).Msgf("清理哈希索引失败: %s", path)
	}
}

func (d *Deduplicator) markProcessed(path string) {
	if d.tracker == nil || d.dryRun {
		return
	}
	if err := d.tracker.MarkProcessed(path); err != nil {
		logger.Get().Warn().Err(err).Msgf("记录进度失败: %s", path)
	}
}

func (d *Deduplicator) closeTracker() {
	if d.tracker == nil {
		return
	}
	if err := d.tracker.Close(); err != nil {
		logger.Get().Error().Err(err).Msg("关闭进度跟踪器失败")
	}
	d.tracker = nil
}
