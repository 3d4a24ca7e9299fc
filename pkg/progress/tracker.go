package progress

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/pkg/logger"
)

const (
	ProgressFileName = ".file-organizer-progress.txt"

	// 每写入多少条记录刷新一次磁盘
	flushInterval = 100
)

// Tracker 扫描进度跟踪器
// 以追加模式把已处理文件的路径写入进度文件，中断后可据此跳过已扫描的文件
type Tracker struct {
	fs        afero.Fs
	rootDir   string
	filePath  string
	file      afero.File
	writer    *bufio.Writer
	seenFiles map[string]bool
	mu        sync.RWMutex
	written   int
}

func NewTracker(fs afero.Fs, rootDir string) (*Tracker, error) {
	filePath := filepath.Join(rootDir, ProgressFileName)

	file, err := fs.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	tracker := &Tracker{
		fs:        fs,
		rootDir:   rootDir,
		filePath:  filePath,
		file:      file,
		writer:    bufio.NewWriter(file),
		seenFiles: make(map[string]bool),
	}

	if err := tracker.loadExistingFiles(); err != nil {
		logger.Get().Warn().Err(err).Msg("加载已扫描文件列表失败，将从零开始")
		tracker.seenFiles = make(map[string]bool)
	} else if len(tracker.seenFiles) > 0 {
		logger.Get().Info().Msgf("从进度文件加载了 %d 个已扫描文件", len(tracker.seenFiles))
	}

	return tracker, nil
}

func (t *Tracker) loadExistingFiles() error {
	data, err := afero.ReadFile(t.fs, t.filePath)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		path := scanner.Text()
		if path != "" {
			t.seenFiles[path] = true
		}
	}
	return scanner.Err()
}

// IsProcessed 检查文件是否已处理
func (t *Tracker) IsProcessed(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seenFiles[path]
}

// MarkProcessed 标记文件为已处理
func (t *Tracker) MarkProcessed(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seenFiles[path] {
		return nil
	}

	if _, err := t.writer.WriteString(path + "\n"); err != nil {
		return err
	}
	t.seenFiles[path] = true

	t.written++
	if t.written%flushInterval == 0 {
		if err := t.writer.Flush(); err != nil {
			logger.Get().Error().Err(err).Msg("刷新进度文件失败")
		}
	}

	return nil
}

// Flush 强制刷新到磁盘
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writer.Flush()
}

// ProcessedCount 已处理文件数
func (t *Tracker) ProcessedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seenFiles)
}

// Close 正常完成后关闭并删除进度文件
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.writer.Flush(); err != nil {
		return err
	}
	if err := t.file.Close(); err != nil {
		return err
	}
	if err := t.fs.Remove(t.filePath); err != nil && !os.IsNotExist(err) {
		logger.Get().Error().Err(err).Msgf("删除进度文件失败: %s", t.filePath)
		return err
	}

	logger.Get().Debug().Msgf("进度文件已删除: %s", t.filePath)
	return nil
}

// Clean 清空进度（重置模式）
func (t *Tracker) Clean() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		t.writer.Flush()
		t.file.Close()
	}

	if err := t.fs.Remove(t.filePath); err != nil && !os.IsNotExist(err) {
		return err
	}

	t.seenFiles = make(map[string]bool)

	file, err := t.fs.OpenFile(t.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	t.file = file
	t.writer = bufio.NewWriter(file)
	t.written = 0

	logger.Get().Info().Msgf("进度文件已清理: %s", t.filePath)
	return nil
}

// Exists 检查目录下是否存在进度文件
func Exists(fs afero.Fs, rootDir string) bool {
	ok, err := afero.Exists(fs, filepath.Join(rootDir, ProgressFileName))
	return err == nil && ok
}
