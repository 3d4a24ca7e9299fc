package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/pkg/logger"
)

type FileWalker struct {
	fs            afero.Fs
	IncludeHidden bool
}

func NewFileWalker(fs afero.Fs) *FileWalker {
	return &FileWalker{
		fs:            fs,
		IncludeHidden: false,
	}
}

// Walk 递归遍历目录树，对每个普通文件调用回调
// 遍历中的访问错误会被跳过，不会中断整个遍历
func (w *FileWalker) Walk(root string, callback func(path string, info os.FileInfo) error) error {
	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Get().Debug().Err(err).Msgf("访问路径出错: %s", path)
			return nil
		}

		if info.IsDir() {
			if !w.IncludeHidden && isHidden(info.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		return callback(path, info)
	})
}

// List 返回目录下单层的普通文件（不递归）
func (w *FileWalker) List(dir string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return nil, err
	}

	var files []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !w.IncludeHidden && isHidden(entry.Name()) {
			continue
		}
		files = append(files, entry)
	}
	return files, nil
}

// CountFiles 统计多个目录中的文件总数
func (w *FileWalker) CountFiles(dirs []string) (int, error) {
	count := 0
	for _, dir := range dirs {
		logger.Get().Debug().Msgf("扫描目录: %s", dir)
		err := w.Walk(dir, func(path string, info os.FileInfo) error {
			count++
			return nil
		})
		if err != nil {
			logger.Get().Error().Err(err).Msgf("扫描目录失败: %s", dir)
			return 0, err
		}
	}
	return count, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
