package hasher

import (
	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/pkg/logger"
)

type cacheEntry struct {
	size    int64
	modTime int64
	hash    string
}

// Cache 单次运行内的哈希缓存
// 以路径为键，同时记录 (size, mtime)：文件被移动或内容变化后缓存自动失效，
// 避免陈旧哈希指向已不存在的内容
type Cache struct {
	fs      afero.Fs
	entries map[string]cacheEntry
}

func NewCache(fs afero.Fs) *Cache {
	return &Cache{
		fs:      fs,
		entries: make(map[string]cacheEntry),
	}
}

// Get 返回文件的哈希，必要时计算并缓存
func (c *Cache) Get(path string) (string, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return "", err
	}

	size := info.Size()
	modTime := info.ModTime().UnixNano()

	if entry, ok := c.entries[path]; ok {
		if entry.size == size && entry.modTime == modTime {
			logger.Get().Trace().Msgf("命中哈希缓存: %s -> %s", path, entry.hash)
			return entry.hash, nil
		}
		// 文件已变化，丢弃旧条目
		delete(c.entries, path)
	}

	hash, err := CalculateHash(c.fs, path)
	if err != nil {
		return "", err
	}

	c.entries[path] = cacheEntry{size: size, modTime: modTime, hash: hash}
	return hash, nil
}

// Invalidate 在文件被移动或删除后移除缓存条目
func (c *Cache) Invalidate(path string) {
	delete(c.entries, path)
}

// Len 当前缓存条目数
func (c *Cache) Len() int {
	return len(c.entries)
}
