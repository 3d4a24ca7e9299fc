package database

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moyu-x/file-organizer/pkg/logger"
)

// FileRecord 一条持久化的哈希索引记录
// 以 (path, size, mod_time) 校验有效性：文件变化后旧记录自动失效
type FileRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Path      string    `gorm:"uniqueIndex;not null"`
	Size      int64     `gorm:"not null"`
	ModTime   int64     `gorm:"not null"`
	Hash      string    `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (FileRecord) TableName() string {
	return "file_hashes"
}

// Database 跨运行的哈希索引，用于避免对未变化的文件重复计算哈希
type Database struct {
	db *gorm.DB
}

func New(dbPath string) (*Database, error) {
	expandedPath, err := expandPath(dbPath)
	if err != nil {
		logger.Get().Error().Err(err).Msg("扩展数据库路径失败")
		return nil, err
	}

	logger.Get().Info().Msgf("初始化哈希索引数据库: %s", expandedPath)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建数据库目录失败: %s", filepath.Dir(expandedPath))
		return nil, err
	}

	dsn := expandedPath + "?_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开数据库连接失败")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&FileRecord{}); err != nil {
		logger.Get().Error().Err(err).Msg("创建数据库表失败")
		return nil, err
	}

	return &Database{db: db}, nil
}

func expandPath(path string) (string, error) {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Lookup 返回文件的已存哈希
// 仅当 size 和 mod_time 与记录一致时才命中，否则视为失效
func (d *Database) Lookup(path string, size, modTime int64) (string, bool, error) {
	var record FileRecord
	err := d.db.Where("path = ?", path).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		logger.Get().Error().Err(err).Msgf("查询哈希索引失败: %s", path)
		return "", false, err
	}

	if record.Size != size || record.ModTime != modTime {
		logger.Get().Trace().Msgf("哈希索引已失效: %s", path)
		return "", false, nil
	}

	return record.Hash, true, nil
}

// Save 写入或更新一条哈希记录
func (d *Database) Save(path string, size, modTime int64, hash string) error {
	record := FileRecord{
		Path:      path,
		Size:      size,
		ModTime:   modTime,
		Hash:      hash,
		CreatedAt: time.Now(),
	}

	err := d.db.Where("path = ?", path).
		Assign(FileRecord{Size: size, ModTime: modTime, Hash: hash}).
		FirstOrCreate(&record).Error
	if err != nil {
		logger.Get().Error().Err(err).Msgf("写入哈希索引失败: %s", path)
		return err
	}

	logger.Get().Trace().Msgf("哈希索引已更新: %s -> %s", path, hash)
	return nil
}

// Forget 删除一条记录（文件被删除或移动后调用）
func (d *Database) Forget(path string) error {
	return d.db.Where("path = ?", path).Delete(&FileRecord{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
