package internal

import (
	"errors"
	"time"
)

// ErrFolderNotFound 源目录不存在，运行前唯一的致命错误
var ErrFolderNotFound = errors.New("source folder not found")

// 操作模式
type OperationMode string

const (
	ModeDelete OperationMode = "delete"
	ModeMove   OperationMode = "move"
)

// Options 一次运行的完整配置，由 CLI 或 TUI 构造后作为普通数据传入各组件
type Options struct {
	SourceDir        string
	DryRun           bool
	RemoveDuplicates bool
	KeepOldest       bool
	Recursive        bool
	SniffContent     bool
}

// OrganizeStats 整理统计，运行期间只增不减
type OrganizeStats struct {
	Processed         int `json:"processed"`
	Moved             int `json:"moved"`
	Renamed           int `json:"renamed"`
	DuplicatesFound   int `json:"duplicates_found"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	Errors            int `json:"errors"`
	Skipped           int `json:"skipped"`
}

// SuccessRate 成功处理的比例（移动 + 去重占处理总数的百分比）
func (s *OrganizeStats) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Moved+s.DuplicatesRemoved) / float64(s.Processed) * 100
}

// DedupStats 全量去重统计
type DedupStats struct {
	Scanned    int
	Groups     int
	Removed    int
	Moved      int
	Errors     int
	FreedSpace int64
	StartTime  time.Time
	EndTime    time.Time
}

// 事件类型
type EventType int

const (
	EventFolderCreated EventType = iota
	EventFileMoved
	EventDuplicateFound
	EventDuplicateRemoved
	EventFileSkipped
	EventCaseCollision
	EventOperationFailed
)

// Event 核心组件产生的结构化事件，由注入的接收器决定控制台/文件格式
type Event struct {
	Type     EventType
	Path     string
	Dest     string
	Category string
	DryRun   bool
	Err      error
}

// EventSink 事件接收器
type EventSink interface {
	Emit(e Event)
}

// NopSink 丢弃所有事件
type NopSink struct{}

func (NopSink) Emit(Event) {}
