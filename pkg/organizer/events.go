package organizer

import (
	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/logger"
)

// LogSink 将事件格式化为 zerolog 日志行（控制台 + 日志文件）
type LogSink struct{}

func (LogSink) Emit(e internal.Event) {
	prefix := ""
	if e.DryRun {
		prefix = "[预览] "
	}

	switch e.Type {
	case internal.EventFolderCreated:
		logger.Get().Info().Msgf("%s创建分类目录: %s", prefix, e.Path)
	case internal.EventFileMoved:
		if e.Dest != "" && e.Path != e.Dest {
			logger.Get().Info().Msgf("%s移动并重命名: %s -> %s/%s", prefix, e.Path, e.Category, e.Dest)
		} else {
			logger.Get().Info().Msgf("%s移动: %s -> %s/", prefix, e.Path, e.Category)
		}
	case internal.EventDuplicateFound:
		logger.Get().Info().Msgf("%s发现重复文件: %s (已有: %s)", prefix, e.Path, e.Dest)
	case internal.EventDuplicateRemoved:
		logger.Get().Info().Msgf("%s删除重复文件: %s", prefix, e.Path)
	case internal.EventFileSkipped:
		logger.Get().Debug().Msgf("未知格式，跳过: %s", e.Path)
	case internal.EventCaseCollision:
		logger.Get().Warn().Msgf("存在仅大小写不同的同名文件: %s", e.Path)
	case internal.EventOperationFailed:
		logger.Get().Error().Err(e.Err).Msgf("操作失败: %s", e.Path)
	}
}
