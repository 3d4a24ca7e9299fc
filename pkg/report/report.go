package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/logger"
)

// Report 一次运行的结构化报告
type Report struct {
	Timestamp    string                  `json:"timestamp"`
	RunID        string                  `json:"run_id"`
	SourceFolder string                  `json:"source_folder"`
	DryRun       bool                    `json:"dry_run"`
	Statistics   *internal.OrganizeStats `json:"statistics"`
	Categories   map[string]int          `json:"categories"`
}

// New 构造运行报告
func New(sourceFolder string, dryRun bool, stats *internal.OrganizeStats, categories map[string]int) *Report {
	return &Report{
		Timestamp:    time.Now().Format(time.RFC3339),
		RunID:        uuid.New().String(),
		SourceFolder: sourceFolder,
		DryRun:       dryRun,
		Statistics:   stats,
		Categories:   categories,
	}
}

// Save 将报告写入源目录下的 JSON 文件
// 预览模式不写报告
func (r *Report) Save(fs afero.Fs) (string, error) {
	if r.DryRun {
		return "", nil
	}

	path := filepath.Join(r.SourceFolder, internal.ReportFileName)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化报告失败: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("写入报告失败: %w", err)
	}

	logger.Get().Info().Msgf("报告已保存: %s", path)
	return path, nil
}

// RenderTable 渲染最终统计表格
func RenderTable(stats *internal.OrganizeStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("整理统计")

	tw.AppendHeader(table.Row{"项目", "数量"})
	tw.AppendRows([]table.Row{
		{"处理文件", stats.Processed},
		{"成功移动", stats.Moved},
		{"重命名", stats.Renamed},
		{"发现重复", stats.DuplicatesFound},
		{"删除重复", stats.DuplicatesRemoved},
		{"跳过", stats.Skipped},
		{"错误", stats.Errors},
	})

	if stats.Processed > 0 {
		tw.AppendFooter(table.Row{"成功率", fmt.Sprintf("%.1f%%", stats.SuccessRate())})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// RenderDedupTable 渲染去重统计表格
func RenderDedupTable(stats *internal.DedupStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("去重统计")

	tw.AppendHeader(table.Row{"项目", "数量"})
	tw.AppendRows([]table.Row{
		{"扫描文件", stats.Scanned},
		{"重复组", stats.Groups},
		{"已删除", stats.Removed},
		{"已移动", stats.Moved},
		{"错误", stats.Errors},
		{"释放空间", FormatBytes(stats.FreedSpace)},
	})
	tw.AppendFooter(table.Row{"总耗时", stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond).String()})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// FormatBytes 把字节数格式化为人类可读的单位
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
