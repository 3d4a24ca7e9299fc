package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/file-organizer/config"
	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/database"
	"github.com/moyu-x/file-organizer/pkg/deduplicator"
	"github.com/moyu-x/file-organizer/pkg/logger"
	"github.com/moyu-x/file-organizer/pkg/progress"
	"github.com/moyu-x/file-organizer/pkg/report"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <directory>",
	Short: "检测并删除/隔离重复文件",
	Long: `对目录做一次全量去重：计算每个文件的内容哈希并按哈希分组，
每组按修改时间排序后保留一份（最旧或最新），其余删除或移动到隔离目录。
与分类目录无关，因此能捕获跨分类的重复文件。
可启用 SQLite 哈希索引，避免对未变化的文件重复计算哈希。`,
	Args: cobra.ExactArgs(1),
	RunE: runDedup,
}

func runDedup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	modeStr, _ := cmd.Flags().GetString("mode")
	targetDir, _ := cmd.Flags().GetString("target-dir")
	dbPath, _ := cmd.Flags().GetString("db")
	keep, _ := cmd.Flags().GetString("keep")
	recursive, _ := cmd.Flags().GetBool("recursive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	resume, _ := cmd.Flags().GetBool("resume")
	reset, _ := cmd.Flags().GetBool("reset")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	if err := logger.Init(logLevel, cfg.Logging.File); err != nil {
		_ = logger.Init(logLevel, "")
	}

	mode := internal.OperationMode(modeStr)
	if mode != internal.ModeDelete && mode != internal.ModeMove {
		return fmt.Errorf("无效的操作模式: %s（可选: delete、move）", modeStr)
	}
	if mode == internal.ModeMove && targetDir == "" {
		return fmt.Errorf("使用 move 模式时必须指定 --target-dir")
	}

	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	fs := afero.NewOsFs()
	sourceDir := args[0]

	if dryRun {
		logger.Get().Info().Msg("=== 预览模式，不会实际修改文件 ===")
	}
	if !resume && progress.Exists(fs, sourceDir) {
		logger.Get().Warn().Msg("检测到上次未完成的扫描进度，可使用 --resume 继续或 --reset 重新开始")
	}

	opts := []deduplicator.Option{
		deduplicator.WithMode(mode, targetDir),
		deduplicator.WithKeepOldest(keep != "newest"),
		deduplicator.WithDryRun(dryRun),
		deduplicator.WithWorkers(cfg.Performance.Workers),
	}

	if dbPath != "" {
		db, err := database.New(dbPath)
		if err != nil {
			return fmt.Errorf("初始化哈希索引失败: %w", err)
		}
		defer db.Close()
		opts = append(opts, deduplicator.WithDatabase(db))
	}

	dedup := deduplicator.New(fs, opts...)

	stats, err := dedup.Process(sourceDir, recursive, resume, reset)
	if err != nil {
		return err
	}

	fmt.Println(report.RenderDedupTable(stats))
	return nil
}

func init() {
	deduplicator.SetupSignalHandler()

	dedupCmd.Flags().StringP("mode", "m", "delete", "操作模式: delete 或 move")
	dedupCmd.Flags().StringP("target-dir", "t", "", "move 模式的隔离目录")
	dedupCmd.Flags().String("db", "", "SQLite 哈希索引路径（默认取配置 database.path，为空时禁用）")
	dedupCmd.Flags().String("keep", "oldest", "每组保留哪个副本: oldest 或 newest")
	dedupCmd.Flags().BoolP("recursive", "r", true, "递归扫描子目录")
	dedupCmd.Flags().BoolP("dry-run", "n", false, "预览模式，不实际修改文件")
	dedupCmd.Flags().Bool("resume", false, "恢复模式：跳过已扫描的文件")
	dedupCmd.Flags().BoolP("reset", "R", false, "重置模式：清除进度文件，重新扫描")
	dedupCmd.Flags().BoolP("verbose", "v", false, "显示详细日志")

	rootCmd.AddCommand(dedupCmd)
}
