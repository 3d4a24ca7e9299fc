package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/file-organizer/config"
	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/category"
	"github.com/moyu-x/file-organizer/pkg/deduplicator"
	"github.com/moyu-x/file-organizer/pkg/logger"
	"github.com/moyu-x/file-organizer/pkg/organizer"
	"github.com/moyu-x/file-organizer/pkg/report"
	"github.com/moyu-x/file-organizer/tui"
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "按类型整理目录中的文件并清理重复内容",
	Long: `扫描源目录（单层，不递归），把每个文件按扩展名归入分类目录。
目标位置已有同名文件时：内容完全相同则删除来源（去重），
否则生成带自增后缀的唯一名称后移动。
可选择在整理完成后对整个目录树做一次全量去重，捕获跨分类的重复文件。`,
	RunE: runOrganize,
}

func runOrganize(cmd *cobra.Command, args []string) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sourceDir, _ := cmd.Flags().GetString("source")
	if sourceDir == "" {
		sourceDir = cfg.Source.Dir
	}

	opts := internal.Options{
		SourceDir:    sourceDir,
		SniffContent: cfg.Classify.SniffContent,
	}
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.RemoveDuplicates, _ = cmd.Flags().GetBool("dedup")
	opts.Recursive, _ = cmd.Flags().GetBool("recursive")
	if sniff, _ := cmd.Flags().GetBool("sniff"); sniff {
		opts.SniffContent = true
	}
	keep, _ := cmd.Flags().GetString("keep")
	opts.KeepOldest = keep != "newest"

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		// TUI 表单覆盖命令行参数
		tuiOpts, err := tui.Run(opts)
		if err != nil {
			return err
		}
		if tuiOpts == nil {
			fmt.Println("已取消")
			return nil
		}
		opts = *tuiOpts
	}

	logLevel := cfg.Logging.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}
	logFile := filepath.Join(opts.SourceDir, internal.LogFileName)
	if err := logger.Init(logLevel, logFile); err != nil {
		// 日志文件打开失败不阻止运行，只用控制台输出
		_ = logger.Init(logLevel, "")
	}

	if opts.DryRun {
		logger.Get().Info().Msg("=== 预览模式，不会实际修改文件 ===")
	}

	return organize(cfg, opts)
}

func organize(cfg *config.Config, opts internal.Options) (err error) {
	fs := afero.NewOsFs()
	table := category.FromConfig(cfg.Categories)

	engine := organizer.New(fs, table,
		organizer.WithDryRun(opts.DryRun),
		organizer.WithSniff(opts.SniffContent),
	)

	// 顶层兜底：任何未预期的 panic 都记录详情后以统一错误返回，
	// 已经产生的统计仍然输出
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error().Msgf("发生未预期的严重错误: %v", r)
			fmt.Println(report.RenderTable(engine.Stats()))
			err = fmt.Errorf("整理过程中发生严重错误")
		}
	}()

	logger.Get().Info().Msgf("源目录: %s", opts.SourceDir)

	stats, err := engine.Organize(opts.SourceDir)
	if err != nil {
		if errors.Is(err, internal.ErrFolderNotFound) {
			return fmt.Errorf("源目录不存在: %s", opts.SourceDir)
		}
		return err
	}

	if opts.RemoveDuplicates {
		logger.Get().Info().Msg("开始全量查找重复文件...")
		dedup := deduplicator.New(fs,
			deduplicator.WithKeepOldest(opts.KeepOldest),
			deduplicator.WithDryRun(opts.DryRun),
			deduplicator.WithWorkers(cfg.Performance.Workers),
		)
		dedupStats, dedupErr := dedup.Process(opts.SourceDir, opts.Recursive, false, false)
		if dedupErr != nil {
			logger.Get().Error().Err(dedupErr).Msg("全量去重失败")
		} else {
			stats.DuplicatesRemoved += dedupStats.Removed
			fmt.Println(report.RenderDedupTable(dedupStats))
		}
	}

	fmt.Println(report.RenderTable(stats))

	rep := report.New(opts.SourceDir, opts.DryRun, stats, table.ExtensionCounts())
	if path, saveErr := rep.Save(fs); saveErr != nil {
		logger.Get().Error().Err(saveErr).Msg("保存报告失败")
	} else if path != "" {
		fmt.Printf("报告已保存: %s\n", path)
	}

	return nil
}

func init() {
	organizeCmd.Flags().StringP("source", "s", "", "源目录路径（默认: ~/Downloads 或配置文件中的 source.dir）")
	organizeCmd.Flags().BoolP("dry-run", "n", false, "预览模式，不实际修改文件")
	organizeCmd.Flags().BoolP("dedup", "d", false, "整理完成后对整个目录树做全量去重")
	organizeCmd.Flags().BoolP("recursive", "r", true, "全量去重时递归扫描子目录")
	organizeCmd.Flags().String("keep", "oldest", "去重时保留哪个副本: oldest 或 newest")
	organizeCmd.Flags().Bool("sniff", false, "对未知扩展名的文件按文件头推断分类")
	organizeCmd.Flags().BoolP("interactive", "i", false, "通过交互界面配置本次运行")
	organizeCmd.Flags().BoolP("verbose", "v", false, "显示详细日志")

	rootCmd.AddCommand(organizeCmd)
}
