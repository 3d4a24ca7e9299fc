package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "file-organizer",
	Short: "一个按类型整理文件并清理重复内容的工具",
	Long: `File Organizer 是一个命令行工具，用于整理单个目录中的散乱文件。

主要功能:
- 按扩展名把文件归入分类目录（Images、Documents、Archives 等）
- 基于内容哈希检测并删除完全相同的重复文件
- 文件名冲突时安全地生成唯一名称（自增后缀，极端情况下回退到时间戳）
- 支持预览模式：所有决策照常计算，但不修改任何文件
- 运行结束后输出统计表格并保存 JSON 报告`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
