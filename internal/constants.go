package internal

const (
	// 哈希读取缓冲区大小（64 KiB）
	HashBufferSize = 64 * 1024

	// 重命名尝试上限，超过后改用时间戳后缀
	MaxRenameAttempts = 100

	// 任务通道缓冲区大小
	DefaultBufferSize = 1000

	// 默认工作线程数
	DefaultWorkers = 4

	// 报告文件名
	ReportFileName = "organization_report.json"

	// 日志文件名
	LogFileName = "file_organizer.log"
)
