package hasher

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/logger"
)

// CalculateHash 以 64 KiB 分块流式计算文件的 xxHash 摘要，返回十六进制字符串
// 任何 I/O 错误都返回 error，调用方将失败的哈希视为"无法证明是重复"
func CalculateHash(fs afero.Fs, filePath string) (string, error) {
	logger.Get().Trace().Msgf("计算文件哈希: %s", filePath)

	file, err := fs.Open(filePath)
	if err != nil {
		logger.Get().Debug().Err(err).Msgf("无法打开文件: %s", filePath)
		return "", err
	}
	defer file.Close()

	hash := xxhash.New()
	buf := make([]byte, internal.HashBufferSize)
	if _, err := io.CopyBuffer(hash, file, buf); err != nil {
		logger.Get().Debug().Err(err).Msgf("计算哈希失败: %s", filePath)
		return "", err
	}

	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
