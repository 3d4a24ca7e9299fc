package category

import (
	"io"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/pkg/logger"
)

const sniffBufferSize = 8192

// Sniff 通过文件头魔数推断分类，用于扩展名未知的文件（可选能力）
// 识别失败或类型未知时返回 ("", false)
func Sniff(fs afero.Fs, path string) (string, bool) {
	file, err := fs.Open(path)
	if err != nil {
		logger.Get().Debug().Err(err).Msgf("无法打开文件进行类型探测: %s", path)
		return "", false
	}
	defer file.Close()

	buffer := make([]byte, sniffBufferSize)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		logger.Get().Debug().Err(err).Msgf("读取文件头失败: %s", path)
		return "", false
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == types.Unknown {
		return "", false
	}

	return categoryForType(kind)
}

func categoryForType(kind types.Type) (string, bool) {
	mime := kind.MIME.Value
	if len(mime) >= 5 {
		switch mime[:5] {
		case "image":
			return "Images", true
		case "video":
			return "Videos", true
		case "audio":
			return "Audio", true
		}
	}

	switch kind.Extension {
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf":
		return "Documents", true
	case "zip", "tar", "gz", "bz2", "rar", "7z", "xz":
		return "Archives", true
	case "exe", "msi", "deb", "rpm", "dmg":
		return "Executables", true
	case "ttf", "otf", "woff", "woff2", "eot":
		return "Fonts", true
	case "epub", "mobi":
		return "Ebooks", true
	}

	return "", false
}
