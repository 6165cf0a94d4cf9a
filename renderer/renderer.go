package renderer

import (
	"strings"

	"github.com/ByLCY/ringtext/layout"
)

// Renderer 将环形排版结果输出为最终文件，例如 PDF、SVG 或 PNG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Format 是支持的输出格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat 解析输出格式，大小写不敏感；空字符串视为 PDF。
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, true
	case FormatSVG:
		return FormatSVG, true
	case FormatPNG:
		return FormatPNG, true
	default:
		return "", false
	}
}

