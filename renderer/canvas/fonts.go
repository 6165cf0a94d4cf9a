package canvasrenderer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-text/typesetting/font"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/ringtext/fonts"
	"github.com/ByLCY/ringtext/layout"
)

// fontEntry 缓存同一字体资源的两种形态：canvas 用于绘制轮廓，go-text 用于整形。
// font.Font 只读，可并发使用；font.Face 不是，每次整形单独创建。
type fontEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
	shape  *font.Font
}

func (r *Renderer) fontEntry(res layout.FontResource) (*fontEntry, error) {
	key := fontCacheKey(res)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontCache[key]; ok {
		return entry, nil
	}

	entry, err := r.loadEntry(res)
	if err != nil {
		layout.Logger().Warn("canvas: 字体加载失败，使用内置字体", "font", res.Name, "err", err)
		fb, fbErr := r.fallbackEntry(res)
		if fbErr != nil {
			return nil, err
		}
		entry = fb
	}
	r.fontCache[key] = entry
	return entry, nil
}

func (r *Renderer) loadEntry(res layout.FontResource) (*fontEntry, error) {
	data, err := r.loadFontBytes(res)
	if err != nil {
		return nil, err
	}
	return newFontEntry(familyName(res), data, parseFontStyle(res.Style))
}

// fallbackEntry 依次尝试资源声明的 fallback 与默认内置字体。
func (r *Renderer) fallbackEntry(res layout.FontResource) (*fontEntry, error) {
	if res.Fallback != "" {
		if data, err := r.loadFontBytes(layout.FontResource{Name: res.Name, Src: res.Fallback}); err == nil {
			if entry, err := newFontEntry(familyName(res), data, canvas.FontRegular); err == nil {
				return entry, nil
			}
		}
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, err
	}
	return newFontEntry("ringtext-fallback", data, canvas.FontRegular)
}

func newFontEntry(name string, data []byte, style canvas.FontStyle) (*fontEntry, error) {
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
	}
	parsed, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	return &fontEntry{family: family, style: style, shape: parsed.Font}, nil
}

func (r *Renderer) loadFontBytes(res layout.FontResource) ([]byte, error) {
	if res.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", res.Name)
	}
	src := res.Src
	switch {
	case strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:"):
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return fonts.Load(name)
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(strings.TrimPrefix(src, "embed:"))
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fontFace(res layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	entry, err := r.fontEntry(res)
	if err != nil {
		return nil, err
	}
	return entry.family.Face(sizePt, colorFromLayout(col), entry.style, canvas.FontNormal), nil
}

// resolveFontResource 找不到字体时依次回落到 Body、任意已声明字体、默认内置字体。
func resolveFontResource(name string, declared map[string]layout.FontResource) layout.FontResource {
	if res, ok := declared[name]; ok {
		return res
	}
	if res, ok := declared["Body"]; ok {
		return res
	}
	for _, res := range declared {
		return res
	}
	return layout.FontResource{Name: "Body", Src: "builtin:" + fonts.Default, IsBuiltin: true}
}

func familyName(res layout.FontResource) string {
	switch {
	case res.Family != "":
		return res.Family
	case res.Name != "":
		return res.Name
	default:
		return "Body"
	}
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(res layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", res.Name, res.Src, res.Style)
}
