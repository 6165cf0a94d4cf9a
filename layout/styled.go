package layout

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultTextColor 是缺省的前景色（不透明深色文字）。
var DefaultTextColor = Color{R: 30, G: 30, B: 30, A: 255}

// StyledText 是带样式的文本，由若干连续的 Span 组成。
// 布局期间只读，调用方如需修改请整体替换。
type StyledText struct {
	Spans []Span `json:"spans"`
}

// Span 是一段共享样式的文本。
type Span struct {
	Text  string     `json:"text"`
	Font  string     `json:"font"`
	Size  float64    `json:"size"` // pt
	Attrs Attributes `json:"attrs"`
}

// Attributes 中为 nil 的字段表示未设置，解析时回落到默认值。
type Attributes struct {
	Fill               *Color           `json:"fill,omitempty"`
	Stroke             *Color           `json:"stroke,omitempty"`
	StrokeWidth        *float64         `json:"strokeWidth,omitempty"`
	Kerning            *float64         `json:"kerning,omitempty"`
	BaselineOffset     *float64         `json:"baselineOffset,omitempty"`
	Shadow             *Shadow          `json:"shadow,omitempty"`
	Underline          *DecorationStyle `json:"underline,omitempty"`
	UnderlineColor     *Color           `json:"underlineColor,omitempty"`
	Strikethrough      *DecorationStyle `json:"strikethrough,omitempty"`
	StrikethroughColor *Color           `json:"strikethroughColor,omitempty"`
}

// Attr 枚举可查询的样式属性。
type Attr int

const (
	AttrFill Attr = iota
	AttrStroke
	AttrStrokeWidth
	AttrKerning
	AttrBaselineOffset
	AttrShadow
	AttrUnderline
	AttrUnderlineColor
	AttrStrikethrough
	AttrStrikethroughColor
)

var attrNames = [...]string{
	AttrFill:               "fill",
	AttrStroke:             "stroke",
	AttrStrokeWidth:        "stroke-width",
	AttrKerning:            "kern",
	AttrBaselineOffset:     "baseline",
	AttrShadow:             "shadow",
	AttrUnderline:          "underline",
	AttrUnderlineColor:     "underline-color",
	AttrStrikethrough:      "strike",
	AttrStrikethroughColor: "strike-color",
}

func (a Attr) String() string {
	if a < 0 || int(a) >= len(attrNames) {
		return "unknown"
	}
	return attrNames[a]
}

// GlyphStyle 是某个下标上完全解析后的样式。
type GlyphStyle struct {
	Fill               Color           `json:"fill"`
	Stroke             Color           `json:"stroke"`
	StrokeWidth        float64         `json:"strokeWidth"`
	Kerning            float64         `json:"kerning"`
	BaselineOffset     float64         `json:"baselineOffset"`
	Shadow             *Shadow         `json:"shadow,omitempty"`
	Underline          DecorationStyle `json:"underline"`
	UnderlineColor     Color           `json:"underlineColor"`
	Strikethrough      DecorationStyle `json:"strikethrough"`
	StrikethroughColor Color           `json:"strikethroughColor"`
}

// DefaultStyle 返回所有属性缺失时的样式。
func DefaultStyle() GlyphStyle {
	return GlyphStyle{
		Fill:               DefaultTextColor,
		Stroke:             DefaultTextColor,
		UnderlineColor:     DefaultTextColor,
		StrikethroughColor: DefaultTextColor,
	}
}

// StyleResolver 按字符下标返回样式。
type StyleResolver interface {
	Resolve(index int) GlyphStyle
}

// String 返回拼接后的完整文本。
func (t StyledText) String() string {
	var builder strings.Builder
	for _, span := range t.Spans {
		builder.WriteString(span.Text)
	}
	return builder.String()
}

// Runes 返回完整文本的 rune 序列。
func (t StyledText) Runes() []rune {
	return []rune(t.String())
}

// Len 返回 rune 数量。
func (t StyledText) Len() int {
	n := 0
	for _, span := range t.Spans {
		n += utf8.RuneCountInString(span.Text)
	}
	return n
}

// IsEmpty 判断是否没有任何字符。
func (t StyledText) IsEmpty() bool { return t.Len() == 0 }

// Clone 复制 Span 切片，使快照不受调用方后续修改切片的影响。
func (t StyledText) Clone() StyledText {
	spans := make([]Span, len(t.Spans))
	copy(spans, t.Spans)
	return StyledText{Spans: spans}
}

// SpanResolver 预先解析每个 Span 的样式，按下标二分查找，属于区间映射。
type SpanResolver struct {
	starts []int
	ends   []int
	styles []GlyphStyle
}

var _ StyleResolver = (*SpanResolver)(nil)

// Resolver 构造当前文本的样式解析器。
func (t StyledText) Resolver() *SpanResolver {
	r := &SpanResolver{
		starts: make([]int, 0, len(t.Spans)),
		ends:   make([]int, 0, len(t.Spans)),
		styles: make([]GlyphStyle, 0, len(t.Spans)),
	}
	offset := 0
	for i, span := range t.Spans {
		n := utf8.RuneCountInString(span.Text)
		if n == 0 {
			continue
		}
		r.starts = append(r.starts, offset)
		r.ends = append(r.ends, offset+n)
		r.styles = append(r.styles, resolveAttributes(span.Attrs, i))
		offset += n
	}
	return r
}

// Resolve 实现 StyleResolver；越界下标返回默认样式。
func (r *SpanResolver) Resolve(index int) GlyphStyle {
	i := sort.Search(len(r.starts), func(i int) bool { return r.ends[i] > index })
	if index < 0 || i == len(r.starts) || r.starts[i] > index {
		Logger().Debug("layout: 下标没有样式，使用默认值", "index", index)
		return DefaultStyle()
	}
	return r.styles[i]
}

func resolveAttributes(a Attributes, span int) GlyphStyle {
	style := DefaultStyle()
	var missing []string
	note := func(attr Attr) { missing = append(missing, attr.String()) }

	if a.Fill != nil {
		style.Fill = *a.Fill
	} else {
		note(AttrFill)
	}
	if a.Stroke != nil {
		style.Stroke = *a.Stroke
	} else {
		note(AttrStroke)
	}
	if a.StrokeWidth != nil && *a.StrokeWidth >= 0 {
		style.StrokeWidth = *a.StrokeWidth
	} else {
		note(AttrStrokeWidth)
	}
	if a.Kerning != nil {
		style.Kerning = *a.Kerning
	} else {
		note(AttrKerning)
	}
	if a.BaselineOffset != nil {
		style.BaselineOffset = *a.BaselineOffset
	} else {
		note(AttrBaselineOffset)
	}
	if a.Shadow != nil {
		shadow := *a.Shadow
		style.Shadow = &shadow
	} else {
		note(AttrShadow)
	}
	if a.Underline != nil {
		style.Underline = *a.Underline
	} else {
		note(AttrUnderline)
	}
	if a.UnderlineColor != nil {
		style.UnderlineColor = *a.UnderlineColor
	} else {
		note(AttrUnderlineColor)
	}
	if a.Strikethrough != nil {
		style.Strikethrough = *a.Strikethrough
	} else {
		note(AttrStrikethrough)
	}
	if a.StrikethroughColor != nil {
		style.StrikethroughColor = *a.StrikethroughColor
	} else {
		note(AttrStrikethroughColor)
	}

	if len(missing) > 0 {
		Logger().Debug("layout: 属性缺失，使用默认值", "span", span, "attrs", missing)
	}
	return style
}
