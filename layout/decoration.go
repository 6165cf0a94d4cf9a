package layout

import (
	"encoding/json"
	"math"
	"strings"
)

// DecorationStyle 是下划线/删除线样式。
type DecorationStyle int

const (
	DecorationNone DecorationStyle = iota
	DecorationSingle
	DecorationByWord
	DecorationThick
	DecorationDouble
	DecorationDotted
	DecorationDashDot
	DecorationDashDotDot
)

var decorationNames = map[DecorationStyle]string{
	DecorationNone:       "none",
	DecorationSingle:     "single",
	DecorationByWord:     "by-word",
	DecorationThick:      "thick",
	DecorationDouble:     "double",
	DecorationDotted:     "dotted",
	DecorationDashDot:    "dash-dot",
	DecorationDashDotDot: "dash-dot-dot",
}

func (s DecorationStyle) String() string {
	if name, ok := decorationNames[s]; ok {
		return name
	}
	return "none"
}

// MarshalJSON 以名称输出，便于阅读调试 JSON。
func (s DecorationStyle) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON 接受名称，未识别的名称视为 none。
func (s *DecorationStyle) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseDecorationStyle(name)
	return nil
}

// ParseDecorationStyle 解析 DSL 中的样式关键字，未识别的值回落为 none。
func ParseDecorationStyle(value string) DecorationStyle {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	switch v {
	case "", "none", "false", "0":
		return DecorationNone
	case "single", "true", "1":
		return DecorationSingle
	case "by-word", "byword", "word":
		return DecorationByWord
	case "thick":
		return DecorationThick
	case "double":
		return DecorationDouble
	case "dotted", "dot":
		return DecorationDotted
	case "dash-dot", "dashdot":
		return DecorationDashDot
	case "dash-dot-dot", "dashdotdot":
		return DecorationDashDotDot
	default:
		Logger().Debug("layout: 未识别的装饰样式，按 none 处理", "value", value)
		return DecorationNone
	}
}

// DecorationKind 区分下划线与删除线。
type DecorationKind int

const (
	Underline DecorationKind = iota
	Strikethrough
)

func (k DecorationKind) String() string {
	if k == Strikethrough {
		return "strikethrough"
	}
	return "underline"
}

// MarshalJSON 以名称输出。
func (k DecorationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ArcPath 是以圆心为原点的圆弧，角度位于字形旋转后的坐标系中，
// 从 StartAngle 沿角度增大的方向（y 轴向上时为逆时针）扫到 EndAngle。
type ArcPath struct {
	Radius     float64 `json:"radius"`
	StartAngle float64 `json:"startAngle"`
	EndAngle   float64 `json:"endAngle"`
}

// Decoration 是某个字形上的一条装饰线（一段或两段同心圆弧）。
type Decoration struct {
	Kind        DecorationKind  `json:"kind"`
	Style       DecorationStyle `json:"style"`
	Color       Color           `json:"color"`
	StrokeWidth float64         `json:"strokeWidth"`
	Dash        []float64       `json:"dash,omitempty"`
	Paths       []ArcPath       `json:"paths,omitempty"`
}

// Empty 表示没有需要描边的路径。
func (d Decoration) Empty() bool { return len(d.Paths) == 0 }

// DecorationInput 是构造装饰线所需的参数。
type DecorationInput struct {
	Kind        DecorationKind
	Style       DecorationStyle
	Color       Color
	Radius      float64
	Inset       float64
	LineHeight  float64
	GlyphHeight float64 // 删除线使用字形自身的高度
	HalfWidth   float64
	AngleSpan   float64 // 该字形的相对旋转角
}

const (
	decorationWidthFactor  = 0.025
	underlineOffsetFactor  = 0.06
	strikeOffsetFactor     = 0.25
	decorationNarrowFactor = 0.045
)

var (
	dashDotted     = []float64{1, 1}
	dashDashDot    = []float64{3, 1, 1, 1}
	dashDashDotDot = []float64{3, 1, 1, 1, 1, 1}
)

// DecorationRadius 返回装饰线所在半径：下划线略低于基线（靠近圆心），删除线穿过字身。
func DecorationRadius(in DecorationInput) float64 {
	base := in.Radius - in.LineHeight - in.Inset
	if in.Kind == Strikethrough {
		return base + in.GlyphHeight*strikeOffsetFactor
	}
	return base - in.LineHeight*underlineOffsetFactor
}

// BuildDecoration 构造单个字形的装饰短弧。
// 弧线比直角略窄 4.5%，再向两侧各扩展字形自身的半角宽度，相邻字形的短弧首尾相接成环。
func BuildDecoration(in DecorationInput) Decoration {
	d := Decoration{Kind: in.Kind, Style: in.Style, Color: in.Color}
	lineWidth := in.LineHeight * decorationWidthFactor

	switch in.Style {
	case DecorationSingle, DecorationByWord, DecorationDouble:
		d.StrokeWidth = lineWidth
	case DecorationThick:
		d.StrokeWidth = lineWidth * 2
	case DecorationDotted:
		d.StrokeWidth = lineWidth
		d.Dash = append([]float64(nil), dashDotted...)
	case DecorationDashDot:
		d.StrokeWidth = lineWidth
		d.Dash = append([]float64(nil), dashDashDot...)
	case DecorationDashDotDot:
		d.StrokeWidth = lineWidth
		d.Dash = append([]float64(nil), dashDashDotDot...)
	default:
		d.Style = DecorationNone
		return d
	}

	halfPi := math.Pi/2 - decorationNarrowFactor*math.Pi/2
	widen := math.Atan2(in.HalfWidth, in.Radius)
	start := halfPi - widen
	end := in.AngleSpan + halfPi + widen

	radius := DecorationRadius(in)
	d.Paths = []ArcPath{{Radius: radius, StartAngle: start, EndAngle: end}}
	if in.Style == DecorationDouble {
		d.Paths = append(d.Paths, ArcPath{Radius: radius - lineWidth*2, StartAngle: start, EndAngle: end})
	}
	return d
}
