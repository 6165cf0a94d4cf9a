package layout

// 该文件定义环形排版的结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有长度单位均为毫米（mm），角度单位为弧度。

// Result 保存一次环形排版的全部产物。
type Result struct {
	View      View          `json:"view"`
	Resources ResourceSet   `json:"resources"`
	Meta      DocumentMeta  `json:"meta"`
	Text      StyledText    `json:"text"`
	Metrics   LineMetrics   `json:"metrics"`
	Commands  []DrawCommand `json:"commands"`
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Styles map[string]Style        `json:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:<name> 形式。
type FontResource struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Style     string `json:"style"`
	Family    string `json:"family"`
	IsBuiltin bool   `json:"isBuiltin"`
	Fallback  string `json:"fallback"`
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	A int `json:"a"`
}

// Transparent 表示完全透明的颜色。
var Transparent = Color{}

// View 描述方形画布、圆半径以及背景元素。
type View struct {
	Side       float64  `json:"side"`
	Radius     float64  `json:"radius"`
	Inset      float64  `json:"inset"`
	Background *Color   `json:"background,omitempty"`
	Rects      []Rect   `json:"rects,omitempty"`
	Circles    []Circle `json:"circles,omitempty"`
}

// Rect 表示一个背景矩形（坐标相对画布左下角）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// Circle 表示一个辅助圆环，默认以画布中心为圆心。
type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存输出文件的元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Point 是二维坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shadow 描述字形阴影。
type Shadow struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Color   Color   `json:"color"`
}

// Glyph 是排版引擎输出的单个字形。
type Glyph struct {
	ID      uint32  `json:"id"`
	Cluster int     `json:"cluster"` // 字形对应的首个 rune 下标，样式查询使用该下标
	Text    string  `json:"text"`    // 字形所覆盖的字符
	Width   float64 `json:"width"`   // 排版宽度（advance）
	LineX   float64 `json:"lineX"`   // 字形在未旋转的行内的笔位置
}

// GlyphRun 是共享同一字体的一段连续字形。
type GlyphRun struct {
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"` // pt
	Height   float64 `json:"height"`   // 该段的行高（ascent+descent+gap）
	Glyphs   []Glyph `json:"glyphs"`
}

// ShapedLine 是排版引擎对整行文本的输出。
type ShapedLine struct {
	Runs    []GlyphRun `json:"runs"`
	Advance float64    `json:"advance"`
	Height  float64    `json:"height"`
}

// LineMetrics 在文本变化时计算一次，之后被缓存。
type LineMetrics struct {
	TotalLength float64 `json:"totalLength"`
	LineHeight  float64 `json:"lineHeight"`
}

// GlyphPlacement 是单个字形的布局结果。
type GlyphPlacement struct {
	Index     int     `json:"index"`
	Cluster   int     `json:"cluster"`
	Run       int     `json:"run"`
	RunIndex  int     `json:"runIndex"`
	Angle     float64 `json:"angle"`   // 绘制前需要施加的相对旋转
	Bearing   float64 `json:"bearing"` // 累积旋转
	Width     float64 `json:"width"`
	HalfWidth float64 `json:"halfWidth"`
	Kerning   float64 `json:"kerning"`
	Pen       Point   `json:"pen"`      // 处理完该字形之后的笔位置
	Position  Point   `json:"position"` // 旋转坐标系中的绘制位置
}

// DrawCommand 是渲染单个字形所需的全部信息，彼此独立，不依赖渲染上下文的残留状态。
type DrawCommand struct {
	Index       int          `json:"index"`
	Cluster     int          `json:"cluster"`
	Glyph       uint32       `json:"glyph"`
	Text        string       `json:"text"`
	Font        string       `json:"font"`
	FontSize    float64      `json:"fontSize"`
	Angle       float64      `json:"angle"`
	Bearing     float64      `json:"bearing"`
	Position    Point        `json:"position"`
	LineX       float64      `json:"lineX"`
	Fill        Color        `json:"fill"`
	Stroke      Color        `json:"stroke"`
	StrokeWidth float64      `json:"strokeWidth"`
	Shadow      *Shadow      `json:"shadow,omitempty"`
	Decorations []Decoration `json:"decorations,omitempty"`
}
