package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/ringtext/binding"
	"github.com/ByLCY/ringtext/dsl"
)

const (
	defaultFontSize    = 12.0 // pt
	defaultShapeStroke = 0.2  // mm
)

// Build 根据 DSL AST 生成环形排版结果：解析资源与样式、构造带样式文本、排版并输出绘制指令。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Shaper == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Shaper")
	}

	for _, section := range doc.Sections {
		if err := rejectInlineObjects(sectionBlock(section)); err != nil {
			return nil, fmt.Errorf("%s 段落: %w", section.Kind(), err)
		}
	}
	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(doc)
	section := doc.FirstView()
	if section == nil {
		return nil, fmt.Errorf("文档中缺少 view 段落")
	}
	if section.Block == nil {
		return nil, fmt.Errorf("view 段落缺少内容")
	}

	width, height, view := resolveView(section.Spec, res, opts)
	ring, err := NewRing(width, height, view.Inset, opts.Shaper)
	if err != nil {
		return nil, fmt.Errorf("view 尺寸无效: %w", err)
	}
	view.Side = ring.Geometry().Side
	view.Radius = ring.Geometry().Radius

	text, err := processBlock(section.Block, &view, res, data)
	if err != nil {
		return nil, err
	}
	if err := ring.SetText(text, res.Fonts); err != nil {
		return nil, err
	}
	commands, err := ring.Draw()
	if err != nil {
		return nil, fmt.Errorf("环形排版失败: %w", err)
	}

	return &Result{
		View:      view,
		Resources: res,
		Meta:      meta,
		Text:      ring.Text(),
		Metrics:   ring.Metrics(),
		Commands:  commands,
	}, nil
}

// resolveView 解析 `view <size> [height <len>] [inset <len>] [background <color>]`。
func resolveView(spec dsl.ViewSpec, res ResourceSet, opts BuildOptions) (float64, float64, View) {
	side := parseMM(spec.Size)
	height := side
	view := View{Inset: opts.DefaultInset}
	_, attrs := parseArgs(spec.Params, false)
	if v := attrs["height"]; v != "" {
		height = parseMM(v)
	}
	if v := attrs["inset"]; v != "" {
		view.Inset = parseMM(v)
	}
	if v := attrs["background"]; v != "" {
		c := resolveColor(v, res)
		view.Background = &c
	}
	return side, height, view
}

// processBlock 依次处理 view 内的命令：text 生成 Span，circle/rect 作为背景图形。
func processBlock(block *dsl.Block, view *View, res ResourceSet, data any) (StyledText, error) {
	var text StyledText
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		switch strings.ToLower(cmd.Name) {
		case "text":
			span, err := handleText(cmd, res, data)
			if err != nil {
				return StyledText{}, err
			}
			if span.Text != "" {
				text.Spans = append(text.Spans, span)
			}
		case "circle":
			_, attrs := parseArgs(cmd.Args, false)
			if c, ok := parseCircleShape(attrs, view, res); ok {
				view.Circles = append(view.Circles, c)
			}
		case "rect":
			_, attrs := parseArgs(cmd.Args, false)
			if rc, ok := parseRectShape(attrs, res); ok {
				view.Rects = append(view.Rects, rc)
			}
		default:
			// 其余命令暂未实现，忽略即可
			continue
		}
	}
	return text, nil
}

func handleText(cmd *dsl.Command, res ResourceSet, data any) (Span, error) {
	styleName, attrs := parseArgs(cmd.Args, true)
	if styleName != "" {
		if _, ok := res.Styles[styleName]; !ok {
			return Span{}, fmt.Errorf("text 引用了未定义的样式 %s", styleName)
		}
	}
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)
	content := binding.Interpolate(extractText(cmd.Block), data)
	return composeSpan(attrs, content, res)
}

// composeSpan 将合并后的样式属性转换为 Span；未设置的属性保持为 nil，由样式解析时回落默认值。
func composeSpan(attrs map[string]string, content string, res ResourceSet) (Span, error) {
	fontName, err := resolveFontName(attrs["font"], res)
	if err != nil {
		return Span{}, err
	}
	span := Span{Text: content, Font: fontName, Size: defaultFontSize}
	if v := attrs["size"]; v != "" {
		if l, ok := ParseLength(v); ok && l.Value > 0 {
			span.Size = l.ToPT()
		}
	}

	a := &span.Attrs
	if v := attrs["fill"]; v != "" {
		c := resolveColor(v, res)
		a.Fill = &c
	}
	if v := attrs["stroke"]; v != "" {
		c := resolveColor(v, res)
		a.Stroke = &c
	}
	a.StrokeWidth = lengthAttr(attrs["stroke-width"])
	a.Kerning = lengthAttr(attrs["kern"])
	a.BaselineOffset = lengthAttr(attrs["baseline"])
	if v := attrs["underline"]; v != "" {
		s := ParseDecorationStyle(v)
		a.Underline = &s
	}
	if v := attrs["underline-color"]; v != "" {
		c := resolveColor(v, res)
		a.UnderlineColor = &c
	}
	if v := attrs["strike"]; v != "" {
		s := ParseDecorationStyle(v)
		a.Strikethrough = &s
	}
	if v := attrs["strike-color"]; v != "" {
		c := resolveColor(v, res)
		a.StrikethroughColor = &c
	}
	a.Shadow = parseShadow(attrs, res)
	return span, nil
}

func lengthAttr(value string) *float64 {
	if value == "" {
		return nil
	}
	l, ok := ParseLength(value)
	if !ok {
		Logger().Debug("layout: 无法解析的长度，按未设置处理", "value", value)
		return nil
	}
	mm := l.ToMM()
	return &mm
}

// parseShadow 读取 shadow-x/shadow-y/shadow-blur/shadow-color，任一存在即启用阴影，颜色缺省为不透明黑色。
func parseShadow(attrs map[string]string, res ResourceSet) *Shadow {
	x, y, blur, col := attrs["shadow-x"], attrs["shadow-y"], attrs["shadow-blur"], attrs["shadow-color"]
	if x == "" && y == "" && blur == "" && col == "" {
		return nil
	}
	if strings.EqualFold(col, "none") {
		return nil
	}
	s := &Shadow{
		OffsetX: parseMM(x),
		OffsetY: parseMM(y),
		Blur:    parseMM(blur),
		Color:   Color{A: 255},
	}
	if col != "" {
		s.Color = resolveColor(col, res)
	}
	return s
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}

	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			switch stmt.Command.Name {
			case "font":
				font := parseFontResource(stmt.Command)
				if font.Name != "" {
					res.Fonts[font.Name] = font
				}
			case "color":
				name, value := parseColorResource(stmt.Command)
				if name == "" || value == "" {
					continue
				}
				c, err := parseColor(value)
				if err != nil {
					return res, fmt.Errorf("color %s: %w", name, err)
				}
				res.Colors[name] = c
			case "style":
				style := parseStyleResource(stmt.Command)
				if style.Name != "" {
					rawStyles[style.Name] = style
				}
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts["Body"] = FontResource{
			Name:      "Body",
			Src:       "builtin:lmroman10regular",
			Family:    "Body",
			IsBuiltin: true,
		}
	}

	resolvedStyles, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolvedStyles
	return res, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Title:   doc.Name,
		Creator: "ringtext",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "subject":
				meta.Subject = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{
		Name:   cmd.Args[0].Value,
		Family: cmd.Args[0].Value,
	}
	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil || stmt.Assignment.Value.String == nil {
			continue
		}
		val := string(*stmt.Assignment.Value.String)
		switch stmt.Assignment.Key {
		case "src":
			font.Src = val
			font.IsBuiltin = strings.HasPrefix(val, "builtin:") || strings.HasPrefix(val, "built-in:")
		case "style":
			font.Style = val
		case "fallback":
			font.Fallback = val
		}
	}
	return font
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	if cmd.Block == nil {
		return style
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		if val := valueToString(stmt.Assignment.Value); val != "" {
			style.Props[stmt.Assignment.Key] = val
		}
	}
	return style
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

// resolveFontName 找不到字体时回落到 Body，再回落到任意一个已声明的字体。
func resolveFontName(name string, res ResourceSet) (string, error) {
	if name != "" {
		if _, ok := res.Fonts[name]; ok {
			return name, nil
		}
		Logger().Debug("layout: 字体未声明，使用默认字体", "font", name)
	}
	if _, ok := res.Fonts["Body"]; ok {
		return "Body", nil
	}
	for fallback := range res.Fonts {
		return fallback, nil
	}
	return "", fmt.Errorf("没有可用的字体资源")
}

func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	cursor := 0
	var style string
	if allowStyle && args[0].Type == "Ident" && (len(args)%2 == 1) {
		style = args[0].Value
		cursor = 1
	}

	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if s, ok := styles[style]; ok && style != "" {
		for k, v := range s.Props {
			out[k] = v
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var builder strings.Builder
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			builder.WriteString(string(stmt.Text.Value))
		}
	}
	return builder.String()
}

func resolveColor(value string, res ResourceSet) Color {
	if value == "" {
		return DefaultTextColor
	}
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if strings.EqualFold(value, "none") || strings.EqualFold(value, "transparent") {
		return Transparent
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c
		}
	}
	Logger().Debug("layout: 无法解析的颜色，使用默认前景色", "value", value)
	return DefaultTextColor
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return Color{
			R: mustHex(strings.Repeat(value[0:1], 2)),
			G: mustHex(strings.Repeat(value[1:2], 2)),
			B: mustHex(strings.Repeat(value[2:3], 2)),
			A: 255,
		}, nil
	case 6:
		return Color{R: mustHex(value[0:2]), G: mustHex(value[2:4]), B: mustHex(value[4:6]), A: 255}, nil
	case 8:
		return Color{R: mustHex(value[0:2]), G: mustHex(value[2:4]), B: mustHex(value[4:6]), A: mustHex(value[6:8])}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// parseCircleShape 解析辅助圆环；未给出圆心时以画布中心为圆心，未给出半径时使用圆的半径。
func parseCircleShape(attrs map[string]string, view *View, res ResourceSet) (Circle, bool) {
	c := Circle{CX: view.Radius, CY: view.Radius, R: view.Radius, StrokeWidth: defaultShapeStroke, StrokeColor: DefaultTextColor}
	if v := attrs["cx"]; v != "" {
		c.CX = parseMM(v)
	}
	if v := attrs["cy"]; v != "" {
		c.CY = parseMM(v)
	}
	if v := attrs["r"]; v != "" {
		c.R = parseMM(v)
	}
	if c.R <= 0 {
		return Circle{}, false
	}
	if v := attrs["stroke"]; v != "" {
		c.StrokeColor = resolveColor(v, res)
	}
	if v := attrs["stroke-width"]; v != "" {
		c.StrokeWidth = parseMM(v)
	}
	if v := attrs["fill"]; v != "" {
		col := resolveColor(v, res)
		c.FillColor = &col
	}
	return c, true
}

func parseRectShape(attrs map[string]string, res ResourceSet) (Rect, bool) {
	rc := Rect{
		X:           parseMM(attrs["x"]),
		Y:           parseMM(attrs["y"]),
		Width:       parseMM(attrs["width"]),
		Height:      parseMM(attrs["height"]),
		StrokeWidth: defaultShapeStroke,
		StrokeColor: DefaultTextColor,
	}
	if rc.Width <= 0 || rc.Height <= 0 {
		return Rect{}, false
	}
	if v := attrs["stroke"]; v != "" {
		rc.StrokeColor = resolveColor(v, res)
	}
	if v := attrs["stroke-width"]; v != "" {
		rc.StrokeWidth = parseMM(v)
	}
	if v := attrs["fill"]; v != "" {
		c := resolveColor(v, res)
		rc.FillColor = &c
	}
	return rc, true
}

func sectionBlock(section *dsl.Section) *dsl.Block {
	switch {
	case section.Meta != nil:
		return section.Meta.Block
	case section.Resources != nil:
		return section.Resources.Block
	case section.View != nil:
		return section.View.Block
	}
	return nil
}

// rejectInlineObjects 报告 `key: { ... }` 形式的取值：属性只接受标量与数组。
func rejectInlineObjects(block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		switch {
		case stmt.Assignment != nil:
			if hasInlineObject(stmt.Assignment.Value) {
				return fmt.Errorf("属性 %s 不支持内联对象取值", stmt.Assignment.Key)
			}
		case stmt.Command != nil:
			if err := rejectInlineObjects(stmt.Command.Block); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasInlineObject(val *dsl.Value) bool {
	if val == nil {
		return false
	}
	if val.Object != nil {
		return true
	}
	if val.Array != nil {
		for _, item := range val.Array.Values {
			if hasInlineObject(item) {
				return true
			}
		}
	}
	return false
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
