package layout

// Compose 执行一次完整的绘制过程：几何检查、提取度量、环形排版、逐字形解析样式并构造装饰线。
// 空文本返回空结果且不报错；几何前置条件不满足时放弃本次绘制。
func Compose(line ShapedLine, metrics LineMetrics, g Geometry, styles StyleResolver) ([]DrawCommand, error) {
	if err := g.Validate(); err != nil {
		Logger().Warn("layout: 几何参数无效，放弃本次绘制", "err", err)
		return nil, err
	}
	runs, total := Extract(line)
	if len(runs) == 0 || total == 0 {
		return []DrawCommand{}, nil
	}

	placements := Layout(runs, total, g, metrics.LineHeight, styles)
	commands := make([]DrawCommand, 0, len(placements))
	for _, pl := range placements {
		run := runs[pl.Run]
		glyph := run.Glyphs[pl.RunIndex]
		commands = append(commands, commandFor(pl, run, glyph, styles.Resolve(glyph.Cluster), metrics, g))
	}
	return commands, nil
}

// commandFor 按固定顺序应用样式：填充色、描边色、描边宽度、阴影、字体与字号，最后是装饰线。
func commandFor(pl GlyphPlacement, run GlyphRun, glyph Glyph, style GlyphStyle, metrics LineMetrics, g Geometry) DrawCommand {
	cmd := DrawCommand{
		Index:    pl.Index,
		Cluster:  glyph.Cluster,
		Glyph:    glyph.ID,
		Text:     glyph.Text,
		Angle:    pl.Angle,
		Bearing:  pl.Bearing,
		Position: pl.Position,
		LineX:    glyph.LineX,
	}
	cmd.Fill = style.Fill
	cmd.Stroke = style.Stroke
	cmd.StrokeWidth = style.StrokeWidth
	if style.Shadow != nil {
		shadow := *style.Shadow
		cmd.Shadow = &shadow
	}
	cmd.Font = run.Font
	cmd.FontSize = run.FontSize

	base := DecorationInput{
		Radius:      g.Radius,
		Inset:       g.Inset,
		LineHeight:  metrics.LineHeight,
		GlyphHeight: run.Height,
		HalfWidth:   pl.HalfWidth,
		AngleSpan:   pl.Angle,
	}
	if style.Underline != DecorationNone {
		in := base
		in.Kind, in.Style, in.Color = Underline, style.Underline, style.UnderlineColor
		if d := BuildDecoration(in); !d.Empty() {
			cmd.Decorations = append(cmd.Decorations, d)
		}
	}
	if style.Strikethrough != DecorationNone {
		in := base
		in.Kind, in.Style, in.Color = Strikethrough, style.Strikethrough, style.StrikethroughColor
		if d := BuildDecoration(in); !d.Empty() {
			cmd.Decorations = append(cmd.Decorations, d)
		}
	}
	return cmd
}
