package layout

import "math"

// StartPosition 返回首个字形旋转前的笔位置：基线距圆边 inset。
func StartPosition(g Geometry, lineHeight float64) Point {
	return Point{X: 0, Y: g.BaselineRadius(lineHeight)}
}

// Angles 计算每个字形绘制前需要施加的相对旋转角。
//
// 首个字形只按自身半宽在整行中的占比折算（锚定在半宽处，首尾接缝依赖这一点）；
// 其余字形按相邻中心距加字距求弦角：2·atan2((c2c+kern)/2, r)。
func Angles(widths, kerning []float64, totalLength, radius float64) []float64 {
	if len(widths) == 0 {
		return nil
	}
	angles := make([]float64, len(widths))
	prevHalf := widths[0] * 0.5
	if totalLength > 0 {
		angles[0] = (prevHalf / totalLength) * 2 * math.Pi
	}
	for i := 1; i < len(widths); i++ {
		half := widths[i] * 0.5
		var kern float64
		if i < len(kerning) {
			kern = kerning[i]
		}
		angles[i] = math.Atan2((prevHalf+half+kern)*0.5, radius) * 2
		prevHalf = half
	}
	return angles
}

// pen 是折叠过程中逐字形传递的状态，对应渲染器中累积的变换。
type pen struct {
	bearing float64
	x       float64
	y       float64
}

// glyphInput 是单步折叠所需的输入。
type glyphInput struct {
	flatGlyph
	index    int
	angle    float64
	kerning  float64
	baseline float64
}

// step 处理一个字形：绘制位置取更新前的笔位置，随后笔位置减去字宽，
// 再加上 sin(angle)·kerning 的弦/弧修正。
func step(p pen, in glyphInput) (pen, GlyphPlacement) {
	half := in.Width * 0.5
	next := pen{
		bearing: p.bearing + in.angle,
		x:       p.x - in.Width + math.Sin(in.angle)*in.kerning,
		y:       p.y,
	}
	return next, GlyphPlacement{
		Index:     in.index,
		Cluster:   in.Cluster,
		Run:       in.run,
		RunIndex:  in.runIndex,
		Angle:     in.angle,
		Bearing:   next.bearing,
		Width:     in.Width,
		HalfWidth: half,
		Kerning:   in.kerning,
		Pen:       Point{X: next.x, Y: next.y},
		Position:  Point{X: p.x - half + in.kerning, Y: p.y + in.baseline},
	}
}

// Layout 将字形宽度与字距转换为绕圆心的逐字形旋转与绘制位置。
// 每个字形恰好对应一条结果，顺序与文档顺序一致；不做累计误差的归一化。
func Layout(runs []GlyphRun, totalLength float64, g Geometry, lineHeight float64, styles StyleResolver) []GlyphPlacement {
	glyphs := flatten(runs)
	if len(glyphs) == 0 {
		return nil
	}

	widths := make([]float64, len(glyphs))
	kerning := make([]float64, len(glyphs))
	baseline := make([]float64, len(glyphs))
	for i, fg := range glyphs {
		st := styles.Resolve(fg.Cluster)
		widths[i] = fg.Width
		kerning[i] = st.Kerning
		baseline[i] = st.BaselineOffset
	}
	angles := Angles(widths, kerning, totalLength, g.Radius)

	start := StartPosition(g, lineHeight)
	p := pen{x: start.X, y: start.Y}
	out := make([]GlyphPlacement, 0, len(glyphs))
	for i, fg := range glyphs {
		var placement GlyphPlacement
		p, placement = step(p, glyphInput{
			flatGlyph: fg,
			index:     i,
			angle:     angles[i],
			kerning:   kerning[i],
			baseline:  baseline[i],
		})
		out = append(out, placement)
	}
	return out
}
