package layout

// Shaper 是外部排版引擎（字形整形与度量）需要实现的接口。
// 约定：长度单位为 mm，字号为 pt。
type Shaper interface {
	// ShapeLine 将整段文本整形为按字体分组的字形序列，不做折行。
	ShapeLine(text StyledText, fonts map[string]FontResource) (ShapedLine, error)
	// LineMetrics 返回整段文本的排版长度与行高。
	LineMetrics(text StyledText, fonts map[string]FontResource) (LineMetrics, error)
}

// Extract 将整形后的行拆分为字形段，并返回整行的排版长度（计算角度时的分母）。
// 空行返回 nil 与 0，下游据此直接输出空结果。
func Extract(line ShapedLine) ([]GlyphRun, float64) {
	runs := make([]GlyphRun, 0, len(line.Runs))
	for _, run := range line.Runs {
		if len(run.Glyphs) == 0 {
			continue
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return nil, 0
	}
	return runs, line.Advance
}

// GlyphCount 返回所有字形段中的字形总数。
func GlyphCount(runs []GlyphRun) int {
	n := 0
	for _, run := range runs {
		n += len(run.Glyphs)
	}
	return n
}

// MetricsOf 从整形结果中提取行度量。
func MetricsOf(line ShapedLine) LineMetrics {
	height := line.Height
	for _, run := range line.Runs {
		if run.Height > height {
			height = run.Height
		}
	}
	return LineMetrics{TotalLength: line.Advance, LineHeight: height}
}

// flatGlyph 是展开后的字形及其所在的段。
type flatGlyph struct {
	Glyph
	run      int
	runIndex int
}

func flatten(runs []GlyphRun) []flatGlyph {
	out := make([]flatGlyph, 0, GlyphCount(runs))
	for ri, run := range runs {
		for gi, g := range run.Glyphs {
			out = append(out, flatGlyph{Glyph: g, run: ri, runIndex: gi})
		}
	}
	return out
}
