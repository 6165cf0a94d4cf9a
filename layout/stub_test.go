package layout

import (
	"fmt"
	"unicode/utf8"
)

// stubShaper 是测试用的排版后端：每个 rune 宽度固定，每个 Span 生成一个字形段。
// 不依赖 renderer，避免循环引用。
type stubShaper struct {
	width       float64
	height      float64
	widths      map[rune]float64
	metricCalls int
	shapeCalls  int
	fail        bool
}

func newStubShaper(width, height float64) *stubShaper {
	return &stubShaper{width: width, height: height}
}

func (s *stubShaper) widthOf(r rune) float64 {
	if w, ok := s.widths[r]; ok {
		return w
	}
	return s.width
}

func (s *stubShaper) ShapeLine(text StyledText, fonts map[string]FontResource) (ShapedLine, error) {
	s.shapeCalls++
	if s.fail {
		return ShapedLine{}, fmt.Errorf("stub: shaping failed")
	}
	line := ShapedLine{Height: s.height}
	cluster := 0
	for _, span := range text.Spans {
		if span.Text == "" {
			continue
		}
		run := GlyphRun{Font: span.Font, FontSize: span.Size, Height: s.height}
		for _, r := range span.Text {
			w := s.widthOf(r)
			run.Glyphs = append(run.Glyphs, Glyph{
				ID:      uint32(r),
				Cluster: cluster,
				Text:    string(r),
				Width:   w,
				LineX:   line.Advance,
			})
			line.Advance += w
			cluster++
		}
		line.Runs = append(line.Runs, run)
	}
	return line, nil
}

func (s *stubShaper) LineMetrics(text StyledText, fonts map[string]FontResource) (LineMetrics, error) {
	s.metricCalls++
	if s.fail {
		return LineMetrics{}, fmt.Errorf("stub: metrics failed")
	}
	total := 0.0
	for _, r := range text.String() {
		total += s.widthOf(r)
	}
	if utf8.RuneCountInString(text.String()) == 0 {
		return LineMetrics{}, nil
	}
	return LineMetrics{TotalLength: total, LineHeight: s.height}, nil
}

// uniformStyles 对所有下标返回同一样式。
type uniformStyles GlyphStyle

func (u uniformStyles) Resolve(int) GlyphStyle { return GlyphStyle(u) }

func plainText(s string) StyledText {
	return StyledText{Spans: []Span{{Text: s, Font: "Body", Size: 12}}}
}

func runOf(widths ...float64) []GlyphRun {
	run := GlyphRun{Font: "Body", FontSize: 12, Height: 20}
	x := 0.0
	for i, w := range widths {
		run.Glyphs = append(run.Glyphs, Glyph{ID: uint32(i + 1), Cluster: i, Text: "x", Width: w, LineX: x})
		x += w
	}
	return []GlyphRun{run}
}
