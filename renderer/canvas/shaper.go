package canvasrenderer

import (
	"fmt"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/ringtext/layout"
)

// spanRun 是字体与字号都相同的一组连续 Span，对应一次整形调用。
type spanRun struct {
	font   string
	sizePt float64
	start  int // rune 下标
	end    int
}

// ShapeLine 实现 layout.Shaper：整行整形，不折行。
// 所有 run 共享整段文本作为上下文，字形的 Cluster 是其在整段文本中的 rune 下标。
// 返回的长度单位为 mm。
func (r *Renderer) ShapeLine(text layout.StyledText, declared map[string]layout.FontResource) (layout.ShapedLine, error) {
	runes := text.Runes()
	groups := groupSpans(text)
	line := layout.ShapedLine{Runs: make([]layout.GlyphRun, 0, len(groups))}

	for _, g := range groups {
		res := resolveFontResource(g.font, declared)
		entry, err := r.fontEntry(res)
		if err != nil {
			return layout.ShapedLine{}, fmt.Errorf("字体 %s 不可用: %w", g.font, err)
		}
		out := r.shape(entry.shape, runes, g)

		run := layout.GlyphRun{
			Font:     g.font,
			FontSize: g.sizePt,
			Height:   fixedToMM(out.LineBounds.Ascent - out.LineBounds.Descent + out.LineBounds.Gap),
			Glyphs:   make([]layout.Glyph, 0, len(out.Glyphs)),
		}
		for _, sg := range out.Glyphs {
			w := fixedToMM(sg.Advance)
			run.Glyphs = append(run.Glyphs, layout.Glyph{
				ID:      uint32(sg.GlyphID),
				Cluster: sg.ClusterIndex,
				Text:    clusterText(runes, sg.ClusterIndex, sg.RuneCount),
				Width:   w,
				LineX:   line.Advance,
			})
			line.Advance += w
		}
		if run.Height > line.Height {
			line.Height = run.Height
		}
		line.Runs = append(line.Runs, run)
	}
	return line, nil
}

// LineMetrics 实现 layout.Shaper。
func (r *Renderer) LineMetrics(text layout.StyledText, declared map[string]layout.FontResource) (layout.LineMetrics, error) {
	line, err := r.ShapeLine(text, declared)
	if err != nil {
		return layout.LineMetrics{}, err
	}
	return layout.MetricsOf(line), nil
}

func (r *Renderer) shape(f *font.Font, runes []rune, g spanRun) shaping.Output {
	input := shaping.Input{
		Text:      runes,
		RunStart:  g.start,
		RunEnd:    g.end,
		Direction: di.DirectionLTR,
		Face:      font.NewFace(f),
		Size:      mmToFixed(g.sizePt * layout.PtToMm),
		Script:    detectScript(runes[g.start:g.end]),
		Language:  language.NewLanguage("en"),
	}
	hb := r.shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	r.shaperPool.Put(hb)
	return out
}

func groupSpans(text layout.StyledText) []spanRun {
	var groups []spanRun
	offset := 0
	for _, span := range text.Spans {
		n := len([]rune(span.Text))
		if n == 0 {
			continue
		}
		if last := len(groups) - 1; last >= 0 && groups[last].font == span.Font && groups[last].sizePt == span.Size {
			groups[last].end += n
		} else {
			groups = append(groups, spanRun{font: span.Font, sizePt: span.Size, start: offset, end: offset + n})
		}
		offset += n
	}
	return groups
}

func clusterText(runes []rune, cluster, count int) string {
	if cluster < 0 || cluster >= len(runes) {
		return ""
	}
	if count < 1 {
		count = 1
	}
	end := cluster + count
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[cluster:end])
}

// detectScript 取第一个非空白字符的书写系统。
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func mmToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fixedToMM(v fixed.Int26_6) float64 { return float64(v) / 64 }
