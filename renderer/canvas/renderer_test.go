package canvasrenderer

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/ringtext/dsl"
	"github.com/ByLCY/ringtext/fonts"
	"github.com/ByLCY/ringtext/layout"
	"github.com/ByLCY/ringtext/renderer"
)

func bodyFonts() map[string]layout.FontResource {
	return map[string]layout.FontResource{
		"Body": {Name: "Body", Src: "builtin:lmroman10regular", IsBuiltin: true},
		"Mono": {Name: "Mono", Src: "builtin:lmmono10regular", IsBuiltin: true},
	}
}

func styled(spans ...layout.Span) layout.StyledText {
	return layout.StyledText{Spans: spans}
}

// TestShapeLineAdvances 验证整形结果：字宽为正、LineX 累加、总长等于字宽之和。
func TestShapeLineAdvances(t *testing.T) {
	r := NewRenderer("")
	line, err := r.ShapeLine(styled(layout.Span{Text: "Ring", Font: "Body", Size: 12}), bodyFonts())
	if err != nil {
		t.Fatalf("ShapeLine error: %v", err)
	}
	if len(line.Runs) != 1 || len(line.Runs[0].Glyphs) != 4 {
		t.Fatalf("expected one run with 4 glyphs, got %+v", line.Runs)
	}
	sum := 0.0
	for i, g := range line.Runs[0].Glyphs {
		if g.Width <= 0 {
			t.Fatalf("glyph %d has non-positive width %g", i, g.Width)
		}
		if math.Abs(g.LineX-sum) > 1e-9 {
			t.Fatalf("glyph %d LineX=%g want %g", i, g.LineX, sum)
		}
		if g.Cluster != i {
			t.Fatalf("glyph %d cluster=%d", i, g.Cluster)
		}
		sum += g.Width
	}
	if math.Abs(line.Advance-sum) > 1e-9 {
		t.Fatalf("advance %g != sum of widths %g", line.Advance, sum)
	}
	if line.Height <= 0 {
		t.Fatalf("line height must be positive, got %g", line.Height)
	}
	if got := line.Runs[0].Glyphs[2].Text; got != "n" {
		t.Fatalf("glyph text = %q, want n", got)
	}
}

// TestShapeLineUnitsAreMillimeters 12pt 的拉丁字母宽度应在 1-4mm 之间。
func TestShapeLineUnitsAreMillimeters(t *testing.T) {
	r := NewRenderer("")
	line, err := r.ShapeLine(styled(layout.Span{Text: "M", Font: "Body", Size: 12}), bodyFonts())
	if err != nil {
		t.Fatalf("ShapeLine error: %v", err)
	}
	w := line.Advance
	if w < 1 || w > 6 {
		t.Fatalf("unexpected width for 12pt M: %g mm", w)
	}
	if line.Height < 12*layout.PtToMm*0.8 || line.Height > 12*layout.PtToMm*2 {
		t.Fatalf("unexpected line height: %g mm", line.Height)
	}
}

func TestShapeLineGroupsSpans(t *testing.T) {
	r := NewRenderer("")
	text := styled(
		layout.Span{Text: "ab", Font: "Body", Size: 12},
		layout.Span{Text: "cd", Font: "Body", Size: 12},
		layout.Span{Text: "ef", Font: "Mono", Size: 10},
	)
	line, err := r.ShapeLine(text, bodyFonts())
	if err != nil {
		t.Fatalf("ShapeLine error: %v", err)
	}
	if len(line.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(line.Runs))
	}
	if line.Runs[1].Font != "Mono" || line.Runs[1].FontSize != 10 {
		t.Fatalf("unexpected second run: %+v", line.Runs[1])
	}
	if c := line.Runs[1].Glyphs[0].Cluster; c != 4 {
		t.Fatalf("second run should start at rune 4, got %d", c)
	}
	m, err := r.LineMetrics(text, bodyFonts())
	if err != nil {
		t.Fatalf("LineMetrics error: %v", err)
	}
	if math.Abs(m.TotalLength-line.Advance) > 1e-9 {
		t.Fatalf("metrics total %g != advance %g", m.TotalLength, line.Advance)
	}
}

func TestShapeLineUnknownFontFallsBack(t *testing.T) {
	r := NewRenderer("")
	fonts := map[string]layout.FontResource{
		"Body": {Name: "Body", Src: "builtin:does-not-exist"},
	}
	line, err := r.ShapeLine(styled(layout.Span{Text: "x", Font: "Body", Size: 12}), fonts)
	if err != nil {
		t.Fatalf("expected fallback font, got error: %v", err)
	}
	if line.Advance <= 0 {
		t.Fatalf("fallback font produced no advance")
	}
}

func TestFontPathRequiresBaseDir(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.loadFontBytes(layout.FontResource{Name: "X", Src: "fonts/x.ttf"}); err == nil {
		t.Fatalf("expected error for relative path without base dir")
	}
}

func TestInjectedFontsResolveAsBuiltin(t *testing.T) {
	mono, err := fonts.Load("lmmono10regular")
	if err != nil {
		t.Fatalf("load builtin: %v", err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "house.ttf"), mono, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	r := NewRendererWithOptions(Options{
		BaseDir: dir,
		Fonts: map[string]Resource{
			"inline":  {Bytes: mono},
			"house":   {Path: "house.ttf"},
			"missing": {Path: "missing.ttf"},
		},
	})

	for _, name := range []string{"inline", "house"} {
		data, err := r.loadFontBytes(layout.FontResource{Name: name, Src: "builtin:" + name})
		if err != nil {
			t.Fatalf("builtin:%s: %v", name, err)
		}
		if !bytes.Equal(data, mono) {
			t.Fatalf("builtin:%s returned different bytes", name)
		}
	}
	if _, err := r.loadFontBytes(layout.FontResource{Name: "missing", Src: "builtin:missing"}); err == nil {
		t.Fatalf("unreadable injected font should not be registered")
	}

	declared := map[string]layout.FontResource{
		"House": {Name: "House", Src: "builtin:house", IsBuiltin: true},
	}
	line, err := r.ShapeLine(styled(layout.Span{Text: "ii", Font: "House", Size: 12}), declared)
	if err != nil {
		t.Fatalf("shape with injected font: %v", err)
	}
	if line.Advance <= 0 {
		t.Fatalf("injected font produced no advance")
	}
}

const renderDoc = `ring Render v1 {
  meta { title: "Render" author: "ringtext" }
  resources {
    font Body { src: "builtin:lmroman10regular" }
    style Deco { size: 14pt underline: dash-dot strike: double shadow-x: 0.4mm shadow-blur: 0.5mm stroke-width: 0.1mm stroke: #aa0000 }
  }
  view 50mm inset 1mm background #ffffff {
    circle r 24mm
    rect x 2mm y 2mm width 4mm height 4mm fill #cccccc
    text Deco { "CIRCULAR TEXT " }
  }
}`

func buildResult(t *testing.T, r *Renderer) *layout.Result {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(renderDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := layout.Build(doc, nil, layout.BuildOptions{Shaper: r})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return res
}

func TestRenderFormats(t *testing.T) {
	r := NewRendererWithOptions(Options{DPMM: 2})
	res := buildResult(t, r)
	if len(res.Commands) != len([]rune("CIRCULAR TEXT ")) {
		t.Fatalf("unexpected command count %d", len(res.Commands))
	}

	cases := []struct {
		format renderer.Format
		magic  []byte
	}{
		{renderer.FormatPDF, []byte("%PDF")},
		{renderer.FormatSVG, []byte("<svg")},
		{renderer.FormatPNG, []byte("\x89PNG")},
	}
	for _, c := range cases {
		data, err := r.RenderFormat(res, c.format)
		if err != nil {
			t.Fatalf("%s: %v", c.format, err)
		}
		if !bytes.Contains(data[:min(len(data), 256)], c.magic) {
			t.Fatalf("%s output does not look right: %q", c.format, data[:min(len(data), 16)])
		}
	}
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("expected error for zero-sized view")
	}
	res := &layout.Result{View: layout.View{Side: 10, Radius: 5}}
	if _, err := r.RenderFormat(res, "gif"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestRenderEmptyText(t *testing.T) {
	r := NewRenderer("")
	res := &layout.Result{View: layout.View{Side: 20, Radius: 10}, Commands: []layout.DrawCommand{}}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF output")
	}
}

func TestArcPathEndpoints(t *testing.T) {
	arc := layout.ArcPath{Radius: 10, StartAngle: 0, EndAngle: math.Pi / 2}
	p := arcPath(arc)
	start := p.StartPos()
	end := p.Pos()
	if math.Abs(start.X-10) > 1e-6 || math.Abs(start.Y) > 1e-6 {
		t.Fatalf("unexpected start %v", start)
	}
	if math.Abs(end.X) > 1e-6 || math.Abs(end.Y-10) > 1e-6 {
		t.Fatalf("unexpected end %v", end)
	}
}

func TestGlyphViewTopPosition(t *testing.T) {
	// 累积角 π/2 时不旋转，只平移到圆心
	m := glyphView(10, 0, 0, math.Pi/2)
	p := m.Dot(canvas.Point{})
	if math.Abs(p.X-10) > 1e-9 || math.Abs(p.Y-10) > 1e-9 {
		t.Fatalf("unexpected origin %v", p)
	}
	q := m.Dot(canvas.Point{X: 0, Y: 5})
	if math.Abs(q.X-10) > 1e-9 || math.Abs(q.Y-15) > 1e-9 {
		t.Fatalf("glyph at bearing π/2 should sit above the center, got %v", q)
	}
}

func TestParseFontStyle(t *testing.T) {
	if parseFontStyle("") != canvas.FontRegular {
		t.Fatalf("empty style should be regular")
	}
	if parseFontStyle("SemiBold Italic") != canvas.FontSemiBold|canvas.FontItalic {
		t.Fatalf("semibold italic not recognised")
	}
}
