package layout

import (
	"strings"
	"testing"

	"github.com/ByLCY/ringtext/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sealDoc = `ring Seal v1 {
  meta {
    title: "Seal"
    author: "Ada"
    keywords: ["ring", "seal"]
  }
  resources {
    font Body { src: "builtin:lmroman10regular" }
    font Bold { src: "builtin:lmroman10bold" }
    color Ink = #1a2b3c
    color Shade = #00000080
    style Base { font: Body size: 14pt fill: Ink }
    style Title extends Base { font: Bold underline: double }
  }
  view 60mm inset 2mm background #fffdf5 {
    circle r 29mm stroke Ink stroke-width 0.4mm
    rect x 10mm y 10mm width 5mm height 5mm fill #eee
    text Title { "HELLO ${user.name|WORLD} " }
    text Base kern 0.5pt shadow-x 0.3mm shadow-color Shade strike dash-dot { "EST. ${year}" }
  }
}`

func buildDoc(t *testing.T, src string, data any) (*Result, *stubShaper) {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	shaper := newStubShaper(2, 5)
	res, err := Build(doc, data, BuildOptions{Shaper: shaper})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res, shaper
}

func TestBuildSealDocument(t *testing.T) {
	data := map[string]any{"user": map[string]any{"name": "Ada"}, "year": 1843.0}
	res, _ := buildDoc(t, sealDoc, data)

	assert.Equal(t, "Seal", res.Meta.Title)
	assert.Equal(t, "Ada", res.Meta.Author)
	assert.Equal(t, []string{"ring", "seal"}, res.Meta.Keywords)
	assert.Equal(t, "ringtext", res.Meta.Creator)

	assert.InDelta(t, 60, res.View.Side, 1e-9)
	assert.InDelta(t, 30, res.View.Radius, 1e-9)
	assert.InDelta(t, 2, res.View.Inset, 1e-9)
	require.NotNil(t, res.View.Background)
	assert.Equal(t, Color{R: 0xff, G: 0xfd, B: 0xf5, A: 255}, *res.View.Background)
	require.Len(t, res.View.Circles, 1)
	assert.InDelta(t, 29, res.View.Circles[0].R, 1e-9)
	assert.InDelta(t, 30, res.View.Circles[0].CX, 1e-9)
	require.Len(t, res.View.Rects, 1)
	require.NotNil(t, res.View.Rects[0].FillColor)

	require.Len(t, res.Text.Spans, 2)
	assert.Equal(t, "HELLO Ada ", res.Text.Spans[0].Text)
	assert.Equal(t, "EST. 1843", res.Text.Spans[1].Text)
	assert.Equal(t, "Bold", res.Text.Spans[0].Font)
	assert.Equal(t, "Body", res.Text.Spans[1].Font)
	assert.Equal(t, 14.0, res.Text.Spans[1].Size)

	total := len([]rune("HELLO Ada EST. 1843"))
	require.Len(t, res.Commands, total)
	assert.InDelta(t, float64(total)*2, res.Metrics.TotalLength, 1e-9)

	first := res.Commands[0]
	ink := Color{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}
	assert.Equal(t, ink, first.Fill)
	require.Len(t, first.Decorations, 1)
	assert.Equal(t, DecorationDouble, first.Decorations[0].Style)
	assert.Len(t, first.Decorations[0].Paths, 2)
	assert.Nil(t, first.Shadow)

	last := res.Commands[total-1]
	require.NotNil(t, last.Shadow)
	assert.Equal(t, Color{A: 0x80}, last.Shadow.Color)
	assert.InDelta(t, 0.3, last.Shadow.OffsetX, 1e-9)
	require.Len(t, last.Decorations, 1)
	assert.Equal(t, Strikethrough, last.Decorations[0].Kind)
	assert.Equal(t, []float64{3, 1, 1, 1}, last.Decorations[0].Dash)
}

func TestBuildInterpolationFallback(t *testing.T) {
	res, _ := buildDoc(t, sealDoc, nil)
	assert.Equal(t, "HELLO WORLD ", res.Text.Spans[0].Text)
	assert.Equal(t, "EST. ${year}", res.Text.Spans[1].Text)
}

func TestBuildDefaultsFontWhenNoResources(t *testing.T) {
	res, _ := buildDoc(t, `ring Plain v1 { view 40 { text { "abc" } } }`, nil)
	require.Contains(t, res.Resources.Fonts, "Body")
	assert.True(t, res.Resources.Fonts["Body"].IsBuiltin)
	require.Len(t, res.Commands, 3)
	assert.Equal(t, DefaultTextColor, res.Commands[0].Fill)
	assert.Equal(t, defaultFontSize, res.Commands[0].FontSize)
	assert.Zero(t, res.View.Inset)
}

func TestBuildEmptyView(t *testing.T) {
	res, shaper := buildDoc(t, `ring Empty v1 { view 40mm { circle } }`, nil)
	assert.NotNil(t, res.Commands)
	assert.Empty(t, res.Commands)
	assert.Zero(t, shaper.shapeCalls)
	assert.Len(t, res.View.Circles, 1)
}

func TestBuildRejectsNonSquareView(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader(`ring Bad v1 { view 40mm height 30mm { text { "a" } } }`))
	require.NoError(t, err)
	_, err = Build(doc, nil, BuildOptions{Shaper: newStubShaper(1, 1)})
	require.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestBuildStyleCycle(t *testing.T) {
	src := `ring Cycle v1 {
  resources {
    style A extends B { size: 10pt }
    style B extends A { size: 12pt }
  }
  view 40mm { text A { "x" } }
}`
	doc, err := dsl.Parse(strings.NewReader(src))
	require.NoError(t, err)
	_, err = Build(doc, nil, BuildOptions{Shaper: newStubShaper(1, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "循环")
}

func TestBuildUnknownStyle(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader(`ring U v1 { view 40mm { text Missing { "x" } } }`))
	require.NoError(t, err)
	_, err = Build(doc, nil, BuildOptions{Shaper: newStubShaper(1, 1)})
	require.Error(t, err)
}

func TestBuildRejectsInlineObjectValues(t *testing.T) {
	for _, src := range []string{
		`ring O v1 { meta { title: { a: 1 } } view 40mm { } }`,
		`ring O v1 { resources { style S { size: { pt: 12 } } } view 40mm { } }`,
		`ring O v1 { meta { keywords: [ "a", { b: 2 } ] } view 40mm { } }`,
	} {
		doc, err := dsl.Parse(strings.NewReader(src))
		require.NoError(t, err, src)
		_, err = Build(doc, nil, BuildOptions{Shaper: newStubShaper(1, 1)})
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "内联对象", src)
	}
}

func TestBuildRequiresShaper(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader(`ring S v1 { view 40mm { } }`))
	require.NoError(t, err)
	_, err = Build(doc, nil, BuildOptions{})
	require.Error(t, err)
}

func TestBuildDefaultInset(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader(`ring D v1 { view 40mm { text { "ab" } } }`))
	require.NoError(t, err)
	res, err := Build(doc, nil, BuildOptions{Shaper: newStubShaper(2, 4), DefaultInset: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.View.Inset, 1e-9)
	// 基线半径 = 20 - 4 - 1.5
	assert.InDelta(t, 14.5, res.Commands[0].Position.Y, 1e-9)
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#fff":      {255, 255, 255, 255},
		"#102030":   {16, 32, 48, 255},
		"#10203040": {16, 32, 48, 64},
	}
	for in, want := range cases {
		got, err := parseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseColor("#12345")
	assert.Error(t, err)
	assert.Equal(t, Transparent, resolveColor("none", ResourceSet{}))
}
