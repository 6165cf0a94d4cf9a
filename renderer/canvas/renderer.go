package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/shaping"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/ringtext/layout"
	"github.com/ByLCY/ringtext/renderer"
)

const (
	defaultShapeStroke = 0.2 // mm
	defaultDPMM        = 8.0
)

// Renderer draws ring layouts via github.com/tdewolff/canvas and shapes text
// with go-text/typesetting. It is safe for concurrent use.
type Renderer struct {
	baseDir string
	dpmm    float64

	fontBlobs map[string][]byte // injected fonts by name

	fontMu    sync.Mutex
	fontCache map[string]*fontEntry

	shaperPool sync.Pool
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Shaper     = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	// DPMM is the raster resolution used for PNG output (dots per millimeter).
	DPMM  float64
	Fonts map[string]Resource // extra fonts accessible via builtin:<name>
}

// Resource can be provided either by Bytes or by Path. A relative Path is
// resolved against BaseDir.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving fonts.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:   opts.BaseDir,
		dpmm:      opts.DPMM,
		fontBlobs: map[string][]byte{},
		fontCache: map[string]*fontEntry{},
		shaperPool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
	if r.dpmm <= 0 {
		r.dpmm = defaultDPMM
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			path := res.Path
			if r.baseDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(r.baseDir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				layout.Logger().Warn("canvas: 读取字体失败", "font", name, "path", path, "err", err)
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	return r.RenderFormat(result, renderer.FormatPDF)
}

// RenderFormat renders the result as PDF, SVG or PNG.
func (r *Renderer) RenderFormat(result *layout.Result, format renderer.Format) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	side := result.View.Side
	if !(side > 0) {
		return nil, fmt.Errorf("画布尺寸无效: %g", side)
	}

	c := canvas.New(side, side)
	ctx := canvas.NewContext(c)
	if err := r.drawView(ctx, result); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case renderer.FormatPDF, "":
		writer := pdf.New(&buf, side, side, nil)
		r.applyMeta(writer, result.Meta)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case renderer.FormatSVG:
		if err := renderers.SVG()(&buf, c); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case renderer.FormatPNG:
		if err := renderers.PNG(canvas.DPMM(r.dpmm))(&buf, c); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的输出格式 %s", format)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawView 先绘制背景与辅助图形，再逐条执行字形绘制指令。
// 画布使用默认的 y 轴向上坐标系，圆心位于 (radius, radius)。
func (r *Renderer) drawView(ctx *canvas.Context, result *layout.Result) error {
	view := result.View
	if view.Background != nil {
		ctx.SetFillColor(colorFromLayout(*view.Background))
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0, 0, canvas.Rectangle(view.Side, view.Side))
	}
	r.drawRects(ctx, view.Rects)
	r.drawCircles(ctx, view.Circles)

	for _, cmd := range result.Commands {
		if err := r.drawCommand(ctx, view, cmd, result.Resources.Fonts); err != nil {
			return err
		}
	}
	return nil
}

// drawCommand 绘制单个字形：阴影、字形本身、装饰线。每条指令自带全部状态，绘制前后恢复上下文。
func (r *Renderer) drawCommand(ctx *canvas.Context, view layout.View, cmd layout.DrawCommand, declared map[string]layout.FontResource) error {
	if strings.TrimSpace(cmd.Text) == "" && len(cmd.Decorations) == 0 {
		return nil
	}
	face, err := r.fontFace(resolveFontResource(cmd.Font, declared), cmd.FontSize, cmd.Fill)
	if err != nil {
		return err
	}

	var glyph *canvas.Path
	if strings.TrimSpace(cmd.Text) != "" {
		glyph, _, err = face.ToPath(cmd.Text)
		if err != nil {
			return fmt.Errorf("字形 %q 转换为路径失败: %w", cmd.Text, err)
		}
	}
	x := cmd.Position.X + cmd.LineX
	y := cmd.Position.Y

	if glyph != nil && cmd.Shadow != nil {
		r.drawShadow(ctx, view, cmd, glyph, x, y)
	}

	ctx.Push()
	ctx.ComposeView(glyphView(view.Radius, 0, 0, cmd.Bearing))
	if glyph != nil {
		ctx.SetFillColor(colorFromLayout(cmd.Fill))
		if cmd.StrokeWidth > 0 {
			ctx.SetStrokeColor(colorFromLayout(cmd.Stroke))
			ctx.SetStrokeWidth(cmd.StrokeWidth)
		} else {
			ctx.SetStrokeColor(canvas.Transparent)
		}
		ctx.DrawPath(x, y, glyph)
	}
	for _, d := range cmd.Decorations {
		drawDecoration(ctx, d)
	}
	ctx.Pop()
	return nil
}

// drawShadow 以阴影色在偏移位置重绘字形；偏移量位于画布坐标系而非旋转后的坐标系。
// 模糊半径以同色半透明描边近似。
func (r *Renderer) drawShadow(ctx *canvas.Context, view layout.View, cmd layout.DrawCommand, glyph *canvas.Path, x, y float64) {
	s := cmd.Shadow
	ctx.Push()
	ctx.ComposeView(glyphView(view.Radius, s.OffsetX, s.OffsetY, cmd.Bearing))
	ctx.SetFillColor(colorFromLayout(s.Color))
	if s.Blur > 0 {
		blurred := s.Color
		blurred.A /= 2
		ctx.SetStrokeColor(colorFromLayout(blurred))
		ctx.SetStrokeWidth(s.Blur)
	} else {
		ctx.SetStrokeColor(canvas.Transparent)
	}
	ctx.DrawPath(x, y, glyph)
	ctx.Pop()
}

// glyphView 将原点移到圆心（可附加画布坐标系中的偏移），再按累积旋转转到字形所在方向。
// 累积角为 π/2 时字形位于正上方，角度增大时沿顺时针前进。
func glyphView(radius, dx, dy, bearing float64) canvas.Matrix {
	return canvas.Identity.Translate(radius+dx, radius+dy).Rotate(90 - bearing*180/math.Pi)
}

func drawDecoration(ctx *canvas.Context, d layout.Decoration) {
	if d.Empty() || d.StrokeWidth <= 0 {
		return
	}
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(colorFromLayout(d.Color))
	ctx.SetStrokeWidth(d.StrokeWidth)
	if len(d.Dash) > 0 {
		dashes := make([]float64, len(d.Dash))
		for i, v := range d.Dash {
			dashes[i] = v * layout.PtToMm
		}
		ctx.SetDashes(0, dashes...)
	} else {
		ctx.SetDashes(0)
	}
	for _, arc := range d.Paths {
		ctx.DrawPath(0, 0, arcPath(arc))
	}
	ctx.SetDashes(0)
}

// arcPath 构造以原点为圆心、从 StartAngle 逆时针扫到 EndAngle 的圆弧。
func arcPath(arc layout.ArcPath) *canvas.Path {
	p := &canvas.Path{}
	p.MoveTo(arc.Radius*math.Cos(arc.StartAngle), arc.Radius*math.Sin(arc.StartAngle))
	p.Arc(arc.Radius, arc.Radius, 0, arc.StartAngle*180/math.Pi, arc.EndAngle*180/math.Pi)
	return p
}

// drawRects 绘制背景矩形
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		w := rc.StrokeWidth
		if w <= 0 {
			w = defaultShapeStroke
		}
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor))
		} else {
			ctx.SetFillColor(canvas.Transparent)
		}
		ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

// drawCircles 绘制辅助圆环，canvas.Circle 以原点为圆心
func (r *Renderer) drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	for _, c := range circles {
		w := c.StrokeWidth
		if w <= 0 {
			w = defaultShapeStroke
		}
		if c.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*c.FillColor))
		} else {
			ctx.SetFillColor(canvas.Transparent)
		}
		ctx.SetStrokeColor(colorFromLayout(c.StrokeColor))
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}
