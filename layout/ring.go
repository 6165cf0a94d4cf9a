package layout

import (
	"fmt"
	"sync/atomic"
)

// ringState 是文本与其行度量的不可变快照。
type ringState struct {
	text    StyledText
	fonts   map[string]FontResource
	metrics LineMetrics
}

// Ring 在方形区域内沿圆排布一行带样式的文本。
// 行度量在 SetText 时计算并缓存，与文本一起原子替换；每次 Draw 从同一快照重新排版。
type Ring struct {
	geom   Geometry
	shaper Shaper
	state  atomic.Pointer[ringState]
}

// NewRing 要求绘制区域为正方形，否则返回 ErrDegenerateGeometry。
func NewRing(width, height, inset float64, shaper Shaper) (*Ring, error) {
	if shaper == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Shaper")
	}
	g, err := NewGeometry(width, height, inset)
	if err != nil {
		return nil, err
	}
	r := &Ring{geom: g, shaper: shaper}
	r.state.Store(&ringState{})
	return r, nil
}

// Geometry 返回圆参数。
func (r *Ring) Geometry() Geometry { return r.geom }

// SetText 替换文本并重新计算行度量；失败时保留旧快照。
func (r *Ring) SetText(text StyledText, fonts map[string]FontResource) error {
	snapshot := text.Clone()
	fontsCopy := make(map[string]FontResource, len(fonts))
	for k, v := range fonts {
		fontsCopy[k] = v
	}
	metrics := LineMetrics{}
	if !snapshot.IsEmpty() {
		m, err := r.shaper.LineMetrics(snapshot, fontsCopy)
		if err != nil {
			return fmt.Errorf("计算行度量失败: %w", err)
		}
		metrics = m
	}
	r.state.Store(&ringState{text: snapshot, fonts: fontsCopy, metrics: metrics})
	return nil
}

// Text 返回当前文本快照。
func (r *Ring) Text() StyledText { return r.state.Load().text }

// Metrics 返回缓存的行度量。
func (r *Ring) Metrics() LineMetrics { return r.state.Load().metrics }

// Draw 执行一次排版，返回逐字形的绘制指令。
func (r *Ring) Draw() ([]DrawCommand, error) {
	st := r.state.Load()
	if err := r.geom.Validate(); err != nil {
		return nil, err
	}
	if st.text.IsEmpty() {
		return []DrawCommand{}, nil
	}
	line, err := r.shaper.ShapeLine(st.text, st.fonts)
	if err != nil {
		return nil, fmt.Errorf("文本整形失败: %w", err)
	}
	return Compose(line, st.metrics, r.geom, st.text.Resolver())
}
