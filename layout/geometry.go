package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGeometry 表示画布不是正方形、半径不为正或内缩为负，此时拒绝排版。
var ErrDegenerateGeometry = errors.New("layout: 退化的几何参数")

const squareTolerance = 1e-9

// Geometry 是一次排版使用的圆参数（单位 mm）。
type Geometry struct {
	Side   float64 `json:"side"`
	Radius float64 `json:"radius"`
	Inset  float64 `json:"inset"`
}

// NewGeometry 根据方形绘制区域计算半径（边长 / 2）。
func NewGeometry(width, height, inset float64) (Geometry, error) {
	if math.Abs(width-height) > squareTolerance {
		return Geometry{}, fmt.Errorf("%w: 绘制区域必须是正方形（%gx%g）", ErrDegenerateGeometry, width, height)
	}
	g := Geometry{Side: width, Radius: width * 0.5, Inset: inset}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// Validate 检查几何前置条件，每次绘制前调用一次。
func (g Geometry) Validate() error {
	if !(g.Radius > 0) || math.IsInf(g.Radius, 0) {
		return fmt.Errorf("%w: 半径必须为正数，实际 %g", ErrDegenerateGeometry, g.Radius)
	}
	if g.Inset < 0 || math.IsNaN(g.Inset) || math.IsInf(g.Inset, 0) {
		return fmt.Errorf("%w: inset 必须为非负有限值，实际 %g", ErrDegenerateGeometry, g.Inset)
	}
	return nil
}

// BaselineRadius 返回字形基线所在的半径。
func (g Geometry) BaselineRadius(lineHeight float64) float64 {
	return g.Radius - lineHeight - g.Inset
}
