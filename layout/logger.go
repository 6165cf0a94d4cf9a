package layout

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler 丢弃所有日志，Enabled 返回 false，调用方不会格式化消息。
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger 设置 layout 及渲染器共用的日志输出，默认不输出任何日志。
// 传入 nil 恢复静默。可并发调用。
//
// 使用的级别：
//   - [slog.LevelDebug]：属性缺失回落默认值、未识别的装饰样式等诊断信息
//   - [slog.LevelWarn]：几何前置条件不满足导致本次绘制被放弃
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger 返回当前日志实例，子包（renderer/canvas）通过它共享配置。
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
