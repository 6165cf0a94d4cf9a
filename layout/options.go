package layout

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Shaper Shaper
	// DefaultInset 在 view 未声明 inset 时使用（mm）。
	DefaultInset float64
}
