package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config 是命令行工具的可选配置文件（TOML），命令行参数优先于配置文件。
type Config struct {
	Format   string  `toml:"format"`    // pdf | svg | png
	DPMM     float64 `toml:"dpmm"`      // PNG 分辨率（每毫米像素数）
	BaseDir  string  `toml:"base_dir"`  // 相对字体路径的根目录，缺省为输入文件所在目录
	LogLevel string  `toml:"log_level"` // debug | info | warn | error
	Debug    string  `toml:"debug"`     // 调试 JSON 输出路径
	Inset    float64 `toml:"inset"`     // view 未声明 inset 时使用（mm）

	// Fonts 注册额外字体：名称 → 字体文件路径，文档中以 builtin:<名称> 引用。
	// 相对路径以 BaseDir 为根。
	Fonts map[string]string `toml:"fonts,omitempty"`
}

// Default 返回缺省配置。
func Default() Config {
	return Config{
		Format:   "pdf",
		DPMM:     8,
		LogLevel: "warn",
	}
}

// Load 读取 TOML 配置并与缺省值合并，未知字段视为错误。path 为空时直接返回缺省配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("配置文件 %s: %w", path, err)
	}
	return cfg, nil
}

// Decode 将 TOML 解码到 cfg 上，cfg 中已有的值作为缺省值。
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("第 %d 行第 %d 列: %w", row, col, err)
		}
		return err
	}
	return cfg.Validate()
}

// Validate 检查取值范围。
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "pdf", "svg", "png":
	default:
		return fmt.Errorf("不支持的输出格式 %q", c.Format)
	}
	if c.DPMM < 0 {
		return fmt.Errorf("dpmm 不能为负: %g", c.DPMM)
	}
	if c.Inset < 0 {
		return fmt.Errorf("inset 不能为负: %g", c.Inset)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for name, path := range c.Fonts {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
			return fmt.Errorf("fonts 条目 %q 的名称与路径都不能为空", name)
		}
	}
	return nil
}

// Encode 输出 TOML，供 -print-config 使用。
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// ParseLevel 将日志级别名称转换为 slog.Level，空字符串视为 warn。
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("未知的日志级别 %q", name)
	}
	return level, nil
}
