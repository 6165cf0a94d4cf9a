package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ByLCY/ringtext/config"
	"github.com/ByLCY/ringtext/dsl"
	"github.com/ByLCY/ringtext/layout"
	"github.com/ByLCY/ringtext/renderer"
	canvasrenderer "github.com/ByLCY/ringtext/renderer/canvas"
)

func main() {
	input := flag.String("in", "examples/seal.ring", "DSL 文件路径")
	output := flag.String("out", "", "输出路径，缺省为 output/<输入文件名>.<格式>")
	configPath := flag.String("config", "", "TOML 配置文件路径")
	format := flag.String("format", "", "输出格式：pdf | svg | png（覆盖配置文件）")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径（覆盖配置文件）")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	printConfig := flag.Bool("print-config", false, "输出合并后的配置并退出")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *debug != "" {
		cfg.Debug = *debug
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置无效: %v", err)
	}
	if *printConfig {
		if err := writeConfig(os.Stdout, cfg); err != nil {
			log.Fatalf("输出配置失败: %v", err)
		}
		return
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	layout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	outFormat, _ := renderer.ParseFormat(cfg.Format)
	outPath := *output
	if outPath == "" {
		base := filepath.Base(*input)
		outPath = filepath.Join("output", base[:len(base)-len(filepath.Ext(base))]+"."+string(outFormat))
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(*input)
	}
	r := newRenderer(cfg, baseDir)
	if err := run(*input, outPath, cfg, outFormat, inputData, r); err != nil {
		log.Fatalf("生成 %s 失败: %v", outFormat, err)
	}
	fmt.Printf("已生成 %s：%s\n", outFormat, outPath)
}

// run 串联解析、排版与渲染。
func run(inputPath, outputPath string, cfg config.Config, format renderer.Format, data any, r *canvasrenderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, data, layout.BuildOptions{
		Shaper:       r,
		DefaultInset: cfg.Inset,
	})
	if err != nil {
		return fmt.Errorf("排版失败: %w", err)
	}

	if cfg.Debug != "" {
		if err := writeDebug(result, cfg.Debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	out, err := r.RenderFormat(result, format)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func writeConfig(w io.Writer, cfg config.Config) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// newRenderer 按配置创建渲染器，配置中的 [fonts] 以 builtin:<名称> 注入。
func newRenderer(cfg config.Config, baseDir string) *canvasrenderer.Renderer {
	var injected map[string]canvasrenderer.Resource
	if len(cfg.Fonts) > 0 {
		injected = make(map[string]canvasrenderer.Resource, len(cfg.Fonts))
		for name, path := range cfg.Fonts {
			injected[name] = canvasrenderer.Resource{Path: path}
		}
	}
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: baseDir,
		DPMM:    cfg.DPMM,
		Fonts:   injected,
	})
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
