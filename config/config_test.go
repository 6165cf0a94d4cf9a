package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringtext.toml")
	require.NoError(t, os.WriteFile(path, []byte("format = \"png\"\ninset = 1.5\nlog_level = \"debug\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", cfg.Format)
	assert.Equal(t, 1.5, cfg.Inset)
	assert.Equal(t, 8.0, cfg.DPMM)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("colour = \"red\"\n"), &cfg)
	assert.Error(t, err)
}

func TestDecodeReportsSyntaxPosition(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("format = \n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "第 1 行")
}

func TestValidate(t *testing.T) {
	cases := []Config{
		{Format: "gif"},
		{DPMM: -1},
		{Inset: -0.1},
		{LogLevel: "loud"},
	}
	for _, c := range cases {
		assert.Error(t, c.Validate(), "%+v", c)
	}
	assert.NoError(t, Default().Validate())
}

func TestDecodeFontsTable(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode([]byte("[fonts]\nhouse = \"fonts/house.ttf\"\n"), &cfg))
	assert.Equal(t, map[string]string{"house": "fonts/house.ttf"}, cfg.Fonts)

	cfg = Default()
	assert.Error(t, Decode([]byte("[fonts]\nhouse = \"\"\n"), &cfg))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Format = "svg"
	data, err := cfg.Encode()
	require.NoError(t, err)

	got := Config{}
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, cfg, got)
}
