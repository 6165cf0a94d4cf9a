package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Default 是未声明字体时使用的内置字体名。
const Default = "lmroman10regular"

var builtin = map[string][]byte{
	"lmroman10regular":    lmroman10regular.TTF,
	"lmroman10bold":       lmroman10bold.TTF,
	"lmroman10italic":     lmroman10italic.TTF,
	"lmroman10bolditalic": lmroman10bolditalic.TTF,
	"lmsans10regular":     lmsans10regular.TTF,
	"lmsans10bold":        lmsans10bold.TTF,
	"lmsans10oblique":     lmsans10oblique.TTF,
	"lmmono10regular":     lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:lmroman10regular" 或直接 "lmroman10regular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(strings.TrimPrefix(key, "built-in:"), "builtin:")
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 返回全部内置字体名，按字母排序。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
