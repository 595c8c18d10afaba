// Package translit turns owner display names into mailbox local parts.
package translit

import (
	"strings"

	"github.com/mozillazg/go-pinyin"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
)

// Pinyin writes Han characters as toneless pinyin and keeps everything else.
type Pinyin struct {
	args pinyin.Args
}

func NewPinyin() *Pinyin {
	args := pinyin.NewArgs()
	args.Fallback = func(r rune, _ pinyin.Args) []string {
		return []string{string(r)}
	}
	return &Pinyin{args: args}
}

var _ ports.Transliterator = (*Pinyin)(nil)

// Transliterate joins the syllables without separators and keeps only the
// first whitespace separated word, so "张三 (ops)" becomes "zhangsan".
func (p *Pinyin) Transliterate(s string) string {
	joined := strings.Join(pinyin.LazyPinyin(s, p.args), "")
	fields := strings.Fields(joined)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
