package compressor

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Metrics describes one version of a document.
type Metrics struct {
	Filesize         int `json:"filesize"`
	EmptyChars       int `json:"empty_chars"`
	InlineScriptSize int `json:"inline_script_size"`
	InlineStyleSize  int `json:"inline_style_size"`
	InlineEventSize  int `json:"inline_event_size"`
}

// CategoryStats counts the protected regions of one category.
type CategoryStats struct {
	Blocks        int `json:"blocks"`
	OriginalBytes int `json:"original_bytes"`
	RestoredBytes int `json:"restored_bytes"`
}

// Statistics is returned by CompressWithStats. Nested conditional-comment
// runs are not counted separately.
type Statistics struct {
	Original       Metrics                    `json:"original"`
	Compressed     Metrics                    `json:"compressed"`
	Categories     map[Category]CategoryStats `json:"categories"`
	PreservedSize  int                        `json:"preserved_size"`
	MinifyFailures int                        `json:"minify_failures"`
	Elapsed        time.Duration              `json:"elapsed"`
}

func newStatistics() *Statistics {
	return &Statistics{Categories: make(map[Category]CategoryStats)}
}

// Ratio returns compressed size over original size, or 1 for an empty original.
func (s *Statistics) Ratio() float64 {
	if s.Original.Filesize == 0 {
		return 1
	}
	return float64(s.Compressed.Filesize) / float64(s.Original.Filesize)
}

// Savings returns the number of bytes removed.
func (s *Statistics) Savings() int {
	return s.Original.Filesize - s.Compressed.Filesize
}

// String renders a one-line summary.
func (s *Statistics) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d -> %d bytes (%.1f%%, saved %d) in %s",
		s.Original.Filesize, s.Compressed.Filesize, s.Ratio()*100, s.Savings(), s.Elapsed.Round(time.Microsecond))
	for c := CategoryUser; c <= CategoryCDATA; c++ {
		cs, ok := s.Categories[c]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, ", %s=%d", c, cs.Blocks)
	}
	return sb.String()
}

func (s *Statistics) extracted(b block) {
	if s == nil {
		return
	}
	cs := s.Categories[b.key.cat]
	cs.Blocks++
	cs.OriginalBytes += len(b.raw)
	s.Categories[b.key.cat] = cs
}

func (s *Statistics) restored(c Category, n int) {
	if s == nil {
		return
	}
	cs := s.Categories[c]
	cs.RestoredBytes += n
	s.Categories[c] = cs
}

func (s *Statistics) minifyFailed() {
	if s != nil {
		s.MinifyFailures++
	}
}

// verbatim lists the categories whose content is restored unchanged.
var verbatim = []Category{CategoryUser, CategorySkip, CategoryPre, CategoryTextArea, CategoryCDATA}

func (s *Statistics) finish(elapsed time.Duration) {
	s.PreservedSize = 0
	for _, c := range verbatim {
		s.PreservedSize += s.Categories[c].RestoredBytes
	}
	s.Elapsed = elapsed
}

// measure collects document metrics with the compressor's own matchers.
func measure(p *patternSet, doc string) (Metrics, error) {
	m := Metrics{Filesize: len(doc)}
	for _, r := range doc {
		if strings.ContainsRune(htmlSpace, r) {
			m.EmptyChars++
		}
	}

	sums := []struct {
		dst *int
		re  *regexp2.Regexp
	}{
		{&m.InlineScriptSize, p.script},
		{&m.InlineStyleSize, p.style},
		{&m.InlineEventSize, p.eventDouble},
		{&m.InlineEventSize, p.eventSingle},
	}
	for _, sum := range sums {
		n, err := sumGroup(sum.re, doc, 2)
		if err != nil {
			return Metrics{}, wrapMatchErr("statistics", err)
		}
		*sum.dst += n
	}
	return m, nil
}

func sumGroup(re *regexp2.Regexp, s string, n int) (int, error) {
	total := 0
	m, err := re.FindStringMatch(s)
	for m != nil && err == nil {
		total += len(group(m, n))
		m, err = re.FindNextMatch(m)
	}
	return total, err
}
