// Package chunker splits memory content into full-text index units.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 400
	DefaultMaxSize    = 600
)

// Options configures chunk sizes, measured in runes.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{TargetSize: DefaultTargetSize, MaxSize: DefaultMaxSize}
}

// ChunkResult is one chunk with its 1-based line span in the original text.
type ChunkResult struct {
	Text      string
	StartLine int
	EndLine   int
}

// Chunk splits text into chunks. Text of at most MaxSize runes is returned as
// one chunk; blank text yields nil.
func Chunk(text string, opts Options) []ChunkResult {
	if opts.TargetSize <= 0 || opts.MaxSize < opts.TargetSize {
		opts = DefaultOptions()
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if utf8.RuneCountInString(strings.TrimSpace(text)) <= opts.MaxSize {
		first, last := span(lines)
		return []ChunkResult{{Text: strings.TrimSpace(text), StartLine: first, EndLine: last}}
	}

	var out []ChunkResult
	var acc *ChunkResult
	flush := func() {
		if acc != nil {
			out = append(out, *acc)
			acc = nil
		}
	}

	for _, sec := range sections(lines) {
		if utf8.RuneCountInString(sec.Text) > opts.MaxSize {
			flush()
			out = append(out, splitLines(lines[sec.StartLine-1:sec.EndLine], sec.StartLine, opts)...)
			continue
		}
		if acc == nil {
			s := sec
			acc = &s
			continue
		}
		joined := acc.Text + "\n\n" + sec.Text
		if utf8.RuneCountInString(joined) > opts.TargetSize {
			flush()
			s := sec
			acc = &s
			continue
		}
		acc.Text = joined
		acc.EndLine = sec.EndLine
	}
	flush()
	return out
}

// sections cuts lines at blank lines and markdown headings.
func sections(lines []string) []ChunkResult {
	var out []ChunkResult
	start := -1
	emit := func(end int) {
		if start < 0 {
			return
		}
		body := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if body != "" {
			out = append(out, ChunkResult{Text: body, StartLine: start + 1, EndLine: end})
		}
		start = -1
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			emit(i)
		case strings.HasPrefix(trimmed, "#"):
			emit(i)
			start = i
		case start < 0:
			start = i
		}
	}
	emit(len(lines))
	return out
}

// splitLines packs lines up to TargetSize runes. A single line longer than
// MaxSize is cut on rune boundaries.
func splitLines(lines []string, firstLine int, opts Options) []ChunkResult {
	var out []ChunkResult
	var buf []string
	size, start := 0, firstLine
	flush := func(end int) {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body != "" {
			out = append(out, ChunkResult{Text: body, StartLine: start, EndLine: end})
		}
		buf, size = nil, 0
	}

	for i, line := range lines {
		n := firstLine + i
		ln := utf8.RuneCountInString(line)
		if ln > opts.MaxSize {
			flush(n - 1)
			r := []rune(line)
			for len(r) > 0 {
				cut := min(len(r), opts.TargetSize)
				out = append(out, ChunkResult{Text: string(r[:cut]), StartLine: n, EndLine: n})
				r = r[cut:]
			}
			start = n + 1
			continue
		}
		if size+ln > opts.TargetSize && len(buf) > 0 {
			flush(n - 1)
			start = n
		}
		if len(buf) == 0 {
			start = n
		}
		buf = append(buf, line)
		size += ln + 1
	}
	flush(firstLine + len(lines) - 1)
	return out
}

func span(lines []string) (int, int) {
	first, last := 1, len(lines)
	for first < last && strings.TrimSpace(lines[first-1]) == "" {
		first++
	}
	for last > first && strings.TrimSpace(lines[last-1]) == "" {
		last--
	}
	return first, last
}
