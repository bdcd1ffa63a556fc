package subtitle

import "strings"

// LineKind classifies a line of an SRT document. Index, timing and blank
// lines are structural; everything else is translatable text belonging to
// the current block.
type LineKind int

const (
	LineIndex LineKind = iota
	LineTiming
	LineBlank
	LineText
)

// Line is one raw line of the source document with its classification.
// Text lines carry the ordinal of the block they belong to.
type Line struct {
	Kind  LineKind
	Text  string
	Block int // -1 for structural lines
}

// Block is the translatable payload of one subtitle entry.
type Block struct {
	TextLines []string
}

// JoinedText returns the block's text lines joined for submission as one
// translation segment.
func (b Block) JoinedText() string {
	return strings.Join(b.TextLines, "\n")
}

// Document is a parsed SRT file: the full structural skeleton plus the
// ordered translatable blocks extracted from it.
type Document struct {
	Lines  []Line
	Blocks []Block
}

// TranslatableText concatenates all text content, truncated to at most
// limit bytes on a line boundary. Used to feed language detection without
// shipping the whole file.
func (d *Document) TranslatableText(limit int) string {
	var sb strings.Builder
	for _, block := range d.Blocks {
		for _, line := range block.TextLines {
			if limit > 0 && sb.Len()+len(line)+1 > limit {
				return strings.TrimSpace(sb.String())
			}
			sb.WriteString(line)
			sb.WriteString(" ")
		}
	}
	return strings.TrimSpace(sb.String())
}

// Render walks the original skeleton and substitutes translated text lines
// for each block's text lines, in original order. A nil entry in translated
// (or a missing index) falls back to the block's original lines, so a
// partially translated document still renders completely.
func (d *Document) Render(translated [][]string) []string {
	out := make([]string, 0, len(d.Lines))
	emitted := make([]bool, len(d.Blocks))

	for _, line := range d.Lines {
		if line.Kind != LineText {
			out = append(out, line.Text)
			continue
		}
		if emitted[line.Block] {
			continue
		}
		emitted[line.Block] = true

		repl := d.Blocks[line.Block].TextLines
		if line.Block < len(translated) && translated[line.Block] != nil {
			repl = translated[line.Block]
		}
		out = append(out, repl...)
	}
	return out
}
