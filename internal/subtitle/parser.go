package subtitle

import (
	"regexp"
	"strings"
)

var (
	indexRe  = regexp.MustCompile(`^\d+$`)
	timingRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}$`)
)

// Parse splits raw SRT content into a Document. The parser is deliberately
// forgiving: any line that is neither an index nor a timing line is treated
// as text of the current block, and blank-line separators are preserved as
// part of the skeleton. No input line is ever dropped.
func Parse(content string) *Document {
	doc := &Document{}
	current := -1

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSuffix(raw, "\r")

		switch {
		case indexRe.MatchString(line):
			// An index line starts the next entry, closing any open block.
			doc.Lines = append(doc.Lines, Line{Kind: LineIndex, Text: line, Block: -1})
			current = -1
		case timingRe.MatchString(line):
			doc.Lines = append(doc.Lines, Line{Kind: LineTiming, Text: line, Block: -1})
		case strings.TrimSpace(line) == "":
			doc.Lines = append(doc.Lines, Line{Kind: LineBlank, Text: line, Block: -1})
			current = -1
		default:
			if current == -1 {
				doc.Blocks = append(doc.Blocks, Block{})
				current = len(doc.Blocks) - 1
			}
			doc.Blocks[current].TextLines = append(doc.Blocks[current].TextLines, line)
			doc.Lines = append(doc.Lines, Line{Kind: LineText, Text: line, Block: current})
		}
	}

	return doc
}
