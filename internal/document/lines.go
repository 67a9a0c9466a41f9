package document

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Position is a location in the text. Line and Column are zero-based;
// Column counts grapheme clusters from the start of the line.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Position converts a byte offset to a line and column.
func (d *Document) Position(offset int) (Position, error) {
	text := d.Text()
	b := textBuffer{text: text}
	if err := b.check("position", offset, 0); err != nil {
		return Position{}, err
	}

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return Position{
		Offset: offset,
		Line:   strings.Count(text[:lineStart], "\n"),
		Column: uniseg.GraphemeClusterCount(text[lineStart:offset]),
	}, nil
}

// Offset converts a zero-based line and grapheme column to a byte offset.
// Columns past the end of the line are clamped to it.
func (d *Document) Offset(line, column int) (int, error) {
	text := d.Text()
	if line < 0 || column < 0 {
		return 0, &BoundsError{Op: "offset", Offset: line, Len: len(text)}
	}

	start := 0
	for range line {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return 0, &BoundsError{Op: "offset", Offset: line, Len: len(text)}
		}
		start += i + 1
	}
	end := strings.IndexByte(text[start:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += start
	}

	offset := start
	g := uniseg.NewGraphemes(text[start:end])
	for col := 0; col < column && g.Next(); col++ {
		_, to := g.Positions()
		offset = start + to
	}
	return offset, nil
}

// LineAt returns the line containing pos, including its trailing newline.
func (d *Document) LineAt(pos int) (string, error) {
	text := d.Text()
	if pos < 0 || pos > len(text) {
		return "", &BoundsError{Op: "line", Offset: pos, Len: len(text)}
	}
	start, end := lineBounds(text, pos, pos)
	if end < len(text) {
		end++
	}
	return text[start:end], nil
}

// lineBounds returns the span of the lines touched by [start, end),
// without the final newline. A range ending at the start of a line does
// not touch that line.
func lineBounds(text string, start, end int) (int, int) {
	if end > start && text[end-1] == '\n' {
		end--
	}
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := strings.IndexByte(text[end:], '\n')
	if lineEnd < 0 {
		return lineStart, len(text)
	}
	return lineStart, end + lineEnd
}

// editLines rewrites every line touched by [start, end) with fn as a single
// undoable edit.
func (d *Document) editLines(op string, start, end int, fn func(lines []string) []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.readOnly {
		return ErrReadOnly
	}
	if end < start {
		start, end = end, start
	}
	if err := d.buf.check(op, start, end-start); err != nil {
		return err
	}

	text := d.buf.text
	from, to := lineBounds(text, start, end)
	block := text[from:to]
	out := strings.Join(fn(strings.Split(block, "\n")), "\n")
	if out == block {
		return nil
	}
	return d.replaceLocked(from, to-from, out, true)
}

// ToggleComments comments out every line touched by [start, end) with
// prefix, or uncomments them if all non-blank lines already start with it.
// An empty prefix uses the one configured WithLineComment.
func (d *Document) ToggleComments(start, end int, prefix string) error {
	prefix, err := d.commentPrefix(prefix)
	if err != nil {
		return err
	}

	return d.editLines("comment", start, end, func(lines []string) []string {
		if allCommented(lines, prefix) {
			for i, line := range lines {
				lines[i] = uncomment(line, prefix)
			}
			return lines
		}
		for i, line := range lines {
			if strings.TrimSpace(line) != "" {
				lines[i] = prefix + " " + line
			}
		}
		return lines
	})
}

func allCommented(lines []string, prefix string) bool {
	seen := false
	for _, line := range lines {
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			continue
		}
		if !strings.HasPrefix(body, prefix) {
			return false
		}
		seen = true
	}
	return seen
}

// uncomment removes prefix and one following space or tab, keeping the
// indentation before it.
func uncomment(line, prefix string) string {
	body := strings.TrimLeft(line, " \t")
	if body == "" {
		return line
	}
	indent := line[:len(line)-len(body)]
	body = strings.TrimPrefix(body, prefix)
	if body != "" && (body[0] == ' ' || body[0] == '\t') {
		body = body[1:]
	}
	return indent + body
}

// Indent adds one indentation level, tab size spaces, to every line
// touched by [start, end).
func (d *Document) Indent(start, end int) error {
	unit := strings.Repeat(" ", d.tabSize)
	return d.editLines("indent", start, end, func(lines []string) []string {
		for i, line := range lines {
			lines[i] = unit + line
		}
		return lines
	})
}

// Unindent removes one indentation level from every line touched by
// [start, end): a leading tab, or up to tab size leading spaces.
func (d *Document) Unindent(start, end int) error {
	return d.editLines("unindent", start, end, func(lines []string) []string {
		for i, line := range lines {
			lines[i] = unindent(line, d.tabSize)
		}
		return lines
	})
}

func unindent(line string, tabSize int) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	n := 0
	for n < tabSize && n < len(line) && line[n] == ' ' {
		n++
	}
	return line[n:]
}
