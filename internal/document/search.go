package document

import "github.com/dshills/synpane/internal/search"

// Find returns the first match of pattern at or after byte offset start.
// If nothing matches and the document was created WithSearchWrap, the
// search continues from the beginning of the text.
func (d *Document) Find(pattern string, start int) (search.Match, bool, error) {
	return d.searcher.Find(d.Text(), pattern, start, d.wrap)
}

// FindLiteral is Find for literal text.
func (d *Document) FindLiteral(literal string, start int) (search.Match, bool, error) {
	return d.searcher.FindLiteral(d.Text(), literal, start, d.wrap)
}

// FindAll returns every match of pattern in the text.
func (d *Document) FindAll(pattern string) ([]search.Match, error) {
	return d.searcher.FindAll(d.Text(), pattern)
}

// ReplaceAllText returns the text with every match of pattern replaced.
// The document is not modified. Replacement may refer to groups as $1 or
// ${name}.
func (d *Document) ReplaceAllText(pattern, replacement string) (string, error) {
	out, _, err := d.searcher.ReplaceAll(d.Text(), pattern, replacement)
	return out, err
}

// ReplaceAll replaces every match of pattern as one undoable edit and
// returns the number of replacements.
func (d *Document) ReplaceAll(pattern, replacement string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, n, err := d.searcher.ReplaceAll(d.buf.text, pattern, replacement)
	if err != nil || n == 0 {
		return 0, err
	}
	if out == d.buf.text {
		return n, nil
	}
	return n, d.replaceLocked(0, d.buf.Len(), out, true)
}
