package document

import "unicode/utf8"

// textBuffer is the document's mutable text. Documents are re-lexed in
// full after every change, so a plain string is enough.
type textBuffer struct {
	text string
}

func (b *textBuffer) Len() int {
	return len(b.text)
}

func (b *textBuffer) TextRange(start, end int) (string, error) {
	if err := b.check("read", start, end-start); err != nil {
		return "", err
	}
	return b.text[start:end], nil
}

func (b *textBuffer) Replace(start, end int, text string) error {
	if err := b.check("replace", start, end-start); err != nil {
		return err
	}
	b.text = b.text[:start] + text + b.text[end:]
	return nil
}

// check validates [offset, offset+length) against the text, including
// that neither end splits a UTF-8 sequence.
func (b *textBuffer) check(op string, offset, length int) error {
	if offset < 0 || length < 0 || offset > len(b.text) || length > len(b.text)-offset {
		return &BoundsError{Op: op, Offset: offset, Length: length, Len: len(b.text)}
	}
	if !b.boundary(offset) || !b.boundary(offset+length) {
		return &BoundsError{Op: op, Offset: offset, Length: length, Len: len(b.text), Split: true}
	}
	return nil
}

func (b *textBuffer) boundary(offset int) bool {
	return offset == len(b.text) || utf8.RuneStart(b.text[offset])
}
