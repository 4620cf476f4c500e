package interp

// Source addresses a named span of text fed to the Scanner. Both fields are
// borrowed for as long as any Token, AST node, or Diagnostic derived from
// this Source is alive; the Interpreter also records each executed Source
// in its source pool (see Interpreter.pin) until ClearState.
type Source struct {
	Filename string
	Text     string
}

// Location addresses a byte span within a Source's full text.
type Location struct {
	Filename  string
	FullText  string
	FirstByte int
	LastByte  int // half-open: [FirstByte, LastByte)
	Line      int // 1-based
}

// Lexeme returns the substring of FullText spanned by this Location.
func (l Location) Lexeme() string {
	return l.FullText[l.FirstByte:l.LastByte]
}

// lineText returns the full source line containing l, without its trailing
// newline.
func (l Location) lineText() string {
	start := l.FirstByte
	for start > 0 && l.FullText[start-1] != '\n' {
		start--
	}
	end := l.LastByte
	for end < len(l.FullText) && l.FullText[end] != '\n' {
		end++
	}
	return l.FullText[start:end]
}

// columnOf returns the 0-based column of byte offset pos within its line.
func (l Location) columnOf(pos int) int {
	start := pos
	for start > 0 && l.FullText[start-1] != '\n' {
		start--
	}
	return pos - start
}
