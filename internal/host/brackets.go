package host

import "unicode"

// bracketTracker follows bracket nesting across the lines of a statement
// typed into the shell, skipping strings, comments and regular expression
// literals.
type bracketTracker struct {
	depth          int
	inTemplate     bool
	inBlockComment bool

	// prev is the last significant rune and word the identifier it belongs
	// to; together they tell a regular expression from a division
	prev rune
	word []rune
	gap  bool
}

// regexKeywords may directly precede a regular expression literal
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// feed scans one more line of input
func (t *bracketTracker) feed(line string) {
	var quote rune
	escaped := false
	inRegex, inClass := false, false
	runes := []rune(line)
	t.gap = true

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case t.inBlockComment:
			if c == '*' && next == '/' {
				t.inBlockComment = false
				i++
			}
			continue
		case escaped:
			escaped = false
			continue
		case c == '\\' && (quote != 0 || t.inTemplate || inRegex):
			escaped = true
			continue
		case quote != 0:
			if c == quote {
				quote = 0
				t.mark(c)
			}
			continue
		case t.inTemplate:
			if c == '`' {
				t.inTemplate = false
				t.mark(c)
			}
			continue
		case inRegex:
			switch {
			case c == '[':
				inClass = true
			case c == ']':
				inClass = false
			case c == '/' && !inClass:
				inRegex = false
				t.mark(c)
			}
			continue
		}

		switch {
		case c == '/' && next == '/':
			return
		case c == '/' && next == '*':
			t.inBlockComment = true
			i++
			continue
		case c == '/' && t.regexAllowed():
			inRegex = true
			continue
		case c == '\'' || c == '"':
			quote = c
			continue
		case c == '`':
			t.inTemplate = true
			continue
		case c == '(' || c == '[' || c == '{':
			t.depth++
		case c == ')' || c == ']' || c == '}':
			t.depth--
		}

		switch {
		case unicode.IsSpace(c):
			t.gap = true
		case isIdentRune(c):
			if t.gap || !isIdentRune(t.prev) {
				t.word = t.word[:0]
			}
			t.word = append(t.word, c)
			t.prev = c
			t.gap = false
		default:
			t.mark(c)
		}
	}
}

// mark records c as the last significant rune outside an identifier
func (t *bracketTracker) mark(c rune) {
	t.prev = c
	t.word = t.word[:0]
	t.gap = false
}

// regexAllowed reports whether a slash at this point starts a regular
// expression rather than a division
func (t *bracketTracker) regexAllowed() bool {
	switch {
	case t.prev == 0:
		return true
	case isIdentRune(t.prev):
		return regexKeywords[string(t.word)]
	case t.prev == ')' || t.prev == ']' || t.prev == '}':
		return false
	case t.prev == '"' || t.prev == '\'' || t.prev == '`' || t.prev == '/':
		return false
	}
	return true
}

// open reports whether the input so far cannot be a complete statement
func (t *bracketTracker) open() bool {
	return t.depth > 0 || t.inTemplate || t.inBlockComment
}

func (t *bracketTracker) reset() {
	*t = bracketTracker{}
}

func isIdentRune(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
