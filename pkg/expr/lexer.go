package expr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenName
	tokenNumber
	tokenString
	tokenOperator
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of expression"
	case tokenName:
		return "name"
	case tokenNumber:
		return "number"
	case tokenString:
		return "string"
	case tokenOperator:
		return "operator"
	}

	return "token"
}

type token struct {
	value any    // Decoded literal for numbers and strings.
	text  string // Raw source text.
	kind  tokenKind
	pos   int
}

// Operators ordered longest first so that the lexer always takes the longest match.
var operators = []string{
	"**=", "//=", ">>=", "<<=",
	"**", "//", "==", "!=", "<=", ">=", "<<", ">>", ":=", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}

type lexer struct {
	src    string
	tokens []token
	pos    int
}

// tokenize splits src into tokens. It returns a [*SyntaxError] for text that
// is not a valid token, and an [*UnsupportedConstructError] for string
// prefixes that select a non-literal form (f-strings, bytes).
func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}

	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.tokens = append(l.tokens, token{kind: tokenEOF, pos: l.pos})

			return l.tokens, nil
		}

		err := l.next()
		if err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		l.pos += size
	}
}

func (l *lexer) next() error {
	start := l.pos
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case r == '\'' || r == '"':
		return l.lexString(start, "")

	case isDigit(r) || (r == '.' && l.pos+1 < len(l.src) && isDigit(rune(l.src[l.pos+1]))):
		return l.lexNumber(start)

	case r == '_' || unicode.IsLetter(r):
		return l.lexName(start)
	}

	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			l.tokens = append(l.tokens, token{kind: tokenOperator, text: op, pos: start})

			return nil
		}
	}

	return &SyntaxError{Expression: l.src, Offset: start, Msg: "invalid character " + strconv.QuoteRune(r)}
}

func (l *lexer) lexName(start int) error {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		l.pos += size
	}

	name := l.src[start:l.pos]

	// A name immediately followed by a quote is a string prefix.
	if l.pos < len(l.src) && (l.src[l.pos] == '\'' || l.src[l.pos] == '"') {
		switch prefix := strings.ToLower(name); prefix {
		case "f", "fr", "rf":
			return &UnsupportedConstructError{Expression: l.src, Offset: start, Construct: "f-string"}
		case "b", "br", "rb":
			return &UnsupportedConstructError{Expression: l.src, Offset: start, Construct: "bytes literal"}
		case "r", "u":
			return l.lexString(start, prefix)
		}
	}

	l.tokens = append(l.tokens, token{kind: tokenName, text: name, pos: start})

	return nil
}

func (l *lexer) lexNumber(start int) error {
	isFloat := false

	l.digits()
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isFloat = true
		l.pos++
		l.digits()
	}

	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}

		expStart := l.pos
		l.digits()
		if l.pos == expStart {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "malformed number exponent"}
		}
	}

	// Reject things like 12abc or 1.5j rather than splitting them into two tokens.
	if l.pos < len(l.src) {
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		if r == '_' || unicode.IsLetter(r) || isDigit(r) {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "malformed number"}
		}
	}

	text := l.src[start:l.pos]

	var value any

	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "malformed number " + strconv.Quote(text)}
		}

		value = f
	} else {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "integer out of range " + strconv.Quote(text)}
		}

		value = n
	}

	l.tokens = append(l.tokens, token{kind: tokenNumber, text: text, value: value, pos: start})

	return nil
}

func (l *lexer) digits() {
	for l.pos < len(l.src) && isDigit(rune(l.src[l.pos])) {
		l.pos++
	}
}

func (l *lexer) lexString(start int, prefix string) error {
	l.pos = start + len(prefix)
	quote := l.src[l.pos]
	l.pos++

	raw := prefix == "r"

	var sb strings.Builder

	for {
		if l.pos >= len(l.src) {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "unterminated string"}
		}

		c := l.src[l.pos]
		switch {
		case c == quote:
			l.pos++
			l.tokens = append(l.tokens, token{
				kind:  tokenString,
				text:  l.src[start:l.pos],
				value: sb.String(),
				pos:   start,
			})

			return nil

		case c == '\n':
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "unterminated string"}

		case c == '\\' && !raw:
			err := l.escape(&sb)
			if err != nil {
				return err
			}

		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
}

func (l *lexer) escape(sb *strings.Builder) error {
	start := l.pos
	l.pos++ // Backslash.

	if l.pos >= len(l.src) {
		return &SyntaxError{Expression: l.src, Offset: start, Msg: "unterminated string"}
	}

	c := l.src[l.pos]
	l.pos++

	switch c {
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case 'x', 'u', 'U':
		width := 2
		switch c {
		case 'u':
			width = 4
		case 'U':
			width = 8
		}

		if l.pos+width > len(l.src) {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "truncated escape sequence"}
		}

		code, err := strconv.ParseUint(l.src[l.pos:l.pos+width], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return &SyntaxError{Expression: l.src, Offset: start, Msg: "invalid escape sequence"}
		}

		sb.WriteRune(rune(code))
		l.pos += width
	default:
		// Unknown escapes are kept verbatim.
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}

	return nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
