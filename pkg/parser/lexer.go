package parser

import (
	"unicode/utf8"

	"github.com/mistql/mistql-go/pkg/types"
)

const eof = -1

// Lexer converts a MistQL query string into a sequence of tokens. The
// implementation follows Rob Pike's "Lexical Scanning in Go" technique, kept
// from the teacher's own hand-written scanner.
type Lexer struct {
	input   string
	length  int
	start   int
	current int
	width   int
	err     error
}

// NewLexer creates a new lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, length: len(input)}
}

// Next returns the next token from the input. Once the end is reached, Next
// returns TokenEOF for every subsequent call.
func (l *Lexer) Next() Token {
	sawSpace := l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.withSpace(l.eof(), sawSpace)
	}

	if tt, ok := l.scanTwoChar(ch); ok {
		return l.withSpace(l.newToken(tt), sawSpace)
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.withSpace(l.newToken(tt), sawSpace)
	}

	if ch == '"' {
		l.ignore()
		return l.withSpace(l.scanString(ch), sawSpace)
	}

	if ch >= '0' && ch <= '9' {
		l.backup()
		return l.withSpace(l.scanNumber(), sawSpace)
	}

	if ch == '@' {
		return l.withSpace(l.newToken(TokenAt), sawSpace)
	}
	if ch == '$' {
		return l.withSpace(l.newToken(TokenDollar), sawSpace)
	}

	l.backup()
	return l.withSpace(l.scanName(), sawSpace)
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

func (l *Lexer) withSpace(t Token, sawSpace bool) Token {
	t.PrecededByWhitespace = sawSpace
	return t
}

// scanTwoChar recognizes every operator whose meaning depends on a second
// character: && || == != =~ <= >=. A lone '|' is the pipe and a lone '!'
// is logical not; a lone '&', or a '=' not followed by '=' or '~', is a
// syntax error (scanName rejects it) — MistQL has no single-character & or
// = operator.
func (l *Lexer) scanTwoChar(ch rune) (TokenType, bool) {
	switch ch {
	case '&':
		if l.acceptRune('&') {
			return TokenAnd, true
		}
	case '|':
		if l.acceptRune('|') {
			return TokenOr, true
		}
		l.backup()
		return TokenPipe, true
	case '=':
		if l.acceptRune('=') {
			return TokenEqual, true
		}
		if l.acceptRune('~') {
			return TokenMatch, true
		}
	case '!':
		if l.acceptRune('=') {
			return TokenNotEqual, true
		}
		return TokenNot, true
	case '<':
		if l.acceptRune('=') {
			return TokenLessEqual, true
		}
	case '>':
		if l.acceptRune('=') {
			return TokenGreaterEqual, true
		}
	}
	return 0, false
}

// scanString reads a double-quoted JSON string literal; the opening quote
// has already been consumed.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			if r := l.nextRune(); r != eof {
				continue
			}
			fallthrough
		case eof:
			return l.error("unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a JSON-style number: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?.
// Leading zeroes are not permitted, matching JSON.
func (l *Lexer) scanNumber() Token {
	if !l.acceptRune('0') {
		l.accept(isNonZeroDigit)
		l.acceptAll(isDigit)
	}

	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			l.backup()
			return l.newToken(TokenNumber)
		}
	}

	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		l.acceptAll(isDigit)
	}

	return l.newToken(TokenNumber)
}

// scanName reads an identifier: [A-Za-z_][A-Za-z0-9_]*.
func (l *Lexer) scanName() Token {
	for {
		ch := l.nextRune()
		if ch == eof {
			break
		}
		if isWhitespace(ch) || lookupSymbol1(ch) > 0 || isReservedStart(ch) {
			l.backup()
			break
		}
	}

	name := l.input[l.start:l.current]
	valid := name != ""
	for i, r := range name {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (i > 0 && isDigit(r))) {
			valid = false
			break
		}
	}
	if !valid {
		return l.error("invalid identifier")
	}

	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// isReservedStart reports whether r can only ever start a new token, so
// scanName must stop before consuming it even though it isn't in symbols1.
func isReservedStart(r rune) bool {
	switch r {
	case '&', '|', '=', '!', '@', '$', '"':
		return true
	default:
		return false
	}
}

// Helper methods, identical in spirit to the teacher's own scanner plumbing.

func (l *Lexer) eof() Token {
	return Token{Type: TokenEOF, Position: l.current}
}

func (l *Lexer) error(message string) Token {
	t := l.newToken(TokenError)
	l.err = types.SyntaxErrorf("%s", message).WithPosition(t.Position)
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{Type: tt, Value: l.input[l.start:l.current], Position: l.start}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool { return c == r })
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool { return c == r1 || c == r2 })
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace consumes whitespace and reports whether any was consumed;
// the parser needs that fact to resolve juxtaposition calls (§4.1).
func (l *Lexer) skipWhitespace() bool {
	matched := l.acceptAll(isWhitespace)
	l.ignore()
	return matched
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool        { return r >= '0' && r <= '9' }
func isNonZeroDigit(r rune) bool { return r >= '1' && r <= '9' }
