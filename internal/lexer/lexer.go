package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/stork-lang/stork/internal/diag"
)

type LexerErrorKind int

const (
	ErrIllegalRune LexerErrorKind = iota
)

type LexerError struct {
	Kind    LexerErrorKind
	Message string
	Span    Span
}

func (k LexerErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrIllegalRune:
		return diag.CodeLexerIllegalRune
	default:
		return diag.Code("LEXER_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e LexerError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// Lexer turns source text into tokens. Trivia is always emitted: the parser
// builds a lossless tree and needs every byte.
type Lexer struct {
	input    string
	filename string
	pos      int // byte offset of the next unread byte
	line     int
	column   int

	Errors []LexerError
}

// New creates a new lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

// NewWithFilename creates a lexer whose spans carry filename.
func NewWithFilename(input, filename string) *Lexer {
	l := New(input)
	l.filename = filename
	return l
}

func (l *Lexer) addError(kind LexerErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, LexerError{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

// advance consumes n bytes, keeping line/column current.
func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.input); i++ {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else if utf8.RuneStart(l.input[l.pos]) {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) emit(typ TokenType, n int) Token {
	start := Span{Filename: l.filename, Line: l.line, Column: l.column, Start: l.pos}
	l.advance(n)
	start.End = l.pos
	return Token{Type: typ, Text: l.input[start.Start:l.pos], Span: start}
}

// NextToken returns the next token, or EOF once the input is exhausted.
func (l *Lexer) NextToken() Token {
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Span: Span{Filename: l.filename, Line: l.line, Column: l.column, Start: l.pos, End: l.pos}}
	}

	ch := l.input[l.pos]
	switch {
	case ch == ' ' || ch == '\t':
		return l.emit(WHITESPACE, l.scan(func(c byte) bool { return c == ' ' || c == '\t' }))
	case ch == '\n':
		return l.emit(NEWLINE, 1)
	case ch == '\r':
		if l.peekByte(1) == '\n' {
			return l.emit(NEWLINE, 2)
		}
		return l.emit(WHITESPACE, 1)
	case ch == '#':
		return l.emit(COMMENT, l.scan(func(c byte) bool { return c != '\n' }))
	case isLetter(ch):
		n := l.scan(func(c byte) bool { return isLetter(c) || isDigit(c) })
		return l.emit(LookupIdent(l.input[l.pos:l.pos+n]), n)
	case isDigit(ch):
		return l.emit(NUMBER, l.numberLength())
	}

	if typ, n := l.operator(); n > 0 {
		return l.emit(typ, n)
	}

	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	tok := l.emit(ILLEGAL, size)
	l.addError(ErrIllegalRune, fmt.Sprintf("illegal character %q", tok.Text), tok.Span)
	return tok
}

// Tokenize lexes the full input, EOF token included.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

func (l *Lexer) scan(accept func(byte) bool) int {
	n := 0
	for l.pos+n < len(l.input) && accept(l.input[l.pos+n]) {
		n++
	}
	return n
}

// numberLength matches (0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)? at pos.
func (l *Lexer) numberLength() int {
	n := 1
	if l.input[l.pos] != '0' {
		for isDigit(l.peekByte(n)) {
			n++
		}
	}
	if l.peekByte(n) == '.' && isDigit(l.peekByte(n+1)) {
		n += 2
		for isDigit(l.peekByte(n)) {
			n++
		}
	}
	if c := l.peekByte(n); c == 'e' || c == 'E' {
		m := n + 1
		if s := l.peekByte(m); s == '+' || s == '-' {
			m++
		}
		if isDigit(l.peekByte(m)) {
			n = m + 1
			for isDigit(l.peekByte(n)) {
				n++
			}
		}
	}
	return n
}

func (l *Lexer) operator() (TokenType, int) {
	ch, next := l.input[l.pos], l.peekByte(1)
	withAssign := func(single, double TokenType) (TokenType, int) {
		if next == '=' {
			return double, 2
		}
		return single, 1
	}

	switch ch {
	case '+':
		return withAssign(PLUS, PLUS_ASSIGN)
	case '-':
		return withAssign(MINUS, MINUS_ASSIGN)
	case '*':
		return withAssign(ASTERISK, ASTERISK_ASSIGN)
	case '/':
		return withAssign(SLASH, SLASH_ASSIGN)
	case '=':
		return withAssign(ASSIGN, EQ)
	case '!':
		return withAssign(BANG, NOT_EQ)
	case '<':
		return withAssign(LT, LE)
	case '>':
		return withAssign(GT, GE)
	case '&':
		if next == '&' {
			return AND, 2
		}
	case '|':
		if next == '|' {
			return OR, 2
		}
	case ':':
		return COLON, 1
	case ';':
		return SEMICOLON, 1
	case ',':
		return COMMA, 1
	case '.':
		return DOT, 1
	case '(':
		return LPAREN, 1
	case ')':
		return RPAREN, 1
	case '{':
		return LBRACE, 1
	case '}':
		return RBRACE, 1
	case '[':
		return LBRACKET, 1
	case ']':
		return RBRACKET, 1
	}
	return ILLEGAL, 0
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
