package lexer

// TokenType represents the type of a token
type TokenType string

// Span represents the source location of a token
type Span struct {
	Filename string // optional source filename for diagnostics
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Start    int    // byte offset
	End      int    // exclusive byte offset
}

// Token represents a lexical token. Text is the exact source slice, so the
// concatenation of every token's Text reproduces the input.
type Token struct {
	Type TokenType
	Text string
	Span Span
}

// Token type constants
const (
	// Special tokens
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers and literals
	IDENT  TokenType = "IDENT"
	NUMBER TokenType = "NUMBER"

	// Operators
	ASSIGN          TokenType = "="
	PLUS            TokenType = "+"
	PLUS_ASSIGN     TokenType = "+="
	MINUS           TokenType = "-"
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK        TokenType = "*"
	ASTERISK_ASSIGN TokenType = "*="
	SLASH           TokenType = "/"
	SLASH_ASSIGN    TokenType = "/="
	BANG            TokenType = "!"
	AND             TokenType = "&&"
	OR              TokenType = "||"

	LT     TokenType = "<"
	GT     TokenType = ">"
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LE     TokenType = "<="
	GE     TokenType = ">="

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"
	DOT       TokenType = "."

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	// Keywords
	COMP  TokenType = "COMP"
	RES   TokenType = "RES"
	SYS   TokenType = "SYS"
	QUERY TokenType = "QUERY"
	IF    TokenType = "IF"
	ELSE  TokenType = "ELSE"
	WHILE TokenType = "WHILE"
	LET   TokenType = "LET"
	DEL   TokenType = "DEL"
	USE   TokenType = "USE"

	// Trivia tokens
	COMMENT    TokenType = "COMMENT"    // # to end of line
	WHITESPACE TokenType = "WHITESPACE" // spaces, tabs
	NEWLINE    TokenType = "NEWLINE"    // \n, \r\n
)

var keywords = map[string]TokenType{
	"comp":  COMP,
	"res":   RES,
	"sys":   SYS,
	"query": QUERY,
	"if":    IF,
	"else":  ELSE,
	"while": WHILE,
	"let":   LET,
	"del":   DEL,
	"use":   USE,
}

// LookupIdent checks the keywords table to see whether the given identifier
// is in fact a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsTrivia reports whether t carries no syntactic meaning.
func (t TokenType) IsTrivia() bool {
	return t == WHITESPACE || t == NEWLINE || t == COMMENT
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}
