package parser

import (
	"fmt"
	"strings"

	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/syntax"
)

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Message string
	Code    diag.Code
	Span    lexer.Span
}

// ToDiagnostic converts the error into a shared diagnostic.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: diag.SeverityError,
		Code:     e.Code,
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

// reportError records a recoverable diagnostic without aborting parsing.
func (p *Parser) reportError(code diag.Code, msg string, span lexer.Span) {
	if span.Filename == "" && p.filename != "" {
		span.Filename = p.filename
	}
	p.errors = append(p.errors, ParseError{Message: msg, Code: code, Span: span})
}

// reportUnexpected reports at the current token; format receives its
// description.
func (p *Parser) reportUnexpected(code diag.Code, format string) {
	p.reportError(code, fmt.Sprintf(format, describe(p.curTok)), p.curTok.Span)
}

// expect consumes tt, skipping unexpected tokens first when that reaches it.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if !p.recoverTo(tt) {
		return false
	}
	p.bump()
	return true
}

// recoverTo makes tt the current token. Tokens that cannot start anything
// useful are wrapped in an Error node on the way. It reports false, after a
// diagnostic, when a synchronizing token comes first.
func (p *Parser) recoverTo(tt lexer.TokenType) bool {
	if p.at(tt) {
		return true
	}
	if isSync(p.curTok.Type) {
		p.reportUnexpected(diag.CodeParseExpectedToken, "expected "+tokenName(tt)+", found %s")
		return false
	}

	first := p.curTok
	p.builder.StartNode(syntax.Error)
	for !p.at(tt) && !isSync(p.curTok.Type) {
		p.bump()
	}
	p.builder.FinishNode()

	if p.at(tt) {
		p.reportError(diag.CodeParseUnexpectedToken,
			fmt.Sprintf("unexpected %s before %s", describe(first), tokenName(tt)), first.Span)
		return true
	}
	p.reportError(diag.CodeParseExpectedToken,
		fmt.Sprintf("expected %s, found %s", tokenName(tt), describe(first)), first.Span)
	return false
}

// skipUntil wraps tokens in an Error node until one of stops is reached
// outside of any nested braces.
func (p *Parser) skipUntil(stops ...lexer.TokenType) {
	if p.at(stops...) || p.at(lexer.EOF) || isItemStart(p.curTok.Type) {
		return
	}
	p.builder.StartNode(syntax.Error)
	depth := 0
	for !p.at(lexer.EOF) && !isItemStart(p.curTok.Type) {
		if depth == 0 && p.at(stops...) {
			break
		}
		switch p.curTok.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
		}
		p.bump()
	}
	p.builder.FinishNode()
}

func isSync(tt lexer.TokenType) bool {
	switch tt {
	case lexer.EOF, lexer.RBRACE, lexer.RPAREN, lexer.RBRACKET, lexer.SEMICOLON:
		return true
	default:
		return isItemStart(tt)
	}
}

func tokenName(tt lexer.TokenType) string {
	switch {
	case tt == lexer.IDENT:
		return "a name"
	case tt == lexer.NUMBER:
		return "a number"
	case tt == lexer.EOF:
		return "end of file"
	case tt.IsKeyword():
		return "`" + strings.ToLower(string(tt)) + "`"
	default:
		return "`" + string(tt) + "`"
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of file"
	case lexer.IDENT:
		return "name `" + tok.Text + "`"
	case lexer.NUMBER:
		return "number `" + tok.Text + "`"
	default:
		if tok.Type.IsKeyword() {
			return "keyword `" + tok.Text + "`"
		}
		return "`" + tok.Text + "`"
	}
}
