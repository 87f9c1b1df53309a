// Package parser turns source text into a lossless syntax tree. Every byte
// of the input, trivia included, ends up in the tree; syntax errors are
// reported and wrapped in Error nodes so parsing always reaches the end.
package parser

import (
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/syntax"
)

// prefixParseFn parses an expression starting at the current token. cp marks
// the start of the expression so postfix forms can wrap it. It reports
// whether the expression is block-like.
type prefixParseFn func(cp syntax.Checkpoint) bool

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

type bindingPower struct {
	left  int
	right int
}

const prefixBindingPower = 13

var infixBindingPowers = map[lexer.TokenType]bindingPower{
	lexer.ASSIGN:          {2, 1},
	lexer.PLUS_ASSIGN:     {2, 1},
	lexer.MINUS_ASSIGN:    {2, 1},
	lexer.ASTERISK_ASSIGN: {2, 1},
	lexer.SLASH_ASSIGN:    {2, 1},
	lexer.OR:              {3, 4},
	lexer.AND:             {5, 6},
	lexer.EQ:              {7, 8},
	lexer.NOT_EQ:          {7, 8},
	lexer.LT:              {7, 8},
	lexer.LE:              {7, 8},
	lexer.GT:              {7, 8},
	lexer.GE:              {7, 8},
	lexer.PLUS:            {9, 10},
	lexer.MINUS:           {9, 10},
	lexer.ASTERISK:        {11, 12},
	lexer.SLASH:           {11, 12},
	lexer.DOT:             {15, 16},
	lexer.LBRACKET:        {15, 16},
	lexer.LPAREN:          {15, 16},
}

// Parser implements a Pratt-style recursive descent parser that feeds a
// syntax.Builder.
//   - curTok is the only lookahead; bump moves it into the tree and pulls the
//     next token from the lexer. Nothing is ever dropped.
//   - consumed counts bumped tokens so loops can detect lack of progress.
//   - noStruct disables struct literals in `if`/`while` conditions, where
//     `name {` opens the body instead.
type Parser struct {
	lx     *lexer.Lexer
	curTok lexer.Token

	builder  *syntax.Builder
	errors   []ParseError
	filename string
	consumed int
	noStruct bool

	prefixFns map[lexer.TokenType]prefixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:        lexer.NewWithFilename(input, cfg.filename),
		builder:   syntax.NewBuilder(),
		filename:  cfg.filename,
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentOrStruct)
	p.registerPrefix(lexer.NUMBER, p.parseNumber)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseParenExpr)
	p.registerPrefix(lexer.LBRACKET, p.parseResourceAccess)
	p.registerPrefix(lexer.LBRACE, p.parseBlockExpr)
	p.registerPrefix(lexer.QUERY, p.parseQueryExpr)
	p.registerPrefix(lexer.IF, p.parseIfExpr)
	p.registerPrefix(lexer.WHILE, p.parseWhileExpr)
	p.registerPrefix(lexer.LET, p.parseLetExpr)
	p.registerPrefix(lexer.DEL, p.parseDelExpr)

	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tt] = fn
}

// Parse is a convenience wrapper returning the tree and every lexer and
// parser diagnostic.
func Parse(input string, opts ...Option) (*syntax.Node, diag.List) {
	p := New(input, opts...)
	root := p.ParseFile()
	return root, p.Diagnostics()
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	return p.errors
}

// Diagnostics returns lexer errors followed by parse errors.
func (p *Parser) Diagnostics() diag.List {
	var out diag.List
	for _, err := range p.lx.Errors {
		out = append(out, err.ToDiagnostic())
	}
	for _, err := range p.errors {
		out = append(out, err.ToDiagnostic())
	}
	return out
}

// ParseFile parses a full compilation unit.
func (p *Parser) ParseFile() *syntax.Node {
	p.builder.StartNode(syntax.Root)
	p.eatTrivia()
	for p.curTok.Type != lexer.EOF {
		p.parseItem()
		p.eatTrivia()
	}
	p.builder.FinishNode()
	return p.builder.Finish()
}

// nextToken pulls the next token from the lexer into curTok.
func (p *Parser) nextToken() {
	p.curTok = p.lx.NextToken()
}

// bump moves curTok into the open node. EOF is never added.
func (p *Parser) bump() {
	if p.curTok.Type == lexer.EOF {
		return
	}
	p.builder.Token(p.curTok)
	p.consumed++
	p.nextToken()
}

func (p *Parser) eatTrivia() {
	for p.curTok.Type.IsTrivia() {
		p.bump()
	}
}

func (p *Parser) at(types ...lexer.TokenType) bool {
	for _, tt := range types {
		if p.curTok.Type == tt {
			return true
		}
	}
	return false
}

// leaf wraps the current token alone in a node.
func (p *Parser) leaf(kind syntax.Kind) {
	p.builder.StartNode(kind)
	p.bump()
	p.builder.FinishNode()
}

// node opens kind, takes the current token and trailing trivia, runs body
// and closes the node.
func (p *Parser) node(kind syntax.Kind, body func()) {
	p.builder.StartNode(kind)
	p.bump()
	p.eatTrivia()
	body()
	p.builder.FinishNode()
}

// wrapAt is node for postfix and infix forms: the new node adopts everything
// since cp.
func (p *Parser) wrapAt(cp syntax.Checkpoint, kind syntax.Kind, body func()) {
	p.builder.StartNodeAt(cp, kind)
	p.bump()
	p.eatTrivia()
	body()
	p.builder.FinishNode()
}

func (p *Parser) withStructs(fn func()) {
	saved := p.noStruct
	p.noStruct = false
	fn()
	p.noStruct = saved
}

func isItemStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.COMP, lexer.RES, lexer.SYS, lexer.USE:
		return true
	default:
		return false
	}
}

func (p *Parser) parseItem() {
	switch p.curTok.Type {
	case lexer.COMP:
		p.node(syntax.Component, p.parseFieldDef)
	case lexer.RES:
		p.node(syntax.Resource, p.parseFieldDef)
	case lexer.SYS:
		p.node(syntax.System, p.parseSystem)
	case lexer.USE:
		p.node(syntax.Import, func() { p.expect(lexer.IDENT) })
	default:
		p.reportUnexpected(diag.CodeParseExpectedItem, "expected `comp`, `res`, `sys` or `use`, found %s")
		p.leaf(syntax.Error)
	}
}

func (p *Parser) parseSystem() {
	if p.at(lexer.IDENT) {
		p.bump()
		p.eatTrivia()
	}
	if p.recoverTo(lexer.LBRACE) {
		p.parseBlock()
	}
}

// parseFieldDef parses `name [: type]`.
func (p *Parser) parseFieldDef() {
	if !p.at(lexer.IDENT) {
		p.reportUnexpected(diag.CodeParseExpectedToken, "expected a name, found %s")
		return
	}
	p.node(syntax.FieldType, func() {
		if !p.at(lexer.COLON) {
			return
		}
		p.bump()
		p.eatTrivia()
		p.parseType()
	})
}

func (p *Parser) parseType() {
	switch p.curTok.Type {
	case lexer.IDENT:
		p.leaf(syntax.Literal)
	case lexer.LBRACE:
		p.node(syntax.StructType, func() {
			for !p.at(lexer.RBRACE, lexer.EOF) {
				p.parseFieldDef()
				p.eatTrivia()
				if !p.at(lexer.COMMA) {
					break
				}
				p.bump()
				p.eatTrivia()
			}
			p.expect(lexer.RBRACE)
		})
	default:
		p.reportUnexpected(diag.CodeParseExpectedToken, "expected a type, found %s")
	}
}
