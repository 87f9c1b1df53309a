package parser

import (
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/syntax"
)

func (p *Parser) parseExpr() bool {
	return p.parseExprBP(0, false)
}

// parseExprBP is the Pratt loop. In statement position a block-like
// expression ends the statement, so `if c {} [A] = 1` is two statements.
func (p *Parser) parseExprBP(minBP int, stmt bool) bool {
	cp := p.builder.Checkpoint()

	prefix, ok := p.prefixFns[p.curTok.Type]
	if !ok {
		p.noPrefix()
		return false
	}
	blockLike := prefix(cp)
	if blockLike && stmt {
		return true
	}

	for {
		p.eatTrivia()
		bp, ok := infixBindingPowers[p.curTok.Type]
		if !ok || bp.left < minBP {
			return blockLike
		}
		blockLike = false

		switch p.curTok.Type {
		case lexer.LBRACKET:
			p.wrapAt(cp, syntax.ComponentAccess, p.parseBracketed(lexer.RBRACKET))
		case lexer.LPAREN:
			p.wrapAt(cp, syntax.Call, p.parseCallArgs)
		default:
			right := bp.right
			p.wrapAt(cp, syntax.Infix, func() { p.parseExprBP(right, false) })
		}
	}
}

func (p *Parser) noPrefix() {
	if isExprStop(p.curTok.Type) {
		p.reportUnexpected(diag.CodeParseExpectedExpr, "expected an expression, found %s")
		return
	}
	p.reportUnexpected(diag.CodeParseUnexpectedToken, "unexpected %s in expression")
	p.leaf(syntax.Error)
}

func isExprStop(tt lexer.TokenType) bool {
	switch tt {
	case lexer.EOF, lexer.RBRACE, lexer.RPAREN, lexer.RBRACKET, lexer.SEMICOLON, lexer.COMMA:
		return true
	default:
		return isItemStart(tt)
	}
}

func (p *Parser) parseNumber(syntax.Checkpoint) bool {
	p.leaf(syntax.Literal)
	return false
}

// parseIdentOrStruct parses a name, or a struct literal when the name is
// followed by `{`.
func (p *Parser) parseIdentOrStruct(cp syntax.Checkpoint) bool {
	p.leaf(syntax.Literal)
	if p.noStruct {
		return false
	}
	p.eatTrivia()
	if p.at(lexer.LBRACE) {
		p.wrapAt(cp, syntax.Struct, p.parseStructLiteralFields)
	}
	return false
}

func (p *Parser) parseStructLiteralFields() {
	p.withStructs(func() {
		for !p.at(lexer.RBRACE, lexer.EOF) {
			if !p.expect(lexer.IDENT) {
				break
			}
			p.eatTrivia()
			if p.expect(lexer.COLON) {
				p.eatTrivia()
				p.parseExpr()
				p.eatTrivia()
			}
			if !p.at(lexer.COMMA) {
				break
			}
			p.bump()
			p.eatTrivia()
		}
	})
	p.expect(lexer.RBRACE)
}

func (p *Parser) parsePrefixExpr(syntax.Checkpoint) bool {
	p.node(syntax.Prefix, func() { p.parseExprBP(prefixBindingPower, false) })
	return false
}

func (p *Parser) parseParenExpr(syntax.Checkpoint) bool {
	p.node(syntax.Paren, p.parseBracketed(lexer.RPAREN))
	return false
}

// parseResourceAccess handles `[` with no primary before it.
func (p *Parser) parseResourceAccess(syntax.Checkpoint) bool {
	p.node(syntax.ResourceAccess, p.parseBracketed(lexer.RBRACKET))
	return false
}

func (p *Parser) parseBracketed(closing lexer.TokenType) func() {
	return func() {
		p.withStructs(func() { p.parseExpr() })
		p.eatTrivia()
		p.expect(closing)
	}
}

func (p *Parser) parseCallArgs() {
	p.withStructs(func() {
		for !p.at(lexer.RPAREN, lexer.EOF) {
			p.parseExpr()
			p.eatTrivia()
			if !p.at(lexer.COMMA) {
				break
			}
			p.bump()
			p.eatTrivia()
		}
	})
	p.expect(lexer.RPAREN)
}

func (p *Parser) parseBlockExpr(syntax.Checkpoint) bool {
	p.parseBlock()
	return true
}

// parseBlock parses `{ expr (; expr)* [;] }`. Block-like statements may omit
// the separator.
func (p *Parser) parseBlock() {
	p.node(syntax.Block, func() {
		p.withStructs(func() {
			for !p.at(lexer.RBRACE, lexer.EOF) && !isItemStart(p.curTok.Type) {
				if p.at(lexer.SEMICOLON) {
					p.bump()
					p.eatTrivia()
					continue
				}

				before := p.consumed
				blockLike := p.parseExprBP(0, true)
				p.eatTrivia()

				switch {
				case p.at(lexer.SEMICOLON):
					p.bump()
					p.eatTrivia()
				case p.at(lexer.RBRACE, lexer.EOF), blockLike, isItemStart(p.curTok.Type):
				default:
					if p.consumed != before {
						p.reportUnexpected(diag.CodeParseExpectedToken, "expected `;` or `}`, found %s")
					}
					p.skipUntil(lexer.SEMICOLON, lexer.RBRACE)
				}
			}
		})
		p.expect(lexer.RBRACE)
	})
}

func (p *Parser) parseCondition() {
	saved := p.noStruct
	p.noStruct = true
	p.parseExpr()
	p.noStruct = saved
	p.eatTrivia()
}

func (p *Parser) parseQueryExpr(syntax.Checkpoint) bool {
	p.node(syntax.Query, func() {
		if p.at(lexer.IDENT) {
			p.bump()
			p.eatTrivia()
		}
		if p.recoverTo(lexer.LBRACE) {
			p.parseBlock()
		}
	})
	return true
}

func (p *Parser) parseIfExpr(syntax.Checkpoint) bool {
	p.node(syntax.If, func() {
		p.parseCondition()
		if !p.recoverTo(lexer.LBRACE) {
			return
		}
		p.parseBlock()
		p.eatTrivia()
		if !p.at(lexer.ELSE) {
			return
		}
		p.bump()
		p.eatTrivia()
		if p.at(lexer.IF) {
			p.parseIfExpr(p.builder.Checkpoint())
			return
		}
		if p.recoverTo(lexer.LBRACE) {
			p.parseBlock()
		}
	})
	return true
}

func (p *Parser) parseWhileExpr(syntax.Checkpoint) bool {
	p.node(syntax.While, func() {
		p.parseCondition()
		if p.recoverTo(lexer.LBRACE) {
			p.parseBlock()
		}
	})
	return true
}

// parseLetExpr parses `let lvalue = expr`. The lvalue binds tighter than
// assignment so the `=` is left for the let itself.
func (p *Parser) parseLetExpr(syntax.Checkpoint) bool {
	p.node(syntax.Let, func() {
		p.parseExprBP(infixBindingPowers[lexer.ASSIGN].left+1, false)
		p.eatTrivia()
		if p.expect(lexer.ASSIGN) {
			p.eatTrivia()
			p.parseExpr()
		}
	})
	return false
}

func (p *Parser) parseDelExpr(syntax.Checkpoint) bool {
	p.node(syntax.Del, func() { p.parseExpr() })
	return false
}
