package parser

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/mistql/mistql-go/pkg/types"
)

// parser is a hand-written recursive-descent parser for MistQL. Each parse*
// method corresponds to one precedence tier from spec §4.1, from lowest
// (pipe) to highest (primary); lowering (§4.2) happens inline as each node
// is built rather than as a separate pass, since nothing in the grammar
// needs the raw, un-lowered tree after a node is constructed.
type parser struct {
	lexer   *Lexer
	current Token
	arena   *types.NodeArena
}

func newParser(input string) *parser {
	p := &parser{lexer: NewLexer(input), arena: types.NewNodeArena()}
	p.advance()
	return p
}

func (p *parser) advance() {
	p.current = p.lexer.Next()
}

func (p *parser) parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	if p.current.Type == TokenEOF {
		return nil, types.SyntaxErrorf("empty query")
	}

	node, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, types.SyntaxErrorf("unexpected token %q", p.current.Value).WithPosition(p.current.Position)
	}
	return types.NewExpression(node, p.lexer.input, p.arena), nil
}

// parsePipe: e | e | ... (lowest precedence, right-nesting only at the top
// level per §4.2 — operands of `|` are never pipes themselves without
// parentheses, which parseOr and below already guarantee by construction).
func (p *parser) parsePipe() (*types.ASTNode, error) {
	first, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenPipe {
		return first, nil
	}

	stages := []*types.ASTNode{first}
	pos := p.current.Position
	for p.current.Type == TokenPipe {
		p.advance()
		stage, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	n := p.arena.Alloc(types.NodePipe, pos)
	n.Stages = stages
	return n, nil
}

func (p *parser) parseOr() (*types.ASTNode, error) {
	return p.parseBinaryLeft(p.parseAnd, map[TokenType]string{TokenOr: "||"})
}

func (p *parser) parseAnd() (*types.ASTNode, error) {
	return p.parseBinaryLeft(p.parseEqMatch, map[TokenType]string{TokenAnd: "&&"})
}

func (p *parser) parseEqMatch() (*types.ASTNode, error) {
	return p.parseBinaryLeft(p.parseRelational, map[TokenType]string{
		TokenEqual:    "==",
		TokenNotEqual: "!=",
		TokenMatch:    "=~",
	})
}

func (p *parser) parseRelational() (*types.ASTNode, error) {
	return p.parseBinaryLeft(p.parseAdditive, map[TokenType]string{
		TokenLess:         "<",
		TokenLessEqual:    "<=",
		TokenGreater:      ">",
		TokenGreaterEqual: ">=",
	})
}

func (p *parser) parseAdditive() (*types.ASTNode, error) {
	return p.parseBinaryLeft(p.parseMultiplicative, map[TokenType]string{
		TokenPlus:  "+",
		TokenMinus: "-",
	})
}

func (p *parser) parseMultiplicative() (*types.ASTNode, error) {
	return p.parseBinaryLeft(p.parseUnary, map[TokenType]string{
		TokenMult: "*",
		TokenDiv:  "/",
		TokenMod:  "%",
	})
}

// parseBinaryLeft implements one left-associative precedence tier: parse a
// higher-precedence operand, then fold in zero or more `op operand` pairs
// whose token is named in ops. Every fold lowers to a Fncall whose head is
// an absolute operator Ref (§4.2), so no user binding can ever shadow it.
func (p *parser) parseBinaryLeft(next func() (*types.ASTNode, error), ops map[TokenType]string) (*types.ASTNode, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		name, ok := ops[p.current.Type]
		if !ok {
			return left, nil
		}
		pos := p.current.Position
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = p.fncall(p.operatorRef(name, pos), []*types.ASTNode{left, right}, pos)
	}
}

// parseUnary: !, - prefix, binding tighter than every binary operator.
func (p *parser) parseUnary() (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenNot:
		pos := p.current.Position
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.fncall(p.operatorRef("!/unary", pos), []*types.ASTNode{operand}, pos), nil
	case TokenMinus:
		pos := p.current.Position
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.fncall(p.operatorRef("-/unary", pos), []*types.ASTNode{operand}, pos), nil
	default:
		return p.parseCall()
	}
}

// parseCall implements juxtaposition: `f a b c`. The head and every
// argument are parsed one notch below call precedence (parseCallOperand,
// which does not itself recurse into parseCall) so that `f a b` collects
// two sibling arguments instead of nesting as `f (a (b))`, and so that
// `f a + b` parses as `(f a) + b`: the loop here stops as soon as the next
// token is not whitespace-separated from a value that can start an operand.
func (p *parser) parseCall() (*types.ASTNode, error) {
	head, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	var args []*types.ASTNode
	for p.current.PrecededByWhitespace && canStartOperand(p.current.Type) {
		arg, err := p.parseCallOperand()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return head, nil
	}
	return p.fncall(head, args, head.Position), nil
}

// parseCallOperand parses one juxtaposition argument: unary prefix over a
// postfix chain, deliberately not re-entering parseCall so arguments stay
// siblings rather than nesting.
func (p *parser) parseCallOperand() (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenNot:
		pos := p.current.Position
		p.advance()
		operand, err := p.parseCallOperand()
		if err != nil {
			return nil, err
		}
		return p.fncall(p.operatorRef("!/unary", pos), []*types.ASTNode{operand}, pos), nil
	case TokenMinus:
		pos := p.current.Position
		p.advance()
		operand, err := p.parseCallOperand()
		if err != nil {
			return nil, err
		}
		return p.fncall(p.operatorRef("-/unary", pos), []*types.ASTNode{operand}, pos), nil
	default:
		return p.parsePostfix()
	}
}

// canStartOperand reports whether tt can begin a juxtaposition argument.
func canStartOperand(tt TokenType) bool {
	switch tt {
	case TokenString, TokenNumber, TokenBoolean, TokenNull,
		TokenName, TokenAt, TokenDollar,
		TokenBracketOpen, TokenBraceOpen, TokenParenOpen,
		TokenNot, TokenMinus:
		return true
	default:
		return false
	}
}

// parsePostfix: e.name and e[...] / e[a:b], left-associative, binding
// tighter than juxtaposition and every binary operator.
func (p *parser) parsePostfix() (*types.ASTNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current.Type {
		case TokenDot:
			pos := p.current.Position
			p.advance()
			if p.current.Type != TokenName {
				return nil, types.SyntaxErrorf("expected field name after '.', got %q", p.current.Value).WithPosition(p.current.Position)
			}
			name := p.current.Value
			namePos := p.current.Position
			p.advance()
			nameRef := p.arena.Alloc(types.NodeRef, namePos)
			nameRef.Name = name
			node = p.fncall(p.operatorRef(".", pos), []*types.ASTNode{node, nameRef}, pos)
		case TokenBracketOpen:
			pos := p.current.Position
			p.advance()
			indexNode, err := p.parseIndexOrSlice(node, pos)
			if err != nil {
				return nil, err
			}
			node = indexNode
		default:
			return node, nil
		}
	}
}

// parseIndexOrSlice parses the contents of `[...]` immediately following
// receiver. Two forms: `[e]` (index) and `[a:b]`/`[a:]`/`[:b]`/`[:]`
// (slice); missing slice bounds lower to an explicit Value-Null argument
// per §4.1.
func (p *parser) parseIndexOrSlice(receiver *types.ASTNode, pos int) (*types.ASTNode, error) {
	var parts []*types.ASTNode
	sawColon := false

	readPart := func() (*types.ASTNode, error) {
		if p.current.Type == TokenColon || p.current.Type == TokenBracketClose {
			return p.nullValue(p.current.Position), nil
		}
		return p.parsePipe()
	}

	first, err := readPart()
	if err != nil {
		return nil, err
	}
	parts = append(parts, first)

	for p.current.Type == TokenColon {
		sawColon = true
		p.advance()
		part, err := readPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	if p.current.Type != TokenBracketClose {
		return nil, types.SyntaxErrorf("expected ']', got %q", p.current.Value).WithPosition(p.current.Position)
	}
	p.advance()

	if !sawColon {
		// 2-arg form: index i x
		return p.fncall(p.operatorRef("index", pos), []*types.ASTNode{parts[0], receiver}, pos), nil
	}
	// 3+-arg slice form: index a b ... x
	args := append(append([]*types.ASTNode{}, parts...), receiver)
	return p.fncall(p.operatorRef("index", pos), args, pos), nil
}

// parsePrimary: literals, references, array/object constructors, grouping.
func (p *parser) parsePrimary() (*types.ASTNode, error) {
	tok := p.current
	switch tok.Type {
	case TokenNumber:
		p.advance()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, types.SyntaxErrorf("invalid number %q", tok.Value).WithPosition(tok.Position)
		}
		return p.value(types.Number(f), tok.Position), nil
	case TokenString:
		p.advance()
		s, err := unquoteJSONString(tok.Value)
		if err != nil {
			return nil, types.SyntaxErrorf("invalid string literal: %s", err).WithPosition(tok.Position)
		}
		return p.value(types.String(s), tok.Position), nil
	case TokenBoolean:
		p.advance()
		return p.value(types.Bool(tok.Value == "true"), tok.Position), nil
	case TokenNull:
		p.advance()
		return p.nullValue(tok.Position), nil
	case TokenAt:
		p.advance()
		return p.ref("@", false, tok.Position), nil
	case TokenDollar:
		p.advance()
		return p.ref("$", false, tok.Position), nil
	case TokenName:
		p.advance()
		return p.ref(tok.Value, false, tok.Position), nil
	case TokenParenOpen:
		p.advance()
		inner, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenParenClose {
			return nil, types.SyntaxErrorf("expected ')', got %q", p.current.Value).WithPosition(p.current.Position)
		}
		p.advance()
		return inner, nil
	case TokenBracketOpen:
		return p.parseArrayLiteral()
	case TokenBraceOpen:
		return p.parseObjectLiteral()
	default:
		return nil, types.SyntaxErrorf("unexpected token %q", tok.Value).WithPosition(tok.Position)
	}
}

func (p *parser) parseArrayLiteral() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // consume [

	var items []*types.ASTNode
	for p.current.Type != TokenBracketClose {
		item, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if p.current.Type != TokenBracketClose {
		return nil, types.SyntaxErrorf("expected ']', got %q", p.current.Value).WithPosition(p.current.Position)
	}
	p.advance()

	n := p.arena.Alloc(types.NodeArray, pos)
	n.Items = items
	return n, nil
}

func (p *parser) parseObjectLiteral() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // consume {

	keyIndex := map[string]int{}
	var keys []string
	var vals []*types.ASTNode

	for p.current.Type != TokenBraceClose {
		var key string
		switch p.current.Type {
		case TokenName, TokenBoolean, TokenNull:
			key = p.current.Value
			p.advance()
		case TokenString:
			s, err := unquoteJSONString(p.current.Value)
			if err != nil {
				return nil, types.SyntaxErrorf("invalid object key: %s", err).WithPosition(p.current.Position)
			}
			key = s
			p.advance()
		default:
			return nil, types.SyntaxErrorf("expected object key, got %q", p.current.Value).WithPosition(p.current.Position)
		}

		if p.current.Type != TokenColon {
			return nil, types.SyntaxErrorf("expected ':' after object key, got %q", p.current.Value).WithPosition(p.current.Position)
		}
		p.advance()

		val, err := p.parsePipe()
		if err != nil {
			return nil, err
		}

		// Duplicate keys keep the last occurrence (§4.1).
		if idx, dup := keyIndex[key]; dup {
			vals[idx] = val
		} else {
			keyIndex[key] = len(keys)
			keys = append(keys, key)
			vals = append(vals, val)
		}

		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if p.current.Type != TokenBraceClose {
		return nil, types.SyntaxErrorf("expected '}', got %q", p.current.Value).WithPosition(p.current.Position)
	}
	p.advance()

	n := p.arena.Alloc(types.NodeObject, pos)
	n.Keys = keys
	n.Vals = vals
	return n, nil
}

// Node construction helpers, all arena-backed.

func (p *parser) value(v types.Value, pos int) *types.ASTNode {
	n := p.arena.Alloc(types.NodeValue, pos)
	n.Val = v
	return n
}

func (p *parser) nullValue(pos int) *types.ASTNode {
	return p.value(types.Null, pos)
}

func (p *parser) ref(name string, absolute bool, pos int) *types.ASTNode {
	n := p.arena.Alloc(types.NodeRef, pos)
	n.Name = name
	n.Absolute = absolute
	return n
}

func (p *parser) operatorRef(name string, pos int) *types.ASTNode {
	return p.ref(name, true, pos)
}

func (p *parser) fncall(head *types.ASTNode, args []*types.ASTNode, pos int) *types.ASTNode {
	n := p.arena.Alloc(types.NodeFncall, pos)
	n.Head = head
	n.Args = args
	return n
}

// unquoteJSONString decodes the content of a double-quoted JSON string
// token (quotes already stripped by the lexer) using JSON escape rules,
// with \uXXXX surrogate pair handling for characters outside the BMP.
func unquoteJSONString(raw string) (string, error) {
	var sb strings.Builder
	s := raw
	for len(s) > 0 {
		r := s[0]
		if r != '\\' {
			n := 1
			for n < len(s) && s[n]&0xC0 == 0x80 {
				n++
			}
			sb.WriteString(s[:n])
			s = s[n:]
			continue
		}
		if len(s) < 2 {
			return "", errUnterminatedEscape
		}
		switch s[1] {
		case '"':
			sb.WriteByte('"')
			s = s[2:]
		case '\\':
			sb.WriteByte('\\')
			s = s[2:]
		case '/':
			sb.WriteByte('/')
			s = s[2:]
		case 'b':
			sb.WriteByte('\b')
			s = s[2:]
		case 'f':
			sb.WriteByte('\f')
			s = s[2:]
		case 'n':
			sb.WriteByte('\n')
			s = s[2:]
		case 'r':
			sb.WriteByte('\r')
			s = s[2:]
		case 't':
			sb.WriteByte('\t')
			s = s[2:]
		case 'u':
			if len(s) < 6 {
				return "", errUnterminatedEscape
			}
			cp, err := strconv.ParseUint(s[2:6], 16, 32)
			if err != nil {
				return "", err
			}
			r1 := rune(cp)
			s = s[6:]
			if utf16.IsSurrogate(r1) && len(s) >= 6 && s[0] == '\\' && s[1] == 'u' {
				cp2, err := strconv.ParseUint(s[2:6], 16, 32)
				if err == nil {
					if combined := utf16.DecodeRune(r1, rune(cp2)); combined != 0xFFFD {
						sb.WriteRune(combined)
						s = s[6:]
						continue
					}
				}
			}
			sb.WriteRune(r1)
		default:
			return "", errInvalidEscape
		}
	}
	return sb.String(), nil
}

var (
	errUnterminatedEscape = types.SyntaxErrorf("unterminated escape sequence")
	errInvalidEscape      = types.SyntaxErrorf("invalid escape sequence")
)
