package sexy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeList
	NodeMap
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeList:
		return "list"
	case NodeMap:
		return "map"
	default:
		return fmt.Sprintf("node(%d)", int(t))
	}
}

// Pos is a 1-based line and column in the parsed input.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node represents any Sexy datum.
type Node struct {
	Type NodeType
	Pos  Pos

	// Atoms: NodeSymbol, NodeString, NodeInteger
	Text    string
	Integer int64 // NodeInteger only

	// Collections
	Items []*Node  // NodeList, NodeMap
	Keys  []string // NodeMap - parallel to Items

	// Metadata for NodeList, written as ^{key: value} anywhere inside the list
	MetaKeys  []string
	MetaItems []*Node
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol:
		return n.Text
	case NodeString:
		return strconv.Quote(n.Text)
	case NodeInteger:
		return n.Text
	case NodeList:
		var parts []string
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		if len(n.MetaKeys) > 0 {
			parts = append(parts, "^"+mapString(n.MetaKeys, n.MetaItems))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeMap:
		return mapString(n.Keys, n.Items)
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

func mapString(keys []string, items []*Node) string {
	var parts []string
	for i, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, items[i].String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(value int64) *Node {
	return &Node{Type: NodeInteger, Text: strconv.FormatInt(value, 10), Integer: value}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// WithMeta adds a metadata entry to a list node and returns the node for chaining.
func (n *Node) WithMeta(key string, value *Node) *Node {
	for i, k := range n.MetaKeys {
		if k == key {
			n.MetaItems[i] = value
			return n
		}
	}
	n.MetaKeys = append(n.MetaKeys, key)
	n.MetaItems = append(n.MetaItems, value)
	return n
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger
}

// IsSymbol reports whether n is the symbol name.
func (n *Node) IsSymbol(name string) bool {
	return n != nil && n.Type == NodeSymbol && n.Text == name
}

// Head returns the leading symbol of a list, or "" if n is not a list headed
// by a symbol.
func (n *Node) Head() string {
	if n == nil || n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Meta returns the metadata value stored under key, or nil.
func (n *Node) Meta(key string) *Node {
	for i, k := range n.MetaKeys {
		if k == key {
			return n.MetaItems[i]
		}
	}
	return nil
}

// SyntaxError is returned by Parse for malformed input.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

type parser struct {
	lexer        *lexer
	currentToken token
	peekToken    token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()
	p.nextToken()

	result, err := p.parseDatum()
	if p.lexer.err != nil {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, p.lexer.err
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, p.errorf("expected EOF but got %s", p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.nextToken()
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.currentToken.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.currentToken
	switch tok.Type {
	case tokenSymbol:
		p.nextToken()
		return &Node{Type: NodeSymbol, Text: tok.Value, Pos: tok.Pos}, nil
	case tokenString:
		p.nextToken()
		return &Node{Type: NodeString, Text: tok.Value, Pos: tok.Pos}, nil
	case tokenInteger:
		value, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer %s", tok.Value)
		}
		p.nextToken()
		return &Node{Type: NodeInteger, Text: tok.Value, Integer: value, Pos: tok.Pos}, nil
	case tokenLParen:
		return p.parseList()
	case tokenLBrace:
		return p.parseMap()
	default:
		return nil, p.errorf("unexpected token: %s", tok.Type)
	}
}

func (p *parser) parseList() (*Node, error) {
	list := &Node{Type: NodeList, Pos: p.currentToken.Pos}
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type == tokenCaret {
			p.nextToken() // consume '^'
			if p.currentToken.Type != tokenLBrace {
				return nil, p.errorf("expected '{' after '^' but got %s", p.currentToken.Type)
			}
			meta, err := p.parseMap()
			if err != nil {
				return nil, err
			}
			// Later values win.
			for i, key := range meta.Keys {
				list.WithMeta(key, meta.Items[i])
			}
			continue
		}

		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, p.errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'
	return list, nil
}

func (p *parser) parseMap() (*Node, error) {
	m := &Node{Type: NodeMap, Pos: p.currentToken.Pos}
	p.nextToken() // consume '{'

	for p.currentToken.Type != tokenRBrace && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenSymbol {
			return nil, p.errorf("expected symbol for map key but got %s", p.currentToken.Type)
		}
		key := p.currentToken.Value
		p.nextToken()

		if p.currentToken.Type != tokenColon {
			return nil, p.errorf("expected ':' after map key but got %s", p.currentToken.Type)
		}
		p.nextToken()

		value, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Items = append(m.Items, value)

		if p.currentToken.Type == tokenComma {
			p.nextToken()
		} else if p.currentToken.Type != tokenRBrace {
			return nil, p.errorf("expected ',' or '}' in map but got %s", p.currentToken.Type)
		}
	}

	if p.currentToken.Type != tokenRBrace {
		return nil, p.errorf("expected '}' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume '}'
	return m, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenComma
	tokenCaret
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenColon:
		return "':'"
	case tokenComma:
		return "','"
	case tokenCaret:
		return "'^'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Pos   Pos
}

type lexer struct {
	input    []rune
	position int
	current  rune
	line     int
	col      int
	err      error
}

func newLexer(input string) *lexer {
	l := &lexer{input: []rune(input), line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
		l.col = 0
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = l.input[l.position]
	}
	l.position++
	l.col++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

func (l *lexer) fail(pos Pos, format string, args ...any) token {
	if l.err == nil {
		l.err = &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
	return token{Type: tokenEOF, Pos: pos}
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	var sb strings.Builder
	for isSymbolChar(l.current) {
		sb.WriteRune(l.current)
		l.readChar()
	}
	return sb.String()
}

func (l *lexer) readString() (string, error) {
	var sb strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current)
			}
		} else {
			sb.WriteRune(l.current)
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("unterminated string")
	}
	l.readChar() // skip closing quote
	return sb.String(), nil
}

func (l *lexer) readInteger() string {
	var sb strings.Builder
	if l.current == '+' || l.current == '-' {
		sb.WriteRune(l.current)
		l.readChar()
	}
	for unicode.IsDigit(l.current) {
		sb.WriteRune(l.current)
		l.readChar()
	}
	return sb.String()
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()
		pos := Pos{Line: l.line, Col: l.col}

		single := func(t tokenType) token {
			value := string(l.current)
			l.readChar()
			return token{Type: t, Value: value, Pos: pos}
		}

		switch c := l.current; {
		case c == 0:
			return token{Type: tokenEOF, Pos: pos}
		case c == ';':
			l.skipComment()
			continue
		case c == '(':
			return single(tokenLParen)
		case c == ')':
			return single(tokenRParen)
		case c == '{':
			return single(tokenLBrace)
		case c == '}':
			return single(tokenRBrace)
		case c == ':':
			return single(tokenColon)
		case c == ',':
			return single(tokenComma)
		case c == '^':
			return single(tokenCaret)
		case c == '"':
			str, err := l.readString()
			if err != nil {
				return l.fail(pos, "%v", err)
			}
			return token{Type: tokenString, Value: str, Pos: pos}
		case unicode.IsDigit(c) || ((c == '+' || c == '-') && unicode.IsDigit(l.peekChar())):
			return token{Type: tokenInteger, Value: l.readInteger(), Pos: pos}
		case isSymbolChar(c):
			// Operators such as + and <= are plain symbols.
			return token{Type: tokenSymbol, Value: l.readSymbol(), Pos: pos}
		default:
			return l.fail(pos, "unexpected character '%c'", c)
		}
	}
}

func isSymbolChar(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("-_+*/%<>=!&|.$", r)
}
