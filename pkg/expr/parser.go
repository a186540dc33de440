package expr

import (
	"fmt"
	"slices"
	"strings"
)

var (
	literalKeywords = map[string]any{
		"true":  true,
		"True":  true,
		"false": false,
		"False": false,
		"null":  nil,
		"None":  nil,
	}

	// Keywords of the grammar (or of the rejected constructs the parser still
	// understands) that can never start an operand.
	reservedKeywords = []string{"and", "or", "not", "in", "is", "if", "else", "for"}

	// Keywords that introduce something no condition may contain.
	forbiddenKeywords = map[string]string{
		"import":   "import",
		"from":     "import",
		"lambda":   "lambda expression",
		"yield":    "yield expression",
		"await":    "await expression",
		"async":    "statement",
		"def":      "definition",
		"class":    "definition",
		"del":      "statement",
		"assert":   "statement",
		"global":   "statement",
		"nonlocal": "statement",
		"pass":     "statement",
		"raise":    "statement",
		"return":   "statement",
		"with":     "statement",
		"while":    "statement",
		"try":      "statement",
		"except":   "statement",
		"finally":  "statement",
		"break":    "statement",
		"continue": "statement",
		"elif":     "statement",
		"as":       "statement",
	}

	assignmentOperators = []string{
		"=", ":=", "+=", "-=", "*=", "/=", "//=", "%=", "@=",
		"&=", "|=", "^=", ">>=", "<<=", "**=",
	}
)

// parser is a recursive-descent parser over a superset of the condition
// grammar. Constructs that are well formed but not allowed are recorded in
// unsupported and parsing continues, so that malformed text is always
// reported as a [*SyntaxError] first. Parsed subtrees of rejected constructs
// are nil and never leave the parser.
type parser struct {
	unsupported *UnsupportedConstructError
	src         string
	tokens      []token
	pos         int
}

// parse converts src into a tree of the closed node set.
func parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Expression: src, Msg: "empty expression"}
	}

	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, tokens: tokens}

	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, p.unexpected(tok)
	}

	if p.unsupported != nil {
		return nil, p.unsupported
	}

	return root, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	i := min(p.pos+offset, len(p.tokens)-1)

	return p.tokens[i]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}

	return tok
}

func (p *parser) isOp(ops ...string) bool {
	tok := p.peek()

	return tok.kind == tokenOperator && slices.Contains(ops, tok.text)
}

func (p *parser) isKeyword(kw string) bool {
	tok := p.peek()

	return tok.kind == tokenName && tok.text == kw
}

func (p *parser) expect(op string) error {
	if !p.isOp(op) {
		return p.unexpected(p.peek())
	}

	p.advance()

	return nil
}

// reject records the first unsupported construct without stopping the parse.
func (p *parser) reject(tok token, construct string) {
	if p.unsupported == nil {
		p.unsupported = &UnsupportedConstructError{Expression: p.src, Offset: tok.pos, Construct: construct}
	}
}

func (p *parser) unexpected(tok token) error {
	if tok.kind == tokenEOF {
		return &SyntaxError{Expression: p.src, Offset: tok.pos, Msg: "unexpected end of expression"}
	}

	return &SyntaxError{Expression: p.src, Offset: tok.pos, Msg: fmt.Sprintf("unexpected %s %q", tok.kind, tok.text)}
}

func (p *parser) parseExpr() (Node, error) {
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isKeyword("if"):
		p.reject(p.advance(), "conditional expression")

		_, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if !p.isKeyword("else") {
			return nil, p.unexpected(p.peek())
		}

		p.advance()

		_, err = p.parseExpr()
		if err != nil {
			return nil, err
		}

	case p.isKeyword("for"):
		err := p.parseComprehension()
		if err != nil {
			return nil, err
		}

	case p.isOp(assignmentOperators...):
		p.reject(p.advance(), "assignment")

		_, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

	default:
		return n, nil
	}

	return nil, nil //nolint:nilnil // Rejected subtree.
}

// parseComprehension skips one or more "for target in iterable [if cond]"
// clauses.
func (p *parser) parseComprehension() error {
	for p.isKeyword("for") {
		p.reject(p.advance(), "comprehension")

		_, err := p.parseBitwise()
		if err != nil {
			return err
		}

		for p.isOp(",") {
			p.advance()

			_, err := p.parseBitwise()
			if err != nil {
				return err
			}
		}

		if !p.isKeyword("in") {
			return p.unexpected(p.peek())
		}

		p.advance()

		_, err = p.parseOr()
		if err != nil {
			return err
		}

		for p.isKeyword("if") {
			p.advance()

			_, err := p.parseOr()
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// parseForbidden skips a construct introduced by one of the
// forbiddenKeywords. Only well-formed constructs are recorded as unsupported;
// anything else is a syntax error.
func (p *parser) parseForbidden(tok token, construct string) error {
	switch tok.text {
	case "elif", "except", "finally", "as":
		return p.unexpected(tok)
	}

	p.reject(p.advance(), construct)

	switch tok.text {
	case "lambda":
		for !p.isOp(":") {
			if p.peek().kind == tokenEOF {
				return p.unexpected(p.peek())
			}

			p.advance()
		}

		p.advance()

		_, err := p.parseExpr()

		return err

	case "import":
		return p.parseImportNames()

	case "from":
		err := p.parseDottedName()
		if err != nil {
			return err
		}

		if !p.isKeyword("import") {
			return p.unexpected(p.peek())
		}

		p.advance()

		if p.isOp("*") {
			p.advance()

			return nil
		}

		return p.parseImportNames()

	case "yield":
		if p.isKeyword("from") {
			p.advance()
		} else if p.atOperandEnd() {
			return nil
		}

		_, err := p.parseExpr()

		return err

	case "await":
		_, err := p.parseFactor()

		return err
	}

	return p.parseStatement(tok)
}

// atOperandEnd reports whether no operand can start at the current token.
func (p *parser) atOperandEnd() bool {
	return p.peek().kind == tokenEOF || p.isOp(")", "]", "}", ",", ":")
}

func (p *parser) parseDottedName() error {
	if p.peek().kind != tokenName {
		return p.unexpected(p.peek())
	}

	p.advance()

	for p.isOp(".") {
		p.advance()

		if p.peek().kind != tokenName {
			return p.unexpected(p.peek())
		}

		p.advance()
	}

	return nil
}

// parseImportNames skips "name [as alias], ...".
func (p *parser) parseImportNames() error {
	for {
		err := p.parseDottedName()
		if err != nil {
			return err
		}

		if p.isKeyword("as") {
			p.advance()

			if p.peek().kind != tokenName {
				return p.unexpected(p.peek())
			}

			p.advance()
		}

		if !p.isOp(",") {
			return nil
		}

		p.advance()
	}
}

// parseStatement skips the rest of a statement. A statement can only make up
// the whole text, and its brackets must balance.
func (p *parser) parseStatement(tok token) error {
	if tok.pos != p.tokens[0].pos {
		return p.unexpected(tok)
	}

	switch tok.text {
	case "pass", "break", "continue", "return", "raise":
	default:
		if p.peek().kind == tokenEOF {
			return p.unexpected(p.peek())
		}
	}

	closers := map[string]string{")": "(", "]": "[", "}": "{"}

	var open []string

	for next := p.peek(); next.kind != tokenEOF; next = p.peek() {
		if next.kind == tokenOperator {
			switch next.text {
			case "(", "[", "{":
				open = append(open, next.text)
			case ")", "]", "}":
				if len(open) == 0 || open[len(open)-1] != closers[next.text] {
					return p.unexpected(next)
				}

				open = open[:len(open)-1]
			}
		}

		p.advance()
	}

	if len(open) > 0 {
		return p.unexpected(p.peek())
	}

	return nil
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBool(OpOr, p.parseAnd)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBool(OpAnd, p.parseNot)
}

func (p *parser) parseBool(op BoolOperator, next func() (Node, error)) (Node, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}

	if !p.isKeyword(op.String()) {
		return first, nil
	}

	operands := []Node{first}
	for p.isKeyword(op.String()) {
		p.advance()

		n, err := next()
		if err != nil {
			return nil, err
		}

		operands = append(operands, n)
	}

	return &BoolOp{Op: op, Operands: operands}, nil
}

func (p *parser) parseNot() (Node, error) {
	if !p.isKeyword("not") {
		return p.parseComparison()
	}

	p.advance()

	n, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	return &Not{Operand: n}, nil
}

type compareToken struct {
	tok        token
	op         CompareOp
	membership bool
	negated    bool
	identity   bool
}

// compareOperator consumes a comparison operator if one is next.
func (p *parser) compareOperator() (compareToken, bool) {
	tok := p.peek()

	if tok.kind == tokenOperator {
		ops := map[string]CompareOp{
			"==": OpEqual,
			"!=": OpNotEqual,
			"<":  OpLess,
			">":  OpGreater,
			"<=": OpLessEqual,
			">=": OpGreaterEqual,
		}
		if op, ok := ops[tok.text]; ok {
			p.advance()

			return compareToken{tok: tok, op: op}, true
		}

		return compareToken{}, false
	}

	if tok.kind != tokenName {
		return compareToken{}, false
	}

	switch tok.text {
	case "in":
		p.advance()

		return compareToken{tok: tok, membership: true}, true

	case "not":
		next := p.peekAt(1)
		if next.kind == tokenName && next.text == "in" {
			p.advance()
			p.advance()

			return compareToken{tok: tok, membership: true, negated: true}, true
		}

	case "is":
		p.advance()
		if p.isKeyword("not") {
			p.advance()
		}

		return compareToken{tok: tok, identity: true}, true
	}

	return compareToken{}, false
}

func (p *parser) parseComparison() (Node, error) {
	starts := []token{p.peek()}

	first, err := p.parseBitwise()
	if err != nil {
		return nil, err
	}

	operands := []Node{first}

	var ops []compareToken

	for {
		ct, ok := p.compareOperator()
		if !ok {
			break
		}

		starts = append(starts, p.peek())

		right, err := p.parseBitwise()
		if err != nil {
			return nil, err
		}

		ops = append(ops, ct)
		operands = append(operands, right)
	}

	if len(ops) == 0 {
		return first, nil
	}

	// Operands are names, literals and sequences, never conditions.
	for i, n := range operands {
		switch n.(type) {
		case *BoolOp, *Not, *Comparison, *Membership:
			p.reject(starts[i], "comparison of a condition")
		}
	}

	// A chain a < b < c is the conjunction of its adjacent pairs.
	pairs := make([]Node, len(ops))
	for i, ct := range ops {
		left, right := operands[i], operands[i+1]

		switch {
		case ct.identity:
			p.reject(ct.tok, "identity comparison")
		case ct.membership:
			pairs[i] = &Membership{Element: left, Container: right, Negated: ct.negated}
		default:
			pairs[i] = &Comparison{Left: left, Op: ct.op, Right: right}
		}
	}

	if len(pairs) == 1 {
		return pairs[0], nil
	}

	return &BoolOp{Op: OpAnd, Operands: pairs}, nil
}

func (p *parser) parseBitwise() (Node, error) {
	return p.parseBinary("bitwise operator", []string{"|", "&", "^", "<<", ">>"}, p.parseArith)
}

func (p *parser) parseArith() (Node, error) {
	return p.parseBinary("arithmetic operator", []string{"+", "-"}, p.parseTerm)
}

func (p *parser) parseTerm() (Node, error) {
	return p.parseBinary("arithmetic operator", []string{"*", "/", "//", "%", "@"}, p.parseFactor)
}

// parseBinary parses a left-associative run of rejected binary operators.
func (p *parser) parseBinary(construct string, ops []string, next func() (Node, error)) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for p.isOp(ops...) {
		p.reject(p.advance(), construct)

		_, err := next()
		if err != nil {
			return nil, err
		}

		left = nil
	}

	return left, nil
}

func (p *parser) parseFactor() (Node, error) {
	if !p.isOp("-", "+", "~") {
		return p.parsePower()
	}

	sign := p.advance()
	operandTok := p.peek()

	n, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	// A sign directly applied to a number is part of the literal.
	lit, ok := n.(*Literal)
	if ok && sign.text != "~" && operandTok.kind == tokenNumber {
		if sign.text == "-" {
			switch v := lit.Value.(type) {
			case int64:
				lit.Value = -v
			case float64:
				lit.Value = -v
			}
		}

		return lit, nil
	}

	p.reject(sign, "unary arithmetic operator")

	return nil, nil //nolint:nilnil // Rejected subtree.
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if !p.isOp("**") {
		return base, nil
	}

	p.reject(p.advance(), "arithmetic operator")

	_, err = p.parseFactor()
	if err != nil {
		return nil, err
	}

	return nil, nil //nolint:nilnil // Rejected subtree.
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		switch {
		case p.isOp("("):
			p.advance()
			p.reject(tok, "function call")

			err := p.parseArguments()
			if err != nil {
				return nil, err
			}

		case p.isOp("."):
			p.advance()
			p.reject(tok, "attribute access")

			if p.peek().kind != tokenName {
				return nil, p.unexpected(p.peek())
			}

			p.advance()

		case p.isOp("["):
			p.advance()
			p.reject(tok, "subscript")

			err := p.parseSubscript()
			if err != nil {
				return nil, err
			}

		default:
			return n, nil
		}

		n = nil
	}
}

// parseArguments skips a call argument list up to and including ")".
func (p *parser) parseArguments() error {
	for !p.isOp(")") {
		if p.isOp("*", "**") {
			p.advance()
		}

		_, err := p.parseExpr()
		if err != nil {
			return err
		}

		if !p.isOp(",") {
			break
		}

		p.advance()
	}

	return p.expect(")")
}

// parseSubscript skips an index or slice up to and including "]".
func (p *parser) parseSubscript() error {
	for !p.isOp("]") {
		if !p.isOp(":", ",") {
			_, err := p.parseExpr()
			if err != nil {
				return err
			}
		}

		for i := 0; i < 2 && p.isOp(":"); i++ {
			p.advance()

			if !p.isOp(":", ",", "]") {
				_, err := p.parseExpr()
				if err != nil {
					return err
				}
			}
		}

		if !p.isOp(",") {
			break
		}

		p.advance()
	}

	return p.expect("]")
}

func (p *parser) parseAtom() (Node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokenNumber:
		p.advance()

		return &Literal{Value: tok.value}, nil

	case tokenString:
		// Adjacent string literals concatenate.
		var sb strings.Builder
		for p.peek().kind == tokenString {
			s, _ := p.advance().value.(string)
			sb.WriteString(s)
		}

		return &Literal{Value: sb.String()}, nil

	case tokenName:
		if v, ok := literalKeywords[tok.text]; ok {
			p.advance()

			return &Literal{Value: v}, nil
		}

		if construct, ok := forbiddenKeywords[tok.text]; ok {
			return nil, p.parseForbidden(tok, construct)
		}

		if slices.Contains(reservedKeywords, tok.text) {
			return nil, p.unexpected(tok)
		}

		p.advance()

		return &Name{Ident: tok.text}, nil

	case tokenOperator:
		switch tok.text {
		case "(":
			return p.parseParen()
		case "[":
			return p.parseList()
		case "{":
			return p.parseBrace()
		}

	case tokenEOF:
	}

	return nil, p.unexpected(tok)
}

func (p *parser) parseParen() (Node, error) {
	p.advance() // "(".

	if p.isOp(")") {
		p.advance()

		return &Sequence{Tuple: true}, nil
	}

	firstTok := p.peek()

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !p.isOp(",") {
		err := p.expect(")")
		if err != nil {
			return nil, err
		}

		return first, nil
	}

	nodes, starts, err := p.parseElements(")", []Node{first}, []token{firstTok})
	if err != nil {
		return nil, err
	}

	return p.sequence(nodes, starts, true), nil
}

func (p *parser) parseList() (Node, error) {
	p.advance() // "[".

	nodes, starts, err := p.parseElements("]", nil, nil)
	if err != nil {
		return nil, err
	}

	return p.sequence(nodes, starts, false), nil
}

// parseElements parses comma-separated elements up to and including closer.
// A trailing comma is allowed.
func (p *parser) parseElements(closer string, nodes []Node, starts []token) ([]Node, []token, error) {
	if len(nodes) > 0 {
		if !p.isOp(",") {
			return nil, nil, p.expect(closer)
		}

		p.advance()
	}

	for !p.isOp(closer) {
		starts = append(starts, p.peek())

		n, err := p.parseExpr()
		if err != nil {
			return nil, nil, err
		}

		nodes = append(nodes, n)

		if !p.isOp(",") {
			break
		}

		p.advance()
	}

	err := p.expect(closer)
	if err != nil {
		return nil, nil, err
	}

	return nodes, starts, nil
}

// sequence builds a [Sequence], rejecting elements that are not literals.
func (p *parser) sequence(nodes []Node, starts []token, tuple bool) Node {
	elems := make([]Literal, 0, len(nodes))

	for i, n := range nodes {
		lit, ok := n.(*Literal)
		if !ok {
			if n != nil {
				p.reject(starts[i], "non-literal sequence element")
			}

			continue
		}

		elems = append(elems, *lit)
	}

	return &Sequence{Elements: elems, Tuple: tuple}
}

func (p *parser) parseBrace() (Node, error) {
	p.reject(p.advance(), "dict or set literal")

	for !p.isOp("}") {
		_, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if p.isOp(":") {
			p.advance()

			_, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
		}

		if !p.isOp(",") {
			break
		}

		p.advance()
	}

	err := p.expect("}")
	if err != nil {
		return nil, err
	}

	return nil, nil //nolint:nilnil // Rejected subtree.
}
