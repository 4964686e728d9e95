package cdl

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/qri-io/ncdiff"
)

// ParseError reports malformed CDL input
type ParseError struct {
	Pos Position
	Msg string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("cdl %s: %s", e.Pos, e.Msg)
}

// Decode reads CDL text from r
func Decode(r io.Reader) (*ncdiff.Group, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading cdl")
	}
	return Parse(string(data))
}

// Parse builds a group tree from the CDL header text printed by
// `ncdump -h` or `ncdump -hs`. the root group is named after the dataset.
// data & types sections are skipped. Chunk sizes from -s output become
// variable chunking, the remaining virtual attributes -s adds are dropped
func Parse(input string) (*ncdiff.Group, error) {
	toks, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.dataset()
}

type parser struct {
	toks []Token
	pos  int
}

// sections are introduced by a keyword & a colon
const (
	sectionDimensions = "dimensions"
	sectionVariables  = "variables"
	sectionTypes      = "types"
	sectionData       = "data"
	sectionGroup      = "group"
)

var sections = map[string]bool{
	sectionDimensions: true,
	sectionVariables:  true,
	sectionTypes:      true,
	sectionData:       true,
	sectionGroup:      true,
}

func (p *parser) dataset() (*ncdiff.Group, error) {
	if err := p.expectIdent("netcdf"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	root := &ncdiff.Group{Name: name.Value}
	if err := p.groupBody(root); err != nil {
		return nil, err
	}
	if tok := p.next(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s after dataset", tok)
	}
	return root, nil
}

// groupBody parses "{ sections... }" into g
func (p *parser) groupBody(g *ncdiff.Group) error {
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}

	section := ""
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenEOF:
			return p.errorf(tok, "unexpected end of input in group %q", g.Name)
		case tok.Type == TokenRBrace:
			p.next()
			return nil
		case p.atSection():
			section = p.next().Value
			p.next() // colon
			if section == sectionGroup {
				child, err := p.subgroup()
				if err != nil {
					return err
				}
				g.Groups = append(g.Groups, child)
				section = ""
			}
			continue
		}

		var err error
		switch section {
		case sectionDimensions:
			err = p.dimensions(g)
		case sectionVariables:
			err = p.variableStatement(g)
		case sectionTypes, sectionData:
			err = p.skipStatement()
		default:
			// global attributes follow variables, but ncdump sometimes
			// prints them on their own
			err = p.variableStatement(g)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) subgroup() (*ncdiff.Group, error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	g := &ncdiff.Group{Name: name.Value}
	return g, p.groupBody(g)
}

// atSection is true when the next tokens are a section keyword & a colon.
// an attribute of a variable that happens to be called "data" looks the same
// up to the colon, but ncdump never puts whitespace after the colon of an
// attribute name
func (p *parser) atSection() bool {
	tok := p.peek()
	if tok.Type != TokenIdent || !sections[tok.Value] || p.peekN(1).Type != TokenColon {
		return false
	}
	after := p.peekN(2)
	return after.Space || after.Type != TokenIdent
}

// dimensions parses "name = 10, time = UNLIMITED ; // (5 currently)"
func (p *parser) dimensions(g *ncdiff.Group) error {
	var dims []ncdiff.DimensionInfo
	for {
		name, err := p.expect(TokenIdent)
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenEq); err != nil {
			return err
		}

		d := ncdiff.DimensionInfo{Name: name.Value}
		size := p.next()
		switch {
		case size.Type == TokenIdent && strings.EqualFold(size.Value, "UNLIMITED"):
			d.Unlimited = true
			d.Size = ncdiff.Unlimited
		case size.Type == TokenNumber:
			n, err := strconv.Atoi(strings.TrimRight(size.Value, "uUlL"))
			if err != nil {
				return p.errorf(size, "invalid size %q for dimension %q", size.Value, d.Name)
			}
			d.Size = n
		default:
			return p.errorf(size, "expected dimension size, got %s", size)
		}
		dims = append(dims, d)

		sep := p.next()
		if sep.Type == TokenComma {
			continue
		}
		if sep.Type != TokenSemi {
			return p.errorf(sep, "expected ; after dimension, got %s", sep)
		}
		break
	}

	// ncdump reports the current length of an unlimited dimension in a
	// trailing comment. it only applies to the last dimension of the line
	if last := &dims[len(dims)-1]; last.Unlimited {
		if n, ok := p.currentLength(); ok {
			last.Size = n
		}
	}
	g.Dimensions = append(g.Dimensions, dims...)
	return nil
}

var currentlyRe = regexp.MustCompile(`^\((\d+) currently\)$`)

// currentLength reads a "(N currently)" comment directly following the
// previous token
func (p *parser) currentLength() (int, bool) {
	if p.pos >= len(p.toks) || p.toks[p.pos].Type != TokenComment {
		return 0, false
	}
	m := currentlyRe.FindStringSubmatch(p.toks[p.pos].Value)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// variableStatement parses one of:
//
//	float temp(time, lat) ;     variable declaration
//	temp:units = "K" ;          variable attribute
//	:title = "x" ;              group attribute
//	string temp:names = "a" ;   typed variable attribute
//	string :history = "a" ;     typed group attribute
func (p *parser) variableStatement(g *ncdiff.Group) error {
	first := p.peek()
	switch {
	case first.Type == TokenColon:
		p.next()
		return p.attribute(g, "", "")
	case first.Type != TokenIdent:
		return p.errorf(first, "unexpected %s", first)
	}

	second := p.peekN(1)
	switch {
	case second.Type == TokenColon && !second.Space:
		// temp:units
		p.next()
		p.next()
		return p.attribute(g, first.Value, "")
	case second.Type == TokenColon:
		// string :history
		p.next()
		p.next()
		return p.attribute(g, "", first.Value)
	case second.Type == TokenIdent && p.peekN(2).Type == TokenColon:
		// string temp:names
		p.next()
		p.next()
		p.next()
		return p.attribute(g, second.Value, first.Value)
	case second.Type == TokenIdent:
		return p.declaration(g)
	}
	return p.errorf(second, "unexpected %s after %q", second, first.Value)
}

// declaration parses "type name(dim, ...), name2 ;"
func (p *parser) declaration(g *ncdiff.Group) error {
	dtype := p.next().Value
	for {
		name, err := p.expect(TokenIdent)
		if err != nil {
			return err
		}
		v := &ncdiff.Variable{VariableInfo: ncdiff.VariableInfo{Name: name.Value, DType: dtype}}

		if p.peek().Type == TokenLParen {
			p.next()
			for {
				dim, err := p.expect(TokenIdent)
				if err != nil {
					return err
				}
				v.Dimensions = append(v.Dimensions, dim.Value)
				sep := p.next()
				if sep.Type == TokenRParen {
					break
				}
				if sep.Type != TokenComma {
					return p.errorf(sep, "expected , or ) in dimensions of %q, got %s", v.Name, sep)
				}
			}
		}
		g.Variables = append(g.Variables, v)

		sep := p.next()
		if sep.Type == TokenSemi {
			return nil
		}
		if sep.Type != TokenComma {
			return p.errorf(sep, "expected ; after variable %q, got %s", v.Name, sep)
		}
	}
}

// attribute parses the "name = values ;" remainder of an attribute
// statement, attaching the result to the named variable or to g
func (p *parser) attribute(g *ncdiff.Group, variable, dtype string) error {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenEq); err != nil {
		return err
	}

	var vals []Token
	for {
		tok := p.next()
		switch tok.Type {
		case TokenNumber, TokenString, TokenIdent:
			vals = append(vals, tok)
		default:
			return p.errorf(tok, "expected value for attribute %q, got %s", name.Value, tok)
		}
		sep := p.next()
		if sep.Type == TokenSemi {
			break
		}
		if sep.Type != TokenComma {
			return p.errorf(sep, "expected , or ; in attribute %q, got %s", name.Value, sep)
		}
	}

	value, err := attributeValue(vals, dtype)
	if err != nil {
		return p.errorf(vals[0], "attribute %q: %s", name.Value, err)
	}

	if variable == "" {
		if isVirtual(name.Value) {
			return nil
		}
		if g.Attributes == nil {
			g.Attributes = ncdiff.Attributes{}
		}
		g.Attributes[name.Value] = value
		return nil
	}

	v := g.Variable(variable)
	if v == nil {
		return p.errorf(name, "attribute %q of undeclared variable %q", name.Value, variable)
	}
	if name.Value == "_ChunkSizes" {
		v.Chunking = chunkSizes(value)
		return nil
	}
	if isVirtual(name.Value) {
		return nil
	}
	if v.Attributes == nil {
		v.Attributes = ncdiff.Attributes{}
	}
	v.Attributes[name.Value] = value
	return nil
}

// virtualAttributes are printed by `ncdump -s` but aren't stored in the
// file. _Quantize* attributes are matched by prefix
var virtualAttributes = map[string]bool{
	"_ChunkSizes":        true,
	"_Storage":           true,
	"_DeflateLevel":      true,
	"_Shuffle":           true,
	"_Fletcher32":        true,
	"_Endianness":        true,
	"_NoFill":            true,
	"_Filter":            true,
	"_Codecs":            true,
	"_Format":            true,
	"_IsNetcdf4":         true,
	"_SuperblockVersion": true,
	"_NCProperties":      true,
}

func isVirtual(name string) bool {
	return virtualAttributes[name] || strings.HasPrefix(name, "_Quantize")
}

func chunkSizes(v interface{}) []int {
	switch x := ncdiff.NormalizeValue(v).(type) {
	case int64:
		return []int{int(x)}
	case []interface{}:
		chunks := make([]int, 0, len(x))
		for _, el := range x {
			n, ok := el.(int64)
			if !ok {
				return nil
			}
			chunks = append(chunks, int(n))
		}
		return chunks
	}
	return nil
}

// skipStatement consumes tokens through the next semicolon outside braces.
// a closing brace at depth zero belongs to the enclosing group & is left in
// place
func (p *parser) skipStatement() error {
	depth := 0
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenEOF:
			return p.errorf(tok, "unexpected end of input")
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 {
				return nil
			}
			depth--
		case TokenSemi:
			if depth == 0 {
				p.next()
				return nil
			}
		}
		p.next()
	}
}

// next returns the next token, skipping comments
func (p *parser) next() Token {
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++
		if tok.Type != TokenComment {
			return tok
		}
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) peek() Token {
	return p.peekN(0)
}

// peekN returns the n-th upcoming non-comment token
func (p *parser) peekN(n int) Token {
	for i := p.pos; i < len(p.toks); i++ {
		if p.toks[i].Type == TokenComment {
			continue
		}
		if n == 0 {
			return p.toks[i]
		}
		n--
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) expect(t TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != t {
		return tok, p.errorf(tok, "expected %s, got %s", t, tok)
	}
	return tok, nil
}

func (p *parser) expectIdent(value string) error {
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return err
	}
	if tok.Value != value {
		return p.errorf(tok, "expected %q, got %q", value, tok.Value)
	}
	return nil
}

func (p *parser) errorf(tok Token, format string, args ...interface{}) error {
	return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

// types maps CDL primitive type keywords to the suffix their literals carry
var types = map[string]string{
	"byte":   "b",
	"char":   "c",
	"short":  "s",
	"int":    "",
	"long":   "",
	"float":  "f",
	"real":   "f",
	"double": "d",
	"ubyte":  "ub",
	"ushort": "us",
	"uint":   "u",
	"int64":  "ll",
	"uint64": "ull",
	"string": "string",
}

// attributeValue converts attribute literals to Go values. an explicit
// dtype overrides literal suffixes. untyped text literals are char data and
// concatenate into a single string, as ncdump splits long text over several
// literals. single values are returned as scalars
func attributeValue(toks []Token, dtype string) (interface{}, error) {
	if dtype == "string" {
		strs := make([]interface{}, len(toks))
		for i, tok := range toks {
			if tok.Type != TokenString {
				return nil, fmt.Errorf("expected string, got %s", tok)
			}
			strs[i] = tok.Value
		}
		if len(strs) == 1 {
			return strs[0], nil
		}
		return strs, nil
	}

	if toks[0].Type == TokenString {
		var sb strings.Builder
		for _, tok := range toks {
			if tok.Type != TokenString {
				return nil, fmt.Errorf("mixed text & numeric values")
			}
			sb.WriteString(tok.Value)
		}
		return sb.String(), nil
	}

	suffix, ok := types[dtype]
	if dtype != "" && !ok {
		// user defined types, eg. enum labels. keep the literal text
		labels := make([]interface{}, len(toks))
		for i, tok := range toks {
			labels[i] = tok.Value
		}
		if len(labels) == 1 {
			return labels[0], nil
		}
		return labels, nil
	}

	vals := make([]interface{}, len(toks))
	for i, tok := range toks {
		if tok.Type == TokenString {
			return nil, fmt.Errorf("mixed text & numeric values")
		}
		v, err := parseNumber(tok.Value, suffix, dtype != "")
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return vals[0], nil
	}
	return vals, nil
}

// parseNumber converts a numeric literal. when typed is false the
// literal's own suffix picks the type, otherwise suffix does
func parseNumber(lit, suffix string, typed bool) (interface{}, error) {
	body, litSuffix := splitSuffix(lit)
	if !typed {
		suffix = litSuffix
	}

	if f, ok := special(body); ok {
		if suffix == "f" {
			return float32(f), nil
		}
		return f, nil
	}

	isFloat := strings.ContainsAny(body, ".eE")
	switch suffix {
	case "f":
		f, err := strconv.ParseFloat(body, 32)
		return float32(f), err
	case "d":
		return strconv.ParseFloat(body, 64)
	case "", "l":
		if isFloat {
			return strconv.ParseFloat(body, 64)
		}
		n, err := strconv.ParseInt(body, 10, 32)
		return int32(n), err
	case "b":
		n, err := strconv.ParseInt(body, 10, 8)
		return int8(n), err
	case "c":
		n, err := strconv.ParseInt(body, 10, 8)
		return int8(n), err
	case "s":
		n, err := strconv.ParseInt(body, 10, 16)
		return int16(n), err
	case "ll":
		return strconv.ParseInt(body, 10, 64)
	case "ub":
		n, err := strconv.ParseUint(body, 10, 8)
		return uint8(n), err
	case "us":
		n, err := strconv.ParseUint(body, 10, 16)
		return uint16(n), err
	case "u", "ul":
		n, err := strconv.ParseUint(body, 10, 32)
		return uint32(n), err
	case "ull":
		return strconv.ParseUint(body, 10, 64)
	}
	return nil, fmt.Errorf("invalid numeric literal %q", lit)
}

// splitSuffix separates a literal from its lowercased type suffix:
// "-999.f" is ("-999.", "f"), "3UB" is ("3", "ub"), "NaNf" is ("NaN", "f")
func splitSuffix(lit string) (string, string) {
	lower := strings.ToLower(lit)
	trimmed := strings.TrimLeft(lower, "+-")
	if trimmed == "nanf" || trimmed == "infinityf" || trimmed == "inff" {
		return lit[:len(lit)-1], "f"
	}
	if _, ok := special(lit); ok {
		return lit, ""
	}
	for _, s := range []string{"ull", "ll", "ub", "us", "ul", "b", "s", "l", "u", "f", "d"} {
		if strings.HasSuffix(lower, s) {
			return lit[:len(lit)-len(s)], s
		}
	}
	return lit, ""
}

// special parses NaN & infinity spellings
func special(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "nan", "+nan", "-nan":
		return math.NaN(), true
	case "infinity", "+infinity", "inf", "+inf":
		return math.Inf(1), true
	case "-infinity", "-inf":
		return math.Inf(-1), true
	}
	return 0, false
}
