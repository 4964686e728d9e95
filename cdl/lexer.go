package cdl

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexer token
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	TokenIdent   // temp, UNLIMITED, float, NaNf
	TokenNumber  // 180, -999.f, 1.5e+36, 3UB
	TokenString  // "quoted string"
	TokenComment // // (10 currently)

	TokenLBrace // {
	TokenRBrace // }
	TokenLParen // (
	TokenRParen // )
	TokenEq     // =
	TokenColon  // :
	TokenComma  // ,
	TokenSemi   // ;
	TokenStar   // *
)

// String returns the token type name
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenIdent:
		return "IDENT"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenComment:
		return "COMMENT"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenEq:
		return "="
	case TokenColon:
		return ":"
	case TokenComma:
		return ","
	case TokenSemi:
		return ";"
	case TokenStar:
		return "*"
	default:
		return "UNKNOWN"
	}
}

// Position is a line & column in the input, both 1-based
type Position struct {
	Line, Col int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a lexed token. Space is true when whitespace precedes the token,
// which is what tells the typed global attribute "string :a" from the
// attribute "string:a" of a variable named string
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
	Space bool
}

// String returns a debug representation of the token
func (t Token) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Lexer tokenizes CDL text
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input, ending with an EOF token.
// lexing errors are returned as a *ParseError
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok := l.next()
		if tok.Type == TokenError {
			return toks, &ParseError{Pos: tok.Pos, Msg: tok.Value}
		}
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) next() Token {
	space := l.skipWhitespace()
	tok := l.scan()
	tok.Space = space
	return tok
}

func (l *Lexer) scan() Token {
	pos := Position{l.line, l.col}
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	ch := l.peek()
	if t, ok := punctuation[ch]; ok {
		l.advance()
		return Token{Type: t, Value: string(ch), Pos: pos}
	}

	switch {
	case ch == '/' && l.peekAt(1) == '/':
		start := l.pos + 2
		for l.pos < len(l.input) && l.peek() != '\n' {
			l.advance()
		}
		return Token{Type: TokenComment, Value: strings.TrimSpace(l.input[start:l.pos]), Pos: pos}
	case ch == '"' || ch == '\'':
		return l.scanString(pos, ch)
	case isDigit(ch) || (ch == '.' && isDigit(l.peekAt(1))):
		return l.scanNumber(pos)
	case (ch == '-' || ch == '+') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '.'):
		return l.scanNumber(pos)
	case (ch == '-' || ch == '+') && isIdentStart(l.peekAt(1)):
		// -Infinity, -Infinityf
		l.advance()
		tok := l.scanIdent(pos)
		tok.Value = string(ch) + tok.Value
		return tok
	case isIdentStart(ch) || ch == '\\':
		return l.scanIdent(pos)
	}

	l.advance()
	return Token{Type: TokenError, Value: fmt.Sprintf("unexpected character %q", ch), Pos: pos}
}

var punctuation = map[byte]TokenType{
	'{': TokenLBrace, '}': TokenRBrace,
	'(': TokenLParen, ')': TokenRParen,
	'=': TokenEq, ':': TokenColon,
	',': TokenComma, ';': TokenSemi,
	'*': TokenStar,
}

// skipWhitespace reports whether anything was skipped
func (l *Lexer) skipWhitespace() bool {
	start := l.pos
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return l.pos > start
		}
	}
	return l.pos > start
}

func (l *Lexer) scanString(pos Position, quote byte) Token {
	l.advance()
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == quote:
			l.advance()
			return Token{Type: TokenString, Value: sb.String(), Pos: pos}
		case ch == '\\' && l.pos+1 < len(l.input):
			l.advance()
			esc := l.peek()
			l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(ch)
			l.advance()
		}
	}
	return Token{Type: TokenError, Value: "unterminated string", Pos: pos}
}

// scanNumber reads a numeric literal including any CDL type suffix:
// 1b, 2s, 3L, 4LL, 5UB, 1.5f, 2.0d, -999.f
func (l *Lexer) scanNumber(pos Position) Token {
	start := l.pos
	if ch := l.peek(); ch == '-' || ch == '+' {
		l.advance()
	}
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case isDigit(ch) || ch == '.':
			l.advance()
		case (ch == 'e' || ch == 'E') && (isDigit(l.peekAt(1)) || ((l.peekAt(1) == '-' || l.peekAt(1) == '+') && isDigit(l.peekAt(2)))):
			l.advance()
			if c := l.peek(); c == '-' || c == '+' {
				l.advance()
			}
		case isLetter(ch):
			l.advance()
		default:
			return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: pos}
		}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: pos}
}

// scanIdent reads a CDL name. backslash escapes the next character, which
// ncdump uses for names starting with a digit or holding special characters
func (l *Lexer) scanIdent(pos Position) Token {
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			l.advance()
			sb.WriteByte(l.peek())
			l.advance()
		case isIdentChar(ch):
			sb.WriteByte(ch)
			l.advance()
		default:
			return Token{Type: TokenIdent, Value: sb.String(), Pos: pos}
		}
	}
	return Token{Type: TokenIdent, Value: sb.String(), Pos: pos}
}

func (l *Lexer) peek() byte {
	return l.input[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// identifiers may hold UTF-8, any byte above ASCII is accepted
func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_' || ch >= 0x80
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.' || ch == '@' || ch == '+' || ch == '-'
}
