package sltl

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	TEOF TokenType = iota
	TName
	TQuoted
	TTrue
	TFalse
	TIn
	TOut
	TNot
	TAnd
	TOr
	TImplies
	TIff
	TNext
	TFinally
	TGlobally
	TUntil
	TLParen
	TRParen
	TLAngle
	TRAngle
)

var tokenNames = map[TokenType]string{
	TEOF:      "end of formula",
	TName:     "name",
	TQuoted:   "quoted name",
	TTrue:     "true",
	TFalse:    "false",
	TIn:       "in",
	TOut:      "out",
	TNot:      "!",
	TAnd:      "&",
	TOr:       "|",
	TImplies:  "->",
	TIff:      "<->",
	TNext:     "X",
	TFinally:  "F",
	TGlobally: "G",
	TUntil:    "U",
	TLParen:   "(",
	TRParen:   ")",
	TLAngle:   "<",
	TRAngle:   ">",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"true":  TTrue,
	"false": TFalse,
	"in":    TIn,
	"out":   TOut,
	"X":     TNext,
	"F":     TFinally,
	"G":     TGlobally,
	"U":     TUntil,
}

type Token struct {
	Type TokenType
	Pos  int
	Text string
}

// SyntaxError reports a malformed formula at a byte offset.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Pos, e.Msg)
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("_.:/#", c) >= 0
}

// Tokenize splits src into tokens, ending with a TEOF token.
func Tokenize(src string) ([]Token, error) {
	var res []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == '\'' || c == '"':
			j := strings.IndexByte(src[i+1:], c)
			if j < 0 {
				return nil, &SyntaxError{Pos: i, Msg: "unterminated quoted name"}
			}
			res = append(res, Token{Type: TQuoted, Pos: i, Text: src[i+1 : i+1+j]})
			i += j + 2
			continue
		case strings.HasPrefix(src[i:], "<->"):
			res = append(res, Token{Type: TIff, Pos: i, Text: "<->"})
			i += 3
			continue
		case strings.HasPrefix(src[i:], "->"):
			res = append(res, Token{Type: TImplies, Pos: i, Text: "->"})
			i += 2
			continue
		case isNameByte(c):
			j := i
			for j < len(src) && isNameByte(src[j]) {
				j++
			}
			word := src[i:j]
			tt, ok := keywords[word]
			if !ok {
				tt = TName
			}
			res = append(res, Token{Type: tt, Pos: i, Text: word})
			i = j
			continue
		}
		tt, ok := map[byte]TokenType{
			'!': TNot,
			'~': TNot,
			'&': TAnd,
			'|': TOr,
			'(': TLParen,
			')': TRParen,
			'<': TLAngle,
			'>': TRAngle,
		}[c]
		if !ok {
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
		res = append(res, Token{Type: tt, Pos: i, Text: string(c)})
		i++
		if (c == '&' || c == '|') && i < len(src) && src[i] == c {
			i++
		}
	}
	return append(res, Token{Type: TEOF, Pos: len(src)}), nil
}
