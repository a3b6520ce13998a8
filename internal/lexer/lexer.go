package lexer

import "iter"

// Loc is a location in source text. Line and Column are 1-based; Column
// counts runes, not bytes.
type Loc struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Lexeme is a token together with where it came from.
type Lexeme struct {
	Token Token
	// Index is the token's position in the filtered token stream.
	Index int
	Loc   Loc
}

// Tokens returns the commands in src, in order, skipping comments.
func Tokens(src string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, r := range src {
			tok, ok := FromRune(r)
			if !ok {
				continue
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Scan is like Tokens but also reports each token's stream index and
// source location.
func Scan(src string) iter.Seq[Lexeme] {
	return func(yield func(Lexeme) bool) {
		line, col, index := 1, 0, 0
		for offset, r := range src {
			col++
			if r == '\n' {
				line++
				col = 0
				continue
			}
			tok, ok := FromRune(r)
			if !ok {
				continue
			}
			lx := Lexeme{
				Token: tok,
				Index: index,
				Loc:   Loc{Offset: offset, Line: line, Column: col},
			}
			index++
			if !yield(lx) {
				return
			}
		}
	}
}

// Lex collects the tokens of src into a slice.
func Lex(src string) []Token {
	var toks []Token
	for tok := range Tokens(src) {
		toks = append(toks, tok)
	}
	return toks
}
