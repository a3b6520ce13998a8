// Package lexer filters source text down to the eight command symbols of the
// tape language.
//
// Every other character is a comment. The lexer has no error conditions and
// keeps no state between passes: each range over a returned sequence starts
// from the beginning of the input.
package lexer

import "fmt"

// Token is one of the eight recognized commands.
type Token uint8

const (
	MoveLeft  Token = iota + 1 // <
	MoveRight                  // >
	Increment                  // +
	Decrement                  // -
	Output                     // .
	Input                      // ,
	Open                       // [
	Close                      // ]
)

var tokenNames = [...]string{
	MoveLeft:  "MoveLeft",
	MoveRight: "MoveRight",
	Increment: "Increment",
	Decrement: "Decrement",
	Output:    "Output",
	Input:     "Input",
	Open:      "Open",
	Close:     "Close",
}

var tokenSymbols = [...]rune{
	MoveLeft:  '<',
	MoveRight: '>',
	Increment: '+',
	Decrement: '-',
	Output:    '.',
	Input:     ',',
	Open:      '[',
	Close:     ']',
}

// FromRune classifies r. The second result is false for comment characters.
func FromRune(r rune) (Token, bool) {
	switch r {
	case '<':
		return MoveLeft, true
	case '>':
		return MoveRight, true
	case '+':
		return Increment, true
	case '-':
		return Decrement, true
	case '.':
		return Output, true
	case ',':
		return Input, true
	case '[':
		return Open, true
	case ']':
		return Close, true
	}
	return 0, false
}

// Valid reports whether t is one of the eight commands.
func (t Token) Valid() bool {
	return t >= MoveLeft && t <= Close
}

// Symbol returns the source character for t.
func (t Token) Symbol() rune {
	if !t.Valid() {
		return 0
	}
	return tokenSymbols[t]
}

func (t Token) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Token(%d)", uint8(t))
	}
	return tokenNames[t]
}
