package ast

import (
	"strconv"
	"strings"
)

// parseInt32 parses a decimal integer literal lexeme (spec §4.1: integer
// literals are decimal). An unparseable lexeme yields zero; the lexer
// guarantees digit-only input so this should never fail in practice.
func parseInt32(lexeme string) int32 {
	v, err := strconv.ParseInt(lexeme, 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

// parseFloat32 parses a float literal lexeme, stripping the optional 'f' suffix.
func parseFloat32(lexeme string) float32 {
	lexeme = strings.TrimSuffix(lexeme, "f")
	v, err := strconv.ParseFloat(lexeme, 32)
	if err != nil {
		return 0
	}
	return float32(v)
}

// parseFloat64 parses a double literal lexeme, stripping the optional 'd' suffix.
func parseFloat64(lexeme string) float64 {
	lexeme = strings.TrimSuffix(lexeme, "d")
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0
	}
	return v
}
