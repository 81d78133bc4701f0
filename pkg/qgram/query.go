package qgram

import (
	"fmt"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

// Query is one seed q-gram taken from a query string.
type Query struct {
	Gram   uint64
	String uint32 // index of the source string
	Pos    uint32 // offset of the q-gram inside it
}

// ExtractQueries takes a q-gram every step bases from each string. Q-grams
// containing a wildcard are skipped, so a string may contribute none.
func ExtractQueries(strs [][]alphabet.Symbol, q, step int) ([]Query, error) {
	if q <= 0 || q > MaxQ {
		return nil, fmt.Errorf("qgram: extract queries: q=%d: %w", q, ErrInvalidQ)
	}
	if step <= 0 {
		return nil, fmt.Errorf("qgram: extract queries: step=%d must be positive", step)
	}

	var out []Query
	for s, str := range strs {
		for i := 0; i+q <= len(str); i += step {
			g, ok := alphabet.PackGram(str[i : i+q])
			if !ok {
				continue
			}
			out = append(out, Query{Gram: g, String: uint32(s), Pos: uint32(i)})
		}
	}
	return out, nil
}
