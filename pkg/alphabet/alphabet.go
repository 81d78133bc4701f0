// Package alphabet defines the DNA symbol set used by the indices and a
// 2-bit packed stream over it.
package alphabet

import "fmt"

// Symbol is a single DNA base code.
type Symbol uint8

const (
	A Symbol = iota
	C
	G
	T
	// N is the ambiguous base. Any code above T is treated as N and
	// terminates match extension.
	N
)

// Size is the number of valid (non-wildcard) symbols.
const Size = 4

// BitsPerSymbol is the width of a symbol in packed storage.
const BitsPerSymbol = 2

// Valid reports whether s is one of A, C, G, T.
func (s Symbol) Valid() bool { return s < Size }

func (s Symbol) String() string {
	switch s {
	case A:
		return "A"
	case C:
		return "C"
	case G:
		return "G"
	case T:
		return "T"
	}
	return "N"
}

// Complement returns the Watson-Crick complement. N maps to N.
func (s Symbol) Complement() Symbol {
	if !s.Valid() {
		return N
	}
	return T - s
}

var encodeTable = func() [256]Symbol {
	var t [256]Symbol
	for i := range t {
		t[i] = N
	}
	t['A'], t['a'] = A, A
	t['C'], t['c'] = C, C
	t['G'], t['g'] = G, G
	t['T'], t['t'] = T, T
	return t
}()

// EncodeByte maps an ASCII base to its symbol. Unknown bytes become N.
func EncodeByte(b byte) Symbol { return encodeTable[b] }

// Encode converts an ASCII string to symbols.
func Encode(s string) []Symbol {
	out := make([]Symbol, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = encodeTable[s[i]]
	}
	return out
}

// Decode converts symbols back to an ASCII string.
func Decode(syms []Symbol) string {
	b := make([]byte, len(syms))
	for i, s := range syms {
		b[i] = s.String()[0]
	}
	return string(b)
}

// Reverse returns a reversed copy of syms.
func Reverse(syms []Symbol) []Symbol {
	out := make([]Symbol, len(syms))
	for i, s := range syms {
		out[len(syms)-1-i] = s
	}
	return out
}

// ReverseComplement returns the opposite strand of syms, read 5' to 3'.
func ReverseComplement(syms []Symbol) []Symbol {
	out := make([]Symbol, len(syms))
	for i, s := range syms {
		out[len(syms)-1-i] = s.Complement()
	}
	return out
}

// ParseStrict is like Encode but rejects bytes outside ACGTN.
func ParseStrict(s string) ([]Symbol, error) {
	out := make([]Symbol, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 'N' || c == 'n' {
			out[i] = N
			continue
		}
		sym := encodeTable[c]
		if sym == N {
			return nil, fmt.Errorf("alphabet: invalid base %q at %d", c, i)
		}
		out[i] = sym
	}
	return out, nil
}
