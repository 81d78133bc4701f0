package alphabet

// SymbolsPerWord is how many 2-bit symbols fit in one uint32 word.
const SymbolsPerWord = 32 / BitsPerSymbol

// Packed is a 2-bit packed symbol stream. Symbol i lives in word i/16 at
// bit offset 2*(i%16). Wildcards cannot be represented; Pack maps them to A
// and callers that care keep a separate mask.
type Packed struct {
	Words []uint32
	Len   int
}

// Pack packs syms into a new stream.
func Pack(syms []Symbol) Packed {
	p := Packed{
		Words: make([]uint32, (len(syms)+SymbolsPerWord-1)/SymbolsPerWord),
		Len:   len(syms),
	}
	for i, s := range syms {
		if !s.Valid() {
			s = A
		}
		p.Words[i/SymbolsPerWord] |= uint32(s) << (BitsPerSymbol * uint(i%SymbolsPerWord))
	}
	return p
}

// Unpack returns symbol i.
func (p Packed) Unpack(i int) Symbol {
	w := p.Words[i/SymbolsPerWord]
	return Symbol((w >> (BitsPerSymbol * uint(i%SymbolsPerWord))) & 3)
}

// UnpackAll expands the stream back to one symbol per element.
func (p Packed) UnpackAll() []Symbol {
	out := make([]Symbol, p.Len)
	for i := range out {
		out[i] = p.Unpack(i)
	}
	return out
}

// PackGram packs syms[0:q] into a q-gram value, symbol j at bits 2*j.
// ok is false if any symbol is a wildcard or q exceeds 32.
func PackGram(syms []Symbol) (gram uint64, ok bool) {
	if len(syms) > 64/BitsPerSymbol {
		return 0, false
	}
	for j, s := range syms {
		if !s.Valid() {
			return 0, false
		}
		gram |= uint64(s) << (BitsPerSymbol * uint(j))
	}
	return gram, true
}

// UnpackGram is the inverse of PackGram.
func UnpackGram(gram uint64, q int) []Symbol {
	out := make([]Symbol, q)
	for j := range out {
		out[j] = Symbol((gram >> (BitsPerSymbol * uint(j))) & 3)
	}
	return out
}
