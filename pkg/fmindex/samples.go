package fmindex

import (
	"encoding/binary"
	"fmt"

	"github.com/hack-pad/hackpadfs"
	"github.com/oarkflow/log"
	"golang.org/x/exp/mmap"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

// sampleHeaderWords counts primary, L2[1..4], interval and length.
const sampleHeaderWords = 7

// Samples is the content of a suffix array sample file:
//
//	primary  uint32
//	L2[1..4] uint32 x4
//	interval uint32
//	length   uint32
//	ssa[1..(length+interval)/interval) uint32
//
// All fields are little-endian. ssa[0] is not stored; it is always length.
type Samples struct {
	Primary  uint32
	L2       [alphabet.Size]uint32
	Interval uint32
	Length   uint32
	// SA holds every sample including the implicit ssa[0].
	SA []uint32
}

// SampleCount returns the number of rows sampled for a text of length n.
func SampleCount(n, k uint32) uint32 { return (n + k) / k }

// L2Table returns the full cumulative count table with the leading zero.
func (s *Samples) L2Table() [alphabet.Size + 1]uint32 {
	var l2 [alphabet.Size + 1]uint32
	copy(l2[1:], s.L2[:])
	return l2
}

// SSA wraps the samples as a by-index sampled suffix array.
func (s *Samples) SSA() (*SSAByIndex, error) {
	return NewSSAByIndex(s.Interval, s.SA)
}

// SamplesFromIndex extracts the sample file content of fmi with interval k.
func SamplesFromIndex(fmi FMIndex, k uint32) (*Samples, error) {
	ssa, err := BuildSSAByIndex(fmi, k)
	if err != nil {
		return nil, err
	}
	s := &Samples{
		Primary:  fmi.primary,
		Interval: k,
		Length:   fmi.length,
		SA:       ssa.Samples(),
	}
	copy(s.L2[:], fmi.l2[1:])
	return s, nil
}

// MarshalBinary encodes s in the sample file layout.
func (s *Samples) MarshalBinary() ([]byte, error) {
	if s.Interval == 0 {
		return nil, fmt.Errorf("fmindex: marshal samples: %w", ErrZeroInterval)
	}
	want := SampleCount(s.Length, s.Interval)
	if uint32(len(s.SA)) != want {
		return nil, fmt.Errorf("fmindex: marshal samples: have %d samples, want %d: %w",
			len(s.SA), want, ErrCorruptSamples)
	}
	buf := make([]byte, 0, 4*(sampleHeaderWords+len(s.SA)-1))
	buf = binary.LittleEndian.AppendUint32(buf, s.Primary)
	for _, v := range s.L2 {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	buf = binary.LittleEndian.AppendUint32(buf, s.Interval)
	buf = binary.LittleEndian.AppendUint32(buf, s.Length)
	for _, v := range s.SA[1:] {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf, nil
}

// UnmarshalBinary decodes the sample file layout.
func (s *Samples) UnmarshalBinary(data []byte) error {
	if len(data) < 4*sampleHeaderWords {
		return fmt.Errorf("fmindex: samples header: %d bytes: %w", len(data), ErrCorruptSamples)
	}
	word := func(i int) uint32 { return binary.LittleEndian.Uint32(data[4*i:]) }

	s.Primary = word(0)
	for c := range s.L2 {
		s.L2[c] = word(1 + c)
	}
	s.Interval = word(5)
	s.Length = word(6)
	if s.Interval == 0 {
		return fmt.Errorf("fmindex: samples: %w", ErrZeroInterval)
	}
	if s.L2[alphabet.Size-1] != s.Length || s.Primary > s.Length {
		return fmt.Errorf("fmindex: samples: primary %d, L2 total %d, length %d: %w",
			s.Primary, s.L2[alphabet.Size-1], s.Length, ErrCorruptSamples)
	}

	n := int(SampleCount(s.Length, s.Interval))
	if len(data) < 4*(sampleHeaderWords+n-1) {
		return fmt.Errorf("fmindex: samples: %d bytes for %d samples: %w", len(data), n, ErrCorruptSamples)
	}
	s.SA = make([]uint32, n)
	s.SA[0] = s.Length
	for i := 1; i < n; i++ {
		s.SA[i] = word(sampleHeaderWords + i - 1)
	}
	return nil
}

// ReadSamples loads a sample file from fsys.
func ReadSamples(fsys hackpadfs.FS, path string) (*Samples, error) {
	data, err := hackpadfs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("fmindex: read samples %s: %w", path, err)
	}
	s := new(Samples)
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("fmindex: read samples %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("length", int(s.Length)).Int("interval", int(s.Interval)).Msg("loaded suffix array samples")
	return s, nil
}

// MapSamples loads a sample file from the host filesystem through mmap.
func MapSamples(path string) (*Samples, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fmindex: map samples %s: %w", path, err)
	}
	defer r.Close()

	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("fmindex: map samples %s: %w", path, err)
	}
	s := new(Samples)
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("fmindex: map samples %s: %w", path, err)
	}
	return s, nil
}

// WriteSamples stores s in fsys.
func WriteSamples(fsys hackpadfs.FS, path string, s *Samples) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(fsys, path, data, 0644); err != nil {
		return fmt.Errorf("fmindex: write samples %s: %w", path, err)
	}
	return nil
}
