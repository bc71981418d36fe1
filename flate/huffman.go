// Copyright 2016 CoreOS, Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flate

import "sort"

const (
	maxCodeLength   = 15 // literal/length and distance alphabets
	maxCLCodeLength = 7  // code-length alphabet

	// codeTableBits is the index width of the fast symbol lookup table
	// derived from a code tree.
	codeTableBits = 9
)

// A code tree is a flat array of 16-bit integers encoding an implicit binary
// tree. The pair at even index i holds the left and right children of one
// node; the root pair sits at index 0. A non-negative value is the index of a
// child pair, a negative value is the bitwise complement of a leaf symbol.
//
// codeLengthsToTree builds the tree for the canonical Huffman code described
// by the given code lengths, where lengths[sym] == 0 means sym is absent.
// The code must form an exactly full tree (Kraft sum 1); anything else is
// rejected with HuffmanCodeUnderFull or HuffmanCodeOverFull. The returned
// errors carry no input offset, the caller fills it in.
func codeLengthsToTree(lengths []uint8) ([]int16, error) {
	remaining := 0
	for _, l := range lengths {
		if l > 0 {
			remaining++
		}
	}
	if remaining < 2 {
		// A code with fewer than two symbols can never be full.
		return nil, &DataFormatError{Reason: HuffmanCodeUnderFull}
	}

	// A full tree with remaining leaves has exactly remaining-1 internal
	// nodes; needing more pairs than that proves the code is under-full.
	maxSlots := 2 * (remaining - 1)
	tree := make([]int16, 2, maxSlots)
	open := make([]int16, 0, 16)
	nextOpen := make([]int16, 0, 16)
	open = append(open, 0, 1)

	for curLen := uint8(1); curLen <= maxCodeLength; curLen++ {
		for sym, l := range lengths {
			if l != curLen {
				continue
			}
			if len(open) == 0 {
				return nil, &DataFormatError{Reason: HuffmanCodeOverFull}
			}
			tree[open[0]] = int16(^sym)
			open = open[1:]
			remaining--
		}
		if remaining == 0 {
			break
		}
		nextOpen = nextOpen[:0]
		for _, slot := range open {
			if len(tree) == maxSlots {
				return nil, &DataFormatError{Reason: HuffmanCodeUnderFull}
			}
			idx := int16(len(tree))
			tree = append(tree, 0, 0)
			tree[slot] = idx
			nextOpen = append(nextOpen, idx, idx+1)
		}
		open, nextOpen = nextOpen, open
	}
	if len(open) != 0 || remaining != 0 {
		return nil, &DataFormatError{Reason: HuffmanCodeUnderFull}
	}
	return tree, nil
}

// treeToTable derives a fast prefix lookup table from a code tree. The table
// is indexed by the low bits of the bit buffer; each entry packs the node
// reached (or the complemented symbol) in the upper bits and the number of
// bits consumed in the low 4 bits. Entries still internal after bits steps
// record the pair index to resume per-bit descent from.
func treeToTable(tree []int16, bits uint) []int32 {
	table := make([]int32, 1<<bits)
	for idx := range table {
		node := int16(0)
		consumed := uint(0)
		var entry int32
		for {
			t := tree[int(node)+(idx>>consumed)&1]
			consumed++
			if t < 0 || consumed == bits {
				entry = int32(t)<<4 | int32(consumed)
				break
			}
			node = t
		}
		table[idx] = entry
	}
	return table
}

// canonicalCode is the encoder-side view of a Huffman code: per-symbol code
// words pre-reversed for LSB-first emission.
type canonicalCode struct {
	codes   []uint32
	lengths []uint8
}

// newCanonicalCode assigns canonical code words to the given lengths.
// Unlike the decoder-side tree builder, an over-full or under-full set of
// lengths here is a programming error: strategies only ever feed it lengths
// produced by packageMergeLengths or the fixed tables.
func newCanonicalCode(lengths []uint8) (*canonicalCode, error) {
	var count [maxCodeLength + 1]int
	for _, l := range lengths {
		if l > maxCodeLength {
			return nil, InternalError("code length over 15")
		}
		count[l]++
	}
	count[0] = 0

	kraft := 0
	for l := 1; l <= maxCodeLength; l++ {
		kraft += count[l] << uint(maxCodeLength-l)
	}
	if kraft > 1<<maxCodeLength {
		return nil, InternalError("canonical code over-full")
	}
	if kraft < 1<<maxCodeLength {
		return nil, InternalError("canonical code under-full")
	}

	var next [maxCodeLength + 1]uint32
	code := uint32(0)
	for l := 1; l <= maxCodeLength; l++ {
		code = (code + uint32(count[l-1])) << 1
		next[l] = code
	}
	codes := make([]uint32, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = reverseBits(next[l], uint(l))
		next[l]++
	}
	return &canonicalCode{codes: codes, lengths: lengths}, nil
}

func (c *canonicalCode) writeSymbol(bw *BitWriter, sym int) {
	bw.WriteBits(c.codes[sym], uint(c.lengths[sym]))
}

func (c *canonicalCode) symbolLength(sym int) int64 {
	return int64(c.lengths[sym])
}

func reverseBits(v uint32, n uint) uint32 {
	var r uint32
	for i := uint(0); i < n; i++ {
		r = r<<1 | v>>i&1
	}
	return r
}

// packageMergeLengths computes optimal prefix code lengths for the given
// symbol frequencies, limited to maxLen bits, using the package-merge
// algorithm. Symbols with zero frequency get length zero. A single used
// symbol gets length 1; the caller is responsible for padding such a
// degenerate code up to a full tree.
func packageMergeLengths(freqs []int64, maxLen int) []uint8 {
	type coin struct {
		weight int64
		syms   []int
	}

	lengths := make([]uint8, len(freqs))
	var singles []coin
	for sym, f := range freqs {
		if f > 0 {
			singles = append(singles, coin{weight: f, syms: []int{sym}})
		}
	}
	n := len(singles)
	if n == 0 {
		return lengths
	}
	if n == 1 {
		lengths[singles[0].syms[0]] = 1
		return lengths
	}
	sort.SliceStable(singles, func(i, j int) bool { return singles[i].weight < singles[j].weight })

	merged := make([]coin, n)
	copy(merged, singles)
	for level := 1; level < maxLen; level++ {
		// Package adjacent pairs, then merge the packages back in with the
		// original coins by weight.
		var packaged []coin
		for i := 0; i+1 < len(merged); i += 2 {
			syms := make([]int, 0, len(merged[i].syms)+len(merged[i+1].syms))
			syms = append(syms, merged[i].syms...)
			syms = append(syms, merged[i+1].syms...)
			packaged = append(packaged, coin{weight: merged[i].weight + merged[i+1].weight, syms: syms})
		}
		out := make([]coin, 0, n+len(packaged))
		i, j := 0, 0
		for i < n || j < len(packaged) {
			if j == len(packaged) || (i < n && singles[i].weight <= packaged[j].weight) {
				out = append(out, singles[i])
				i++
			} else {
				out = append(out, packaged[j])
				j++
			}
		}
		merged = out
	}

	// Every symbol occurrence among the 2n-2 cheapest coins contributes one
	// bit to that symbol's code length.
	for _, c := range merged[:2*n-2] {
		for _, s := range c.syms {
			lengths[s]++
		}
	}
	return lengths
}
