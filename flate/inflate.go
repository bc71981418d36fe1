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

// Package flate implements the DEFLATE compressed data format described in
// RFC 1951. The gzip and zlib packages layer the DEFLATE-based container
// formats on top of it.
package flate

import (
	"bufio"
	"io"
)

const (
	// maxHist is the size of the sliding dictionary.
	maxHist = 32768
)

// dictionary is the 32 KiB ring of recently emitted bytes that LZ77
// back-references copy from.
type dictionary struct {
	buf    [maxHist]byte
	pos    int
	length int // bytes ever appended, saturating at maxHist
}

func (d *dictionary) put(b byte) {
	d.buf[d.pos] = b
	d.pos = (d.pos + 1) & (maxHist - 1)
	if d.length < maxHist {
		d.length++
	}
}

func (d *dictionary) at(dist int) byte {
	return d.buf[(d.pos-dist)&(maxHist-1)]
}

func (d *dictionary) reset() {
	d.pos = 0
	d.length = 0
}

// Facade states. Any data-format or unexpected-end failure latches the
// facade in stateSticky; every later read re-returns the same error without
// touching the source.
const (
	stateOpen = iota
	stateSticky
	stateClosed
)

// Block decoder modes.
const (
	blockNone = iota
	blockStored
	blockHuffman
)

// Decompressor reads DEFLATE blocks from a byte source and serves the
// decompressed bytes through Read. It is not safe for concurrent use.
type Decompressor struct {
	br   bitReader
	hist dictionary

	state int
	err   error // latched failure when state == stateSticky

	// Current block.
	mode         int
	final        bool // current block has bfinal set
	finished     bool // final block fully decoded
	storedRemain int
	litTree      []int16
	litTable     []int32
	distTree     []int16 // nil for a literal-only dynamic block
	distTable    []int32

	// In-flight LZ77 copy, carried across Read calls when the caller's
	// buffer fills mid-run.
	copyLen  int
	copyDist int

	// End-exact mode: after the final block the source is repositioned to
	// the first byte past the compressed stream.
	seeker io.ReadSeeker
	brd    *bufio.Reader

	// Scratch for dynamic block headers.
	lengths [numLitLenSymbols + numDistSymbols]uint8
	clLens  [numCLSymbols]uint8
}

// NewReader returns a Decompressor reading compressed data from r.
// If r does not also implement io.ByteReader, the decompressor introduces
// its own buffering and may read slightly more data than necessary from r;
// a Reader source is consumed byte-exactly, never past the final block's
// last byte.
func NewReader(r io.Reader) *Decompressor {
	z := new(Decompressor)
	z.br.init(MakeReader(r))
	return z
}

// NewReaderExact is like NewReader but additionally guarantees that when the
// final block has been decoded, rs is positioned exactly on the first byte
// after the compressed stream. A byte with any consumed bit counts as fully
// consumed.
func NewReaderExact(rs io.ReadSeeker) *Decompressor {
	z := new(Decompressor)
	z.seeker = rs
	z.brd = bufio.NewReader(rs)
	z.br.init(z.brd)
	return z
}

// Reset discards all state and continues reading from r, as if the
// Decompressor had been newly constructed with NewReader(r).
func (z *Decompressor) Reset(r io.Reader) error {
	z.br.init(MakeReader(r))
	z.hist.reset()
	z.state = stateOpen
	z.err = nil
	z.mode = blockNone
	z.final = false
	z.finished = false
	z.copyLen = 0
	z.seeker = nil
	z.brd = nil
	return nil
}

// Read decompresses into p. It returns io.EOF after the final block has
// been fully delivered. Bytes decoded before a failure are delivered first
// and the failure is returned by the next call. A DataFormatError is latched
// and returned by every call after that; errors from the source are not
// latched.
func (z *Decompressor) Read(p []byte) (int, error) {
	switch z.state {
	case stateClosed:
		return 0, ErrClosed
	case stateSticky:
		return 0, z.err
	}
	n := 0
	for n < len(p) {
		m, err := z.step(p[n:])
		n += m
		if err == io.EOF {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		if err != nil {
			z.latch(err)
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
	}
	return n, nil
}

// ReadByte returns the next decompressed byte.
func (z *Decompressor) ReadByte() (byte, error) {
	var buf [1]byte
	for {
		n, err := z.Read(buf[:])
		if n == 1 {
			return buf[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Close releases the Decompressor. It does not close the underlying source
// and is idempotent; it may be called from any state.
func (z *Decompressor) Close() error {
	z.state = stateClosed
	return nil
}

func (z *Decompressor) latch(err error) {
	// IO and misuse errors pass through without poisoning the stream state;
	// only malformed data is sticky.
	if _, ok := err.(*DataFormatError); ok {
		z.state = stateSticky
		z.err = err
	}
}

// step makes one unit of progress: it resumes a pending copy, opens the
// next block, or decodes from the current block into p. len(p) > 0.
func (z *Decompressor) step(p []byte) (int, error) {
	if z.copyLen > 0 {
		n := 0
		for n < len(p) && z.copyLen > 0 {
			b := z.hist.at(z.copyDist)
			z.hist.put(b)
			p[n] = b
			n++
			z.copyLen--
		}
		return n, nil
	}
	switch z.mode {
	case blockStored:
		return z.readStored(p)
	case blockHuffman:
		return z.readHuffman(p)
	}
	if z.finished {
		return 0, io.EOF
	}
	return 0, z.readBlockHeader()
}

// readBlockHeader consumes bfinal and btype and prepares the block decoder.
func (z *Decompressor) readBlockHeader() error {
	bfinal, err := z.br.readBits(1)
	if err != nil {
		return err
	}
	btype, err := z.br.readBits(2)
	if err != nil {
		return err
	}
	z.final = bfinal == 1
	switch btype {
	case 0:
		return z.beginStored()
	case 1:
		z.litTree, z.litTable = fixedLitLenTree, fixedLitLenTable
		z.distTree, z.distTable = fixedDistTree, fixedDistTable
		z.mode = blockHuffman
		return nil
	case 2:
		return z.readDynamicHeader()
	default:
		return &DataFormatError{Reason: ReservedBlockType, Offset: z.br.offset}
	}
}

func (z *Decompressor) beginStored() error {
	z.br.alignToByte()
	length, err := z.br.readBits(16)
	if err != nil {
		return err
	}
	nlength, err := z.br.readBits(16)
	if err != nil {
		return err
	}
	if length != nlength^0xFFFF {
		return &DataFormatError{Reason: UncompressedBlockLengthMismatch, Offset: z.br.offset}
	}
	z.storedRemain = int(length)
	z.mode = blockStored
	if z.storedRemain == 0 {
		return z.endBlock()
	}
	return nil
}

func (z *Decompressor) readStored(p []byte) (int, error) {
	n := 0
	for n < len(p) && z.storedRemain > 0 {
		b, err := z.br.readAlignedByte()
		if err != nil {
			return n, err
		}
		z.hist.put(b)
		p[n] = b
		n++
		z.storedRemain--
	}
	if z.storedRemain == 0 {
		return n, z.endBlock()
	}
	return n, nil
}

func (z *Decompressor) readHuffman(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		sym, err := z.decodeSymbol(z.litTable, z.litTree)
		if err != nil {
			return n, err
		}
		switch {
		case sym < endOfBlockSymbol:
			b := byte(sym)
			z.hist.put(b)
			p[n] = b
			n++
		case sym == endOfBlockSymbol:
			return n, z.endBlock()
		default:
			length, err := z.readMatchLength(sym)
			if err != nil {
				return n, err
			}
			dist, err := z.readMatchDistance()
			if err != nil {
				return n, err
			}
			if dist > z.hist.length {
				return n, &DataFormatError{Reason: CopyFromBeforeDictionaryStart, Offset: z.br.offset}
			}
			// Byte-by-byte so overlapping runs (dist < length) propagate.
			z.copyLen, z.copyDist = length, dist
			for n < len(p) && z.copyLen > 0 {
				b := z.hist.at(z.copyDist)
				z.hist.put(b)
				p[n] = b
				n++
				z.copyLen--
			}
			if z.copyLen > 0 {
				// Caller's buffer is full; resume on the next call.
				return n, nil
			}
		}
	}
	return n, nil
}

func (z *Decompressor) readMatchLength(sym int) (int, error) {
	if sym >= 286 {
		return 0, &DataFormatError{Reason: ReservedLengthSymbol, Offset: z.br.offset}
	}
	base := lengthBases[sym-257]
	ebits := lengthExtraBits[sym-257]
	if ebits == 0 {
		return base, nil
	}
	extra, err := z.br.readBits(ebits)
	if err != nil {
		return 0, err
	}
	return base + int(extra), nil
}

func (z *Decompressor) readMatchDistance() (int, error) {
	if z.distTree == nil {
		return 0, &DataFormatError{Reason: LengthEncounteredWithEmptyDistanceCode, Offset: z.br.offset}
	}
	sym, err := z.decodeSymbol(z.distTable, z.distTree)
	if err != nil {
		return 0, err
	}
	if sym >= 30 {
		return 0, &DataFormatError{Reason: ReservedDistanceSymbol, Offset: z.br.offset}
	}
	base := distBases[sym]
	ebits := distExtraBits[sym]
	if ebits == 0 {
		return base, nil
	}
	extra, err := z.br.readBits(ebits)
	if err != nil {
		return 0, err
	}
	return base + int(extra), nil
}

// endBlock finishes the current block and, on the final one, repositions an
// end-exact source.
func (z *Decompressor) endBlock() error {
	z.mode = blockNone
	if !z.final {
		return nil
	}
	z.finished = true
	if z.seeker == nil {
		return nil
	}
	// Whole unconsumed bytes sit in two places: the bit buffer and the
	// bufio wrapper around the seeker.
	back := z.br.bufferedBytes() + int64(z.brd.Buffered())
	if back > 0 {
		if _, err := z.seeker.Seek(-back, io.SeekCurrent); err != nil {
			return &ReadError{Offset: z.br.offset, Err: err}
		}
	}
	z.br.bits = 0
	z.br.nbits = 0
	return nil
}

// decodeSymbol reads one Huffman-coded symbol. The fast path indexes the
// precomputed table with the low bits of the bit buffer; an entry is only
// trusted when the buffer really holds at least as many bits as the entry
// consumed, so the source is never read further ahead than the code needs.
func (z *Decompressor) decodeSymbol(table []int32, tree []int16) (int, error) {
	br := &z.br
	for {
		e := table[br.bits&(1<<codeTableBits-1)]
		n := uint(e & 15)
		if n <= br.nbits {
			v := e >> 4
			br.bits >>= n
			br.nbits -= n
			if v < 0 {
				return int(^v), nil
			}
			// Code longer than the table width; descend per bit.
			node := int(v)
			for {
				bit, err := br.readBits(1)
				if err != nil {
					return 0, err
				}
				t := tree[node+int(bit)]
				if t < 0 {
					return int(^t), nil
				}
				node = int(t)
			}
		}
		if err := br.feed(); err != nil {
			return 0, err
		}
	}
}

// readDynamicHeader parses the dynamic Huffman block header of RFC 1951
// section 3.2.7 and builds the literal/length and distance code trees.
func (z *Decompressor) readDynamicHeader() error {
	hlit, err := z.br.readBits(5)
	if err != nil {
		return err
	}
	hdist, err := z.br.readBits(5)
	if err != nil {
		return err
	}
	hclen, err := z.br.readBits(4)
	if err != nil {
		return err
	}
	nlit := int(hlit) + 257
	ndist := int(hdist) + 1
	nclen := int(hclen) + 4

	for i := 0; i < nclen; i++ {
		v, err := z.br.readBits(3)
		if err != nil {
			return err
		}
		z.clLens[clCodeOrder[i]] = uint8(v)
	}
	for i := nclen; i < numCLSymbols; i++ {
		z.clLens[clCodeOrder[i]] = 0
	}
	clTree, err := codeLengthsToTree(z.clLens[:])
	if err != nil {
		return z.stampOffset(err)
	}
	clTable := treeToTable(clTree, codeTableBits)

	// HLIT+257 literal/length lengths then HDIST+1 distance lengths, with
	// the 16/17/18 repeat codes running across the combined vector.
	total := nlit + ndist
	for i := 0; i < total; {
		sym, err := z.decodeSymbol(clTable, clTree)
		if err != nil {
			return err
		}
		if sym < 16 {
			z.lengths[i] = uint8(sym)
			i++
			continue
		}
		var rep int
		var b uint8
		switch sym {
		case 16:
			if i == 0 {
				return &DataFormatError{Reason: NoPreviousCodeLengthToCopy, Offset: z.br.offset}
			}
			extra, err := z.br.readBits(2)
			if err != nil {
				return err
			}
			rep = 3 + int(extra)
			b = z.lengths[i-1]
		case 17:
			extra, err := z.br.readBits(3)
			if err != nil {
				return err
			}
			rep = 3 + int(extra)
		default: // 18
			extra, err := z.br.readBits(7)
			if err != nil {
				return err
			}
			rep = 11 + int(extra)
		}
		if i+rep > total {
			return &DataFormatError{Reason: CodeLengthCodeOverFull, Offset: z.br.offset}
		}
		for j := 0; j < rep; j++ {
			z.lengths[i] = b
			i++
		}
	}

	litLens := z.lengths[:nlit]
	distLens := z.lengths[nlit : nlit+ndist]
	if litLens[endOfBlockSymbol] == 0 {
		return &DataFormatError{Reason: EndOfBlockCodeZeroLength, Offset: z.br.offset}
	}
	z.litTree, err = codeLengthsToTree(litLens)
	if err != nil {
		return z.stampOffset(err)
	}
	z.litTable = treeToTable(z.litTree, codeTableBits)

	z.distTree, z.distTable, err = z.buildDistTree(distLens)
	if err != nil {
		return err
	}
	z.mode = blockHuffman
	return nil
}

// buildDistTree handles the two degenerate distance codes: a single zero
// length means the block has no distance code at all, and exactly one
// 1-bit code is padded with an unusable sentinel symbol so the tree is
// full. Everything else builds normally.
func (z *Decompressor) buildDistTree(distLens []uint8) ([]int16, []int32, error) {
	if len(distLens) == 1 && distLens[0] == 0 {
		return nil, nil, nil
	}
	nonZero, only := 0, 0
	for sym, l := range distLens {
		if l > 0 {
			nonZero++
			only = sym
		}
	}
	if nonZero == 1 && distLens[only] == 1 {
		var padded [numDistSymbols]uint8
		copy(padded[:], distLens)
		dummy := 31
		if only == 31 {
			dummy = 30
		}
		padded[dummy] = 1
		tree, err := codeLengthsToTree(padded[:])
		if err != nil {
			return nil, nil, z.stampOffset(err)
		}
		return tree, treeToTable(tree, codeTableBits), nil
	}
	tree, err := codeLengthsToTree(distLens)
	if err != nil {
		return nil, nil, z.stampOffset(err)
	}
	return tree, treeToTable(tree, codeTableBits), nil
}

func (z *Decompressor) stampOffset(err error) error {
	if dfe, ok := err.(*DataFormatError); ok {
		dfe.Offset = z.br.offset
	}
	return err
}
