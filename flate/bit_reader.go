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

import (
	"bufio"
	"io"
)

// Reader is the interface the decompressor needs from its byte source.
// If the passed in io.Reader does not also have ReadByte, MakeReader
// introduces its own buffering.
type Reader interface {
	io.Reader
	io.ByteReader
}

// MakeReader adapts an arbitrary io.Reader into a Reader.
func MakeReader(r io.Reader) Reader {
	if rr, ok := r.(Reader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

// bitReader pulls little-endian bytes from a byte source on demand and
// serves them out N bits at a time, earliest input bit in the lowest
// position. Bytes are only requested when the buffered bits cannot satisfy
// the current read, so after any consume fewer than 8 bits remain buffered
// and the source is never positioned more than one partially-used byte past
// the consumed bits. The container formats rely on that to read their
// trailers from the same source.
type bitReader struct {
	rd     Reader
	bits   uint64 // invariant: bits at and above nbits are zero
	nbits  uint
	offset int64 // bytes fed from rd
}

func (br *bitReader) init(r Reader) {
	*br = bitReader{rd: r}
}

// feed loads one more byte from the source into the bit buffer.
func (br *bitReader) feed() error {
	c, err := br.rd.ReadByte()
	if err != nil {
		if err == io.EOF {
			return &DataFormatError{Reason: UnexpectedEndOfStream, Offset: br.offset}
		}
		return &ReadError{Offset: br.offset, Err: err}
	}
	br.bits |= uint64(c) << br.nbits
	br.nbits += 8
	br.offset++
	return nil
}

// readBits returns the next n bits, 0 <= n <= 31.
func (br *bitReader) readBits(n uint) (uint32, error) {
	for br.nbits < n {
		if err := br.feed(); err != nil {
			return 0, err
		}
	}
	v := uint32(br.bits & (1<<n - 1))
	br.bits >>= n
	br.nbits -= n
	return v, nil
}

// alignToByte discards bits up to the next byte boundary. Must be called
// before reading a stored block's length fields or its payload.
func (br *bitReader) alignToByte() {
	drop := br.nbits % 8
	br.bits >>= drop
	br.nbits -= drop
}

// readAlignedByte reads one whole byte. The reader must be byte aligned.
func (br *bitReader) readAlignedByte() (byte, error) {
	if br.nbits%8 != 0 {
		return 0, InternalError("unaligned byte read")
	}
	if br.nbits >= 8 {
		b := byte(br.bits)
		br.bits >>= 8
		br.nbits -= 8
		return b, nil
	}
	c, err := br.rd.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, &DataFormatError{Reason: UnexpectedEndOfStream, Offset: br.offset}
		}
		return 0, &ReadError{Offset: br.offset, Err: err}
	}
	br.offset++
	return c, nil
}

// bufferedBytes reports how many whole unconsumed bytes sit in the bit
// buffer. A byte with any bit consumed counts as fully consumed.
func (br *bitReader) bufferedBytes() int64 {
	return int64(br.nbits / 8)
}
