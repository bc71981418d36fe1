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

// Package zlib implements reading and writing of zlib format compressed
// data, as specified in RFC 1950, on top of this module's flate package.
package zlib

import (
	"errors"
	"hash"
	"hash/adler32"
	"io"

	"github.com/coreos/deflate/flate"
)

const (
	zlibDeflate  = 8
	zlibMaxCinfo = 7
	zlibFdict    = 1 << 5
)

// ErrDictionary is returned when the stream requires a preset dictionary,
// which this package does not support.
var ErrDictionary = errors.New("zlib: preset dictionary not supported")

func formatError(reason flate.Reason) error {
	return &flate.DataFormatError{Reason: reason, Offset: -1}
}

func noEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return formatError(flate.UnexpectedEndOfStream)
	}
	return err
}

// Reader decompresses a zlib stream. The Adler-32 trailer is verified when
// the deflate stream ends; mismatches surface as
// DecompressedChecksumMismatch.
type Reader struct {
	r            flate.Reader
	decompressor *flate.Decompressor
	digest       hash.Hash32
	err          error
	buf          [4]byte
}

// NewReader creates a new Reader reading the given reader. If r does not
// also implement io.ByteReader, the Reader introduces its own buffering.
// After io.EOF a byte-oriented source is left positioned exactly past the
// Adler-32 trailer. It is the caller's responsibility to call Close on the
// Reader when done.
func NewReader(r io.Reader) (*Reader, error) {
	z := new(Reader)
	if err := z.Reset(r); err != nil {
		return nil, err
	}
	return z, nil
}

// Reset discards the Reader's state and reads a new stream header from r.
func (z *Reader) Reset(r io.Reader) error {
	z.r = flate.MakeReader(r)
	z.err = nil
	if err := z.readHeader(); err != nil {
		return err
	}
	if z.digest == nil {
		z.digest = adler32.New()
	} else {
		z.digest.Reset()
	}
	if z.decompressor == nil {
		z.decompressor = flate.NewReader(z.r)
	} else {
		z.decompressor.Reset(z.r)
	}
	return nil
}

func (z *Reader) readHeader() error {
	if _, err := io.ReadFull(z.r, z.buf[0:2]); err != nil {
		return noEOF(err)
	}
	cmf, flg := z.buf[0], z.buf[1]
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return formatError(flate.HeaderChecksumMismatch)
	}
	if cmf&0x0F != zlibDeflate || cmf>>4 > zlibMaxCinfo {
		return formatError(flate.UnsupportedCompressionMethod)
	}
	if flg&zlibFdict != 0 {
		// A 4-byte dictionary id follows; presets are out of scope.
		if _, err := io.ReadFull(z.r, z.buf[0:4]); err != nil {
			return noEOF(err)
		}
		return ErrDictionary
	}
	return nil
}

func (z *Reader) Read(p []byte) (n int, err error) {
	if z.err != nil {
		return 0, z.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err = z.decompressor.Read(p)
	z.digest.Write(p[0:n])
	if n != 0 || err != io.EOF {
		z.err = err
		return
	}

	// Deflate stream done; the trailer is the big-endian Adler-32 of the
	// uncompressed data.
	if _, err := io.ReadFull(z.r, z.buf[0:4]); err != nil {
		z.err = noEOF(err)
		return 0, z.err
	}
	sum := uint32(z.buf[0])<<24 | uint32(z.buf[1])<<16 | uint32(z.buf[2])<<8 | uint32(z.buf[3])
	if sum != z.digest.Sum32() {
		z.err = formatError(flate.DecompressedChecksumMismatch)
		return 0, z.err
	}
	z.err = io.EOF
	return 0, io.EOF
}

// Close closes the Reader. It does not close the underlying io.Reader.
func (z *Reader) Close() error {
	if z.decompressor == nil {
		return nil
	}
	return z.decompressor.Close()
}

// A Writer compresses data to w in the zlib format.
type Writer struct {
	w           io.Writer
	compressor  *flate.Compressor
	digest      hash.Hash32
	wroteHeader bool
	closed      bool
	err         error
	flevel      byte
}

// NewWriter returns a Writer compressing with the default flate strategy.
func NewWriter(w io.Writer) *Writer {
	z, err := NewWriterStrategy(w, flate.DefaultStrategy())
	if err != nil {
		panic(err)
	}
	return z
}

// NewWriterStrategy is like NewWriter with an explicit block strategy.
func NewWriterStrategy(w io.Writer, strategy flate.Strategy) (*Writer, error) {
	fw, err := flate.NewWriterStrategy(w, strategy, 32768, 65536)
	if err != nil {
		return nil, err
	}
	return &Writer{
		w:          w,
		compressor: fw,
		digest:     adler32.New(),
		flevel:     2, // default algorithm
	}, nil
}

func (z *Writer) writeHeader() error {
	cmf := byte(zlibMaxCinfo<<4 | zlibDeflate)
	flg := z.flevel << 6
	// FCHECK makes the header a multiple of 31.
	rem := (uint16(cmf)<<8 | uint16(flg)) % 31
	if rem != 0 {
		flg += byte(31 - rem)
	}
	_, err := z.w.Write([]byte{cmf, flg})
	return err
}

func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if z.closed {
		return 0, flate.ErrClosed
	}
	if !z.wroteHeader {
		z.wroteHeader = true
		if err := z.writeHeader(); err != nil {
			z.err = err
			return 0, err
		}
	}
	z.digest.Write(p)
	n, err := z.compressor.Write(p)
	if err != nil {
		z.err = err
	}
	return n, err
}

// Close finishes the compressed stream and writes the Adler-32 trailer.
// It does not close the underlying io.Writer.
func (z *Writer) Close() error {
	if z.err != nil {
		return z.err
	}
	if z.closed {
		return nil
	}
	z.closed = true
	if !z.wroteHeader {
		z.wroteHeader = true
		if err := z.writeHeader(); err != nil {
			z.err = err
			return err
		}
	}
	if err := z.compressor.Close(); err != nil {
		z.err = err
		return err
	}
	sum := z.digest.Sum32()
	trailer := []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	if _, err := z.w.Write(trailer); err != nil {
		z.err = err
		return err
	}
	return nil
}
