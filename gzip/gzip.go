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

package gzip

import (
	"errors"
	"hash"
	"hash/crc32"
	"io"

	"github.com/coreos/deflate/flate"
)

// ErrHeaderString is returned when a Name or Comment cannot be represented
// in ISO 8859-1 or contains a NUL byte.
var ErrHeaderString = errors.New("gzip: non-Latin-1 header string")

// A Writer is an io.WriteCloser. Writes to a Writer are compressed and
// written to w as a single gzip stream; metadata set on the embedded Header
// before the first Write is recorded in the stream's header.
type Writer struct {
	Header
	// HeaderCRC records the FHCRC 16-bit header checksum when set before
	// the first Write.
	HeaderCRC bool

	w           io.Writer
	compressor  *flate.Compressor
	digest      hash.Hash32
	size        uint32
	wroteHeader bool
	closed      bool
	err         error
}

// NewWriter returns a Writer compressing with the default flate strategy.
// The Header's OS defaults to unknown.
func NewWriter(w io.Writer) *Writer {
	z, err := NewWriterStrategy(w, flate.DefaultStrategy(), 65536)
	if err != nil {
		panic(err)
	}
	return z
}

// NewWriterStrategy is like NewWriter with an explicit block strategy and
// strategy buffer length.
func NewWriterStrategy(w io.Writer, strategy flate.Strategy, blockLen int) (*Writer, error) {
	fw, err := flate.NewWriterStrategy(w, strategy, 32768, blockLen)
	if err != nil {
		return nil, err
	}
	return &Writer{
		Header:     Header{OS: OSUnknown},
		w:          w,
		compressor: fw,
		digest:     crc32.NewIEEE(),
	}, nil
}

func put2(p []byte, v uint16) {
	p[0] = byte(v)
	p[1] = byte(v >> 8)
}

func put4(p []byte, v uint32) {
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	p[2] = byte(v >> 16)
	p[3] = byte(v >> 24)
}

// wireString validates and converts a header string to NUL-terminated
// Latin-1 bytes.
func wireString(s string) ([]byte, error) {
	b := make([]byte, 0, len(s)+1)
	for _, r := range s {
		if r == 0 || r > 0xFF {
			return nil, ErrHeaderString
		}
		b = append(b, byte(r))
	}
	return append(b, 0), nil
}

func (z *Writer) writeHeader() error {
	var hdr [10]byte
	hdr[0] = gzipID1
	hdr[1] = gzipID2
	hdr[2] = gzipDeflate
	var flg byte
	if z.HeaderCRC {
		flg |= flagHdrCrc
	}
	if len(z.Extra) > 0 {
		flg |= flagExtra
	}
	if z.Name != "" {
		flg |= flagName
	}
	if z.Comment != "" {
		flg |= flagComment
	}
	hdr[3] = flg
	if !z.ModTime.IsZero() && z.ModTime.Unix() > 0 {
		put4(hdr[4:8], uint32(z.ModTime.Unix()))
	}
	// hdr[8] is XFL, left zero.
	hdr[9] = z.OS

	hcrc := crc32.NewIEEE()
	out := append([]byte{}, hdr[:]...)
	if flg&flagExtra != 0 {
		if len(z.Extra) > 0xFFFF {
			return errors.New("gzip: extra data too long")
		}
		var n [2]byte
		put2(n[:], uint16(len(z.Extra)))
		out = append(out, n[:]...)
		out = append(out, z.Extra...)
	}
	if flg&flagName != 0 {
		b, err := wireString(z.Name)
		if err != nil {
			return err
		}
		out = append(out, b...)
	}
	if flg&flagComment != 0 {
		b, err := wireString(z.Comment)
		if err != nil {
			return err
		}
		out = append(out, b...)
	}
	if flg&flagHdrCrc != 0 {
		hcrc.Write(out)
		var n [2]byte
		put2(n[:], uint16(hcrc.Sum32()&0xFFFF))
		out = append(out, n[:]...)
	}
	_, err := z.w.Write(out)
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
	z.size += uint32(len(p))
	n, err := z.compressor.Write(p)
	if err != nil {
		z.err = err
	}
	return n, err
}

// Close finishes the compressed stream and writes the CRC-32 and size
// trailer. It does not close the underlying io.Writer.
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
	var trailer [8]byte
	put4(trailer[0:4], z.digest.Sum32())
	put4(trailer[4:8], z.size)
	if _, err := z.w.Write(trailer[:]); err != nil {
		z.err = err
		return err
	}
	return nil
}
