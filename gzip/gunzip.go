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

// Package gzip implements reading and writing of gzip format compressed
// files, as specified in RFC 1952, on top of this module's flate package.
package gzip

import (
	"hash"
	"hash/crc32"
	"io"
	"time"

	"github.com/coreos/deflate/flate"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4

	// Bits 5-7 of FLG are reserved and must be zero.
	flagReserved = 0xE0

	// OSUnknown is the OS byte for "unknown"; values 0 through 13 carry
	// RFC-assigned meanings.
	OSUnknown = 255
)

var osNames = map[byte]string{
	0:  "FAT filesystem",
	1:  "Amiga",
	2:  "VMS",
	3:  "Unix",
	4:  "VM/CMS",
	5:  "Atari TOS",
	6:  "HPFS filesystem",
	7:  "Macintosh",
	8:  "Z-System",
	9:  "CP/M",
	10: "TOPS-20",
	11: "NTFS filesystem",
	12: "QDOS",
	13: "Acorn RISCOS",
	OSUnknown: "unknown",
}

// The gzip file stores a header giving metadata about the compressed file.
// That header is exposed as the fields of the Writer and Reader structs.
type Header struct {
	Comment string    // comment
	Extra   []byte    // "extra data"
	ModTime time.Time // modification time
	Name    string    // file name
	OS      byte      // operating system type
}

// OperatingSystemName names the header's OS byte.
func (h *Header) OperatingSystemName() string {
	if s, ok := osNames[h.OS]; ok {
		return s
	}
	return "reserved"
}

func formatError(reason flate.Reason) error {
	return &flate.DataFormatError{Reason: reason, Offset: -1}
}

// A Reader is an io.Reader that can be read to retrieve uncompressed data
// from a gzip-format compressed file.
//
// In general, a gzip file can be a concatenation of gzip files, each with
// its own header. Reads from the Reader return the concatenation of the
// uncompressed data of each. Only the first header is recorded in the
// Reader fields.
//
// Gzip files store a length and checksum of the uncompressed data. The
// Reader reports DecompressedChecksumMismatch or DecompressedSizeMismatch
// when Read reaches the end of the uncompressed data and the trailer does
// not agree. Clients should treat data returned by Read as tentative until
// they receive the io.EOF marking the end of the data.
type Reader struct {
	Header
	r            flate.Reader
	decompressor *flate.Decompressor
	digest       hash.Hash32
	size         uint32
	flg          byte
	buf          [512]byte
	err          error
	multistream  bool
}

// NewReader creates a new Reader reading the given reader. If r does not
// also implement io.ByteReader, the Reader introduces its own buffering.
// After io.EOF a byte-oriented source is left positioned exactly past the
// gzip trailer. It is the caller's responsibility to call Close on the
// Reader when done.
func NewReader(r io.Reader) (*Reader, error) {
	z := new(Reader)
	z.r = flate.MakeReader(r)
	z.multistream = true
	z.digest = crc32.NewIEEE()
	if err := z.readHeader(true); err != nil {
		return nil, err
	}
	return z, nil
}

// Reset discards the Reader z's state and makes it equivalent to the
// result of its original state from NewReader, but reading from r instead.
// This permits reusing a Reader rather than allocating a new one.
func (z *Reader) Reset(r io.Reader) error {
	z.r = flate.MakeReader(r)
	z.digest.Reset()
	z.size = 0
	z.err = nil
	z.multistream = true
	return z.readHeader(true)
}

// Multistream controls whether the reader supports multistream files.
//
// If enabled (the default), the Reader expects the input to be a sequence
// of individually gzipped data streams, each with its own header and
// trailer, ending at EOF. The effect is that the concatenation of a
// sequence of gzipped files is treated as equivalent to the gzip of the
// concatenation of the sequence.
//
// Calling Multistream(false) disables this behavior, which is useful when
// reading file formats that mix gzip data streams with other data.
func (z *Reader) Multistream(ok bool) {
	z.multistream = ok
}

// GZIP (RFC 1952) is little-endian, unlike ZLIB (RFC 1950).
func get4(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func (z *Reader) readString() (string, error) {
	var raw []byte
	for {
		b, err := z.r.ReadByte()
		if err != nil {
			return "", noEOF(err)
		}
		if b == 0 {
			break
		}
		raw = append(raw, b)
	}
	// Strings are NUL-terminated ISO 8859-1 (Latin-1).
	s := make([]rune, 0, len(raw))
	for _, v := range raw {
		s = append(s, rune(v))
	}
	return string(s), nil
}

func (z *Reader) read2() (uint32, error) {
	_, err := io.ReadFull(z.r, z.buf[0:2])
	if err != nil {
		return 0, noEOF(err)
	}
	return uint32(z.buf[0]) | uint32(z.buf[1])<<8, nil
}

// noEOF maps a bare EOF inside a structure to the unexpected-end reason.
func noEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return formatError(flate.UnexpectedEndOfStream)
	}
	return err
}

func (z *Reader) readHeader(save bool) error {
	if _, err := io.ReadFull(z.r, z.buf[0:10]); err != nil {
		// A clean EOF here only matters to the multistream loop, which
		// wants to see it verbatim.
		if err == io.ErrUnexpectedEOF {
			return formatError(flate.UnexpectedEndOfStream)
		}
		return err
	}
	if z.buf[0] != gzipID1 || z.buf[1] != gzipID2 {
		return formatError(flate.GzipInvalidMagicNumber)
	}
	if z.buf[2] != gzipDeflate {
		return formatError(flate.UnsupportedCompressionMethod)
	}
	z.flg = z.buf[3]
	if z.flg&flagReserved != 0 {
		return formatError(flate.GzipReservedFlagsSet)
	}
	if z.buf[9] > 13 && z.buf[9] != OSUnknown {
		return formatError(flate.GzipUnsupportedOperatingSystem)
	}
	if save {
		z.ModTime = time.Unix(int64(get4(z.buf[4:8])), 0)
		// z.buf[8] is XFL, informational only.
		z.OS = z.buf[9]
	}
	z.digest.Reset()
	z.digest.Write(z.buf[0:10])

	if z.flg&flagExtra != 0 {
		n, err := z.read2()
		if err != nil {
			return err
		}
		z.digest.Write(z.buf[0:2])
		data := make([]byte, n)
		if _, err = io.ReadFull(z.r, data); err != nil {
			return noEOF(err)
		}
		z.digest.Write(data)
		if save {
			z.Extra = data
		}
	}

	var s string
	var err error
	if z.flg&flagName != 0 {
		if s, err = z.readString(); err != nil {
			return err
		}
		z.digest.Write(append([]byte(latin1(s)), 0))
		if save {
			z.Name = s
		}
	}

	if z.flg&flagComment != 0 {
		if s, err = z.readString(); err != nil {
			return err
		}
		z.digest.Write(append([]byte(latin1(s)), 0))
		if save {
			z.Comment = s
		}
	}

	if z.flg&flagHdrCrc != 0 {
		sum := z.digest.Sum32() & 0xFFFF
		n, err := z.read2()
		if err != nil {
			return err
		}
		if n != sum {
			return formatError(flate.HeaderChecksumMismatch)
		}
	}

	z.digest.Reset()
	if z.decompressor == nil {
		z.decompressor = flate.NewReader(z.r)
	} else {
		z.decompressor.Reset(z.r)
	}
	return nil
}

// latin1 converts a decoded header string back to its wire bytes.
func latin1(s string) []byte {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		b = append(b, byte(r))
	}
	return b
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
	z.size += uint32(n)
	if n != 0 || err != io.EOF {
		z.err = err
		return
	}

	// Finished the deflate stream; check checksum and size.
	if _, err := io.ReadFull(z.r, z.buf[0:8]); err != nil {
		z.err = noEOF(err)
		return 0, z.err
	}
	crc, isize := get4(z.buf[0:4]), get4(z.buf[4:8])
	if crc != z.digest.Sum32() {
		z.err = formatError(flate.DecompressedChecksumMismatch)
		return 0, z.err
	}
	if isize != z.size {
		z.err = formatError(flate.DecompressedSizeMismatch)
		return 0, z.err
	}

	// File is ok; is there another?
	if !z.multistream {
		z.err = io.EOF
		return 0, io.EOF
	}
	if err = z.readHeader(false); err != nil {
		z.err = err
		return
	}
	z.digest.Reset()
	z.size = 0
	return z.Read(p)
}

// Close closes the Reader. It does not close the underlying io.Reader.
func (z *Reader) Close() error {
	if z.decompressor == nil {
		return nil
	}
	return z.decompressor.Close()
}
