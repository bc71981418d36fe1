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
	"errors"
	"strconv"
)

// Reason classifies why a compressed stream was rejected. The values cover
// both the raw DEFLATE layer and the gzip/zlib container layers, which reuse
// this package's error machinery.
type Reason int

const (
	UnexpectedEndOfStream Reason = iota
	ReservedBlockType
	UncompressedBlockLengthMismatch
	HuffmanCodeUnderFull
	HuffmanCodeOverFull
	NoPreviousCodeLengthToCopy
	CodeLengthCodeOverFull
	EndOfBlockCodeZeroLength
	ReservedLengthSymbol
	ReservedDistanceSymbol
	LengthEncounteredWithEmptyDistanceCode
	CopyFromBeforeDictionaryStart
	HeaderChecksumMismatch
	UnsupportedCompressionMethod
	DecompressedChecksumMismatch
	DecompressedSizeMismatch
	GzipInvalidMagicNumber
	GzipReservedFlagsSet
	GzipUnsupportedOperatingSystem
)

var reasonStrings = map[Reason]string{
	UnexpectedEndOfStream:                  "unexpected end of stream",
	ReservedBlockType:                      "reserved block type",
	UncompressedBlockLengthMismatch:        "uncompressed block length mismatch",
	HuffmanCodeUnderFull:                   "huffman code under-full",
	HuffmanCodeOverFull:                    "huffman code over-full",
	NoPreviousCodeLengthToCopy:             "no previous code length to copy",
	CodeLengthCodeOverFull:                 "code length code over-full",
	EndOfBlockCodeZeroLength:               "end-of-block code has zero length",
	ReservedLengthSymbol:                   "reserved length symbol",
	ReservedDistanceSymbol:                 "reserved distance symbol",
	LengthEncounteredWithEmptyDistanceCode: "length encountered with empty distance code",
	CopyFromBeforeDictionaryStart:          "copy from before dictionary start",
	HeaderChecksumMismatch:                 "header checksum mismatch",
	UnsupportedCompressionMethod:           "unsupported compression method",
	DecompressedChecksumMismatch:           "decompressed checksum mismatch",
	DecompressedSizeMismatch:               "decompressed size mismatch",
	GzipInvalidMagicNumber:                 "gzip invalid magic number",
	GzipReservedFlagsSet:                   "gzip reserved flags set",
	GzipUnsupportedOperatingSystem:         "gzip unsupported operating system",
}

func (r Reason) String() string {
	if s, ok := reasonStrings[r]; ok {
		return s
	}
	return "unknown reason " + strconv.Itoa(int(r))
}

// A DataFormatError reports corrupt or malformed compressed data at a given
// byte offset into the input. The container layers use a negative offset
// when they do not track one.
type DataFormatError struct {
	Reason Reason
	Offset int64 // bytes consumed from the input when the corruption was found
}

func (e *DataFormatError) Error() string {
	if e.Offset < 0 {
		return "flate: " + e.Reason.String()
	}
	return "flate: " + e.Reason.String() + " at offset " + strconv.FormatInt(e.Offset, 10)
}

// An InternalError reports an error in the flate code itself.
type InternalError string

func (e InternalError) Error() string { return "flate: internal error: " + string(e) }

// A ReadError reports an error encountered while reading input.
type ReadError struct {
	Offset int64 // byte offset where error occurred
	Err    error // error returned by underlying Read
}

func (e *ReadError) Error() string {
	return "flate: read error at offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Err.Error()
}

// A WriteError reports an error encountered while writing output.
type WriteError struct {
	Offset int64 // byte offset where error occurred
	Err    error // error returned by underlying Write
}

func (e *WriteError) Error() string {
	return "flate: write error at offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Err.Error()
}

// ErrClosed is returned by operations on a Reader or Writer after Close.
// Unlike DataFormatError it reports caller misuse and is never latched.
var ErrClosed = errors.New("flate: use after close")
