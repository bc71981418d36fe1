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
	"fmt"
	"io"
)

// defaultBlockLen is how much data a Compressor buffers before it asks its
// Strategy for a Decision.
const defaultBlockLen = 65536

// Compressor is the push-side facade: bytes written accumulate in a window
// until it fills, then the configured Strategy picks an encoding for the
// buffered data and the Decision is emitted. The tail of each flushed
// buffer is kept as history for LZ77 look-back in later blocks.
type Compressor struct {
	bw         BitWriter
	strategy   Strategy
	window     []byte // history then pending data
	historyCap int
	blockLen   int
	historyLen int
	dataLen    int
	closed     bool
}

// NewWriter returns a Compressor with the default strategy and window
// geometry, writing the compressed stream to w.
func NewWriter(w io.Writer) *Compressor {
	c, err := NewWriterStrategy(w, DefaultStrategy(), maxHist, defaultBlockLen)
	if err != nil {
		panic(err)
	}
	return c
}

// NewWriterStrategy returns a Compressor that keeps up to historyCap bytes
// of look-back and invokes strategy every blockLen bytes of input.
func NewWriterStrategy(w io.Writer, strategy Strategy, historyCap, blockLen int) (*Compressor, error) {
	if strategy == nil {
		return nil, fmt.Errorf("flate: nil strategy")
	}
	if historyCap < 0 || historyCap > maxHist {
		return nil, fmt.Errorf("flate: history capacity %d outside [0, %d]", historyCap, maxHist)
	}
	if blockLen < 1 || blockLen > 1<<30-historyCap {
		return nil, fmt.Errorf("flate: invalid block length %d", blockLen)
	}
	c := &Compressor{
		strategy:   strategy,
		window:     make([]byte, historyCap+blockLen),
		historyCap: historyCap,
		blockLen:   blockLen,
	}
	c.bw.init(w)
	return c, nil
}

// DefaultStrategy is a reasonable general-purpose composition: per block
// the cheapest of a stored block, fixed-code RLE and dynamic-code RLE,
// under a recursive splitter.
func DefaultStrategy() Strategy {
	return &BinarySplit{
		Inner: &MultiStrategy{Strategies: []Strategy{
			Uncompressed{},
			StaticHuffmanRLE{},
			DynamicHuffmanRLE{},
		}},
		MinimumBlockLength: 4096,
	}
}

// Reset discards all state and starts a fresh stream to w.
func (c *Compressor) Reset(w io.Writer) {
	c.bw.init(w)
	c.historyLen = 0
	c.dataLen = 0
	c.closed = false
}

func (c *Compressor) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if err := c.bw.Err(); err != nil {
		return 0, err
	}
	n := 0
	for len(p) > 0 {
		m := copy(c.window[c.historyLen+c.dataLen:c.historyLen+c.blockLen], p)
		c.dataLen += m
		p = p[m:]
		n += m
		if c.dataLen == c.blockLen {
			if err := c.flushBlock(false); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (c *Compressor) WriteByte(b byte) error {
	var buf [1]byte
	buf[0] = b
	_, err := c.Write(buf[:])
	return err
}

// Close emits the final block (an empty one when no data is pending, so a
// Close in the middle of a run still terminates the stream with bfinal=1),
// byte-aligns the output and flushes. It does not close the underlying
// sink. Close is idempotent.
func (c *Compressor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.flushBlock(true); err != nil {
		return err
	}
	return c.bw.Finish()
}

func (c *Compressor) flushBlock(final bool) error {
	d := c.strategy.Decide(c.window[:c.historyLen+c.dataLen], c.historyLen, c.dataLen)
	if err := d.CompressTo(&c.bw, final); err != nil {
		return err
	}
	keep := c.historyLen + c.dataLen
	if keep > c.historyCap {
		keep = c.historyCap
	}
	copy(c.window[:keep], c.window[c.historyLen+c.dataLen-keep:c.historyLen+c.dataLen])
	c.historyLen = keep
	c.dataLen = 0
	return nil
}
