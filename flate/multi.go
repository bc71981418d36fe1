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

// MultiStrategy evaluates every sub-strategy on the same window and emits
// whichever Decision is cheapest at the writer's bit position when the
// block is actually written.
type MultiStrategy struct {
	Strategies []Strategy
}

func (m *MultiStrategy) Decide(window []byte, historyLen, dataLen int) Decision {
	children := make([]Decision, len(m.Strategies))
	for i, s := range m.Strategies {
		children[i] = s.Decide(window, historyLen, dataLen)
	}
	return &multiDecision{children: children}
}

type multiDecision struct {
	children []Decision
}

func (d *multiDecision) BitLengths() [8]int64 {
	var lens [8]int64
	for pos := 0; pos < 8; pos++ {
		best := int64(-1)
		for _, c := range d.children {
			if b := c.BitLengths()[pos]; best < 0 || b < best {
				best = b
			}
		}
		lens[pos] = best
	}
	return lens
}

func (d *multiDecision) CompressTo(bw *BitWriter, final bool) error {
	pos := bw.BitPosition()
	var best Decision
	bestBits := int64(-1)
	for _, c := range d.children {
		if b := c.BitLengths()[pos]; bestBits < 0 || b < bestBits {
			best, bestBits = c, b
		}
	}
	return best.CompressTo(bw, final)
}

// BinarySplit recursively halves the data region and keeps a split
// whenever the two halves emit in fewer total bits than the region as one
// block. MinimumBlockLength bounds the recursion. Sub-decisions are
// computed once in Decide and reused when the chosen tree is emitted.
type BinarySplit struct {
	Inner              Strategy
	MinimumBlockLength int
}

func (s *BinarySplit) Decide(window []byte, historyLen, dataLen int) Decision {
	min := s.MinimumBlockLength
	if min < 1 {
		min = 1
	}
	whole := s.Inner.Decide(window, historyLen, dataLen)
	if dataLen < 2*min {
		return whole
	}
	half := dataLen / 2
	// The right half sees the left half as additional history.
	left := s.Decide(window, historyLen, half)
	right := s.Decide(window, historyLen+half, dataLen-half)
	return &splitDecision{whole: whole, left: left, right: right}
}

type splitDecision struct {
	whole, left, right Decision
}

// splitCost chains the halves' costs through the writer's bit position:
// the right half starts wherever the left half ends.
func (d *splitDecision) splitCost(pos int) int64 {
	lb := d.left.BitLengths()[pos]
	rb := d.right.BitLengths()[(int64(pos)+lb)%8]
	return lb + rb
}

func (d *splitDecision) BitLengths() [8]int64 {
	var lens [8]int64
	for pos := 0; pos < 8; pos++ {
		w := d.whole.BitLengths()[pos]
		s := d.splitCost(pos)
		if s < w {
			lens[pos] = s
		} else {
			lens[pos] = w
		}
	}
	return lens
}

func (d *splitDecision) CompressTo(bw *BitWriter, final bool) error {
	pos := int(bw.BitPosition())
	if d.whole.BitLengths()[pos] <= d.splitCost(pos) {
		return d.whole.CompressTo(bw, final)
	}
	if err := d.left.CompressTo(bw, false); err != nil {
		return err
	}
	return d.right.CompressTo(bw, final)
}
