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

import "fmt"

// Lz77Huffman finds back-references with a greedy exhaustive match search
// and encodes the resulting token stream with either the fixed code or a
// per-block dynamic code.
type Lz77Huffman struct {
	minLength, maxLength     int
	minDistance, maxDistance int
	dynamic                  bool
}

// NewLz77Huffman validates the match bounds: lengths within [3, 258],
// distances within [1, 32768], minima not above maxima.
func NewLz77Huffman(minLength, maxLength, minDistance, maxDistance int, dynamic bool) (*Lz77Huffman, error) {
	if minLength < minMatchLength || maxLength > maxMatchLength || minLength > maxLength {
		return nil, fmt.Errorf("flate: match length bounds [%d, %d] outside [%d, %d]",
			minLength, maxLength, minMatchLength, maxMatchLength)
	}
	if minDistance < minMatchDist || maxDistance > maxMatchDist || minDistance > maxDistance {
		return nil, fmt.Errorf("flate: match distance bounds [%d, %d] outside [%d, %d]",
			minDistance, maxDistance, minMatchDist, maxMatchDist)
	}
	return &Lz77Huffman{
		minLength:   minLength,
		maxLength:   maxLength,
		minDistance: minDistance,
		maxDistance: maxDistance,
		dynamic:     dynamic,
	}, nil
}

func (s *Lz77Huffman) Decide(window []byte, historyLen, dataLen int) Decision {
	tokens := s.tokenize(window, historyLen, dataLen)
	if s.dynamic {
		return newDynamicDecision(tokens)
	}
	return newStaticDecision(tokens)
}

// tokenize scans the data region greedily. At each position every candidate
// distance up to the search bound is tried and the longest match wins, ties
// going to the smallest distance. Matches may overlap their own output
// (dist < length), which the decoder's byte-by-byte copy reproduces.
func (s *Lz77Huffman) tokenize(window []byte, historyLen, dataLen int) []token {
	var tokens []token
	end := historyLen + dataLen
	for i := historyLen; i < end; {
		maxD := s.maxDistance
		if maxD > i {
			maxD = i
		}
		maxL := s.maxLength
		if maxL > end-i {
			maxL = end - i
		}
		bestLen, bestDist := 0, 0
		for d := s.minDistance; d <= maxD; d++ {
			l := 0
			for l < maxL && window[i+l-d] == window[i+l] {
				l++
			}
			if l > bestLen {
				bestLen, bestDist = l, d
			}
			if bestLen == maxL {
				break
			}
		}
		if bestLen >= s.minLength {
			tokens = append(tokens, matchToken(bestLen, bestDist))
			i += bestLen
		} else {
			tokens = append(tokens, literalToken(window[i]))
			i++
		}
	}
	return tokens
}
