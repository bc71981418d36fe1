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

// RFC 1951 section 3.2.5 alphabets.

const (
	endOfBlockSymbol = 256

	numLitLenSymbols = 288 // 286 used + 2 reserved
	numDistSymbols   = 32  // 30 used + 2 reserved

	// numCLSymbols is the size of the code-length meta-alphabet.
	numCLSymbols = 19

	minMatchLength = 3
	maxMatchLength = 258
	minMatchDist   = 1
	maxMatchDist   = 32768
)

// clCodeOrder is the transmission order of the code-length code lengths.
var clCodeOrder = [numCLSymbols]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBases[sym-257] is the smallest match length encoded by length
// symbol sym; lengthExtraBits[sym-257] extra bits select within the range.
var lengthBases = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [29]uint{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var distBases = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = [30]uint{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// lengthToSymbol maps a match length in [3, 258] to its length symbol and
// the extra bits that follow it.
func lengthToSymbol(length int) (sym int, extra uint32, ebits uint) {
	if length == maxMatchLength {
		return 285, 0, 0
	}
	i := 27
	for lengthBases[i] > length {
		i--
	}
	return 257 + i, uint32(length - lengthBases[i]), lengthExtraBits[i]
}

// distanceToSymbol maps a match distance in [1, 32768] to its distance
// symbol and the extra bits that follow it.
func distanceToSymbol(dist int) (sym int, extra uint32, ebits uint) {
	i := 29
	for distBases[i] > dist {
		i--
	}
	return i, uint32(dist - distBases[i]), distExtraBits[i]
}
