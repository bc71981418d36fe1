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

// Fixed Huffman codes from RFC 1951 section 3.2.6. The tables are immutable
// after init and shared by the inflater and the static-code strategies.

var (
	fixedLitLenLengths [numLitLenSymbols]uint8
	fixedDistLengths   [numDistSymbols]uint8

	fixedLitLenTree  []int16
	fixedLitLenTable []int32
	fixedDistTree    []int16
	fixedDistTable   []int32

	fixedLitLenCode *canonicalCode
	fixedDistCode   *canonicalCode
)

func init() {
	for i := range fixedLitLenLengths {
		switch {
		case i < 144:
			fixedLitLenLengths[i] = 8
		case i < 256:
			fixedLitLenLengths[i] = 9
		case i < 280:
			fixedLitLenLengths[i] = 7
		default:
			fixedLitLenLengths[i] = 8
		}
	}
	for i := range fixedDistLengths {
		fixedDistLengths[i] = 5
	}

	var err error
	fixedLitLenTree, err = codeLengthsToTree(fixedLitLenLengths[:])
	if err != nil {
		panic(err)
	}
	fixedDistTree, err = codeLengthsToTree(fixedDistLengths[:])
	if err != nil {
		panic(err)
	}
	fixedLitLenTable = treeToTable(fixedLitLenTree, codeTableBits)
	fixedDistTable = treeToTable(fixedDistTree, codeTableBits)

	fixedLitLenCode, err = newCanonicalCode(fixedLitLenLengths[:])
	if err != nil {
		panic(err)
	}
	fixedDistCode, err = newCanonicalCode(fixedDistLengths[:])
	if err != nil {
		panic(err)
	}
}
