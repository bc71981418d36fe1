package flate

import (
	"math/rand"
	"testing"
)

func TestCodeLengthsToTreeFixedLitLen(t *testing.T) {
	tree, err := codeLengthsToTree(fixedLitLenLengths[:])
	if err != nil {
		t.Fatalf("fixed literal/length code did not build: %v", err)
	}
	// Symbol 256 owns the all-zero 7-bit code; walking seven left branches
	// must land on it.
	node := int16(0)
	for i := 0; i < 6; i++ {
		v := tree[node]
		if v < 0 {
			t.Fatalf("leaf %d reached after %d bits, want internal node", ^v, i+1)
		}
		node = v
	}
	if got := tree[node]; got != int16(^256) {
		t.Fatalf("symbol after 7 zero bits = %d, want 256", ^got)
	}
}

func TestCodeLengthsToTreeRejects(t *testing.T) {
	tests := []struct {
		name    string
		lengths []uint8
		reason  Reason
	}{
		{"empty", []uint8{0, 0, 0}, HuffmanCodeUnderFull},
		{"single", []uint8{0, 1, 0}, HuffmanCodeUnderFull},
		{"underfull pair", []uint8{1, 2}, HuffmanCodeUnderFull},
		{"underfull deep", []uint8{0, 0, 1, 0}, HuffmanCodeUnderFull},
		{"overfull", []uint8{1, 1, 1, 0}, HuffmanCodeOverFull},
		{"overfull deep", []uint8{1, 2, 2, 2}, HuffmanCodeOverFull},
	}
	for _, tt := range tests {
		_, err := codeLengthsToTree(tt.lengths)
		dfe, ok := err.(*DataFormatError)
		if !ok {
			t.Errorf("%s: err = %v, want DataFormatError", tt.name, err)
			continue
		}
		if dfe.Reason != tt.reason {
			t.Errorf("%s: reason = %v, want %v", tt.name, dfe.Reason, tt.reason)
		}
	}
}

// decodeWithTree walks a tree over an explicit bit string, as a reference
// for the table fast path.
func decodeWithTree(t *testing.T, tree []int16, bits []int) (sym, used int) {
	node := int16(0)
	for i, b := range bits {
		v := tree[int(node)+b]
		if v < 0 {
			return int(^v), i + 1
		}
		node = v
	}
	t.Fatalf("bit string %v too short for tree", bits)
	return 0, 0
}

func TestTreeToTableMatchesTree(t *testing.T) {
	lengths := []uint8{3, 3, 3, 3, 3, 2, 4, 4} // RFC 1951 section 3.2.2 example
	tree, err := codeLengthsToTree(lengths)
	if err != nil {
		t.Fatal(err)
	}
	table := treeToTable(tree, codeTableBits)
	for idx := 0; idx < 1<<codeTableBits; idx++ {
		bits := make([]int, codeTableBits)
		for i := range bits {
			bits[i] = idx >> uint(i) & 1
		}
		wantSym, wantUsed := decodeWithTree(t, tree, bits)
		e := table[idx]
		n := int(e & 15)
		v := e >> 4
		if v >= 0 {
			t.Fatalf("index %#x: internal entry for a 4-bit-max code", idx)
		}
		if int(^v) != wantSym || n != wantUsed {
			t.Fatalf("index %#x: table (sym=%d, used=%d), tree (sym=%d, used=%d)",
				idx, ^v, n, wantSym, wantUsed)
		}
	}
}

// Round-trip every symbol of a canonical code through the decoder tree.
func TestCanonicalCodeInverse(t *testing.T) {
	lengths := []uint8{2, 3, 3, 4, 4, 4, 4, 2}
	code, err := newCanonicalCode(lengths)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := codeLengthsToTree(lengths)
	if err != nil {
		t.Fatal(err)
	}
	for sym, l := range lengths {
		word := code.codes[sym]
		bits := make([]int, l)
		for i := range bits {
			bits[i] = int(word >> uint(i) & 1)
		}
		got, used := decodeWithTree(t, tree, bits)
		if got != sym || used != int(l) {
			t.Errorf("symbol %d: decoded to %d in %d bits, want %d in %d", sym, got, used, sym, l)
		}
	}
}

func TestCanonicalCodeRejectsPartial(t *testing.T) {
	if _, err := newCanonicalCode([]uint8{1, 2, 0}); err == nil {
		t.Error("under-full lengths accepted")
	}
	if _, err := newCanonicalCode([]uint8{1, 1, 1}); err == nil {
		t.Error("over-full lengths accepted")
	}
}

func TestPackageMergeLengths(t *testing.T) {
	freqs := []int64{0, 10, 1, 1, 30, 0, 8}
	lengths := packageMergeLengths(freqs, maxCodeLength)

	kraft := 0
	for sym, l := range lengths {
		if (l == 0) != (freqs[sym] == 0) {
			t.Fatalf("symbol %d: length %d for frequency %d", sym, l, freqs[sym])
		}
		if l > 0 {
			kraft += 1 << uint(maxCodeLength-int(l))
		}
	}
	if kraft != 1<<maxCodeLength {
		t.Fatalf("Kraft sum %d/32768, want exactly full", kraft)
	}
	// More frequent symbols never get longer codes.
	if lengths[4] > lengths[1] || lengths[1] > lengths[2] {
		t.Fatalf("lengths %v not monotone against frequencies %v", lengths, freqs)
	}
}

func TestPackageMergeRespectsLimit(t *testing.T) {
	// Fibonacci-ish frequencies force very skewed unlimited codes.
	freqs := make([]int64, 19)
	a, b := int64(1), int64(1)
	for i := range freqs {
		freqs[i] = a
		a, b = b, a+b
	}
	lengths := packageMergeLengths(freqs, maxCLCodeLength)
	kraft := 0
	for _, l := range lengths {
		if int(l) > maxCLCodeLength {
			t.Fatalf("length %d over limit %d", l, maxCLCodeLength)
		}
		if l > 0 {
			kraft += 1 << uint(maxCLCodeLength-int(l))
		}
	}
	if kraft != 1<<maxCLCodeLength {
		t.Fatalf("Kraft sum %d/128, want exactly full", kraft)
	}
}

func TestPackageMergeRandomAlwaysDecodable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		freqs := make([]int64, 2+rng.Intn(286))
		for i := range freqs {
			if rng.Intn(3) > 0 {
				freqs[i] = int64(1 + rng.Intn(10000))
			}
		}
		lengths := packageMergeLengths(freqs, maxCodeLength)
		used := 0
		for _, l := range lengths {
			if l > 0 {
				used++
			}
		}
		if used < 2 {
			continue // degenerate, padded by callers
		}
		if _, err := newCanonicalCode(lengths); err != nil {
			t.Fatalf("trial %d: lengths %v: %v", trial, lengths, err)
		}
		if _, err := codeLengthsToTree(lengths); err != nil {
			t.Fatalf("trial %d: tree for %v: %v", trial, lengths, err)
		}
	}
}
