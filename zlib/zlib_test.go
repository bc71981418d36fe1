package zlib

import (
	"bytes"
	stdzlib "compress/zlib"
	"io/ioutil"
	"testing"

	"github.com/coreos/deflate/flate"
)

func deflateAll(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func inflateAll(t *testing.T, compressed []byte) ([]byte, error) {
	t.Helper()
	z, err := NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer z.Close()
	return ioutil.ReadAll(z)
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("zlib wraps deflate with an adler checksum"),
		bytes.Repeat([]byte{1, 2, 3, 4, 3, 2, 1}, 30000),
	}
	for i, payload := range payloads {
		compressed := deflateAll(t, payload)
		got, err := inflateAll(t, compressed)
		if err != nil {
			t.Fatalf("payload %d: %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload %d: round trip lost data", i)
		}

		// The stock reader must accept our output.
		sz, err := stdzlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			t.Fatalf("payload %d: stock reader: %v", i, err)
		}
		std, err := ioutil.ReadAll(sz)
		if err != nil {
			t.Fatalf("payload %d: stock reader: %v", i, err)
		}
		if !bytes.Equal(std, payload) {
			t.Fatalf("payload %d: stock reader disagrees", i)
		}
	}
}

func TestReadsStockOutput(t *testing.T) {
	payload := []byte("written by the standard library")
	var buf bytes.Buffer
	sw := stdzlib.NewWriter(&buf)
	if _, err := sw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := sw.Close(); err != nil {
		t.Fatal(err)
	}
	got, err := inflateAll(t, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("stock stream decoded incorrectly")
	}
}

func assertReason(t *testing.T, err error, want flate.Reason) {
	t.Helper()
	dfe, ok := err.(*flate.DataFormatError)
	if !ok {
		t.Fatalf("err = %v, want DataFormatError", err)
	}
	if dfe.Reason != want {
		t.Fatalf("reason = %v, want %v", dfe.Reason, want)
	}
}

func TestHeaderErrors(t *testing.T) {
	good := deflateAll(t, []byte("payload"))

	fcheck := append([]byte{}, good...)
	fcheck[1] ^= 0x01
	_, err := NewReader(bytes.NewReader(fcheck))
	assertReason(t, err, flate.HeaderChecksumMismatch)

	// CM = 9 with a recomputed FCHECK.
	method := append([]byte{}, good...)
	method[0] = 0x79
	method[1] = 0
	rem := (uint16(method[0])<<8 | uint16(method[1])) % 31
	if rem != 0 {
		method[1] = byte(31 - rem)
	}
	_, err = NewReader(bytes.NewReader(method))
	assertReason(t, err, flate.UnsupportedCompressionMethod)

	_, err = NewReader(bytes.NewReader(good[:1]))
	assertReason(t, err, flate.UnexpectedEndOfStream)
}

func TestDictionaryRefused(t *testing.T) {
	hdr := []byte{0x78, 0x20, 0, 0, 0, 1} // FDICT set, FCHECK valid
	rem := (uint16(hdr[0])<<8 | uint16(hdr[1])) % 31
	if rem != 0 {
		hdr[1] += byte(31 - rem)
	}
	_, err := NewReader(bytes.NewReader(hdr))
	if err != ErrDictionary {
		t.Fatalf("err = %v, want ErrDictionary", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	good := deflateAll(t, []byte("payload"))
	bad := append([]byte{}, good...)
	bad[len(bad)-1] ^= 0xFF
	z, err := NewReader(bytes.NewReader(bad))
	if err != nil {
		t.Fatal(err)
	}
	defer z.Close()
	_, err = ioutil.ReadAll(z)
	assertReason(t, err, flate.DecompressedChecksumMismatch)
}
