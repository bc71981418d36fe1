package gzip

import (
	"bytes"
	stdgzip "compress/gzip"
	"io"
	"io/ioutil"
	"testing"
	"time"

	"github.com/coreos/deflate/flate"
)

func mustInflate(t *testing.T, compressed []byte) (*Reader, []byte) {
	t.Helper()
	z, err := NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadAll(z)
	if err != nil {
		t.Fatal(err)
	}
	return z, data
}

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 2000)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Name = "fox.txt"
	w.Comment = "készítés" // Latin-1 survives the trip
	w.ModTime = time.Unix(1456789000, 0)
	w.OS = 3
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	z, data := mustInflate(t, buf.Bytes())
	defer z.Close()
	if !bytes.Equal(data, payload) {
		t.Fatal("round trip lost data")
	}
	if z.Name != "fox.txt" || z.Comment != w.Comment || z.OS != 3 {
		t.Fatalf("header = %+v", z.Header)
	}
	if !z.ModTime.Equal(time.Unix(1456789000, 0)) {
		t.Fatalf("mtime = %v", z.ModTime)
	}
	if z.OperatingSystemName() != "Unix" {
		t.Fatalf("OS name = %q", z.OperatingSystemName())
	}

	// The stock reader must accept our output too.
	sz, err := stdgzip.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	std, err := ioutil.ReadAll(sz)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(std, payload) {
		t.Fatal("stock reader disagrees")
	}
}

func TestHeaderCRC(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Name = "checked"
	w.HeaderCRC = true
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, data := mustInflate(t, buf.Bytes()); string(data) != "payload" {
		t.Fatalf("got %q", data)
	}

	// Flip a header byte; the FHCRC must catch it.
	bad := append([]byte{}, buf.Bytes()...)
	bad[10] ^= 0x01 // first byte of the name
	_, err := NewReader(bytes.NewReader(bad))
	assertReason(t, err, flate.HeaderChecksumMismatch)
}

func TestReadsStockOutput(t *testing.T) {
	payload := []byte("written by the standard library")
	var buf bytes.Buffer
	sw := stdgzip.NewWriter(&buf)
	sw.Name = "std.txt"
	if _, err := sw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := sw.Close(); err != nil {
		t.Fatal(err)
	}
	z, data := mustInflate(t, buf.Bytes())
	defer z.Close()
	if !bytes.Equal(data, payload) || z.Name != "std.txt" {
		t.Fatalf("data %q, name %q", data, z.Name)
	}
}

func TestMultistream(t *testing.T) {
	var buf bytes.Buffer
	for _, part := range []string{"first ", "second"} {
		w := NewWriter(&buf)
		if _, err := io.WriteString(w, part); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	_, data := mustInflate(t, buf.Bytes())
	if string(data) != "first second" {
		t.Fatalf("multistream read %q", data)
	}

	z, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	z.Multistream(false)
	single, err := ioutil.ReadAll(z)
	if err != nil {
		t.Fatal(err)
	}
	if string(single) != "first " {
		t.Fatalf("single stream read %q", single)
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

func validStream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write([]byte("abcdefgh")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHeaderErrors(t *testing.T) {
	good := validStream(t)

	corrupt := func(mutate func([]byte)) []byte {
		b := append([]byte{}, good...)
		mutate(b)
		return b
	}

	tests := []struct {
		name   string
		input  []byte
		reason flate.Reason
	}{
		{"bad magic", corrupt(func(b []byte) { b[0] = 0x1e }), flate.GzipInvalidMagicNumber},
		{"bad method", corrupt(func(b []byte) { b[2] = 9 }), flate.UnsupportedCompressionMethod},
		{"reserved flags", corrupt(func(b []byte) { b[3] |= 0x80 }), flate.GzipReservedFlagsSet},
		{"bad OS", corrupt(func(b []byte) { b[9] = 14 }), flate.GzipUnsupportedOperatingSystem},
		{"truncated header", good[:5], flate.UnexpectedEndOfStream},
	}
	for _, tt := range tests {
		_, err := NewReader(bytes.NewReader(tt.input))
		if err == nil {
			t.Errorf("%s: no error", tt.name)
			continue
		}
		dfe, ok := err.(*flate.DataFormatError)
		if !ok || dfe.Reason != tt.reason {
			t.Errorf("%s: err = %v, want reason %v", tt.name, err, tt.reason)
		}
	}
}

func TestTrailerErrors(t *testing.T) {
	good := validStream(t)

	crcBad := append([]byte{}, good...)
	crcBad[len(crcBad)-6] ^= 0xFF // inside CRC32
	z, err := NewReader(bytes.NewReader(crcBad))
	if err != nil {
		t.Fatal(err)
	}
	_, err = ioutil.ReadAll(z)
	assertReason(t, err, flate.DecompressedChecksumMismatch)

	sizeBad := append([]byte{}, good...)
	sizeBad[len(sizeBad)-1] ^= 0xFF // inside ISIZE
	z, err = NewReader(bytes.NewReader(sizeBad))
	if err != nil {
		t.Fatal(err)
	}
	_, err = ioutil.ReadAll(z)
	assertReason(t, err, flate.DecompressedSizeMismatch)

	truncated := good[:len(good)-3]
	z, err = NewReader(bytes.NewReader(truncated))
	if err != nil {
		t.Fatal(err)
	}
	_, err = ioutil.ReadAll(z)
	assertReason(t, err, flate.UnexpectedEndOfStream)
}

func TestReset(t *testing.T) {
	first := validStream(t)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write([]byte("other data")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	z, data := mustInflate(t, first)
	if string(data) != "abcdefgh" {
		t.Fatalf("got %q", data)
	}
	if err := z.Reset(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadAll(z)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "other data" {
		t.Fatalf("after Reset got %q", data)
	}
}
