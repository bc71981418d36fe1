package flagutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ChoiceFlag restricts a string flag to a fixed set of values. This type
// implements the flag.Value interface.
type ChoiceFlag struct {
	Choices []string
	val     string
}

// NewChoiceFlag returns a ChoiceFlag preset to def.
func NewChoiceFlag(def string, choices ...string) *ChoiceFlag {
	return &ChoiceFlag{Choices: choices, val: def}
}

func (f *ChoiceFlag) Value() string {
	return f.val
}

func (f *ChoiceFlag) Set(v string) error {
	for _, c := range f.Choices {
		if v == c {
			f.val = v
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", v, strings.Join(f.Choices, ", "))
}

func (f *ChoiceFlag) String() string {
	return f.val
}

// ByteSizeFlag parses a byte count with an optional KiB/MiB/GiB suffix.
// This type implements the flag.Value interface.
type ByteSizeFlag struct {
	val int64
}

func NewByteSizeFlag(def int64) *ByteSizeFlag {
	return &ByteSizeFlag{val: def}
}

func (f *ByteSizeFlag) Bytes() int64 {
	return f.val
}

var sizeSuffixes = []struct {
	suffix string
	scale  int64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"G", 1 << 30},
	{"M", 1 << 20},
	{"K", 1 << 10},
}

func (f *ByteSizeFlag) Set(v string) error {
	scale := int64(1)
	num := v
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(v, s.suffix) {
			scale = s.scale
			num = strings.TrimSuffix(v, s.suffix)
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid byte size %q", v)
	}
	if n < 0 {
		return fmt.Errorf("byte size %q is negative", v)
	}
	f.val = n * scale
	return nil
}

func (f *ByteSizeFlag) String() string {
	return strconv.FormatInt(f.val, 10)
}
