package yamlutil

import (
	"flag"
	"testing"
)

func TestSetFlagsFromYaml(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	strategy := fs.String("strategy", "auto", "")
	level := fs.String("log-level", "INFO", "")
	kept := fs.String("kept", "original", "")

	if err := fs.Parse([]string{"-kept=cli"}); err != nil {
		t.Fatal(err)
	}
	conf := []byte("STRATEGY: lz77\nLOG_LEVEL: DEBUG\nKEPT: yaml\n")
	if err := SetFlagsFromYaml(fs, conf); err != nil {
		t.Fatal(err)
	}
	if *strategy != "lz77" {
		t.Errorf("strategy = %q, want lz77", *strategy)
	}
	if *level != "DEBUG" {
		t.Errorf("log-level = %q, want DEBUG", *level)
	}
	if *kept != "cli" {
		t.Errorf("kept = %q; command line must win over config", *kept)
	}
}

func TestSetFlagsFromYamlBadValue(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("count", 0, "")
	if err := SetFlagsFromYaml(fs, []byte("COUNT: notanumber\n")); err == nil {
		t.Fatal("bad value accepted")
	}
}
