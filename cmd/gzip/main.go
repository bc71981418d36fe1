// Command gzip compresses a file into the gzip format.
//
// Usage:
//
//	gzip [flags] input output.gz
//
// Exit status is 0 on success and 1 on any error, with a one-line message
// on standard error. Flags not set on the command line may be supplied
// from a YAML file via -config, keyed by upper-cased flag names with '-'
// replaced by '_' (LOG_LEVEL for -log-level).
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/coreos/deflate/dlog"
	"github.com/coreos/deflate/flagutil"
	"github.com/coreos/deflate/flate"
	"github.com/coreos/deflate/gzip"
	"github.com/coreos/deflate/yamlutil"
)

var log = dlog.NewPackageLogger("gzip")

var (
	strategyFlag = flagutil.NewChoiceFlag("auto",
		"auto", "stored", "huffman", "rle", "dynamic", "dynamic-rle", "lz77", "lz77-dynamic")
	blockSizeFlag = flagutil.NewByteSizeFlag(65536)
	configFlag    = flag.String("config", "", "YAML file supplying defaults for unset flags")
	logLevelFlag  = flag.String("log-level", "NOTICE", "log level, or 'pkg=LEVEL,...'")
)

func init() {
	flag.Var(strategyFlag, "strategy",
		"block strategy: "+strings.Join(strategyFlag.Choices, ", "))
	flag.Var(blockSizeFlag, "block-size", "bytes buffered per strategy decision")
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gzip [flags] input output.gz\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if *configFlag != "" {
		raw, err := ioutil.ReadFile(*configFlag)
		if err == nil {
			err = yamlutil.SetFlagsFromYaml(flag.CommandLine, raw)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "gzip:", err)
			os.Exit(1)
		}
	}
	if err := setupLogging(*logLevelFlag); err != nil {
		fmt.Fprintln(os.Stderr, "gzip:", err)
		os.Exit(1)
	}
	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, "gzip:", err)
		os.Exit(1)
	}
}

// setupLogging routes records to the journal when one is listening, to a
// glog-style formatter when stderr is a terminal, and to plain lines
// otherwise.
func setupLogging(levels string) error {
	if f, err := dlog.NewJournaldFormatter(); err == nil {
		dlog.SetFormatter(f)
	} else if terminal.IsTerminal(int(os.Stderr.Fd())) {
		dlog.SetFormatter(dlog.NewGlogFormatter(os.Stderr))
	} else {
		dlog.SetFormatter(dlog.NewStringFormatter(os.Stderr))
	}
	if strings.Contains(levels, "=") {
		m, err := dlog.ParseLogLevelConfig(levels)
		if err != nil {
			return err
		}
		dlog.SetLogLevel(m)
		return nil
	}
	l, err := dlog.ParseLevel(levels)
	if err != nil {
		return err
	}
	dlog.SetGlobalLogLevel(l)
	return nil
}

func pickStrategy() (flate.Strategy, error) {
	switch strategyFlag.Value() {
	case "auto":
		return flate.DefaultStrategy(), nil
	case "stored":
		return flate.Uncompressed{}, nil
	case "huffman":
		return flate.StaticHuffman{}, nil
	case "rle":
		return flate.StaticHuffmanRLE{}, nil
	case "dynamic":
		return flate.DynamicHuffmanLiteral{}, nil
	case "dynamic-rle":
		return flate.DynamicHuffmanRLE{}, nil
	case "lz77":
		return flate.NewLz77Huffman(3, 258, 1, 1024, false)
	case "lz77-dynamic":
		return flate.NewLz77Huffman(3, 258, 1, 1024, true)
	}
	return nil, fmt.Errorf("unknown strategy %q", strategyFlag.Value())
}

func run(input, output string) error {
	strategy, err := pickStrategy()
	if err != nil {
		return err
	}
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	zw, err := gzip.NewWriterStrategy(out, strategy, int(blockSizeFlag.Bytes()))
	if err != nil {
		return err
	}
	zw.Name = filepath.Base(input)
	zw.ModTime = info.ModTime()
	zw.OS = 3 // Unix

	n, err := io.Copy(zw, in)
	if err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if outInfo, err := os.Stat(output); err == nil && n > 0 {
		log.Noticef("%s: %d -> %d bytes (%.1f%%)",
			input, n, outInfo.Size(), 100*float64(outInfo.Size())/float64(n))
	}
	return nil
}
