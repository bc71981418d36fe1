// Command gunzip decompresses a gzip file.
//
// Usage:
//
//	gunzip [flags] input.gz output
//
// Exit status is 0 on success and 1 on any error, with a one-line message
// on standard error. Header metadata from the input is logged as the file
// is decompressed: to the systemd journal when a journal socket is present,
// and to standard error otherwise.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/coreos/deflate/dlog"
	"github.com/coreos/deflate/gzip"
	"github.com/coreos/deflate/yamlutil"
)

var log = dlog.NewPackageLogger("gunzip")

var (
	configFlag   = flag.String("config", "", "YAML file supplying defaults for unset flags")
	logLevelFlag = flag.String("log-level", "NOTICE", "log level, or 'pkg=LEVEL,...'")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gunzip [flags] input.gz output\n")
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
			fmt.Fprintln(os.Stderr, "gunzip:", err)
			os.Exit(1)
		}
	}
	if err := setupLogging(*logLevelFlag); err != nil {
		fmt.Fprintln(os.Stderr, "gunzip:", err)
		os.Exit(1)
	}
	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, "gunzip:", err)
		os.Exit(1)
	}
}

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

func run(input, output string) error {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer zr.Close()

	if zr.Name != "" {
		log.Noticef("name: %s", zr.Name)
	}
	if zr.ModTime.Unix() > 0 {
		log.Noticef("modified: %s", zr.ModTime.UTC())
	}
	log.Noticef("operating system: %s", zr.OperatingSystemName())
	if zr.Comment != "" {
		log.Noticef("comment: %s", zr.Comment)
	}
	if len(zr.Extra) > 0 {
		log.Noticef("extra: %d bytes", len(zr.Extra))
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, zr)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Noticef("%s: wrote %d bytes", output, n)
	return nil
}
