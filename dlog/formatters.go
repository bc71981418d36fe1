package dlog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

var pid = os.Getpid()

// NewStringFormatter emits "pkg: msg" lines to w.
func NewStringFormatter(w io.Writer) Formatter {
	return &stringFormatter{w: bufio.NewWriter(w)}
}

type stringFormatter struct {
	w *bufio.Writer
}

func (s *stringFormatter) Format(pkg string, _ LogLevel, msg string) {
	s.w.WriteString(pkg)
	s.w.WriteString(": ")
	s.w.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		s.w.WriteString("\n")
	}
	s.w.Flush()
}

// NewGlogFormatter emits glog-style "Lmmdd hh:mm:ss.uuuuuu pid pkg] msg"
// lines to w.
func NewGlogFormatter(w io.Writer) Formatter {
	return &glogFormatter{w: bufio.NewWriter(w)}
}

type glogFormatter struct {
	w *bufio.Writer
}

func (g *glogFormatter) Format(pkg string, level LogLevel, msg string) {
	g.w.Write(glogHeader(level))
	g.w.WriteString(pkg)
	g.w.WriteString("] ")
	g.w.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		g.w.WriteString("\n")
	}
	g.w.Flush()
}

func glogHeader(level LogLevel) []byte {
	// Lmmdd hh:mm:ss.uuuuuu pid
	now := time.Now()
	buf := &bytes.Buffer{}
	buf.Grow(30)
	_, month, day := now.Date()
	hour, minute, second := now.Clock()
	buf.WriteString(level.Char())
	twoDigits(buf, int(month))
	twoDigits(buf, day)
	buf.WriteByte(' ')
	twoDigits(buf, hour)
	buf.WriteByte(':')
	twoDigits(buf, minute)
	buf.WriteByte(':')
	twoDigits(buf, second)
	buf.WriteByte('.')
	fmt.Fprintf(buf, "%06d", now.Nanosecond()/1000)
	buf.WriteByte(' ')
	fmt.Fprint(buf, pid)
	buf.WriteByte(' ')
	return buf.Bytes()
}

const digits = "0123456789"

func twoDigits(b *bytes.Buffer, d int) {
	b.WriteByte(digits[d/10%10])
	b.WriteByte(digits[d%10])
}

// NewJournaldFormatter sends records to the systemd journal. It fails when
// no journal socket is available.
func NewJournaldFormatter() (Formatter, error) {
	if !journal.Enabled() {
		return nil, fmt.Errorf("journal not available")
	}
	return &journaldFormatter{}, nil
}

type journaldFormatter struct{}

func (j *journaldFormatter) Format(pkg string, level LogLevel, msg string) {
	var pri journal.Priority
	switch level {
	case CRITICAL:
		pri = journal.PriCrit
	case ERROR:
		pri = journal.PriErr
	case WARNING:
		pri = journal.PriWarning
	case NOTICE:
		pri = journal.PriNotice
	case INFO:
		pri = journal.PriInfo
	default:
		pri = journal.PriDebug
	}
	vars := map[string]string{"PACKAGE": pkg}
	if err := journal.Send(strings.TrimSuffix(msg, "\n"), pri, vars); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// NewDefaultFormatter prefers the journal when it is up and falls back to
// plain lines on w.
func NewDefaultFormatter(w io.Writer) Formatter {
	if f, err := NewJournaldFormatter(); err == nil {
		return f
	}
	return NewStringFormatter(w)
}
