// Package log implements a colorful, symbol-heavy log formatter for
// logrus, plus a small writer that pipes foreign output into the log.
package log

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// showPid helps differentiating output when several processes log to
// the same terminal, e.g. during integration tests.
var showPid = os.Getenv("NANDFS_LOG_SHOW_PID") != ""

// levelStyle is the decoration one severity gets in the output.
type levelStyle struct {
	symbol string
	paint  func(format string, args ...interface{}) string
}

var levelStyles = map[logrus.Level]levelStyle{
	logrus.DebugLevel: {"⚙", color.CyanString},
	logrus.InfoLevel:  {"⚐", color.GreenString},
	logrus.WarnLevel:  {"⚠", color.YellowString},
	logrus.ErrorLevel: {"⚡", color.RedString},
	logrus.FatalLevel: {"☣", color.MagentaString},
	logrus.PanicLevel: {"☠", color.MagentaString},
}

// FancyLogFormatter is the default log formatter of nandfs.
type FancyLogFormatter struct {
	UseColors bool
}

func (flf *FancyLogFormatter) paint(level logrus.Level, msg string) string {
	style, ok := levelStyles[level]
	if !flf.UseColors || !ok {
		return msg
	}

	return style.paint(msg)
}

// findCaller locates the first stack frame outside of logrus and this
// package, i.e. the place the log call was actually made from. Files
// inside of nandfs are shortened to their repo-relative path.
func findCaller() (string, int, bool) {
	pcs := make([]uintptr, 15)
	// Skip runtime.Callers, findCaller and Format; the frames of
	// logrus itself are filtered below.
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		isPlumbing := strings.Contains(frame.Function, "github.com/sirupsen/logrus") ||
			strings.Contains(frame.Function, "nandfs/util/log")

		if !isPlumbing && frame.File != "" {
			const modTag = "nandfs/"
			if idx := strings.LastIndex(frame.File, modTag); idx != -1 {
				return frame.File[idx+len(modTag):], frame.Line, true
			}

			return filepath.Base(frame.File), frame.Line, true
		}

		if !more {
			break
		}
	}

	return "", 0, false
}

func (flf *FancyLogFormatter) formatFields(buf *bytes.Buffer, entry *logrus.Entry) {
	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}

	// Map order would shuffle the fields on every line otherwise:
	sort.Strings(keys)

	buf.WriteString(" [")
	for idx, key := range keys {
		if idx > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(flf.paint(entry.Level, key))
		buf.WriteByte('=')
		fmt.Fprintf(buf, "%v", entry.Data[key])
	}

	buf.WriteByte(']')
}

// Format prints a single entry like this:
//
//	13.05.2019/22:41:15 ⚠ chunkfs/device.go:123: the message [key=value]
func (flf *FancyLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	t := entry.Time
	stamp := fmt.Sprintf(
		"%02d.%02d.%04d/%02d:%02d:%02d %s",
		t.Day(), t.Month(), t.Year(),
		t.Hour(), t.Minute(), t.Second(),
		levelStyles[entry.Level].symbol,
	)

	buf := &bytes.Buffer{}
	buf.WriteString(flf.paint(entry.Level, stamp))

	if showPid {
		fmt.Fprintf(buf, " [%d]", os.Getpid())
	}

	if file, line, ok := findCaller(); ok {
		fmt.Fprintf(buf, " %s:%d:", file, line)
	}

	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		flf.formatFields(buf, entry)
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Writer is an io.Writer that forwards everything to logrus. It is
// handy as stderr of subprocesses whose complaints belong in the
// regular log.
type Writer struct {
	// Level determines the severity of all forwarded messages.
	Level logrus.Level
}

func (w *Writer) Write(buf []byte) (int, error) {
	msg := strings.Trim(string(buf), "\n\r ")
	if msg == "" {
		return len(buf), nil
	}

	switch w.Level {
	case logrus.DebugLevel:
		logrus.Debug(msg)
	case logrus.InfoLevel:
		logrus.Info(msg)
	case logrus.WarnLevel:
		logrus.Warn(msg)
	case logrus.ErrorLevel:
		logrus.Error(msg)
	case logrus.FatalLevel:
		logrus.Fatal(msg)
	default:
		logrus.Print(msg)
	}

	return len(buf), nil
}
