package log

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testEntry(level logrus.Level, msg string, fields logrus.Fields) *logrus.Entry {
	return &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2019, 5, 13, 22, 41, 15, 0, time.UTC),
		Level:   level,
		Message: msg,
		Data:    fields,
	}
}

func TestFormatStampAndSymbol(t *testing.T) {
	flf := &FancyLogFormatter{UseColors: false}

	line, err := flf.Format(testEntry(logrus.WarnLevel, "cache is full", nil))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(string(line), "13.05.2019/22:41:15 ⚠"))
	require.Contains(t, string(line), "cache is full")
	require.True(t, strings.HasSuffix(string(line), "\n"))
}

func TestFormatFieldsAreSorted(t *testing.T) {
	flf := &FancyLogFormatter{UseColors: false}

	fields := logrus.Fields{
		"slot":   3,
		"object": 7,
		"dirty":  true,
	}

	// Several runs would shuffle the order if it depended on the map:
	for run := 0; run < 10; run++ {
		line, err := flf.Format(testEntry(logrus.InfoLevel, "flushed", fields))
		require.NoError(t, err)
		require.True(
			t,
			strings.HasSuffix(string(line), " [dirty=true object=7 slot=3]\n"),
			"unexpected field block: %s", line,
		)
	}
}

func TestFormatWithoutFieldsHasNoBlock(t *testing.T) {
	flf := &FancyLogFormatter{UseColors: false}

	line, err := flf.Format(testEntry(logrus.DebugLevel, "plain", nil))
	require.NoError(t, err)
	require.NotContains(t, string(line), "[")
}

func TestWriterForwardsToLog(t *testing.T) {
	buf := &bytes.Buffer{}
	oldOut := logrus.StandardLogger().Out
	oldFmt := logrus.StandardLogger().Formatter
	oldLevel := logrus.GetLevel()
	defer func() {
		logrus.SetOutput(oldOut)
		logrus.SetFormatter(oldFmt)
		logrus.SetLevel(oldLevel)
	}()

	logrus.SetOutput(buf)
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&FancyLogFormatter{UseColors: false})

	w := &Writer{Level: logrus.WarnLevel}
	n, err := w.Write([]byte("backend grumbled\n"))
	require.NoError(t, err)
	require.Equal(t, len("backend grumbled\n"), n)
	require.Contains(t, buf.String(), "backend grumbled")

	// Pure whitespace is not worth a log line, but counts as written:
	buf.Reset()
	n, err = w.Write([]byte("\n\n"))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Empty(t, buf.String())
}
