package segevent

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestAllocOKLogsClassAndBase(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(slog.New(slog.NewTextHandler(nilWriter{}, nil)))

	AllocOK("SegGC", 0x1000, 4096)

	out := buf.String()
	if !strings.Contains(out, "segment allocated") {
		t.Fatalf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "SegGC") {
		t.Fatalf("log output missing class: %q", out)
	}
}

func TestAllocFailLogsError(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(slog.New(slog.NewTextHandler(nilWriter{}, nil)))

	AllocFail("SegGC", 4096, errTest{})

	if !strings.Contains(buf.String(), "allocation failed") {
		t.Fatalf("log output missing failure message: %q", buf.String())
	}
}

type errTest struct{}

func (errTest) Error() string { return "out of memory" }

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }
