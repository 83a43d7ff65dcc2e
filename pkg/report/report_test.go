package report_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-textgen/pkg/engine"
	"github.com/goliatone/go-textgen/pkg/report"
)

func TestSummaryMessage(t *testing.T) {
	cases := []struct {
		summary engine.Summary
		want    string
	}{
		{summary: engine.Summary{Total: 2, Changed: 0}, want: "No actions performed"},
		{summary: engine.Summary{Total: 0, Changed: 0}, want: "No actions performed"},
		{summary: engine.Summary{Total: 2, Changed: 2}, want: "Templated 2 files."},
		{summary: engine.Summary{Total: 3, Changed: 1}, want: "Templated 1 out of 3 files."},
	}
	for _, tc := range cases {
		if got := report.SummaryMessage(tc.summary); got != tc.want {
			t.Fatalf("SummaryMessage(%+v) = %q, want %q", tc.summary, got, tc.want)
		}
	}
}

func TestConsole_PlainOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	console := report.NewConsole(&out, report.WithErrorWriter(&errOut))

	console.Rendered("a.jj2", "a.txt")
	console.Summary(engine.Summary{Total: 1, Changed: 1})
	console.Info("watching .")
	console.Error(errors.New("boom"))
	console.Error(nil)

	want := "Templating a.jj2 to a.txt\nTemplated 1 files.\nwatching .\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Error: boom\n", errOut.String()); diff != "" {
		t.Fatalf("stderr mismatch (-want +got):\n%s", diff)
	}
}

func TestConsole_ForcedColorKeepsText(t *testing.T) {
	var out bytes.Buffer
	console := report.NewConsole(&out, report.WithColor(true))

	console.Rendered("a.jj2", "a.txt")
	console.Summary(engine.Summary{Total: 2, Changed: 0})

	got := out.String()
	for _, fragment := range []string{"Templating", "a.jj2", "to", "a.txt", "No actions performed"} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("output %q missing %q", got, fragment)
		}
	}
}

func TestRecorder(t *testing.T) {
	recorder := report.NewRecorder()
	recorder.Rendered("t", "o")
	recorder.Summary(engine.Summary{Total: 1, Changed: 1})
	recorder.Info("hello")
	recorder.Error(errors.New("bad"))

	want := []report.Event{
		{Kind: report.EventRendered, Template: "t", Output: "o"},
		{Kind: report.EventSummary, Summary: engine.Summary{Total: 1, Changed: 1}, Message: "Templated 1 files."},
		{Kind: report.EventInfo, Message: "hello"},
		{Kind: report.EventError, Message: "bad"},
	}
	if diff := cmp.Diff(want, recorder.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if got := recorder.Filter(report.EventError); len(got) != 1 {
		t.Fatalf("filter = %v", got)
	}

	recorder.Reset()
	if len(recorder.Events()) != 0 {
		t.Fatal("reset should drop events")
	}
}
