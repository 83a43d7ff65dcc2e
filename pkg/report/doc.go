// Package report turns engine notifications into user-facing messages. The
// Console reporter writes styled lines to a terminal and plain lines
// elsewhere; the Recorder keeps every call for assertions in tests.
package report
