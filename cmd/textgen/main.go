// Command textgen renders templates with YAML data and skips outputs whose
// content has not changed since the last run.
//
// Usage:
//
//	textgen                               # run the targets of .textgen.yml
//	textgen -t README.md.jj2 -o README.md # render one template
//	textgen "Hello {{ name }}" -o hi.txt  # render a template string
//	textgen watch                         # re-run the project on change
//	textgen init                          # scaffold .textgen.yml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
