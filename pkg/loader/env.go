package loader

import (
	"os"
	"strings"
)

// Env is an immutable snapshot of environment variables. Take it once at
// startup and hand it to the data loader so data loading stays deterministic.
type Env struct {
	vars map[string]string
}

// SnapshotEnv parses KEY=VALUE entries such as those returned by os.Environ.
// Entries without '=' are ignored; later duplicates win.
func SnapshotEnv(environ []string) Env {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return Env{vars: vars}
}

// ProcessEnv snapshots the current process environment.
func ProcessEnv() Env {
	return SnapshotEnv(os.Environ())
}

// EnvFromMap builds a snapshot from a map, copying it.
func EnvFromMap(values map[string]string) Env {
	vars := make(map[string]string, len(values))
	for k, v := range values {
		vars[k] = v
	}
	return Env{vars: vars}
}

// Lookup returns the value stored for key.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Len reports the number of variables.
func (e Env) Len() int {
	return len(e.vars)
}

// mergeUnder adds every variable missing from data. Existing keys are never
// replaced.
func (e Env) mergeUnder(data map[string]any) {
	for key, value := range e.vars {
		if _, exists := data[key]; exists {
			continue
		}
		data[key] = value
	}
}
