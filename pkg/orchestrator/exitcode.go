package orchestrator

// Process exit codes.
const (
	ExitNoChanges  = 0
	ExitHasChanges = 1
	ExitError      = 2
)

// ExitCode maps a run to the process exit status. Changes only produce
// ExitHasChanges when exitCodeOnChange is set, so scripts can detect drift.
func ExitCode(result Result, err error, exitCodeOnChange bool) int {
	if err != nil {
		return ExitError
	}
	if exitCodeOnChange && result.Summary.Changed > 0 {
		return ExitHasChanges
	}
	return ExitNoChanges
}
