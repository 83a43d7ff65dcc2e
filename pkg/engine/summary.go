package engine

import "fmt"

// Outcome classifies a finished run.
type Outcome int

const (
	// NoAction means no output changed.
	NoAction Outcome = iota
	// FullRun means every attempted output changed.
	FullRun
	// PartialRun means some, but not all, outputs changed.
	PartialRun
)

func (o Outcome) String() string {
	switch o {
	case NoAction:
		return "no-action"
	case FullRun:
		return "full-run"
	case PartialRun:
		return "partial-run"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Summary counts render attempts and the subset that produced a write.
type Summary struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
}

// Outcome derives the run classification from the counters.
func (s Summary) Outcome() Outcome {
	switch {
	case s.Changed == 0:
		return NoAction
	case s.Changed == s.Total:
		return FullRun
	default:
		return PartialRun
	}
}

// Add returns the element-wise sum of two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Total:   s.Total + other.Total,
		Changed: s.Changed + other.Changed,
	}
}
