package plan

import (
	"errors"
	"fmt"
)

// ErrGrammarConflict is matched by every GrammarConflictError.
var ErrGrammarConflict = errors.New("plan: grammar conflict")

// Triple describes a single render request. Template and Data are opaque
// references resolved later by loaders; Output is the destination path.
type Triple struct {
	Template string `json:"template" yaml:"template"`
	Data     string `json:"data" yaml:"configuration"`
	Output   string `json:"output" yaml:"output"`
}

// Pair holds the two fields of a triple that are not the grouping key. Under
// ByData, Ref is the template reference; under ByTemplate, Ref is the data
// reference.
type Pair struct {
	Ref    string
	Output string
}

// GrammarConflictError reports a pair that was declared twice under the same
// key of one grouping.
type GrammarConflictError struct {
	Grouping string
	Key      string
	Pair     Pair
}

func (e *GrammarConflictError) Error() string {
	return fmt.Sprintf("plan: (%s, %s) already exists in the target %s of %s",
		e.Pair.Ref, e.Pair.Output, e.Key, e.Grouping)
}

// Is lets errors.Is match ErrGrammarConflict.
func (e *GrammarConflictError) Is(target error) bool {
	return target == ErrGrammarConflict
}

const (
	groupingByData     = "data index"
	groupingByTemplate = "template index"
)

// Grouping maps a key to the ordered pairs declared for it. Keys and pairs
// keep insertion order.
type Grouping struct {
	name  string
	keys  []string
	pairs map[string][]Pair
}

func newGrouping(name string) *Grouping {
	return &Grouping{
		name:  name,
		pairs: make(map[string][]Pair),
	}
}

// insert appends pair under key. A linear scan is enough here: the number of
// pairs per key is small in practice.
func (g *Grouping) insert(key string, pair Pair) error {
	existing, seen := g.pairs[key]
	for _, candidate := range existing {
		if candidate == pair {
			return &GrammarConflictError{Grouping: g.name, Key: key, Pair: pair}
		}
	}
	if !seen {
		g.keys = append(g.keys, key)
	}
	g.pairs[key] = append(existing, pair)
	return nil
}

// Keys returns the distinct keys in insertion order.
func (g *Grouping) Keys() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.keys...)
}

// Pairs returns the pairs declared under key in insertion order.
func (g *Grouping) Pairs(key string) []Pair {
	if g == nil {
		return nil
	}
	return append([]Pair(nil), g.pairs[key]...)
}

// Len reports the number of distinct keys.
func (g *Grouping) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

// Size reports the total number of pairs across all keys.
func (g *Grouping) Size() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, pairs := range g.pairs {
		total += len(pairs)
	}
	return total
}

// Empty reports whether the grouping holds no keys.
func (g *Grouping) Empty() bool {
	return g.Len() == 0
}

// Plan holds both groupings for one planning and execution cycle. The
// groupings are read-only once Build returns and may be shared freely.
type Plan struct {
	ByData     *Grouping
	ByTemplate *Grouping
}

// Build indexes the triples by data and by template. Each grouping is checked
// for duplicates on its own: a conflict in one does not imply a conflict in
// the other.
func Build(triples []Triple) (*Plan, error) {
	p := &Plan{
		ByData:     newGrouping(groupingByData),
		ByTemplate: newGrouping(groupingByTemplate),
	}
	for _, t := range triples {
		if err := p.ByData.insert(t.Data, Pair{Ref: t.Template, Output: t.Output}); err != nil {
			return nil, err
		}
		if err := p.ByTemplate.insert(t.Template, Pair{Ref: t.Data, Output: t.Output}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Len reports the number of render requests in the plan.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return p.ByData.Size()
}
