// Package plan turns an unordered list of (template, data, output) triples
// into two insertion-ordered indexes, one keyed by data reference and one
// keyed by template reference, and picks the iteration order that avoids
// loading the same data more than once.
//
// Building a plan fails fast with a GrammarConflictError when the same pair
// is declared twice under one key. A plan that failed to build is never
// returned, so nothing can be rendered from a partial index.
package plan
