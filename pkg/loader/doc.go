// Package loader resolves template and data references against ordered lists
// of search directories.
//
// Data files are YAML. A data file may name one or more parent files under the
// "overrides" key; parents are merged underneath the child. The merged mapping
// is finally completed with an immutable snapshot of the process environment,
// where explicit data always wins.
package loader
