// Package template defines the engine-agnostic rendering seam used by the
// render engine, a registry keyed by template type, and the error kinds every
// engine reports. Concrete engines live in the gotemplate (jinja2 syntax via
// pongo2) and strtemplate ($name substitution) subpackages.
package template
