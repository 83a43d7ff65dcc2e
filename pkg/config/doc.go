// Package config reads the project file (.textgen.yml or .textgen.yaml) that
// lists render targets and the options they share, and fills the gaps with
// the tool defaults.
package config
