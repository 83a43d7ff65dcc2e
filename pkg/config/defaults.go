package config

import "github.com/goliatone/go-textgen/pkg/loader"

const (
	// SpecVersionKey is the project file key carrying the format version.
	SpecVersionKey = "textgen_file_spec_version"
	// DefaultSpecVersion is the only format version understood.
	DefaultSpecVersion = "1.0"

	DefaultTemplateType  = "jinja2"
	DefaultDataFile      = "data.yml"
	DefaultOutput        = "textgen.output"
	DefaultCacheFile     = ".textgen.hashes"
	DefaultCacheBackend  = "file"
	DefaultTemplateDir   = "."
	DefaultProjectFile   = ".textgen.yml"
	alternateProjectFile = ".textgen.yaml"
)

// CopyTemplateType is the template type of entries in the copy section.
const CopyTemplateType = "copy"

// ProjectFileNames lists the names Find looks for, in order.
var ProjectFileNames = []string{DefaultProjectFile, alternateProjectFile}

// Defaults returns the options used when neither flags nor the project file
// set a value.
func Defaults() Options {
	return Options{
		TemplateDirs:     []string{DefaultTemplateDir, loader.DefaultTemplateDirName},
		ConfigurationDir: loader.DefaultConfigurationDirName,
		Configuration:    DefaultDataFile,
		Output:           DefaultOutput,
		TemplateType:     DefaultTemplateType,
		CacheBackend:     DefaultCacheBackend,
		CachePath:        DefaultCacheFile,
	}
}
