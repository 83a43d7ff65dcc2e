package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-textgen/pkg/plan"
)

var (
	// ErrProjectFileNotFound is returned by Find when no project file exists.
	ErrProjectFileNotFound = errors.New("config: project file not found")
	// ErrInvalidProjectFile marks project files that are not valid YAML or
	// hold malformed targets.
	ErrInvalidProjectFile = errors.New("config: invalid project file")
	// ErrNoTargets marks project files without any target.
	ErrNoTargets = errors.New("config: no targets")
	// ErrFileVersionNotSupported marks an unknown textgen_file_spec_version.
	ErrFileVersionNotSupported = errors.New("config: file version not supported")
)

// InvalidProjectError locates a problem in a project file. Line is zero when
// unknown.
type InvalidProjectError struct {
	Path   string
	Line   int
	Reason string
}

func (e *InvalidProjectError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config: %s is an invalid project file: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("config: %s is an invalid project file: %s", e.Path, e.Reason)
}

func (e *InvalidProjectError) Unwrap() error {
	return ErrInvalidProjectFile
}

// StringList decodes either a single string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Options are the settings shared by every target of a project. Command line
// flags use the same structure.
type Options struct {
	TemplateDirs     StringList `yaml:"template_dir"`
	ConfigurationDir string     `yaml:"configuration_dir"`
	Template         string     `yaml:"template"`
	Configuration    string     `yaml:"configuration"`
	Output           string     `yaml:"output"`
	TemplateType     string     `yaml:"template_type"`
	Force            bool       `yaml:"force"`
	ExitCode         bool       `yaml:"exit_code"`
	CacheBackend     string     `yaml:"cache_backend"`
	CachePath        string     `yaml:"cache_path"`
}

// WithDefaults fills every unset field of o from fallback.
func (o Options) WithDefaults(fallback Options) Options {
	if len(o.TemplateDirs) == 0 {
		o.TemplateDirs = append(StringList(nil), fallback.TemplateDirs...)
	}
	if o.ConfigurationDir == "" {
		o.ConfigurationDir = fallback.ConfigurationDir
	}
	if o.Template == "" {
		o.Template = fallback.Template
	}
	if o.Configuration == "" {
		o.Configuration = fallback.Configuration
	}
	if o.Output == "" {
		o.Output = fallback.Output
	}
	if o.TemplateType == "" {
		o.TemplateType = fallback.TemplateType
	}
	if o.CacheBackend == "" {
		o.CacheBackend = fallback.CacheBackend
	}
	if o.CachePath == "" {
		o.CachePath = fallback.CachePath
	}
	o.Force = o.Force || fallback.Force
	o.ExitCode = o.ExitCode || fallback.ExitCode
	return o
}

// Target is one render request of a project.
type Target struct {
	Template      string `yaml:"template"`
	Configuration string `yaml:"configuration"`
	Output        string `yaml:"output"`
	TemplateType  string `yaml:"template_type"`
}

// Project is a decoded project file with defaults applied. Copies are the
// entries of the copy section: their template is written to the output
// unchanged and they carry no data file.
type Project struct {
	Path    string
	Version string
	Options Options
	Targets []Target
	Copies  []Target
}

// Batch holds the triples rendered by one template type.
type Batch struct {
	TemplateType string
	Triples      []plan.Triple
}

type projectFile struct {
	Version       versionScalar `yaml:"textgen_file_spec_version"`
	Configuration Options       `yaml:"configuration"`
	Targets       []yaml.Node   `yaml:"targets"`
	Copy          []yaml.Node   `yaml:"copy"`
}

// versionScalar keeps the literal text so 1.0 is not read back as 1.
type versionScalar string

func (v *versionScalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %s must be a scalar", node.Line, SpecVersionKey)
	}
	*v = versionScalar(node.Value)
	return nil
}

// Find returns the path of the first project file present in dir.
func Find(dir string) (string, error) {
	for _, name := range ProjectFileNames {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrProjectFileNotFound, dir)
}

// Load reads and parses the project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a project file. source names the file in errors and anchors
// relative paths.
func Parse(data []byte, source string) (*Project, error) {
	var raw projectFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidProjectError{Path: source, Reason: err.Error()}
	}

	version := strings.TrimSpace(string(raw.Version))
	if version == "" {
		version = DefaultSpecVersion
	}
	if version != DefaultSpecVersion {
		return nil, fmt.Errorf("%w: textgen file version %q in %s", ErrFileVersionNotSupported, version, source)
	}

	options := raw.Configuration.WithDefaults(Defaults())

	if len(raw.Targets) == 0 && len(raw.Copy) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTargets, source)
	}

	targets := make([]Target, 0, len(raw.Targets))
	for i := range raw.Targets {
		target, err := parseTarget(&raw.Targets[i], source)
		if err != nil {
			return nil, err
		}
		if target.Template == "" {
			target.Template = options.Template
		}
		if target.Template == "" {
			return nil, &InvalidProjectError{Path: source, Line: raw.Targets[i].Line, Reason: fmt.Sprintf("no template for output %q", target.Output)}
		}
		if target.Configuration == "" {
			target.Configuration = options.Configuration
		}
		if target.TemplateType == "" {
			target.TemplateType = options.TemplateType
		}
		targets = append(targets, target)
	}

	var copies []Target
	for i := range raw.Copy {
		entries, err := parseCopy(&raw.Copy[i], source)
		if err != nil {
			return nil, err
		}
		copies = append(copies, entries...)
	}

	return &Project{
		Path:    source,
		Version: version,
		Options: options,
		Targets: targets,
		Copies:  copies,
	}, nil
}

// parseCopy reads one {output: source} mapping of the copy section. A mapping
// may hold several entries; they keep their declared order.
func parseCopy(node *yaml.Node, source string) ([]Target, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return nil, &InvalidProjectError{Path: source, Line: node.Line, Reason: "copy entry must map an output to a source file"}
	}
	out := make([]Target, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode || value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			return nil, &InvalidProjectError{Path: source, Line: key.Line, Reason: fmt.Sprintf("empty copy source for %q", key.Value)}
		}
		out = append(out, Target{
			Template:     value.Value,
			Output:       key.Value,
			TemplateType: CopyTemplateType,
		})
	}
	return out, nil
}

var targetKeys = map[string]bool{
	"template":      true,
	"configuration": true,
	"output":        true,
	"template_type": true,
}

// parseTarget accepts either {output: template} or an object with explicit
// template/configuration/output/template_type keys.
func parseTarget(node *yaml.Node, source string) (Target, error) {
	if node.Kind != yaml.MappingNode {
		return Target{}, &InvalidProjectError{Path: source, Line: node.Line, Reason: "target must be a mapping"}
	}

	fields := make(map[string]string, len(node.Content)/2)
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode || value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			return Target{}, &InvalidProjectError{Path: source, Line: key.Line, Reason: fmt.Sprintf("empty value for %q", key.Value)}
		}
		fields[key.Value] = value.Value
		keys = append(keys, key.Value)
	}

	_, hasOutput := fields["output"]
	_, hasTemplate := fields["template"]
	if hasOutput || hasTemplate {
		for _, key := range keys {
			if !targetKeys[key] {
				return Target{}, &InvalidProjectError{Path: source, Line: node.Line, Reason: fmt.Sprintf("unknown target key %q", key)}
			}
		}
		if !hasOutput {
			return Target{}, &InvalidProjectError{Path: source, Line: node.Line, Reason: "target has no output"}
		}
		return Target{
			Template:      fields["template"],
			Configuration: fields["configuration"],
			Output:        fields["output"],
			TemplateType:  fields["template_type"],
		}, nil
	}

	if len(keys) != 1 {
		return Target{}, &InvalidProjectError{Path: source, Line: node.Line, Reason: "short form target must map one output to one template"}
	}
	return Target{Output: keys[0], Template: fields[keys[0]]}, nil
}

// Dir is the directory relative paths in the project resolve against.
func (p *Project) Dir() string {
	if p == nil || p.Path == "" {
		return "."
	}
	return filepath.Dir(p.Path)
}

// Resolve anchors a relative path at the project directory.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Dir(), path)
}

// TemplateDirs returns the template search directories, resolved.
func (p *Project) TemplateDirs() []string {
	out := make([]string, 0, len(p.Options.TemplateDirs))
	for _, dir := range p.Options.TemplateDirs {
		out = append(out, p.Resolve(dir))
	}
	return out
}

// ConfigurationDirs returns the data search directories, resolved. The
// project directory comes last so data files next to the project file are
// found.
func (p *Project) ConfigurationDirs() []string {
	return []string{p.Resolve(p.Options.ConfigurationDir), p.Dir()}
}

// CachePath returns the hash store location, resolved.
func (p *Project) CachePath() string {
	return p.Resolve(p.Options.CachePath)
}

// Batches groups targets by template type in order of first appearance,
// followed by the copy entries. Outputs are resolved against the project
// directory; template and data references stay as written for the loaders.
func (p *Project) Batches() []Batch {
	var batches []Batch
	index := make(map[string]int)
	targets := append(append([]Target(nil), p.Targets...), p.Copies...)
	for _, target := range targets {
		i, ok := index[target.TemplateType]
		if !ok {
			i = len(batches)
			index[target.TemplateType] = i
			batches = append(batches, Batch{TemplateType: target.TemplateType})
		}
		batches[i].Triples = append(batches[i].Triples, plan.Triple{
			Template: target.Template,
			Data:     target.Configuration,
			Output:   p.Resolve(target.Output),
		})
	}
	return batches
}
