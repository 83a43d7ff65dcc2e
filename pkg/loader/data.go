package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverridesKey names the parent data files a data file extends.
const OverridesKey = "overrides"

// Data loads YAML data files from configuration directories.
type Data struct {
	dirs []string
	env  Env
}

// NewData constructs a data loader searching dirs and completing results with
// env.
func NewData(dirs []string, env Env) *Data {
	return &Data{
		dirs: append([]string(nil), dirs...),
		env:  env,
	}
}

// Dirs returns the search directories.
func (l *Data) Dirs() []string {
	return append([]string(nil), l.dirs...)
}

// Resolve returns the path of ref. A reference that exists as given wins over
// the search directories.
func (l *Data) Resolve(ref string) (string, error) {
	return l.resolveFrom("", ref)
}

func (l *Data) resolveFrom(base, ref string) (string, error) {
	if isFile(ref) {
		return filepath.Clean(ref), nil
	}
	if !filepath.IsAbs(ref) {
		if base != "" {
			if candidate := filepath.Join(base, ref); isFile(candidate) {
				return candidate, nil
			}
		}
		for _, dir := range l.dirs {
			if candidate := filepath.Join(dir, ref); isFile(candidate) {
				return candidate, nil
			}
		}
	}
	return "", &NotFoundError{Kind: ErrDataFileNotFound, Ref: ref, Searched: l.Dirs()}
}

// Load reads ref, applies its overrides chain and merges the environment
// snapshot underneath. The returned map is owned by the caller.
func (l *Data) Load(ctx context.Context, ref string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := l.loadChain(ctx, "", ref, map[string]struct{}{})
	if err != nil {
		return nil, err
	}
	l.env.mergeUnder(data)
	return data, nil
}

func (l *Data) loadChain(ctx context.Context, base, ref string, visiting map[string]struct{}) (map[string]any, error) {
	path, err := l.resolveFrom(base, ref)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if _, seen := visiting[abs]; seen {
		return nil, fmt.Errorf("loader: overrides cycle through %s", path)
	}
	visiting[abs] = struct{}{}
	defer delete(visiting, abs)

	data, err := readYAML(path)
	if err != nil {
		return nil, err
	}

	parents, err := overrideRefs(data[OverridesKey], path)
	if err != nil {
		return nil, err
	}
	delete(data, OverridesKey)

	for _, parentRef := range parents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent, err := l.loadChain(ctx, filepath.Dir(path), parentRef, visiting)
		if err != nil {
			return nil, fmt.Errorf("loader: overrides of %s: %w", path, err)
		}
		mergeMissing(data, parent)
	}
	return data, nil
}

func readYAML(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read data %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("loader: %s is an invalid yaml file: %w", path, err)
	}
	if decoded == nil {
		return map[string]any{}, nil
	}
	normalised, ok := normaliseValue(decoded).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("loader: %s must contain a mapping at the top level", path)
	}
	return normalised, nil
}

func overrideRefs(raw any, source string) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("loader: %s: %s entries must be file names", source, OverridesKey)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("loader: %s: %s must be a file name or a list of file names", source, OverridesKey)
	}
}

// mergeMissing copies keys from parent that data lacks, descending into
// nested mappings present on both sides.
func mergeMissing(data, parent map[string]any) {
	for key, parentValue := range parent {
		current, exists := data[key]
		if !exists {
			data[key] = parentValue
			continue
		}
		childMap, childIsMap := current.(map[string]any)
		parentMap, parentIsMap := parentValue.(map[string]any)
		if childIsMap && parentIsMap {
			mergeMissing(childMap, parentMap)
		}
	}
}

// normaliseValue turns map[any]any produced for non-string keys into
// map[string]any so template engines see one map type.
func normaliseValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normaliseValue(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normaliseValue(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normaliseValue(item)
		}
		return v
	default:
		return value
	}
}
