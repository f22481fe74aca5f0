// Package driver connects bliss programs to the file system: project
// manifests, lockfiles, dependency installation and import resolution.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file that marks the root of a project.
const ManifestName = "bliss.yml"

// ErrNoManifest is returned by FindManifest when no enclosing directory
// holds a manifest.
var ErrNoManifest = errors.New("manifest: no " + ManifestName + " found")

// Manifest represents the parsed contents of bliss.yml.
type Manifest struct {
	Path    string
	Name    string
	Version string
	// Entry is the program run by `bliss run` without arguments, relative to
	// the manifest directory.
	Entry string
	// Paths are extra module search roots relative to the manifest directory.
	Paths        []string
	Runtime      RuntimeConfig
	Dependencies map[string]*DependencySpec
}

// RuntimeConfig holds interpreter settings.
type RuntimeConfig struct {
	MaxCallDepth int
}

// DependencySpec describes a dependency either as a local path or as a git
// repository pinned by rev, tag or branch.
type DependencySpec struct {
	Path   string
	Git    string
	Rev    string
	Tag    string
	Branch string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	b.WriteString(":")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Dir is the directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// EntryPath returns the absolute path of the entry program, or "" when the
// manifest names none.
func (m *Manifest) EntryPath() string {
	if m.Entry == "" {
		return ""
	}
	return filepath.Join(m.Dir(), m.Entry)
}

// SearchRoots returns the absolute module search roots listed under paths.
func (m *Manifest) SearchRoots() []string {
	roots := make([]string, 0, len(m.Paths))
	for _, p := range m.Paths {
		if filepath.IsAbs(p) {
			roots = append(roots, filepath.Clean(p))
			continue
		}
		roots = append(roots, filepath.Join(m.Dir(), p))
	}
	return roots
}

// DependencyNames lists dependencies in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindManifest walks up from dir to the nearest directory holding a
// manifest and returns the manifest's path.
func FindManifest(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoManifest
		}
		abs = parent
	}
}

// LoadManifest parses bliss.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	errs := ValidationError{Path: m.Path}
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Entry != "" && filepath.IsAbs(m.Entry) {
		errs.Issues = append(errs.Issues, "entry must be relative to the manifest")
	}
	for i, p := range m.Paths {
		if p == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("paths[%d] must be a non-empty string", i))
		}
	}
	if m.Runtime.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "runtime.max_call_depth must not be negative")
	}
	for _, name := range m.DependencyNames() {
		if sanitizeSegment(name) != name || name == "." || name == ".." {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: name may only contain letters, digits, '.', '-' and '_'", name))
		}
		for _, issue := range m.Dependencies[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	switch {
	case d.Path == "" && d.Git == "":
		errs = append(errs, "must specify path or git")
	case d.Path != "" && d.Git != "":
		errs = append(errs, "path dependencies cannot also specify git")
	}
	if d.Path != "" && (d.Rev != "" || d.Tag != "" || d.Branch != "") {
		errs = append(errs, "rev, tag and branch apply only to git dependencies")
	}
	if d.Git != "" {
		pins := 0
		for _, pin := range []string{d.Rev, d.Tag, d.Branch} {
			if pin != "" {
				pins++
			}
		}
		switch pins {
		case 0:
			errs = append(errs, "git dependencies require rev, tag, or branch")
		case 1:
		default:
			errs = append(errs, "git dependencies take only one of rev, tag, or branch")
		}
	}
	return errs
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Entry        string        `yaml:"entry"`
	Paths        stringList    `yaml:"paths"`
	Runtime      runtimeYAML   `yaml:"runtime"`
	Dependencies dependencyMap `yaml:"dependencies"`
}

type runtimeYAML struct {
	MaxCallDepth int `yaml:"max_call_depth"`
}

type dependencyMap map[string]*DependencySpec

type stringList []string

func (mf manifestFile) toManifest(path string) *Manifest {
	deps := make(map[string]*DependencySpec, len(mf.Dependencies))
	for name, dep := range mf.Dependencies {
		if dep == nil {
			continue
		}
		copy := *dep
		deps[name] = &copy
	}
	return &Manifest{
		Path:         path,
		Name:         strings.TrimSpace(mf.Name),
		Version:      strings.TrimSpace(mf.Version),
		Entry:        filepath.FromSlash(strings.TrimSpace(mf.Entry)),
		Paths:        mf.Paths.clone(),
		Runtime:      RuntimeConfig{MaxCallDepth: mf.Runtime.MaxCallDepth},
		Dependencies: deps,
	}
}

func (l stringList) clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, len(l))
	for i, item := range l {
		out[i] = filepath.FromSlash(strings.TrimSpace(item))
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, strings.TrimSpace(str))
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*dm = make(dependencyMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		var dep DependencySpec
		if err := dep.unmarshalYAML(value.Content[i+1]); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		result[key] = &dep
	}
	*dm = result
	return nil
}

// unmarshalYAML accepts a bare string as shorthand for a path dependency.
func (d *DependencySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*d = DependencySpec{}
			return nil
		}
		*d = DependencySpec{Path: filepath.FromSlash(strings.TrimSpace(value.Value))}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Path   string `yaml:"path"`
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DependencySpec{
			Path:   filepath.FromSlash(strings.TrimSpace(raw.Path)),
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

// sanitizeSegment makes s safe to use as a single path element.
func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
