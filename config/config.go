// Package config handles dutiful.toml project configuration and the XML
// weaver element.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/licshee/dutiful/rules"
)

// ManifestName is the project configuration file name.
const ManifestName = "dutiful.toml"

// Manifest represents a dutiful.toml project configuration.
type Manifest struct {
	Module ModuleConfig `toml:"module"`
	Weaver Weaver       `toml:"weaver"`

	// Dir is the directory containing the configuration file (set at load
	// time).
	Dir string `toml:"-"`
}

// ModuleConfig locates the module image to weave.
type ModuleConfig struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`
}

// Weaver is the raw weaver configuration. Keys match the configuration
// keys of the rule compiler.
type Weaver struct {
	NameFormat               string   `toml:"NameFormat"`
	NameFormatSet            bool     `toml:"-"`
	StopWordForDeclaringType StopWord `toml:"StopWordForDeclaringType"`
	StopWordForMethodName    StopWord `toml:"StopWordForMethodName"`
	StopWordForReturnType    StopWord `toml:"StopWordForReturnType"`
}

// StopWord holds both sources of one stop-word category: a single pattern
// and a block of newline-separated patterns.
type StopWord struct {
	Pattern string `toml:"pattern"`
	Lines   string `toml:"lines"`
}

// Rules converts the weaver configuration for the rule compiler.
func (w Weaver) Rules() rules.Config {
	cfg := rules.Config{
		NameFormat:    w.NameFormat,
		NameFormatSet: w.NameFormatSet,
		StopWords:     make(map[rules.Category]rules.Source),
	}
	for c, sw := range map[rules.Category]StopWord{
		rules.DeclaringType: w.StopWordForDeclaringType,
		rules.MethodName:    w.StopWordForMethodName,
		rules.ReturnType:    w.StopWordForReturnType,
	} {
		src := rules.Source{Attribute: sw.Pattern, Body: sw.Lines}
		if !src.IsZero() {
			cfg.StopWords[c] = src
		}
	}
	return cfg
}

// stopWord returns a pointer to the field configuring c.
func (w *Weaver) stopWord(c rules.Category) *StopWord {
	switch c {
	case rules.DeclaringType:
		return &w.StopWordForDeclaringType
	case rules.MethodName:
		return &w.StopWordForMethodName
	case rules.ReturnType:
		return &w.StopWordForReturnType
	}
	return nil
}

// Load parses the dutiful.toml file in dir.
func Load(dir string) (*Manifest, error) {
	return loadTOML(filepath.Join(dir, ManifestName))
}

// FindAndLoad walks up from startDir to find a dutiful.toml file, then
// loads and returns it. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// LoadFile loads a configuration file by extension: .toml files are
// manifests, .xml files hold a weaver element.
func LoadFile(path string) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".xml":
		return loadXML(path)
	default:
		return nil, fmt.Errorf("%s: unknown configuration format", path)
	}
}

func loadTOML(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Weaver.NameFormatSet = md.IsDefined("weaver", rules.NameFormatKey)

	if err := m.setDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	m.applyDefaults()
	return &m, nil
}

// checkUndecoded rejects unknown keys in the [weaver] table, where a typo
// would silently drop a rule.
func checkUndecoded(md toml.MetaData) error {
	var unknown []string
	for _, key := range md.Undecoded() {
		if len(key) > 0 && key[0] == "weaver" {
			unknown = append(unknown, key.String())
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown weaver keys: %s", strings.Join(unknown, ", "))
}

func (m *Manifest) setDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.Dir = abs
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.Module.Output == "" {
		m.Module.Output = m.Module.Input
	}
}

// InputPath returns the module input path resolved against Dir.
func (m *Manifest) InputPath() string {
	return m.resolve(m.Module.Input)
}

// OutputPath returns the module output path resolved against Dir.
func (m *Manifest) OutputPath() string {
	return m.resolve(m.Module.Output)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
