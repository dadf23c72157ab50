// Package rules compiles stop-word configuration into the anchored
// patterns that decide which methods are excluded from wrapping.
//
// Each rule category (declaring type, method name, return type) has two
// sources: a single pattern supplied as an attribute and a block of
// newline-separated patterns supplied as an element body. A line starting
// with '@' is a literal and is escaped; any other line is a pattern
// fragment used verbatim. All fragments of a category are combined into one
// alternation anchored at both ends: ^(?:f1|f2|...)$.
//
// Patterns use the .NET regular-expression dialect via regexp2.
package rules

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// LiteralMarker prefixes a line that must be matched literally.
const LiteralMarker = '@'

// MatchTimeout bounds a single pattern match.
const MatchTimeout = 250 * time.Millisecond

// Category selects one of the three stop-word rule families.
type Category int

const (
	DeclaringType Category = iota
	MethodName
	ReturnType
)

// Categories lists every category in evaluation order.
var Categories = []Category{DeclaringType, MethodName, ReturnType}

// Key returns the configuration key of the category.
func (c Category) Key() string {
	switch c {
	case DeclaringType:
		return "StopWordForDeclaringType"
	case MethodName:
		return "StopWordForMethodName"
	case ReturnType:
		return "StopWordForReturnType"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return c.Key()
}

// Source holds the raw configuration of one category.
type Source struct {
	// Attribute is a single pattern line. Blank means absent.
	Attribute string
	// Body is a block of newline-separated pattern lines. Blank means absent.
	Body string
}

// IsZero reports whether neither source was supplied.
func (s Source) IsZero() bool {
	return strings.TrimSpace(s.Attribute) == "" && strings.TrimSpace(s.Body) == ""
}

// Config is the raw, unvalidated weaver configuration.
type Config struct {
	NameFormat string
	// NameFormatSet marks a NameFormat key that was present in the source
	// configuration. A present but empty template is rejected instead of
	// selecting the default.
	NameFormatSet bool
	StopWords     map[Category]Source
}

// Rule is a compiled stop-word pattern.
type Rule struct {
	category  Category
	fragments []string
	re        *regexp2.Regexp
}

// Category returns the rule's category.
func (r *Rule) Category() Category { return r.category }

// Fragments returns the de-duplicated fragments in alternation order.
func (r *Rule) Fragments() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.fragments))
	copy(out, r.fragments)
	return out
}

// String returns the anchored pattern.
func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.re.String()
}

// Match reports whether s matches the whole pattern. A nil rule matches
// nothing. A match that exceeds MatchTimeout counts as a match so that a
// pathological pattern excludes rather than wraps.
func (r *Rule) Match(s string) bool {
	if r == nil {
		return false
	}
	ok, err := r.re.MatchString(s)
	if err != nil {
		return true
	}
	return ok
}

// Set is the compiled configuration of one weaving run. It is immutable.
type Set struct {
	NameFormat    NameFormat
	DeclaringType *Rule // never nil
	MethodName    *Rule // nil when unrestricted
	ReturnType    *Rule // nil when unrestricted
}

// Rule returns the compiled rule of a category, possibly nil.
func (s *Set) Rule(c Category) *Rule {
	switch c {
	case DeclaringType:
		return s.DeclaringType
	case MethodName:
		return s.MethodName
	case ReturnType:
		return s.ReturnType
	}
	return nil
}

// Compile validates cfg and builds the rule set. rootObject is the full
// name of the root object type; it stands in for the declaring-type
// attribute when none is configured, ahead of any body lines. Any invalid
// key yields a *ConfigError.
func Compile(cfg Config, rootObject string) (*Set, error) {
	if cfg.NameFormatSet && cfg.NameFormat == "" {
		return nil, &ConfigError{Key: NameFormatKey, Reason: "missing {0} substitution slot"}
	}
	format, err := ParseNameFormat(cfg.NameFormat)
	if err != nil {
		return nil, err
	}

	set := &Set{NameFormat: format}

	declaring := cfg.StopWords[DeclaringType]
	if strings.TrimSpace(declaring.Attribute) == "" {
		declaring.Attribute = string(LiteralMarker) + rootObject
	}
	if set.DeclaringType, err = CompileRule(DeclaringType, declaring); err != nil {
		return nil, err
	}
	if set.MethodName, err = CompileRule(MethodName, cfg.StopWords[MethodName]); err != nil {
		return nil, err
	}
	if set.ReturnType, err = CompileRule(ReturnType, cfg.StopWords[ReturnType]); err != nil {
		return nil, err
	}
	return set, nil
}

// CompileRule builds the rule of one category. It returns nil, nil when the
// source is empty.
func CompileRule(c Category, src Source) (*Rule, error) {
	if src.IsZero() {
		return nil, nil
	}

	var lines []string
	if attr := strings.TrimSpace(src.Attribute); attr != "" {
		lines = append(lines, attr)
	}
	lines = append(lines, splitLines(src.Body)...)

	fragments := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		frag, err := fragment(c, line)
		if err != nil {
			return nil, err
		}
		if frag == "" || seen[frag] {
			continue
		}
		seen[frag] = true
		fragments = append(fragments, frag)
	}
	if len(fragments) == 0 {
		return nil, &ConfigError{Key: c.Key(), Reason: "no usable pattern"}
	}

	pattern := "^(?:" + strings.Join(fragments, "|") + ")$"
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, &ConfigError{Key: c.Key(), Fragment: pattern, Err: err}
	}
	re.MatchTimeout = MatchTimeout

	return &Rule{category: c, fragments: fragments, re: re}, nil
}

// fragment converts one trimmed, non-empty line into a pattern fragment.
func fragment(c Category, line string) (string, error) {
	if line[0] == LiteralMarker {
		return regexp2.Escape(strings.TrimSpace(line[1:])), nil
	}
	if _, err := regexp2.Compile(line, regexp2.None); err != nil {
		return "", &ConfigError{Key: c.Key(), Fragment: line, Err: err}
	}
	return line, nil
}

// splitLines returns the trimmed, non-blank lines of s.
func splitLines(s string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
