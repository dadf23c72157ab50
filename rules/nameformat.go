package rules

import "strings"

// NameFormatKey is the configuration key of the wrapper name template.
const NameFormatKey = "NameFormat"

// DefaultNameFormat is used when no template is configured.
const DefaultNameFormat NameFormat = "Dutiful{0}"

// NameFormat is a wrapper name template in composite-format syntax: "{0}"
// is replaced by the original method name, "{{" and "}}" are literal
// braces.
type NameFormat string

// ParseNameFormat validates a template. An empty template selects
// DefaultNameFormat. The template must contain the {0} slot at least once
// and no other placeholder.
func ParseNameFormat(s string) (NameFormat, error) {
	if s == "" {
		return DefaultNameFormat, nil
	}

	fail := func(reason string) (NameFormat, error) {
		return "", &ConfigError{Key: NameFormatKey, Fragment: s, Reason: reason}
	}

	slots := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return fail("unterminated placeholder")
			}
			if s[i+1:i+end] != "0" {
				return fail("unsupported placeholder " + s[i:i+end+1])
			}
			slots++
			i += end
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				i++
				continue
			}
			return fail("unbalanced '}'")
		}
	}
	if slots == 0 {
		return fail("missing {0} substitution slot")
	}
	return NameFormat(s), nil
}

// Apply substitutes name into the template. The template must have been
// produced by ParseNameFormat.
func (f NameFormat) Apply(name string) string {
	s := string(f)
	var sb strings.Builder
	sb.Grow(len(s) + len(name))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{' && strings.HasPrefix(s[i:], "{0}"):
			sb.WriteString(name)
			i += 2
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (f NameFormat) String() string {
	return string(f)
}
