package rules

import (
	"errors"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"
)

func TestCompileRuleLiteralAndVerbatim(t *testing.T) {
	r, err := CompileRule(MethodName, Source{
		Attribute: ".+NoDutiful",
		Body: `
			@NoDutiful
			No_+.+
		`,
	})
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}

	want := []string{".+NoDutiful", "NoDutiful", "No_+.+"}
	if diff := cmp.Diff(want, r.Fragments()); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
	if got, want := r.String(), `^(?:.+NoDutiful|NoDutiful|No_+.+)$`; got != want {
		t.Errorf("pattern = %q, want %q", got, want)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"NoDutiful", true},
		{"FooNoDutiful", true},
		{"NoopNoDutiful", true},
		{"NoDutifulFoo", false},
		{"No_Thanks", true},
		{"No__Thanks", true},
		{"No_", false},
		{"No", false},
		{"NOOP", false},
	}
	for _, tt := range tests {
		if got := r.Match(tt.name); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLiteralEscapesMetacharacters(t *testing.T) {
	r, err := CompileRule(ReturnType, Source{Attribute: "@ System.IntPtr "})
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}
	if got, want := r.Fragments()[0], regexp2.Escape("System.IntPtr"); got != want {
		t.Errorf("fragment = %q, want %q", got, want)
	}
	if !r.Match("System.IntPtr") {
		t.Error("Match(System.IntPtr) = false, want true")
	}
	if r.Match("SystemXIntPtr") {
		t.Error("Match(SystemXIntPtr) = true, want false: the dot must be literal")
	}
	if r.Match("System.UIntPtr") {
		t.Error("Match(System.UIntPtr) = true, want false")
	}
}

func TestLiteralWithPatternCharacters(t *testing.T) {
	r, err := CompileRule(MethodName, Source{Body: "@Get(*)+[x]"})
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}
	if !r.Match("Get(*)+[x]") {
		t.Error("literal did not match itself")
	}
	if r.Match("Get") {
		t.Error("literal matched a shorter string")
	}
}

func TestDuplicatesKeepFirstOccurrence(t *testing.T) {
	r, err := CompileRule(ReturnType, Source{
		Attribute: `.+\.UIntPtr`,
		Body: `
			@System.IntPtr
			.+\.UIntPtr
			@System.IntPtr
			.+\.StringBuilder
		`,
	})
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}
	want := []string{`.+\.UIntPtr`, `System\.IntPtr`, `.+\.StringBuilder`}
	if diff := cmp.Diff(want, r.Fragments()); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileRuleEmptySource(t *testing.T) {
	r, err := CompileRule(MethodName, Source{Attribute: "  ", Body: "\n\t\n"})
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}
	if r != nil {
		t.Errorf("rule = %v, want nil", r)
	}
	if r.Match("anything") {
		t.Error("nil rule matched")
	}
}

func TestCompileRuleOnlyBareMarkers(t *testing.T) {
	_, err := CompileRule(MethodName, Source{Body: "@\n  @  \n"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Key != "StopWordForMethodName" {
		t.Errorf("key = %q, want StopWordForMethodName", cfgErr.Key)
	}
}

func TestCompileRuleInvalidFragment(t *testing.T) {
	_, err := CompileRule(ReturnType, Source{Body: "Good\n(unclosed\n"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Key != "StopWordForReturnType" {
		t.Errorf("key = %q, want StopWordForReturnType", cfgErr.Key)
	}
	if cfgErr.Fragment != "(unclosed" {
		t.Errorf("fragment = %q, want (unclosed", cfgErr.Fragment)
	}
	if errors.Unwrap(err) == nil {
		t.Error("ConfigError does not wrap the regex error")
	}
}

func TestFragmentCompiledInIsolation(t *testing.T) {
	// Each half would form a valid group once joined into the alternation.
	_, err := CompileRule(MethodName, Source{Body: "a(\n)b"})
	if err == nil {
		t.Fatal("expected error for unbalanced fragments")
	}
}

func TestCompileDefaults(t *testing.T) {
	set, err := Compile(Config{}, "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if set.NameFormat != DefaultNameFormat {
		t.Errorf("name format = %q, want %q", set.NameFormat, DefaultNameFormat)
	}
	if set.DeclaringType == nil {
		t.Fatal("declaring-type rule is nil")
	}
	if !set.DeclaringType.Match("System.Object") {
		t.Error("declaring-type rule does not stop System.Object")
	}
	if set.DeclaringType.Match("System.Objects") || set.DeclaringType.Match("SystemXObject") {
		t.Error("declaring-type fallback is not an exact literal")
	}
	if set.MethodName != nil {
		t.Errorf("method-name rule = %v, want nil", set.MethodName)
	}
	if set.ReturnType != nil {
		t.Errorf("return-type rule = %v, want nil", set.ReturnType)
	}
}

func TestCompileDeclaringTypeBodyKeepsFallback(t *testing.T) {
	set, err := Compile(Config{
		StopWords: map[Category]Source{
			DeclaringType: {Body: "@Acme.Widget"},
		},
	}, "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !set.DeclaringType.Match("Acme.Widget") {
		t.Error("configured declaring type not stopped")
	}
	if !set.DeclaringType.Match("System.Object") {
		t.Error("root object not stopped when only body lines are configured")
	}
	if got, want := set.DeclaringType.String(), `^(?:System\.Object|Acme\.Widget)$`; got != want {
		t.Errorf("declaring-type pattern = %q, want %q", got, want)
	}
}

func TestCompileDeclaringTypeAttributeReplacesFallback(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{"attribute only", Source{Attribute: "@Acme.Widget"}},
		{"attribute and body", Source{Attribute: "@Acme.Widget", Body: "@Acme.Gadget"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Compile(Config{
				StopWords: map[Category]Source{DeclaringType: tt.src},
			}, "System.Object")
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if !set.DeclaringType.Match("Acme.Widget") {
				t.Error("configured declaring type not stopped")
			}
			if set.DeclaringType.Match("System.Object") {
				t.Error("fallback applied although the attribute was configured")
			}
		})
	}
}

func TestNilRuleAccessors(t *testing.T) {
	var r *Rule
	if got := r.Fragments(); got != nil {
		t.Errorf("Fragments() = %v, want nil", got)
	}
	if got := r.String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
	if r.Match("anything") {
		t.Error("nil rule matched")
	}
}

func TestCompileEmptyNameFormatPresent(t *testing.T) {
	_, err := Compile(Config{NameFormatSet: true}, "System.Object")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Key != NameFormatKey {
		t.Errorf("error key = %q, want %q", cfgErr.Key, NameFormatKey)
	}

	set, err := Compile(Config{}, "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if set.NameFormat != DefaultNameFormat {
		t.Errorf("name format = %q, want %q", set.NameFormat, DefaultNameFormat)
	}
}

func TestCompileDeterministic(t *testing.T) {
	cfg := Config{
		NameFormat: "Careless{0}",
		StopWords: map[Category]Source{
			MethodName: {Attribute: ".+NoDutiful", Body: "@NoDutiful\nNo_+.+"},
			ReturnType: {Attribute: `.+\.UIntPtr`, Body: "@System.IntPtr\n.+\\.StringBuilder"},
		},
	}
	a, err := Compile(cfg, "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	b, err := Compile(cfg, "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for _, c := range Categories {
		if a.Rule(c).String() != b.Rule(c).String() {
			t.Errorf("%s: %q != %q", c, a.Rule(c), b.Rule(c))
		}
	}
	if a.NameFormat != b.NameFormat {
		t.Errorf("name format %q != %q", a.NameFormat, b.NameFormat)
	}
}

func TestCompileFailsOnFirstBadKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		key  string
	}{
		{
			name: "name format",
			cfg:  Config{NameFormat: "Careless"},
			key:  NameFormatKey,
		},
		{
			name: "declaring type",
			cfg:  Config{StopWords: map[Category]Source{DeclaringType: {Attribute: "[z-a]"}}},
			key:  "StopWordForDeclaringType",
		},
		{
			name: "return type",
			cfg:  Config{StopWords: map[Category]Source{ReturnType: {Body: "*"}}},
			key:  "StopWordForReturnType",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Compile(tt.cfg, "System.Object")
			if set != nil {
				t.Errorf("set = %v, want nil", set)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want *ConfigError", err)
			}
			if cfgErr.Key != tt.key {
				t.Errorf("key = %q, want %q", cfgErr.Key, tt.key)
			}
		})
	}
}

func TestNetDialectFeatures(t *testing.T) {
	// Lookahead is not supported by the standard library engine.
	r, err := CompileRule(MethodName, Source{Attribute: `(?!Keep).+Async`})
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}
	if !r.Match("LoadAsync") {
		t.Error("Match(LoadAsync) = false, want true")
	}
	if r.Match("KeepAsync") {
		t.Error("Match(KeepAsync) = true, want false")
	}
}

func TestCategoryKeys(t *testing.T) {
	want := []string{"StopWordForDeclaringType", "StopWordForMethodName", "StopWordForReturnType"}
	var got []string
	for _, c := range Categories {
		got = append(got, c.Key())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}
