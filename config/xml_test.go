package config

import (
	"errors"
	"testing"

	"github.com/licshee/dutiful/rules"
)

const weaversXML = `<?xml version="1.0" encoding="utf-8"?>
<Weavers>
  <PropertyChanged />
  <Dutiful NameFormat="Careless{0}" SyncNameFormat="Sync"
           StopWordForReturnType=".+\.UIntPtr"
           StopWordForMethodName=".+NoDutiful">
    <StopWordForReturnType>
      @System.IntPtr
      .+\.StringBuilder
    </StopWordForReturnType>
    <StopWordForMethodName>
      @NoDutiful
      No_+.+
    </StopWordForMethodName>
  </Dutiful>
</Weavers>`

func TestParseXMLWeaversList(t *testing.T) {
	w, err := ParseXML([]byte(weaversXML))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if w.NameFormat != "Careless{0}" {
		t.Errorf("name format = %q, want Careless{0}", w.NameFormat)
	}
	if w.StopWordForReturnType.Pattern != `.+\.UIntPtr` {
		t.Errorf("return-type pattern = %q", w.StopWordForReturnType.Pattern)
	}

	set, err := rules.Compile(w.Rules(), "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got, want := set.ReturnType.String(), `^(?:.+\.UIntPtr|System\.IntPtr|.+\.StringBuilder)$`; got != want {
		t.Errorf("return-type pattern = %q, want %q", got, want)
	}
	if got, want := set.MethodName.String(), `^(?:.+NoDutiful|NoDutiful|No_+.+)$`; got != want {
		t.Errorf("method-name pattern = %q, want %q", got, want)
	}
	if set.DeclaringType.String() != `^(?:System\.Object)$` {
		t.Errorf("declaring-type pattern = %q", set.DeclaringType.String())
	}
}

func TestParseXMLBareElement(t *testing.T) {
	w, err := ParseXML([]byte(`<Dutiful StopWordForDeclaringType="@Acme.Widget"/>`))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if w.StopWordForDeclaringType.Pattern != "@Acme.Widget" {
		t.Errorf("declaring-type pattern = %q, want @Acme.Widget", w.StopWordForDeclaringType.Pattern)
	}
	if w.NameFormat != "" {
		t.Errorf("name format = %q, want empty", w.NameFormat)
	}
}

func TestParseXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `<Dutiful NameFormat="x"`},
		{"missing element", `<Weavers><PropertyChanged/></Weavers>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseXML([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseXMLEmptyNameFormat(t *testing.T) {
	w, err := ParseXML([]byte(`<Dutiful NameFormat=""/>`))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if !w.NameFormatSet {
		t.Error("empty NameFormat attribute not recorded as present")
	}

	_, err = rules.Compile(w.Rules(), "System.Object")
	var cfgErr *rules.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Key != rules.NameFormatKey {
		t.Errorf("Compile error = %v, want a NameFormat ConfigError", err)
	}

	w, err = ParseXML([]byte(`<Dutiful/>`))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if w.NameFormatSet {
		t.Error("absent NameFormat attribute recorded as present")
	}
}

func TestParseXMLFirstChildWins(t *testing.T) {
	w, err := ParseXML([]byte(`<Dutiful>
  <StopWordForMethodName>@First</StopWordForMethodName>
  <StopWordForMethodName>@Second</StopWordForMethodName>
</Dutiful>`))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if w.StopWordForMethodName.Lines != "@First" {
		t.Errorf("method-name lines = %q, want @First", w.StopWordForMethodName.Lines)
	}

	set, err := rules.Compile(w.Rules(), "System.Object")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if set.MethodName.Match("Second") {
		t.Error("second StopWordForMethodName element was read")
	}
}
