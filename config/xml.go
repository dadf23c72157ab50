package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/licshee/dutiful/rules"
)

// WeaverElement is the element name of the weaver configuration.
const WeaverElement = "Dutiful"

// element is a generic XML element.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}

// ParseXML decodes a weaver element. The document root is either the
// element itself or a <Weavers> list containing it. Attributes and child
// elements that configure other features are ignored, so the element can be
// shared with other tools. A NameFormat attribute that is present but empty
// is kept as set and fails rule compilation.
func ParseXML(data []byte) (Weaver, error) {
	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		return Weaver{}, err
	}

	el := &root
	if root.XMLName.Local != WeaverElement {
		el = nil
		for i := range root.Children {
			if root.Children[i].XMLName.Local == WeaverElement {
				el = &root.Children[i]
				break
			}
		}
		if el == nil {
			return Weaver{}, fmt.Errorf("no <%s> element", WeaverElement)
		}
	}

	var w Weaver
	for _, attr := range el.Attrs {
		if attr.Name.Local == rules.NameFormatKey {
			w.NameFormat = attr.Value
			w.NameFormatSet = true
			continue
		}
		if sw := w.stopWordByKey(attr.Name.Local); sw != nil {
			sw.Pattern = attr.Value
		}
	}
	// Only the first child of each name is read.
	seen := make(map[string]bool)
	for _, child := range el.Children {
		key := child.XMLName.Local
		if seen[key] {
			continue
		}
		if sw := w.stopWordByKey(key); sw != nil {
			sw.Lines = child.Text
			seen[key] = true
		}
	}
	return w, nil
}

func (w *Weaver) stopWordByKey(key string) *StopWord {
	for _, c := range rules.Categories {
		if c.Key() == key {
			return w.stopWord(c)
		}
	}
	return nil
}

func loadXML(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	w, err := ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m := &Manifest{Weaver: w}
	if err := m.setDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return m, nil
}
