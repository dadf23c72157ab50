package ir

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Image Format Constants
// ---------------------------------------------------------------------------

// ImageMagic identifies a module image file.
var ImageMagic = [4]byte{'D', 'T', 'F', 'L'}

// ImageVersion is the current image format version.
// v1: initial format
const ImageVersion uint16 = 1

// ImageHeaderSize is magic(4) + version(2) + flags(2).
const ImageHeaderSize = 8

var (
	ErrBadMagic           = errors.New("ir: not a module image (bad magic)")
	ErrUnsupportedVersion = errors.New("ir: unsupported image version")
	ErrCorruptImage       = errors.New("ir: corrupt image")
)

var imageEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ir: failed to create CBOR enc mode: %v", err))
	}
	imageEncMode = em
}

// ---------------------------------------------------------------------------
// Wire records
// ---------------------------------------------------------------------------

type moduleImage struct {
	Name       string        `cbor:"1,keyasint"`
	TypeSystem TypeSystem    `cbor:"2,keyasint"`
	Types      []typeImage   `cbor:"3,keyasint"`
	Methods    []methodImage `cbor:"4,keyasint"`
}

type typeImage struct {
	Namespace string     `cbor:"1,keyasint,omitempty"`
	Name      string     `cbor:"2,keyasint"`
	Public    bool       `cbor:"3,keyasint"`
	Category  Category   `cbor:"4,keyasint"`
	BaseType  TypeID     `cbor:"5,keyasint"`
	Imported  bool       `cbor:"6,keyasint,omitempty"`
	Methods   []MethodID `cbor:"7,keyasint"`
}

type methodImage struct {
	Name             string            `cbor:"1,keyasint"`
	Attributes       MethodAttributes  `cbor:"2,keyasint"`
	Kind             MethodKind        `cbor:"3,keyasint"`
	DeclaringType    TypeID            `cbor:"4,keyasint"`
	ReturnType       TypeRef           `cbor:"5,keyasint"`
	Parameters       []Parameter       `cbor:"6,keyasint"`
	CustomAttributes []CustomAttribute `cbor:"7,keyasint,omitempty"`
	Body             *Body             `cbor:"8,keyasint,omitempty"`
	BaseMethod       MethodID          `cbor:"9,keyasint"`
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// WriteImage serializes mod to w.
//
// Parameters and custom attributes shared between methods are written once
// per method; a reloaded module has separate, equal copies.
func WriteImage(w io.Writer, mod *Module) error {
	img := moduleImage{
		Name:       mod.Name,
		TypeSystem: mod.TypeSystem,
		Types:      make([]typeImage, len(mod.types)),
		Methods:    make([]methodImage, len(mod.methods)),
	}
	for i, t := range mod.types {
		img.Types[i] = typeImage{
			Namespace: t.Namespace,
			Name:      t.Name,
			Public:    t.Public,
			Category:  t.Category,
			BaseType:  t.BaseType,
			Imported:  t.Imported,
			Methods:   t.MethodIDs(),
		}
	}
	for i, meth := range mod.methods {
		mi := methodImage{
			Name:          meth.Name,
			Attributes:    meth.Attributes,
			Kind:          meth.Kind,
			DeclaringType: meth.DeclaringType,
			ReturnType:    meth.ReturnType,
			Parameters:    make([]Parameter, len(meth.Parameters)),
			Body:          meth.Body,
			BaseMethod:    meth.BaseMethod,
		}
		for j, p := range meth.Parameters {
			mi.Parameters[j] = *p
		}
		for _, attr := range meth.CustomAttributes {
			mi.CustomAttributes = append(mi.CustomAttributes, *attr)
		}
		img.Methods[i] = mi
	}

	payload, err := imageEncMode.Marshal(&img)
	if err != nil {
		return fmt.Errorf("ir: encode module %s: %w", mod.Name, err)
	}

	var header [ImageHeaderSize]byte
	copy(header[:4], ImageMagic[:])
	binary.LittleEndian.PutUint16(header[4:6], ImageVersion)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// SaveImage writes mod to the file at path.
func SaveImage(path string, mod *Module) error {
	var buf bytes.Buffer
	if err := WriteImage(&buf, mod); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// ReadImage deserializes a module from r.
func ReadImage(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < ImageHeaderSize || !bytes.Equal(data[:4], ImageMagic[:]) {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != ImageVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	var img moduleImage
	if err := cbor.Unmarshal(data[ImageHeaderSize:], &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	mod := &Module{
		Name:       img.Name,
		TypeSystem: img.TypeSystem,
		types:      make([]*Type, len(img.Types)),
		methods:    make([]*Method, len(img.Methods)),
	}

	for i, mi := range img.Methods {
		meth := &Method{
			ID:            MethodID(i),
			Name:          mi.Name,
			Attributes:    mi.Attributes,
			Kind:          mi.Kind,
			DeclaringType: mi.DeclaringType,
			ReturnType:    mi.ReturnType,
			Parameters:    make([]*Parameter, len(mi.Parameters)),
			Body:          mi.Body,
			BaseMethod:    mi.BaseMethod,
		}
		for j := range mi.Parameters {
			p := mi.Parameters[j]
			meth.Parameters[j] = &p
		}
		for j := range mi.CustomAttributes {
			attr := mi.CustomAttributes[j]
			meth.CustomAttributes = append(meth.CustomAttributes, &attr)
		}
		mod.methods[i] = meth
	}

	for i, ti := range img.Types {
		t := &Type{
			ID:        TypeID(i),
			Namespace: ti.Namespace,
			Name:      ti.Name,
			Public:    ti.Public,
			Category:  ti.Category,
			BaseType:  ti.BaseType,
			Imported:  ti.Imported,
			methods:   ti.Methods,
		}
		mod.types[i] = t
	}

	if err := mod.checkLinks(); err != nil {
		return nil, err
	}
	return mod, nil
}

// LoadImage reads a module from the file at path.
func LoadImage(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mod, err := ReadImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mod, nil
}

// checkLinks verifies that every ID stored in the arenas resolves.
func (m *Module) checkLinks() error {
	for _, t := range m.types {
		if t.BaseType != NoType && m.Type(t.BaseType) == nil {
			return fmt.Errorf("%w: type %s has unknown base type %d", ErrCorruptImage, t.FullName(), t.BaseType)
		}
		for _, id := range t.methods {
			meth := m.Method(id)
			if meth == nil {
				return fmt.Errorf("%w: type %s lists unknown method %d", ErrCorruptImage, t.FullName(), id)
			}
			if meth.DeclaringType != t.ID {
				return fmt.Errorf("%w: method %s is listed by %s but declared by %d",
					ErrCorruptImage, meth.Name, t.FullName(), meth.DeclaringType)
			}
		}
	}
	for _, meth := range m.methods {
		if meth.BaseMethod != NoMethod && m.Method(meth.BaseMethod) == nil {
			return fmt.Errorf("%w: method %s overrides unknown method %d", ErrCorruptImage, meth.Name, meth.BaseMethod)
		}
	}
	return nil
}
