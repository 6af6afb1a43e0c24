package batch

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// DataType is the logical type of a column.
type DataType string

const (
	Int32   DataType = "int32"
	Int64   DataType = "int64"
	Float64 DataType = "float64"
	Struct  DataType = "struct"
)

// Width returns the native per-row width in bytes of a primitive type. Struct width is the sum of its children.
func (t DataType) Width() int64 {
	switch t {
	case Int32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Field describes one named column. Children are set only for Struct fields.
type Field struct {
	Name     string            `yaml:"name"`
	Type     DataType          `yaml:"type"`
	Children []Field           `yaml:"children,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// WithMetadata returns a copy of the field with key set to value, recursively for struct children.
func (f Field) WithMetadata(key, value string) Field {
	md := make(map[string]string, len(f.Metadata)+1)
	for k, v := range f.Metadata {
		md[k] = v
	}
	md[key] = value
	f.Metadata = md

	if len(f.Children) > 0 {
		children := make([]Field, len(f.Children))
		for i, c := range f.Children {
			children[i] = c.WithMetadata(key, value)
		}
		f.Children = children
	}
	return f
}

// Schema is an ordered set of fields.
type Schema struct {
	Fields []Field `yaml:"fields"`
}

// NewSchema creates schema from fields.
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// WithMetadata returns a copy of the schema where every field carries key=value.
func (s Schema) WithMetadata(key, value string) Schema {
	fields := make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = f.WithMetadata(key, value)
	}
	return Schema{Fields: fields}
}

// Validate checks field names are unique and non-empty on every level and types are known.
func (s Schema) Validate() error {
	return validateFields(s.Fields, "")
}

func validateFields(fields []Field, prefix string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return errors.Errorf("empty field name under %q", prefix)
		}
		if _, ok := seen[f.Name]; ok {
			return errors.Errorf("duplicated field %q", prefix+f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case Int32, Int64, Float64:
			if len(f.Children) > 0 {
				return errors.Errorf("primitive field %q has children", prefix+f.Name)
			}
		case Struct:
			if len(f.Children) == 0 {
				return errors.Errorf("struct field %q has no children", prefix+f.Name)
			}
			if err := validateFields(f.Children, prefix+f.Name+"."); err != nil {
				return err
			}
		default:
			return errors.Errorf("unknown type %q of field %q", f.Type, prefix+f.Name)
		}
	}
	return nil
}

// Leaf is a primitive column addressed by its path from the schema root.
type Leaf struct {
	Path     []string
	Type     DataType
	Metadata map[string]string
}

func (l Leaf) String() string { return strings.Join(l.Path, ".") }

// Leaves returns primitive fields in depth-first declaration order.
func (s Schema) Leaves() []Leaf {
	var leaves []Leaf
	var walk func(fields []Field, prefix []string)
	walk = func(fields []Field, prefix []string) {
		for _, f := range fields {
			path := append(append([]string(nil), prefix...), f.Name)
			if f.Type == Struct {
				walk(f.Children, path)
				continue
			}
			leaves = append(leaves, Leaf{Path: path, Type: f.Type, Metadata: f.Metadata})
		}
	}
	walk(s.Fields, nil)
	return leaves
}

// NativeSize is the uncompressed size of rows rows of this schema: sum of per-row widths times row count.
func (s Schema) NativeSize(rows int) int64 {
	var width int64
	for _, l := range s.Leaves() {
		width += l.Type.Width()
	}
	return width * int64(rows)
}

// Equal reports whether both schemas have the same names, types and metadata in the same order.
func (s Schema) Equal(o Schema) bool {
	return fieldsEqual(s.Fields, o.Fields)
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return false
		}
		if len(a[i].Metadata) != len(b[i].Metadata) {
			return false
		}
		for k, v := range a[i].Metadata {
			if bv, ok := b[i].Metadata[k]; !ok || bv != v {
				return false
			}
		}
		if !fieldsEqual(a[i].Children, b[i].Children) {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, fieldString(f))
	}
	return strings.Join(parts, ", ")
}

func fieldString(f Field) string {
	if f.Type != Struct {
		return fmt.Sprintf("%s %s", f.Name, f.Type)
	}
	if len(f.Children) > 3 {
		return fmt.Sprintf("%s struct<%d fields>", f.Name, len(f.Children))
	}
	parts := make([]string, 0, len(f.Children))
	for _, c := range f.Children {
		parts = append(parts, fieldString(c))
	}
	return fmt.Sprintf("%s struct<%s>", f.Name, strings.Join(parts, ", "))
}
