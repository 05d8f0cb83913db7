package internal

import (
	"reflect"
	"strings"
)

// FieldTag is a parsed `untangle:"<name>[,flatten][,default][,omitempty]"`
// struct tag.
type FieldTag struct {
	Name      string
	Skip      bool
	Flatten   bool
	Default   bool
	OmitEmpty bool
}

// ParseTag reads the untangle tag of f. Untagged fields use their Go name;
// untagged embedded structs are flattened. Unexported fields and `"-"` are
// skipped.
func ParseTag(f reflect.StructField) FieldTag {
	tag := f.Tag.Get("untangle")
	if tag == "-" || !f.IsExported() {
		return FieldTag{Skip: true}
	}
	parts := strings.Split(tag, ",")
	ft := FieldTag{Name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "flatten":
			ft.Flatten = true
		case "default":
			ft.Default = true
		case "omitempty":
			ft.OmitEmpty = true
		}
	}
	if f.Anonymous && ft.Name == "" && indirect(f.Type).Kind() == reflect.Struct {
		ft.Flatten = true
	}
	if ft.Name == "" {
		ft.Name = f.Name
	}
	return ft
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
