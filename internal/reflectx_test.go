package internal

import (
	"reflect"
	"testing"
)

type inner struct{ A int }

type tagged struct {
	Plain   int
	Named   int   `untangle:"n"`
	Opts    int   `untangle:"o, default ,omitempty"`
	Flat    inner `untangle:"flat,flatten"`
	Skipped int   `untangle:"-"`
	inner
	*Embedded
	hidden int
}

type Embedded struct{ B int }

func TestParseTag(t *testing.T) {
	rt := reflect.TypeOf(tagged{})
	want := map[string]FieldTag{
		"Plain":    {Name: "Plain"},
		"Named":    {Name: "n"},
		"Opts":     {Name: "o", Default: true, OmitEmpty: true},
		"Flat":     {Name: "flat", Flatten: true},
		"Skipped":  {Skip: true},
		"inner":    {Skip: true},
		"Embedded": {Name: "Embedded", Flatten: true},
		"hidden":   {Skip: true},
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if got := ParseTag(f); got != want[f.Name] {
			t.Fatalf("%s: got %+v want %+v", f.Name, got, want[f.Name])
		}
	}
}
