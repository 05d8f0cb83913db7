package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestTreeToJSON(t *testing.T) {
	got, err := runCLI(t, `Person{name: "Ada", age: 36u8}`, "--to", "json")
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"name":"Ada","age":36}` + "\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestJSONToTree(t *testing.T) {
	got, err := runCLI(t, `{"a": [true, null], "n": 7}`, "--from", "json", "--to", "tree")
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\"a\": [true, ()], \"n\": 7u64}\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRoundTripThroughBinaryFormats(t *testing.T) {
	// Relish map values share one type.
	sources := map[string]string{
		"cbor":   `{"k": [true, false], "s": "hello"}`,
		"relish": `{"a": [1u16, 2u16], "b": [3u16]}`,
	}
	for format, src := range sources {
		for _, codec := range []string{"none", "zstd", "lz4"} {
			encoded, err := runCLI(t, src, "--to", format, "--compress", codec)
			if err != nil {
				t.Fatalf("%s/%s encode: %v", format, codec, err)
			}
			got, err := runCLI(t, encoded, "--from", format, "--decompress", codec, "--to", "tree")
			if err != nil {
				t.Fatalf("%s/%s decode: %v", format, codec, err)
			}
			if got != src+"\n" {
				t.Fatalf("%s/%s: got %q want %q", format, codec, got, src)
			}
		}
	}
}

func TestHexOutput(t *testing.T) {
	got, err := runCLI(t, "true", "--to", "cbor", "--hex")
	if err != nil {
		t.Fatal(err)
	}
	if got != "f5\n" {
		t.Fatalf("got %q want %q", got, "f5\n")
	}
}

func TestValidateWritesNothing(t *testing.T) {
	got, err := runCLI(t, `"x"`, "--validate")
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := runCLI(t, `Person{`, "--validate"); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestInfo(t *testing.T) {
	got, err := runCLI(t, `Person{name: "Ada", age: 36u8}`, "--info")
	if err != nil {
		t.Fatal(err)
	}
	want := "Kind: field record\nName: Person\nLength: 2\nFields: name,age\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	got, err = runCLI(t, `{1u8: true, "b": false}`, "--info")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Kind: map\nLength: 2\nKeys: 1u8,b\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDigestIgnoresKeyOrder(t *testing.T) {
	a, err := runCLI(t, `{"x": 1, "y": [2, 3]}`, "--from", "json", "--digest")
	if err != nil {
		t.Fatal(err)
	}
	b, err := runCLI(t, `{"y": [2, 3], "x": 1}`, "--from", "json", "--digest")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("digests differ: %q and %q", a, b)
	}
	if len(a) != 65 {
		t.Fatalf("got %q, want 64 hex digits and a newline", a)
	}
}

const shapesYAML = `
name: Message
candidates:
  - {name: Ping, kind: unit}
  - {name: Pair, kind: tuple, len: 2}
  - {name: Point, kind: struct, fields: [x, y]}
  - {name: Text, kind: string}
`

func TestMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.yaml")
	if err := os.WriteFile(path, []byte(shapesYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		in   string
		want string
	}{
		{`null`, "Ping"},
		{`[1, 2]`, "Pair"},
		{`{"y": 2, "x": 1}`, "Point"},
		{`{"x": 1, "y": 2, "z": 3}`, "Point"},
		{`"hi"`, "Text"},
	}
	for _, tt := range tests {
		got, err := runCLI(t, tt.in, "--from", "json", "--match", path)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want+"\n" {
			t.Fatalf("%s: got %q want %q", tt.in, got, tt.want)
		}
	}

	_, err := runCLI(t, `{"x": 1}`, "--from", "json", "--match", path)
	if err == nil || err.Error() != "data did not match any variant of untagged enum Message" {
		t.Fatalf("got %v", err)
	}
	_, err = runCLI(t, `{"x": 1, "y": 2, "z": 3}`, "--from", "json", "--match", path, "--deny-unknown")
	if err == nil {
		t.Fatalf("expected no match with unknown keys denied")
	}
}

func TestBuildShapesErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"name: E\ncandidates: []\n", "shapes: no candidates"},
		{"name: E\ncandidates:\n  - {name: P, kind: tuple}\n", "shape P: tuple needs len"},
		{"name: E\ncandidates:\n  - {name: P, kind: blob}\n", `shape P: unknown kind "blob"`},
	}
	for _, tt := range tests {
		_, err := buildShapes([]byte(tt.src), false)
		if err == nil || err.Error() != tt.want {
			t.Fatalf("got %v want %s", err, tt.want)
		}
	}
}

func TestBadFlags(t *testing.T) {
	if _, err := runCLI(t, "true", "--to", "toml"); err == nil {
		t.Fatalf("expected an unknown format error")
	}
	if _, err := runCLI(t, "true", "--compress", "gzip"); err == nil {
		t.Fatalf("expected an unknown compression error")
	}
	if _, err := runCLI(t, "true", "extra"); err == nil {
		t.Fatalf("expected an error for a positional argument")
	}
}
