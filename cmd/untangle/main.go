// Command untangle converts one value between the tree notation, JSON,
// YAML, CBOR and Relish. It can also summarise a value, hash it, or report
// which of a list of untagged shapes it matches.
//
//	untangle --from json --to tree < point.json
//	untangle --from yaml --match shapes.yaml < message.yaml
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dadrian/untangle"
	"github.com/dadrian/untangle/cborfmt"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	in          string
	out         string
	from        string
	to          string
	hex         bool
	validate    bool
	info        bool
	digest      bool
	match       string
	denyUnknown bool
	compress    string
	decompress  string
	verbose     bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var o options
	flagSet := pflag.NewFlagSet("untangle", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&o.in, "in", "-", "input file (or - for stdin)")
	flagSet.StringVar(&o.out, "out", "-", "output file (or - for stdout)")
	flagSet.StringVar(&o.from, "from", "tree", "input format: "+formatList)
	flagSet.StringVar(&o.to, "to", "relish", "output format: "+formatList)
	flagSet.BoolVar(&o.hex, "hex", false, "write hex-encoded output instead of raw bytes")
	flagSet.BoolVar(&o.validate, "validate", false, "parse and encode without writing output")
	flagSet.BoolVar(&o.info, "info", false, "print a brief summary of the value (no output bytes)")
	flagSet.BoolVar(&o.digest, "digest", false, "print the BLAKE3 digest of the value's canonical CBOR form")
	flagSet.StringVar(&o.match, "match", "", "YAML file of untagged shapes; print the first shape the value matches")
	flagSet.BoolVar(&o.denyUnknown, "deny-unknown", false, "struct shapes reject keys they do not list")
	flagSet.StringVar(&o.decompress, "decompress", "none", "input compression: "+codecList)
	flagSet.StringVar(&o.compress, "compress", "none", "output compression: "+codecList)
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "log debug records to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(stderr, "usage: untangle [flags]\n%s", flagSet.FlagUsages())
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", flagSet.Arg(0))
	}

	logger := newLogger(stderr, o.verbose)

	raw, err := readInput(o.in, stdin)
	if err != nil {
		return err
	}
	raw, err = decompress(o.decompress, raw)
	if err != nil {
		return err
	}
	c, err := parse(o.from, raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", o.from, err)
	}
	logger.Debug("parsed input", "format", o.from, "bytes", len(raw), "kind", c.Kind().String())

	switch {
	case o.match != "":
		enum, err := loadShapes(o.match, o.denyUnknown)
		if err != nil {
			return err
		}
		name, err := enum.Match(c, untangle.WithLogger(logger))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, name)
		return err
	case o.info:
		return printInfo(stdout, c)
	case o.digest:
		sum, err := cborfmt.Digest(c)
		if err != nil {
			return fmt.Errorf("digest: %w", err)
		}
		_, err = fmt.Fprintf(stdout, "%x\n", sum)
		return err
	}

	outBytes, err := render(o.to, c)
	if err != nil {
		return fmt.Errorf("encode %s: %w", o.to, err)
	}
	if o.validate {
		return nil
	}
	outBytes, err = compress(o.compress, outBytes)
	if err != nil {
		return err
	}
	logger.Debug("encoded output", "format", o.to, "compression", o.compress, "bytes", len(outBytes))
	return writeOutput(o.out, stdout, outBytes, o.hex)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func writeOutput(path string, stdout io.Writer, b []byte, hexOut bool) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if hexOut {
		b = append([]byte(hex.EncodeToString(b)), '\n')
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func printInfo(w io.Writer, c *untangle.Content) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Kind: %s\n", c.Kind())
	if name := c.Name(); name != "" {
		fmt.Fprintf(&b, "Name: %s\n", name)
	}
	if variant := c.Variant(); variant != "" {
		fmt.Fprintf(&b, "Variant: %s\n", variant)
	}
	switch c.Kind() {
	case untangle.KindString, untangle.KindBytes, untangle.KindSeq, untangle.KindMap,
		untangle.KindTupleRecord, untangle.KindFieldRecord,
		untangle.KindTupleVariant, untangle.KindStructVariant:
		fmt.Fprintf(&b, "Length: %d\n", c.Len())
	}
	var labels []string
	for _, f := range c.Fields() {
		labels = append(labels, f.Name)
	}
	if labels != nil {
		fmt.Fprintf(&b, "Fields: %s\n", strings.Join(labels, ","))
	}
	labels = nil
	for _, e := range c.Entries() {
		if e.Key.Kind() == untangle.KindString {
			labels = append(labels, e.Key.Str())
		} else {
			labels = append(labels, e.Key.String())
		}
	}
	if labels != nil {
		fmt.Fprintf(&b, "Keys: %s\n", strings.Join(labels, ","))
	}
	_, err := w.Write(b.Bytes())
	return err
}
