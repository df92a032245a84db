// This is a tool to convert human-readable XML to Android Binary XML (ABX).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/avast/abx"
)

type optsType struct {
	inPlace  bool
	collapse bool
	help     bool
}

func usage() {
	fmt.Fprintln(os.Stderr, "Converts human-readable XML to Android Binary XML (ABX).")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: xml2abx [OPTIONS] <input> [output]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Arguments:")
	fmt.Fprintln(os.Stderr, "  <input>   Input file path (use '-' for stdin)")
	fmt.Fprintln(os.Stderr, "  [output]  Output file path (use '-' for stdout, defaults to stdout)")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "  -i, --in-place             Overwrite input file with converted output")
	fmt.Fprintln(os.Stderr, "  -c, --collapse-whitespace  Drop whitespace-only text nodes")
	fmt.Fprintln(os.Stderr, "  -h, --help                 Print this help message")
}

func main() {
	var opts optsType

	fs := flag.NewFlagSet("xml2abx", flag.ContinueOnError)
	fs.BoolVar(&opts.inPlace, "i", false, "overwrite input file with converted output")
	fs.BoolVar(&opts.inPlace, "in-place", false, "overwrite input file with converted output")
	fs.BoolVar(&opts.collapse, "c", false, "drop whitespace-only text nodes")
	fs.BoolVar(&opts.collapse, "collapse-whitespace", false, "drop whitespace-only text nodes")
	fs.BoolVar(&opts.help, "h", false, "print help")
	fs.BoolVar(&opts.help, "help", false, "print help")
	fs.Usage = usage

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if opts.help {
		usage()
		os.Exit(0)
	}

	if len(os.Args) < 2 || fs.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	if fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Error: too many arguments")
		os.Exit(1)
	}

	input := fs.Arg(0)
	output := fs.Arg(1)

	if opts.inPlace && input == "-" {
		fmt.Fprintln(os.Stderr, "Error: cannot use --in-place with stdin")
		os.Exit(1)
	}
	if opts.inPlace && output != "" {
		fmt.Fprintln(os.Stderr, "Error: cannot specify output file with --in-place")
		os.Exit(1)
	}

	if err := convert(input, output, &opts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func convert(input, output string, opts *optsType) error {
	sopts := &abx.SerializerOptions{CollapseWhitespace: opts.collapse}

	var in io.ReadCloser
	if input == "-" {
		in = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		in = f
	}
	defer in.Close()

	if opts.inPlace {
		// Buffer the result so a failed conversion never truncates the input.
		var buf bytes.Buffer
		if err := abx.ConvertXml(in, &buf, sopts); err != nil {
			return err
		}
		in.Close()
		return os.WriteFile(input, buf.Bytes(), 0644)
	}

	if output == "" || output == "-" {
		return abx.ConvertXml(in, os.Stdout, sopts)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := abx.ConvertXml(in, f, sopts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
