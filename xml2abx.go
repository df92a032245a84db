package abx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConvertXml reads textual XML from r and writes its ABX form to w.
//
// Namespaces are not part of the binary format: xmlns declarations and
// prefixed names are carried as ordinary attributes, with a warning. The XML
// declaration is inspected for a non-UTF-8 encoding (warned about, then
// ignored) and is never reproduced in ABX. CDATA sections arrive from the
// pull parser as plain character data and are stored as text.
func ConvertXml(r io.Reader, w io.Writer, opts *SerializerOptions) error {
	opts = fillSerializerOptions(opts)

	s, err := NewSerializer(w, opts)
	if err != nil {
		return err
	}
	if err := s.StartDocument(); err != nil {
		return err
	}

	dec := xml.NewDecoder(r)
	// The declared encoding is warned about below and otherwise ignored;
	// without this the decoder refuses anything but UTF-8 outright.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	sawElement := false
	for {
		// RawToken leaves namespace prefixes untranslated; tag nesting is
		// checked by the serializer instead of the decoder.
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ParseError{Msg: err.Error()}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawElement = true
			if err := s.StartTag(flatName(t.Name)); err != nil {
				return err
			}
			for _, a := range t.Attr {
				name := flatName(a.Name)
				if strings.HasPrefix(name, "xmlns") || strings.Contains(name, ":") {
					fmt.Fprintf(opts.Warnings, "warning: passing through namespace attribute %q\n", name)
				}
				if err := s.Attribute(name, a.Value); err != nil {
					return err
				}
			}

		case xml.EndElement:
			if err := s.EndTag(flatName(t.Name)); err != nil {
				var tm *TagMismatchError
				if errors.As(err, &tm) {
					return &ParseError{Msg: err.Error()}
				}
				return err
			}

		case xml.CharData:
			if err := s.Text(string(t)); err != nil {
				return err
			}

		case xml.Comment:
			if err := s.Comment(string(t)); err != nil {
				return err
			}

		case xml.ProcInst:
			if t.Target == "xml" {
				if enc := declEncoding(string(t.Inst)); enc != "" && !strings.EqualFold(enc, "utf-8") {
					fmt.Fprintf(opts.Warnings, "warning: ignoring declared encoding %q, output is UTF-8\n", enc)
				}
				continue
			}
			text := t.Target
			if len(t.Inst) != 0 {
				text += " " + string(t.Inst)
			}
			if err := s.ProcessingInstruction(text); err != nil {
				return err
			}

		case xml.Directive:
			text := string(t)
			if rest, ok := strings.CutPrefix(text, "DOCTYPE"); ok {
				if err := s.DocDecl(rest); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(opts.Warnings, "warning: skipping directive <!%.20s...>\n", text)
			}
		}
	}

	if !sawElement {
		return &ParseError{Msg: "no root element found"}
	}
	if err := s.EndDocument(); err != nil {
		if errors.Is(err, ErrUnbalancedDocument) {
			return &ParseError{Msg: err.Error()}
		}
		return err
	}
	return nil
}

// flatName rebuilds the textual attribute or element name from the pull
// parser's split form. The prefix, if any, comes back exactly as written.
func flatName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// declEncoding extracts the encoding pseudo-attribute from an XML
// declaration body, or "" if absent.
func declEncoding(inst string) string {
	idx := strings.Index(inst, "encoding")
	if idx < 0 {
		return ""
	}
	rest := inst[idx+len("encoding"):]
	rest = strings.TrimLeft(rest, " \t=")
	if rest == "" {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	rest = rest[1:]
	end := strings.IndexByte(rest, quote)
	if end < 0 {
		return ""
	}
	return rest[:end]
}
