package abx

import (
	"bufio"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// DeserializerOptions configures a Deserializer.
type DeserializerOptions struct {
	// Warnings receives conversion warnings. Defaults to os.Stderr.
	Warnings io.Writer
}

func fillDeserializerOptions(opts *DeserializerOptions) *DeserializerOptions {
	filled := DeserializerOptions{}
	if opts != nil {
		filled = *opts
	}
	if filled.Warnings == nil {
		filled.Warnings = os.Stderr
	}
	return &filled
}

// Deserializer turns an ABX token stream back into textual XML. It is not
// safe for concurrent use; create one instance per document.
type Deserializer struct {
	in   dataInput
	out  *bufio.Writer
	pool *internPool
	opts *DeserializerOptions

	stack []string
}

// NewDeserializer creates a deserializer reading ABX bytes from r and
// writing XML text to w. The 4-byte magic header is consumed and checked
// immediately.
func NewDeserializer(r io.Reader, w io.Writer, opts *DeserializerOptions) (*Deserializer, error) {
	d := &Deserializer{
		in:   dataInput{r: r},
		out:  bufio.NewWriter(w),
		pool: newInternPool(),
		opts: fillDeserializerOptions(opts),
	}

	var magic [4]byte
	if err := d.in.fill(magic[:], "magic header"); err != nil {
		return nil, err
	}
	if magic != headerMagic {
		return nil, &InvalidMagicHeaderError{Expected: headerMagic, Actual: magic}
	}
	return d, nil
}

// readInterned resolves an interned reference, appending inline definitions
// to the pool.
func (d *Deserializer) readInterned(what string) (string, error) {
	idx, err := d.in.readUint16(what)
	if err != nil {
		return "", err
	}
	if idx == poolNewEntry {
		s, err := d.in.readUTF(what)
		if err != nil {
			return "", err
		}
		if _, err := d.pool.add(s); err != nil {
			return "", err
		}
		return s, nil
	}
	return d.pool.get(idx)
}

// readText consumes the payload of a text-bearing token: a utf string for
// TYPE_STRING, nothing for TYPE_NULL.
func (d *Deserializer) readText(typ byte, what string) (string, error) {
	switch typ {
	case typeNull:
		return "", nil
	case typeString:
		return d.in.readUTF(what)
	default:
		return "", &ParseError{Msg: fmt.Sprintf("unexpected type 0x%02x for %s token", typ, what)}
	}
}

// Run decodes the whole document. The XML declaration is written before any
// token is processed. Unknown commands end the document gracefully with a
// warning; everything written so far stays valid.
func (d *Deserializer) Run() error {
	d.out.WriteString(xmlDeclaration)

	for {
		tok, err := d.in.readByte("token")
		if err != nil {
			return err
		}

		switch command := tok & tokenCommandMask; command {
		case tokenStartDocument:
			// nothing rendered

		case tokenEndDocument:
			if len(d.stack) != 0 {
				return ErrUnbalancedDocument
			}
			return d.out.Flush()

		case tokenStartTag:
			name, err := d.readInterned("tag name")
			if err != nil {
				return err
			}
			d.out.WriteByte('<')
			d.out.WriteString(name)
			d.stack = append(d.stack, name)

			for {
				next, err := d.in.peekByte("token")
				if err != nil {
					return err
				}
				if next&tokenCommandMask != tokenAttribute {
					break
				}
				if err := d.writeAttribute(); err != nil {
					return err
				}
			}
			d.out.WriteByte('>')

		case tokenEndTag:
			name, err := d.readInterned("tag name")
			if err != nil {
				return err
			}
			if len(d.stack) == 0 || d.stack[len(d.stack)-1] != name {
				var open string
				if len(d.stack) != 0 {
					open = d.stack[len(d.stack)-1]
				}
				return &TagMismatchError{Open: open, Got: name}
			}
			d.stack = d.stack[:len(d.stack)-1]
			d.out.WriteString("</")
			d.out.WriteString(name)
			d.out.WriteByte('>')

		case tokenText:
			text, err := d.readText(tok&tokenTypeMask, "text")
			if err != nil {
				return err
			}
			d.out.WriteString(escapeText(text))

		case tokenCDSect:
			text, err := d.readText(tok&tokenTypeMask, "cdata")
			if err != nil {
				return err
			}
			d.out.WriteString("<![CDATA[")
			d.out.WriteString(text)
			d.out.WriteString("]]>")

		case tokenComment:
			text, err := d.readText(tok&tokenTypeMask, "comment")
			if err != nil {
				return err
			}
			d.out.WriteString("<!--")
			d.out.WriteString(text)
			d.out.WriteString("-->")

		case tokenProcessingInstruction:
			text, err := d.readText(tok&tokenTypeMask, "processing instruction")
			if err != nil {
				return err
			}
			d.out.WriteString("<?")
			d.out.WriteString(text)
			d.out.WriteString("?>")

		case tokenDocDecl:
			text, err := d.readText(tok&tokenTypeMask, "doctype")
			if err != nil {
				return err
			}
			d.out.WriteString("<!DOCTYPE")
			d.out.WriteString(text)
			d.out.WriteByte('>')

		case tokenEntityRef:
			name, err := d.readText(tok&tokenTypeMask, "entity reference")
			if err != nil {
				return err
			}
			d.out.WriteByte('&')
			d.out.WriteString(name)
			d.out.WriteByte(';')

		case tokenIgnorableWhitespace:
			text, err := d.readText(tok&tokenTypeMask, "whitespace")
			if err != nil {
				return err
			}
			d.out.WriteString(text)

		case tokenAttribute:
			return &ParseError{Msg: "attribute token outside of a start tag"}

		default:
			fmt.Fprintf(d.opts.Warnings, "warning: unknown token 0x%02x, stopping\n", tok)
			return d.out.Flush()
		}
	}
}

// writeAttribute consumes one attribute token and renders ` name="value"`.
func (d *Deserializer) writeAttribute() error {
	tok, err := d.in.readByte("attribute token")
	if err != nil {
		return err
	}

	name, err := d.readInterned("attribute name")
	if err != nil {
		return err
	}

	var value string
	switch tok & tokenTypeMask {
	case typeString:
		v, err := d.in.readUTF("attribute value")
		if err != nil {
			return err
		}
		value = escapeText(v)

	case typeStringInterned:
		v, err := d.readInterned("attribute value")
		if err != nil {
			return err
		}
		value = escapeText(v)

	case typeBytesHex:
		b, err := d.readAttrBytes()
		if err != nil {
			return err
		}
		value = strings.ToUpper(hex.EncodeToString(b))

	case typeBytesBase64:
		b, err := d.readAttrBytes()
		if err != nil {
			return err
		}
		value = base64.StdEncoding.EncodeToString(b)

	case typeInt:
		v, err := d.in.readInt32("attribute value")
		if err != nil {
			return err
		}
		value = strconv.FormatInt(int64(v), 10)

	case typeIntHex:
		v, err := d.in.readInt32("attribute value")
		if err != nil {
			return err
		}
		if v == -1 {
			value = "-1"
		} else {
			value = strconv.FormatUint(uint64(uint32(v)), 16)
		}

	case typeLong:
		v, err := d.in.readInt64("attribute value")
		if err != nil {
			return err
		}
		value = strconv.FormatInt(v, 10)

	case typeLongHex:
		v, err := d.in.readInt64("attribute value")
		if err != nil {
			return err
		}
		if v == -1 {
			value = "-1"
		} else {
			value = strconv.FormatUint(uint64(v), 16)
		}

	case typeFloat:
		v, err := d.in.readFloat32("attribute value")
		if err != nil {
			return err
		}
		value = formatFloat(float64(v), 32)

	case typeDouble:
		v, err := d.in.readFloat64("attribute value")
		if err != nil {
			return err
		}
		value = formatFloat(v, 64)

	case typeBooleanTrue:
		value = "true"

	case typeBooleanFalse:
		value = "false"

	default:
		return &UnknownAttributeTypeError{Token: tok}
	}

	d.out.WriteByte(' ')
	d.out.WriteString(name)
	d.out.WriteString(`="`)
	d.out.WriteString(value)
	d.out.WriteByte('"')
	return nil
}

func (d *Deserializer) readAttrBytes() ([]byte, error) {
	n, err := d.in.readUint16("attribute value length")
	if err != nil {
		return nil, err
	}
	return d.in.readBytes(int(n), "attribute value")
}

// formatFloat renders finite integral values with one fractional digit and
// everything else in the shortest form that round-trips.
func formatFloat(v float64, bits int) string {
	if !math.IsInf(v, 0) && v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, bits)
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}
