package abx

import (
	"bufio"
	"io"
	"os"
)

// SerializerOptions configures a Serializer and the XML-driven conversion
// built on top of it.
type SerializerOptions struct {
	// CollapseWhitespace drops whitespace-only text instead of storing it
	// as ignorable whitespace tokens.
	CollapseWhitespace bool

	// Warnings receives conversion warnings. Defaults to os.Stderr.
	Warnings io.Writer
}

func fillSerializerOptions(opts *SerializerOptions) *SerializerOptions {
	filled := SerializerOptions{}
	if opts != nil {
		filled = *opts
	}
	if filled.Warnings == nil {
		filled.Warnings = os.Stderr
	}
	return &filled
}

// Serializer emits the ABX token stream for a single document. It is not
// safe for concurrent use; create one instance per document.
type Serializer struct {
	bw   *bufio.Writer
	out  dataOutput
	pool *internPool
	opts *SerializerOptions

	stack    []string
	started  bool
	finished bool
	inAttrs  bool
}

// NewSerializer creates a serializer over w and writes the 4-byte magic
// header immediately.
func NewSerializer(w io.Writer, opts *SerializerOptions) (*Serializer, error) {
	bw := bufio.NewWriter(w)
	s := &Serializer{
		bw:   bw,
		out:  dataOutput{w: bw},
		pool: newInternPool(),
		opts: fillSerializerOptions(opts),
	}

	if err := s.out.writeBytes(headerMagic[:]); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Serializer) writeToken(command, typ byte) error {
	return s.out.writeByte(command | typ)
}

// writeInterned emits an interned reference for str, defining it inline on
// first use.
func (s *Serializer) writeInterned(str string) error {
	if idx, ok := s.pool.find(str); ok {
		return s.out.writeUint16(idx)
	}

	if s.pool.size() >= maxPoolSize {
		return &StringPoolFullError{}
	}
	if err := s.out.writeUint16(poolNewEntry); err != nil {
		return err
	}
	if err := s.out.writeUTF(str); err != nil {
		return err
	}
	_, err := s.pool.add(str)
	return err
}

func (s *Serializer) ready() error {
	if !s.started {
		return ErrDocumentNotStarted
	}
	if s.finished {
		return ErrDocumentFinished
	}
	return nil
}

// StartDocument emits the START_DOCUMENT token. Must be the first call.
func (s *Serializer) StartDocument() error {
	if s.started {
		return ErrDocumentStarted
	}
	s.started = true
	return s.writeToken(tokenStartDocument, typeNull)
}

// EndDocument emits the END_DOCUMENT token and flushes the underlying
// writer. All elements must be closed.
func (s *Serializer) EndDocument() error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(s.stack) != 0 {
		return ErrUnbalancedDocument
	}
	if err := s.writeToken(tokenEndDocument, typeNull); err != nil {
		return err
	}
	s.finished = true
	return s.bw.Flush()
}

// StartTag opens an element and begins its attribute run.
func (s *Serializer) StartTag(name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.writeToken(tokenStartTag, typeStringInterned); err != nil {
		return err
	}
	if err := s.writeInterned(name); err != nil {
		return err
	}
	s.stack = append(s.stack, name)
	s.inAttrs = true
	return nil
}

// EndTag closes the innermost open element. The name must match the one
// passed to StartTag; on mismatch nothing is written.
func (s *Serializer) EndTag(name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(s.stack) == 0 || s.stack[len(s.stack)-1] != name {
		var open string
		if len(s.stack) != 0 {
			open = s.stack[len(s.stack)-1]
		}
		return &TagMismatchError{Open: open, Got: name}
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.inAttrs = false

	if err := s.writeToken(tokenEndTag, typeStringInterned); err != nil {
		return err
	}
	return s.writeInterned(name)
}

func (s *Serializer) writeTextToken(command byte, text string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.inAttrs = false
	if err := s.writeToken(command, typeString); err != nil {
		return err
	}
	return s.out.writeUTF(text)
}

// Text emits character data. Whitespace-only text becomes an ignorable
// whitespace token, or is dropped when CollapseWhitespace is set. The text
// is stored raw; entity escaping belongs to the textual XML side.
func (s *Serializer) Text(text string) error {
	if text == "" {
		return nil
	}
	if isWhitespace(text) {
		if s.opts.CollapseWhitespace {
			if err := s.ready(); err != nil {
				return err
			}
			s.inAttrs = false
			return nil
		}
		return s.writeTextToken(tokenIgnorableWhitespace, text)
	}
	return s.writeTextToken(tokenText, text)
}

// CData emits a CDATA section. The content is stored without the
// <![CDATA[ ]]> brackets.
func (s *Serializer) CData(text string) error {
	return s.writeTextToken(tokenCDSect, text)
}

// Comment emits a comment without the <!-- --> brackets.
func (s *Serializer) Comment(text string) error {
	return s.writeTextToken(tokenComment, text)
}

// ProcessingInstruction emits a processing instruction. The text carries
// target and data, e.g. "target data".
func (s *Serializer) ProcessingInstruction(text string) error {
	return s.writeTextToken(tokenProcessingInstruction, text)
}

// DocDecl emits a DOCTYPE declaration. The text is everything between
// "<!DOCTYPE" and ">", including the leading space.
func (s *Serializer) DocDecl(text string) error {
	return s.writeTextToken(tokenDocDecl, text)
}

// EntityRef emits an entity reference by name, without & and ;.
func (s *Serializer) EntityRef(name string) error {
	return s.writeTextToken(tokenEntityRef, name)
}

// IgnorableWhitespace emits a whitespace token regardless of the collapse
// option.
func (s *Serializer) IgnorableWhitespace(text string) error {
	return s.writeTextToken(tokenIgnorableWhitespace, text)
}

// writeAttr emits the attribute token and interned name shared by all typed
// attribute writers. Attributes are legal only between StartTag and the
// element's first content.
func (s *Serializer) writeAttr(typ byte, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.inAttrs {
		return ErrAttributeOutsideElement
	}
	if err := s.writeToken(tokenAttribute, typ); err != nil {
		return err
	}
	return s.writeInterned(name)
}

// Attribute writes an attribute from text, picking the token type by
// inference. See inferAttributeType for the policy.
func (s *Serializer) Attribute(name, value string) error {
	switch inferAttributeType(value) {
	case typeBooleanTrue:
		return s.AttributeBool(name, true)
	case typeBooleanFalse:
		return s.AttributeBool(name, false)
	case typeStringInterned:
		return s.AttributeInterned(name, value)
	default:
		return s.AttributeString(name, value)
	}
}

// AttributeString writes a plain string attribute.
func (s *Serializer) AttributeString(name, value string) error {
	if err := s.writeAttr(typeString, name); err != nil {
		return err
	}
	return s.out.writeUTF(value)
}

// AttributeInterned writes a string attribute through the interning pool.
func (s *Serializer) AttributeInterned(name, value string) error {
	if err := s.writeAttr(typeStringInterned, name); err != nil {
		return err
	}
	return s.writeInterned(value)
}

// AttributeBool writes a boolean attribute. The value is carried in the
// token type; there is no payload.
func (s *Serializer) AttributeBool(name string, value bool) error {
	typ := byte(typeBooleanFalse)
	if value {
		typ = typeBooleanTrue
	}
	return s.writeAttr(typ, name)
}

// AttributeInt writes a 32-bit decimal integer attribute.
func (s *Serializer) AttributeInt(name string, value int32) error {
	if err := s.writeAttr(typeInt, name); err != nil {
		return err
	}
	return s.out.writeInt32(value)
}

// AttributeIntHex writes a 32-bit integer attribute rendered as hex.
func (s *Serializer) AttributeIntHex(name string, value int32) error {
	if err := s.writeAttr(typeIntHex, name); err != nil {
		return err
	}
	return s.out.writeInt32(value)
}

// AttributeLong writes a 64-bit decimal integer attribute.
func (s *Serializer) AttributeLong(name string, value int64) error {
	if err := s.writeAttr(typeLong, name); err != nil {
		return err
	}
	return s.out.writeInt64(value)
}

// AttributeLongHex writes a 64-bit integer attribute rendered as hex.
func (s *Serializer) AttributeLongHex(name string, value int64) error {
	if err := s.writeAttr(typeLongHex, name); err != nil {
		return err
	}
	return s.out.writeInt64(value)
}

// AttributeFloat writes a 32-bit float attribute.
func (s *Serializer) AttributeFloat(name string, value float32) error {
	if err := s.writeAttr(typeFloat, name); err != nil {
		return err
	}
	return s.out.writeFloat32(value)
}

// AttributeDouble writes a 64-bit float attribute.
func (s *Serializer) AttributeDouble(name string, value float64) error {
	if err := s.writeAttr(typeDouble, name); err != nil {
		return err
	}
	return s.out.writeFloat64(value)
}

// AttributeBytesHex writes a byte array attribute rendered as hex.
func (s *Serializer) AttributeBytesHex(name string, data []byte) error {
	return s.attributeBytes(typeBytesHex, name, data)
}

// AttributeBytesBase64 writes a byte array attribute rendered as base64.
func (s *Serializer) AttributeBytesBase64(name string, data []byte) error {
	return s.attributeBytes(typeBytesBase64, name, data)
}

func (s *Serializer) attributeBytes(typ byte, name string, data []byte) error {
	if len(data) > maxUnsignedShort {
		return &BinaryDataTooLongError{Length: len(data)}
	}
	if err := s.writeAttr(typ, name); err != nil {
		return err
	}
	if err := s.out.writeUint16(uint16(len(data))); err != nil {
		return err
	}
	return s.out.writeBytes(data)
}

func isWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
