package abx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func deserialize(t *testing.T, abx []byte) (string, string, error) {
	t.Helper()

	var out, warnings bytes.Buffer
	d, err := NewDeserializer(bytes.NewReader(abx), &out, &DeserializerOptions{Warnings: &warnings})
	if err != nil {
		return "", "", err
	}
	err = d.Run()
	return out.String(), warnings.String(), err
}

func TestDeserializer_EmptyDocument(t *testing.T) {
	out, _, err := deserialize(t, []byte{0x41, 0x42, 0x58, 0x00, 0x00, 0x01})
	require.NoError(t, err)
	require.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`, out)
}

func TestDeserializer_InvalidMagic(t *testing.T) {
	var out bytes.Buffer
	_, err := NewDeserializer(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}), &out, nil)

	var magic *InvalidMagicHeaderError
	require.ErrorAs(t, err, &magic)
	require.Equal(t, [4]byte{0x41, 0x42, 0x58, 0x00}, magic.Expected)
	require.Equal(t, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, magic.Actual)
}

func TestDeserializer_TruncatedMagic(t *testing.T) {
	var out bytes.Buffer
	_, err := NewDeserializer(bytes.NewReader([]byte{0x41, 0x42}), &out, nil)

	var re *ReadError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "magic header", re.What)
}

func TestDeserializer_HexIntRendering(t *testing.T) {
	abx := buildAbx(t, nil, func(s *Serializer) {
		require.NoError(t, s.StartTag("a"))
		require.NoError(t, s.AttributeIntHex("x", -1))
		require.NoError(t, s.AttributeIntHex("y", 0xFF))
		require.NoError(t, s.AttributeLongHex("z", -1))
		require.NoError(t, s.AttributeLongHex("w", 0xABCDEF))
		require.NoError(t, s.EndTag("a"))
	})

	out, _, err := deserialize(t, abx)
	require.NoError(t, err)
	require.Equal(t, xmlDeclaration+`<a x="-1" y="ff" z="-1" w="abcdef"></a>`, out)
}

func TestDeserializer_FloatRendering(t *testing.T) {
	abx := buildAbx(t, nil, func(s *Serializer) {
		require.NoError(t, s.StartTag("a"))
		require.NoError(t, s.AttributeFloat("f", 3.0))
		require.NoError(t, s.AttributeDouble("d", 3.0))
		require.NoError(t, s.AttributeFloat("g", 3.14))
		require.NoError(t, s.EndTag("a"))
	})

	out, _, err := deserialize(t, abx)
	require.NoError(t, err)
	require.Equal(t, xmlDeclaration+`<a f="3.0" d="3.0" g="3.14"></a>`, out)
}

func TestDeserializer_StructuredContent(t *testing.T) {
	abx := buildAbx(t, nil, func(s *Serializer) {
		require.NoError(t, s.DocDecl(" note"))
		require.NoError(t, s.StartTag("note"))
		require.NoError(t, s.Comment("remark"))
		require.NoError(t, s.CData("raw <stuff> here"))
		require.NoError(t, s.ProcessingInstruction("target data"))
		require.NoError(t, s.EntityRef("copy"))
		require.NoError(t, s.Text("a < b"))
		require.NoError(t, s.EndTag("note"))
	})

	out, _, err := deserialize(t, abx)
	require.NoError(t, err)
	require.Equal(t, xmlDeclaration+
		`<!DOCTYPE note><note><!--remark--><![CDATA[raw <stuff> here]]>`+
		`<?target data?>&copy;a &lt; b</note>`,
		out)
}

func TestDeserializer_UnknownCommandStopsGracefully(t *testing.T) {
	abx := []byte{
		0x41, 0x42, 0x58, 0x00,
		tokenStartDocument | typeNull,
		0x0B, // command 11 is not assigned
		tokenEndDocument | typeNull,
	}

	out, warnings, err := deserialize(t, abx)
	require.NoError(t, err)
	require.Equal(t, xmlDeclaration, out)
	require.Contains(t, warnings, "unknown token 0x0b")
}

func TestDeserializer_UnknownAttributeTypeFatal(t *testing.T) {
	abx := []byte{
		0x41, 0x42, 0x58, 0x00,
		tokenStartDocument | typeNull,
		tokenStartTag | typeStringInterned, 0xFF, 0xFF, 0x00, 0x01, 'x',
		tokenAttribute | 0xE0, 0xFF, 0xFF, 0x00, 0x01, 'a', // type nibble 14 does not exist
	}

	var out bytes.Buffer
	d, err := NewDeserializer(bytes.NewReader(abx), &out, nil)
	require.NoError(t, err)

	err = d.Run()
	var unknown *UnknownAttributeTypeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, byte(tokenAttribute|0xE0), unknown.Token)
}

func TestDeserializer_UndefinedInternedIndex(t *testing.T) {
	abx := []byte{
		0x41, 0x42, 0x58, 0x00,
		tokenStartDocument | typeNull,
		tokenStartTag | typeStringInterned, 0x00, 0x05, // index 5 was never defined
	}

	var out bytes.Buffer
	d, err := NewDeserializer(bytes.NewReader(abx), &out, nil)
	require.NoError(t, err)

	err = d.Run()
	var ie *InvalidInternedIndexError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, uint16(5), ie.Index)
}

func TestDeserializer_MismatchedEndTag(t *testing.T) {
	abx := []byte{
		0x41, 0x42, 0x58, 0x00,
		tokenStartDocument | typeNull,
		tokenStartTag | typeStringInterned, 0xFF, 0xFF, 0x00, 0x01, 'a',
		tokenEndTag | typeStringInterned, 0xFF, 0xFF, 0x00, 0x01, 'b',
	}

	var out bytes.Buffer
	d, err := NewDeserializer(bytes.NewReader(abx), &out, nil)
	require.NoError(t, err)

	err = d.Run()
	var tm *TagMismatchError
	require.ErrorAs(t, err, &tm)
	require.Equal(t, "a", tm.Open)
	require.Equal(t, "b", tm.Got)
}

func TestDeserializer_TruncatedStream(t *testing.T) {
	abx := []byte{
		0x41, 0x42, 0x58, 0x00,
		tokenStartDocument | typeNull,
		tokenStartTag | typeStringInterned, 0xFF, 0xFF, 0x00, 0x04, 'a', 'b', // string cut short
	}

	var out bytes.Buffer
	d, err := NewDeserializer(bytes.NewReader(abx), &out, nil)
	require.NoError(t, err)

	var re *ReadError
	require.ErrorAs(t, d.Run(), &re)
}

func TestDeserializer_StrayAttributeToken(t *testing.T) {
	abx := []byte{
		0x41, 0x42, 0x58, 0x00,
		tokenStartDocument | typeNull,
		tokenAttribute | typeStringInterned,
	}

	var out bytes.Buffer
	d, err := NewDeserializer(bytes.NewReader(abx), &out, nil)
	require.NoError(t, err)

	var pe *ParseError
	require.ErrorAs(t, d.Run(), &pe)
}
