package abx

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// dataOutput writes the fixed-width big-endian primitives of the wire format.
type dataOutput struct {
	w   io.Writer
	buf [8]byte
}

func (o *dataOutput) writeByte(b byte) error {
	o.buf[0] = b
	_, err := o.w.Write(o.buf[:1])
	return err
}

func (o *dataOutput) writeUint16(v uint16) error {
	binary.BigEndian.PutUint16(o.buf[:2], v)
	_, err := o.w.Write(o.buf[:2])
	return err
}

func (o *dataOutput) writeInt32(v int32) error {
	binary.BigEndian.PutUint32(o.buf[:4], uint32(v))
	_, err := o.w.Write(o.buf[:4])
	return err
}

func (o *dataOutput) writeInt64(v int64) error {
	binary.BigEndian.PutUint64(o.buf[:8], uint64(v))
	_, err := o.w.Write(o.buf[:8])
	return err
}

func (o *dataOutput) writeFloat32(v float32) error {
	binary.BigEndian.PutUint32(o.buf[:4], math.Float32bits(v))
	_, err := o.w.Write(o.buf[:4])
	return err
}

func (o *dataOutput) writeFloat64(v float64) error {
	binary.BigEndian.PutUint64(o.buf[:8], math.Float64bits(v))
	_, err := o.w.Write(o.buf[:8])
	return err
}

func (o *dataOutput) writeBytes(b []byte) error {
	_, err := o.w.Write(b)
	return err
}

// writeUTF writes a u16 length prefix followed by the UTF-8 bytes of s.
func (o *dataOutput) writeUTF(s string) error {
	if len(s) > maxUnsignedShort {
		return &StringTooLongError{Length: len(s)}
	}
	if err := o.writeUint16(uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(o.w, s)
	return err
}

// dataInput reads the wire primitives and buffers a single byte of
// look-ahead for the deserializer's attribute-run dispatch.
type dataInput struct {
	r      io.Reader
	head   byte
	peeked bool
	buf    [8]byte
}

func (in *dataInput) fill(dst []byte, what string) error {
	if len(dst) == 0 {
		return nil
	}
	if in.peeked {
		dst[0] = in.head
		in.peeked = false
		dst = dst[1:]
	}
	if len(dst) == 0 {
		return nil
	}
	if _, err := io.ReadFull(in.r, dst); err != nil {
		return &ReadError{What: what, Err: err}
	}
	return nil
}

// peekByte returns the next byte without consuming it.
func (in *dataInput) peekByte(what string) (byte, error) {
	if !in.peeked {
		if err := in.fill(in.buf[:1], what); err != nil {
			return 0, err
		}
		in.head = in.buf[0]
		in.peeked = true
	}
	return in.head, nil
}

func (in *dataInput) readByte(what string) (byte, error) {
	if err := in.fill(in.buf[:1], what); err != nil {
		return 0, err
	}
	return in.buf[0], nil
}

func (in *dataInput) readUint16(what string) (uint16, error) {
	if err := in.fill(in.buf[:2], what); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(in.buf[:2]), nil
}

func (in *dataInput) readInt32(what string) (int32, error) {
	if err := in.fill(in.buf[:4], what); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(in.buf[:4])), nil
}

func (in *dataInput) readInt64(what string) (int64, error) {
	if err := in.fill(in.buf[:8], what); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(in.buf[:8])), nil
}

func (in *dataInput) readFloat32(what string) (float32, error) {
	if err := in.fill(in.buf[:4], what); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(in.buf[:4])), nil
}

func (in *dataInput) readFloat64(what string) (float64, error) {
	if err := in.fill(in.buf[:8], what); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(in.buf[:8])), nil
}

func (in *dataInput) readBytes(n int, what string) ([]byte, error) {
	b := make([]byte, n)
	if err := in.fill(b, what); err != nil {
		return nil, err
	}
	return b, nil
}

// readUTF reads a u16 length prefix followed by that many UTF-8 bytes.
func (in *dataInput) readUTF(what string) (string, error) {
	n, err := in.readUint16(what)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := in.readBytes(int(n), what)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &InvalidUTF8Error{What: what}
	}
	return string(b), nil
}
