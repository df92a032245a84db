package abx

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ConvertAbx reads a binary ABX document from r and writes textual XML to w.
// Gzipped input is detected by its magic bytes and decompressed on the fly;
// Android rotates some system state files to .gz.
func ConvertAbx(r io.Reader, w io.Writer, opts *DeserializerOptions) error {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if head, err := br.Peek(2); err == nil && head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer gz.Close()
		src = gz
	}

	d, err := NewDeserializer(src, w, opts)
	if err != nil {
		return err
	}
	return d.Run()
}
