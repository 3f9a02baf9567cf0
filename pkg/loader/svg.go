package loader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"unicode/utf8"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SerializeSVG checks that data is a well-formed UTF-8 document whose root
// element is <svg> and returns the markup ready for a data URI.
func SerializeSVG(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "svg is not valid UTF-8")
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	root := ""
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse svg")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root == "" {
				root = t.Name.Local
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	switch {
	case root == "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "svg document is empty")
	case root != "svg":
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "root element is <%s>, want <svg>", root)
	case depth != 0:
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "svg has unclosed elements")
	}
	return bytes.TrimSpace(data), nil
}
