// Package xmlcodec centralizes XML decoder construction for part parsing.
//
// OOXML parts are usually UTF-8, but producers in the wild emit other
// encodings declared in the XML prologue; every decoder in this module goes
// through NewDecoder so those parts decode correctly.
package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"io"

	"golang.org/x/net/html/charset"
)

// NewDecoder returns an XML decoder with charset conversion wired in.
func NewDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// Unmarshal decodes data into v using a charset-aware decoder.
func Unmarshal(data []byte, v any) error {
	return NewDecoder(bytes.NewReader(data)).Decode(v)
}
