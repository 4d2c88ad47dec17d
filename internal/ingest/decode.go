// Package ingest implements the upload pipeline: byte decoding, tabular
// parsing, heuristic column mapping, cleaning/imputation, entity resolution
// and batched persistence.
package ingest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingNames is the ordered list of encodings tried when decoding an
// upload. Decoding fails only when none succeed.
var encodingNames = []string{"utf-8", "utf-8-sig", "latin1", "cp1252"}

// DecodeText decodes raw upload bytes, trying each supported encoding in
// order. It returns the decoded text and the name of the encoding that
// succeeded.
func DecodeText(content []byte) (string, string, error) {
	for _, name := range encodingNames {
		switch name {
		case "utf-8":
			if utf8.Valid(content) {
				return string(content), name, nil
			}
		case "utf-8-sig":
			if bytes.HasPrefix(content, utf8BOM) {
				stripped := bytes.TrimPrefix(content, utf8BOM)
				if utf8.Valid(stripped) {
					return string(stripped), name, nil
				}
			}
		case "latin1":
			if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content); err == nil {
				return string(decoded), name, nil
			}
		case "cp1252":
			if decoded, err := charmap.Windows1252.NewDecoder().Bytes(content); err == nil {
				return string(decoded), name, nil
			}
		}
	}
	return "", "", fmt.Errorf("unable to decode content with encodings %v", encodingNames)
}

// Encodings returns the supported encoding names, for error reporting.
func Encodings() []string {
	out := make([]string, len(encodingNames))
	copy(out, encodingNames)
	return out
}
