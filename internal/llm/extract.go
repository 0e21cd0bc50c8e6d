package llm

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of an attachment. PDFs are parsed, text
// files are used as they are; anything else is rejected.
func ExtractText(name string, data []byte) (string, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return extractPDF(name, data)
	case isText(mt):
		if !utf8.Valid(data) {
			return strings.ToValidUTF8(string(data), ""), nil
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported attachment type %s for %s", mt.String(), name)
	}
}

func isText(mt *mimetype.MIME) bool {
	for ; mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}

func extractPDF(name string, data []byte) (text string, err error) {
	// The pdf package panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf %s: %v", name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", name, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from pdf %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read text of pdf %s: %w", name, err)
	}
	return buf.String(), nil
}
