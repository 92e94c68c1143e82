// Package extraction turns raw document bytes into cleaned text by trying an
// ordered list of strategies and scoring what each one produces.
package extraction

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"
)

const (
	MethodText      = "text"
	MethodHTML      = "html"
	MethodDOCX      = "docx"
	MethodPDF       = "pdf"
	MethodPDFLayout = "pdf-layout"
	MethodOCR       = "ocr"
	MethodPrintable = "printable"
)

var (
	// ErrNotApplicable is returned by a strategy that does not handle the
	// payload's format.
	ErrNotApplicable = errors.New("format not handled")
	ErrNoText        = errors.New("no text produced")
)

// Strategy is a single way of reading text out of a payload.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

// DefaultStrategies returns the standard strategy order. The OCR strategy is
// included only when an engine is supplied.
func DefaultStrategies(ocr OCREngine) []Strategy {
	out := []Strategy{PlainText{}, HTML{}, DOCX{}, PDFText{}, PDFLayout{}}
	if ocr != nil {
		out = append(out, OCR{Engine: ocr})
	}
	return append(out, Printable{})
}

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

func isPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfMagic)
}

func isZip(data []byte) bool { return bytes.HasPrefix(data, zipMagic) }

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.ToLower(bytes.TrimSpace(head))
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	for _, tag := range []string{"<!doctype html", "<html", "<head", "<body", "<p>", "<h1", "<div"} {
		if bytes.Contains(head, []byte(tag)) {
			return true
		}
	}
	return false
}

// PlainText accepts UTF-8 text payloads.
type PlainText struct{}

func (PlainText) Name() string { return MethodText }

func (PlainText) Extract(_ context.Context, data []byte) (string, error) {
	if isPDF(data) || isZip(data) || looksLikeHTML(data) {
		return "", ErrNotApplicable
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", errors.New("payload is not UTF-8 text")
	}
	return string(data), nil
}

// Printable keeps the printable runes of any payload. It is the last resort
// for damaged or unknown formats.
type Printable struct{}

func (Printable) Name() string { return MethodPrintable }

func (Printable) Extract(_ context.Context, data []byte) (string, error) {
	var out bytes.Buffer
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if isPrintableRune(r) {
			out.WriteRune(r)
		}
	}
	return out.String(), nil
}

func isPrintableRune(r rune) bool {
	switch {
	case r == '\n' || r == '\t':
		return true
	case r >= 32 && r < 127:
		return true
	case r >= 0xA0 && r != utf8.RuneError:
		return true
	}
	return false
}
