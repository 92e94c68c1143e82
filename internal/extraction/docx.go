package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// DOCX reads word/document.xml from an OOXML package.
type DOCX struct{}

func (DOCX) Name() string { return MethodDOCX }

func (DOCX) Extract(_ context.Context, data []byte) (string, error) {
	if !isZip(data) {
		return "", ErrNotApplicable
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range r.File {
		if !strings.EqualFold(f.Name, "word/document.xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", errors.New("word/document.xml not found")
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	newline := true
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return buf.String(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					newline = false
				}
			case "tab":
				buf.WriteByte('\t')
				newline = false
			case "br", "cr":
				buf.WriteByte('\n')
				newline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !newline {
					buf.WriteByte('\n')
					newline = true
				}
			case "tc":
				buf.WriteByte('\t')
			}
		}
	}
	return buf.String(), nil
}
