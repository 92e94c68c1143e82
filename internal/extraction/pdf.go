package extraction

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText reads the PDF text layer in content-stream order.
type PDFText struct{}

func (PDFText) Name() string { return MethodPDF }

func (PDFText) Extract(_ context.Context, data []byte) (string, error) {
	if !isPDF(data) {
		return "", ErrNotApplicable
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// PDFLayout rebuilds each page from text rows ordered top to bottom,
// inserting spaces where glyph runs are visibly apart. It recovers reading
// order on pages whose content streams are out of order.
type PDFLayout struct{}

func (PDFLayout) Name() string { return MethodPDFLayout }

func (PDFLayout) Extract(ctx context.Context, data []byte) (string, error) {
	if !isPDF(data) {
		return "", ErrNotApplicable
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			b.WriteString(joinRow(row.Content))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func joinRow(texts pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > t.FontSize*0.25 && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return b.String()
}
