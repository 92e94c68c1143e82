package extraction

import (
	"context"
	"errors"
)

// OCREngine rasterizes a document and recognizes its text. Implementations
// live outside this module.
type OCREngine interface {
	Recognize(ctx context.Context, data []byte) (string, error)
}

// OCR delegates to an external engine.
type OCR struct {
	Engine OCREngine
}

func (OCR) Name() string { return MethodOCR }

func (o OCR) Extract(ctx context.Context, data []byte) (string, error) {
	if o.Engine == nil {
		return "", errors.New("no OCR engine configured")
	}
	return o.Engine.Recognize(ctx, data)
}
