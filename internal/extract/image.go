package extract

import (
	"context"

	"github.com/sleeqtechnologies/rechef/internal/source"
)

// ImageExtractor downloads a linked picture so it can be sent to the model.
type ImageExtractor struct {
	Images ImageFetcher
}

func (e *ImageExtractor) Extract(ctx context.Context, in source.Info) (*RawContent, error) {
	data, err := e.Images.DownloadImageBase64(ctx, in.URL)
	if err != nil {
		return nil, err
	}
	return &RawContent{URL: in.URL, ImageBase64: data}, nil
}
