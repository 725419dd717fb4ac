package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// AzureVision recognizes printed text with Azure Computer Vision.
type AzureVision struct {
	client computervision.BaseClient
	logger *slog.Logger
}

func NewAzureVision(endpoint, key string, logger *slog.Logger) *AzureVision {
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(key)
	return &AzureVision{client: client, logger: logger}
}

func (a *AzureVision) Name() string { return "azure" }

// RecognizeURL lets the service fetch the image itself.
func (a *AzureVision) RecognizeURL(ctx context.Context, url string) (Recognition, error) {
	res, err := a.client.RecognizePrintedText(ctx, true, computervision.ImageURL{URL: &url}, computervision.OcrLanguages(computervision.En))
	if err != nil {
		return Recognition{}, fmt.Errorf("azure recognize url: %w", err)
	}
	return Recognition{Text: ocrResultText(res)}, nil
}

func (a *AzureVision) Recognize(ctx context.Context, data []byte) (Recognition, error) {
	res, err := a.client.RecognizePrintedTextInStream(ctx, true, io.NopCloser(bytes.NewReader(data)), computervision.OcrLanguages(computervision.En))
	if err != nil {
		return Recognition{}, fmt.Errorf("azure recognize stream: %w", err)
	}
	return Recognition{Text: ocrResultText(res)}, nil
}

// ocrResultText joins words with spaces and lines with newlines, in reading order.
func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var b strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, w := range *line.Words {
				if w.Text != nil {
					words = append(words, *w.Text)
				}
			}
			if len(words) == 0 {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strings.Join(words, " "))
		}
	}
	return b.String()
}
