package client

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
)

// TesseractClient recognizes page images with a local Tesseract install.
// Calls are serialized: each one loads the language model, which is heavy.
type TesseractClient struct {
	dataPath string
	language string
	log      zerolog.Logger
	mu       sync.Mutex
}

func NewTesseractClient(dataPath, language string, log zerolog.Logger) *TesseractClient {
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
		log:      log.With().Str("component", "tesseract").Logger(),
	}
}

func (tc *TesseractClient) Name() string {
	return "tesseract/" + tc.language
}

// Recognize runs OCR on a single page image.
func (tc *TesseractClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	text, _, err := tc.RecognizeWithConfidence(ctx, img)
	return text, err
}

// RecognizeWithConfidence also returns the mean word confidence (0-100).
func (tc *TesseractClient) RecognizeWithConfidence(ctx context.Context, img image.Image) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	data, err := encodePNG(PreprocessPage(img))
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode page: %w", err)
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Confidence is informational only.
		tc.log.Debug().Err(err).Msg("bounding boxes unavailable")
		return text, 0, nil
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	avg := 0.0
	if len(boxes) > 0 {
		avg = total / float64(len(boxes))
	}

	tc.log.Debug().Int("chars", len(text)).Float64("confidence", avg).Msg("page recognized")
	return text, avg, nil
}
