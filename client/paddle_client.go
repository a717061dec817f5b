package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PaddleClient recognizes page images through a PaddleOCR serving endpoint.
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewPaddleClient(apiURL string, log zerolog.Logger) *PaddleClient {
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		log:        log.With().Str("component", "paddleocr").Logger(),
	}
}

func (p *PaddleClient) Name() string {
	return "paddleocr"
}

// Recognize sends the page as a base64 PNG and joins the returned lines.
func (p *PaddleClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(PreprocessPage(img))
	if err != nil {
		return "", fmt.Errorf("failed to encode page: %w", err)
	}

	payload := map[string]interface{}{
		"images": []string{base64.StdEncoding.EncodeToString(data)},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Results [][]struct {
			Text       string  `json:"text"`
			Confidence float64 `json:"confidence"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	var sb strings.Builder
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			sb.WriteString(line.Text)
			sb.WriteString("\n")
		}
	}

	text := sb.String()
	p.log.Debug().Int("chars", len(text)).Msg("page recognized")
	return text, nil
}
