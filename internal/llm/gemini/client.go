// Package gemini implements llm.DocumentExtractor against the Gemini
// generateContent REST API, with a two-tier model fallback.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/llm"
)

// ExtractText sends the document inline to the primary model and returns the
// response text. On any primary failure (transport, non-2xx, empty
// response) the identical payload is retried once against the fallback
// model; if that also fails the error propagates wrapped in ErrModel.
// Callers never see a transient primary failure the fallback absorbed.
func (c *Client) ExtractText(ctx context.Context, req llm.ExtractRequest) (string, error) {
	rid := req.BatchID
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	payload := buildGeneratePayload(req)

	c.log.Info("gemini.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime_type", req.MIMEType,
		"payload_bytes", len(req.FileBytes),
		"filename", req.FilenameHint,
	)

	text, primaryErr := c.generate(ctx, c.cfg.Model, payload)
	if primaryErr == nil {
		c.log.Info("gemini.extract.ok",
			"req_id", rid,
			"model", c.cfg.Model,
			"text_len", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return text, nil
	}

	c.log.Warn("gemini.extract.fallback",
		"req_id", rid,
		"primary_model", c.cfg.Model,
		"fallback_model", c.cfg.FallbackModel,
		"error", primaryErr,
	)

	text, fallbackErr := c.generate(ctx, c.cfg.FallbackModel, payload)
	if fallbackErr != nil {
		c.log.Error("gemini.extract.failed",
			"req_id", rid,
			"primary_error", primaryErr,
			"fallback_error", fallbackErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: primary %q: %v; fallback %q: %v",
			common.ErrModel, c.cfg.Model, primaryErr, c.cfg.FallbackModel, fallbackErr)
	}

	c.log.Info("gemini.extract.ok",
		"req_id", rid,
		"model", c.cfg.FallbackModel,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// generate performs one generateContent call and extracts the candidate
// text. A response with no text counts as a failure.
func (c *Client) generate(ctx context.Context, model string, payload map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + model + ":generateContent"
	raw, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini response contained no text")
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// buildGeneratePayload packages the prompt plus the inline document. The
// same payload is reused verbatim for the fallback attempt.
func buildGeneratePayload(req llm.ExtractRequest) map[string]any {
	return map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": llm.BuildExtractionPrompt()},
					{
						"inline_data": map[string]any{
							"mime_type": req.MIMEType,
							"data":      base64.StdEncoding.EncodeToString(req.FileBytes),
						},
					},
				},
			},
		},
	}
}
