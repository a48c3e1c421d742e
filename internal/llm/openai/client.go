package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/internal/llm"
)

// ErrNoAPIKey is returned before any network call when the run has no key.
var ErrNoAPIKey = errors.New("openai: no api key configured")

// ExtractResponses implements llm.ResponseExtractor over chat/completions.
// Text requests send extracted document text; vision requests attach one
// rendered page as an image_url part.
func (c *Client) ExtractResponses(ctx context.Context, req llm.Request) ([]map[string]any, []byte, error) {
	if req.APIKey == "" {
		return nil, nil, ErrNoAPIKey
	}
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	rid := uuid.New().String()
	start := time.Now()
	mode := "text"
	if req.IsVision() {
		mode = "vision"
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"mode", mode,
		"model", model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"course", req.CourseName,
	)

	schema := llm.BuildResponseSchema()
	body := map[string]any{
		"model":           model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": c.userContent(req)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + req.APIKey,
	}, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices", "req_id", rid)
		return nil, raw, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	decoded, err := llm.DecodeResponses(content)
	if err != nil {
		c.log.Error("llm.extract.parse_failed", "req_id", rid, "error", err)
		return nil, content, err
	}

	items, err := c.conform(rid, schema, decoded.Items)
	if err != nil {
		return nil, content, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"shape", decoded.Shape,
		"responses", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return items, content, nil
}

// conform validates items strictly first, then (unless strict) sanitizes and
// validates again.
func (c *Client) conform(rid string, schema map[string]any, items []map[string]any) ([]map[string]any, error) {
	env, err := llm.Envelope(items)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	vErr := llm.ValidateJSONAgainstSchema(schema, env)
	if vErr == nil {
		return items, nil
	}
	if c.cfg.StrictSchema {
		c.log.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", vErr)
		return nil, fmt.Errorf("schema validation failed: %w", vErr)
	}

	cleaned, dropped := llm.SanitizeItems(items, c.log)
	env, err = llm.Envelope(cleaned)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	if err := llm.ValidateJSONAgainstSchema(schema, env); err != nil {
		c.log.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", err)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	c.log.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", len(dropped))
	return cleaned, nil
}

func (c *Client) userContent(req llm.Request) any {
	if !req.IsVision() {
		return llm.BuildTextPrompt(req.CourseName, req.Text, c.cfg.MaxInputChars)
	}
	return []map[string]any{
		{"type": "text", "text": llm.BuildVisionPrompt(req.CourseName, req.Image.Page)},
		{"type": "image_url", "image_url": map[string]any{
			"url":    llm.DataURL(req.Image.MimeType, req.Image.Data),
			"detail": "high",
		}},
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
