// Package gemini implements the extraction port against Google's Gemini
// vision models.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"fintrack/internal/extract"
)

const receiptPrompt = "You are a receipt parser.\n\n" +
	"Task:\n" +
	"- Read the attached receipt (image or PDF).\n" +
	"- Output STRICT JSON only (no comments, no extra text).\n" +
	"- Output a single JSON object with exactly these keys:\n" +
	"  \"amount\", \"date\", \"description\", \"purchase_category\".\n" +
	"- Each key maps to an object {\"value\": ...} where value is a string, or null when unreadable.\n\n" +
	"Rules:\n" +
	"- \"amount\" is the receipt grand total as a plain decimal, e.g. \"249.50\". No currency symbols.\n" +
	"- \"date\" is the purchase date in ISO format \"YYYY-MM-DD\".\n" +
	"- \"description\" is the merchant or a short purchase summary.\n" +
	"- \"purchase_category\" is a single word like Food, Travel, Shopping.\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed extractor. Credentials come from the
// environment the way the genai SDK expects them.
func New(ctx context.Context, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Extract sends the staged file inline with the parsing prompt and decodes
// the model's JSON object into a field bag.
func (c *Client) Extract(ctx context.Context, path, mimeType string) (extract.FieldBag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read staged file: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: receiptPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var bag extract.FieldBag
	if err := json.Unmarshal([]byte(clean), &bag); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}
	return bag, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost object if junk still surrounds it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
