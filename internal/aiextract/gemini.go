// Package aiextract asks a Gemini model to list the transactions in a
// statement's text.
package aiextract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

const prompt = "You are a bank statement parser.\n\n" +
	"Task:\n" +
	"- List ALL transactions in the statement text below.\n" +
	"- Output STRICT JSON only: a JSON array of objects, no comments, no extra text.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, as printed\n" +
	"- \"amount\": string, exactly as printed including parentheses, signs or CR/DR\n" +
	"- \"direction\": \"credit\" for money in, \"debit\" for money out, or null if unclear\n" +
	"- \"page\": number or null\n\n" +
	"Skip balances, subtotals and headers.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"[\" and end with \"]\".\n\n" +
	"Statement:\n"

// Generator is the part of the genai client the extractor uses.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Extractor extracts transactions through a Gemini model.
type Extractor struct {
	gen   Generator
	model string
}

// New wraps a generator.
func New(gen Generator, model string) *Extractor {
	return &Extractor{gen: gen, model: model}
}

// NewGemini creates a Gemini API client for apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, faults.Configf("ai", "api_key", "no API key set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return New(client.Models, model), nil
}

// Extract sends text to the model once and parses its answer. dropped
// counts items the model returned that could not be used.
func (e *Extractor) Extract(ctx context.Context, text string) (txns []model.RawTransaction, dropped int, err error) {
	contents := genai.Text(prompt + text)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	resp, err := e.gen.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, 0, fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return nil, 0, fmt.Errorf("empty response from model")
	}
	return ParseResponse(raw)
}

// item is one transaction as the model returns it.
type item struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Direction   *string         `json:"direction"`
	Page        *int            `json:"page"`
}

// ParseResponse decodes a model answer. Items without a usable date,
// description or amount are dropped and counted.
func ParseResponse(raw string) ([]model.RawTransaction, int, error) {
	var items []item
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &items); err != nil {
		return nil, 0, fmt.Errorf("unmarshal model JSON: %w", err)
	}

	out := make([]model.RawTransaction, 0, len(items))
	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		amount := amountText(it.Amount)
		date, err := time.Parse("2006-01-02", strings.TrimSpace(it.Date))
		if desc == "" || amount == "" || err != nil {
			continue
		}
		txn := model.RawTransaction{Description: desc, AmountText: amount, Date: date}
		if it.Direction != nil {
			if d := model.Direction(strings.ToLower(*it.Direction)); d.Valid() {
				txn.Hint = d
			}
		}
		if it.Page != nil && *it.Page > 0 {
			txn.Page = *it.Page
		}
		out = append(out, txn)
	}
	return out, len(items) - len(out), nil
}

// amountText accepts the amount as a JSON string or number.
func amountText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		u, err := strconv.Unquote(s)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(u)
	}
	return s
}

// cleanModelJSON strips Markdown fences and any text around the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
