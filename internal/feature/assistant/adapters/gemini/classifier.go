package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"psx_backend/internal/feature/assistant/domain/entity"
	"psx_backend/internal/feature/assistant/usecase"
	marketdomain "psx_backend/internal/feature/market/domain"
)

const classifyInstruction = `You route questions about the Pakistan Stock Exchange (PSX) to one intent.
Return JSON only. symbols are PSX tickers mentioned in the question (e.g. SHEZ, OGDC), uppercase, without exchange prefix.
limit is the number of results the user asked for, or 0. threshold is an RSI value the user asked for, or 0.
Intents: top_gainers, top_losers, stock_analysis, oversold_scan, overbought_scan, portfolio_analysis, current_prices, help.`

// Classifier はGeminiのJSONモードで質問を分類します。
type Classifier struct {
	client *Client
}

var _ usecase.IntentClassifier = (*Classifier)(nil)

// NewClassifier は Classifier を生成します。
func NewClassifier(c *Client) *Classifier {
	return &Classifier{client: c}
}

type classification struct {
	Intent    string   `json:"intent"`
	Symbols   []string `json:"symbols"`
	Limit     int      `json:"limit"`
	Threshold float64  `json:"threshold"`
}

func classificationSchema() *genai.Schema {
	intents := make([]string, 0, len(entity.Intents))
	for _, i := range entity.Intents {
		intents = append(intents, string(i))
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent":    {Type: genai.TypeString, Enum: intents},
			"symbols":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"limit":     {Type: genai.TypeInteger},
			"threshold": {Type: genai.TypeNumber},
		},
		Required: []string{"intent"},
	}
}

// Classify は質問を意図に分類します。モデルが未知の意図を返した場合はエラーです。
func (c *Classifier) Classify(ctx context.Context, question string) (entity.Classification, error) {
	text, err := c.client.generate(ctx, question, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifyInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    classificationSchema(),
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return entity.Classification{}, err
	}

	var raw classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return entity.Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	out := entity.Classification{Intent: entity.Intent(raw.Intent), Threshold: raw.Threshold}
	if !out.Intent.Valid() {
		return entity.Classification{}, fmt.Errorf("model returned unknown intent %q", raw.Intent)
	}
	if raw.Limit > 0 {
		out.Limit = raw.Limit
	}
	seen := map[string]struct{}{}
	for _, s := range raw.Symbols {
		sym := marketdomain.NormalizeSymbol(s)
		if _, dup := seen[sym]; sym == "" || dup {
			continue
		}
		seen[sym] = struct{}{}
		out.Symbols = append(out.Symbols, sym)
	}
	return out, nil
}
