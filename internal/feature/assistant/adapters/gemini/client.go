// Package gemini はGoogle Gemini APIを使用した意図分類と回答生成を提供します。
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Config はGeminiクライアントの設定です。APIKey が空の場合は環境変数（Vertex AI / ADC）を使います。
type Config struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// contentGenerator は genai.Models のうち利用するメソッドだけを抽象化します。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client は分類器と回答生成器が共有するGeminiクライアントです。
type Client struct {
	models contentGenerator
	model  string
}

// NewClient はGeminiクライアントを生成します。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var cc *genai.ClientConfig
	if cfg.APIKey != "" {
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newClient(client.Models, cfg.Model), nil
}

func newClient(models contentGenerator, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model}
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	return resp.Text(), nil
}
