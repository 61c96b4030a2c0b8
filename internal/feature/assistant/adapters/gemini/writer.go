package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"psx_backend/internal/feature/assistant/domain/entity"
	"psx_backend/internal/feature/assistant/usecase"
)

// WriterPromptTemplate は回答生成のプロンプトです。質問と事実（markdown）を埋め込みます。
const WriterPromptTemplate = `You are a concise PSX market assistant. Answer the question using only the facts below.
Use PKR for money, keep numbers as given, answer in markdown, and end with a one-line note that this is not investment advice.

Question: %s

Facts (%s):
%s`

// Writer はGeminiで事実を回答文にまとめます。
type Writer struct {
	client *Client
}

var _ usecase.AnswerWriter = (*Writer)(nil)

// NewWriter は Writer を生成します。
func NewWriter(c *Client) *Writer {
	return &Writer{client: c}
}

// Write は回答文を生成します。
func (w *Writer) Write(ctx context.Context, question string, r entity.Result) (string, error) {
	prompt := fmt.Sprintf(WriterPromptTemplate, question, r.Intent, r.Facts)
	return w.client.generate(ctx, prompt, &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.3)})
}
