package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shoply/concierge/engine/domain"
)

// FunctionDef declares one callable capability to the model.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Schema is a JSON-schema object describing function parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one parameter in a Schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model        string        `json:"model"`
	Messages     []chatMessage `json:"messages"`
	Functions    []FunctionDef `json:"functions,omitempty"`
	FunctionCall string        `json:"function_call,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content      string `json:"content"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
}

// Decide sends the user query with the declared function schemas and auto
// selection. It returns the model's function call (nil if the model answered
// in free text) and the free-text content.
func (c *Client) Decide(ctx context.Context, query string, functions []FunctionDef) (*domain.FunctionCall, string, error) {
	req := chatRequest{
		Model:        c.chatModel,
		Messages:     []chatMessage{{Role: "user", Content: query}},
		Functions:    functions,
		FunctionCall: "auto",
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, "", fmt.Errorf("openai chat: no choices returned")
	}

	msg := resp.Choices[0].Message
	if fc := msg.FunctionCall; fc != nil {
		return &domain.FunctionCall{
			Name:      fc.Name,
			Arguments: json.RawMessage(fc.Arguments),
		}, msg.Content, nil
	}
	return nil, msg.Content, nil
}

const rephrasePrompt = "Rephrase the following structured result as a short, natural answer for a shopper. Keep every fact, number, and URL intact."

// Rephrase asks the model to turn a structured textual summary into natural
// language.
func (c *Client) Rephrase(ctx context.Context, text string) (string, error) {
	req := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: rephrasePrompt},
			{Role: "user", Content: text},
		},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("openai rephrase: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai rephrase: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// post sends a JSON request and decodes the JSON response. Upstream error
// bodies are reported by status code only; they are never echoed into the
// returned error.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
