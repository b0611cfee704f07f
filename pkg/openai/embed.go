package openai

import (
	"context"
	"fmt"
)

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text using the configured model.
// The first successful call pins the expected dimensionality; later vectors
// of a different length are rejected, since the whole engine assumes one
// embedding space per provider.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var resp embedResponse
	if err := c.post(ctx, "/embeddings", embedRequest{Model: c.embedModel, Input: text}, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embed: no embedding returned")
	}

	vec := resp.Data[0].Embedding

	// Embed is called concurrently during catalog fan-out.
	c.dimsMu.Lock()
	defer c.dimsMu.Unlock()
	if c.embedDims == 0 {
		c.embedDims = len(vec)
	} else if len(vec) != c.embedDims {
		return nil, fmt.Errorf("openai embed: got %d dims, model %s previously returned %d", len(vec), c.embedModel, c.embedDims)
	}
	return vec, nil
}
