// Package rank reorders merged catalog results by relevance using a local
// Ollama model. Ranking is an enhancement, never a dependency: every fault
// path here surfaces as an error that callers answer by keeping the
// original order.
package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	ucp "github.com/Rakinzi/UCP"
)

const systemPrompt = "You are a shopping assistant. Rank products for relevance to the user's query. " +
	"Return JSON only with the key 'ranked_indices' as an array of integers (idx values)."

// OllamaConfig configures the ranker.
type OllamaConfig struct {
	// BaseURL of the Ollama server (optional, defaults to
	// http://ollama:11434).
	BaseURL string

	// Model to chat with (optional, defaults to llama3.2:1b).
	Model string

	// Timeout bounds the whole ranking call (optional, defaults to 3s).
	// Keep this short; a slow ranker must not hold up search results.
	Timeout time.Duration

	// HTTPClient overrides the default client (optional).
	HTTPClient *http.Client
}

// OllamaRanker implements catalog.Ranker against an Ollama /api/chat
// endpoint.
type OllamaRanker struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOllamaRanker creates a ranker from config.
func NewOllamaRanker(config *OllamaConfig) *OllamaRanker {
	if config == nil {
		config = &OllamaConfig{}
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://ollama:11434"
	}
	model := config.Model
	if model == "" {
		model = "llama3.2:1b"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaRanker{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type rankItem struct {
	Idx         int       `json:"idx"`
	Store       string    `json:"store"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       ucp.Money `json:"price"`
}

// Rank asks the model for a relevance ordering and applies it. Indices the
// model invents or repeats are ignored; products the model omits keep their
// merged order at the tail, so the result is always a permutation of the
// input.
func (r *OllamaRanker) Rank(ctx context.Context, query string, products []ucp.Product) ([]ucp.Product, error) {
	if len(products) == 0 {
		return products, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	items := make([]rankItem, len(products))
	for i, p := range products {
		items[i] = rankItem{
			Idx:         i,
			Store:       p.Store,
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
		}
	}
	userPayload, err := json.Marshal(map[string]interface{}{
		"query":        query,
		"products":     items,
		"instructions": "Return JSON only. Do not include any extra text.",
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model:  r.model,
		Stream: false,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userPayload)},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	indices, err := extractRankedIndices(chat.Message.Content)
	if err != nil {
		return nil, err
	}
	return applyOrder(products, indices), nil
}

// extractRankedIndices digs the ranked_indices array out of model output
// that may wrap the JSON object in prose.
func extractRankedIndices(content string) ([]int, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var parsed struct {
		RankedIndices []int `json:"ranked_indices"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if parsed.RankedIndices == nil {
		return nil, fmt.Errorf("model output has no ranked_indices")
	}
	return parsed.RankedIndices, nil
}

func applyOrder(products []ucp.Product, indices []int) []ucp.Product {
	ranked := make([]ucp.Product, 0, len(products))
	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx < 0 || idx >= len(products) || seen[idx] {
			continue
		}
		ranked = append(ranked, products[idx])
		seen[idx] = true
	}
	for i, p := range products {
		if !seen[i] {
			ranked = append(ranked, p)
		}
	}
	return ranked
}
