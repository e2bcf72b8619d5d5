// Package challenge produces daily coding challenge text. The primary path
// is an external text-generation provider; when it fails the generator falls
// back to a built-in rotation so the daily challenge endpoint never breaks on
// provider outages.
package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"example.com/codetrack/internal/domain"
)

// Config carries generator tunables. An empty ProviderURL disables the
// external provider entirely and serves the rotation list.
type Config struct {
	ProviderURL string
	APIKey      string
	Timeout     time.Duration
}

// Generator implements domain.ChallengeGenerator.
type Generator struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

// NewGenerator constructs a Generator.
func NewGenerator(cfg Config) *Generator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Generator{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.ProviderURL,
		apiKey:     cfg.APIKey,
	}
}

// Generate returns a challenge draft for the given day. Provider failures are
// logged and degrade to the rotation list; Generate itself does not fail.
func (g *Generator) Generate(ctx context.Context, date time.Time) (domain.ChallengeDraft, error) {
	if g.url != "" {
		draft, err := g.fromProvider(ctx)
		if err == nil {
			return draft, nil
		}
		log.Printf("challenge provider failed, using fallback: %v", err)
	}
	return fallbackFor(date), nil
}

type providerRequest struct {
	Prompt string `json:"prompt"`
}

type providerResponse struct {
	Title      string `json:"title"`
	Prompt     string `json:"prompt"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

func (g *Generator) fromProvider(ctx context.Context) (domain.ChallengeDraft, error) {
	body, err := json.Marshal(providerRequest{
		Prompt: "Generate a self-contained coding challenge with a title, prompt, difficulty, and target language.",
	})
	if err != nil {
		return domain.ChallengeDraft{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return domain.ChallengeDraft{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.ChallengeDraft{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ChallengeDraft{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var generated providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return domain.ChallengeDraft{}, err
	}
	if generated.Title == "" || generated.Prompt == "" {
		return domain.ChallengeDraft{}, fmt.Errorf("provider returned incomplete challenge")
	}

	return domain.ChallengeDraft{
		Title:      generated.Title,
		Prompt:     generated.Prompt,
		Difficulty: generated.Difficulty,
		Language:   generated.Language,
	}, nil
}

// fallbackChallenges rotate by day-of-year so consecutive days differ.
var fallbackChallenges = []domain.ChallengeDraft{
	{
		Title:      "Run-Length Encoder",
		Prompt:     "Implement run-length encoding and decoding for byte slices. Encoding must round-trip losslessly.",
		Difficulty: "easy",
		Language:   "go",
	},
	{
		Title:      "Rate Limiter",
		Prompt:     "Build a token-bucket rate limiter with a configurable refill rate. Include a blocking Wait method.",
		Difficulty: "medium",
		Language:   "go",
	},
	{
		Title:      "Merge Intervals",
		Prompt:     "Given a list of [start, end] intervals, merge all overlapping intervals and return the result sorted by start.",
		Difficulty: "easy",
		Language:   "any",
	},
	{
		Title:      "LRU Cache",
		Prompt:     "Implement an LRU cache with O(1) Get and Put using a doubly linked list and a map.",
		Difficulty: "medium",
		Language:   "any",
	},
	{
		Title:      "Expression Evaluator",
		Prompt:     "Parse and evaluate arithmetic expressions with +, -, *, / and parentheses without using eval.",
		Difficulty: "hard",
		Language:   "any",
	},
	{
		Title:      "Word Ladder",
		Prompt:     "Given two words and a dictionary, find the length of the shortest transformation sequence changing one letter at a time.",
		Difficulty: "hard",
		Language:   "any",
	},
	{
		Title:      "Top K Frequent",
		Prompt:     "Return the k most frequent elements of a slice in O(n log k). Ties may break arbitrarily.",
		Difficulty: "medium",
		Language:   "any",
	},
}

func fallbackFor(date time.Time) domain.ChallengeDraft {
	return fallbackChallenges[date.YearDay()%len(fallbackChallenges)]
}
