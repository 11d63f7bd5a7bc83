// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package llm is the Gemini client used to generate song recommendations.
//
// Requests ask for a JSON response. The sampling temperature falls as the
// number of recommendations already stored for a country grows, so early
// requests explore widely and later ones stay close to well-known songs.
// Calls go through a circuit breaker so a failing Gemini endpoint does not
// stall every recommendation request.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/tomtom215/songpassport/internal/breaker"
	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

const (
	DefaultModel           = "gemini-2.5-flash-lite"
	DefaultMaxOutputTokens = 1000

	serviceName = "gemini"
)

// ErrEmptyResponse is returned when Gemini answers without any text.
var ErrEmptyResponse = errors.New("empty response from Gemini")

// Generator produces text for a prompt. vocabSize is the number of items
// already known for the prompt's subject and selects the temperature.
type Generator interface {
	Generate(ctx context.Context, prompt string, vocabSize int) (string, error)
}

type generateFunc func(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error)

// Client calls Gemini through a circuit breaker.
type Client struct {
	generate  generateFunc
	breaker   *breaker.Breaker[string]
	model     string
	maxTokens int32
	timeout   time.Duration
}

// New creates a Gemini client. The API key is required.
func New(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set in environment")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := newClient(cfg, func(ctx context.Context, prompt string, gcfg *genai.GenerateContentConfig) (string, error) {
		resp, err := gc.Models.GenerateContent(ctx, cfg.Model, genai.Text(prompt), gcfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})

	logging.Info().
		Str("model", c.model).
		Str("api_key", logging.MaskSecret(cfg.APIKey)).
		Msg("Gemini client initialized")
	return c, nil
}

func newClient(cfg config.LLMConfig, fn generateFunc) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return &Client{
		generate:  fn,
		breaker:   breaker.New[string](serviceName),
		model:     cfg.Model,
		maxTokens: int32(cfg.MaxOutputTokens),
		timeout:   cfg.Timeout,
	}
}

// Temperature maps the number of known items to a sampling temperature.
func Temperature(vocabSize int) float32 {
	switch {
	case vocabSize <= 10:
		return 0.9
	case vocabSize <= 20:
		return 0.6
	case vocabSize <= 50:
		return 0.3
	default:
		return 0.1
	}
}

// Generate sends prompt to Gemini and returns the JSON text of the answer.
func (c *Client) Generate(ctx context.Context, prompt string, vocabSize int) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	gcfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(Temperature(vocabSize)),
		MaxOutputTokens:  c.maxTokens,
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	text, err := c.breaker.Execute(func() (string, error) {
		text, err := c.generate(ctx, prompt, gcfg)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
	metrics.RecordExternalCall(serviceName, time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("model", c.model).Msg("Error calling Gemini API")
		return "", fmt.Errorf("gemini: %w", err)
	}
	return text, nil
}
