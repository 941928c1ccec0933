// Package ollama adapts a local Ollama instance into the VibeExtractor
// port: it prompts the model for strict JSON and coerces the result into
// domain.VibeParameters. Extraction never fails; any error path yields the
// documented defaults.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "mistral"
)

const systemPrompt = `You are a music curation assistant. Convert the user's vibe description into JSON only (no extra text).
The JSON must follow this schema (numbers in [0,1], tempo 40-220):

{
  "mood": "<short phrase>",
  "scene": "<optional short context>",
  "tempo_bpm": <int 40-220>,
  "energy_range": [<0-1>, <0-1>],
  "valence_range": [<0-1>, <0-1>],
  "danceability_range": [<0-1>, <0-1>],
  "acousticness_range": [<0-1>, <0-1>],
  "genre_candidates": ["<up to 6 genres>"],
  "keywords": ["<3-8 short search keywords (no artist names unless explicitly requested)>"]
}

Notes:
- Favor CONCRETE Spotify-like genre names when possible: pop, rock, metal, death-metal, metalcore, hardcore, hip-hop, r-n-b, electronic, house, techno, indie-pop, alternative, ambient, chill, chillhop, lofi, jazz, soul, funk, trap, punk, folk, singer-songwriter, edm, drum-and-bass.
- If the user asks for specific decades/substyles, reflect that in genre_candidates and tempo/energy/danceability.
- No commentary. Output JSON only.`

// firstJSONObject grabs the first {...} block out of a chatty response.
var firstJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

// Client is an HTTP adapter for the Ollama chat API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.VibeExtractor = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// vibeDocument is the extractor's wire schema before coercion.
type vibeDocument struct {
	Mood            string     `json:"mood"`
	Scene           string     `json:"scene"`
	TempoBPM        *int       `json:"tempo_bpm"`
	EnergyRange     []float64  `json:"energy_range"`
	ValenceRange    []float64  `json:"valence_range"`
	DanceRange      []float64  `json:"danceability_range"`
	AcousticRange   []float64  `json:"acousticness_range"`
	GenreCandidates []string   `json:"genre_candidates"`
	Keywords        []string   `json:"keywords"`
}

// NewClient constructs a Client. Empty baseURL and model fall back to the
// local defaults.
func NewClient(baseURL, model string, log zerolog.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// ExtractVibe analyzes the prompt and returns structured parameters,
// falling back to domain.DefaultVibeParameters on any failure.
func (c *Client) ExtractVibe(ctx context.Context, prompt string) domain.VibeParameters {
	doc, err := c.analyze(ctx, prompt)
	if err != nil {
		c.log.Warn().Err(err).Msg("vibe extraction failed, using defaults")
		return domain.DefaultVibeParameters()
	}
	return coerce(doc)
}

func (c *Client) analyze(ctx context.Context, prompt string) (vibeDocument, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "User vibe: " + strings.TrimSpace(prompt)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return vibeDocument{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return vibeDocument{}, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return vibeDocument{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return vibeDocument{}, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return vibeDocument{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return vibeDocument{}, fmt.Errorf("ollama: %s", parsed.Error)
	}

	raw := firstJSONObject.FindString(parsed.Message.Content)
	if raw == "" {
		return vibeDocument{}, fmt.Errorf("ollama: no JSON object in response")
	}

	var doc vibeDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return vibeDocument{}, fmt.Errorf("ollama: decode vibe document: %w", err)
	}
	return doc, nil
}

// coerce clamps the document into valid parameter ranges, substituting the
// defaults field by field.
func coerce(doc vibeDocument) domain.VibeParameters {
	out := domain.DefaultVibeParameters()

	if mood := strings.TrimSpace(doc.Mood); mood != "" {
		out.Mood = mood
	}
	out.Scene = strings.TrimSpace(doc.Scene)
	if doc.TempoBPM != nil {
		out.TempoBPM = domain.ClampTempo(*doc.TempoBPM)
	}
	out.Energy = coerceRange(doc.EnergyRange, out.Energy)
	out.Valence = coerceRange(doc.ValenceRange, out.Valence)
	out.Danceability = coerceRange(doc.DanceRange, out.Danceability)
	out.Acousticness = coerceRange(doc.AcousticRange, out.Acousticness)
	out.GenreCandidates = doc.GenreCandidates
	out.Keywords = doc.Keywords
	return out
}

func coerceRange(pair []float64, fallback domain.Range) domain.Range {
	if len(pair) != 2 {
		return fallback
	}
	return domain.Range{
		Low:  domain.Clamp01(pair[0]),
		High: domain.Clamp01(pair[1]),
	}
}
