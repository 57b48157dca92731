package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/romaklym/kronsteen/pkg/match"
)

// DefaultOllamaModel is the vision model used when none is configured.
const DefaultOllamaModel = "minicpm-v"

// ollamaPrompt constrains the model to a parseable JSON shape. Boxes are
// x,y,width,height in pixels of the submitted image.
const ollamaPrompt = `Read all text visible in this image. Respond with JSON only, in the shape
{"items":[{"text":"...","bbox":[x,y,width,height],"confidence":0.0}]}.
bbox coordinates are pixels in the image. confidence is your certainty in [0,1].
Include every distinct piece of text as its own item.`

// Ollama recognizes text by sending captures to a local vision model
// through the Ollama chat API.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama returns an Ollama OCR backend. baseURL defaults to the local
// Ollama daemon, model to DefaultOllamaModel.
func NewOllama(baseURL, model string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", baseURL, err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Ollama{client: api.NewClient(base, http.DefaultClient), model: model}, nil
}

type ollamaItem struct {
	Text       string   `json:"text"`
	BBox       []int    `json:"bbox"`
	Confidence *float64 `json:"confidence"`
}

type ollamaPayload struct {
	Items []ollamaItem `json:"items"`
}

// Recognize sends the image to the vision model and parses its JSON answer
// into matches relative to the image origin.
func (o *Ollama) Recognize(ctx context.Context, img image.Image) ([]match.Match, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode capture for OCR: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: ollamaPrompt,
			Images:  []api.ImageData{api.ImageData(buf.Bytes())},
		}},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
	}

	var content string
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	return parseOllamaItems(content)
}

// parseOllamaItems decodes the model's JSON answer. Items without a usable
// bounding box are dropped rather than failing the whole response, since
// vision models occasionally emit a malformed entry among good ones.
func parseOllamaItems(content string) ([]match.Match, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON in markdown fences despite the format hint.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload ollamaPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("unparseable ollama response: %w", err)
	}

	var matches []match.Match
	for _, item := range payload.Items {
		text := strings.TrimSpace(item.Text)
		if text == "" || len(item.BBox) != 4 {
			continue
		}
		conf := 1.0
		if item.Confidence != nil {
			conf = *item.Confidence
		}
		region := match.Region{X: item.BBox[0], Y: item.BBox[1], Width: item.BBox[2], Height: item.BBox[3]}
		m, err := match.New(match.KindText, text, region, conf)
		if err != nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}
