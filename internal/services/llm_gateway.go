package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// CompletionRequest is one system+user prompt exchange
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	JSON        bool // ask for a JSON object response
	Document    *Document
}

// Document is an uploaded file sent alongside the prompt
type Document struct {
	MIMEType string
	Data     []byte
}

// IsText reports whether the document can be inlined as plain text
func (d *Document) IsText() bool {
	return strings.HasPrefix(d.MIMEType, "text/") || d.MIMEType == "application/json"
}

type Completion struct {
	Text  string
	Model string
}

// LLMGateway is the downstream language model used by the paid tools
type LLMGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// SupportsDocument reports whether a file of this type can be attached
	SupportsDocument(mimeType string) bool
	Close() error
}

// NewLLMGateway builds the gateway selected by configuration
func NewLLMGateway(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (LLMGateway, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiGateway(ctx, cfg, logger)
	case "openai", "":
		return NewOpenAIGateway(cfg, &http.Client{Timeout: cfg.Timeout}, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// ===== OpenAI-compatible chat completions =====

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIGateway struct {
	endpoint string
	apiKey   string
	model    string
	client   HTTPClient
	logger   *slog.Logger
}

func NewOpenAIGateway(cfg config.LLMConfig, client HTTPClient, logger *slog.Logger) LLMGateway {
	if client == nil {
		client = http.DefaultClient
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &openAIGateway{
		endpoint: normalizeOpenAIEndpoint(cfg.BaseURL),
		apiKey:   cfg.APIKey,
		model:    model,
		client:   client,
		logger:   logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float32           `json:"temperature"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *openAIGateway) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return nil, fmt.Errorf("%w: api key not configured", ErrGatewayFailed)
	}

	prompt := req.Prompt
	if req.Document != nil {
		if !req.Document.IsText() {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, req.Document.MIMEType)
		}
		prompt += "\n\n" + string(req.Document.Data)
	}

	payload := chatRequest{
		Model:       g.model,
		Temperature: req.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: prompt},
		},
	}
	if req.JSON {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.WarnContext(ctx, "LLM gateway returned error", "status", resp.StatusCode, "body", string(b))
		return nil, fmt.Errorf("%w: status %d", ErrGatewayFailed, resp.StatusCode)
	}

	var cc chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrGatewayFailed)
	}

	model := cc.Model
	if model == "" {
		model = g.model
	}
	return &Completion{Text: cc.Choices[0].Message.Content, Model: model}, nil
}

func (g *openAIGateway) SupportsDocument(mimeType string) bool {
	return (&Document{MIMEType: mimeType}).IsText()
}

func (g *openAIGateway) Close() error {
	return nil
}

func normalizeOpenAIEndpoint(base string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	switch {
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}

// ===== Google Gemini =====

type geminiGateway struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewGeminiGateway(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (LLMGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires LLM_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "gemini-1.5-flash"
	}
	return &geminiGateway{client: client, model: model, logger: logger}, nil
}

func (g *geminiGateway) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	// a fresh model handle per call keeps the system instruction request-scoped
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(req.Temperature)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.Document != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Document.MIMEType, Data: req.Document.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGatewayFailed)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return &Completion{Text: sb.String(), Model: g.model}, nil
}

func (g *geminiGateway) SupportsDocument(mimeType string) bool {
	return (&Document{MIMEType: mimeType}).IsText() || mimeType == "application/pdf"
}

func (g *geminiGateway) Close() error {
	return g.client.Close()
}
