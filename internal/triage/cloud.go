package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/caba911/dispatch/internal/models"
	"github.com/rs/zerolog/log"
)

// systemPrompt instructs the model to return the strict JSON shape defined
// in spec.md §6. tipo/codigo are required; everything else is optional.
const systemPrompt = `Eres un clasificador de emergencias para una central de despacho 911.
Devuelve EXCLUSIVAMENTE un objeto JSON (sin texto adicional, sin bloques de codigo) con esta forma:
{"tipo": "policial|medico|bomberos", "codigo": "rojo|amarillo|verde", "score": number, "razones": string[], "respuesta_ia": string, "recursos": [{"tipo": string, "cantidad": integer, "detalle": string}]}`

const (
	defaultLLMTimeout = 20 * time.Second
	defaultMaxTokens  = 512
)

// anthropicTriageResponse is the wire shape of spec.md §6's triage contract.
type anthropicTriageResponse struct {
	Tipo        string `json:"tipo"`
	Codigo      string `json:"codigo"`
	Score       float64 `json:"score"`
	Razones     []string `json:"razones"`
	RespuestaIA string `json:"respuesta_ia"`
	Recursos    []struct {
		Tipo     string `json:"tipo"`
		Cantidad int    `json:"cantidad"`
		Detalle  string `json:"detalle"`
	} `json:"recursos"`
}

// AnthropicTriageClient implements CloudClassifier against Anthropic's
// Messages API, mirroring the teacher's own raw-HTTP AnthropicClient
// (internal/ai/providers/anthropic.go) for timeout/retry shape but
// delegating the wire call to the published SDK rather than hand-rolled
// JSON, since the SDK is the dependency this component is meant to
// exercise (SPEC_FULL.md §4.9).
type AnthropicTriageClient struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	apiKey  string
}

// NewAnthropicTriageClient builds a client. Pass timeout 0 to use the
// spec's default LLM timeout (20s, spec.md §5).
func NewAnthropicTriageClient(apiKey, model string, timeout time.Duration) *AnthropicTriageClient {
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	return &AnthropicTriageClient{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
		apiKey:  apiKey,
	}
}

// Configured reports whether credentials are present, used by
// NewEngine's MisconfiguredProvider check.
func (c *AnthropicTriageClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Classify calls the cloud provider and parses its response into a
// Result. Any failure (timeout, malformed JSON, missing required fields,
// policy error) is returned as an error so Engine.Classify falls back to
// the rules layer; this method never panics and never blocks past timeout.
func (c *AnthropicTriageClient) Classify(ctx context.Context, description string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(description)),
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("triage cloud provider request failed, falling back to rules layer")
		return Result{}, fmt.Errorf("anthropic triage request: %w", err)
	}

	raw := extractText(msg)
	sanitized := sanitizeJSON(raw)

	var parsed anthropicTriageResponse
	if err := json.Unmarshal([]byte(sanitized), &parsed); err != nil {
		return Result{}, fmt.Errorf("parse triage cloud response: %w", err)
	}
	if parsed.Tipo == "" || parsed.Codigo == "" {
		return Result{}, fmt.Errorf("triage cloud response missing required fields tipo/codigo")
	}

	result := Result{
		Code:        mapCodigo(parsed.Codigo),
		Score:       clampScore(int(parsed.Score)),
		Type:        mapTipo(parsed.Tipo),
		Reasons:     parsed.Razones,
		AINarrative: parsed.RespuestaIA,
	}
	for _, r := range parsed.Recursos {
		result.RecommendedResources = append(result.RecommendedResources, Resource{
			Type: r.Tipo, Count: r.Cantidad, Detail: r.Detalle,
		})
	}
	if result.Score == 0 {
		result.Score = 1
	}
	return result, nil
}

func extractText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if text := block.Text; text != "" {
			b.WriteString(text)
		}
	}
	return b.String()
}

// sanitizeJSON strips markdown code fences and extracts the first
// {...} block, per spec.md §6 "The response is sanitized (code fences
// stripped, first {...} block extracted) before parsing."
func sanitizeJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func mapCodigo(codigo string) models.Code {
	switch strings.ToLower(codigo) {
	case "rojo":
		return models.CodeRed
	case "amarillo":
		return models.CodeYellow
	default:
		return models.CodeGreen
	}
}

func mapTipo(tipo string) models.ForceName {
	switch strings.ToLower(tipo) {
	case "bomberos":
		return models.ForceFire
	case "medico":
		return models.ForceMedical
	case "policial":
		return models.ForcePolice
	case "transito":
		return models.ForceTraffic
	default:
		return models.ForcePolice
	}
}

func clampScore(s int) int {
	if s < 1 {
		return 1
	}
	if s > 100 {
		return 100
	}
	return s
}
