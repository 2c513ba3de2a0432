// Package gemini is the only component that talks to the generative-AI
// provider. It wraps creative-prompt generation, technical translation,
// image synthesis, and grammar correction behind one retry policy.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/prompt"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

const (
	defaultTextModel  = "gemini-3-flash-preview"
	defaultImageModel = "gemini-2.5-flash-image"

	// variationCount is how many creative variations one generation
	// request produces.
	variationCount = 2

	// minCorrectionLength is the shortest text worth grammar-correcting.
	minCorrectionLength = 5
)

// ErrNoImage is returned when the provider answers without an image part.
var ErrNoImage = errors.New("provider returned no image payload")

// apiError is a non-2xx provider response.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gemini API status %d: %s", e.status, e.body)
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Retry      RetryConfig

	// Sleep replaces the backoff wait, for tests.
	Sleep func(context.Context, time.Duration) error
	// OnRetry is invoked once per quota retry, for metrics.
	OnRetry func()
}

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     *slog.Logger
	retry      RetryConfig
	sleep      func(context.Context, time.Duration) error
	onRetry    func()
}

// New creates a generation client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}
	textModel := opts.TextModel
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.BackoffBase == 0 {
		retry = DefaultRetryConfig()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: opts.HTTPClient,
		logger:     logger,
		retry:      retry,
		sleep:      sleep,
		onRetry:    opts.OnRetry,
	}
}

// GenerateCreativePrompts asks for exactly two creative variations for the
// current draft. Variations must differ in lighting, composition, and
// background, and the source image content must stay free of rendered
// text; copy lands in structured fields instead.
func (c *Client) GenerateCreativePrompts(ctx context.Context, form studio.FormData) ([]studio.GeneratedPrompt, error) {
	ambience := "Estúdio profissional clássico"
	if amb := form.ActiveAmbience(); amb != nil && strings.TrimSpace(amb.Description) != "" {
		ambience = amb.Description
	}

	systemInstruction := fmt.Sprintf(`Você é um Engenheiro de Prompts especialista em fotografia de produto.
Gere %d variações REALMENTE DIFERENTES para o produto %s.
As variações DEVEM mudar: iluminação, composição/ângulo e fundo/superfície.
AMBIENTAÇÃO OBRIGATÓRIA: %s.
MODO: %s. TOM: %s.
TEXTO: Use %s. Reserve espaço negativo apropriado.
REGRAS CRÍTICAS: ZERO TEXTO NA IMAGEM. NUNCA gere letras ou números.
Se o modo for 'Texto integrado', crie copy Title, Subtitle e Offer criativos por variação.
Responda com um array JSON de objetos {layout, promptPt, negativePt, highlights, copyTitle, copySubtitle, copyOffer}.`,
		variationCount, form.ProductName, ambience, form.Objective, form.Tone, form.TextPresence)

	briefing := form.FinalBriefPt
	if briefing == "" {
		briefing = form.UserBrief
	}
	if briefing == "" {
		briefing = "Produto premium"
	}

	parts := []part{{Text: "Briefing base: " + briefing}}
	if hero := form.HeroImage(); hero != nil {
		parts = append(parts, part{InlineData: &blob{
			Data:     stripDataURLPrefix(hero.DataURL),
			MimeType: hero.MimeType,
		}})
	}

	req := generateContentRequest{
		Contents:          []content{{Role: "user", Parts: parts}},
		SystemInstruction: &content{Role: "user", Parts: []part{{Text: systemInstruction}}},
		GenerationConfig:  generationConfig{Temperature: 0.9, ResponseMimeType: "application/json"},
	}

	var prompts []studio.GeneratedPrompt
	err := c.withRetry(ctx, func(ctx context.Context) error {
		text, _, err := c.generateContent(ctx, c.textModel, req)
		if err != nil {
			return err
		}
		var parsed []studio.GeneratedPrompt
		if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
			return fmt.Errorf("parse creative prompts: %w", err)
		}
		if len(parsed) < variationCount {
			return fmt.Errorf("provider returned %d variations, want %d", len(parsed), variationCount)
		}
		prompts = parsed[:variationCount]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

// GenerateStructuredBrief merges the product identity and the user input
// into a final PT-BR briefing plus copy suggestions.
func (c *Client) GenerateStructuredBrief(ctx context.Context, form studio.FormData) (Brief, error) {
	instruction := fmt.Sprintf(`ATUE COMO DIRETOR DE MARKETING E FOTOGRAFIA SÊNIOR.
Gere um Briefing Final e sugestões de COPY atraentes.
PRODUTO: %s | MATERIAL: %s
MODO: %s | ESTILO: %s
USER INPUT: %s
TAREFA: Retorne JSON {brief_pt, copy_title, copy_subtitle, copy_offer}.`,
		form.ProductName, form.Material, form.Objective, form.Style, form.UserBrief)

	req := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: instruction}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	var brief Brief
	err := c.withRetry(ctx, func(ctx context.Context) error {
		text, _, err := c.generateContent(ctx, c.textModel, req)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(stripCodeFence(text)), &brief); err != nil {
			return fmt.Errorf("parse structured brief: %w", err)
		}
		return nil
	})
	if err != nil {
		return Brief{}, err
	}
	return brief, nil
}

// Translate turns the PT-BR scene and negative into image-prompt English.
// A failure here propagates untouched: falling back to the PT text would
// silently corrupt every downstream render.
func (c *Client) Translate(ctx context.Context, promptPt, negativePt string) (prompt.Translation, error) {
	instruction := fmt.Sprintf(`Translate to Image Prompt English: %q. Negative: %q.
Respond with JSON {"promptEn": "...", "negativeEn": "..."}.`, promptPt, negativePt)

	req := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: instruction}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	var out prompt.Translation
	err := c.withRetry(ctx, func(ctx context.Context) error {
		text, _, err := c.generateContent(ctx, c.textModel, req)
		if err != nil {
			return err
		}
		var parsed struct {
			PromptEn   string `json:"promptEn"`
			NegativeEn string `json:"negativeEn"`
		}
		if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
			return fmt.Errorf("parse translation: %w", err)
		}
		if strings.TrimSpace(parsed.PromptEn) == "" {
			return errors.New("empty translation")
		}
		out = prompt.Translation{PromptEn: parsed.PromptEn, NegativeEn: parsed.NegativeEn}
		return nil
	})
	if err != nil {
		return prompt.Translation{}, err
	}
	return out, nil
}

// PrepareTechnicalPrompt translates the creative scene (unless a prior
// translation is supplied) and compiles the final technical prompt.
func (c *Client) PrepareTechnicalPrompt(ctx context.Context, promptPt, negativePt string, settings studio.CreationSettings, refs []studio.ReferenceImage, override *prompt.Translation) (prompt.Compiled, error) {
	var scene prompt.Translation
	if override != nil && strings.TrimSpace(override.PromptEn) != "" {
		scene = *override
	} else {
		translated, err := c.Translate(ctx, promptPt, negativePt)
		if err != nil {
			return prompt.Compiled{}, err
		}
		scene = translated
	}
	return prompt.Compile(scene, settings, refs), nil
}

// GenerateImage submits the final prompt plus reference images and returns
// the generated image as a data URL.
func (c *Client) GenerateImage(ctx context.Context, finalPromptEn string, refs []studio.ReferenceImage, aspectRatio studio.AspectRatio) (string, error) {
	parts := []part{{Text: finalPromptEn}}
	for _, img := range refs {
		parts = append(parts, part{InlineData: &blob{
			Data:     stripDataURLPrefix(img.DataURL),
			MimeType: img.MimeType,
		}})
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: string(aspectRatio)},
		},
	}

	var url string
	err := c.withRetry(ctx, func(ctx context.Context) error {
		_, images, err := c.generateContent(ctx, c.imageModel, req)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return ErrNoImage
		}
		url = images[0]
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// CorrectPortuguese normalizes PT-BR grammar. Non-critical: on any failure
// or for very short input it returns the text unchanged and never aborts
// the render pipeline.
func (c *Client) CorrectPortuguese(ctx context.Context, text string) string {
	if len([]rune(strings.TrimSpace(text))) < minCorrectionLength {
		return text
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{
			Text: fmt.Sprintf("Corrija estritamente a gramática e ortografia PT-BR do seguinte briefing técnico, mantendo o sentido original: %q", text),
		}}}},
		SystemInstruction: &content{Role: "user", Parts: []part{{
			Text: "Você é um revisor ortográfico PT-BR sênior especializado em marketing.",
		}}},
	}

	var corrected string
	err := c.withRetry(ctx, func(ctx context.Context) error {
		out, _, err := c.generateContent(ctx, c.textModel, req)
		if err != nil {
			return err
		}
		corrected = strings.TrimSpace(out)
		return nil
	})
	if err != nil || corrected == "" {
		c.logger.Debug("grammar correction skipped", "err", err)
		return text
	}
	return corrected
}

// generateContent posts one request and extracts text plus image data URLs
// from the first candidate.
func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (string, []string, error) {
	if c.httpClient == nil {
		return "", nil, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return "", nil, &apiError{status: httpResp.StatusCode, body: strings.TrimSpace(string(rawBody))}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}

	text, images := extractParts(decoded)
	return text, images, nil
}

func extractParts(resp generateContentResponse) (string, []string) {
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var textBuilder strings.Builder
	var images []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" && p.InlineData.MimeType != "" {
			images = append(images, fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data))
		}
	}
	return textBuilder.String(), images
}

func stripDataURLPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}
