package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/prompt"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	waits := &[]time.Duration{}
	client := New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	})
	return client, waits
}

func textResponse(text string) string {
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func imageResponse(mime, data string) string {
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{
						map[string]any{"inlineData": map[string]any{"mimeType": mime, "data": data}},
					},
				},
			},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestRetryOnRateLimitThenSuccess(t *testing.T) {
	var calls atomic.Int32
	client, waits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		fmt.Fprint(w, textResponse(`{"promptEn":"a mug","negativeEn":"blur"}`))
	})

	out, err := client.Translate(context.Background(), "uma caneca", "borrado")
	require.NoError(t, err)
	assert.Equal(t, "a mug", out.PromptEn)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)
}

func TestRetryGivesUpAfterCap(t *testing.T) {
	var calls atomic.Int32
	client, waits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `rate limited`)
	})

	_, err := client.Translate(context.Background(), "texto", "")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load(), "initial attempt plus 3 retries")
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, *waits)
}

func TestNonQuotaErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, waits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"status":"INVALID_ARGUMENT"}}`)
	})

	_, err := client.Translate(context.Background(), "texto", "")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *waits)
}

func TestGenerateCreativePromptsParsesFencedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body := "```json\n" + `[
			{"layout":"Hero shot","promptPt":"caneca na mesa","negativePt":"borrado","highlights":"luz quente"},
			{"layout":"Flat lay","promptPt":"caneca vista de cima","negativePt":"ruído","highlights":"minimalista"}
		]` + "\n```"
		fmt.Fprint(w, textResponse(body))
	})

	form := studio.InitialFormData()
	form.ProductName = "Caneca de madeira"
	form.UserBrief = "caneca artesanal"

	prompts, err := client.GenerateCreativePrompts(context.Background(), form)
	require.NoError(t, err)
	require.Len(t, prompts, 2)
	assert.Equal(t, "Hero shot", prompts[0].Layout)
	assert.Equal(t, "caneca vista de cima", prompts[1].PromptPt)
}

func TestGenerateCreativePromptsRequiresFullVariationCount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse(`[{"layout":"Hero shot","promptPt":"caneca"}]`))
	})

	_, err := client.GenerateCreativePrompts(context.Background(), studio.InitialFormData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 variations, want 2")
}

func TestGenerateCreativePromptsTruncatesExtras(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse(`[
			{"layout":"A","promptPt":"um"},
			{"layout":"B","promptPt":"dois"},
			{"layout":"C","promptPt":"três"}
		]`))
	})

	prompts, err := client.GenerateCreativePrompts(context.Background(), studio.InitialFormData())
	require.NoError(t, err)
	require.Len(t, prompts, 2)
	assert.Equal(t, "A", prompts[0].Layout)
	assert.Equal(t, "B", prompts[1].Layout)
}

func TestGenerateCreativePromptsFailsOnMalformedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse("here are some ideas for you!"))
	})

	_, err := client.GenerateCreativePrompts(context.Background(), studio.InitialFormData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse creative prompts")
}

func TestGenerateImageReturnsDataURL(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig.ImageConfig)
		assert.Equal(t, "9:16", req.GenerationConfig.ImageConfig.AspectRatio)
		fmt.Fprint(w, imageResponse("image/png", "aW1hZ2U="))
	})

	url, err := client.GenerateImage(context.Background(), "a wooden mug", nil, studio.RatioStories)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aW1hZ2U=", url)
}

func TestGenerateImageNoImagePart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse("I cannot generate that."))
	})

	_, err := client.GenerateImage(context.Background(), "a wooden mug", nil, studio.RatioSquare)
	require.ErrorIs(t, err, ErrNoImage)
}

func TestPrepareTechnicalPromptUsesOverride(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, textResponse(`{"promptEn":"should not be used","negativeEn":""}`))
	})

	override := &prompt.Translation{PromptEn: "a carved mug", NegativeEn: "blur"}
	out, err := client.PrepareTechnicalPrompt(context.Background(), "caneca", "borrado",
		studio.CreationSettings{Tone: studio.ToneSales}, nil, override)
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load(), "override must skip the translation call")
	assert.Contains(t, out.FinalPromptEn, "[SCENE]: a carved mug")
}

func TestCorrectPortugueseBestEffort(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse("caneca de madeira artesanal"))
	})

	got := client.CorrectPortuguese(context.Background(), "canca de madera artesanal")
	assert.Equal(t, "caneca de madeira artesanal", got)

	// Short input skips the provider entirely.
	assert.Equal(t, "ok", client.CorrectPortuguese(context.Background(), "ok"))

	// Failures fall back to the input.
	failing, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Equal(t, "texto original", failing.CorrectPortuguese(context.Background(), "texto original"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
