package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/gemini"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/store"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

type fakeGenerator struct {
	prompts []studio.GeneratedPrompt
	brief   gemini.Brief
	err     error
}

func (f *fakeGenerator) GenerateCreativePrompts(context.Context, studio.FormData) ([]studio.GeneratedPrompt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prompts, nil
}

func (f *fakeGenerator) GenerateStructuredBrief(context.Context, studio.FormData) (gemini.Brief, error) {
	if f.err != nil {
		return gemini.Brief{}, f.err
	}
	return f.brief, nil
}

type fixture struct {
	session *studio.Session
	store   *store.Store
	gen     *fakeGenerator
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	session := studio.NewSession(studio.InitialFormData())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	saver := store.NewSaver(logger, 10*time.Millisecond, 10*time.Millisecond,
		func() error { return st.SaveDraft(session.Draft()) },
		func() error { return st.SaveGallery(session.Items()) },
	)
	t.Cleanup(saver.Stop)

	gen := &fakeGenerator{
		prompts: []studio.GeneratedPrompt{
			{Layout: "Hero shot", PromptPt: "caneca na mesa"},
			{Layout: "Flat lay", PromptPt: "caneca de cima"},
		},
		brief: gemini.Brief{BriefPt: "briefing final", CopyTitle: "Título"},
	}

	srv := New(Options{
		Session:   session,
		Store:     st,
		Saver:     saver,
		Generator: gen,
		Logger:    logger,
	})
	return &fixture{session: session, store: st, gen: gen, handler: srv.Routes()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDraftEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/draft", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[studio.FormData](t, rec)
	assert.Equal(t, studio.ObjectiveCatalog, draft.Objective)

	draft.ProductName = "Caneca de madeira"
	rec = f.do(t, http.MethodPut, "/api/draft", draft)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Caneca de madeira", f.session.Draft().ProductName)

	rec = f.do(t, http.MethodPost, "/api/draft/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.session.Draft().ProductName)
}

func TestGenerateBriefUpdatesDraft(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/draft/brief", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	draft := f.session.Draft()
	assert.Equal(t, "briefing final", draft.FinalBriefPt)
	assert.Equal(t, studio.BriefingAuto, draft.BriefingStatus)
	assert.Equal(t, "Título", draft.SocialCopyTitle)
}

func TestGenerateCreatesItems(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/generate", map[string]bool{"render": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[[]studio.GalleryItem](t, rec)
	require.Len(t, created, 2)
	for _, it := range created {
		assert.Equal(t, studio.StatusQueued, it.Status)
	}

	rec = f.do(t, http.MethodPost, "/api/generate", map[string]bool{"render": false})
	require.Equal(t, http.StatusCreated, rec.Code)
	created = decode[[]studio.GalleryItem](t, rec)
	for _, it := range created {
		assert.Equal(t, studio.StatusDraft, it.Status)
	}

	rec = f.do(t, http.MethodGet, "/api/gallery", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]studio.GalleryItem](t, rec)
	assert.Len(t, items, 4)
}

func TestGenerateSurfacesProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("quota exhausted")

	rec := f.do(t, http.MethodPost, "/api/generate", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, f.session.Items())
}

func TestPatchItemRules(t *testing.T) {
	f := newFixture(t)
	created := f.session.CreateBatch([]studio.GeneratedPrompt{{Layout: "A"}, {Layout: "B"}}, true)

	rendering := f.session.PromoteNext()
	require.NotNil(t, rendering)

	rec := f.do(t, http.MethodPatch, "/api/items/"+rendering.ID, map[string]string{"label": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var idle string
	for _, it := range created {
		if it.ID != rendering.ID {
			idle = it.ID
		}
	}
	rec = f.do(t, http.MethodPatch, "/api/items/"+idle, map[string]any{
		"aspectRatio": "9:16",
		"rotation":    180,
		"promptPt":    "caneca rotacionada",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[studio.GalleryItem](t, rec)
	assert.Equal(t, studio.RatioStories, item.AspectRatio)
	assert.Equal(t, studio.Rotation(180), item.Rotation)
	assert.Equal(t, "caneca rotacionada", item.Data.PromptPt)
	assert.True(t, item.IsEdited)

	rec = f.do(t, http.MethodPatch, "/api/items/missing", map[string]string{"label": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueueEndpoints(t *testing.T) {
	f := newFixture(t)
	created := f.session.CreateBatch([]studio.GeneratedPrompt{{Layout: "A"}, {Layout: "B"}}, false)

	rec := f.do(t, http.MethodPost, "/api/items/"+created[0].ID+"/queue", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/queue/flush", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	flushed := decode[map[string]int](t, rec)
	assert.Equal(t, 1, flushed["queued"], "only the remaining draft item")

	assert.Equal(t, 2, f.session.QueuedCount())
}

func TestReferenceEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/references", studio.ReferenceImage{
		DataURL: "data:image/png;base64,aQ==", MimeType: "image/png", FileName: "caneca.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	refs := decode[[]studio.ReferenceImage](t, rec)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsHero)

	rec = f.do(t, http.MethodPost, "/api/references", studio.ReferenceImage{
		DataURL: "data:image/png;base64,Yg==", MimeType: "image/png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	refs = decode[[]studio.ReferenceImage](t, rec)
	require.Len(t, refs, 2)
	assert.False(t, refs[1].IsHero)

	rec = f.do(t, http.MethodPost, "/api/references/"+refs[1].ID+"/hero", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refs = decode[[]studio.ReferenceImage](t, rec)
	assert.False(t, refs[0].IsHero)
	assert.True(t, refs[1].IsHero)

	rec = f.do(t, http.MethodDelete, "/api/references/"+refs[1].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refs = decode[[]studio.ReferenceImage](t, rec)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsHero, "survivor is promoted")

	rec = f.do(t, http.MethodPost, "/api/references", studio.ReferenceImage{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresetEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decode[[]studio.Preset](t, rec)
	assert.Len(t, presets, len(studio.SystemPresets()))

	rec = f.do(t, http.MethodPost, "/api/presets", map[string]string{
		"name": "Meu preset", "description": "config atual",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[studio.Preset](t, rec)
	assert.False(t, created.IsSystem)

	rec = f.do(t, http.MethodDelete, "/api/presets/"+studio.SystemPresets()[0].ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/presets/"+created.ID+"/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/presets/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestApplySystemPresetMutatesDraft(t *testing.T) {
	f := newFixture(t)

	var social studio.Preset
	for _, p := range studio.SystemPresets() {
		if p.Mode == studio.ObjectiveSocial {
			social = p
			break
		}
	}
	require.NotEmpty(t, social.ID)

	rec := f.do(t, http.MethodPost, "/api/presets/"+social.ID+"/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studio.ObjectiveSocial, f.session.Draft().Objective)
}

func TestBackupRoundTripOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.session.UpdateDraft(func(form *studio.FormData) {
		form.ProductName = "Caneca de madeira"
	})

	rec := f.do(t, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.Bytes()

	// Wipe the draft, then import the backup.
	f.do(t, http.MethodPost, "/api/draft/reset", nil)
	require.Empty(t, f.session.Draft().ProductName)

	req := httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader(exported))
	importRec := httptest.NewRecorder()
	f.handler.ServeHTTP(importRec, req)
	require.Equal(t, http.StatusOK, importRec.Code)

	assert.Equal(t, "Caneca de madeira", f.session.Draft().ProductName)
}

func TestAmbienceEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/ambiences", studio.Ambience{
		Title: "Cafeteria", Description: "mesa de madeira rústica",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[studio.Ambience](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsCustom)

	draft := f.session.Draft()
	require.Len(t, draft.CustomAmbiences, 1)

	rec = f.do(t, http.MethodGet, "/api/ambiences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]studio.Ambience](t, rec)
	require.Len(t, list, 1)

	rec = f.do(t, http.MethodDelete, "/api/ambiences/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.session.Draft().CustomAmbiences)

	rec = f.do(t, http.MethodPost, "/api/ambiences", studio.Ambience{Title: "sem descrição"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
