package backup

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/store"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestExportImportRoundTrip(t *testing.T) {
	src := openTestStore(t)

	preset := studio.PresetFromForm(studio.InitialFormData(), "p1", "Catálogo ML", "fundo branco")
	require.NoError(t, src.SavePreset(preset))
	require.NoError(t, src.SaveAmbience(studio.Ambience{
		ID: "a1", Title: "Cafeteria", Description: "mesa rústica", IsCustom: true,
	}))
	require.NoError(t, src.AppendHistory(studio.HistoryMetadata{
		ID: "h1", ProductName: "Caneca", PromptFinalEn: "[SCENE]: a mug",
	}))

	draft := studio.InitialFormData()
	draft.ProductName = "Caneca de madeira"
	draft.ReferenceImages = []studio.ReferenceImage{
		{ID: "r1", DataURL: "data:image/png;base64,aQ==", IsHero: true},
	}

	payload, err := Export(src, &draft)
	require.NoError(t, err)
	assert.Equal(t, Version, payload.Version)
	assert.NotEmpty(t, payload.ExportedAt)

	var buf bytes.Buffer
	require.NoError(t, payload.WriteTo(&buf))

	parsed, err := Parse(&buf)
	require.NoError(t, err)

	dst := openTestStore(t)
	importedDraft, err := Apply(dst, parsed)
	require.NoError(t, err)
	require.NotNil(t, importedDraft)
	assert.Equal(t, "Caneca de madeira", importedDraft.ProductName)
	require.Len(t, importedDraft.ReferenceImages, 1)
	assert.True(t, importedDraft.ReferenceImages[0].IsHero)

	presets, err := dst.ListPresets()
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "p1", presets[0].ID)
	assert.Equal(t, "Catálogo ML", presets[0].Name)

	ambiences, err := dst.ListAmbiences()
	require.NoError(t, err)
	require.Len(t, ambiences, 1)
	assert.Equal(t, "a1", ambiences[0].ID)

	history, err := dst.ListHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "h1", history[0].ID)

	stored, err := dst.LoadDraft()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Caneca de madeira", stored.ProductName)
}

func TestExportSkipsSystemPresets(t *testing.T) {
	st := openTestStore(t)
	payload, err := Export(st, nil)
	require.NoError(t, err)
	assert.Empty(t, payload.Presets, "system presets are rebuilt from code, never exported")
	assert.Nil(t, payload.CurrentDraft)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse(strings.NewReader(`not json at all`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode backup")
}

func TestImportVersionlessDocumentRestoresSections(t *testing.T) {
	st := openTestStore(t)

	payload, err := Parse(strings.NewReader(
		`{"presets":[],"ambiences":[{"id":"a1","title":"Cozinha","description":"bancada rústica"}],"history":[]}`,
	))
	require.NoError(t, err, "a versionless backup carrying restorable sections must not be rejected")
	assert.Empty(t, payload.Version)

	_, err = Apply(st, payload)
	require.NoError(t, err)

	ambiences, err := st.ListAmbiences()
	require.NoError(t, err)
	require.Len(t, ambiences, 1)
	assert.Equal(t, "a1", ambiences[0].ID)
	assert.True(t, ambiences[0].IsCustom)
}

func TestImportToleratesMissingSections(t *testing.T) {
	st := openTestStore(t)
	payload, err := Parse(strings.NewReader(`{"version":"3.0"}`))
	require.NoError(t, err, "legacy versions with missing arrays are accepted")

	draft, err := Apply(st, payload)
	require.NoError(t, err)
	assert.Nil(t, draft)

	presets, err := st.ListPresets()
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestApplySkipsSystemPresetsInDocument(t *testing.T) {
	st := openTestStore(t)
	sys := studio.SystemPresets()[0]
	payload := Payload{Version: Version, Presets: []studio.Preset{sys}}

	_, err := Apply(st, payload)
	require.NoError(t, err)

	presets, err := st.ListPresets()
	require.NoError(t, err)
	assert.Empty(t, presets)
}
