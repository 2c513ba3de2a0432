// Package server exposes the studio over an HTTP/JSON API. It is a thin
// translation layer: all domain rules live in the session, the queue
// controller, and the generation client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/backup"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/gemini"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/store"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

// Generator is the slice of the generation client the API needs directly.
// Rendering goes through the queue controller, not through here.
type Generator interface {
	GenerateCreativePrompts(ctx context.Context, form studio.FormData) ([]studio.GeneratedPrompt, error)
	GenerateStructuredBrief(ctx context.Context, form studio.FormData) (gemini.Brief, error)
}

// Options configures a Server.
type Options struct {
	Session   *studio.Session
	Store     *store.Store
	Saver     *store.Saver
	Generator Generator
	Logger    *slog.Logger

	// MetricsHandler serves GET /metrics, typically promhttp.
	MetricsHandler http.Handler
}

// Notice is one user-facing event, kept in a bounded in-memory buffer.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	At      string `json:"at"`
}

const maxNotices = 50

// Server is the HTTP API surface.
type Server struct {
	session *studio.Session
	store   *store.Store
	saver   *store.Saver
	gen     Generator
	logger  *slog.Logger
	metrics http.Handler

	notices *noticeBuffer
}

// New creates a server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		session: opts.Session,
		store:   opts.Store,
		saver:   opts.Saver,
		gen:     opts.Generator,
		logger:  logger,
		metrics: opts.MetricsHandler,
		notices: newNoticeBuffer(maxNotices),
	}
}

// Notify publishes a user-facing notice. Safe for concurrent use; the
// queue controller calls it from render goroutines.
func (s *Server) Notify(level, message string) {
	s.notices.add(Notice{
		Level:   level,
		Message: message,
		At:      time.Now().UTC().Format(time.RFC3339),
	})
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/draft", s.handleGetDraft)
	mux.HandleFunc("PUT /api/draft", s.handlePutDraft)
	mux.HandleFunc("POST /api/draft/reset", s.handleResetDraft)
	mux.HandleFunc("POST /api/draft/brief", s.handleGenerateBrief)

	mux.HandleFunc("POST /api/generate", s.handleGenerate)

	mux.HandleFunc("GET /api/gallery", s.handleGetGallery)
	mux.HandleFunc("DELETE /api/gallery", s.handleClearGallery)

	mux.HandleFunc("PATCH /api/items/{id}", s.handlePatchItem)
	mux.HandleFunc("POST /api/items/{id}/regenerate", s.handleRegenerate)
	mux.HandleFunc("POST /api/items/{id}/queue", s.handleQueueItem)
	mux.HandleFunc("POST /api/queue/flush", s.handleQueueFlush)

	mux.HandleFunc("GET /api/references", s.handleGetReferences)
	mux.HandleFunc("POST /api/references", s.handleAddReference)
	mux.HandleFunc("POST /api/references/{id}/hero", s.handleSetHero)
	mux.HandleFunc("DELETE /api/references/{id}", s.handleRemoveReference)

	mux.HandleFunc("GET /api/ambiences", s.handleListAmbiences)
	mux.HandleFunc("POST /api/ambiences", s.handleCreateAmbience)
	mux.HandleFunc("DELETE /api/ambiences/{id}", s.handleDeleteAmbience)

	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/presets", s.handleCreatePreset)
	mux.HandleFunc("DELETE /api/presets/{id}", s.handleDeletePreset)
	mux.HandleFunc("POST /api/presets/{id}/apply", s.handleApplyPreset)

	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)

	mux.HandleFunc("GET /api/backup", s.handleExportBackup)
	mux.HandleFunc("POST /api/backup", s.handleImportBackup)

	mux.HandleFunc("GET /api/notices", s.handleGetNotices)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Draft handlers.

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Draft())
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	var form studio.FormData
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode draft: %w", err))
		return
	}
	s.session.ReplaceDraft(form)
	s.saver.DraftChanged()
	writeJSON(w, http.StatusOK, s.session.Draft())
}

func (s *Server) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	draft := s.session.ResetDraft()
	s.saver.DraftChanged()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleGenerateBrief(w http.ResponseWriter, r *http.Request) {
	brief, err := s.gen.GenerateStructuredBrief(r.Context(), s.session.Draft())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	draft := s.session.UpdateDraft(func(f *studio.FormData) {
		f.FinalBriefPt = brief.BriefPt
		f.BriefingStatus = studio.BriefingAuto
		if brief.CopyTitle != "" {
			f.SocialCopyTitle = brief.CopyTitle
		}
		if brief.CopySubtitle != "" {
			f.SocialCopySubtitle = brief.CopySubtitle
		}
		if brief.CopyOffer != "" {
			f.SocialCopyOffer = brief.CopyOffer
		}
	})
	s.saver.DraftChanged()
	writeJSON(w, http.StatusOK, draft)
}

// Generation and gallery handlers.

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Render bool `json:"render"`
	}
	if r.Body != nil {
		// An empty body means create as drafts.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	prompts, err := s.gen.GenerateCreativePrompts(r.Context(), s.session.Draft())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	created := s.session.CreateBatch(prompts, req.Render)
	s.saver.GalleryChanged()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetGallery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Items())
}

func (s *Server) handleClearGallery(w http.ResponseWriter, r *http.Request) {
	s.session.ClearItems()
	s.saver.GalleryChanged()
	w.WriteHeader(http.StatusNoContent)
}

// itemPatch is the set of fields a user may edit on an existing item.
// Pointers distinguish "absent" from "set to zero".
type itemPatch struct {
	PromptPt     *string             `json:"promptPt,omitempty"`
	NegativePt   *string             `json:"negativePt,omitempty"`
	AspectRatio  *studio.AspectRatio `json:"aspectRatio,omitempty"`
	Rotation     *studio.Rotation    `json:"rotation,omitempty"`
	Label        *string             `json:"label,omitempty"`
	CopyTitle    *string             `json:"copyTitle,omitempty"`
	CopySubtitle *string             `json:"copySubtitle,omitempty"`
	CopyOffer    *string             `json:"copyOffer,omitempty"`
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	var patch itemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode patch: %w", err))
		return
	}

	item, err := s.session.UpdateItem(r.PathValue("id"), func(it *studio.GalleryItem) {
		if patch.PromptPt != nil {
			it.Data.PromptPt = *patch.PromptPt
		}
		if patch.NegativePt != nil {
			it.Data.NegativePt = *patch.NegativePt
		}
		if patch.AspectRatio != nil {
			it.AspectRatio = *patch.AspectRatio
		}
		if patch.Rotation != nil {
			it.Rotation = *patch.Rotation
		}
		if patch.Label != nil {
			it.Label = *patch.Label
		}
		if patch.CopyTitle != nil {
			it.Data.CopyTitle = *patch.CopyTitle
		}
		if patch.CopySubtitle != nil {
			it.Data.CopySubtitle = *patch.CopySubtitle
		}
		if patch.CopyOffer != nil {
			it.Data.CopyOffer = *patch.CopyOffer
		}
	})
	if err != nil {
		writeItemError(w, err)
		return
	}
	s.saver.GalleryChanged()
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	item, err := s.session.RegenerateAsLayer(r.PathValue("id"))
	if err != nil {
		writeItemError(w, err)
		return
	}
	s.saver.GalleryChanged()
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	if err := s.session.QueueItem(r.PathValue("id")); err != nil {
		writeItemError(w, err)
		return
	}
	s.saver.GalleryChanged()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleQueueFlush(w http.ResponseWriter, r *http.Request) {
	n := s.session.QueueAllPending()
	if n > 0 {
		s.saver.GalleryChanged()
	}
	writeJSON(w, http.StatusOK, map[string]int{"queued": n})
}

// Reference image handlers.

func (s *Server) handleGetReferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Draft().ReferenceImages)
}

func (s *Server) handleAddReference(w http.ResponseWriter, r *http.Request) {
	var img studio.ReferenceImage
	if err := json.NewDecoder(r.Body).Decode(&img); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode reference: %w", err))
		return
	}
	if strings.TrimSpace(img.DataURL) == "" {
		writeError(w, http.StatusBadRequest, errors.New("dataUrl is required"))
		return
	}
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	draft := s.session.UpdateDraft(func(f *studio.FormData) {
		f.ReferenceImages = studio.AddReference(f.ReferenceImages, img)
		f.UseRefImages = true
	})
	s.saver.DraftChanged()
	writeJSON(w, http.StatusCreated, draft.ReferenceImages)
}

func (s *Server) handleSetHero(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	found := false
	draft := s.session.UpdateDraft(func(f *studio.FormData) {
		for _, img := range f.ReferenceImages {
			if img.ID == id {
				found = true
				break
			}
		}
		if found {
			f.ReferenceImages = studio.SetHero(f.ReferenceImages, id)
		}
	})
	if !found {
		writeError(w, http.StatusNotFound, errors.New("reference image not found"))
		return
	}
	s.saver.DraftChanged()
	writeJSON(w, http.StatusOK, draft.ReferenceImages)
}

func (s *Server) handleRemoveReference(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft := s.session.UpdateDraft(func(f *studio.FormData) {
		f.ReferenceImages = studio.RemoveReference(f.ReferenceImages, id)
		if len(f.ReferenceImages) == 0 {
			f.UseRefImages = false
		}
	})
	s.saver.DraftChanged()
	writeJSON(w, http.StatusOK, draft.ReferenceImages)
}

// Ambience handlers.

func (s *Server) handleListAmbiences(w http.ResponseWriter, r *http.Request) {
	ambiences, err := s.store.ListAmbiences()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ambiences)
}

func (s *Server) handleCreateAmbience(w http.ResponseWriter, r *http.Request) {
	var amb studio.Ambience
	if err := json.NewDecoder(r.Body).Decode(&amb); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode ambience: %w", err))
		return
	}
	if strings.TrimSpace(amb.Title) == "" || strings.TrimSpace(amb.Description) == "" {
		writeError(w, http.StatusBadRequest, errors.New("title and description are required"))
		return
	}
	if amb.ID == "" {
		amb.ID = uuid.NewString()
	}
	amb.IsCustom = true
	if err := s.store.SaveAmbience(amb); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.session.UpdateDraft(func(f *studio.FormData) {
		f.CustomAmbiences = upsertAmbience(f.CustomAmbiences, amb)
	})
	s.saver.DraftChanged()
	writeJSON(w, http.StatusCreated, amb)
}

func (s *Server) handleDeleteAmbience(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteAmbience(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.session.UpdateDraft(func(f *studio.FormData) {
		out := f.CustomAmbiences[:0]
		for _, a := range f.CustomAmbiences {
			if a.ID != id {
				out = append(out, a)
			}
		}
		f.CustomAmbiences = out
		if f.SelectedAmbienceID == id {
			f.SelectedAmbienceID = ""
		}
	})
	s.saver.DraftChanged()
	w.WriteHeader(http.StatusNoContent)
}

func upsertAmbience(list []studio.Ambience, amb studio.Ambience) []studio.Ambience {
	for i := range list {
		if list[i].ID == amb.ID {
			list[i] = amb
			return list
		}
	}
	return append(list, amb)
}

// Preset handlers.

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.ListPresets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, append(studio.SystemPresets(), user...))
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode preset: %w", err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	preset := studio.PresetFromForm(s.session.Draft(), uuid.NewString(), req.Name, req.Description)
	if err := s.store.SavePreset(preset); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, sys := range studio.SystemPresets() {
		if sys.ID == id {
			writeError(w, http.StatusForbidden, errors.New("system presets cannot be deleted"))
			return
		}
	}
	if err := s.store.DeletePreset(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	preset, err := s.findPreset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	draft := s.session.Draft()
	s.session.ReplaceDraft(preset.ApplyToForm(draft))
	s.saver.DraftChanged()
	writeJSON(w, http.StatusOK, s.session.Draft())
}

func (s *Server) findPreset(id string) (studio.Preset, error) {
	for _, sys := range studio.SystemPresets() {
		if sys.ID == id {
			return sys, nil
		}
	}
	user, err := s.store.ListPresets()
	if err != nil {
		return studio.Preset{}, err
	}
	for _, p := range user {
		if p.ID == id {
			return p, nil
		}
	}
	return studio.Preset{}, errors.New("preset not found")
}

// History handlers.

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListHistory()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearHistory(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backup handlers.

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	draft := s.session.Draft()
	payload, err := backup.Export(s.store, &draft)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="estudio-backup.json"`)
	if err := payload.WriteTo(w); err != nil {
		s.logger.Warn("backup export write failed", "err", err)
	}
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	payload, err := backup.Parse(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := backup.Apply(s.store, payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if draft != nil {
		s.session.ReplaceDraft(*draft)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"presets":   len(payload.Presets),
		"ambiences": len(payload.Ambiences),
		"history":   len(payload.History),
		"draft":     draft != nil,
	})
}

// Notices and health.

func (s *Server) handleGetNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notices.list())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers.

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studio.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, studio.ErrItemRendering):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
