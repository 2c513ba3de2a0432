package studio

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrItemNotFound is returned when an item id is unknown.
var ErrItemNotFound = errors.New("gallery item not found")

// ErrItemRendering is returned for edits attempted while an item renders.
var ErrItemRendering = errors.New("item is rendering")

// RenderResult carries the terminal write-back of a successful render.
type RenderResult struct {
	ImageURL      string
	PromptPt      string
	NegativePt    string
	PromptEn      string
	NegativeEn    string
	FinalPromptEn string
}

// Session is the explicit context object owning the draft, the gallery item
// list, and the active-render set. All mutation goes through its methods;
// every mutation notifies subscribers so the queue controller and the
// persistence debouncer can react without polling.
type Session struct {
	mu     sync.Mutex
	draft  FormData
	items  []GalleryItem
	active map[string]struct{}

	listeners []func()
}

// NewSession creates a session around the given draft.
func NewSession(draft FormData) *Session {
	return &Session{
		draft:  draft.Clone(),
		active: make(map[string]struct{}),
	}
}

// Subscribe registers a change listener. Listeners are invoked after every
// mutation, outside the session lock, and must be non-blocking.
func (s *Session) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Draft returns a deep copy of the current draft.
func (s *Session) Draft() FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// UpdateDraft applies a mutation to the draft.
func (s *Session) UpdateDraft(mutate func(*FormData)) FormData {
	s.mu.Lock()
	mutate(&s.draft)
	out := s.draft.Clone()
	s.mu.Unlock()
	s.notify()
	return out
}

// ReplaceDraft swaps the draft wholesale (reset or backup import).
func (s *Session) ReplaceDraft(draft FormData) {
	s.mu.Lock()
	s.draft = draft.Clone()
	s.mu.Unlock()
	s.notify()
}

// ResetDraft starts a new product: everything returns to the initial state
// except the durable custom ambiences.
func (s *Session) ResetDraft() FormData {
	s.mu.Lock()
	ambiences := append([]Ambience(nil), s.draft.CustomAmbiences...)
	s.draft = InitialFormData()
	s.draft.CustomAmbiences = ambiences
	out := s.draft.Clone()
	s.mu.Unlock()
	s.notify()
	return out
}

// Items returns a deep copy of the gallery, newest first.
func (s *Session) Items() []GalleryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GalleryItem, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// ReplaceItems loads a persisted gallery into the session. Items stuck in
// transient states from a previous run fall back to queued so the
// controller can pick them up again.
func (s *Session) ReplaceItems(items []GalleryItem) {
	s.mu.Lock()
	s.items = make([]GalleryItem, len(items))
	for i, it := range items {
		loaded := it.Clone()
		if loaded.Status == StatusRendering {
			loaded.Status = StatusQueued
		}
		s.items[i] = loaded
	}
	s.mu.Unlock()
	s.notify()
}

// ItemByID returns a deep copy of one item.
func (s *Session) ItemByID(id string) (GalleryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it.Clone(), nil
		}
	}
	return GalleryItem{}, ErrItemNotFound
}

// CreateBatch turns creative variations into gallery items inserted at the
// head of the list, preserving the relative order of the API response. Each
// item gets its own deep-copied settings snapshot taken from the draft at
// this instant. renderNow decides between queued and draft.
func (s *Session) CreateBatch(prompts []GeneratedPrompt, renderNow bool) []GalleryItem {
	s.mu.Lock()
	now := time.Now().UnixMilli()
	status := StatusDraft
	if renderNow {
		status = StatusQueued
	}

	var ambienceDesc string
	if amb := s.draft.ActiveAmbience(); amb != nil {
		ambienceDesc = amb.Description
	}

	created := make([]GalleryItem, 0, len(prompts))
	for _, p := range prompts {
		item := GalleryItem{
			ID:              uuid.NewString(),
			Timestamp:       now,
			Data:            p,
			ReferenceImages: append([]ReferenceImage(nil), s.draft.ReferenceImages...),
			AspectRatio:     s.draft.DefaultAspectRatio,
			Rotation:        s.draft.DefaultRotation,
			Status:          status,
			CreationSettings: CreationSettings{
				Objective:             s.draft.Objective,
				Background:            s.draft.Background,
				CatalogBackground:     s.draft.CatalogBackground,
				Shadow:                s.draft.Shadow,
				Angle:                 s.draft.Angle,
				Props:                 append([]string(nil), s.draft.Props...),
				CustomProps:           s.draft.CustomProps,
				PropsEnabled:          len(s.draft.Props) > 0,
				LockProduct:           s.draft.LockProduct,
				AmbienceDescription:   ambienceDesc,
				Tone:                  s.draft.Tone,
				TextPresence:          s.draft.TextPresence,
				CustomPersonalization: s.draft.CustomPersonalization,
				MarketingDirection:    s.draft.MarketingDirection,
			},
		}
		created = append(created, item)
	}

	s.items = append(append([]GalleryItem(nil), created...), s.items...)
	s.mu.Unlock()
	s.notify()
	return created
}

// RegenerateAsLayer clones a completed or errored item into a fresh queued
// item that reuses the prior prompt and settings. The flag makes the render
// pipeline reuse the existing translation instead of re-paying it.
func (s *Session) RegenerateAsLayer(id string) (GalleryItem, error) {
	s.mu.Lock()
	var src *GalleryItem
	for i := range s.items {
		if s.items[i].ID == id {
			src = &s.items[i]
			break
		}
	}
	if src == nil {
		s.mu.Unlock()
		return GalleryItem{}, ErrItemNotFound
	}
	if src.Status == StatusRendering {
		s.mu.Unlock()
		return GalleryItem{}, ErrItemRendering
	}

	clone := src.Clone()
	clone.ID = uuid.NewString()
	clone.Timestamp = time.Now().UnixMilli()
	clone.IsRegenerated = true
	clone.Status = StatusQueued
	clone.ImageURL = ""

	s.items = append([]GalleryItem{clone}, s.items...)
	s.mu.Unlock()
	s.notify()
	return clone.Clone(), nil
}

// UpdateItem applies a user edit to an item that is not actively rendering.
// Status and the settings snapshot are off-limits here.
func (s *Session) UpdateItem(id string, mutate func(*GalleryItem)) (GalleryItem, error) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Status == StatusRendering {
			s.mu.Unlock()
			return GalleryItem{}, ErrItemRendering
		}
		status := s.items[i].Status
		snapshot := s.items[i].CreationSettings
		mutate(&s.items[i])
		s.items[i].Status = status
		s.items[i].CreationSettings = snapshot
		s.items[i].IsEdited = true
		out := s.items[i].Clone()
		s.mu.Unlock()
		s.notify()
		return out, nil
	}
	s.mu.Unlock()
	return GalleryItem{}, ErrItemNotFound
}

// QueueItem moves one draft or errored item into the queue.
func (s *Session) QueueItem(id string) error {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if !s.items[i].Status.CanTransitionTo(StatusQueued) {
			s.mu.Unlock()
			return ErrItemRendering
		}
		s.items[i].Status = StatusQueued
		s.mu.Unlock()
		s.notify()
		return nil
	}
	s.mu.Unlock()
	return ErrItemNotFound
}

// QueueAllPending flushes every draft and errored item into the queue in
// one batch and returns how many were touched.
func (s *Session) QueueAllPending() int {
	s.mu.Lock()
	n := 0
	for i := range s.items {
		if s.items[i].Status == StatusDraft || s.items[i].Status == StatusError {
			s.items[i].Status = StatusQueued
			n++
		}
	}
	s.mu.Unlock()
	if n > 0 {
		s.notify()
	}
	return n
}

// ClearItems empties the gallery. Irreversible.
func (s *Session) ClearItems() {
	s.mu.Lock()
	s.items = nil
	s.active = make(map[string]struct{})
	s.mu.Unlock()
	s.notify()
}

// PromoteNext finds the first queued item (list order, newest first) that
// is not already rendering, marks it rendering, adds it to the active set,
// and returns a deep copy. Safe to call redundantly: it returns nil when no
// eligible item exists. Concurrency ceiling enforcement belongs to the
// caller.
func (s *Session) PromoteNext() *GalleryItem {
	s.mu.Lock()
	for i := range s.items {
		it := &s.items[i]
		if it.Status != StatusQueued {
			continue
		}
		if _, busy := s.active[it.ID]; busy {
			continue
		}
		it.Status = StatusRendering
		s.active[it.ID] = struct{}{}
		out := it.Clone()
		s.mu.Unlock()
		s.notify()
		return &out
	}
	s.mu.Unlock()
	return nil
}

// FinishRender is the terminal write-back of the render pipeline. A nil
// result marks the item as errored; otherwise the image handle and the
// refined prompt text land on the item. The id always leaves the active set
// so the next scan can promote another item.
func (s *Session) FinishRender(id string, result *RenderResult) {
	s.mu.Lock()
	delete(s.active, id)
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Status != StatusRendering {
			break
		}
		if result == nil {
			s.items[i].Status = StatusError
			break
		}
		s.items[i].Status = StatusCompleted
		s.items[i].ImageURL = result.ImageURL
		if result.PromptPt != "" {
			s.items[i].Data.PromptPt = result.PromptPt
		}
		if result.NegativePt != "" {
			s.items[i].Data.NegativePt = result.NegativePt
		}
		s.items[i].Data.PromptEn = result.PromptEn
		s.items[i].Data.NegativeEn = result.NegativeEn
		s.items[i].Data.FinalPromptEn = result.FinalPromptEn
		break
	}
	s.mu.Unlock()
	s.notify()
}

// ActiveCount reports how many renders are in flight.
func (s *Session) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// QueuedCount reports how many items wait in the queue.
func (s *Session) QueuedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.Status == StatusQueued {
			n++
		}
	}
	return n
}
