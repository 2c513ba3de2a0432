// Package studio holds the data model of the product-photography studio:
// the session draft, reference images, gallery items and their render
// state machine, and the lightweight history log.
package studio

import "time"

// Objective selects the commercial goal of a render.
type Objective string

const (
	ObjectiveCatalog Objective = "Catálogo"
	ObjectiveSocial  Objective = "Post Social"
)

// ArtStyle is the broad art direction of the creative brief.
type ArtStyle string

const (
	StyleMinimalist ArtStyle = "MINIMALIST"
	StyleBold       ArtStyle = "BOLD"
	StylePromo      ArtStyle = "PROMO"
	StyleHighlight  ArtStyle = "HIGHLIGHT"
	StyleScene      ArtStyle = "SCENE"
)

// MarketingTone drives the style block of the technical prompt.
type MarketingTone string

const (
	ToneAttention     MarketingTone = "Chamativo"
	ToneCreative      MarketingTone = "Criativo"
	ToneSales         MarketingTone = "Vendas"
	TonePromotional   MarketingTone = "Promocional"
	ToneMinimalist    MarketingTone = "Minimalista"
	ToneInstitutional MarketingTone = "Institucional"
	ToneEmotional     MarketingTone = "Emocional"
)

// TextPresence describes how much overlay text the final art should carry.
type TextPresence string

const (
	TextLarge   TextPresence = "Texto grande"
	TextMedium  TextPresence = "Texto médio"
	TextSmall   TextPresence = "Texto pequeno"
	TextMinimal TextPresence = "Texto mínimo"
	TextNone    TextPresence = "Sem texto"
)

// CameraAngle keys the camera block lookup table.
type CameraAngle string

const (
	AngleFront         CameraAngle = "Frente"
	AngleThreeQuarters CameraAngle = "3/4"
	AngleTop           CameraAngle = "Topo"
)

// ShadowType keys the lighting block lookup table.
type ShadowType string

const (
	ShadowContact ShadowType = "Contato"
	ShadowSoft    ShadowType = "Suave"
	ShadowMedium  ShadowType = "Média"
	ShadowStrong  ShadowType = "Forte"
	ShadowNone    ShadowType = "Nenhuma"
)

// BackgroundType is the generic background choice for social renders.
type BackgroundType string

const (
	BackgroundWhite        BackgroundType = "Branco puro"
	BackgroundGrey         BackgroundType = "Cinza studio"
	BackgroundOffWhite     BackgroundType = "Off-white quente"
	BackgroundMarble       BackgroundType = "Mármore claro"
	BackgroundBlackPremium BackgroundType = "Preto premium"
	BackgroundSceneContext BackgroundType = "Cena contextualizada"
)

// CatalogBackground is the explicit background choice in catalog mode. It
// wins over ambience and generic background when the objective is Catalog.
type CatalogBackground string

const (
	CatalogBackgroundPureWhite CatalogBackground = "Branco Puro"
	CatalogBackgroundStudio    CatalogBackground = "Estúdio"
	CatalogBackgroundSunny     CatalogBackground = "Dia de Sol"
	CatalogBackgroundYellowish CatalogBackground = "Amarelado"
	CatalogBackgroundDark      CatalogBackground = "Escuro"
	CatalogBackgroundCustom    CatalogBackground = "Customizado"
)

// MarketingDirection decides whether copy text is baked into pixels or a
// placeholder space is reserved for post-production.
type MarketingDirection string

const (
	DirectionPlaceholder    MarketingDirection = "Espaço reservado"
	DirectionTextIntegrated MarketingDirection = "Texto integrado"
)

// ReferenceUsage classifies what a reference image is for.
type ReferenceUsage string

const (
	UsageContour         ReferenceUsage = "Contorno"
	UsageMeasurements    ReferenceUsage = "Medidas"
	UsagePersonalization ReferenceUsage = "Personalização"
	UsageFormat          ReferenceUsage = "Formato"
)

// AspectRatio is the target output format of a render.
type AspectRatio string

const (
	RatioSquare     AspectRatio = "1:1"
	RatioPortrait   AspectRatio = "3:4"
	RatioFeed       AspectRatio = "4:5"
	RatioStories    AspectRatio = "9:16"
	RatioWidescreen AspectRatio = "16:9"
)

// AspectRatios lists the supported output formats.
var AspectRatios = []AspectRatio{RatioSquare, RatioPortrait, RatioFeed, RatioStories, RatioWidescreen}

// Rotation is the product rotation in degrees.
type Rotation int

// RotationOptions lists the supported rotations.
var RotationOptions = []Rotation{0, 90, 180, 270}

// ReferenceImage is an uploaded product reference. At most one image in a
// set is the hero: the authoritative source of product geometry.
type ReferenceImage struct {
	ID       string         `json:"id"`
	DataURL  string         `json:"dataUrl"`
	MimeType string         `json:"mimeType"`
	FileName string         `json:"fileName"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
	IsHero   bool           `json:"isHero"`
	Usage    ReferenceUsage `json:"usageType"`
}

// Ambience is a scene description. System-suggested ambiences live only on
// the draft; custom ones are durable and keyed by id.
type Ambience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCustom    bool   `json:"isCustom,omitempty"`
	UseCount    int    `json:"useCount,omitempty"`
}

// BriefingStatus tracks where the merged briefing came from.
type BriefingStatus string

const (
	BriefingEmpty  BriefingStatus = "vazio"
	BriefingAuto   BriefingStatus = "automático"
	BriefingCustom BriefingStatus = "personalizado"
)

// FormData is the single mutable settings object the user edits. It is
// persisted on a debounce and replaced wholesale on reset or import.
type FormData struct {
	ProductName string `json:"productName"`
	Material    string `json:"material"`

	BaseBrief      string         `json:"baseBrief"`
	UserBrief      string         `json:"userBrief"`
	FinalBriefPt   string         `json:"finalBriefPt"`
	BriefingStatus BriefingStatus `json:"briefingStatus"`

	Objective          Objective          `json:"objective"`
	Style              ArtStyle           `json:"style"`
	MarketingDirection MarketingDirection `json:"marketingDirection"`
	Tone               MarketingTone      `json:"tone"`
	TextPresence       TextPresence       `json:"textPresence"`
	Angle              CameraAngle        `json:"angle"`
	Shadow             ShadowType         `json:"shadow"`
	Background         BackgroundType     `json:"background"`
	CatalogBackground  CatalogBackground  `json:"catalogBackground,omitempty"`
	Props              []string           `json:"props"`
	CustomProps        string             `json:"customProps"`

	SocialCopyTitle    string     `json:"socialCopyTitle"`
	SocialCopySubtitle string     `json:"socialCopySubtitle"`
	SocialCopyOffer    string     `json:"socialCopyOffer"`
	SelectedAmbienceID string     `json:"selectedAmbienceId,omitempty"`
	SuggestedAmbiences []Ambience `json:"suggestedAmbiences"`
	CustomAmbiences    []Ambience `json:"customAmbiences"`

	ReferenceImages    []ReferenceImage `json:"referenceImages"`
	UseRefImages       bool             `json:"useRefImages"`
	LockProduct        bool             `json:"lockProduct"`
	PrioritizeFidelity bool             `json:"prioritizeFidelity"`
	ImageNotes         string           `json:"imageNotes"`

	CustomPersonalization string `json:"customPersonalization"`

	DefaultAspectRatio AspectRatio `json:"defaultAspectRatio"`
	DefaultRotation    Rotation    `json:"defaultRotation"`
}

// BaseBriefText is the fixed layer-A briefing prepended to every product.
const BaseBriefText = `[REGRAS VISUAIS FIXAS - INOVAÇÃO ENTALHE]:
1. Fotografia profissional de estúdio, alta resolução (8k), texturas realistas.
2. Iluminação controlada para valorizar o relevo e o material do produto.
3. Sem distorções de lente (exceto se solicitado ângulo wide).
4. Cores fiéis ao material (madeira, metal, couro).
5. Limpeza visual: sem ruído, sem artefatos, foco cravado no produto.`

// InitialFormData returns the static defaults of a fresh session draft.
func InitialFormData() FormData {
	return FormData{
		BaseBrief:          BaseBriefText,
		BriefingStatus:     BriefingEmpty,
		Objective:          ObjectiveCatalog,
		Style:              StyleMinimalist,
		MarketingDirection: DirectionPlaceholder,
		Tone:               ToneSales,
		TextPresence:       TextMedium,
		Angle:              AngleThreeQuarters,
		Shadow:             ShadowSoft,
		Background:         BackgroundWhite,
		Props:              []string{},
		SuggestedAmbiences: []Ambience{},
		CustomAmbiences:    []Ambience{},
		ReferenceImages:    []ReferenceImage{},
		LockProduct:        true,
		PrioritizeFidelity: true,
		DefaultAspectRatio: RatioSquare,
		DefaultRotation:    0,
	}
}

// Clone returns a deep copy of the draft.
func (f FormData) Clone() FormData {
	out := f
	out.Props = append([]string(nil), f.Props...)
	out.SuggestedAmbiences = append([]Ambience(nil), f.SuggestedAmbiences...)
	out.CustomAmbiences = append([]Ambience(nil), f.CustomAmbiences...)
	out.ReferenceImages = append([]ReferenceImage(nil), f.ReferenceImages...)
	return out
}

// ActiveAmbience resolves the selected ambience against both the suggested
// and custom lists. Returns nil when nothing is selected.
func (f FormData) ActiveAmbience() *Ambience {
	if f.SelectedAmbienceID == "" {
		return nil
	}
	for _, a := range f.SuggestedAmbiences {
		if a.ID == f.SelectedAmbienceID {
			amb := a
			return &amb
		}
	}
	for _, a := range f.CustomAmbiences {
		if a.ID == f.SelectedAmbienceID {
			amb := a
			return &amb
		}
	}
	return nil
}

// HeroImage returns the hero reference, if any.
func (f FormData) HeroImage() *ReferenceImage {
	for i := range f.ReferenceImages {
		if f.ReferenceImages[i].IsHero {
			img := f.ReferenceImages[i]
			return &img
		}
	}
	return nil
}

// GeneratedPrompt is one creative variation produced by the generation API,
// plus the technical translation filled in during rendering.
type GeneratedPrompt struct {
	Layout        string `json:"layout"`
	PromptPt      string `json:"promptPt"`
	NegativePt    string `json:"negativePt"`
	PromptEn      string `json:"promptEn"`
	NegativeEn    string `json:"negativeEn"`
	Highlights    string `json:"highlights"`
	CopyTitle     string `json:"copyTitle,omitempty"`
	CopySubtitle  string `json:"copySubtitle,omitempty"`
	CopyOffer     string `json:"copyOffer,omitempty"`
	FinalPromptEn string `json:"finalPromptEn,omitempty"`
}

// CreationSettings is the immutable snapshot taken when an item is created.
// It carries everything needed to reproduce the render deterministically,
// independent of later edits to the live draft.
type CreationSettings struct {
	Objective             Objective          `json:"objective"`
	Background            BackgroundType     `json:"background"`
	CatalogBackground     CatalogBackground  `json:"catalogBackground,omitempty"`
	Shadow                ShadowType         `json:"shadow"`
	Angle                 CameraAngle        `json:"angle"`
	Props                 []string           `json:"props"`
	CustomProps           string             `json:"customProps,omitempty"`
	PropsEnabled          bool               `json:"propsEnabled"`
	LockProduct           bool               `json:"lockProduct"`
	AmbienceDescription   string             `json:"ambienceDescription,omitempty"`
	Tone                  MarketingTone      `json:"tone,omitempty"`
	TextPresence          TextPresence       `json:"textPresence,omitempty"`
	CustomPersonalization string             `json:"customPersonalization,omitempty"`
	MarketingDirection    MarketingDirection `json:"marketingDirection,omitempty"`

	// Filled from the item itself at render time, not at snapshot time.
	AspectRatio  AspectRatio `json:"aspectRatio,omitempty"`
	Rotation     Rotation    `json:"rotation,omitempty"`
	CopyTitle    string      `json:"copyTitle,omitempty"`
	CopySubtitle string      `json:"copySubtitle,omitempty"`
	CopyOffer    string      `json:"copyOffer,omitempty"`
}

// Clone returns a deep copy of the settings snapshot.
func (s CreationSettings) Clone() CreationSettings {
	out := s
	out.Props = append([]string(nil), s.Props...)
	return out
}

// ItemStatus is the render state of a gallery item.
type ItemStatus string

const (
	StatusDraft     ItemStatus = "draft"
	StatusQueued    ItemStatus = "queued"
	StatusRendering ItemStatus = "rendering"
	StatusCompleted ItemStatus = "completed"
	StatusError     ItemStatus = "error"
)

// CanTransitionTo reports whether the edge from s to next exists in the item
// state machine. The only re-entry edge is error (or draft) back to queued.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusQueued
	case StatusQueued:
		return next == StatusRendering
	case StatusRendering:
		return next == StatusCompleted || next == StatusError
	case StatusError:
		return next == StatusQueued
	default:
		return false
	}
}

// GalleryItem is the unit of work and display.
type GalleryItem struct {
	ID              string           `json:"id"`
	Timestamp       int64            `json:"timestamp"`
	Data            GeneratedPrompt  `json:"data"`
	ReferenceImages []ReferenceImage `json:"referenceImages"`
	ImageURL        string           `json:"generatedImageUrl,omitempty"`
	AspectRatio     AspectRatio      `json:"aspectRatio"`
	Rotation        Rotation         `json:"rotation"`
	Label           string           `json:"label,omitempty"`
	IsRegenerated   bool             `json:"isRegenerated,omitempty"`
	IsEdited        bool             `json:"isEdited,omitempty"`
	Status          ItemStatus       `json:"status"`

	CreationSettings CreationSettings `json:"creationSettings"`
}

// Clone returns a deep copy of the item.
func (g GalleryItem) Clone() GalleryItem {
	out := g
	out.ReferenceImages = append([]ReferenceImage(nil), g.ReferenceImages...)
	out.CreationSettings = g.CreationSettings.Clone()
	return out
}

// MaxHistoryItems caps the lightweight history log.
const MaxHistoryItems = 100

// HistoryMetadata is one append-only log entry recorded per successful
// render. Metadata only, never image bytes.
type HistoryMetadata struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`
	ProductName   string   `json:"productName"`
	PresetUsed    string   `json:"presetUsed"`
	AmbienceTitle string   `json:"ambienceTitle,omitempty"`
	AspectRatio   string   `json:"aspectRatio"`
	PromptFinalEn string   `json:"promptFinalEn"`
	Tags          []string `json:"tags"`
}

// Preset is a saved combination of studio settings.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `json:"isSystem"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`

	Mode               Objective          `json:"mode"`
	Style              ArtStyle           `json:"style"`
	MarketingDirection MarketingDirection `json:"marketingDirection"`
	CopyTone           MarketingTone      `json:"copyTone"`

	AspectRatio       AspectRatio       `json:"aspectRatio"`
	Angle             CameraAngle       `json:"angle"`
	Shadow            ShadowType        `json:"shadow"`
	Background        BackgroundType    `json:"background"`
	CatalogBackground CatalogBackground `json:"catalogBackground,omitempty"`

	PropsEnabled bool     `json:"propsEnabled"`
	PropsList    []string `json:"propsList"`
	PropsPolicy  string   `json:"propsPolicy"`

	UseReferenceImages  bool `json:"useReferenceImages"`
	LockProductFidelity bool `json:"lockProductFidelity"`

	DefaultRotation     Rotation `json:"defaultRotation"`
	ShowNegativePrompts bool     `json:"showNegativePrompts"`
}

// ApplyToForm overlays the preset onto the current draft, preserving the
// product identity, briefing, and reference images.
func (p Preset) ApplyToForm(form FormData) FormData {
	out := form.Clone()
	out.Objective = p.Mode
	out.Style = p.Style
	out.MarketingDirection = p.MarketingDirection
	out.Tone = p.CopyTone
	out.Angle = p.Angle
	out.Shadow = p.Shadow
	out.Background = p.Background
	out.CatalogBackground = p.CatalogBackground
	if p.PropsEnabled {
		out.Props = append([]string(nil), p.PropsList...)
	} else {
		out.Props = []string{}
	}
	out.UseRefImages = p.UseReferenceImages && len(out.ReferenceImages) > 0
	out.LockProduct = p.LockProductFidelity
	out.DefaultAspectRatio = p.AspectRatio
	out.DefaultRotation = p.DefaultRotation
	return out
}

// PresetFromForm captures the current draft as a reusable user preset.
func PresetFromForm(form FormData, id, name, description string) Preset {
	now := time.Now().UTC().Format(time.RFC3339)
	policy := "livre"
	if form.Objective == ObjectiveCatalog {
		policy = "restrito"
	}
	return Preset{
		ID:                  id,
		Name:                name,
		Description:         description,
		IsSystem:            false,
		CreatedAt:           now,
		UpdatedAt:           now,
		Mode:                form.Objective,
		Style:               form.Style,
		MarketingDirection:  form.MarketingDirection,
		CopyTone:            form.Tone,
		Angle:               form.Angle,
		Shadow:              form.Shadow,
		Background:          form.Background,
		CatalogBackground:   form.CatalogBackground,
		PropsEnabled:        len(form.Props) > 0,
		PropsList:           append([]string(nil), form.Props...),
		PropsPolicy:         policy,
		UseReferenceImages:  form.UseRefImages,
		LockProductFidelity: form.LockProduct,
		AspectRatio:         form.DefaultAspectRatio,
		DefaultRotation:     form.DefaultRotation,
		ShowNegativePrompts: true,
	}
}
