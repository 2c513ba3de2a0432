// Package prompt compiles a translated creative scene plus an immutable
// settings snapshot into the technical English prompt sent to image
// synthesis. Compilation is deterministic and pure: same inputs, same
// prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

// Translation is an already-translated scene: the EN prompt and its EN
// negative counterpart.
type Translation struct {
	PromptEn   string
	NegativeEn string
}

// Compiled is the output of the compiler.
type Compiled struct {
	PromptEn      string
	NegativeEn    string
	FinalPromptEn string
}

// Compile assembles the final technical prompt in a fixed block order:
// hero reference, scene, tone, lighting, background, camera, props, text
// handling, personalization override, then the [NEGATIVE] tail with the
// mandatory suffix.
//
// Rule precedence: the hero fidelity lock governs everything by default; a
// personalization instruction overrides it only for the attributes it
// names; Catalog objective always forces the no-text path regardless of
// the requested marketing direction.
func Compile(scene Translation, settings studio.CreationSettings, refs []studio.ReferenceImage) Compiled {
	var blocks []string

	if hasHero(refs) {
		blocks = append(blocks, fmt.Sprintf(
			"[REFERENCE]: Hero image provided. Use it as the absolute source of truth for product geometry, details, and material. %s %s",
			ReferenceLogic, FidelityRules))
	}

	blocks = append(blocks, "[SCENE]: "+scene.PromptEn)
	blocks = append(blocks, "[STYLE]: "+ToneBlock(settings.Tone))
	blocks = append(blocks, "[LIGHTING]: "+ShadowBlock(settings.Shadow))
	blocks = append(blocks, "[BACKGROUND/ENVIRONMENT]: "+backgroundText(settings))
	blocks = append(blocks, fmt.Sprintf("[CAMERA]: %s Rotation: %d degrees.", AngleBlock(settings.Angle), settings.Rotation))

	if len(settings.Props) > 0 {
		blocks = append(blocks, fmt.Sprintf(
			"[PROPS]: Surround product with: %s. Natural arrangement, props may overlap the product by at most %s.",
			strings.Join(settings.Props, ", "), maxPropOverlap))
	}

	if integratedText(settings) {
		blocks = append(blocks, fmt.Sprintf(
			"[TEXT_OVERLAY]: Include the following text using modern typography:\nTITLE: %q\nSUBTITLE: %q\nOFFER: %q\nEnsure spelling is correct in Portuguese.",
			settings.CopyTitle, settings.CopySubtitle, settings.CopyOffer))
	} else {
		comp := "[COMPOSITION]: "
		if format, ok := AspectRatioTexts[settings.AspectRatio]; ok {
			comp += format + " "
		}
		comp += "Leave negative space for text. Do not generate text. " + NoTextEnforcement
		blocks = append(blocks, comp)
	}

	if p := strings.TrimSpace(settings.CustomPersonalization); p != "" {
		blocks = append(blocks, fmt.Sprintf(
			"[PERSONALIZATION_RULES]: %s These instructions take priority over the reference fidelity lock for the attributes they name; every other attribute stays locked to the reference.", p))
	}

	negative := strings.TrimSpace(scene.NegativeEn)
	tail := NegativeSuffix
	if negative != "" {
		tail = negative + ", " + NegativeSuffix
	}

	final := strings.Join(blocks, "\n\n") + "\n\n[NEGATIVE]: " + tail

	return Compiled{
		PromptEn:      scene.PromptEn,
		NegativeEn:    scene.NegativeEn,
		FinalPromptEn: strings.TrimSpace(final),
	}
}

// backgroundText resolves the background block with fixed precedence:
// explicit catalog background (Catalog objective only), then ambience
// description, then the generic background enum, then the default studio.
func backgroundText(settings studio.CreationSettings) string {
	if settings.Objective == studio.ObjectiveCatalog && settings.CatalogBackground != "" {
		return fmt.Sprintf("%s background.", settings.CatalogBackground)
	}
	if desc := strings.TrimSpace(settings.AmbienceDescription); desc != "" {
		return desc
	}
	if settings.Background != "" {
		return BackgroundBlock(settings.Background)
	}
	return defaultBackgroundBlock
}

// integratedText reports whether copy is baked into the pixels. Catalog
// renders are always clean, whatever direction was requested.
func integratedText(settings studio.CreationSettings) bool {
	return settings.MarketingDirection == studio.DirectionTextIntegrated &&
		settings.Objective != studio.ObjectiveCatalog
}

func hasHero(refs []studio.ReferenceImage) bool {
	for _, img := range refs {
		if img.IsHero {
			return true
		}
	}
	return false
}
