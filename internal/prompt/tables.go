package prompt

import "github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"

// Mandatory fragments appended or enforced regardless of user settings.
const (
	// NegativeSuffix is the anti-text/anti-artifact tail of every compiled
	// prompt. It is never omitted.
	NegativeSuffix = "text, typography, letters, numbers, symbols, writing, watermark, logo, signature, blurry, distorted, low quality, warped, extra parts, text errors, unreadable, artistic blur, depth of field, vignette, dark corners, altered product, changed logo, missing engraving, wrong proportions, different design, morphing, words, alphabets, kanji, characters"

	// NoTextEnforcement is the absolute-control clause used whenever text
	// must not be rendered into pixels.
	NoTextEnforcement = "No text, no typography, no letters, no numbers, no symbols, no writing of any kind. Clean image only. All text will be added in post-production. DO NOT RENDER TEXT."

	// FidelityRules locks the product geometry to the reference images.
	FidelityRules = "CRITICAL: Use the attached reference image as the EXACT product reference. Do not change the product design, proportions, engravings, texts, or logos. The attached image defines the final product geometry. NO REDESIGN ALLOWED. Preserve exact material details."

	// ReferenceLogic explains the role split between hero and support refs.
	ReferenceLogic = "The HERO image defines the absolute geometry. Additional images are only for contour understanding."
)

// maxPropOverlap bounds how much props may cover the product.
const maxPropOverlap = "20%"

var toneBlocks = map[studio.MarketingTone]string{
	studio.ToneAttention:     "Eye-catching commercial photography, vivid saturated color, bold contrast, scroll-stopping energy.",
	studio.ToneCreative:      "Editorial creative photography, unexpected composition, artistic lighting play, premium magazine feel.",
	studio.ToneSales:         "Clean commercial photography, conversion-focused framing, crisp product emphasis, trustworthy retail look.",
	studio.TonePromotional:   "High-energy promotional photography, vibrant punchy palette, urgency-driven staging.",
	studio.ToneMinimalist:    "Minimalist photography, generous negative space, restrained palette, quiet elegance.",
	studio.ToneInstitutional: "Institutional corporate photography, sober balanced composition, neutral premium palette.",
	studio.ToneEmotional:     "Warm emotional photography, soft inviting atmosphere, human storytelling mood.",
}

// defaultToneBlock covers unmapped tones; never an empty string.
const defaultToneBlock = "Clean commercial photography, professional studio standard."

var shadowBlocks = map[studio.ShadowType]string{
	studio.ShadowContact: "Hard contact shadows grounding the product.",
	studio.ShadowSoft:    "Soft diffused lighting, gentle gradient shadows.",
	studio.ShadowMedium:  "Balanced studio lighting, moderate shadow depth.",
	studio.ShadowStrong:  "High contrast shadows, dramatic directional light.",
	studio.ShadowNone:    "Shadowless isolation, even wraparound light.",
}

const defaultShadowBlock = "Soft diffused lighting."

var angleBlocks = map[studio.CameraAngle]string{
	studio.AngleFront:         "Frontal view, eye-level camera.",
	studio.AngleThreeQuarters: "3/4 isometric perspective showing volume.",
	studio.AngleTop:           "Top-down flat lay composition.",
}

const defaultAngleBlock = "Eye-level camera."

var backgroundBlocks = map[studio.BackgroundType]string{
	studio.BackgroundWhite:        "Pure white seamless background.",
	studio.BackgroundGrey:         "Neutral grey studio backdrop.",
	studio.BackgroundOffWhite:     "Warm off-white backdrop.",
	studio.BackgroundMarble:       "Light marble surface, subtle veining.",
	studio.BackgroundBlackPremium: "Premium black backdrop, controlled reflections.",
	studio.BackgroundSceneContext: "Contextual lifestyle scene matching the product.",
}

const defaultBackgroundBlock = "Professional Studio."

// AspectRatioTexts maps output formats to composition guidance, used by
// callers that want format-aware negative space.
var AspectRatioTexts = map[studio.AspectRatio]string{
	studio.RatioSquare:     "Square aspect ratio (1:1), centered composition.",
	studio.RatioPortrait:   "Vertical aspect ratio (3:4), portrait composition for feed. Reserve vertical space.",
	studio.RatioFeed:       "Vertical aspect ratio (4:5), optimized for Instagram feed.",
	studio.RatioStories:    "Tall vertical aspect ratio (9:16), optimized for Stories and Reels. Extensive vertical negative space.",
	studio.RatioWidescreen: "Widescreen aspect ratio (16:9), cinematic landscape format.",
}

// ToneBlock resolves the style block for a tone, falling back to the
// documented default for unmapped values.
func ToneBlock(tone studio.MarketingTone) string {
	if text, ok := toneBlocks[tone]; ok {
		return text
	}
	return defaultToneBlock
}

// ShadowBlock resolves the lighting block for a shadow type.
func ShadowBlock(shadow studio.ShadowType) string {
	if text, ok := shadowBlocks[shadow]; ok {
		return text
	}
	return defaultShadowBlock
}

// AngleBlock resolves the camera block for an angle.
func AngleBlock(angle studio.CameraAngle) string {
	if text, ok := angleBlocks[angle]; ok {
		return text
	}
	return defaultAngleBlock
}

// BackgroundBlock resolves the generic background text for a background
// enum value.
func BackgroundBlock(bg studio.BackgroundType) string {
	if text, ok := backgroundBlocks[bg]; ok {
		return text
	}
	return defaultBackgroundBlock
}
