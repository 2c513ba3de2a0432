package studio

// SystemPresets are the built-in studio combinations. They are never
// exported in backups and cannot be deleted.
func SystemPresets() []Preset {
	return []Preset{
		{
			ID:                  "sys_catalogo_ml",
			Name:                "Catálogo - Mercado Livre (Branco)",
			Description:         "Fundo branco puro, iluminação técnica, foco total, sem props.",
			IsSystem:            true,
			Mode:                ObjectiveCatalog,
			Style:               StyleMinimalist,
			MarketingDirection:  DirectionPlaceholder,
			CopyTone:            ToneSales,
			AspectRatio:         RatioSquare,
			Angle:               AngleFront,
			Shadow:              ShadowSoft,
			Background:          BackgroundWhite,
			PropsEnabled:        false,
			PropsList:           []string{},
			PropsPolicy:         "restrito",
			UseReferenceImages:  true,
			LockProductFidelity: true,
			ShowNegativePrompts: true,
		},
		{
			ID:                  "sys_catalogo_premium",
			Name:                "Catálogo - Premium Studio (Cinza)",
			Description:         "Fundo cinza estúdio, iluminação de contato, ângulo 3/4 valorizando volume.",
			IsSystem:            true,
			Mode:                ObjectiveCatalog,
			Style:               StyleHighlight,
			MarketingDirection:  DirectionPlaceholder,
			CopyTone:            ToneMinimalist,
			AspectRatio:         RatioSquare,
			Angle:               AngleThreeQuarters,
			Shadow:              ShadowContact,
			Background:          BackgroundGrey,
			PropsEnabled:        true,
			PropsList:           []string{"Sal grosso", "Temperos secos"},
			PropsPolicy:         "restrito",
			UseReferenceImages:  true,
			LockProductFidelity: true,
			ShowNegativePrompts: true,
		},
		{
			ID:                  "sys_social_bold",
			Name:                "Post Social - Bold Impacto",
			Description:         "Alto contraste, sombras médias, ideal para anúncios de performance.",
			IsSystem:            true,
			Mode:                ObjectiveSocial,
			Style:               StyleBold,
			MarketingDirection:  DirectionPlaceholder,
			CopyTone:            ToneAttention,
			AspectRatio:         RatioPortrait,
			Angle:               AngleThreeQuarters,
			Shadow:              ShadowMedium,
			Background:          BackgroundBlackPremium,
			PropsEnabled:        false,
			PropsList:           []string{},
			PropsPolicy:         "livre",
			UseReferenceImages:  true,
			LockProductFidelity: true,
			ShowNegativePrompts: true,
		},
		{
			ID:                  "sys_social_promo",
			Name:                "Post Social - Promo Vende Agora",
			Description:         "Texto integrado (Overlay), cores vibrantes, ângulo frontal direto.",
			IsSystem:            true,
			Mode:                ObjectiveSocial,
			Style:               StylePromo,
			MarketingDirection:  DirectionTextIntegrated,
			CopyTone:            TonePromotional,
			AspectRatio:         RatioFeed,
			Angle:               AngleFront,
			Shadow:              ShadowStrong,
			Background:          BackgroundOffWhite,
			PropsEnabled:        false,
			PropsList:           []string{},
			PropsPolicy:         "livre",
			UseReferenceImages:  true,
			LockProductFidelity: true,
			ShowNegativePrompts: true,
		},
		{
			ID:                  "sys_social_scene",
			Name:                "Post Social - Scene Churrasco",
			Description:         "Ambientação rica, props de contexto, luz suave de janela.",
			IsSystem:            true,
			Mode:                ObjectiveSocial,
			Style:               StyleScene,
			MarketingDirection:  DirectionPlaceholder,
			CopyTone:            ToneCreative,
			AspectRatio:         RatioPortrait,
			Angle:               AngleThreeQuarters,
			Shadow:              ShadowSoft,
			Background:          BackgroundSceneContext,
			PropsEnabled:        true,
			PropsList:           []string{"Carne", "Sal grosso", "Fumaça leve", "Madeira rústica"},
			PropsPolicy:         "livre",
			UseReferenceImages:  true,
			LockProductFidelity: true,
			ShowNegativePrompts: true,
		},
		{
			ID:                  "sys_banner_inst",
			Name:                "Banner Site - 16:9 Institucional",
			Description:         "Formato wide, minimalista, limpo para header de site.",
			IsSystem:            true,
			Mode:                ObjectiveCatalog,
			Style:               StyleMinimalist,
			MarketingDirection:  DirectionPlaceholder,
			CopyTone:            ToneMinimalist,
			AspectRatio:         RatioWidescreen,
			Angle:               AngleFront,
			Shadow:              ShadowSoft,
			Background:          BackgroundOffWhite,
			PropsEnabled:        false,
			PropsList:           []string{},
			PropsPolicy:         "restrito",
			UseReferenceImages:  true,
			LockProductFidelity: true,
			ShowNegativePrompts: true,
		},
	}
}
