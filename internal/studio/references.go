package studio

// AddReference appends a reference image to the set. The first image of a
// set is always the hero.
func AddReference(refs []ReferenceImage, img ReferenceImage) []ReferenceImage {
	img.IsHero = len(refs) == 0
	if img.Usage == "" {
		img.Usage = UsageContour
	}
	return append(refs, img)
}

// SetHero marks the image with the given id as hero and clears the flag on
// every other image, keeping the at-most-one-hero invariant.
func SetHero(refs []ReferenceImage, id string) []ReferenceImage {
	out := append([]ReferenceImage(nil), refs...)
	for i := range out {
		out[i].IsHero = out[i].ID == id
	}
	return out
}

// RemoveReference deletes the image with the given id. When the hero is
// removed and images remain, the first survivor is promoted to hero.
func RemoveReference(refs []ReferenceImage, id string) []ReferenceImage {
	out := make([]ReferenceImage, 0, len(refs))
	for _, img := range refs {
		if img.ID != id {
			out = append(out, img)
		}
	}
	if len(out) > 0 && !hasHero(out) {
		out[0].IsHero = true
	}
	return out
}

func hasHero(refs []ReferenceImage) bool {
	for _, img := range refs {
		if img.IsHero {
			return true
		}
	}
	return false
}
