package theme

import (
	"strings"

	"github.com/iiroan/herodex/internal/settings"
)

// FontTier is one of the three font size presets.
type FontTier string

const (
	FontTierSmall  FontTier = settings.FontSizeSmall
	FontTierMedium FontTier = settings.FontSizeMedium
	FontTierLarge  FontTier = settings.FontSizeLarge
)

const defaultFontTier = FontTierMedium

// FontTiers returns the supported tiers, smallest first.
func FontTiers() []FontTier {
	return []FontTier{FontTierSmall, FontTierMedium, FontTierLarge}
}

// ParseFontTier parses a persisted or user supplied tier name.
func ParseFontTier(s string) (FontTier, bool) {
	tier := FontTier(strings.ToLower(strings.TrimSpace(s)))
	if !tier.Valid() {
		return "", false
	}
	return tier, true
}

// Valid reports whether t is one of the three tiers.
func (t FontTier) Valid() bool {
	switch t {
	case FontTierSmall, FontTierMedium, FontTierLarge:
		return true
	}
	return false
}

func (t FontTier) String() string { return string(t) }

// Palette holds the resolved color for each semantic role.
type Palette struct {
	Name          string
	Background    string
	Surface       string
	Text          string
	TextSecondary string
	Border        string
}

// Colors returns the palette keyed by role name.
func (p Palette) Colors() map[string]string {
	return map[string]string{
		"background":    p.Background,
		"surface":       p.Surface,
		"text":          p.Text,
		"textSecondary": p.TextSecondary,
		"border":        p.Border,
	}
}

var (
	lightPalette = Palette{
		Name:          "light",
		Background:    "#F5F5F5",
		Surface:       "#FFFFFF",
		Text:          "#333333",
		TextSecondary: "#666666",
		Border:        "#EEEEEE",
	}
	darkPalette = Palette{
		Name:          "dark",
		Background:    "#121212",
		Surface:       "#1E1E1E",
		Text:          "#FFFFFF",
		TextSecondary: "#AAAAAA",
		Border:        "#333333",
	}
)

// PaletteFor returns the dark or light palette.
func PaletteFor(darkMode bool) Palette {
	if darkMode {
		return darkPalette
	}
	return lightPalette
}

// FontScale maps size roles to point sizes.
type FontScale struct {
	XS  int
	SM  int
	MD  int
	LG  int
	XL  int
	XXL int
}

// Sizes returns the scale keyed by role name.
func (s FontScale) Sizes() map[string]int {
	return map[string]int{
		"xs":  s.XS,
		"sm":  s.SM,
		"md":  s.MD,
		"lg":  s.LG,
		"xl":  s.XL,
		"xxl": s.XXL,
	}
}

var fontScales = map[FontTier]FontScale{
	FontTierSmall:  {XS: 10, SM: 12, MD: 14, LG: 16, XL: 18, XXL: 24},
	FontTierMedium: {XS: 12, SM: 14, MD: 16, LG: 18, XL: 20, XXL: 28},
	FontTierLarge:  {XS: 14, SM: 16, MD: 18, LG: 20, XL: 24, XXL: 32},
}

// ScaleFor returns the font scale of tier. Unknown tiers get the medium scale.
func ScaleFor(tier FontTier) FontScale {
	if scale, ok := fontScales[tier]; ok {
		return scale
	}
	return fontScales[defaultFontTier]
}
