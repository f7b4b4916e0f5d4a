package types

import "maps"

// LocalizedString maps a locale to its text.
type LocalizedString map[string]string

// Get returns the text for locale, or for the first fallback locale that has one.
func (ls LocalizedString) Get(locale string, fallbacks ...string) string {
	if v, ok := ls[locale]; ok {
		return v
	}

	for _, f := range fallbacks {
		if v, ok := ls[f]; ok {
			return v
		}
	}

	return ""
}

func (ls LocalizedString) Clone() LocalizedString {
	if ls == nil {
		return LocalizedString{}
	}

	return maps.Clone(ls)
}
