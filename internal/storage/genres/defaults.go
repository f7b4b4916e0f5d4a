package genres

import (
	"io/fs"

	"submissions/internal/defaults"
	"submissions/internal/locale"
	"submissions/internal/types"
)

// RegistryPath is where the default genres live inside the registry FS.
const RegistryPath = "registry/genres.xml"

// NewDefaultsLoader reads <genre> entries from fsys.
func NewDefaultsLoader(fsys fs.FS, t locale.Translator) *defaults.Loader {
	return &defaults.Loader{
		FS:      fsys,
		Element: "genre",
		ParseCategory: func(s string) (int, bool) {
			c, ok := types.ParseGenreCategory(s)
			return int(c), ok
		},
		Translator:  t,
		Designation: designation,
	}
}

// Sortable genres share one designation, the others have their own translation.
func designation(e defaults.Entry, loc string, t locale.Translator) string {
	if e.Sortable {
		return types.GenreSortableDesignation
	}

	return t.Translate(e.LocaleKey+".designation", loc)
}
