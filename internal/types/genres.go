package types

import (
	"strconv"
	"strings"
)

type GenreCategory int

const (
	GenreCategoryDocument      GenreCategory = 1
	GenreCategoryArtwork       GenreCategory = 2
	GenreCategorySupplementary GenreCategory = 3
)

// GenreSortableDesignation is the designation every sortable genre carries.
const GenreSortableDesignation = "##"

var genreCategoryNames = map[GenreCategory]string{
	GenreCategoryDocument:      "DOCUMENT",
	GenreCategoryArtwork:       "ARTWORK",
	GenreCategorySupplementary: "SUPPLEMENTARY",
}

func (c GenreCategory) String() string {
	if name, ok := genreCategoryNames[c]; ok {
		return name
	}

	return strconv.Itoa(int(c))
}

// ParseGenreCategory accepts either the number or the name of a category.
func ParseGenreCategory(s string) (GenreCategory, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		_, ok := genreCategoryNames[GenreCategory(n)]
		return GenreCategory(n), ok
	}

	for c, name := range genreCategoryNames {
		if strings.EqualFold(name, s) {
			return c, true
		}
	}

	return 0, false
}

// Genre classifies submission files (article text, image, data set, ...)
// within one context.
type Genre struct {
	Id        int64         `json:"id"`
	ContextId int64         `json:"context_id" validate:"required,gt=0"`
	Sequence  float64       `json:"seq"`
	Category  GenreCategory `json:"category" validate:"required,min=1,max=3"`
	// Sortable is fixed when the genre is created.
	Sortable  bool `json:"sortable"`
	Dependent bool `json:"dependent"`
	// Enabled is false once the genre has been soft deleted.
	Enabled bool `json:"enabled"`
	// EntryKey is only set for genres installed from the default registry.
	EntryKey string `json:"entry_key,omitempty"`

	Name        LocalizedString `json:"name"`
	Designation string          `json:"designation"`
}
