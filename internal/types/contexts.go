package types

// Context is the journal, press or site that owns genres.
type Context struct {
	Id            int64   `json:"id"`
	Path          string  `json:"path" validate:"required,max=32"`
	PrimaryLocale string  `json:"primary_locale" validate:"required,bcp47_language_tag"`
	Sequence      float64 `json:"seq"`
	Enabled       bool    `json:"enabled"`

	Name        LocalizedString `json:"name"`
	Description LocalizedString `json:"description"`
}
