package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Embedded holds the bundled translations, one <locale>.yaml file per locale.
func Embedded() fs.FS {
	sub, _ := fs.Sub(embedded, "locales")
	return sub
}

// Translator resolves a translation key for a locale.
type Translator interface {
	Translate(key, locale string) string
}

type TranslatorFunc func(key, locale string) string

func (f TranslatorFunc) Translate(key, locale string) string {
	return f(key, locale)
}

// Catalog is a Translator over flat key -> message maps. Requested locales are
// matched to the closest available one; keys missing there are looked up in the
// fallback locale, and finally rendered as "##key##".
type Catalog struct {
	tags     []language.Tag
	names    []string
	matcher  language.Matcher
	messages map[string]map[string]string
}

// NewCatalog builds a catalog; fallback must be one of the locales in messages.
func NewCatalog(messages map[string]map[string]string, fallback string) (*Catalog, error) {
	fallback, err := Normalize(fallback)
	if err != nil {
		return nil, err
	}

	c := &Catalog{messages: make(map[string]map[string]string, len(messages))}
	for loc, msgs := range messages {
		n, err := Normalize(loc)
		if err != nil {
			return nil, err
		}
		c.messages[n] = msgs
	}

	if _, ok := c.messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no messages", fallback)
	}

	// the matcher falls back to its first tag
	c.names = append(c.names, fallback)
	for n := range c.messages {
		if n != fallback {
			c.names = append(c.names, n)
		}
	}

	for _, n := range c.names {
		c.tags = append(c.tags, language.MustParse(n))
	}
	c.matcher = language.NewMatcher(c.tags)

	return c, nil
}

// LoadCatalog reads every *.yaml file of fsys; the file name is the locale.
func LoadCatalog(fsys fs.FS, fallback string) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}

	messages := make(map[string]map[string]string, len(files))
	for _, file := range files {
		bs, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}

		var msgs map[string]string
		if err := yaml.Unmarshal(bs, &msgs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		messages[strings.TrimSuffix(path.Base(file), ".yaml")] = msgs
	}

	return NewCatalog(messages, fallback)
}

func (c *Catalog) Translate(key, locale string) string {
	if msg, ok := c.messages[c.match(locale)][key]; ok {
		return msg
	}

	if msg, ok := c.messages[c.names[0]][key]; ok {
		return msg
	}

	return "##" + key + "##"
}

func (c *Catalog) match(locale string) string {
	n, err := Normalize(locale)
	if err != nil {
		return c.names[0]
	}

	if _, ok := c.messages[n]; ok {
		return n
	}

	_, ix, conf := c.matcher.Match(language.Make(n))
	if conf == language.No {
		return c.names[0]
	}

	return c.names[ix]
}
