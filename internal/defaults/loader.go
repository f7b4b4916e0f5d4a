// Package defaults reads the declarative registry of default records a context
// starts with.
package defaults

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"submissions/internal/locale"
)

//go:embed registry
var registry embed.FS

// Registry is the bundled registry/ directory.
func Registry() fs.FS {
	return registry
}

// ErrResourceMissing means there is nothing to install: the registry file is
// absent, unreadable, malformed or empty.
var ErrResourceMissing = errors.New("default data resource missing or malformed")

type Entry struct {
	Key       string
	LocaleKey string
	Sortable  bool
	Category  int
	Dependent bool
}

type Attributes struct {
	Name        string
	Designation string
}

// DesignationPolicy derives the designation of an entry for a locale.
type DesignationPolicy func(e Entry, locale string, t locale.Translator) string

type Loader struct {
	FS fs.FS
	// Element is the XML element (or YAML list key) holding one entry, e.g. "genre".
	Element string
	// ParseCategory turns the category attribute into its numeric value.
	ParseCategory func(s string) (int, bool)
	Translator    locale.Translator
	Designation   DesignationPolicy
}

// Load reads the entries of the registry file at p in declared order.
// XML is expected unless p ends in .yaml or .yml.
func (l *Loader) Load(p string) ([]Entry, error) {
	bs, err := fs.ReadFile(l.FS, p)
	if err != nil {
		return nil, errors.Wrapf(ErrResourceMissing, "read %s: %v", p, err)
	}

	var attrs []map[string]string
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		attrs, err = l.parseYAML(bs)
	default:
		attrs, err = l.parseXML(bs)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrResourceMissing, "parse %s: %v", p, err)
	}

	if len(attrs) == 0 {
		return nil, errors.Wrapf(ErrResourceMissing, "%s has no %s entries", p, l.Element)
	}

	ret := make([]Entry, 0, len(attrs))
	for ix, a := range attrs {
		e, err := l.entry(a)
		if err != nil {
			return nil, errors.Wrapf(ErrResourceMissing, "%s entry %d: %v", p, ix+1, err)
		}
		ret = append(ret, e)
	}

	return ret, nil
}

// Attributes derives the settings an entry is installed with for one locale.
func (l *Loader) Attributes(e Entry, loc string) Attributes {
	a := Attributes{Name: l.Translator.Translate(e.LocaleKey, loc)}
	if l.Designation != nil {
		a.Designation = l.Designation(e, loc, l.Translator)
	}

	return a
}

func (l *Loader) parseXML(bs []byte) ([]map[string]string, error) {
	var ret []map[string]string

	d := xml.NewDecoder(bytes.NewReader(bs))
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return ret, nil
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != l.Element {
			continue
		}

		a := make(map[string]string, len(start.Attr))
		for _, attr := range start.Attr {
			a[attr.Name.Local] = attr.Value
		}
		ret = append(ret, a)
	}
}

func (l *Loader) parseYAML(bs []byte) ([]map[string]string, error) {
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, err
	}

	ret := make([]map[string]string, 0, len(doc[l.Element]))
	for _, item := range doc[l.Element] {
		a := make(map[string]string, len(item))
		for k, v := range item {
			a[k] = fmt.Sprint(v)
		}
		ret = append(ret, a)
	}

	return ret, nil
}

func (l *Loader) entry(a map[string]string) (Entry, error) {
	e := Entry{
		Key:       strings.TrimSpace(a["key"]),
		LocaleKey: strings.TrimSpace(a["localeKey"]),
	}
	if e.Key == "" {
		return e, errors.New("key attribute is required")
	}
	if e.LocaleKey == "" {
		e.LocaleKey = e.Key
	}

	var err error
	if e.Sortable, err = parseFlag(a["sortable"]); err != nil {
		return e, errors.Wrap(err, "sortable")
	}
	if e.Dependent, err = parseFlag(a["dependent"]); err != nil {
		return e, errors.Wrap(err, "dependent")
	}

	cat, ok := a["category"]
	if !ok {
		return e, errors.New("category attribute is required")
	}
	if l.ParseCategory != nil {
		if e.Category, ok = l.ParseCategory(cat); !ok {
			return e, errors.Errorf("unknown category %q", cat)
		}
	} else if e.Category, err = strconv.Atoi(strings.TrimSpace(cat)); err != nil {
		return e, errors.Wrap(err, "category")
	}

	return e, nil
}

// parseFlag treats a missing attribute as false.
func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}

	return strconv.ParseBool(s)
}
