// Package locale normalizes locale codes and resolves translation keys.
package locale

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var ErrInvalidLocale = errors.New("invalid locale")

// Normalize turns "en_US", "en-us" or "EN-US" into the BCP 47 form "en-US".
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLocale)
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidLocale, s, err)
	}

	return tag.String(), nil
}

// NormalizeAll normalizes every locale, dropping duplicates and keeping order.
func NormalizeAll(locales []string) ([]string, error) {
	ret := make([]string, 0, len(locales))
	seen := make(map[string]struct{}, len(locales))

	for _, l := range locales {
		n, err := Normalize(l)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		ret = append(ret, n)
	}

	return ret, nil
}
