package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ArgumentSeparator splits a key from its positional arguments.
const ArgumentSeparator = "#"

//go:embed locales/strings.json
var defaultLocale []byte

// Localizer resolves keys against a string table.
type Localizer struct {
	mu      sync.RWMutex
	strings map[string]string
}

// New returns a Localizer loaded with the embedded strings.
func New() *Localizer {
	table := map[string]string{}
	if err := json.Unmarshal(defaultLocale, &table); err != nil {
		panic(fmt.Sprintf("i18n: embedded locale: %v", err))
	}
	return &Localizer{strings: table}
}

// LoadLocale replaces the string table.
func (l *Localizer) LoadLocale(table map[string]string) {
	copied := maps.Clone(table)
	l.mu.Lock()
	l.strings = copied
	l.mu.Unlock()
}

// LoadFile replaces the string table with the JSON object stored at path.
func (l *Localizer) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("i18n: read locale: %w", err)
	}
	table := map[string]string{}
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("i18n: parse locale %s: %w", path, err)
	}
	l.LoadLocale(table)
	return nil
}

// Translate resolves key. A key of the form "name#a#b" resolves name and
// substitutes a for {0} and b for {1}. Unknown keys resolve to themselves
// and an empty key resolves to "?".
func (l *Localizer) Translate(key string) string {
	if key == "" {
		return "?"
	}
	parts := strings.Split(key, ArgumentSeparator)
	return substitute(l.lookup(parts[0]), parts[1:])
}

// Translatef is Translate with the arguments given separately. Arguments
// may contain the separator.
func (l *Localizer) Translatef(key string, args ...any) string {
	if key == "" {
		return "?"
	}
	values := make([]string, len(args))
	for i, arg := range args {
		values[i] = fmt.Sprint(arg)
	}
	return substitute(l.lookup(key), values)
}

func substitute(translation string, args []string) string {
	for i, arg := range args {
		translation = strings.Replace(translation, "{"+strconv.Itoa(i)+"}", arg, 1)
	}
	return translation
}

func (l *Localizer) lookup(key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if v, ok := l.strings[key]; ok {
		return v
	}
	return key
}

// Sanitize lower-cases term and strips its diacritics so that it can be
// compared loosely.
func Sanitize(term string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, term)
	if err != nil {
		out = term
	}
	return strings.ToLower(out)
}
