// Package i18n resolves UI strings for the supported languages.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported language code.
type Lang string

const (
	Italian Lang = "it"
	English Lang = "en"
)

// Resolver translates keys with the fallback chain
// requested language -> default language -> raw key.
type Resolver struct {
	fallback Lang
	tables   map[Lang]Table
	matcher  language.Matcher
	tags     []Lang
}

// NewResolver builds a resolver over the built-in tables. An unknown
// fallback falls back to Italian.
func NewResolver(fallback string) *Resolver {
	tables := map[Lang]Table{
		Italian: italian,
		English: english,
	}
	def := Lang(strings.ToLower(fallback))
	if _, ok := tables[def]; !ok {
		def = Italian
	}

	// The matcher prefers its first tag on a tie, so the default goes first.
	tags := []Lang{def}
	for _, l := range []Lang{Italian, English} {
		if l != def {
			tags = append(tags, l)
		}
	}
	langTags := make([]language.Tag, 0, len(tags))
	for _, l := range tags {
		langTags = append(langTags, language.Make(string(l)))
	}

	return &Resolver{
		fallback: def,
		tables:   tables,
		matcher:  language.NewMatcher(langTags),
		tags:     tags,
	}
}

// Default returns the fallback language.
func (r *Resolver) Default() Lang {
	return r.fallback
}

// Supported reports whether lang has a table.
func (r *Resolver) Supported(lang string) bool {
	_, ok := r.tables[Lang(strings.ToLower(lang))]
	return ok
}

// Translate returns the text for key in lang.
func (r *Resolver) Translate(key Key, lang Lang) string {
	if t, ok := r.tables[lang]; ok {
		if s, ok := t[key]; ok && s != "" {
			return s
		}
	}
	if s, ok := r.tables[r.fallback][key]; ok && s != "" {
		return s
	}
	return string(key)
}

// Negotiate picks the language for a request: an explicit preference wins,
// then the Accept-Language header, then the default.
func (r *Resolver) Negotiate(preferred, acceptLanguage string) Lang {
	if r.Supported(preferred) {
		return Lang(strings.ToLower(preferred))
	}
	if acceptLanguage == "" {
		return r.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.fallback
	}
	_, idx, conf := r.matcher.Match(tags...)
	if conf == language.No {
		return r.fallback
	}
	return r.tags[idx]
}

// Translator is bound to one language.
type Translator struct {
	resolver *Resolver
	lang     Lang
}

func (r *Resolver) For(lang Lang) Translator {
	return Translator{resolver: r, lang: lang}
}

func (t Translator) T(key Key) string {
	return t.resolver.Translate(key, t.lang)
}

func (t Translator) Lang() Lang {
	return t.lang
}
