// Package lang resolves feed locales and retries locale-keyed operations in
// the base locale.
package lang

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Base is the locale every other locale falls back to.
const Base = "en"

// Supported is the default set of feed locales.
var Supported = []string{"en", "es"}

// Result carries the value of a fallback-aware fetch.
type Result[T any] struct {
	Value        T
	UsedFallback bool
}

// Fetch invokes op in locale. If op fails or its value is not acceptable and
// locale is not Base, op is invoked once more in Base and that outcome is
// returned as is, error included. There is no further escalation.
func Fetch[T any](ctx context.Context, op func(ctx context.Context, locale string) (T, error), locale string, acceptable func(T) bool) (Result[T], error) {
	v, err := op(ctx, locale)
	if err == nil && (acceptable == nil || acceptable(v)) {
		return Result[T]{Value: v}, nil
	}
	if locale == Base {
		if err != nil {
			return Result[T]{}, err
		}
		return Result[T]{Value: v}, nil
	}

	fb, err := op(ctx, Base)
	if err != nil {
		return Result[T]{UsedFallback: true}, err
	}
	return Result[T]{Value: fb, UsedFallback: true}, nil
}

// Normalize maps a user or system locale tag such as "es-MX" or "en_GB" onto
// one of the supported locales. Unknown or malformed tags resolve to the first
// supported locale, or Base if supported is empty.
func Normalize(tag string, supported []string) string {
	if len(supported) == 0 {
		supported = Supported
	}
	tags := make([]language.Tag, 0, len(supported))
	names := make([]string, 0, len(supported))
	for _, s := range supported {
		t, err := language.Parse(s)
		if err != nil {
			continue
		}
		tags = append(tags, t)
		names = append(names, s)
	}
	if len(tags) == 0 {
		return Base
	}

	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	// strip encodings like "es_ES.UTF-8" from $LANG
	if i := strings.IndexByte(tag, '.'); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "C" || tag == "POSIX" {
		return names[0]
	}

	_, idx := language.MatchStrings(language.NewMatcher(tags), tag)
	if idx < 0 || idx >= len(names) {
		return names[0]
	}
	return names[idx]
}
