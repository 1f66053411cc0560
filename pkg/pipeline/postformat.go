package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/timefmt-go"
	"github.com/spf13/cast"

	"mercator-hq/dsm/pkg/docpath"
)

// Postformat names.
const (
	PostformatDefault             = "default"
	PostformatIntToISOTimestamp   = "int_to_iso_timestamp"
	PostformatRegexToISOTimestamp = "regex_to_iso_timestamp"
	PostformatRegexSearch         = "regex_search"
)

// RegexCacheSize bounds the compiled patterns kept by regex_search.
const RegexCacheSize = 256

// ErrNoMatch is returned by regex_search when the pattern does not match and
// no default is configured.
var ErrNoMatch = errors.New("no match")

// Transform converts a resolved value.
type Transform func(item any, args map[string]any) (any, error)

// PostformatRegistry holds the named transforms.
type PostformatRegistry struct {
	*registry[Transform]
}

// NewPostformatRegistry returns a registry holding the built-in transforms.
func NewPostformatRegistry() *PostformatRegistry {
	r := &PostformatRegistry{registry: newRegistry[Transform]("postformat")}
	r.funcs[PostformatDefault] = identity
	r.funcs[PostformatIntToISOTimestamp] = intToISOTimestamp
	r.funcs[PostformatRegexToISOTimestamp] = regexToISOTimestamp
	r.funcs[PostformatRegexSearch] = newRegexSearch()
	return r
}

func identity(item any, _ map[string]any) (any, error) {
	return item, nil
}

// intToISOTimestamp reads item as milliseconds since the epoch.
func intToISOTimestamp(item any, _ map[string]any) (any, error) {
	ms, err := docpath.ToInt64E(item)
	if err != nil {
		return nil, fmt.Errorf("not an epoch in milliseconds: %w", err)
	}
	return FormatISO(time.UnixMilli(ms)), nil
}

// regexToISOTimestamp parses item with the strftime-style "format".
func regexToISOTimestamp(item any, args map[string]any) (any, error) {
	format, err := stringArg(args, "format")
	if err != nil {
		return nil, err
	}
	s, err := cast.ToStringE(item)
	if err != nil {
		return nil, fmt.Errorf("timestamp must be a string: %w", err)
	}
	t, err := timefmt.Parse(s, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q with %q: %w", s, format, err)
	}
	return FormatISO(t), nil
}

// newRegexSearch returns the regex_search transform. It yields the whole
// match; compiled patterns are kept in an LRU cache.
func newRegexSearch() Transform {
	cache, err := lru.New[string, *regexp.Regexp](RegexCacheSize)
	if err != nil {
		panic(err)
	}
	return func(item any, args map[string]any) (any, error) {
		pattern, err := stringArg(args, "regex")
		if err != nil {
			return nil, err
		}

		re, ok := cache.Get(pattern)
		if !ok {
			re, err = regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
			}
			cache.Add(pattern, re)
		}

		s, err := cast.ToStringE(item)
		if err != nil {
			return nil, fmt.Errorf("regex_search needs a string: %w", err)
		}
		loc := re.FindStringIndex(s)
		if loc == nil {
			return nil, fmt.Errorf("%w for %q in %q", ErrNoMatch, pattern, s)
		}
		return s[loc[0]:loc[1]], nil
	}
}

// FormatISO renders t in UTC as "2006-01-02T15:04:05", adding microseconds
// only when they are non-zero.
func FormatISO(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}
	return t.Format("2006-01-02T15:04:05")
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing postformat argument %q", key)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("postformat argument %q must be a string: %w", key, err)
	}
	return s, nil
}
