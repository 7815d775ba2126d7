// Package codegen builds short, human readable sequential identifiers such as
// BEAT-LAG-004 or GRD00017.
//
// The next number is derived by scanning the codes already issued in a
// partition and taking max+1. That scan and the caller's insert are not atomic,
// so two concurrent callers for the same partition may compute the same
// candidate. Generator narrows the window with one existence check across the
// whole collection and, on a hit, appends a 4 digit timestamp suffix instead of
// rescanning. Callers are expected to back the code column with a unique
// constraint so a lost race still fails loudly rather than duplicating.
package codegen

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxDerivedPrefix bounds the length of a prefix derived from a name.
const MaxDerivedPrefix = 3

// Scheme is the shape of one family of codes.
// With a Base the format is BASE-PREFIX-NNN, without it PREFIXNNNNN.
type Scheme struct {
	Base  string
	Width int
}

// Format renders the code for a prefix and sequence number.
func (s Scheme) Format(prefix string, n int) string {
	if s.Base == "" {
		return fmt.Sprintf("%s%0*d", prefix, s.Width, n)
	}
	return fmt.Sprintf("%s-%s-%0*d", s.Base, prefix, s.Width, n)
}

// Pattern matches codes of this scheme for prefix, capturing the number.
func (s Scheme) Pattern(prefix string) *regexp.Regexp {
	if s.Base == "" {
		return regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `(\d+)$`)
	}
	return regexp.MustCompile("^" + regexp.QuoteMeta(s.Base) + "-" + regexp.QuoteMeta(prefix) + `-(\d+)$`)
}

// LikePattern is a SQL LIKE expression that pre-filters candidate codes.
func (s Scheme) LikePattern(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(prefix)
	if s.Base == "" {
		return escaped + "%"
	}
	return s.Base + "-" + escaped + "-%"
}

// Next returns max+1 over the existing codes that match prefix. Codes that do
// not match the pattern, fallback-suffixed codes included, are ignored.
func (s Scheme) Next(prefix string, existing []string) string {
	pattern := s.Pattern(prefix)
	max := 0
	for _, code := range existing {
		match := pattern.FindStringSubmatch(code)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return s.Format(prefix, max+1)
}

// DerivePrefix takes the first letter of each word, uppercased, truncated to
// MaxDerivedPrefix. Short names give short prefixes; nothing is padded.
func DerivePrefix(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		if count == MaxDerivedPrefix {
			break
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		count++
	}
	return b.String()
}

// WithTimestampSuffix appends the last four digits of now in milliseconds.
func WithTimestampSuffix(code string, now time.Time) string {
	return fmt.Sprintf("%s-%04d", code, now.UnixMilli()%10000)
}

// Source reads the codes a Generator works from.
type Source interface {
	// PartitionCodes lists issued codes in partition matching the SQL LIKE pattern.
	PartitionCodes(ctx context.Context, partition, like string) ([]string, error)
	// CodeExists checks the full collection, regardless of partition.
	CodeExists(ctx context.Context, code string) (bool, error)
}

// SourceFuncs adapts two functions into a Source.
type SourceFuncs struct {
	List   func(ctx context.Context, partition, like string) ([]string, error)
	Exists func(ctx context.Context, code string) (bool, error)
}

// PartitionCodes implements Source.
func (f SourceFuncs) PartitionCodes(ctx context.Context, partition, like string) ([]string, error) {
	return f.List(ctx, partition, like)
}

// CodeExists implements Source.
func (f SourceFuncs) CodeExists(ctx context.Context, code string) (bool, error) {
	return f.Exists(ctx, code)
}

// CollisionFunc observes candidates that were already taken.
type CollisionFunc func(scheme Scheme, partition, candidate string)

// Generator issues codes for one Scheme.
type Generator struct {
	scheme      Scheme
	source      Source
	now         func() time.Time
	onCollision CollisionFunc
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for fallback suffixes.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithCollisionHook registers a callback for collision fallbacks.
func WithCollisionHook(fn CollisionFunc) Option {
	return func(g *Generator) {
		g.onCollision = fn
	}
}

// NewGenerator builds a Generator over source.
func NewGenerator(scheme Scheme, source Source, opts ...Option) *Generator {
	g := &Generator{scheme: scheme, source: source, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Scheme exposes the generator's code shape.
func (g *Generator) Scheme() Scheme {
	return g.scheme
}

// Generate returns the next code for prefix within partition.
func (g *Generator) Generate(ctx context.Context, partition, prefix string) (string, error) {
	existing, err := g.source.PartitionCodes(ctx, partition, g.scheme.LikePattern(prefix))
	if err != nil {
		return "", fmt.Errorf("list codes for %q: %w", prefix, err)
	}
	candidate := g.scheme.Next(prefix, existing)

	taken, err := g.source.CodeExists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("check code %s: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}
	if g.onCollision != nil {
		g.onCollision(g.scheme, partition, candidate)
	}
	return WithTimestampSuffix(candidate, g.now()), nil
}
