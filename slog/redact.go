package slog

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

// Mask replaces redacted values.
const Mask = "[REDACTED]"

// secretKeys are matched against a whole key, or against a run of its
// segments split on '_', '-' and '.', so "x-api-key" matches but "tokens"
// does not.
var secretKeys = [][]string{
	{"api", "key"}, {"apikey"}, {"authorization"}, {"password"}, {"passwd"},
	{"secret"}, {"token"}, {"cookie"}, {"credential"}, {"credentials"},
}

var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{8,}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{30,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`),
}

// RedactingHandler masks attributes whose key names a secret, and secret
// looking substrings in string values, before passing records on.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler wraps next.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(clean)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

// Redact masks secret looking substrings of s.
func Redact(s string) string {
	for _, re := range secretValues {
		s = re.ReplaceAllString(s, Mask)
	}
	return s
}

func redactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		clean := make([]slog.Attr, len(group))
		for i, g := range group {
			clean[i] = redactAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	case slog.KindString:
		if secretKey(a.Key) {
			return slog.String(a.Key, Mask)
		}
		return slog.String(a.Key, Redact(v.String()))
	case slog.KindAny:
		if secretKey(a.Key) {
			return slog.String(a.Key, Mask)
		}
		if err, ok := v.Any().(error); ok && err != nil {
			return slog.String(a.Key, Redact(err.Error()))
		}
	}
	if secretKey(a.Key) {
		return slog.String(a.Key, Mask)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func secretKey(key string) bool {
	segs := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for _, k := range secretKeys {
		if containsRun(segs, k) {
			return true
		}
	}
	return false
}

// containsRun reports whether run appears as consecutive elements of segs.
func containsRun(segs, run []string) bool {
	for i := 0; i+len(run) <= len(segs); i++ {
		if slices.Equal(segs[i:i+len(run)], run) {
			return true
		}
	}
	return false
}

// NewLogger returns a text logger on w that redacts secrets. verbose
// selects Debug level; otherwise only warnings and errors are written.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewRedactingHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
