package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders records as a header line followed by indented
// fields. Info records show a curated field list and suppress values that
// repeat for the same job; debug records dump every attribute.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
	seen      map[string]map[string]string
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{
		mu:        &sync.Mutex{},
		writer:    w,
		level:     lvl,
		addSource: addSource,
		seen:      make(map[string]map[string]string),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})
	kvs = dedupeKVsByKey(kvs)

	head := header{
		ts:      timestamp,
		level:   record.Level,
		message: strings.TrimSpace(record.Message),
	}
	if head.message == "" {
		head.message = "(no message)"
	}
	if h.addSource {
		head.source = record.Source()
	}
	fields := make([]kv, 0, len(kvs))
	for _, item := range kvs {
		switch item.key {
		case FieldComponent:
			head.component = plainValue(item.value)
			continue
		case FieldJobID:
			head.jobID = plainValue(item.value)
		case FieldStage:
			head.stage = plainValue(item.value)
		}
		fields = append(fields, item)
	}

	var buf bytes.Buffer
	buf.Grow(256 + len(fields)*32)

	h.mu.Lock()
	defer h.mu.Unlock()
	head.write(&buf)
	if record.Level < slog.LevelInfo {
		writeAllFields(&buf, fields)
	} else {
		h.writeSummaryFields(&buf, head, fields)
	}
	_, err := h.writer.Write(buf.Bytes())
	return err
}

type header struct {
	ts        time.Time
	level     slog.Level
	component string
	jobID     string
	stage     string
	message   string
	source    *slog.Source
}

func (hd header) write(buf *bytes.Buffer) {
	buf.WriteString(formatTimestamp(hd.ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(hd.level))
	if hd.component != "" {
		buf.WriteString(" [")
		buf.WriteString(hd.component)
		buf.WriteByte(']')
	}
	if subject := FormatSubject(hd.jobID, hd.stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(hd.message)
	if hd.source != nil {
		buf.WriteString(" [")
		buf.WriteString(filepath.Base(hd.source.File))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(hd.source.Line))
		buf.WriteByte(']')
	}
	buf.WriteByte('\n')
}

func (h *prettyHandler) writeSummaryFields(buf *bytes.Buffer, hd header, attrs []kv) {
	fields, hidden := selectInfoFields(attrs)
	fields = h.dropRepeated(hd, fields)
	for _, field := range fields {
		buf.WriteString("    - ")
		buf.WriteString(field.label)
		buf.WriteString(": ")
		buf.WriteString(field.value)
		buf.WriteByte('\n')
	}
	if hidden > 0 {
		buf.WriteString("    + ")
		buf.WriteString(strconv.Itoa(hidden))
		buf.WriteString(" more field")
		if hidden != 1 {
			buf.WriteByte('s')
		}
		buf.WriteString(" hidden\n")
	}
}

func writeAllFields(buf *bytes.Buffer, attrs []kv) {
	for _, item := range attrs {
		buf.WriteString("    ")
		buf.WriteString(item.key)
		buf.WriteString(": ")
		buf.WriteString(quotedValue(item.value))
		buf.WriteByte('\n')
	}
}

// dropRepeated hides info fields whose value has not changed since the last
// record for the same job or component. Warnings and errors always print
// their full field list.
func (h *prettyHandler) dropRepeated(hd header, fields []infoField) []infoField {
	key := hd.jobID
	if key == "" {
		key = hd.component
	}
	if key == "" || len(fields) == 0 {
		return fields
	}
	cache, ok := h.seen[key]
	if !ok {
		cache = make(map[string]string)
		h.seen[key] = cache
	}
	if hd.level > slog.LevelInfo {
		for _, field := range fields {
			cache[field.label] = field.value
		}
		return fields
	}
	kept := fields[:0]
	for _, field := range fields {
		if prev, ok := cache[field.label]; ok && prev == field.value {
			continue
		}
		cache[field.label] = field.value
		kept = append(kept, field)
	}
	return kept
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *prettyHandler) clone() *prettyHandler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	clone.groups = append([]string(nil), h.groups...)
	return &clone
}

type kv struct {
	key   string
	value slog.Value
}

// dedupeKVsByKey keeps the first position of each key and the last value.
func dedupeKVsByKey(attrs []kv) []kv {
	positions := make(map[string]int, len(attrs))
	deduped := make([]kv, 0, len(attrs))
	for _, attr := range attrs {
		if attr.key == "" {
			continue
		}
		if pos, ok := positions[attr.key]; ok {
			deduped[pos].value = attr.value
			continue
		}
		positions[attr.key] = len(deduped)
		deduped = append(deduped, attr)
	}
	return deduped
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), attr.Key), ".")
		key = strings.TrimSuffix(key, ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
