// Package arbfile implements the ARB (Application Resource Bundle)
// localization document model.
//
// An ARB document is a JSON object whose root is an ordered key→value
// mapping:
//
//   - "@@locale" holds the BCP-47 locale tag.
//   - Keys starting with "@" (other than "@@locale") are metadata
//     entries annotating the key without the prefix (e.g. "@greeting"
//     describes "greeting"). Metadata is preserved verbatim and never
//     translated.
//   - All other string values are translatable text.
//
// Key order from the source file is preserved on round-trip, with
// "@@locale" always serialized first. Writes are atomic: the document
// is staged to a temp file in the target directory and renamed over the
// destination, so an interrupted write never truncates an existing
// catalog.
package arbfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocaleKey is the reserved locale tag key.
const LocaleKey = "@@locale"

// ---------------------------------------------------------------------------
// Document model
// ---------------------------------------------------------------------------

// entry is a single key in document order.
type entry struct {
	key     string
	value   string          // decoded string value (translatable entries only)
	isMeta  bool            // "@"-prefixed keys, including @@locale
	decoded bool            // value holds a decoded string; raw is authoritative otherwise
	raw     json.RawMessage // original JSON value bytes
}

// Document is a parsed ARB document.
type Document struct {
	locale  string
	entries []entry
	index   map[string]int
}

// New returns an empty document for the given locale.
func New(locale string) *Document {
	d := &Document{index: make(map[string]int)}
	d.SetLocale(locale)
	return d
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an ARB document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses ARB content. The root must be a JSON object; key order
// is preserved via token-stream decoding.
func Parse(data []byte) (*Document, error) {
	d := &Document{index: make(map[string]int)}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid ARB document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("invalid ARB document: root must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading ARB key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("reading ARB key: expected string, got %T", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("reading ARB value for %q: %w", key, err)
		}

		e := entry{
			key:    key,
			isMeta: strings.HasPrefix(key, "@"),
			raw:    raw,
		}

		if key == LocaleKey {
			var s string
			_ = json.Unmarshal(raw, &s)
			d.locale = s
		} else if !e.isMeta {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				e.value = s
				e.decoded = true
			}
		}

		d.index[key] = len(d.entries)
		d.entries = append(d.entries, e)
	}

	return d, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Locale returns the @@locale value.
func (d *Document) Locale() string { return d.locale }

// SetLocale sets the locale tag, inserting the @@locale entry at the
// front if the document does not have one yet.
func (d *Document) SetLocale(locale string) {
	d.locale = locale
	raw, _ := json.Marshal(locale)
	if idx, ok := d.index[LocaleKey]; ok {
		d.entries[idx].raw = raw
		return
	}
	d.entries = append([]entry{{key: LocaleKey, isMeta: true, raw: raw}}, d.entries...)
	d.index = make(map[string]int, len(d.entries))
	for i, e := range d.entries {
		d.index[e.key] = i
	}
}

// Has reports whether key exists in the document (any entry kind).
func (d *Document) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// Keys returns all translatable (non-metadata) keys in document order.
func (d *Document) Keys() []string {
	var keys []string
	for _, e := range d.entries {
		if !e.isMeta {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Get returns the value of a translatable key. Keys holding non-string
// JSON values miss: they are preserved verbatim but never translated.
func (d *Document) Get(key string) (string, bool) {
	if idx, ok := d.index[key]; ok && !d.entries[idx].isMeta && d.entries[idx].decoded {
		return d.entries[idx].value, true
	}
	return "", false
}

// Set sets the value of a translatable key, appending the key at the
// end of the document if it is not present. Metadata keys are rejected.
func (d *Document) Set(key, value string) bool {
	if strings.HasPrefix(key, "@") {
		return false
	}
	raw, _ := json.Marshal(value)
	if idx, ok := d.index[key]; ok {
		if d.entries[idx].isMeta {
			return false
		}
		d.entries[idx].value = value
		d.entries[idx].decoded = true
		d.entries[idx].raw = raw
		return true
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, entry{key: key, value: value, decoded: true, raw: raw})
	return true
}

// Meta returns the raw metadata value stored under metaKey ("@greeting").
func (d *Document) Meta(metaKey string) (json.RawMessage, bool) {
	if idx, ok := d.index[metaKey]; ok && d.entries[idx].isMeta {
		return d.entries[idx].raw, true
	}
	return nil, false
}

// SetMeta stores raw metadata under metaKey, appending if absent.
// Non-"@" keys are rejected.
func (d *Document) SetMeta(metaKey string, raw json.RawMessage) bool {
	if !strings.HasPrefix(metaKey, "@") || metaKey == LocaleKey {
		return false
	}
	if idx, ok := d.index[metaKey]; ok {
		if !d.entries[idx].isMeta {
			return false
		}
		d.entries[idx].raw = raw
		return true
	}
	d.index[metaKey] = len(d.entries)
	d.entries = append(d.entries, entry{key: metaKey, isMeta: true, raw: raw})
	return true
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	cp := &Document{
		locale:  d.locale,
		entries: make([]entry, len(d.entries)),
		index:   make(map[string]int, len(d.index)),
	}
	for i, e := range d.entries {
		e.raw = append(json.RawMessage(nil), e.raw...)
		cp.entries[i] = e
	}
	for k, v := range d.index {
		cp.index[k] = v
	}
	return cp
}

// Stats returns (total, translated) counts over translatable entries.
func (d *Document) Stats() (int, int) {
	total, translated := 0, 0
	for _, e := range d.entries {
		if !e.isMeta {
			total++
			if strings.TrimSpace(e.value) != "" {
				translated++
			}
		}
	}
	return total, translated
}

// ---------------------------------------------------------------------------
// Translation selection
// ---------------------------------------------------------------------------

// TranslatableKeys returns the keys eligible for translation: non-meta
// entries with non-blank source text, excluding the skip set.
func (d *Document) TranslatableKeys(skip map[string]struct{}) []string {
	var keys []string
	for _, e := range d.entries {
		if e.isMeta || strings.TrimSpace(e.value) == "" {
			continue
		}
		if _, skipped := skip[e.key]; skipped {
			continue
		}
		keys = append(keys, e.key)
	}
	return keys
}

// MissingKeys computes the diff between a source document and an
// existing target: a key is missing if target lacks it or holds an
// empty/whitespace-only value. Metadata entries and the locale tag are
// never considered. A nil target yields every translatable source key.
func MissingKeys(src, target *Document) []string {
	var missing []string
	for _, e := range src.entries {
		if e.isMeta || !e.decoded {
			continue
		}
		if target == nil {
			missing = append(missing, e.key)
			continue
		}
		v, ok := target.Get(e.key)
		if !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, e.key)
		}
	}
	return missing
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serializes the document with 2-space indentation, @@locale
// first, remaining keys in document order.
func (d *Document) Marshal() ([]byte, error) {
	var rendered []string

	appendEntry := func(e entry) {
		keyBytes, _ := json.Marshal(e.key)
		var val []byte
		switch {
		case !e.isMeta && e.decoded:
			val, _ = json.Marshal(e.value)
		default:
			// Metadata and non-string values pass through verbatim.
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, e.raw, "  ", "  "); err == nil {
				val = pretty.Bytes()
			} else {
				val = e.raw
			}
		}
		rendered = append(rendered, fmt.Sprintf("  %s: %s", keyBytes, val))
	}

	if idx, ok := d.index[LocaleKey]; ok {
		appendEntry(d.entries[idx])
	}
	for _, e := range d.entries {
		if e.key == LocaleKey {
			continue
		}
		appendEntry(e)
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	buf.WriteString(strings.Join(rendered, ",\n"))
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// WriteFile atomically serializes and writes the document to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
