package arbfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleARB = `{
  "@@locale": "en",
  "greeting": "Hello, {name}!",
  "@greeting": {
    "description": "A greeting message"
  },
  "farewell": "Goodbye!"
}
`

func TestParse_Basic(t *testing.T) {
	d, err := Parse([]byte(sampleARB))
	if err != nil {
		t.Fatal(err)
	}
	if d.Locale() != "en" {
		t.Errorf("locale = %q, want en", d.Locale())
	}
	if v, _ := d.Get("greeting"); v != "Hello, {name}!" {
		t.Errorf("greeting = %q", v)
	}
	if v, _ := d.Get("farewell"); v != "Goodbye!" {
		t.Errorf("farewell = %q", v)
	}
}

func TestParse_RootMustBeObject(t *testing.T) {
	for _, bad := range []string{`[]`, `"text"`, `42`, `not json`} {
		if _, err := Parse([]byte(bad)); err == nil {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func TestKeys_ExcludesMetadata(t *testing.T) {
	d, err := Parse([]byte(sampleARB))
	if err != nil {
		t.Fatal(err)
	}
	keys := d.Keys()
	for _, k := range keys {
		if strings.HasPrefix(k, "@") {
			t.Errorf("metadata key %q should not appear in Keys()", k)
		}
	}
	if !reflect.DeepEqual(keys, []string{"greeting", "farewell"}) {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestSet_AddsMissingKey(t *testing.T) {
	d := New("es")
	if !d.Set("hello", "Hola") {
		t.Fatal("Set returned false")
	}
	if v, ok := d.Get("hello"); !ok || v != "Hola" {
		t.Errorf("hello = %q, %v", v, ok)
	}
}

func TestSet_RejectsMetadataKey(t *testing.T) {
	d := New("es")
	if d.Set("@hello", "nope") {
		t.Error("Set should reject @-prefixed keys")
	}
}

func TestMeta_RoundTrip(t *testing.T) {
	d, err := Parse([]byte(sampleARB))
	if err != nil {
		t.Fatal(err)
	}
	raw, ok := d.Meta("@greeting")
	if !ok {
		t.Fatal("@greeting metadata missing")
	}
	target := New("fr")
	if !target.SetMeta("@greeting", raw) {
		t.Fatal("SetMeta failed")
	}
	got, ok := target.Meta("@greeting")
	if !ok || !strings.Contains(string(got), "A greeting message") {
		t.Errorf("copied metadata = %s", got)
	}
}

func TestSetLocale_InsertsTagFirst(t *testing.T) {
	d, err := Parse([]byte(`{"a": "x"}`))
	if err != nil {
		t.Fatal(err)
	}
	d.SetLocale("de")
	out, err := d.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Index(s, `"@@locale"`) > strings.Index(s, `"a"`) {
		t.Errorf("@@locale should be serialized first:\n%s", s)
	}
	if d.Locale() != "de" {
		t.Errorf("locale = %q", d.Locale())
	}
}

func TestClone_Independent(t *testing.T) {
	d, err := Parse([]byte(sampleARB))
	if err != nil {
		t.Fatal(err)
	}
	cp := d.Clone()
	cp.Set("greeting", "changed")
	cp.SetLocale("ru")

	if v, _ := d.Get("greeting"); v != "Hello, {name}!" {
		t.Errorf("original mutated: %q", v)
	}
	if d.Locale() != "en" {
		t.Errorf("original locale mutated: %q", d.Locale())
	}
}

func TestTranslatableKeys_SkipAndBlank(t *testing.T) {
	d, err := Parse([]byte(`{
  "@@locale": "en",
  "appTitle": "MyApp",
  "hello": "Hello",
  "blank": "  ",
  "@hello": {"description": ""}
}`))
	if err != nil {
		t.Fatal(err)
	}
	skip := map[string]struct{}{"appTitle": {}}
	keys := d.TranslatableKeys(skip)
	if !reflect.DeepEqual(keys, []string{"hello"}) {
		t.Errorf("TranslatableKeys = %v, want [hello]", keys)
	}
}

// ---------------------------------------------------------------------------
// MissingKeys (diff)
// ---------------------------------------------------------------------------

func TestMissingKeys_EmptyTarget(t *testing.T) {
	src, _ := Parse([]byte(`{"@@locale":"en","a":"1","b":"2","c":"3"}`))
	target, _ := Parse([]byte(`{}`))
	got := MissingKeys(src, target)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("MissingKeys = %v", got)
	}
}

func TestMissingKeys_IdenticalTarget(t *testing.T) {
	src, _ := Parse([]byte(`{"@@locale":"en","a":"1","b":"2"}`))
	if got := MissingKeys(src, src); got != nil {
		t.Errorf("MissingKeys(src, src) = %v, want empty", got)
	}
}

func TestMissingKeys_BlankCountsAsMissing(t *testing.T) {
	src, _ := Parse([]byte(`{"a":"hello","b":"world"}`))
	target, _ := Parse([]byte(`{"a":"hola","b":"   "}`))
	got := MissingKeys(src, target)
	if !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("MissingKeys = %v, want [b]", got)
	}
}

func TestMissingKeys_MetadataExcluded(t *testing.T) {
	src, _ := Parse([]byte(sampleARB))
	target, _ := Parse([]byte(`{}`))
	for _, k := range MissingKeys(src, target) {
		if strings.HasPrefix(k, "@") {
			t.Errorf("metadata key %q in missing set", k)
		}
	}
}

func TestMissingKeys_NilTarget(t *testing.T) {
	src, _ := Parse([]byte(`{"a":"1","b":"2"}`))
	got := MissingKeys(src, nil)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("MissingKeys(src, nil) = %v", got)
	}
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func TestMarshal_RoundTrip(t *testing.T) {
	d, err := Parse([]byte(sampleARB))
	if err != nil {
		t.Fatal(err)
	}
	out, err := d.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if d2.Locale() != "en" {
		t.Errorf("locale lost: %q", d2.Locale())
	}
	if v, _ := d2.Get("greeting"); v != "Hello, {name}!" {
		t.Errorf("greeting lost: %q", v)
	}
	if _, ok := d2.Meta("@greeting"); !ok {
		t.Error("@greeting metadata lost")
	}
}

func TestWriteFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app_es.arb")

	d := New("es")
	d.Set("hello", "Hola")
	if err := d.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	// Overwrite with new content; no temp files may remain.
	d.Set("hello", "¡Hola!")
	if err := d.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory should hold only the output file, got %d entries", len(entries))
	}
	got, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Get("hello"); v != "¡Hola!" {
		t.Errorf("hello = %q", v)
	}
}

func TestNonStringValuePreservedVerbatim(t *testing.T) {
	d, err := Parse([]byte(`{
  "@@locale": "en",
  "version": 3,
  "flags": {"beta": true},
  "greeting": "Hello"
}`))
	if err != nil {
		t.Fatal(err)
	}

	// Non-string values are opaque: never translatable, never rewritten.
	if _, ok := d.Get("version"); ok {
		t.Error("Get should miss for a non-string value")
	}
	if keys := d.TranslatableKeys(nil); len(keys) != 1 || keys[0] != "greeting" {
		t.Errorf("translatable keys = %v, want [greeting]", keys)
	}
	if keys := MissingKeys(d, New("es")); len(keys) != 1 || keys[0] != "greeting" {
		t.Errorf("missing keys = %v, want [greeting]", keys)
	}

	out, err := d.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"version": 3`) {
		t.Errorf("numeric value lost on round-trip:\n%s", out)
	}
	if !strings.Contains(string(out), `"beta": true`) {
		t.Errorf("object value lost on round-trip:\n%s", out)
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparsing marshaled output: %v", err)
	}
	if v, _ := reparsed.Get("greeting"); v != "Hello" {
		t.Errorf("greeting = %q", v)
	}
}
