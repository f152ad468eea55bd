// Package overrides holds curated translations and the non-translatable
// key allow-list. Both are plain data injected into the run at
// construction time, so tests and project config can substitute their
// own tables.
//
// An override is consulted before any backend call: a (key, locale)
// match is applied to the output directly and the key never reaches the
// scheduler. The skip list excludes keys from translation entirely,
// regardless of their content.
package overrides

// Table maps key → locale → curated translation.
type Table map[string]map[string]string

// Lookup returns the curated translation for (key, locale), if any.
func (t Table) Lookup(key, locale string) (string, bool) {
	byLocale, ok := t[key]
	if !ok {
		return "", false
	}
	text, ok := byLocale[locale]
	return text, ok
}

// Merge folds other into t, other winning on conflicts.
func (t Table) Merge(other Table) {
	for key, byLocale := range other {
		if t[key] == nil {
			t[key] = make(map[string]string, len(byLocale))
		}
		for locale, text := range byLocale {
			t[key][locale] = text
		}
	}
}

// Default returns the built-in override table: strings whose machine
// translations were reviewed and pinned by hand.
func Default() Table {
	return Table{
		"repeater_daysHoursMinsSecs": {
			"es": "{days} días {hours}h {minutes}m {seconds}s",
			"fr": "{days} jours {hours}h {minutes}m {seconds}s",
			"de": "{days} Tage {hours}h {minutes}m {seconds}s",
			"it": "{days} giorni {hours}h {minutes}m {seconds}s",
			"pt": "{days} dias {hours}h {minutes}m {seconds}s",
			"pl": "{days} dni {hours}h {minutes}m {seconds}s",
			"sk": "{days} dní {hours}h {minutes}m {seconds}s",
			"sl": "{days} dni {hours}h {minutes}m {seconds}s",
			"cs": "{days} dní {hours}h {minutes}m {seconds}s",
			"ja": "{days}日 {hours}時間 {minutes}分 {seconds}秒",
			"ko": "{days}일 {hours}시간 {minutes}분 {seconds}초",
			"zh": "{days}天 {hours}小时 {minutes}分 {seconds}秒",
			"ru": "{days} дней {hours}ч {minutes}м {seconds}с",
			"bg": "{days} дни {hours}ч {minutes}м {seconds}с",
			"nl": "{days} dagen {hours}u {minutes}m {seconds}s",
			"sv": "{days} dagar {hours}t {minutes}m {seconds}s",
		},
	}
}

// DefaultSkipKeys lists keys that are never translated in any locale.
func DefaultSkipKeys() []string {
	return []string{"appTitle"}
}

// SkipSet turns a key list into the lookup set used by the scheduler.
func SkipSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
