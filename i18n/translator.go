package i18n

import "strings"

// Translator retrieves localized messages for error codes.
// data provides optional values substituted into "{key}" placeholders (for
// example "name" or "path").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"missing_type":         "member has no type",
		"invalid_name":         "invalid member name {name}",
		"no_members":           "no members",
		"duplicate_member":     "duplicate member {name} in {owner}",
		"invalid_values":       "invalid values",
		"invalid_value_type":   "invalid value type {type}",
		"incompatible_version": "incompatible schema version {version}",
		"invalid_version":      "malformed schema version",
		"file_not_found":       "file not found",
		"read_failed":          "file could not be read",
		"duplicate_document":   "document already loaded",
		"empty_document":       "document declares no members",
		"dependency_cycle":     "cyclic schema dependency",
		"duplicate_key":        "duplicate key",
		"max_depth":            "max depth exceeded",
		"malformed_document":   "malformed schema document",
		"unknown_type":         "unknown type {type}",
		"unsupported_type":     "unsupported type {type}",
		"invalid_descriptor":   "invalid class descriptor",
		"wrong_root":           "wrong root element {name}",
		"malformed_payload":    "malformed payload",
		"invalid_value":        "invalid value for {name}",
		"short_buffer":         "unexpected end of payload",
		"trailing_bytes":       "unexpected trailing bytes",
	},
	"ja": {
		"missing_type":         "メンバーに型がありません",
		"invalid_name":         "メンバー名が不正です {name}",
		"no_members":           "メンバーがありません",
		"duplicate_member":     "メンバーが重複しています {name}",
		"invalid_values":       "値が不正です",
		"invalid_value_type":   "値の型が不正です {type}",
		"incompatible_version": "スキーマのバージョンに互換性がありません {version}",
		"invalid_version":      "バージョンの形式が不正です",
		"file_not_found":       "ファイルが見つかりません",
		"read_failed":          "ファイルを読み込めません",
		"duplicate_document":   "ドキュメントは既に読み込まれています",
		"empty_document":       "ドキュメントにメンバーがありません",
		"dependency_cycle":     "依存関係が循環しています",
		"duplicate_key":        "キーが重複しています",
		"max_depth":            "ネストが深すぎます",
		"malformed_document":   "スキーマドキュメントの形式が不正です",
		"unknown_type":         "未知の型です {type}",
		"unsupported_type":     "未対応の型です {type}",
		"invalid_descriptor":   "クラス記述子が不正です",
		"wrong_root":           "ルート要素が違います {name}",
		"malformed_payload":    "ペイロードの形式が不正です",
		"invalid_value":        "値が不正です {name}",
		"short_buffer":         "ペイロードが途中で終わっています",
		"trailing_bytes":       "余分なバイトがあります",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return strings.TrimSpace(stripPlaceholders(msg))
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return strings.TrimSpace(stripPlaceholders(msg))
}

// stripPlaceholders removes placeholders left without data.
func stripPlaceholders(msg string) string {
	for {
		i := strings.IndexByte(msg, '{')
		if i < 0 {
			return msg
		}
		j := strings.IndexByte(msg[i:], '}')
		if j < 0 {
			return msg
		}
		msg = strings.TrimRight(msg[:i], " ") + msg[i+j+1:]
	}
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
