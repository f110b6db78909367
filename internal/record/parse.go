package record

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
)

// ParseResponse turns raw model output into fully-populated record
// candidates. Markdown code fences are stripped first; a bare object is
// wrapped into a one-element array (the model sometimes collapses
// single-page documents). Malformed JSON is a hard failure; missing or
// unknown fields are tolerated. Every declared field is defaulted to ""
// except gender, which defaults to "0".
func ParseResponse(raw string, logger *slog.Logger) ([]Record, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cleaned := StripFences(raw)

	var elems []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &elems); err != nil {
		var single map[string]any
		if err2 := json.Unmarshal([]byte(cleaned), &single); err2 != nil {
			logger.Error("parse.invalid_json", "error", err, "raw", raw)
			return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
		}
		elems = []map[string]any{single}
	}

	out := make([]Record, 0, len(elems))
	for _, m := range elems {
		out = append(out, projectRecord(m))
	}
	return out, nil
}

// StripFences removes markdown code-fence markers and surrounding whitespace.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// projectRecord keeps exactly the declared fields and drops everything else.
func projectRecord(m map[string]any) Record {
	return Record{
		ID:         uuid.New().String(),
		Name:       fieldString(m, "name", ""),
		Furigana:   fieldString(m, "furigana", ""),
		Gender:     fieldString(m, "gender", "0"),
		DOBYear:    fieldString(m, "dobYear", ""),
		DOBMonth:   fieldString(m, "dobMonth", ""),
		DOBDay:     fieldString(m, "dobDay", ""),
		PostalCode: fieldString(m, "postalCode", ""),
		Address:    fieldString(m, "address", ""),
		Phone:      fieldString(m, "phone", ""),
		Occupation: fieldString(m, "occupation", ""),
		CardNumber: fieldString(m, "cardNumber", ""),
	}
}

// fieldString reads m[key] as a string, coercing numeric values the model
// may emit for fields like dobYear or gender. Missing, null, or empty values
// fall back to def.
func fieldString(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return def
	default:
		return def
	}
}
