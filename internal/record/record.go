// Package record holds the extracted application entry model, the model
// response parser, field normalization, and the in-memory record store.
package record

// Record is one extracted application entry. Every declared field is always
// present as a string (possibly empty); the parser guarantees this shape.
// SourceRef/SourceKind are provenance, stamped by the orchestrator when the
// record is appended, never by the model.
type Record struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Furigana   string `json:"furigana"`
	Gender     string `json:"gender"` // "0" unknown/other, "1" male, "2" female
	DOBYear    string `json:"dobYear"`
	DOBMonth   string `json:"dobMonth"`
	DOBDay     string `json:"dobDay"`
	PostalCode string `json:"postalCode"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	CardNumber string `json:"cardNumber"` // expected 8 digits; dedup key
	SourceRef  string `json:"_sourceRef,omitempty"`
	SourceKind string `json:"_sourceKind,omitempty"`
}

// Provenance is the shared source handle attached to every record produced
// from one uploaded file.
type Provenance struct {
	Ref  string
	Kind string // MIME type
}

// SortKey names a sortable/filterable column.
type SortKey string

const (
	KeyName       SortKey = "name"
	KeyFurigana   SortKey = "furigana"
	KeyGender     SortKey = "gender"
	KeyDOBYear    SortKey = "dobYear"
	KeyPostalCode SortKey = "postalCode"
	KeyPhone      SortKey = "phone"
	KeyOccupation SortKey = "occupation"
	KeyCardNumber SortKey = "cardNumber"
)

// sortValue returns the field a view is ordered by.
func (r Record) sortValue(key SortKey) string {
	switch key {
	case KeyName:
		return r.Name
	case KeyFurigana:
		return r.Furigana
	case KeyGender:
		return r.Gender
	case KeyDOBYear:
		return r.DOBYear
	case KeyPostalCode:
		return r.PostalCode
	case KeyPhone:
		return r.Phone
	case KeyOccupation:
		return r.Occupation
	case KeyCardNumber:
		return r.CardNumber
	default:
		return ""
	}
}
