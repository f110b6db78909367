package record

import "strings"

// Normalize applies deterministic formatting to a record. Pure, total, and
// idempotent: Normalize(Normalize(r)) == Normalize(r). Runs only when a
// record is explicitly committed via save-edit, so raw model output stays
// visible for review until then.
func Normalize(r Record) Record {
	r.Phone = normalizePhone(r.Phone)
	return r
}

// normalizePhone strips non-digit characters and reformats Japanese numbers:
// 11 digits -> XXX-XXXX-XXXX, 10 digits -> XXX-XXX-XXXX. Any other digit
// count leaves the input exactly as entered; length mismatches are not
// errors.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()
	switch len(digits) {
	case 11:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case 10:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	default:
		return phone
	}
}

// SplitLegacyDOB breaks a combined date-of-birth string from an old snapshot
// into the split year/month/day fields. Accepts "/", "-" and "." separators.
// Anything that does not split into three parts lands in the year field
// untouched so no data is silently lost.
func SplitLegacyDOB(dob string) (year, month, day string) {
	s := strings.TrimSpace(dob)
	if s == "" {
		return "", "", ""
	}
	s = strings.ReplaceAll(s, "-", "/")
	s = strings.ReplaceAll(s, ".", "/")
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s, "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
}
