package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"mobile 11 digits", "09012345678", "090-1234-5678"},
		{"landline 10 digits", "0312345678", "031-234-5678"},
		{"already formatted 11", "090-1234-5678", "090-1234-5678"},
		{"spaces and parens", "(090) 1234 5678", "090-1234-5678"},
		{"too short passes through", "12345", "12345"},
		{"too long passes through", "090123456789", "090123456789"},
		{"empty", "", ""},
		{"non-numeric passes through", "no phone", "no phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(Record{Phone: tc.in})
			assert.Equal(t, tc.want, got.Phone)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	records := []Record{
		{Phone: "09012345678"},
		{Phone: "0312345678"},
		{Phone: "12345"},
		{Phone: "(03) 1234-5678"},
		{Name: "Taro", Phone: "", CardNumber: "12345678"},
	}
	for _, r := range records {
		once := Normalize(r)
		twice := Normalize(once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeLeavesOtherFields(t *testing.T) {
	r := Record{
		ID:         "abc",
		Name:       "Taro",
		Furigana:   "タロウ",
		Gender:     "1",
		DOBYear:    "1990",
		Phone:      "09012345678",
		SourceRef:  "batch/file.pdf",
		SourceKind: "application/pdf",
	}
	got := Normalize(r)
	r.Phone = "090-1234-5678"
	assert.Equal(t, r, got)
}

func TestSplitLegacyDOB(t *testing.T) {
	cases := []struct {
		in                        string
		wantYear, wantMonth, wantDay string
	}{
		{"1990/01/02", "1990", "01", "02"},
		{"1990-01-02", "1990", "01", "02"},
		{"1990.1.2", "1990", "1", "2"},
		{"", "", "", ""},
		{"1990", "1990", "", ""},
	}
	for _, tc := range cases {
		y, m, d := SplitLegacyDOB(tc.in)
		assert.Equal(t, tc.wantYear, y, tc.in)
		assert.Equal(t, tc.wantMonth, m, tc.in)
		assert.Equal(t, tc.wantDay, d, tc.in)
	}
}
