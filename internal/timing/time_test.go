package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  *Time
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"minutes seconds centis", "1:02.30", &Time{Minutes: 1, Seconds: 2, Centis: 30}},
		{"full form", "1:02:03.40", &Time{Hours: 1, Minutes: 2, Seconds: 3, Centis: 40}},
		{"bare seconds", "12.34", &Time{Seconds: 12, Centis: 34}},
		{"bare seconds no fraction carry", "90.50", &Time{Minutes: 1, Seconds: 30, Centis: 50}},
		{"digit run", "1023040", &Time{Hours: 1, Minutes: 2, Seconds: 30, Centis: 40}},
		{"short digit run", "1234", &Time{Seconds: 12, Centis: 34}},
		{"digit run too long", "12345678", nil},
		{"out of bounds colon minutes", "99:99", nil},
		{"out of bounds colon seconds", "1:75.00", nil},
		{"zero", "0.00", nil},
		{"zero digit run", "0000000", nil},
		{"letters", "abc", nil},
		{"mixed letters", "1:0a.30", nil},
		{"too many colons", "1:2:3:4", nil},
		{"two dots", "1.2.3", nil},
		{"fraction truncated", "1.234", &Time{Seconds: 1, Centis: 23}},
		{"fraction padded", "1.5", &Time{Seconds: 1, Centis: 50}},
		{"empty minute group", "1::05.00", &Time{Hours: 1, Seconds: 5}},
		{"hours overflow", "3:00:00.00", nil},
		{"negative", "-5", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCarries(t *testing.T) {
	t.Parallel()

	tm := &Time{Seconds: 59, Centis: 150}
	tm.Normalize()
	assert.Equal(t, &Time{Minutes: 1, Seconds: 0, Centis: 50}, tm)

	tm = &Time{Minutes: 59, Seconds: 61}
	tm.Normalize()
	assert.Equal(t, &Time{Hours: 1, Minutes: 0, Seconds: 1}, tm)
}

func TestApplyPenalty(t *testing.T) {
	t.Parallel()

	base := &Time{Seconds: 59, Centis: 10}

	plus2 := ApplyPenalty(base, PenaltyPlus2)
	assert.Equal(t, &Time{Minutes: 1, Seconds: 1, Centis: 10}, plus2)
	assert.Equal(t, &Time{Seconds: 59, Centis: 10}, base, "input must not be mutated")

	same := ApplyPenalty(base, PenaltyNone)
	assert.Equal(t, base, same)
	assert.NotSame(t, base, same, "must return a copy")

	dnf := ApplyPenalty(base, PenaltyDNF)
	assert.Equal(t, base, dnf)

	assert.Nil(t, ApplyPenalty(nil, PenaltyPlus2))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *Time
		want string
	}{
		{"nil", nil, InvalidTimeStr},
		{"seconds only", &Time{Seconds: 2, Centis: 30}, "2.30"},
		{"minutes", &Time{Minutes: 1, Seconds: 2, Centis: 30}, "1:02.30"},
		{"hours", &Time{Hours: 1, Minutes: 2, Seconds: 3, Centis: 4}, "1:02:03.04"},
		{"no leading zero units", &Time{Minutes: 10, Seconds: 0, Centis: 0}, "10:00.00"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestFormatWithPenalty(t *testing.T) {
	t.Parallel()

	tm := &Time{Seconds: 10, Centis: 50}
	assert.Equal(t, "10.50", FormatWithPenalty(tm, PenaltyNone))
	assert.Equal(t, "12.50+", FormatWithPenalty(tm, PenaltyPlus2))
	assert.Equal(t, DNFString, FormatWithPenalty(tm, PenaltyDNF))

	// +2 pushing hours past the limit yields the invalid marker.
	edge := &Time{Hours: 1, Minutes: 59, Seconds: 59, Centis: 0}
	assert.Equal(t, InvalidTimeStr, FormatWithPenalty(edge, PenaltyPlus2))

	for _, p := range []Penalty{PenaltyNone, PenaltyPlus2, PenaltyDNF} {
		assert.Equal(t, InvalidTimeStr, FormatWithPenalty(nil, p))
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	t.Parallel()

	times := []*Time{
		{Centis: 1},
		{Seconds: 12, Centis: 34},
		{Minutes: 1, Seconds: 2, Centis: 30},
		{Hours: 1, Minutes: 59, Seconds: 59, Centis: 99},
	}

	for _, tm := range times {
		packed := Pack(tm)
		require.GreaterOrEqual(t, packed, 0)
		assert.Equal(t, tm, Unpack(packed))
	}

	assert.Equal(t, NullCentis, Pack(nil))
	assert.Nil(t, Unpack(NullCentis))
	assert.Nil(t, Unpack(-42))
}

func TestPackKnownValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 6230, Pack(&Time{Minutes: 1, Seconds: 2, Centis: 30}))
	assert.Equal(t, 1000, Pack(&Time{Seconds: 10}))
	assert.Equal(t, "10.00", FormatCentis(1000))
	assert.Equal(t, InvalidTimeStr, FormatCentis(NullCentis))
}

func TestApplyPenaltyCentis(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1200, ApplyPenaltyCentis(1000, PenaltyPlus2))
	assert.Equal(t, 1000, ApplyPenaltyCentis(1000, PenaltyNone))
	assert.Equal(t, 1000, ApplyPenaltyCentis(1000, PenaltyDNF))
}
