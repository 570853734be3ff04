// Package timing implements the attempt time codec: parsing free-form time
// text, carry-normalization, penalty application, display formatting and the
// compact centisecond wire representation.
package timing

import (
	"fmt"
	"strconv"
	"strings"
)

// Penalty applied to a single attempt.
type Penalty int

const (
	PenaltyNone Penalty = iota
	PenaltyPlus2
	PenaltyDNF
)

// Valid reports whether the value is one of the defined penalties.
func (p Penalty) Valid() bool {
	return p >= PenaltyNone && p <= PenaltyDNF
}

// Field bounds. Each unit must stay strictly below its limit.
const (
	MaxCentis  = 100
	MaxSeconds = 60
	MaxMinutes = 60
	MaxHours   = 2
)

// Centiseconds per unit.
const (
	CentisPerSecond = 100
	CentisPerMinute = 60 * CentisPerSecond
	CentisPerHour   = 60 * CentisPerMinute
)

const (
	// NullCentis is the packed value of a missing time.
	NullCentis = -1
	// InvalidTimeStr marks a time that could not be represented.
	InvalidTimeStr = "-"
	// DNFString marks an attempt invalidated by a DNF penalty.
	DNFString = "DNF"
	// Plus2Suffix is appended to times carrying a +2 penalty.
	Plus2Suffix = "+"
)

// digitRunLen is the fixed width of the bare HMMSSCC input form:
// 1 hour digit, 2 minute digits, 2 second digits, 2 centisecond digits.
const digitRunLen = 7

// Time is a structured attempt time. A nil *Time means no time recorded.
type Time struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
	Centis  int `json:"centis"`
}

// Parse analyzes free-form time text into a Time.
//
// Accepted shapes: "H:MM:SS.cc", "MM:SS.cc", "SS.cc" and a bare digit run
// interpreted as HMMSSCC (left-padded with zeros). Colon-delimited minute and
// second groups must already be within bounds; only undelimited values
// (bare seconds, fraction centis, digit runs) are carry-normalized.
// Returns nil for anything malformed, out of bounds, or equal to zero.
func Parse(s string) *Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	noColons := strings.ReplaceAll(s, ":", "")
	if noColons == "" || !isNumeric(noColons) {
		return nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return nil
	}

	hoursStr, minutesStr, secondsStr, centisStr := "0", "0", "0", "0"
	strictMinutes, strictSeconds := false, false
	var ok bool

	switch len(parts) {
	case 3: // H:MM:SS.cc
		hoursStr = parts[0]
		minutesStr = orZero(parts[1])
		secondsStr, centisStr, ok = splitSecondsCentis(parts[2])
		if !ok {
			return nil
		}
		strictMinutes, strictSeconds = true, true
	case 2: // MM:SS.cc
		minutesStr = orZero(parts[0])
		secondsStr, centisStr, ok = splitSecondsCentis(parts[1])
		if !ok {
			return nil
		}
		strictMinutes, strictSeconds = true, true
	default:
		if strings.Contains(s, ".") { // SS.cc
			secondsStr, centisStr, ok = splitSecondsCentis(s)
			if !ok {
				return nil
			}
		} else { // HMMSSCC digit run
			if len(s) > digitRunLen {
				return nil
			}
			padded := strings.Repeat("0", digitRunLen-len(s)) + s
			hoursStr = padded[0:1]
			minutesStr = padded[1:3]
			secondsStr = padded[3:5]
			centisStr = padded[5:7]
		}
	}

	hours, err1 := strconv.Atoi(hoursStr)
	minutes, err2 := strconv.Atoi(minutesStr)
	seconds, err3 := strconv.Atoi(secondsStr)
	centis, err4 := strconv.Atoi(centisStr)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil
	}

	if strictMinutes && minutes >= MaxMinutes {
		return nil
	}
	if strictSeconds && seconds >= MaxSeconds {
		return nil
	}

	t := &Time{Hours: hours, Minutes: minutes, Seconds: seconds, Centis: centis}
	t.Normalize()

	if !t.InBounds() || t.IsZero() {
		return nil
	}
	return t
}

// Normalize carries overflow from centiseconds upward through hours.
// It mutates and returns the receiver; bounds are not re-validated beyond
// the carry itself.
func (t *Time) Normalize() *Time {
	t.Seconds += t.Centis / MaxCentis
	t.Centis %= MaxCentis

	t.Minutes += t.Seconds / MaxSeconds
	t.Seconds %= MaxSeconds

	t.Hours += t.Minutes / MaxMinutes
	t.Minutes %= MaxMinutes

	return t
}

// InBounds reports whether every field is within its legal range.
func (t *Time) InBounds() bool {
	return t.Hours >= 0 && t.Hours < MaxHours &&
		t.Minutes >= 0 && t.Minutes < MaxMinutes &&
		t.Seconds >= 0 && t.Seconds < MaxSeconds &&
		t.Centis >= 0 && t.Centis < MaxCentis
}

// IsZero reports whether the time is exactly zero in all fields.
func (t *Time) IsZero() bool {
	return t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0 && t.Centis == 0
}

// ApplyPenalty returns a normalized copy of t with the penalty applied.
// Plus2 adds two seconds; None and DNF leave the copy untouched.
func ApplyPenalty(t *Time, p Penalty) *Time {
	if t == nil {
		return nil
	}
	cp := *t
	if p == PenaltyPlus2 {
		cp.Seconds += 2
		cp.Normalize()
	}
	return &cp
}

// ApplyPenaltyCentis applies a penalty to a raw centisecond value.
func ApplyPenaltyCentis(centis int, p Penalty) int {
	if p == PenaltyPlus2 {
		return centis + 2*CentisPerSecond
	}
	return centis
}

// Format renders a Time for display, omitting zero-valued leading units:
// "1:02:03.40", "1:02.30", "2.30". A nil time formats as InvalidTimeStr.
func Format(t *Time) string {
	if t == nil {
		return InvalidTimeStr
	}

	switch {
	case t.Hours > 0:
		return fmt.Sprintf("%d:%02d:%02d.%02d", t.Hours, t.Minutes, t.Seconds, t.Centis)
	case t.Minutes > 0:
		return fmt.Sprintf("%d:%02d.%02d", t.Minutes, t.Seconds, t.Centis)
	default:
		return fmt.Sprintf("%d.%02d", t.Seconds, t.Centis)
	}
}

// FormatWithPenalty renders a Time including its penalty. DNF yields the DNF
// marker, Plus2 appends a "+" suffix. If applying the penalty pushes the time
// out of bounds the invalid marker is returned; callers must score that as a
// DNF.
func FormatWithPenalty(t *Time, p Penalty) string {
	if t == nil {
		return InvalidTimeStr
	}
	if p == PenaltyDNF {
		return DNFString
	}

	disp := ApplyPenalty(t, p)
	if !disp.InBounds() {
		return InvalidTimeStr
	}

	formatted := Format(disp)
	if p == PenaltyPlus2 {
		formatted += Plus2Suffix
	}
	return formatted
}

// Pack converts a Time to total centiseconds. A nil time packs to NullCentis.
func Pack(t *Time) int {
	if t == nil {
		return NullCentis
	}
	return t.Centis +
		t.Seconds*CentisPerSecond +
		t.Minutes*CentisPerMinute +
		t.Hours*CentisPerHour
}

// Unpack is the inverse of Pack. Negative input yields nil.
func Unpack(centis int) *Time {
	if centis < 0 {
		return nil
	}

	hours := centis / CentisPerHour
	centis %= CentisPerHour
	minutes := centis / CentisPerMinute
	centis %= CentisPerMinute
	seconds := centis / CentisPerSecond
	centis %= CentisPerSecond

	return &Time{Hours: hours, Minutes: minutes, Seconds: seconds, Centis: centis}
}

// FormatCentis renders a packed centisecond value for display.
func FormatCentis(centis int) string {
	return Format(Unpack(centis))
}

// FormatCentisWithPenalty renders a packed centisecond value with its penalty.
func FormatCentisWithPenalty(centis int, p Penalty) string {
	return FormatWithPenalty(Unpack(centis), p)
}

// isNumeric reports whether s consists of digits with at most one decimal
// point.
func isNumeric(s string) bool {
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// splitSecondsCentis splits "SS.cc" (or bare "SS") into its two groups.
// The fraction is truncated to two digits and right-padded with zeros.
func splitSecondsCentis(s string) (secondsStr, centisStr string, ok bool) {
	dotParts := strings.Split(s, ".")
	if len(dotParts) > 2 {
		return "", "", false
	}

	secondsStr = orZero(dotParts[0])
	centisStr = "0"
	if len(dotParts) == 2 {
		frac := dotParts[1]
		if len(frac) > 2 {
			frac = frac[:2]
		}
		centisStr = frac + strings.Repeat("0", 2-len(frac))
	}
	return secondsStr, centisStr, true
}
