// Package scoring converts a user's attempt set for one event into the
// single comparable result string, per the event's format.
package scoring

import (
	"fmt"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/timing"
)

// maxDNF is the number of DNF attempts that invalidates an average.
const maxDNF = 2

// ResultString computes the display result for an event's attempt set.
// Attempts carry their own penalties; time penalties are applied here.
// Returns the DNF marker when the format rules invalidate the round and the
// invalid marker when the attempt set is malformed for the format.
func ResultString(ev *domain.Event, attempts []domain.Attempt) string {
	if ev == nil || len(attempts) == 0 {
		return timing.InvalidTimeStr
	}

	switch ev.Format {
	case domain.FormatAverage5:
		return average5(attempts)
	case domain.FormatMean3:
		if ev.MoveCount {
			return moveCountMean(attempts)
		}
		return mean3(attempts)
	case domain.FormatBest3:
		return best3(attempts)
	case domain.FormatMulti:
		return multi(attempts)
	default:
		return timing.InvalidTimeStr
	}
}

// average5 drops the best and worst of 5 attempts and averages the rest.
// A single DNF already counts as the dropped worst; two or more DNFs
// invalidate the average.
func average5(attempts []domain.Attempt) string {
	dnfCount, sum := 0, 0
	lowest, highest := -1, -1

	for _, a := range attempts {
		if a.Penalty == timing.PenaltyDNF {
			dnfCount++
			continue
		}

		c := a.EffectiveCentis()
		sum += c
		if lowest < 0 || c < lowest {
			lowest = c
		}
		if c > highest {
			highest = c
		}
	}

	if dnfCount >= maxDNF {
		return timing.DNFString
	}

	sum -= lowest
	if dnfCount == 0 {
		sum -= highest
	}

	return timing.FormatCentis(sum / 3)
}

// mean3 averages all 3 attempts; any DNF invalidates the mean.
func mean3(attempts []domain.Attempt) string {
	sum := 0
	for _, a := range attempts {
		if a.Penalty == timing.PenaltyDNF {
			return timing.DNFString
		}
		sum += a.EffectiveCentis()
	}
	return timing.FormatCentis(sum / 3)
}

// best3 takes the minimum of the non-DNF attempts. DNF attempts never win;
// a round of only DNFs is itself a DNF.
func best3(attempts []domain.Attempt) string {
	best := -1
	for _, a := range attempts {
		if a.Penalty == timing.PenaltyDNF {
			continue
		}
		c := a.EffectiveCentis()
		if best < 0 || c < best {
			best = c
		}
	}

	if best < 0 {
		return timing.DNFString
	}
	return timing.FormatCentis(best)
}

// multi reports the success/attempt counters from the round's single
// variable-shape attempt, followed by its elapsed time.
func multi(attempts []domain.Attempt) string {
	first := attempts[0]
	if first.Extra == nil {
		return timing.InvalidTimeStr
	}
	if first.Penalty == timing.PenaltyDNF {
		return timing.DNFString
	}

	// Counters can be submitted without a time; render the markers, not a
	// bogus duration.
	elapsed := timing.InvalidTimeStr
	if first.Centis >= 0 {
		elapsed = timing.FormatCentis(first.Centis)
	}
	return fmt.Sprintf("%d/%d %s", first.Extra.NumSuccess, first.Extra.NumAttempt, elapsed)
}

// moveCountMean scores move-count events: the floored mean of each
// attempt's solution length. Any DNF invalidates the round.
func moveCountMean(attempts []domain.Attempt) string {
	sum := 0
	for _, a := range attempts {
		if a.Penalty == timing.PenaltyDNF {
			return timing.DNFString
		}
		if a.Extra == nil {
			return timing.InvalidTimeStr
		}
		sum += len(a.Extra.Solution)
	}
	return fmt.Sprintf("%d", sum/len(attempts))
}
