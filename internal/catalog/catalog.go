// Package catalog holds the static registry of competition event
// definitions. The set is loaded once from an embedded JSON file, frozen,
// and looked up by event id.
package catalog

import (
	_ "embed"
	"encoding/json"
	"math/rand"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/timing"
)

//go:embed events.json
var eventsData []byte

// Catalog is the loaded event registry.
type Catalog struct {
	events []domain.Event
	byID   map[string]*domain.Event
}

// Load parses the embedded event set. The returned catalog is immutable.
func Load() (*Catalog, error) {
	var events []domain.Event
	if err := json.Unmarshal(eventsData, &events); err != nil {
		return nil, err
	}

	c := &Catalog{
		events: events,
		byID:   make(map[string]*domain.Event, len(events)),
	}
	for i := range c.events {
		c.byID[c.events[i].ID] = &c.events[i]
	}
	return c, nil
}

// ByID looks up an event definition. Returns nil for unknown ids.
func (c *Catalog) ByID(id string) *domain.Event {
	return c.byID[id]
}

// All returns the full event set in catalog order.
func (c *Catalog) All() []domain.Event {
	return c.events
}

// Len returns the number of catalog events.
func (c *Catalog) Len() int {
	return len(c.events)
}

// EmptyAttempts builds a fresh all-unset attempt list of the length the
// event's format expects (one slot for variable-shape formats), seeding each
// slot with the event's extra-args template when present.
func EmptyAttempts(ev *domain.Event) []domain.Attempt {
	n := ev.Format.AttemptCount()
	if n < 1 {
		n = 1
	}

	attempts := make([]domain.Attempt, n)
	for i := range attempts {
		attempts[i] = domain.Attempt{
			Centis:  timing.NullCentis,
			Penalty: timing.PenaltyNone,
			Extra:   ev.ExtraArgs.Clone(),
		}
	}
	return attempts
}

// ScrambleLength samples a scramble length for the event: the expected
// length when no radius is set, otherwise a uniform draw from
// [mean-radius, mean+radius]. Zero means "generator default".
func ScrambleLength(ev *domain.Event) int {
	if ev.ScrambleLen <= 0 {
		return 0
	}
	if ev.ScrambleRad <= 0 {
		return ev.ScrambleLen
	}
	return ev.ScrambleLen - ev.ScrambleRad + rand.Intn(2*ev.ScrambleRad+1)
}
