package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/timing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 17, c.Len())

	ev := c.ByID("333")
	require.NotNil(t, ev)
	assert.Equal(t, "3x3x3", ev.Title)
	assert.Equal(t, domain.FormatAverage5, ev.Format)
	assert.Equal(t, "333", ev.ScrambleType)

	assert.Nil(t, c.ByID("nope"))
}

func TestFormatAttemptCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, domain.FormatAverage5.AttemptCount())
	assert.Equal(t, 3, domain.FormatMean3.AttemptCount())
	assert.Equal(t, 3, domain.FormatBest3.AttemptCount())
	assert.Equal(t, domain.VariableAttempts, domain.FormatMulti.AttemptCount())
	assert.Equal(t, 0, domain.Format("bogus").AttemptCount())
}

func TestEmptyAttempts(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	attempts := EmptyAttempts(c.ByID("333"))
	require.Len(t, attempts, 5)
	for _, a := range attempts {
		assert.Equal(t, timing.NullCentis, a.Centis)
		assert.Equal(t, timing.PenaltyNone, a.Penalty)
		assert.Nil(t, a.Extra)
		assert.False(t, a.Recorded())
	}

	// variable-shape formats get exactly one slot, seeded with the template
	mbld := EmptyAttempts(c.ByID("mbld"))
	require.Len(t, mbld, 1)
	require.NotNil(t, mbld[0].Extra)
	assert.False(t, mbld[0].Recorded(), "seeded template must not count as recorded")

	// templates are copies, not shared with the catalog definition
	fmc := EmptyAttempts(c.ByID("fmc"))
	require.Len(t, fmc, 3)
	require.NotNil(t, fmc[0].Extra)
	fmc[0].Extra.Solution = append(fmc[0].Extra.Solution, "R")
	assert.Empty(t, c.ByID("fmc").ExtraArgs.Solution)
	assert.Empty(t, fmc[1].Extra.Solution)
}

func TestScrambleLength(t *testing.T) {
	t.Parallel()

	assert.Zero(t, ScrambleLength(&domain.Event{}), "no expectancy means generator default")
	assert.Equal(t, 60, ScrambleLength(&domain.Event{ScrambleLen: 60}))

	ev := &domain.Event{ScrambleLen: 70, ScrambleRad: 5}
	for i := 0; i < 50; i++ {
		got := ScrambleLength(ev)
		assert.GreaterOrEqual(t, got, 65)
		assert.LessOrEqual(t, got, 75)
	}
}
