package item

import (
	"errors"
	"testing"
	"time"

	"github.com/jzx17/juiceplant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_String(t *testing.T) {
	assert.Equal(t, "Fetched", StageFetched.String())
	assert.Equal(t, "Peeled", StagePeeled.String())
	assert.Equal(t, "Squeezed", StageSqueezed.String())
	assert.Equal(t, "Bottled", StageBottled.String())
	assert.Equal(t, "Processed", StageProcessed.String())
	assert.Equal(t, "Unknown", Stage(42).String())
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("squeezed")
	require.NoError(t, err)
	assert.Equal(t, StageSqueezed, s)

	s, err = ParseStage(" Bottled ")
	require.NoError(t, err)
	assert.Equal(t, StageBottled, s)

	_, err = ParseStage("juiced")
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
}

func TestDefaultStageTable(t *testing.T) {
	table := DefaultStageTable()

	assert.Equal(t, StageFetched, table.Initial())
	assert.Equal(t, StageProcessed, table.Terminal())
	assert.Equal(t,
		[]Stage{StageFetched, StagePeeled, StageSqueezed, StageBottled, StageProcessed},
		table.Stages())

	assert.Equal(t, 15*time.Millisecond, table.Duration(StageFetched))
	assert.Equal(t, 38*time.Millisecond, table.Duration(StagePeeled))
	assert.Equal(t, 29*time.Millisecond, table.Duration(StageSqueezed))
	assert.Equal(t, 17*time.Millisecond, table.Duration(StageBottled))
	assert.Equal(t, 1*time.Millisecond, table.Duration(StageProcessed))
}

func TestStageTable_Next(t *testing.T) {
	table := DefaultStageTable()

	tests := []struct {
		from Stage
		to   Stage
		ok   bool
	}{
		{StageFetched, StagePeeled, true},
		{StagePeeled, StageSqueezed, true},
		{StageSqueezed, StageBottled, true},
		{StageBottled, StageProcessed, true},
		{StageProcessed, StageProcessed, false},
		{Stage(99), Stage(99), false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			next, ok := table.Next(tt.from)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.to, next)
		})
	}
}

func TestNewStageTable_Overrides(t *testing.T) {
	table, err := NewStageTable(map[Stage]time.Duration{
		StagePeeled:    0,
		StageProcessed: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), table.Duration(StagePeeled))
	assert.Equal(t, 5*time.Millisecond, table.Duration(StageProcessed))
	assert.Equal(t, 15*time.Millisecond, table.Duration(StageFetched))

	// overrides never touch the shared defaults
	assert.Equal(t, 38*time.Millisecond, DefaultStageTable().Duration(StagePeeled))

	durations := table.Durations()
	durations[StageFetched] = time.Hour
	assert.Equal(t, 15*time.Millisecond, table.Duration(StageFetched))
}

func TestNewStageTable_Invalid(t *testing.T) {
	_, err := NewStageTable(map[Stage]time.Duration{StageBottled: -time.Millisecond})
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))

	_, err = NewStageTable(map[Stage]time.Duration{Stage(7): time.Millisecond})
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
}

func TestStageTable_Reaches(t *testing.T) {
	table := DefaultStageTable()
	for _, s := range table.Stages() {
		assert.True(t, table.Reaches(s), s.String())
	}
	assert.False(t, table.Reaches(Stage(-1)))
}

func TestStageTable_CycleDuration(t *testing.T) {
	table := DefaultStageTable()

	// fetch at creation, then Fetched, Peeled and Squeezed advances
	assert.Equal(t, 97*time.Millisecond, table.CycleDuration(StageBottled))
	assert.Equal(t, 114*time.Millisecond, table.CycleDuration(StageProcessed))
	assert.Equal(t, 15*time.Millisecond, table.CycleDuration(StageFetched))
}
