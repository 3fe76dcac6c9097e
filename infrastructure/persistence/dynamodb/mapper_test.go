package dynamodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSerializationIsFixedWidthAndSortable(t *testing.T) {
	early := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC)
	late := early.Add(137 * time.Millisecond)

	earlyStr := formatTime(early)
	lateStr := formatTime(late)

	assert.Len(t, earlyStr, len(timeFormat))
	assert.Len(t, lateStr, len(timeFormat))
	assert.Less(t, earlyStr, lateStr)

	parsed, err := parseTime(earlyStr)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(early))
}

func TestParseTimeRejectsMalformedInput(t *testing.T) {
	_, err := parseTime("2026-01-02 03:04:05")
	require.Error(t, err)
}

// advance must keep updatedAt strictly increasing even when two writes
// land inside the clock's resolution.
func TestAdvanceIsStrictlyMonotonic(t *testing.T) {
	prev := clock()
	for i := 0; i < 5; i++ {
		next := advance(prev)
		assert.True(t, next.After(prev))
		prev = next
	}
}

func TestAdvanceInTheFarFutureStillMovesForward(t *testing.T) {
	future := clock().Add(time.Hour)
	assert.True(t, advance(future).After(future))
}
