package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreV1_Range(t *testing.T) {
	for _, count := range []int{0, 1, 5, 8, 50, 200, 10000} {
		for _, days := range []int{0, 29, 30, 365, 900, 5000} {
			for _, bidi := range []bool{false, true} {
				score := ScoreV1(count, days, bidi)
				assert.GreaterOrEqual(t, score, 0, "count=%d days=%d bidi=%v", count, days, bidi)
				assert.LessOrEqual(t, score, 100, "count=%d days=%d bidi=%v", count, days, bidi)
			}
		}
	}
}

func TestScoreV1_ZeroEmails(t *testing.T) {
	// Zero volume means zero score regardless of recency or bonus
	for _, days := range []int{0, 100, 10000} {
		assert.Equal(t, 0, ScoreV1(0, days, false))
		assert.Equal(t, 0, ScoreV1(0, days, true))
	}
}

func TestScoreV1_Maximum(t *testing.T) {
	assert.Equal(t, 100, ScoreV1(200, 0, true))
}

func TestScoreV1_Components(t *testing.T) {
	// Volume caps at 40: 8 emails reach it
	assert.Equal(t, 40, ScoreV1(8, 900, false))
	// Recency decays linearly to zero at 900 days
	assert.Equal(t, 40+30, ScoreV1(8, 0, false))
	assert.Equal(t, 40+15, ScoreV1(8, 450, false))
	// Bidirectional bonus is flat 30
	assert.Equal(t, 40+30, ScoreV1(8, 900, true))
	// Small volume: 2 emails -> base 10
	assert.Equal(t, 10, ScoreV1(2, 900, false))
}

func TestDaysSince(t *testing.T) {
	assert.Equal(t, DefaultDaysSinceContact, DaysSince(time.Time{}))
	assert.Equal(t, 0, DaysSince(time.Now()))
	assert.Equal(t, 10, DaysSince(time.Now().Add(-10*24*time.Hour-time.Hour)))
	// Future dates clamp to zero rather than going negative
	assert.Equal(t, 0, DaysSince(time.Now().Add(48*time.Hour)))
}
