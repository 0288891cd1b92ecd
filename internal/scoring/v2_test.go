package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreV2_Range(t *testing.T) {
	cases := []V2Inputs{
		{},
		{EmailsSent: 1},
		{EmailsReceived: 1},
		{EmailsSent: 500, EmailsReceived: 500, ReplyRate: 1.0},
		{EmailsSent: 500, EmailsReceived: 500, ReplyRate: 1.0, DaysSinceContact: 0},
		{EmailsSent: 3, EmailsReceived: 7, AvgRecipientsSent: 30, AvgRecipientsReceived: 50, DaysSinceContact: 2000},
	}
	for _, in := range cases {
		result := ScoreV2(in)
		assert.GreaterOrEqual(t, result.Score, 0, "%+v", in)
		assert.LessOrEqual(t, result.Score, 100, "%+v", in)
	}
}

func TestScoreV2_ZeroInteraction(t *testing.T) {
	assert.Equal(t, 0, ScoreV2(V2Inputs{DaysSinceContact: 10000}).Score)
}

func TestScoreV2_MonotonicInReplyRate(t *testing.T) {
	base := V2Inputs{
		EmailsSent:            10,
		EmailsReceived:        6,
		AvgRecipientsSent:     2,
		AvgRecipientsReceived: 1,
		DaysSinceContact:      30,
	}

	prev := -1
	for _, rate := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1.0} {
		in := base
		in.ReplyRate = rate
		score := ScoreV2(in).Score
		assert.GreaterOrEqual(t, score, prev, "reply_rate=%v", rate)
		prev = score
	}
}

func TestScoreV2_NewsletterPenalty(t *testing.T) {
	// 5 newsletters received, nothing sent, huge recipient lists:
	// the 0.5 penalty and 0.5 group multiplier stack into a low score
	newsletter := ScoreV2(V2Inputs{
		EmailsReceived:        5,
		AvgRecipientsReceived: 50,
		DaysSinceContact:      10,
	})
	assert.Equal(t, 0.5, newsletter.GroupMultiplier)
	assert.Less(t, newsletter.Score, 20)

	// Same volume in a genuine two-way thread scores far higher
	genuine := ScoreV2(V2Inputs{
		EmailsSent:            3,
		EmailsReceived:        2,
		AvgRecipientsSent:     1,
		AvgRecipientsReceived: 1,
		ReplyRate:             0.5,
		DaysSinceContact:      10,
	})
	assert.Greater(t, genuine.Score, newsletter.Score)
}

func TestScoreV2_OneWayActivePenalty(t *testing.T) {
	// Contact sends plenty, I keep sending, never a reply: 0.7 penalty
	withReplies := ScoreV2(V2Inputs{
		EmailsSent: 2, EmailsReceived: 3, ReplyRate: 0.5, DaysSinceContact: 10,
	})
	noReplies := ScoreV2(V2Inputs{
		EmailsSent: 2, EmailsReceived: 3, ReplyRate: 0, DaysSinceContact: 10,
	})
	assert.Greater(t, withReplies.Score, noReplies.Score)
}

func TestGroupMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, GroupMultiplier(1))
	assert.Equal(t, 1.0, GroupMultiplier(5))
	assert.Equal(t, 0.85, GroupMultiplier(6))
	assert.Equal(t, 0.7, GroupMultiplier(11))
	assert.Equal(t, 0.5, GroupMultiplier(25))
}

func TestScoreV2_ReciprocityRewardsBalance(t *testing.T) {
	balanced := ScoreV2(V2Inputs{EmailsSent: 10, EmailsReceived: 10, DaysSinceContact: 3650})
	lopsided := ScoreV2(V2Inputs{EmailsSent: 19, EmailsReceived: 1, DaysSinceContact: 3650})
	assert.Greater(t, balanced.Score, lopsided.Score)
}
