package scoring

import "math"

// V2Inputs carries the per-direction statistics the second-generation
// formula scores
type V2Inputs struct {
	EmailsSent            int
	EmailsReceived        int
	AvgRecipientsSent     float64
	AvgRecipientsReceived float64
	ReplyRate             float64
	DaysSinceContact      int
}

// V2Result is the score plus the breakdown fields written onto the edge
type V2Result struct {
	Score           int
	GroupMultiplier float64
}

// ScoreV2 is the second-generation strength formula. Volume is logarithmic
// so bulk senders stop accumulating credit, recency decays exponentially,
// reciprocity rewards balanced back-and-forth, and two penalties knock down
// broadcast traffic: a group multiplier for large recipient lists and a
// newsletter penalty for one-way streams that never get replies.
func ScoreV2(in V2Inputs) V2Result {
	sent := in.EmailsSent
	received := in.EmailsReceived
	total := sent + received

	volume := 0.0
	if total > 0 {
		volume = 5 + 10*math.Log10(float64(total)+1)
		if volume > 35 {
			volume = 35
		}
	}

	recency := 25 * math.Exp(-float64(in.DaysSinceContact)/365)

	reciprocity := 0.0
	switch {
	case sent > 0 && received > 0:
		lo, hi := float64(sent), float64(received)
		if lo > hi {
			lo, hi = hi, lo
		}
		reciprocity = 25 * lo / hi
	case sent > 0 || received > 0:
		reciprocity = 5
	}

	replyBonus := 15 * in.ReplyRate

	base := volume + recency + reciprocity + replyBonus

	groupMult := GroupMultiplier((in.AvgRecipientsSent + in.AvgRecipientsReceived) / 2)

	newsletterPen := 1.0
	switch {
	case received >= 3 && sent >= 2 && in.ReplyRate == 0:
		newsletterPen = 0.7
	case received >= 5 && sent == 0:
		newsletterPen = 0.5
	}

	return V2Result{
		Score:           clamp(int(base * groupMult * newsletterPen)),
		GroupMultiplier: groupMult,
	}
}

// GroupMultiplier discounts relationships conducted mostly over large
// recipient lists
func GroupMultiplier(avgRecipients float64) float64 {
	switch {
	case avgRecipients > 20:
		return 0.5
	case avgRecipients > 10:
		return 0.7
	case avgRecipients > 5:
		return 0.85
	default:
		return 1.0
	}
}
