package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "warmpath/pkg/errors"
)

func TestKnowsEdge_Validate(t *testing.T) {
	now := time.Now()

	valid := KnowsEdge{
		From:         "a@x.com",
		To:           "b@x.com",
		EmailCount:   1,
		FirstContact: now.Add(-24 * time.Hour),
		LastContact:  now,
	}
	assert.NoError(t, valid.Validate())

	inverted := valid
	inverted.FirstContact, inverted.LastContact = inverted.LastContact, inverted.FirstContact
	err := inverted.Validate()
	assert.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))

	selfEdge := valid
	selfEdge.To = selfEdge.From
	assert.Error(t, selfEdge.Validate())

	zeroCount := valid
	zeroCount.EmailCount = 0
	assert.Error(t, zeroCount.Validate())
}

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair("zoe@x.com", "amy@x.com")
	assert.Equal(t, "amy@x.com", a)
	assert.Equal(t, "zoe@x.com", b)

	// Already ordered pairs stay put, case is normalized
	a, b = CanonicalPair("Amy@X.com", "ZOE@x.com")
	assert.Equal(t, "amy@x.com", a)
	assert.Equal(t, "zoe@x.com", b)
}

func TestCCTogetherEdge_Validate(t *testing.T) {
	now := time.Now()

	valid := CCTogetherEdge{A: "amy@x.com", B: "zoe@x.com", CCCount: 1, FirstSeen: now, LastSeen: now}
	assert.NoError(t, valid.Validate())

	unordered := CCTogetherEdge{A: "zoe@x.com", B: "amy@x.com", CCCount: 1}
	assert.Error(t, unordered.Validate())
}

func TestIdentity(t *testing.T) {
	id := NewIdentity("Me@Work.com", " me@personal.com ", "")
	assert.Equal(t, "me@work.com", id.Primary())
	assert.True(t, id.Contains("ME@personal.com"))
	assert.False(t, id.Contains("other@x.com"))

	assert.Equal(t, "", Identity{}.Primary())
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "acme.com", EmailDomain("Jane@Acme.com"))
	assert.Equal(t, "", EmailDomain("not-an-email"))
	assert.Equal(t, "", EmailDomain("trailing@"))
}
