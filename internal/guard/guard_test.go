package guard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuota_AllowsExactlyLimit(t *testing.T) {
	q := NewQuota("solver", 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Check())
	}
	err := q.Check()
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
	assert.True(t, IsExhausted(err))
	assert.True(t, IsFatal(err))
	assert.Equal(t, 4, q.Used())

	q.Reset()
	assert.Equal(t, 0, q.Used())
	assert.NoError(t, q.Check())
}

func TestQuotaExceededError_Message(t *testing.T) {
	err := &QuotaExceededError{Name: "collision fix", Used: 251, Limit: 250}
	assert.Equal(t, "collision fix exceeded its iteration budget: 251 > 250", err.Error())
}

func TestRuntimeError_Helpers(t *testing.T) {
	load := NewLoadError("rct2.ride.burgb", 4, "object selection window open")
	wrapped := fmt.Errorf("load objects: %w", load)

	assert.True(t, IsLoadError(wrapped))
	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsExhausted(wrapped))
	assert.Equal(t, ErrCodeLoadFailed, Code(wrapped))
	assert.Equal(t, "4", load.Details["index"])

	exhausted := NewExhaustedError("rct2.ride.burgb", 7)
	assert.True(t, IsExhausted(exhausted))
	assert.False(t, IsLoadError(exhausted))

	assert.True(t, IsAlreadyRunning(ErrAlreadyRunning))
	assert.Equal(t, ErrorCode(""), Code(fmt.Errorf("plain")))
	assert.False(t, IsFatal(fmt.Errorf("plain")))
}

func TestRuntimeError_WithStage(t *testing.T) {
	base := NewOrderingError("research queue did not settle")
	staged := base.WithStage("research-queue")

	assert.Equal(t, "", base.Stage, "original untouched")
	assert.Equal(t, "RESEARCH_ORDERING: research queue did not settle (stage=research-queue)", staged.Error())
}

func TestCycleDetector_Visit(t *testing.T) {
	c := NewCycleDetector()
	assert.False(t, c.Visit("obj", "3"))
	assert.True(t, c.Visit("obj", "3"))
	assert.False(t, c.Visit("other", "3"), "scopes are independent")
	assert.Equal(t, 1, c.ScopeSize("obj"))

	c.Clear("obj")
	assert.False(t, c.WouldCycle("obj", "3"))
	c.Record("obj", "5")
	assert.True(t, c.WouldCycle("obj", "5"))
}
