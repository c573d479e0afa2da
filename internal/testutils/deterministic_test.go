package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"neuralchat/internal/context"
	"neuralchat/internal/storage"
)

func newModeContext(testMode bool) *context.ChatContext {
	ctx := context.New(storage.NewMemoryStore())
	ctx.SetTestMode(testMode)
	return ctx
}

func TestGenerateUUID_Deterministic(t *testing.T) {
	ResetTestCounters()
	ctx := newModeContext(true)

	assert.Equal(t, "00000001-0000-4000-8000-000000000001", GenerateUUID(ctx))
	assert.Equal(t, "00000002-0000-4000-8000-000000000002", GenerateUUID(ctx))
}

func TestGenerateUUID_ProductionIsRandom(t *testing.T) {
	ctx := newModeContext(false)
	first := GenerateUUID(ctx)
	second := GenerateUUID(ctx)
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}

func TestGetCurrentTime_DeterministicIncrements(t *testing.T) {
	ResetTestCounters()
	ctx := newModeContext(true)

	first := GetCurrentTime(ctx)
	second := GetCurrentTime(ctx)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC), first)
	assert.Equal(t, time.Second, second.Sub(first))
}

func TestGenerateSessionID_Formats(t *testing.T) {
	ResetTestCounters()

	assert.Equal(t, "session_1609459201", GenerateSessionID(newModeContext(true)))
	assert.Regexp(t, `^session_\d+_[0-9a-f-]{8}$`, GenerateSessionID(newModeContext(false)))
}

func TestGenerateSessionID_ProductionSuffixIsUUIDDerived(t *testing.T) {
	ctx := newModeContext(false)
	first := GenerateSessionID(ctx)
	second := GenerateSessionID(ctx)
	assert.NotEqual(t, first, second)
}

func TestGenerateCodeBlockID_ProductionFormat(t *testing.T) {
	ctx := newModeContext(false)
	id := GenerateCodeBlockID(ctx)
	assert.Regexp(t, `^code_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
	assert.NotEqual(t, id, GenerateCodeBlockID(ctx))
}

func TestGenerateCodeBlockID_Deterministic(t *testing.T) {
	ResetTestCounters()
	ctx := newModeContext(true)

	assert.Equal(t, "code_1", GenerateCodeBlockID(ctx))
	assert.Equal(t, "code_2", GenerateCodeBlockID(ctx))
}

func TestResetTestCounters(t *testing.T) {
	ctx := newModeContext(true)
	GenerateUUID(ctx)
	GenerateCodeBlockID(ctx)

	ResetTestCounters()
	assert.Equal(t, "00000001-0000-4000-8000-000000000001", GenerateUUID(ctx))
	assert.Equal(t, "code_1", GenerateCodeBlockID(ctx))
}
