// Package testutils provides deterministic generators and utility functions for neuralchat testing.
// These utilities ensure consistent test output while maintaining production format compatibility.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"neuralchat/pkg/chattypes"

	"github.com/google/uuid"
)

var (
	// Thread-safe counter for deterministic ID generation
	idCounter uint64
	idMutex   sync.Mutex

	// Thread-safe counter for deterministic timestamp generation
	timeCounter int64
	timeMutex   sync.Mutex

	// Thread-safe counter for deterministic code block identifiers
	codeIDCounter uint64
	codeIDMutex   sync.Mutex
)

// GenerateUUID generates a UUID that is deterministic in test mode but random in production.
// In test mode, returns UUIDs in format: 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002, etc.
// In production mode, returns standard random UUIDs.
func GenerateUUID(ctx chattypes.Context) string {
	if ctx.IsTestMode() {
		return getDeterministicUUID()
	}
	return uuid.New().String()
}

// GetCurrentTime returns the current time, deterministic in test mode but real in production.
// In test mode, returns incrementing time starting from 2025-01-01T00:00:00Z
// In production mode, returns time.Now()
func GetCurrentTime(ctx chattypes.Context) time.Time {
	if ctx.IsTestMode() {
		return getDeterministicTime()
	}
	return time.Now()
}

// GenerateSessionID generates a new session identifier.
// In test mode, returns format: session_1609459200 (fixed timestamp)
// In production mode, returns format: session_<unix_timestamp>_<short uuid>
func GenerateSessionID(ctx chattypes.Context) string {
	if ctx.IsTestMode() {
		return fmt.Sprintf("session_%d", 1609459200+nextID())
	}
	// The uuid suffix keeps two sessions created within the same second apart.
	return fmt.Sprintf("session_%d_%s", time.Now().Unix(), GenerateUUID(ctx)[:8])
}

// GenerateCodeBlockID generates the synthetic identifier attached to a
// rendered code block for its copy affordance.
// In test mode, returns code_1, code_2, etc. for stable rendered output.
func GenerateCodeBlockID(ctx chattypes.Context) string {
	if ctx.IsTestMode() {
		codeIDMutex.Lock()
		defer codeIDMutex.Unlock()
		codeIDCounter++
		return fmt.Sprintf("code_%d", codeIDCounter)
	}
	return "code_" + GenerateUUID(ctx)
}

func nextID() uint64 {
	idMutex.Lock()
	defer idMutex.Unlock()
	idCounter++
	return idCounter
}

// getDeterministicUUID generates a deterministic UUID maintaining UUID v4 format.
// Returns UUIDs like: 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002
func getDeterministicUUID() string {
	n := nextID()
	// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
	// Where 4 indicates version 4, and y is 8, 9, a, or b (we use 8 for simplicity)
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", n, n)
}

// getDeterministicTime generates incrementing deterministic timestamps for test mode.
// Each call returns a time that is 1 second later than the previous call.
// First call: 2025-01-01T00:00:01Z, second call: 2025-01-01T00:00:02Z, etc.
func getDeterministicTime() time.Time {
	timeMutex.Lock()
	defer timeMutex.Unlock()

	timeCounter++
	baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return baseTime.Add(time.Duration(timeCounter) * time.Second)
}

// ResetTestCounters resets the deterministic counters for testing.
// This should only be called from test code to ensure consistent test runs.
func ResetTestCounters() {
	idMutex.Lock()
	timeMutex.Lock()
	codeIDMutex.Lock()
	defer idMutex.Unlock()
	defer timeMutex.Unlock()
	defer codeIDMutex.Unlock()

	idCounter = 0
	timeCounter = 0
	codeIDCounter = 0
}
