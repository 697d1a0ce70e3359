package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisclosure_MemoryDisabledPrependsFlatNote(t *testing.T) {
	out := Disclosure("here you go", true, MemoryUsage{}, time.Now())
	assert.Contains(t, out, "did not use memory")
	assert.Contains(t, out, "here you go")
}

func TestDisclosure_UsedMemoryAttributesWithoutStalenessWhenFresh(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	usage := MemoryUsage{Used: true, CreatedAt: now.AddDate(0, 0, -2), Summary: "prefers email"}
	out := Disclosure("answer", false, usage, now)
	assert.Contains(t, out, "Applied memory: prefers email")
	assert.NotContains(t, out, "may be stale")
}

func TestDisclosure_UsedMemoryAddsStalenessCaveatWhenOld(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	usage := MemoryUsage{Used: true, CreatedAt: now.AddDate(0, 0, -45), Summary: "prefers email"}
	out := Disclosure("answer", false, usage, now)
	assert.Contains(t, out, "may be stale")
	assert.Contains(t, out, "45 days ago")
}

func TestDisclosure_UnchangedWhenMemoryNotUsedAndNotDisabled(t *testing.T) {
	out := Disclosure("plain answer", false, MemoryUsage{}, time.Now())
	assert.Equal(t, "plain answer", out)
}
