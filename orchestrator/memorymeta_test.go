package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Shubhamnegi/agent-core/domain"
)

func searchResponseEvent(t *testing.T, response map[string]any) domain.Event {
	t.Helper()
	return domain.Event{
		Type:    domain.EventADKEvent,
		Payload: map[string]any{"kind": "function_response", "name": "search_relevant_memory", "response": response},
	}
}

func TestMergeMemoryUsage_IgnoresUnrelatedEvents(t *testing.T) {
	usage := MergeMemoryUsage(MemoryUsage{}, domain.Event{Type: domain.EventADKPrompt})
	assert.Equal(t, MemoryUsage{}, usage)
}

func TestMergeMemoryUsage_IgnoresZeroCountSearch(t *testing.T) {
	ev := searchResponseEvent(t, map[string]any{"status": "ok", "count": 0, "results": []domain.MemoryRecord{}})
	usage := MergeMemoryUsage(MemoryUsage{}, ev)
	assert.False(t, usage.Used)
}

func TestMergeMemoryUsage_FoldsResultsAndKeepsLatestTimestamp(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.MemoryRecord{
		{CreatedAt: older, Value: map[string]any{"memory_text": "likes dark mode"}},
		{CreatedAt: newer, Value: map[string]any{"memory_text": "prefers email over chat"}},
	}
	ev := searchResponseEvent(t, map[string]any{"status": "ok", "count": len(records), "results": records})

	usage := MergeMemoryUsage(MemoryUsage{}, ev)
	assert.True(t, usage.Used)
	assert.Equal(t, newer, usage.CreatedAt)
	assert.Equal(t, "likes dark mode", usage.Summary)
}

func TestMergeMemoryUsage_UsedStaysTrueOnceSet(t *testing.T) {
	usage := MemoryUsage{Used: true, Summary: "already have one"}
	usage = MergeMemoryUsage(usage, searchResponseEvent(t, map[string]any{"status": "ok", "count": 0, "results": []domain.MemoryRecord{}}))
	assert.True(t, usage.Used)
	assert.Equal(t, "already have one", usage.Summary)
}

func TestRecordSummary_PrefersMemoryText(t *testing.T) {
	rec := domain.MemoryRecord{Value: map[string]any{"memory_text": "short note", "domain": "billing"}}
	assert.Equal(t, "short note", recordSummary(rec))
}

func TestRecordSummary_BuildsFromDomainIntentEntitiesWhenNoMemoryText(t *testing.T) {
	rec := domain.MemoryRecord{Value: map[string]any{
		"domain":   "billing",
		"intent":   "refund_request",
		"entities": []any{"invoice_42", "card_ending_1234", "order_9", "region_us", "tier_pro", "extra_sixth"},
	}}
	summary := recordSummary(rec)
	assert.Equal(t, "domain: billing; intent: refund_request; entities: invoice_42, card_ending_1234, order_9, region_us, tier_pro", summary)
}

func TestRecordSummary_DecodesBlobJSONFirst(t *testing.T) {
	rec := domain.MemoryRecord{Value: map[string]any{"blob_json": `{"memory_text":"from blob"}`}}
	assert.Equal(t, "from blob", recordSummary(rec))
}

func TestRecordSummary_EmptyWhenNothingUsable(t *testing.T) {
	rec := domain.MemoryRecord{Value: map[string]any{}}
	assert.Equal(t, "", recordSummary(rec))
}

func TestMemoryUsage_AgeDays(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	usage := MemoryUsage{CreatedAt: now.AddDate(0, 0, -45)}
	assert.Equal(t, 45, usage.AgeDays(now))
}

func TestMemoryUsage_AgeDaysZeroWhenUnset(t *testing.T) {
	var usage MemoryUsage
	assert.Equal(t, 0, usage.AgeDays(time.Now()))
}
