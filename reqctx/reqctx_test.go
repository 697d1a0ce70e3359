package reqctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_ReturnsNilWhenUnset(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}

func TestWithToolRuntime_RoundTrips(t *testing.T) {
	rt := &ToolRuntime{TenantID: "t1", SessionID: "s1", TaskID: "plan-1:abcd"}
	ctx := WithToolRuntime(context.Background(), rt)

	got := FromContext(ctx)
	assert.Same(t, rt, got)
	assert.Equal(t, "t1", got.TenantID)
}

func TestRelease_ClearsFields(t *testing.T) {
	rt := &ToolRuntime{TenantID: "t1", SessionID: "s1", TaskID: "plan-1:abcd"}
	Release(rt)
	assert.Equal(t, &ToolRuntime{}, rt)
}

func TestRelease_NilIsNoop(t *testing.T) {
	Release(nil)
}
