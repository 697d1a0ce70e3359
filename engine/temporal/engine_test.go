package temporal

import (
	"testing"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Shubhamnegi/agent-core/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(Options{TaskQueue: "agent-core"})
	require.Error(t, err)
}

func TestNew_RequiresTaskQueue(t *testing.T) {
	cli, err := client.NewLazyClient(client.Options{})
	require.NoError(t, err)
	defer cli.Close()

	_, err = New(Options{Client: cli})
	require.Error(t, err)
}

func TestRetryPolicy_ZeroValueYieldsNilPolicy(t *testing.T) {
	assert.Nil(t, retryPolicy(engine.RetryPolicy{}))
}

func TestRetryPolicy_CarriesConfiguredFields(t *testing.T) {
	rp := retryPolicy(engine.RetryPolicy{MaxAttempts: 5, InitialInterval: time.Second, BackoffCoefficient: 2})
	require.NotNil(t, rp)
	assert.Equal(t, int32(5), rp.MaximumAttempts)
	assert.Equal(t, time.Second, rp.InitialInterval)
	assert.Equal(t, 2.0, rp.BackoffCoefficient)
}
