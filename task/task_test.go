package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type legacyTask struct {
	setup, execute, cleanup int
}

func (l *legacyTask) Setup(context.Context) error   { l.setup++; return nil }
func (l *legacyTask) Execute(context.Context) error { l.execute++; return nil }
func (l *legacyTask) Cleanup(context.Context) error { l.cleanup++; return nil }

func TestFromLegacyAdaptsSetupExecuteCleanup(t *testing.T) {
	legacy := &legacyTask{}
	var tsk Task = FromLegacy(legacy)

	require.NoError(t, tsk.Init(context.Background()))
	require.NoError(t, tsk.Execute(context.Background(), 7))
	require.NoError(t, tsk.Execute(context.Background(), 8))
	require.NoError(t, tsk.Teardown(context.Background()))

	assert.Equal(t, 1, legacy.setup)
	assert.Equal(t, 2, legacy.execute)
	assert.Equal(t, 1, legacy.cleanup)
}

func TestResultSucceeded(t *testing.T) {
	assert.True(t, Result{}.Succeeded())
	assert.False(t, Result{Err: assertErr}.Succeeded())
}

var assertErr = &stubErr{}

type stubErr struct{}

func (*stubErr) Error() string { return "synthetic failure" }
