package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutation_RunOrder(t *testing.T) {
	var calls []string
	m := Mutation{
		Apply: func() { calls = append(calls, "apply") },
		Commit: func(ctx context.Context) error {
			calls = append(calls, "commit")
			return nil
		},
		Reconcile: func(ctx context.Context) { calls = append(calls, "reconcile") },
	}

	assert.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []string{"apply", "commit", "reconcile"}, calls)
}

func TestMutation_ReconcilesAfterFailedCommit(t *testing.T) {
	boom := errors.New("boom")
	state := 1
	reconciled := false
	m := Mutation{
		Apply:     func() { state++ },
		Commit:    func(ctx context.Context) error { return boom },
		Reconcile: func(ctx context.Context) { state = 1; reconciled = true },
	}

	err := m.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, reconciled)
	assert.Equal(t, 1, state)
}

func TestMutation_OptionalPhases(t *testing.T) {
	reconciled := false
	m := Mutation{Reconcile: func(ctx context.Context) { reconciled = true }}
	assert.NoError(t, m.Run(context.Background()))
	assert.True(t, reconciled)
}
