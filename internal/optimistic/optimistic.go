// Package optimistic runs local-first mutations that always end with an authoritative refetch.
package optimistic

import "context"

// Mutation is a two-phase update. Apply patches local state immediately and must not block.
// Commit sends the change to the server. Reconcile replaces local state with a fresh read and
// runs whatever Commit returned, so a failed Commit discards the speculative patch.
type Mutation struct {
	Apply     func()
	Commit    func(ctx context.Context) error
	Reconcile func(ctx context.Context)
}

// Run executes the phases in order and returns the Commit error.
func (m Mutation) Run(ctx context.Context) error {
	if m.Apply != nil {
		m.Apply()
	}
	var err error
	if m.Commit != nil {
		err = m.Commit(ctx)
	}
	if m.Reconcile != nil {
		m.Reconcile(ctx)
	}
	return err
}
