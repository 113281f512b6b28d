package mealsync

import "context"

// transaction is the optimistic mutation pattern shared by every mutating
// operation: capture enough to undo, apply the change locally so the UI
// reflects intent immediately, issue exactly one authoritative request,
// then either commit server-supplied fields or restore the captured state.
//
// apply, commit, and restore run with the form lock held; request runs
// with it released so overlapping mutations from the same viewer can stay
// in flight together. Nothing is retried automatically.
type transaction struct {
	apply   func()
	request func(ctx context.Context) error
	commit  func()
	restore func()
}

// run executes a transaction. On rejection or transport failure the local
// state is restored to the captured pre-mutation value, the user-facing
// message is surfaced, and the error is returned; exactly the failed
// delta is unwound, never anyone else's.
func (f *Form) run(ctx context.Context, op string, t transaction) error {
	f.mu.Lock()
	t.apply()
	f.mu.Unlock()

	if err := t.request(ctx); err != nil {
		f.mu.Lock()
		t.restore()
		f.mu.Unlock()
		f.log.WithError(err).WithField("operation", op).Warn("Mutation rejected, rolled back")
		f.alert(err)
		return err
	}

	if t.commit != nil {
		f.mu.Lock()
		t.commit()
		f.mu.Unlock()
	}
	f.log.WithField("operation", op).Debug("Mutation committed")
	return nil
}
