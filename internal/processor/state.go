package processor

// State tracks how far a file has progressed through the pipeline. States
// only ever advance; a failure at any stage moves the file to StateFailed
// after rollback.
type State string

const (
	StateDiscovered       State = "discovered"
	StateValidated        State = "validated"
	StateBackedUp         State = "backed_up"
	StateMetadataResolved State = "metadata_resolved"
	StateRenamed          State = "renamed"
	StateTagged           State = "tagged"
	StateVerified         State = "verified"
	StateFailed           State = "failed"
)

// undoAction reverses one applied pipeline mutation. Actions are pushed as
// mutations happen and run in reverse order on rollback.
type undoAction struct {
	description string
	run         func() error
}

// undoLog collects the applied mutations for one file so a failure can put
// the file back the way it was found.
type undoLog struct {
	actions []undoAction
}

func (u *undoLog) push(description string, run func() error) {
	u.actions = append(u.actions, undoAction{description: description, run: run})
}

// unwind runs the recorded actions newest-first and clears the log, so a
// second unwind is a no-op. It returns the descriptions of actions that
// failed alongside a combined error.
func (u *undoLog) unwind() []error {
	var failures []error
	for i := len(u.actions) - 1; i >= 0; i-- {
		action := u.actions[i]
		if err := action.run(); err != nil {
			failures = append(failures, Wrap(ErrRollback, "rollback", action.description, "", err))
		}
	}
	u.actions = nil
	return failures
}
