package application

// searchAppliedMsg reports that the debouncer committed a search term.
type searchAppliedMsg string

// statusMsg replaces the status line.
type statusMsg string

// errMsg reports a failed command.
type errMsg struct{ Err error }

// reloadedMsg is sent after the source was read again.
type reloadedMsg struct {
	changed bool
	rows    int
}
