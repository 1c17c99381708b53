package constants

// SessionState represents the current tab or modal of the TUI
type SessionState int

const (
	StateToday SessionState = iota
	StateArchive
	StateNotifications
	StateProfile
	StateAddHabit
	StateRenameProfile
	StateConfirmDelete
)
