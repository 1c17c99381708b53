package constants

import "time"

// NotificationType identifies what triggered a stored notification
type NotificationType string

// ConflictType represents the type of integrity conflict found by doctor
type ConflictType string

const (
	AppName            = "habitkeeper"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitkeeper/habitkeeper.db"
	ConfigFileName     = "config.yaml"
	EnvPrefix          = "HABITKEEPER"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DisplayTimestampFormat is how notification timestamps are stored and shown (dd.MM.yyyy HH:mm)
	DisplayTimestampFormat = "02.01.2006 15:04"

	// Habit defaults
	DefaultTargetDays  = 30
	DefaultHabitColor  = "#2196F3"
	DefaultHabitIcon   = "task"
	DefaultProfileName = "Guest"
	ProfileID          = 1

	// PersistDebounce is the default delay before an optimistic toggle is written
	PersistDebounce = 100 * time.Millisecond

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitkeeper-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries     = 3
	NotifyRetryDelay     = 100 * time.Millisecond
	NotifyTimeout        = 2 * time.Second
	NotifierLockfileName = "habitkeeper-notifier.lock"
	NotifierSecretHeader = "X-Habitkeeper-Secret"
	// NotificationDurationMs is how long the tray keeps a toast on screen
	NotificationDurationMs = 5000
	NotifyModeTray       = "tray"
	NotifyModeStdout     = "stdout"
	NotifyModeNone       = "none"

	// Notification types
	NotificationTaskCompleted NotificationType = "TASK_COMPLETED"
	NotificationGoalAchieved  NotificationType = "GOAL_ACHIEVED"
	NotificationTest          NotificationType = "TEST"

	// Conflict Types
	ConflictDuplicateCompletion ConflictType = "duplicate_completion"
	ConflictOrphanCompletion    ConflictType = "orphan_completion"
	ConflictGoalNotApplied      ConflictType = "goal_not_applied"
	ConflictInvalidHabit        ConflictType = "invalid_habit"
	ConflictPendingToggle       ConflictType = "pending_toggle"
)

// Palette is the fixed set of colors offered when creating a habit
var Palette = []string{
	"#2196F3", "#4CAF50", "#FF9800", "#E91E63", "#9C27B0",
	"#00BCD4", "#FF5722", "#795548", "#607D8B", "#FFC107",
}

// Icons is the fixed set of icon keys a habit may use
var Icons = []string{
	"task", "fitness", "book", "water", "dining",
	"bedtime", "school", "work", "favorite", "star",
}
