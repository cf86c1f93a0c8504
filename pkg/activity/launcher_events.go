package activity

import (
	"strings"
	"time"
)

const (
	VerbActionDispatched = "launcher.action.dispatched"
	VerbStatePersisted   = "launcher.state.persisted"
	VerbPersistFailed    = "launcher.state.persist_failed"
	VerbBackupCreated    = "launcher.backup.created"
	VerbBackupRestored   = "launcher.backup.restored"
	VerbBackupDeleted    = "launcher.backup.deleted"
	VerbGameLaunched     = "launcher.game.launched"
	VerbGameExited       = "launcher.game.exited"
)

// DispatchInput describes a reduced action.
type DispatchInput struct {
	ActionType string
	Mode       string
	Slices     []string
	OccurredAt time.Time
}

// BuildActionDispatchedEvent reports an action that changed at least one slice.
func BuildActionDispatchedEvent(input DispatchInput) Event {
	metadata := map[string]any{}
	if input.Mode != "" {
		metadata["mode"] = input.Mode
	}
	if len(input.Slices) > 0 {
		metadata["slices"] = append([]string{}, input.Slices...)
	}
	return Event{
		Verb:       VerbActionDispatched,
		ObjectType: "launcher.action",
		ObjectID:   fallback(input.ActionType, "unknown"),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// PersistInput describes a write of the persisted record.
type PersistInput struct {
	Key        string
	SnapshotID string
	Slices     []string
	Err        error
	OccurredAt time.Time
}

// BuildStatePersistedEvent reports a successful write, or a failed one when
// input.Err is set.
func BuildStatePersistedEvent(input PersistInput) Event {
	verb := VerbStatePersisted
	metadata := map[string]any{}
	if input.SnapshotID != "" {
		metadata["snapshot_id"] = input.SnapshotID
	}
	if len(input.Slices) > 0 {
		metadata["slices"] = append([]string{}, input.Slices...)
	}
	if input.Err != nil {
		verb = VerbPersistFailed
		metadata["error"] = input.Err.Error()
	}
	return Event{
		Verb:       verb,
		ObjectType: "launcher.record",
		ObjectID:   fallback(input.Key, "state"),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BackupInput describes a backup operation.
type BackupInput struct {
	BackupID   string
	Dir        string
	Files      []string
	OccurredAt time.Time
}

func BuildBackupCreatedEvent(input BackupInput) Event {
	return buildBackupEvent(VerbBackupCreated, input)
}

func BuildBackupRestoredEvent(input BackupInput) Event {
	return buildBackupEvent(VerbBackupRestored, input)
}

func BuildBackupDeletedEvent(input BackupInput) Event {
	return buildBackupEvent(VerbBackupDeleted, input)
}

func buildBackupEvent(verb string, input BackupInput) Event {
	metadata := map[string]any{}
	if input.Dir != "" {
		metadata["dir"] = input.Dir
	}
	if len(input.Files) > 0 {
		metadata["files"] = append([]string{}, input.Files...)
	}
	return Event{
		Verb:       verb,
		ObjectType: "launcher.backup",
		ObjectID:   fallback(input.BackupID, "backup"),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// LaunchInput describes a game process start or exit.
type LaunchInput struct {
	ButtonID   string
	Path       string
	Args       []string
	PID        int
	ExitCode   *int
	OccurredAt time.Time
}

func BuildGameLaunchedEvent(input LaunchInput) Event {
	return buildLaunchEvent(VerbGameLaunched, input)
}

func BuildGameExitedEvent(input LaunchInput) Event {
	return buildLaunchEvent(VerbGameExited, input)
}

func buildLaunchEvent(verb string, input LaunchInput) Event {
	metadata := map[string]any{}
	if input.Path != "" {
		metadata["path"] = input.Path
	}
	if len(input.Args) > 0 {
		metadata["args"] = append([]string{}, input.Args...)
	}
	if input.PID > 0 {
		metadata["pid"] = input.PID
	}
	if input.ExitCode != nil {
		metadata["exit_code"] = *input.ExitCode
	}
	return Event{
		Verb:       verb,
		ObjectType: "launcher.game",
		ObjectID:   fallback(input.ButtonID, "game"),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
