package activity

import (
	"errors"
	"testing"
)

func TestBuildActionDispatchedEvent(t *testing.T) {
	slices := []string{"userSettings"}
	event := BuildActionDispatchedEvent(DispatchInput{ActionType: "SET_USER_THEME", Mode: "full", Slices: slices})

	if event.Verb != VerbActionDispatched || event.ObjectType != "launcher.action" || event.ObjectID != "SET_USER_THEME" {
		t.Fatalf("unexpected event: %+v", event)
	}
	got, ok := event.Metadata["slices"].([]string)
	if !ok || len(got) != 1 || got[0] != "userSettings" {
		t.Fatalf("expected slices metadata, got %v", event.Metadata["slices"])
	}
	slices[0] = "changed"
	if got[0] != "userSettings" {
		t.Fatalf("expected slices to be copied")
	}
	if event.Metadata["mode"] != "full" {
		t.Fatalf("expected mode metadata, got %v", event.Metadata["mode"])
	}
}

func TestBuildStatePersistedEventFailure(t *testing.T) {
	ok := BuildStatePersistedEvent(PersistInput{Key: "launcher", SnapshotID: "snap"})
	if ok.Verb != VerbStatePersisted || ok.Metadata["snapshot_id"] != "snap" {
		t.Fatalf("unexpected success event: %+v", ok)
	}

	failed := BuildStatePersistedEvent(PersistInput{Err: errors.New("disk full")})
	if failed.Verb != VerbPersistFailed {
		t.Fatalf("expected failure verb, got %s", failed.Verb)
	}
	if failed.ObjectID != "state" || failed.Metadata["error"] != "disk full" {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
}

func TestBuildGameExitedEventCarriesExitCode(t *testing.T) {
	code := 3
	event := BuildGameExitedEvent(LaunchInput{ButtonID: " play ", ExitCode: &code, PID: 42})
	if event.Verb != VerbGameExited || event.ObjectID != "play" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["exit_code"] != 3 || event.Metadata["pid"] != 42 {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestBuildBackupEventsFallbackObjectID(t *testing.T) {
	event := BuildBackupDeletedEvent(BackupInput{})
	if event.Verb != VerbBackupDeleted || event.ObjectID != "backup" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if len(event.Metadata) != 0 {
		t.Fatalf("expected empty metadata, got %+v", event.Metadata)
	}
}
