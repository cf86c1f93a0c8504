package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/pkg/activity"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func setup(t *testing.T) (*launcher.Store, string, string) {
	t.Helper()
	root := t.TempDir()
	gameDir := filepath.Join(root, "game")
	writeFile(t, filepath.Join(gameDir, "cfg", "main.ini"), "quality=high")
	writeFile(t, filepath.Join(gameDir, "user", "main.ini"), "volume=7")

	system := launcher.DefaultSystemState()
	system.CustomPaths = map[string]string{"GAME": gameDir}
	game := launcher.DefaultGameSettingsState()
	game.Files = map[string]launcher.GameSettingsFile{
		"engine": {Name: "engine", Path: "%GAME%/cfg/main.ini"},
		"user":   {Name: "user", Path: "%GAME%/user/main.ini"},
	}
	store := launcher.New(launcher.ModeFull, launcher.WithSeed(launcher.RootState{
		System:       &system,
		GameSettings: &game,
	}))
	return store, root, gameDir
}

func TestCreateAndRestoreRoundTrip(t *testing.T) {
	store, root, gameDir := setup(t)
	hook := &activity.CaptureHook{}
	manager := New(store, WithBaseDir(root), WithActivityHooks(activity.Hooks{hook}))
	ctx := context.Background()

	if got := manager.Dir(); got != filepath.Join(root, "backups") {
		t.Fatalf("unexpected backups dir %q", got)
	}

	info, err := manager.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(info.Files) != 2 {
		t.Fatalf("expected two files in backup, got %v", info.Files)
	}
	backups := store.GetState().Main.Backups
	if len(backups) != 1 || backups[0].ID != info.ID {
		t.Fatalf("expected store to list new backup, got %+v", backups)
	}

	writeFile(t, filepath.Join(gameDir, "cfg", "main.ini"), "quality=low")
	if err := os.Remove(filepath.Join(gameDir, "user", "main.ini")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := manager.Restore(ctx, info.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := readFile(t, filepath.Join(gameDir, "cfg", "main.ini")); got != "quality=high" {
		t.Fatalf("expected restored content, got %q", got)
	}
	if got := readFile(t, filepath.Join(gameDir, "user", "main.ini")); got != "volume=7" {
		t.Fatalf("expected restored content, got %q", got)
	}
	want := []string{activity.VerbBackupCreated, activity.VerbBackupRestored}
	if got := hook.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected verbs %v, got %v", want, got)
	}
}

func TestListNewestFirstAndDelete(t *testing.T) {
	store, root, _ := setup(t)
	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	manager := New(store, WithDir(filepath.Join(root, "bk")), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	first, err := manager.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := manager.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := manager.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if err := manager.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	backups := store.GetState().Main.Backups
	if len(backups) != 1 || backups[0].ID != second.ID {
		t.Fatalf("expected only second backup, got %+v", backups)
	}
}

func TestUnknownBackup(t *testing.T) {
	store, root, _ := setup(t)
	manager := New(store, WithBaseDir(root))
	ctx := context.Background()
	for _, id := range []string{"missing", "", "../game", ".."} {
		if _, err := manager.Restore(ctx, id); !errors.Is(err, ErrBackupNotFound) {
			t.Fatalf("restore %q: expected ErrBackupNotFound, got %v", id, err)
		}
		if err := manager.Delete(ctx, id); !errors.Is(err, ErrBackupNotFound) {
			t.Fatalf("delete %q: expected ErrBackupNotFound, got %v", id, err)
		}
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	store, root, _ := setup(t)
	manager := New(store, WithDir(filepath.Join(root, "nowhere")))
	list, err := manager.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestCreateWithoutFiles(t *testing.T) {
	store := launcher.New(launcher.ModePartial)
	manager := New(store, WithDir(t.TempDir()))
	if _, err := manager.Create(context.Background()); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
}

func TestCreateMissingSourceLeavesNoBackup(t *testing.T) {
	store, root, _ := setup(t)
	dir := filepath.Join(root, "bk")
	manager := New(store, WithDir(dir), WithFiles(filepath.Join(root, "absent.ini")))
	if _, err := manager.Create(context.Background()); err == nil {
		t.Fatalf("expected copy error")
	}
	list, err := manager.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected failed backup to be removed, got %+v", list)
	}
}

func TestRenamedBackupListsAndRestoresByDirName(t *testing.T) {
	store, root, gameDir := setup(t)
	dir := filepath.Join(root, "bk")
	manager := New(store, WithDir(dir))
	ctx := context.Background()

	info, err := manager.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := os.Rename(filepath.Join(dir, info.ID), filepath.Join(dir, "before-patch")); err != nil {
		t.Fatalf("rename: %v", err)
	}

	list, err := manager.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "before-patch" {
		t.Fatalf("expected backup listed by directory name, got %+v", list)
	}

	writeFile(t, filepath.Join(gameDir, "cfg", "main.ini"), "quality=low")
	restored, err := manager.Restore(ctx, list[0].ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ID != "before-patch" {
		t.Fatalf("unexpected restored id %q", restored.ID)
	}
	if got := readFile(t, filepath.Join(gameDir, "cfg", "main.ini")); got != "quality=high" {
		t.Fatalf("expected restored content, got %q", got)
	}
}

func TestRestoreRejectsStoredNameOutsideBackup(t *testing.T) {
	store, root, _ := setup(t)
	dir := filepath.Join(root, "bk")
	manager := New(store, WithDir(dir))
	ctx := context.Background()

	secret := filepath.Join(root, "secret.txt")
	writeFile(t, secret, "token")
	target := filepath.Join(root, "victim.ini")
	writeFile(t, target, "untouched")
	writeFile(t, filepath.Join(dir, "tampered", "manifest.json"),
		`{"id":"tampered","createdAt":"2024-01-01T00:00:00Z","entries":[{"source":"`+filepath.ToSlash(target)+`","stored":"../../secret.txt"}]}`)

	if _, err := manager.Restore(ctx, "tampered"); err == nil {
		t.Fatalf("expected restore to reject stored name outside backup")
	}
	if got := readFile(t, target); got != "untouched" {
		t.Fatalf("expected target untouched, got %q", got)
	}

	list, err := manager.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected tampered backup skipped, got %+v", list)
	}
}
