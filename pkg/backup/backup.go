// Package backup keeps timestamped copies of the game settings files so a
// user can roll back changes made through the launcher.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/goliatone/go-launcher/pkg/launch"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrBackupNotFound = errors.New("backup: not found")
	ErrNoFiles        = errors.New("backup: no game settings files to back up")
)

const manifestName = "manifest.json"

type manifest struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Entries   []entry   `json:"entries"`
}

type entry struct {
	Source string `json:"source"`
	Stored string `json:"stored"`
}

func (m manifest) info() launcher.BackupInfo {
	files := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		files[i] = e.Source
	}
	return launcher.BackupInfo{ID: m.ID, CreatedAt: m.CreatedAt, Files: files}
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithActivityHooks(hooks activity.Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithBaseDir resolves a relative settings.backupsDir against dir.
func WithBaseDir(dir string) Option {
	return func(m *Manager) {
		m.baseDir = dir
	}
}

// WithDir fixes the backups directory instead of reading settings.backupsDir.
func WithDir(dir string) Option {
	return func(m *Manager) {
		m.dir = dir
	}
}

// WithFiles fixes the backed up files instead of reading gameSettings.files.
func WithFiles(files ...string) Option {
	return func(m *Manager) {
		m.files = append([]string{}, files...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager creates, lists, restores and deletes backups and mirrors the list
// into main.backups.
type Manager struct {
	store   *launcher.Store
	baseDir string
	dir     string
	files   []string
	logger  zerolog.Logger
	hooks   activity.Hooks
	emitter *activity.Emitter
	now     func() time.Time
}

func New(store *launcher.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.logger = m.logger.With().Str("component", "backup").Logger()
	m.emitter = activity.NewEmitter(m.hooks, activity.Config{Enabled: len(m.hooks) > 0})
	return m
}

// Dir returns the directory backups are written to.
func (m *Manager) Dir() string {
	dir := m.dir
	if dir == "" {
		root := m.store.GetState()
		if root.Settings != nil {
			dir = root.Settings.BackupsDir
		}
	}
	if dir == "" {
		dir = launcher.DefaultSettingsState().BackupsDir
	}
	if !filepath.IsAbs(dir) && m.baseDir != "" {
		dir = filepath.Join(m.baseDir, dir)
	}
	return dir
}

// Files returns the files a new backup copies, sorted.
func (m *Manager) Files() []string {
	if len(m.files) > 0 {
		return append([]string{}, m.files...)
	}
	root := m.store.GetState()
	if root.GameSettings == nil {
		return nil
	}
	var paths map[string]string
	if root.System != nil {
		paths = root.System.CustomPaths
	}
	out := make([]string, 0, len(root.GameSettings.Files))
	for _, file := range root.GameSettings.Files {
		if file.Path == "" {
			continue
		}
		out = append(out, launch.ExpandPlaceholders(file.Path, paths))
	}
	sort.Strings(out)
	return out
}

// Create copies every settings file into a new backup.
func (m *Manager) Create(ctx context.Context) (launcher.BackupInfo, error) {
	files := m.Files()
	if len(files) == 0 {
		return launcher.BackupInfo{}, ErrNoFiles
	}

	createdAt := m.now().UTC()
	id := createdAt.Format("20060102-150405") + "-" + uuid.NewString()[:8]
	target := filepath.Join(m.Dir(), id)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return launcher.BackupInfo{}, fmt.Errorf("backup: create dir: %w", err)
	}

	man := manifest{ID: id, CreatedAt: createdAt}
	for i, source := range files {
		stored := fmt.Sprintf("%02d_%s", i, filepath.Base(source))
		if err := copyFile(source, filepath.Join(target, stored)); err != nil {
			_ = os.RemoveAll(target)
			return launcher.BackupInfo{}, fmt.Errorf("backup: copy %s: %w", source, err)
		}
		man.Entries = append(man.Entries, entry{Source: source, Stored: stored})
	}
	if err := writeManifest(target, man); err != nil {
		_ = os.RemoveAll(target)
		return launcher.BackupInfo{}, err
	}

	info := man.info()
	m.logger.Info().Str("backup", id).Int("files", len(files)).Msg("backup created")
	m.emit(ctx, activity.BuildBackupCreatedEvent(activity.BackupInput{
		BackupID: id, Dir: target, Files: info.Files, OccurredAt: createdAt,
	}))
	return info, m.Refresh(ctx)
}

// List returns the backups on disk, newest first. A missing directory is an
// empty list.
func (m *Manager) List(_ context.Context) ([]launcher.BackupInfo, error) {
	dir := m.Dir()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []launcher.BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backup: list %s: %w", dir, err)
	}

	out := make([]launcher.BackupInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		man, err := readManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			m.logger.Warn().Err(err).Str("backup", e.Name()).Msg("skipping unreadable backup")
			continue
		}
		out = append(out, man.info())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Restore copies the files of backup id back to their original locations.
func (m *Manager) Restore(ctx context.Context, id string) (launcher.BackupInfo, error) {
	target, err := m.locate(id)
	if err != nil {
		return launcher.BackupInfo{}, err
	}
	man, err := readManifest(target)
	if err != nil {
		return launcher.BackupInfo{}, err
	}
	for _, e := range man.Entries {
		if err := os.MkdirAll(filepath.Dir(e.Source), 0o755); err != nil {
			return launcher.BackupInfo{}, fmt.Errorf("backup: restore %s: %w", e.Source, err)
		}
		if err := copyFile(filepath.Join(target, e.Stored), e.Source); err != nil {
			return launcher.BackupInfo{}, fmt.Errorf("backup: restore %s: %w", e.Source, err)
		}
	}
	info := man.info()
	m.logger.Info().Str("backup", id).Msg("backup restored")
	m.emit(ctx, activity.BuildBackupRestoredEvent(activity.BackupInput{
		BackupID: id, Dir: target, Files: info.Files, OccurredAt: m.now(),
	}))
	return info, nil
}

// Delete removes backup id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	target, err := m.locate(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("backup: delete %s: %w", id, err)
	}
	m.logger.Info().Str("backup", id).Msg("backup deleted")
	m.emit(ctx, activity.BuildBackupDeletedEvent(activity.BackupInput{
		BackupID: id, Dir: target, OccurredAt: m.now(),
	}))
	return m.Refresh(ctx)
}

// Refresh reloads the list and dispatches it to main.backups.
func (m *Manager) Refresh(ctx context.Context) error {
	list, err := m.List(ctx)
	if err != nil {
		return err
	}
	m.store.Dispatch(launcher.SetBackups(list))
	return nil
}

func (m *Manager) locate(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrBackupNotFound, id)
	}
	target := filepath.Join(m.Dir(), id)
	if _, err := os.Stat(filepath.Join(target, manifestName)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrBackupNotFound, id)
		}
		return "", fmt.Errorf("backup: stat %s: %w", id, err)
	}
	return target, nil
}

func (m *Manager) emit(ctx context.Context, event activity.Event) {
	if err := m.emitter.Emit(ctx, event); err != nil {
		m.logger.Warn().Err(err).Str("verb", event.Verb).Msg("activity hook failed")
	}
}

func writeManifest(dir string, man manifest) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("backup: write manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) (manifest, error) {
	var man manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return man, fmt.Errorf("backup: read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &man); err != nil {
		return man, fmt.Errorf("backup: decode manifest: %w", err)
	}
	for _, e := range man.Entries {
		if !plainName(e.Stored) {
			return man, fmt.Errorf("backup: manifest entry %q: stored name %q outside backup", e.Source, e.Stored)
		}
	}
	// The directory name is the id Restore and Delete resolve.
	man.ID = filepath.Base(dir)
	return man, nil
}

func plainName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
