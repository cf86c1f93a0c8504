// Package sysconfig reads the launcher config file into the system slice.
package sysconfig

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/internal/hydrate"
	"github.com/goliatone/go-launcher/pkg/launch"
	"github.com/rs/zerolog"
)

// DefaultFileName is the launcher config file name looked up next to the
// launcher executable.
const DefaultFileName = "config.json"

// Result is the outcome of reading a config file.
type Result struct {
	Path   string
	System launcher.SystemState
	Issues []launcher.ConfigIssue
	// Loaded is false when the file could not be read or decoded and System
	// holds the defaults.
	Loaded bool
}

// Load reads path. Unknown top-level and modOrganizer keys are dropped and
// reported. A missing file, malformed JSON or a type mismatch yields the
// default system state with an issue; only Loaded tells them apart.
func Load(path string) Result {
	res := Result{Path: path, System: launcher.DefaultSystemState()}
	raw, err := os.ReadFile(path)
	if err != nil {
		msg := fmt.Sprintf("read config: %v", err)
		if errors.Is(err, os.ErrNotExist) {
			msg = "config file not found"
		}
		res.Issues = append(res.Issues, launcher.ConfigIssue{Path: path, Message: msg})
		return res
	}

	var issues []launcher.ConfigIssue
	decoder := hydrate.NewDecoder[launcher.SystemState](
		hydrate.WithBase(launcher.DefaultSystemState),
		hydrate.WithPreHook[launcher.SystemState](stripUnknown(&issues)),
		hydrate.WithDisallowUnknownFields[launcher.SystemState](),
		hydrate.WithDefaults(launcher.DefaultSystemState),
	)
	system, err := decoder.DecodeBytes(hydrate.Context{Source: path, Key: "system"}, raw)
	res.Issues = append(res.Issues, issues...)
	if err != nil {
		res.Issues = append(res.Issues, launcher.ConfigIssue{Message: err.Error()})
		return res
	}

	res.System = system
	res.Issues = append(res.Issues, Validate(system)...)
	res.Loaded = true
	return res
}

// Apply loads path into store: the previous issues are cleared, then the
// system slice, config path, issues and loaded flag are dispatched.
func Apply(store *launcher.Store, path string, logger zerolog.Logger) Result {
	res := Load(path)
	store.Dispatch(launcher.ClearConfigIssues())
	store.Dispatch(launcher.SetConfigPath(path))
	store.Dispatch(launcher.SetSystemConfig(res.System))
	if len(res.Issues) > 0 {
		store.Dispatch(launcher.AddConfigIssues(res.Issues))
	}
	store.Dispatch(launcher.SetIsConfigLoaded(res.Loaded))

	entry := logger.Info()
	if !res.Loaded {
		entry = logger.Warn()
	}
	entry.Str("path", path).Int("issues", len(res.Issues)).Bool("loaded", res.Loaded).Msg("launcher config applied")
	return res
}

// Validate reports values that decode fine but cannot be used.
func Validate(system launcher.SystemState) []launcher.ConfigIssue {
	var issues []launcher.ConfigIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, launcher.ConfigIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if system.MinWidth <= 0 {
		add("minWidth", "must be positive")
	}
	if system.MinHeight <= 0 {
		add("minHeight", "must be positive")
	}
	if system.Width < system.MinWidth {
		add("width", "must not be less than minWidth (%d)", system.MinWidth)
	}
	if system.Height < system.MinHeight {
		add("height", "must not be less than minHeight (%d)", system.MinHeight)
	}
	if system.ModOrganizer.IsUsed && system.ModOrganizer.Path == "" {
		add("modOrganizer.path", "required when modOrganizer.isUsed is true")
	}
	for name := range system.CustomPaths {
		if strings.TrimSpace(strings.Trim(name, "%")) == "" {
			add("customPaths", "path name must not be empty")
		}
	}

	seen := map[string]int{}
	for i, button := range system.Buttons {
		prefix := fmt.Sprintf("buttons[%d]", i)
		if button.ID == "" {
			add(prefix+".id", "required")
		} else if first, ok := seen[button.ID]; ok {
			add(prefix+".id", "duplicates buttons[%d]", first)
		} else {
			seen[button.ID] = i
		}
		if button.Path == "" {
			add(prefix+".path", "required")
		}
		expanded := launch.ExpandPlaceholders(button.Path, system.CustomPaths)
		if missing := launch.Unresolved(expanded); len(missing) > 0 {
			add(prefix+".path", "unknown placeholders %s", strings.Join(missing, ", "))
		}
	}
	return issues
}

func stripUnknown(issues *[]launcher.ConfigIssue) hydrate.PreHook {
	top := knownKeys[launcher.SystemState]()
	mo := knownKeys[launcher.ModOrganizer]()
	return func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
		for _, key := range sortedKeys(payload) {
			if _, ok := top[key]; !ok {
				*issues = append(*issues, launcher.ConfigIssue{Path: key, Message: "unknown field"})
				delete(payload, key)
			}
		}
		if nested, ok := payload["modOrganizer"].(map[string]any); ok {
			for _, key := range sortedKeys(nested) {
				if _, ok := mo[key]; !ok {
					*issues = append(*issues, launcher.ConfigIssue{Path: "modOrganizer." + key, Message: "unknown field"})
					delete(nested, key)
				}
			}
		}
		return payload, nil
	}
}

// knownKeys returns the JSON field names of struct type T, including fields
// that omitempty would drop from an encoded value.
func knownKeys[T any]() map[string]struct{} {
	out := make(map[string]struct{})
	collectKeys(reflect.TypeFor[T](), out)
	return out
}

func collectKeys(t reflect.Type, out map[string]struct{}) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("sysconfig: %s is not a struct", t))
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if field.Anonymous && name == "" {
			collectKeys(field.Type, out)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		out[name] = struct{}{}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
