package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	launcher "github.com/goliatone/go-launcher"
)

const (
	PersistedRecordID = "https://github.com/goliatone/go-launcher/schema/persisted-record.json"
	RootStateID       = "https://github.com/goliatone/go-launcher/schema/root-state.json"
)

// PersistedRecord describes the record written to the state backend. Only
// the persisted slices are allowed at the top level and defaults are
// recorded for every field.
func PersistedRecord() (map[string]any, error) {
	doc, err := Generate(launcher.DefaultRecord(),
		WithID(PersistedRecordID),
		WithTitle("Launcher persisted record", "Slices written to the state backend and read back at startup."),
		WithDefaults(),
	)
	if err != nil {
		return nil, err
	}
	doc["additionalProperties"] = false
	return doc, nil
}

// RootState describes the bootstrap snapshot for mode.
func RootState(mode launcher.Mode) (map[string]any, error) {
	doc, err := Generate(launcher.DefaultState(mode),
		WithID(RootStateID),
		WithTitle("Launcher root state", fmt.Sprintf("Bootstrap snapshot of a %s store.", mode)),
	)
	if err != nil {
		return nil, err
	}
	props, _ := doc["properties"].(map[string]any)
	for _, name := range hiddenSlices(mode) {
		delete(props, name)
	}
	return doc, nil
}

// Marshal renders doc as indented JSON.
func Marshal(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	return data, nil
}

func hiddenSlices(mode launcher.Mode) []string {
	all := map[string]bool{}
	rt := reflect.TypeOf(launcher.RootState{})
	for i := 0; i < rt.NumField(); i++ {
		if name, _ := fieldName(rt.Field(i)); name != "" {
			all[name] = true
		}
	}
	for _, name := range mode.Slices() {
		delete(all, string(name))
	}
	out := make([]string, 0, len(all))
	for name := range all {
		out = append(out, name)
	}
	return out
}
