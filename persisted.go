package launcher

// PersistedRecord is the subset of RootState written to local storage. Only
// the slices declared here survive a restart.
type PersistedRecord struct {
	Settings     *SettingsState     `json:"settings,omitempty"`
	UserSettings *UserSettingsState `json:"userSettings,omitempty"`
}

// PersistedSlices lists the slices PersistedRecord carries.
func PersistedSlices() []SliceName {
	return []SliceName{SliceSettings, SliceUserSettings}
}

// DefaultRecord returns a record holding the default value of every
// persisted slice.
func DefaultRecord() PersistedRecord {
	settings := DefaultSettingsState()
	userSettings := DefaultUserSettingsState()
	return PersistedRecord{Settings: &settings, UserSettings: &userSettings}
}

// Project copies the persisted slices out of state. Slices absent from state
// stay nil in the record.
func Project(state RootState) PersistedRecord {
	var record PersistedRecord
	if state.Settings != nil {
		settings := cloneSlice(*state.Settings)
		record.Settings = &settings
	}
	if state.UserSettings != nil {
		userSettings := cloneSlice(*state.UserSettings)
		record.UserSettings = &userSettings
	}
	return record
}

// Seed converts the record into a store seed.
func (r PersistedRecord) Seed() RootState {
	return RootState{Settings: r.Settings, UserSettings: r.UserSettings}
}
