package launcher

// ConfigIssue is a problem found while loading the launcher config file.
type ConfigIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ConfigState tracks the launcher config file the system slice was read from.
type ConfigState struct {
	Path     string        `json:"path"`
	IsLoaded bool          `json:"isLoaded"`
	Issues   []ConfigIssue `json:"issues"`
}

func DefaultConfigState() ConfigState {
	return ConfigState{Issues: []ConfigIssue{}}
}

const (
	SetConfigPathType     ActionType = "SET_CONFIG_PATH"
	SetIsConfigLoadedType ActionType = "SET_IS_CONFIG_LOADED"
	AddConfigIssuesType   ActionType = "ADD_CONFIG_ISSUES"
	ClearConfigIssuesType ActionType = "CLEAR_CONFIG_ISSUES"
)

func SetConfigPath(path string) Message[string] {
	return Message[string]{Kind: SetConfigPathType, Payload: path}
}

func SetIsConfigLoaded(isLoaded bool) Message[bool] {
	return Message[bool]{Kind: SetIsConfigLoadedType, Payload: isLoaded}
}

// AddConfigIssues appends issues to the current list.
func AddConfigIssues(issues []ConfigIssue) Message[[]ConfigIssue] {
	return Message[[]ConfigIssue]{Kind: AddConfigIssuesType, Payload: cloneSlice(issues)}
}

func ClearConfigIssues() Message[Empty] {
	return Message[Empty]{Kind: ClearConfigIssuesType}
}

func newConfigReducer() *SliceReducer[ConfigState] {
	r := NewSliceReducer(SliceConfig, DefaultConfigState())
	Handle(r, SetConfigPathType, func(s ConfigState, path string) ConfigState {
		s.Path = path
		return s
	})
	Handle(r, SetIsConfigLoadedType, func(s ConfigState, v bool) ConfigState {
		s.IsLoaded = v
		return s
	})
	Handle(r, AddConfigIssuesType, func(s ConfigState, issues []ConfigIssue) ConfigState {
		next := make([]ConfigIssue, 0, len(s.Issues)+len(issues))
		next = append(next, s.Issues...)
		s.Issues = append(next, issues...)
		return s
	})
	Handle(r, ClearConfigIssuesType, func(s ConfigState, _ Empty) ConfigState {
		s.Issues = []ConfigIssue{}
		return s
	})
	return r
}
