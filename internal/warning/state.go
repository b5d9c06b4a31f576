package warning

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Level is a warning rung: the percentage-of-budget threshold band the
// current spend falls in.
type Level string

const (
	LevelNone Level = "none"
	Level50   Level = "50"
	Level75   Level = "75"
	Level90   Level = "90"
	Level100  Level = "100"
	Level125  Level = "125"
)

// rungs defines the strict total order over levels.
var rungs = []Level{LevelNone, Level50, Level75, Level90, Level100, Level125}

// rungIndex returns a level's position in the hierarchy. Unknown values
// rank lowest, same as none.
func rungIndex(l Level) int {
	for i, r := range rungs {
		if r == l {
			return i
		}
	}
	return 0
}

// State is the sole piece of durable state in the system: the last
// warning shown and when spend was last checked. Months are "YYYY-MM"
// strings; timestamps are ISO 8601. Empty strings mean never.
type State struct {
	LastWarningLevel Level  `json:"last_warning_level"`
	LastWarningMonth string `json:"last_warning_month"`
	LastCostCheck    string `json:"last_cost_check"`
}

// DefaultState returns the state used when nothing has been persisted
// yet, or when the backing store is unreadable.
func DefaultState() State {
	return State{LastWarningLevel: LevelNone}
}

// Store persists warning state. Load always returns a usable State: a
// non-nil error means the backing store was missing or corrupt and the
// defaults were substituted, which callers may log but must not treat
// as fatal.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// FileStore persists state as a small JSON file at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing file is a fresh install, not an
// error; an unreadable or malformed file degrades to defaults with the
// underlying error reported alongside.
func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultState(), nil
		}
		return DefaultState(), err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return DefaultState(), err
	}

	// Clamp out-of-range levels written by older versions or by hand.
	if st.LastWarningLevel == "" || rungIndex(st.LastWarningLevel) == 0 {
		st.LastWarningLevel = LevelNone
	}
	return st, nil
}

// Save writes the state file, creating parent directories as needed.
func (s *FileStore) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// MemStore is an in-memory Store for tests. LoadErr and SaveErr, when
// set, simulate a corrupt or unwritable backing file.
type MemStore struct {
	mu      sync.Mutex
	state   State
	hasData bool

	LoadErr error
	SaveErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return DefaultState(), m.LoadErr
	}
	if !m.hasData {
		return DefaultState(), nil
	}
	return m.state, nil
}

func (m *MemStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = st
	m.hasData = true
	return nil
}
