package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/config"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/warning"
)

func TestCheck_PersistsCrossedThreshold(t *testing.T) {
	root := t.TempDir()
	line := fmt.Sprintf(
		`{"timestamp":%q,"message":{"model":"claude-sonnet-4-5-20250929","usage":{"input_tokens":1000000}}}`,
		time.Now().Format(time.RFC3339))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "proj"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "proj", "s.jsonl"), []byte(line+"\n"), 0o644))

	statePath := filepath.Join(t.TempDir(), "state.json")
	cfg := &config.Config{
		Budget:        4.00, // $3.00 of Sonnet input = 75%
		LogsDir:       root,
		StatePath:     statePath,
		GuardInterval: time.Hour,
	}

	New(cfg, nil).check()

	st, err := warning.NewFileStore(statePath).Load()
	require.NoError(t, err)
	assert.Equal(t, warning.Level75, st.LastWarningLevel)
	assert.Equal(t, warning.CurrentMonth(time.Now()), st.LastWarningMonth)
}

func TestCheck_NoLogsLeavesStateAlone(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	cfg := &config.Config{
		Budget:        15.00,
		LogsDir:       filepath.Join(t.TempDir(), "absent"),
		StatePath:     statePath,
		GuardInterval: time.Hour,
	}

	New(cfg, nil).check()

	_, err := os.Stat(statePath)
	assert.True(t, os.IsNotExist(err), "no warning, no state file")
}
