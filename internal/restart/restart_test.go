package restart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelf(t *testing.T) {
	e, err := Self(zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, e.Path)
	assert.Equal(t, os.Args, e.Args)
}

func TestRestartFailureRunsHookAndReturns(t *testing.T) {
	ran := false
	e := &Exec{
		Path:   filepath.Join(t.TempDir(), "missing"),
		Args:   []string{"missing"},
		Log:    zerolog.Nop(),
		Before: func() { ran = true },
	}
	assert.Error(t, e.Restart("test"))
	assert.True(t, ran)
}
