package appServer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ds124wfegd/randaug/config"
	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	params := DefaultParams(config.AugmentConfig{Variant: "uda", N: 2, M: 9, FillColor: "black", Copies: 3})
	assert.Equal(t, "uda", params.Variant)
	assert.Nil(t, params.Seed)

	params = DefaultParams(config.AugmentConfig{Variant: "uda", Seed: 42})
	require.NotNil(t, params.Seed)
	assert.Equal(t, uint64(42), *params.Seed)
}

func TestPolicyTable(t *testing.T) {
	table, err := PolicyTable(config.AugmentConfig{})
	require.NoError(t, err)
	assert.Nil(t, table)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - op: ShearY\n    min: 0\n    max: 0.2\n"), 0o644))
	table, err = PolicyTable(config.AugmentConfig{PolicyFile: path})
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, augment.ShearY, table.At(0).Op)

	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - op: ShearY\n    min: 1\n    max: 0.2\n"), 0o644))
	_, err = PolicyTable(config.AugmentConfig{PolicyFile: path})
	assert.ErrorIs(t, err, augment.ErrInvalidPolicy)
}
