package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/config"
)

func TestBuildIndexesByKind(t *testing.T) {
	cfg := &config.Config{
		Dynamic: []any{
			map[string]any{"names": "attr_reader", "defines": map[string]any{"arguments": "*"}},
			map[string]any{"type": "Method", "has_prefix": "test_", "calls": map[string]any{"itself": true}},
		},
	}

	rs, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, rs.Len())
	require.Len(t, rs.For(ast.KindSend), 2)
	assert.Equal(t, 0, rs.For(ast.KindSend)[0].Index)
	require.Len(t, rs.For(ast.KindDef), 1)
	assert.Equal(t, 1, rs.For(ast.KindDef)[0].Index)
	require.Len(t, rs.For(ast.KindIdent), 2)
	assert.Equal(t, 0, rs.For(ast.KindIdent)[0].Index)
	assert.Empty(t, rs.For(ast.KindSym))
	assert.NotNil(t, rs.For(ast.KindSend)[0].Defines)
	assert.Nil(t, rs.For(ast.KindSend)[0].Calls)
}

func TestBuildAllowLists(t *testing.T) {
	rs, err := Build(&config.Config{
		Keep:     []any{"initialize", map[string]any{"has_suffix": "Controller"}},
		TestOnly: []any{"fixture_*"},
	})
	require.NoError(t, err)

	assert.True(t, rs.Keep("initialize"))
	assert.True(t, rs.Keep("UsersController"))
	assert.False(t, rs.Keep("users"))
	assert.True(t, rs.TestOnly("fixture_user"))
	assert.False(t, rs.TestOnly("user"))

	empty, err := Build(&config.Config{})
	require.NoError(t, err)
	assert.False(t, empty.Keep("initialize"))
	assert.False(t, empty.TestOnly("x"))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		path string
	}{
		{"not a map", &config.Config{Dynamic: []any{"attr_reader"}}, "dynamic[0]"},
		{"no action", &config.Config{Dynamic: []any{map[string]any{"names": "x"}}}, "dynamic[0]"},
		{
			"bad processor",
			&config.Config{Dynamic: []any{
				map[string]any{"names": "x", "calls": 1},
				map[string]any{"names": "x", "calls": map[string]any{"arguments": 1, "reverse": true}},
			}},
			"dynamic[1].calls",
		},
		{"bad matcher", &config.Config{Dynamic: []any{map[string]any{"type": "Widget", "calls": 1}}}, "dynamic[0].type"},
		{"bad keep", &config.Config{Keep: []any{map[string]any{"bogus": 1}}}, "keep[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.cfg)
			require.Error(t, err)

			var cerr *config.ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.path, cerr.Path)
		})
	}
}

func TestFingerprint(t *testing.T) {
	build := func(cfg *config.Config) string {
		rs, err := Build(cfg)
		require.NoError(t, err)
		return rs.Fingerprint()
	}

	a := build(&config.Config{Keep: []any{"a"}})
	assert.Equal(t, a, build(&config.Config{Keep: []any{"a"}}))
	assert.NotEqual(t, a, build(&config.Config{Keep: []any{"b"}}))
	assert.NotEqual(t, a, build(&config.Config{Keep: []any{"a"}, TestPaths: []string{"/spec/"}}))
}

func TestBuildPacks(t *testing.T) {
	for _, pack := range config.Packs() {
		t.Run(pack, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".leftovers.yml"), []byte("gems: "+pack+"\n"), 0o644))

			cfg, err := config.Load(dir, "")
			require.NoError(t, err)

			rs, err := Build(cfg)
			require.NoError(t, err)
			assert.Positive(t, rs.Len())
			assert.True(t, rs.Keep("initialize"))
		})
	}
}
