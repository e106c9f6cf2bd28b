package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cov.json")

	saved := NewTracker()
	saved.Sample(vec(7, 12, 0))
	saved.Sample(vec(0, 0, 0))
	saved.Sample(vec(15, 15, 1))
	require.NoError(t, saved.Save(path))

	loaded := NewTracker()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, saved.Covered(), loaded.Covered())
}

func TestSave_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cov.json")
	tracker := NewTracker()
	tracker.Sample(vec(3, 4, 1))
	tracker.Sample(vec(1, 2, 0))
	require.NoError(t, tracker.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[[1,2,0],[3,4,1]]\n", string(data))
}

func TestSave_UnwritablePath(t *testing.T) {
	tracker := NewTracker()
	tracker.Sample(vec(1, 2, 0))
	err := tracker.Save(filepath.Join(t.TempDir(), "missing", "dir", "cov.json"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	tracker := NewTracker()
	err := tracker.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	var ferr *FormatError
	assert.NotErrorAs(t, err, &ferr, "a missing file is an I/O error, not a format error")
}

func TestLoad_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cov.json")
	saved := NewTracker()
	saved.Sample(vec(9, 9, 1))
	require.NoError(t, saved.Save(path))

	tracker := NewTracker()
	tracker.Sample(vec(1, 1, 0))
	require.NoError(t, tracker.Load(path))
	assert.Equal(t, 1, tracker.Count())
	assert.True(t, tracker.Contains(vec(9, 9, 1)))
	assert.False(t, tracker.Contains(vec(1, 1, 0)))
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"not an array":    `{"a": 1}`,
		"null":            `null`,
		"bare number":     `7`,
		"pair tuple":      `[[1,2]]`,
		"quad tuple":      `[[1,2,0,0]]`,
		"string element":  `[[1,"2",0]]`,
		"bool element":    `[[true,2,0]]`,
		"null element":    `[[null,2,0]]`,
		"float element":   `[[1,2.5,0]]`,
		"negative":        `[[-1,2,0]]`,
		"carry bit two":   `[[1,2,2]]`,
		"nested non-list": `[5]`,
		"trailing data":   `[[1,2,0]] [[3,4,0]]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cov.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			tracker := NewTracker()
			tracker.Sample(vec(1, 2, 0))
			err := tracker.Load(path)
			require.Error(t, err)
			var ferr *FormatError
			assert.ErrorAs(t, err, &ferr)

			// A failed load leaves the prior set untouched.
			assert.Equal(t, 1, tracker.Count())
			assert.True(t, tracker.Contains(vec(1, 2, 0)))
		})
	}
}

func TestLoad_EmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cov.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

	tracker := NewTracker()
	tracker.Sample(vec(1, 2, 0))
	require.NoError(t, tracker.Load(path))
	assert.Equal(t, 0, tracker.Count())
}
