package utils

import (
	"errors"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel("info")
	SetLogLevel("DEBUG")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	SetLogLevel("warning")
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolvePath(filepath.Join(dir, "x.db"), "ignored.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.db"), got)

	homedir.DisableCache = true
	t.Setenv("HOME", dir)
	got, err = ResolvePath("", "session.json")
	require.NoError(t, err)
	assert.Equal(t, "session.json", filepath.Base(got))
	assert.DirExists(t, filepath.Dir(got))
}

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.sqlite")
	l := NewFileLock(path)
	require.NoError(t, l.Lock())
	assert.FileExists(t, path+".lock")
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Lock())
	require.NoError(t, l.Unlock())
}

func TestFileLockDo(t *testing.T) {
	l := NewFileLock(filepath.Join(t.TempDir(), "session.json"))
	ran := false
	require.NoError(t, l.Do(func() error { ran = true; return nil }))
	assert.True(t, ran)

	boom := errors.New("boom")
	assert.ErrorIs(t, l.Do(func() error { return boom }), boom)
	require.NoError(t, l.Lock())
	require.NoError(t, l.Unlock())
}
