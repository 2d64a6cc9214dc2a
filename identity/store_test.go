package identity

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/widget/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "identity.json")
}

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(storePath(t), testLogger())
	require.NoError(t, err)
	assert.Empty(t, s.UserID())
}

func TestDeviceIDStableAcrossCalls(t *testing.T) {
	s, err := Open(storePath(t), testLogger())
	require.NoError(t, err)

	first := s.DeviceID()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, s.DeviceID())
}

func TestDeviceIDStableAcrossReopen(t *testing.T) {
	path := storePath(t)

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	first := s.DeviceID()

	reopened, err := Open(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, first, reopened.DeviceID())
}

func TestSetUserIDPersists(t *testing.T) {
	path := storePath(t)

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.SetUserID("user_42"))

	reopened, err := Open(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "user_42", reopened.UserID())
}

func TestClearWipesBothValues(t *testing.T) {
	path := storePath(t)

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.SetUserID("user_42"))
	deviceBefore := s.DeviceID()
	require.NoError(t, s.Clear())

	assert.Empty(t, s.UserID())

	// The fingerprint recomputes to the same value on the same host, but the
	// cached value must have been dropped from disk.
	reopened, err := Open(path, testLogger())
	require.NoError(t, err)
	assert.Empty(t, reopened.UserID())
	assert.Equal(t, deviceBefore, reopened.DeviceID())
}

func TestOpenCorruptFileResets(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	assert.Empty(t, s.UserID())
	require.NoError(t, s.SetUserID("user_fresh"))
	assert.Equal(t, "user_fresh", s.UserID())
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "identity.json")

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.SetUserID("user_1"))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
