package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePool(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAndNext(t *testing.T) {
	path := writePool(t, "# pool\nalice:hunter2\n\nbob:swordfish\n")
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Remaining())

	a, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Username)
	assert.Equal(t, DeriveSecret("hunter2"), a.Secret)
	assert.Len(t, a.Secret, 64)

	b, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "bob", b.Username)

	_, err = p.Next()
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, 0, p.Remaining())
}

func TestLoadMalformed(t *testing.T) {
	for _, contents := range []string{"justausername\n", "nopassword:\n", ":nouser\n"} {
		_, err := Load(writePool(t, contents))
		assert.Error(t, err, "contents %q", contents)
	}
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(writePool(t, "# only comments\n\n"))
	assert.Error(t, err)
}

func TestDeriveSecretStable(t *testing.T) {
	// SHA-256 of "hunter2".
	assert.Equal(t,
		"f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7",
		DeriveSecret("hunter2"))
	assert.NotEqual(t, DeriveSecret("a"), DeriveSecret("b"))
}
