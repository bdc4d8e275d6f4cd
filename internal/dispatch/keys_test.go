package dispatch

import (
	"testing"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFinder_Preference(t *testing.T) {
	fs := afero.NewMemMapFs()
	k := NewKeyFinder(fs, sshDir)

	assert.Empty(t, k.FindLocalKeys())
	assert.Nil(t, k.Preferred())

	for _, name := range []string{"id_rsa", "id_rsa.pub", "id_ecdsa", "id_ecdsa.pub", "id_ed25519"} {
		require.NoError(t, afero.WriteFile(fs, sshDir+"/"+name, []byte("x"), 0o600))
	}

	keys := k.FindLocalKeys()
	require.Len(t, keys, 3)
	assert.Equal(t, "ed25519", keys[0].Type)
	assert.False(t, keys[0].HasPublic)

	// ed25519 has no public half, so ecdsa wins.
	preferred := k.Preferred()
	require.NotNil(t, preferred)
	assert.Equal(t, "ecdsa", preferred.Type)
	assert.Equal(t, sshDir+"/id_ecdsa.pub", preferred.PublicPath)
}

func TestKeyFinder_ReadPublicKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	k := NewKeyFinder(fs, sshDir)
	pubPath := writeKey(t, fs)

	key, err := k.ReadPublicKey(pubPath)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519", key.Type())

	_, err = k.ReadPublicKey(sshDir + "/missing.pub")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestInferKeyType(t *testing.T) {
	assert.Equal(t, "ed25519", inferKeyType("/x/id_ed25519"))
	assert.Equal(t, "ecdsa", inferKeyType("/x/id_ecdsa"))
	assert.Equal(t, "rsa", inferKeyType("/x/id_rsa"))
	assert.Equal(t, "unknown", inferKeyType("/x/key"))
}
