package dkim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords(t *testing.T) {
	records := Records(RecordsInput{
		Domain:     "example.com",
		Selector:   "byemail",
		DKIMDomain: "example.com",
		ExternalIP: "203.0.113.7",
		PublicKey:  "MIGfMA0GCSq",
	})

	require.Len(t, records, 4)
	assert.Equal(t, "example.com. MX 10 203.0.113.7", records[0])
	assert.Equal(t, `example.com. TXT "v=spf1 a mx ip4:203.0.113.7 -all"`, records[1])
	assert.Equal(t, `byemail._domainkey.example.com. TXT "v=DKIM1; k=rsa; s=email; p=MIGfMA0GCSq"`, records[2])
	assert.Equal(t, `_dmarc.example.com. TXT "v=DMARC1; p=none"`, records[3])
}

func TestPublicKeyTXT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "public.key")
	pem := "-----BEGIN PUBLIC KEY-----\nMIGfMA0G\nCSqGSIb3\n-----END PUBLIC KEY-----\n"
	require.NoError(t, os.WriteFile(path, []byte(pem), 0o600))

	key, err := PublicKeyTXT(path)
	require.NoError(t, err)
	assert.Equal(t, "MIGfMA0GCSqGSIb3", key)
}

func TestGenerateKeysRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.key")
	require.NoError(t, os.WriteFile(priv, []byte("existing"), 0o600))

	err := GenerateKeys(Config{PrivateKeyPath: priv, PublicKeyPath: filepath.Join(dir, "public.key")})
	assert.Error(t, err)
}
