// Package dkim wraps the external key-generation tool and renders the
// DNS records a capture domain needs.
package dkim

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
)

// Config locates the DKIM key material and names the DNS parameters.
type Config struct {
	Selector       string
	Domain         string
	PrivateKeyPath string
	PublicKeyPath  string
}

// GenerateKeys creates the DKIM RSA key pair by shelling out to
// openssl. It refuses to overwrite an existing private key.
func GenerateKeys(cfg Config) error {
	if _, err := os.Stat(cfg.PrivateKeyPath); err == nil {
		return fmt.Errorf("private key %s already exists, refusing to overwrite", cfg.PrivateKeyPath)
	}

	log.Printf("Generating private key %s", cfg.PrivateKeyPath)
	private := exec.Command("openssl", "genrsa", "-out", cfg.PrivateKeyPath, "1024")
	if out, err := private.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to generate private key: %w: %s", err, out)
	}

	log.Printf("Generating public key %s", cfg.PublicKeyPath)
	public := exec.Command("openssl", "rsa", "-in", cfg.PrivateKeyPath,
		"-out", cfg.PublicKeyPath, "-pubout")
	if out, err := public.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to generate public key: %w: %s", err, out)
	}

	return nil
}

// PublicKeyTXT reads the public key file and flattens it to the bare
// base64 form a DNS TXT record expects.
func PublicKeyTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read public key: %w", err)
	}
	key := string(data)
	key = strings.ReplaceAll(key, "-----BEGIN PUBLIC KEY-----", "")
	key = strings.ReplaceAll(key, "-----END PUBLIC KEY-----", "")
	key = strings.ReplaceAll(key, "\n", "")
	return key, nil
}
