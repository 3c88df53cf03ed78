package messaging

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// PGPDecrypter decrypts armored payloads addressed to this maker's PGP key.
type PGPDecrypter struct {
	keyring openpgp.EntityList
}

// NewPGPDecrypter builds a decrypter from an armored private key. The
// passphrase may be empty for unprotected keys.
func NewPGPDecrypter(armoredKey, passphrase string) (*PGPDecrypter, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read pgp key: %w", err)
	}

	if passphrase != "" {
		for _, entity := range keyring {
			if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
				if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
					return nil, fmt.Errorf("failed to unlock pgp key: %w", err)
				}
			}
			for _, subkey := range entity.Subkeys {
				if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
					if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
						return nil, fmt.Errorf("failed to unlock pgp subkey: %w", err)
					}
				}
			}
		}
	}

	return &PGPDecrypter{keyring: keyring}, nil
}

// Decrypt implements ports.Decrypter.
func (d *PGPDecrypter) Decrypt(armored string) ([]byte, error) {
	block, err := armor.Decode(strings.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("failed to decode armored payload: %w", err)
	}

	md, err := openpgp.ReadMessage(block.Body, d.keyring, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return io.ReadAll(md.UnverifiedBody)
}
