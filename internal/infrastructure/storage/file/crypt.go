package file

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const saltSize = 16

// cipherBox encrypts the session blob at rest. The bearer token grants full
// API access for its lifetime, so it does not sit in plaintext on disk when
// a passphrase is configured. Layout: salt ‖ nonce ‖ ciphertext, with a
// fresh salt and nonce per write.
type cipherBox struct {
	passphrase []byte
}

func newCipherBox(passphrase string) *cipherBox {
	return &cipherBox{passphrase: []byte(passphrase)}
}

func (b *cipherBox) key(salt []byte) ([]byte, error) {
	return scrypt.Key(b.passphrase, salt, 1<<15, 8, 1, chacha20poly1305.KeySize)
}

func (b *cipherBox) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	key, err := b.key(salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := append(salt, nonce...)
	return aead.Seal(out, nonce, plain, nil), nil
}

func (b *cipherBox) open(raw []byte) ([]byte, error) {
	if len(raw) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("ciphertext too short")
	}
	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	key, err := b.key(salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, raw[saltSize+chacha20poly1305.NonceSizeX:], nil)
}
