package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Broker credentials (refresh tokens, app secrets) are stored sealed,
// never in the clear. The envelope layout is salt || nonce || box,
// base64 encoded; the key is derived per envelope from the configured
// master key and the salt.
const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var ErrInvalidEnvelope = errors.New("invalid sealed credential envelope")

func deriveKey(masterKey string, salt []byte) (*[keySize]byte, error) {
	raw, err := scrypt.Key([]byte(masterKey), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, err
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}

// EncryptString seals plaintext under the configured master key.
func EncryptString(plaintext string) (string, error) {
	config := GetConfig()

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key, err := deriveKey(config.BrokerCRKey, salt)
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}

	envelope := make([]byte, 0, saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce[:]...)
	envelope = secretbox.Seal(envelope, []byte(plaintext), &nonce, key)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// DecryptString opens an envelope produced by EncryptString.
func DecryptString(sealed string) (string, error) {
	config := GetConfig()

	envelope, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidEnvelope
	}
	if len(envelope) < saltSize+nonceSize+secretbox.Overhead {
		return "", ErrInvalidEnvelope
	}

	salt := envelope[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], envelope[saltSize:saltSize+nonceSize])
	box := envelope[saltSize+nonceSize:]

	key, err := deriveKey(config.BrokerCRKey, salt)
	if err != nil {
		return "", err
	}

	plaintext, ok := secretbox.Open(nil, box, &nonce, key)
	if !ok {
		return "", ErrInvalidEnvelope
	}
	return string(plaintext), nil
}
