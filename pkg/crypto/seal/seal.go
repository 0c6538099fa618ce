// Package seal implements the message sealing used on the relay path:
// AES-256-CBC with PKCS#7 padding, a random IV per message, and a
// base64(IV || ciphertext) wire encoding. Keys travel as 64 lowercase hex
// characters. Both formats are fixed; existing clients depend on them
// bit-exactly.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// KeySize is the shared key length in bytes (AES-256).
const KeySize = 32

var (
	// ErrKeyFormat reports a key that is not 64 hex characters.
	ErrKeyFormat = errors.New("seal: key must be 64 hex characters")
	// ErrCiphertext reports a payload too short or not block-aligned.
	ErrCiphertext = errors.New("seal: malformed ciphertext")
	// ErrPadding reports invalid PKCS#7 padding after decryption.
	ErrPadding = errors.New("seal: bad padding")
)

// NewKey generates a fresh random 256-bit key encoded as lowercase hex.
func NewKey() string {
	k := make([]byte, KeySize)
	if _, err := rand.Read(k); err != nil {
		// crypto/rand never fails on supported platforms
		panic("seal: rand: " + err.Error())
	}
	return hex.EncodeToString(k)
}

// Encrypt seals plaintext under keyHex with a fresh random IV and returns
// base64(IV || ciphertext).
func Encrypt(plaintext, keyHex string) (string, error) {
	block, err := newBlock(keyHex)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("seal: iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a base64(IV || ciphertext) payload sealed under keyHex.
func Decrypt(payload, keyHex string) (string, error) {
	block, err := newBlock(keyHex)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return "", ErrCiphertext
	}
	iv, ct := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)
	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newBlock(keyHex string) (cipher.Block, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != KeySize {
		return nil, ErrKeyFormat
	}
	return aes.NewCipher(key)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, ErrPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrPadding
		}
	}
	return b[:len(b)-n], nil
}
