package crypt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	PEMPrivateKeyHeader = "PRIVATE KEY"
	PEMPublicKeyHeader  = "PUBLIC KEY"
)

// ErrorCrypto is the single error surfaced for any signing or
// verification failure. Callers never learn why a signature was bad.
var ErrorCrypto = errors.New("crypto error")

// GenerateKeyPair returns a fresh ed25519 key pair as PEM text,
// PKCS8 for the private key and PKIX for the public key.
func GenerateKeyPair() (privPEM string, pubPEM string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generating key pair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("marshalling private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", "", fmt.Errorf("marshalling public key: %w", err)
	}

	privPEM = string(pem.EncodeToMemory(&pem.Block{Type: PEMPrivateKeyHeader, Bytes: privDER}))
	pubPEM = string(pem.EncodeToMemory(&pem.Block{Type: PEMPublicKeyHeader, Bytes: pubDER}))
	return privPEM, pubPEM, nil
}

func DecodePrivateKey(privPEM string) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privPEM))
	if block == nil {
		return nil, ErrorCrypto
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrorCrypto
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrorCrypto
	}
	return key, nil
}

func DecodePublicKey(pubPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return nil, ErrorCrypto
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, ErrorCrypto
	}
	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, ErrorCrypto
	}
	return key, nil
}

// Sign signs raw message bytes and returns the signature base64 encoded.
func Sign(privPEM string, message []byte) (string, error) {
	key, err := DecodePrivateKey(privPEM)
	if err != nil {
		return "", err
	}
	sig := ed25519.Sign(key, message)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64 signature over raw message bytes. The bytes must
// be exactly the bytes that were signed; re-encoding them breaks this.
func Verify(pubPEM string, message []byte, sigB64 string) error {
	key, err := DecodePublicKey(pubPEM)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return ErrorCrypto
	}
	if !ed25519.Verify(key, message, sig) {
		return ErrorCrypto
	}
	return nil
}
