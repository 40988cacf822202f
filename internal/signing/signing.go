// Package signing produces the RS256 signatures over license assertion
// payloads. The private key is loaded once at startup and held for the
// process lifetime; it is never logged and never leaves the service.
// The desktop client verifies with a public key pinned out of band.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

const Algorithm = "RS256"

var ErrNoKeyMaterial = errors.New("no signing key material configured")

type Signer struct {
	key *rsa.PrivateKey
}

func NewSigner(key *rsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Sign returns the base64url (unpadded) RSASSA-PKCS1-v1_5/SHA-256
// signature over payload. Deterministic for a given payload and key.
func (s *Signer) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}

// Verify checks a detached signature produced by Sign. Mirrors what the
// desktop client does with the pinned public key.
func Verify(pub *rsa.PublicKey, payload []byte, signature string) error {
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("malformed signature encoding: %w", err)
	}
	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}

// LoadPrivateKey resolves key material in priority order: inline PEM,
// base64-encoded DER, then a PEM file path.
func LoadPrivateKey(pemData, derB64, filePath string) (*rsa.PrivateKey, error) {
	switch {
	case strings.TrimSpace(pemData) != "":
		return parsePrivateKeyPEM([]byte(pemData))
	case strings.TrimSpace(derB64) != "":
		der, err := base64.StdEncoding.DecodeString(stripWhitespace(derB64))
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 key material: %w", err)
		}
		return parsePrivateKeyDER(der)
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		return parsePrivateKeyPEM(data)
	default:
		return nil, ErrNoKeyMaterial
	}
}

func parsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block from private key material")
	}
	return parsePrivateKeyDER(block.Bytes)
}

func parsePrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not an RSA key")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key (PKCS#8 or PKCS#1 expected): %w", err)
	}
	return key, nil
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// EncodePrivateKeyPEM and EncodePublicKeyPEM render a keypair in the
// formats the service and the desktop client expect (PKCS#8 / PKIX).
func EncodePrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
