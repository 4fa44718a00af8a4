package kalshi_auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderKey       = "KALSHI-ACCESS-KEY"
	HeaderSignature = "KALSHI-ACCESS-SIGNATURE"
	HeaderTimestamp = "KALSHI-ACCESS-TIMESTAMP"
)

// SigningError means requests cannot be authenticated: the key is missing,
// unparseable, or refused to sign. Fatal at startup.
type SigningError struct {
	Op  string
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("kalshi signing: %s: %v", e.Op, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// Signer implements Kalshi API request signing using RSA-PSS with SHA-256.
// Both the HTTP and WebSocket clients share this signer.
type Signer struct {
	keyID      string
	privateKey *rsa.PrivateKey
	rand       io.Reader
	now        func() time.Time
}

// NewSigner wraps an already-parsed key.
func NewSigner(keyID string, key *rsa.PrivateKey) (*Signer, error) {
	if keyID == "" {
		return nil, &SigningError{Op: "load", Err: fmt.Errorf("API key id is required")}
	}
	if key == nil {
		return nil, &SigningError{Op: "load", Err: fmt.Errorf("private key is required")}
	}
	return &Signer{keyID: keyID, privateKey: key, rand: rand.Reader, now: time.Now}, nil
}

// NewSignerFromFile loads an RSA private key from a PEM file and returns a
// Signer.
func NewSignerFromFile(keyID, keyFilePath string) (*Signer, error) {
	if keyFilePath == "" {
		return nil, &SigningError{Op: "load", Err: fmt.Errorf("private key path is required")}
	}

	pemData, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, &SigningError{Op: "load", Err: fmt.Errorf("read key file %s: %w", keyFilePath, err)}
	}

	key, err := ParsePrivateKey(pemData)
	if err != nil {
		return nil, &SigningError{Op: "load", Err: fmt.Errorf("%s: %w", keyFilePath, err)}
	}

	return NewSigner(keyID, key)
}

// ParsePrivateKey decodes a PEM block holding a PKCS#8 or PKCS#1 RSA key.
func ParsePrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	// Try PKCS#8 first, fall back to PKCS#1.
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not RSA (got %T)", parsed)
		}
		return rsaKey, nil
	}
	if pk1, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return pk1, nil
	}
	return nil, fmt.Errorf("parse private key: not PKCS#8 or PKCS#1")
}

// KeyID returns the access key identifier sent with every request.
func (s *Signer) KeyID() string { return s.keyID }

// Sign signs timestamp+method+path with the query string stripped from
// path. The millisecond timestamp is taken fresh on every call.
func (s *Signer) Sign(method, path string) (signature, timestamp string, err error) {
	path, _, _ = strings.Cut(path, "?")

	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	hash := sha256.Sum256([]byte(ts + method + path))

	sig, err := rsa.SignPSS(s.rand, s.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return "", "", &SigningError{Op: "sign", Err: err}
	}

	return base64.StdEncoding.EncodeToString(sig), ts, nil
}

// SignRequest sets KALSHI-ACCESS-KEY, KALSHI-ACCESS-SIGNATURE, and
// KALSHI-ACCESS-TIMESTAMP headers on req.
func (s *Signer) SignRequest(req *http.Request) error {
	h, err := s.Headers(req.Method, req.URL.Path)
	if err != nil {
		return err
	}
	for k, v := range h {
		req.Header[k] = v
	}
	return nil
}

// Headers returns auth headers suitable for a WebSocket dial. The method and
// path should match the WS endpoint (e.g. "GET", "/trade-api/ws/v2").
func (s *Signer) Headers(method, path string) (http.Header, error) {
	sig, ts, err := s.Sign(method, path)
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	h.Set(HeaderKey, s.keyID)
	h.Set(HeaderSignature, sig)
	h.Set(HeaderTimestamp, ts)
	return h, nil
}
