package kalshi_auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return key
}

func verify(t *testing.T, key *rsa.PrivateKey, message, sig string) {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		t.Fatalf("signature is not base64: %v", err)
	}
	hash := sha256.Sum256([]byte(message))
	err = rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, hash[:], raw, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		t.Fatalf("signature does not verify for %q: %v", message, err)
	}
}

func TestSigner_SignVerifies(t *testing.T) {
	key := testKey(t)
	s, err := NewSigner("key-1", key)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	sig, ts, err := s.Sign("GET", "/trade-api/v2/portfolio/balance")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if ts != "1700000000123" {
		t.Errorf("timestamp = %q, want %q", ts, "1700000000123")
	}
	verify(t, key, "1700000000123GET/trade-api/v2/portfolio/balance", sig)
}

func TestSigner_StripsQuery(t *testing.T) {
	key := testKey(t)
	s, _ := NewSigner("key-1", key)
	s.now = func() time.Time { return time.UnixMilli(42) }

	sig, _, err := s.Sign("GET", "/trade-api/v2/portfolio/orders?status=executed&limit=100")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	verify(t, key, "42GET/trade-api/v2/portfolio/orders", sig)
}

func TestSigner_FreshTimestampPerCall(t *testing.T) {
	s, _ := NewSigner("key-1", testKey(t))
	var tick int64 = 1000
	s.now = func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}

	_, ts1, _ := s.Sign("GET", "/a")
	_, ts2, _ := s.Sign("GET", "/a")
	if ts1 == ts2 {
		t.Errorf("timestamps reused across calls: %s", ts1)
	}
}

func TestSigner_SignRequestSetsHeaders(t *testing.T) {
	key := testKey(t)
	s, _ := NewSigner("key-abc", key)

	req, _ := http.NewRequest(http.MethodDelete, "https://example.com/trade-api/v2/portfolio/orders/o1?x=1", nil)
	if err := s.SignRequest(req); err != nil {
		t.Fatalf("SignRequest: %v", err)
	}

	if got := req.Header.Get(HeaderKey); got != "key-abc" {
		t.Errorf("%s = %q, want %q", HeaderKey, got, "key-abc")
	}
	ts := req.Header.Get(HeaderTimestamp)
	if ts == "" {
		t.Fatalf("%s is empty", HeaderTimestamp)
	}
	verify(t, key, ts+"DELETE/trade-api/v2/portfolio/orders/o1", req.Header.Get(HeaderSignature))
}

func TestNewSigner_MissingInputs(t *testing.T) {
	var se *SigningError
	if _, err := NewSigner("", testKey(t)); !errors.As(err, &se) {
		t.Errorf("missing key id: err = %v, want SigningError", err)
	}
	if _, err := NewSigner("id", nil); !errors.As(err, &se) {
		t.Errorf("missing key: err = %v, want SigningError", err)
	}
	if _, err := NewSignerFromFile("id", ""); !errors.As(err, &se) {
		t.Errorf("missing path: err = %v, want SigningError", err)
	}
}

func TestNewSignerFromFile(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal PKCS#8: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"pkcs8", pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}), false},
		{"pkcs1", pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), false},
		{"not pem", []byte("not a pem file"), true},
		{"garbage block", pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("junk")}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".pem")
			if err := os.WriteFile(path, tt.data, 0o600); err != nil {
				t.Fatalf("write key: %v", err)
			}

			s, err := NewSignerFromFile("kid", path)
			if tt.wantErr {
				var se *SigningError
				if !errors.As(err, &se) {
					t.Fatalf("err = %v, want SigningError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSignerFromFile: %v", err)
			}
			if s.privateKey.N.Cmp(key.N) != 0 {
				t.Error("loaded key does not match original")
			}
			if s.KeyID() != "kid" {
				t.Errorf("KeyID = %q, want %q", s.KeyID(), "kid")
			}
		})
	}
}

func TestNewSignerFromFile_NotFound(t *testing.T) {
	_, err := NewSignerFromFile("kid", "/nonexistent/path/to/key.pem")
	var se *SigningError
	if !errors.As(err, &se) {
		t.Errorf("err = %v, want SigningError", err)
	}
}
