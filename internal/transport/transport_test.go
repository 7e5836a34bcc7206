package transport

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"s3put/internal/config"
)

func TestNewAppliesTimeout(t *testing.T) {
	t.Parallel()

	client, err := New(config.UploadConfig{TimeoutSeconds: 42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.Timeout != 42*time.Second {
		t.Fatalf("timeout = %v, want 42s", client.Timeout)
	}
}

func TestNewDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	redirected := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/elsewhere" {
			redirected = true
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/elsewhere", http.StatusTemporaryRedirect)
	}))
	defer srv.Close()

	client, err := New(config.UploadConfig{TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := client.Get(srv.URL + "/object")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", resp.StatusCode)
	}
	if redirected {
		t.Fatalf("redirect was followed")
	}
}

func TestNewRejectsMissingCABundle(t *testing.T) {
	t.Parallel()

	_, err := New(config.UploadConfig{TimeoutSeconds: 5, CABundleFile: filepath.Join(t.TempDir(), "absent.pem")})
	if err == nil {
		t.Fatalf("expected error for missing ca bundle")
	}
}

func TestNewRejectsGarbageCABundle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bundle.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	_, err := New(config.UploadConfig{TimeoutSeconds: 5, CABundleFile: path})
	if err == nil {
		t.Fatalf("expected error for unparseable ca bundle")
	}
}

func TestNewLoadsCABundle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "bundle.pem")
	cert := srv.Certificate()
	pemBytes := pemEncodeCert(t, cert.Raw)
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	client, err := New(config.UploadConfig{TimeoutSeconds: 5, CABundleFile: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get over tls: %v", err)
	}
	resp.Body.Close()
}

func pemEncodeCert(t *testing.T, der []byte) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
