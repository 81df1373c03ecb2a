package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	stdtls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a throwaway certificate and key into dir
func writeSelfSigned(t *testing.T, dir string) (string, string) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("uses defaults", func(t *testing.T) {
		for _, key := range []string{"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE", "TLS_PORT",
			"HTTP_PORT", "TLS_REDIRECT_HTTP", "TLS_MIN_VERSION", "TLS_MAX_VERSION"} {
			t.Setenv(key, "")
		}

		cfg := NewConfigFromEnv()

		assert.False(t, cfg.Enabled)
		assert.Equal(t, "8443", cfg.Port)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.True(t, cfg.RedirectHTTP)
		assert.Equal(t, uint16(stdtls.VersionTLS12), cfg.MinVersion)
		assert.Equal(t, uint16(stdtls.VersionTLS13), cfg.MaxVersion)
	})

	t.Run("reads environment", func(t *testing.T) {
		t.Setenv("TLS_ENABLED", "true")
		t.Setenv("TLS_MIN_VERSION", "1.3")
		t.Setenv("TLS_PORT", "443")

		cfg := NewConfigFromEnv()

		assert.True(t, cfg.Enabled)
		assert.Equal(t, "443", cfg.Port)
		assert.Equal(t, uint16(stdtls.VersionTLS13), cfg.MinVersion)
	})

	t.Run("falls back on unsupported versions", func(t *testing.T) {
		t.Setenv("TLS_MIN_VERSION", "1.0")
		assert.Equal(t, uint16(stdtls.VersionTLS12), NewConfigFromEnv().MinVersion)
	})
}

func TestServerTLSConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, err := (&Config{}).ServerTLSConfig()
		assert.ErrorIs(t, err, ErrTLSDisabled)
	})

	t.Run("missing files", func(t *testing.T) {
		cfg := &Config{
			Enabled:    true,
			CertFile:   filepath.Join(t.TempDir(), "missing.crt"),
			KeyFile:    filepath.Join(t.TempDir(), "missing.key"),
			MinVersion: stdtls.VersionTLS12,
			MaxVersion: stdtls.VersionTLS13,
		}
		_, err := cfg.ServerTLSConfig()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("inverted versions", func(t *testing.T) {
		cfg := &Config{Enabled: true, MinVersion: stdtls.VersionTLS13, MaxVersion: stdtls.VersionTLS12}
		_, err := cfg.ServerTLSConfig()
		assert.ErrorContains(t, err, "above max version")
	})

	t.Run("loads a key pair", func(t *testing.T) {
		certFile, keyFile := writeSelfSigned(t, t.TempDir())
		cfg := &Config{
			Enabled:    true,
			CertFile:   certFile,
			KeyFile:    keyFile,
			MinVersion: stdtls.VersionTLS12,
			MaxVersion: stdtls.VersionTLS13,
		}

		tlsConfig, err := cfg.ServerTLSConfig()
		require.NoError(t, err)
		assert.Len(t, tlsConfig.Certificates, 1)
		assert.Equal(t, uint16(stdtls.VersionTLS12), tlsConfig.MinVersion)
		assert.NotEmpty(t, tlsConfig.CipherSuites)
	})
}

func TestHTTPSRedirectHandler(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		method   string
		target   string
		host     string
		status   int
		location string
	}{
		{"default port drops the port", "443", "GET", "/?x=1", "todo.example.com:8080", http.StatusMovedPermanently, "https://todo.example.com/?x=1"},
		{"custom port is kept", "8443", "GET", "/", "localhost:8080", http.StatusMovedPermanently, "https://localhost:8443/"},
		{"host without port", "8443", "GET", "/health", "localhost", http.StatusMovedPermanently, "https://localhost:8443/health"},
		{"form posts keep their method", "443", "POST", "/items", "todo.example.com", http.StatusPermanentRedirect, "https://todo.example.com/items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Host = tt.host
			w := httptest.NewRecorder()

			HTTPSRedirectHandler(tt.port).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}
