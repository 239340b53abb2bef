package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/flowlog/pkg/config"
)

// writeCert writes a self-signed certificate for 127.0.0.1 valid between
// notBefore and notAfter, returning the cert and key paths.
func writeCert(t *testing.T, notBefore, notAfter time.Time) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "flowlog-test"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate failed: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey failed: %v", err)
	}

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath
}

func TestTLSConfig(t *testing.T) {
	now := time.Now()
	certPath, keyPath := writeCert(t, now.Add(-time.Hour), now.Add(time.Hour))
	expiredCert, expiredKey := writeCert(t, now.Add(-2*time.Hour), now.Add(-time.Hour))

	tests := []struct {
		name       string
		cfg        config.ServerTLSConfig
		wantNil    bool
		wantErr    bool
		wantMin    uint16
		wantClient tls.ClientAuthType
	}{
		{name: "disabled", cfg: config.ServerTLSConfig{}, wantNil: true},
		{name: "default version", cfg: config.ServerTLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath}, wantMin: tls.VersionTLS13},
		{name: "tls 1.2", cfg: config.ServerTLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, MinVersion: "1.2"}, wantMin: tls.VersionTLS12},
		{
			name:       "mutual tls",
			cfg:        config.ServerTLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, ClientCAFile: certPath},
			wantMin:    tls.VersionTLS13,
			wantClient: tls.RequireAndVerifyClientCert,
		},
		{name: "missing files", cfg: config.ServerTLSConfig{Enabled: true, CertFile: "nope.pem", KeyFile: "nope.key"}, wantErr: true},
		{name: "expired", cfg: config.ServerTLSConfig{Enabled: true, CertFile: expiredCert, KeyFile: expiredKey}, wantErr: true},
		{name: "bad client ca", cfg: config.ServerTLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, ClientCAFile: keyPath}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TLSConfig(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Error("expected nil config")
				}
				return
			}
			if got.MinVersion != tt.wantMin {
				t.Errorf("MinVersion = %x, want %x", got.MinVersion, tt.wantMin)
			}
			if got.ClientAuth != tt.wantClient {
				t.Errorf("ClientAuth = %v, want %v", got.ClientAuth, tt.wantClient)
			}
		})
	}
}

func TestServer_ServeTLS(t *testing.T) {
	now := time.Now()
	certPath, keyPath := writeCert(t, now.Add(-time.Hour), now.Add(time.Hour))
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.TLS = config.ServerTLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, MinVersion: "1.3"}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	pemData, err := os.ReadFile(certPath)
	if err != nil {
		t.Fatalf("read cert: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(pemData)
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS13}},
	}

	resp, err := client.Get("https://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET over TLS failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.TLS == nil || resp.TLS.Version != tls.VersionTLS13 {
		t.Errorf("expected a TLS 1.3 connection, got %+v", resp.TLS)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}
