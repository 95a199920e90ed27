package certcheck

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localplatform/homeroute-sub001/internal/compiler"
)

// serveTLS starts a TLS listener presenting a self-signed certificate with
// the given validity window and returns the bound port.
func serveTLS(t *testing.T, notBefore, notAfter time.Time) int {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	// x509.CreateCertificate ignores the template's Issuer field and copies
	// the parent's Subject instead, so the issuer name must come from a CA.
	caTemplate := x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "test authority"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "www.home.example.com"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		DNSNames:     []string{"www.home.example.com"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &caTemplate, &key.PublicKey, caKey)
	require.NoError(t, err)

	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			// Drive the handshake so the client sees the certificate.
			_ = conn.(*tls.Conn).Handshake()
			conn.Close()
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port
}

func TestMonitor_Probe_ValidCertificate(t *testing.T) {
	now := time.Now()
	port := serveTLS(t, now.Add(-time.Hour), now.Add(90*24*time.Hour))

	monitor := &Monitor{Port: port, now: time.Now}
	result := monitor.Probe(context.Background(), compiler.DomainEntry{
		RuleID: "app-1:prod:frontend",
		Domain: "127.0.0.1",
	})

	assert.True(t, result.Valid)
	assert.Equal(t, "app-1:prod:frontend", result.RuleID)
	assert.InDelta(t, 89, result.DaysRemaining, 1)
	assert.Equal(t, "test authority", result.Issuer)
	assert.Equal(t, "www.home.example.com", result.Subject)
	assert.Empty(t, result.Reason)
}

func TestMonitor_Probe_ExpiredCertificate(t *testing.T) {
	now := time.Now()
	port := serveTLS(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	monitor := &Monitor{Port: port, now: time.Now}
	result := monitor.Probe(context.Background(), compiler.DomainEntry{
		RuleID: "nas",
		Domain: "127.0.0.1",
	})

	assert.False(t, result.Valid)
	assert.LessOrEqual(t, result.DaysRemaining, 0)
	assert.Equal(t, "certificate expired", result.Reason)
}

func TestMonitor_Probe_ConnectionRefused(t *testing.T) {
	// Bind a port, then close it so the dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	monitor := &Monitor{Port: port, now: time.Now}
	result := monitor.Probe(context.Background(), compiler.DomainEntry{
		RuleID: "nas",
		Domain: "127.0.0.1",
	})

	assert.False(t, result.Valid)
	assert.Equal(t, "connection refused", result.Reason)
}

func TestMonitor_ProbeAll_PreservesOrder(t *testing.T) {
	now := time.Now()
	port := serveTLS(t, now.Add(-time.Hour), now.Add(30*24*time.Hour))

	monitor := &Monitor{Port: port, now: time.Now}
	entries := []compiler.DomainEntry{
		{RuleID: "a", Domain: "127.0.0.1"},
		{RuleID: "b", Domain: "127.0.0.1"},
		{RuleID: "c", Domain: "127.0.0.1"},
	}

	results := monitor.ProbeAll(context.Background(), entries)
	require.Len(t, results, 3)
	for i, entry := range entries {
		assert.Equal(t, entry.RuleID, results[i].RuleID)
		assert.True(t, results[i].Valid)
	}
}
