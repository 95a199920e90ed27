// Package certcheck verifies, via direct TLS handshakes, that every
// configured hostname serves a valid certificate. Validity is assessed from
// the certificate's own fields, not from trust-chain verification.
package certcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/localplatform/homeroute-sub001/internal/compiler"
)

const probeTimeout = 5 * time.Second

// Result is the certificate state of one domain, keyed by the compiled
// rule id so the dashboard can correlate route and certificate.
type Result struct {
	RuleID        string `json:"ruleId"`
	Domain        string `json:"domain"`
	Valid         bool   `json:"valid"`
	DaysRemaining int    `json:"daysRemaining"`
	Issuer        string `json:"issuer,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Monitor probes TLS endpoints.
type Monitor struct {
	// Port is the TLS port probed on every domain, 443 by default.
	Port int
	// now is injectable for expiry tests.
	now func() time.Time
}

// NewMonitor creates a monitor probing the standard HTTPS port.
func NewMonitor() *Monitor {
	return &Monitor{Port: 443, now: time.Now}
}

// Probe opens a TLS connection to the domain and inspects the leaf
// certificate. Probe failures are results, never fatal errors.
func (m *Monitor) Probe(ctx context.Context, entry compiler.DomainEntry) Result {
	result := Result{RuleID: entry.RuleID, Domain: entry.Domain}

	dialer := &net.Dialer{Timeout: probeTimeout}
	address := fmt.Sprintf("%s:%d", entry.Domain, m.Port)

	conn, err := tls.DialWithDialer(dialer, "tcp", address, &tls.Config{
		ServerName: entry.Domain,
		// Validity comes from the certificate's own fields below.
		InsecureSkipVerify: true,
	})
	if err != nil {
		result.Reason = probeFailureReason(err)
		return result
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		result.Reason = "no certificate"
		return result
	}

	leaf := certs[0]
	remaining := int(leaf.NotAfter.Sub(m.now()).Hours() / 24)
	result.DaysRemaining = remaining
	result.Valid = remaining > 0
	result.Issuer = leaf.Issuer.CommonName
	result.Subject = leaf.Subject.CommonName
	if !result.Valid {
		result.Reason = "certificate expired"
	}
	return result
}

// ProbeAll checks every domain concurrently. Each probe only reads registry
// data and writes its own result slot, so no locking is needed.
func (m *Monitor) ProbeAll(ctx context.Context, entries []compiler.DomainEntry) []Result {
	results := make([]Result, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry compiler.DomainEntry) {
			defer wg.Done()
			results[i] = m.Probe(ctx, entry)
		}(i, entry)
	}
	wg.Wait()

	return results
}

func probeFailureReason(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused"
	}
	return err.Error()
}
