package tasks

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/localplatform/homeroute-sub001/internal/certcheck"
	"github.com/localplatform/homeroute-sub001/internal/compiler"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// Certificates expiring within this many days are flagged in the log.
const expiryWarningDays = 14

// CertSweep runs the certificate monitor on a schedule, independently of
// the mutation pipeline, so expiring certificates surface in the log even
// when nobody opens the dashboard.
type CertSweep struct {
	store    *registry.Store
	monitor  *certcheck.Monitor
	schedule string
	cron     *cron.Cron
}

// NewCertSweep creates a scheduled certificate sweep. The schedule is a
// standard cron expression; empty disables the sweep.
func NewCertSweep(store *registry.Store, monitor *certcheck.Monitor, schedule string) *CertSweep {
	return &CertSweep{
		store:    store,
		monitor:  monitor,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start begins the sweep in the background.
func (cs *CertSweep) Start() error {
	logger := logging.GetGlobalLogger()
	if cs.schedule == "" {
		logger.Warn("CertSweep: no schedule configured, skipping background certificate checks")
		return nil
	}

	if _, err := cs.cron.AddFunc(cs.schedule, cs.run); err != nil {
		return err
	}
	cs.cron.Start()
	logger.Info("Started certificate sweep task (schedule: %s)", cs.schedule)
	return nil
}

// Stop gracefully stops the sweep, waiting for a running sweep to finish.
func (cs *CertSweep) Stop() {
	ctx := cs.cron.Stop()
	<-ctx.Done()
}

func (cs *CertSweep) run() {
	logger := logging.GetGlobalLogger()

	reg, err := cs.store.Load()
	if err != nil {
		logger.Error("CertSweep: failed to load registry: %v", err)
		return
	}

	entries := compiler.DomainEntries(reg)
	if len(entries) == 0 {
		return
	}

	results := cs.monitor.ProbeAll(context.Background(), entries)
	for _, result := range results {
		switch {
		case !result.Valid:
			logger.Error("CertSweep: %s has no valid certificate (%s)", result.Domain, result.Reason)
		case result.DaysRemaining <= expiryWarningDays:
			logger.Warn("CertSweep: certificate for %s expires in %d days", result.Domain, result.DaysRemaining)
		}
	}
	logger.Info("CertSweep: checked %d domains", len(results))
}
