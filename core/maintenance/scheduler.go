// Package maintenance runs the periodic housekeeping jobs: audit-log
// retention and, when a lock expiry is configured, lifting stale locks.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"argus-console/config"
	"argus-console/core/store"
	"argus-console/core/utils"
)

type Scheduler struct {
	cfg    config.MaintenanceConfig
	users  store.UsersStore
	audits store.AuditStore
	logger *utils.Logger
	cron   *cron.Cron
}

func NewScheduler(cfg config.MaintenanceConfig, users store.UsersStore, audits store.AuditStore, logger *utils.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, users: users, audits: audits, logger: logger}
}

func (s *Scheduler) Start() error {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunOnce(ctx, time.Now().UTC())
	}); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.logger.Printf("maintenance: scheduled %q", s.cfg.Spec)
	return nil
}

func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce performs one maintenance pass. Exposed for tests and the cron job.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) {
	if s.cfg.AuditRetention > 0 {
		cutoff := now.Add(-s.cfg.AuditRetention)
		if n, err := s.audits.PurgeBefore(ctx, cutoff); err != nil {
			s.logger.Errorf("maintenance: purge audit: %v", err)
		} else if n > 0 {
			s.logger.Printf("maintenance: purged %d audit rows", n)
		}
	}
	if s.cfg.LockExpiry > 0 {
		cutoff := now.Add(-s.cfg.LockExpiry)
		if n, err := s.users.UnlockLockedBefore(ctx, cutoff); err != nil {
			s.logger.Errorf("maintenance: lift expired locks: %v", err)
		} else if n > 0 {
			s.audits.Log(ctx, "system", "user.unlock_expired", "")
			s.logger.Printf("maintenance: lifted %d expired locks", n)
		}
	}
}
