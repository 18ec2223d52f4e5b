package console

import (
	"fmt"
	"sync"

	"argus-console/core/flow"
	"argus-console/core/utils"
	"argus-console/core/wire"
)

// Options wires a Console to its collaborators. Logger may be nil.
type Options struct {
	Transport      Transport
	Uploader       Uploader
	Table          Table
	Confirmer      Confirmer
	Notifier       Notifier
	Logger         *utils.Logger
	SMTPConfigured bool
}

// Console is the shared context every console component hangs off: the
// transport, the table, the role lookup loaded once at startup, and the
// operator-facing notification channel.
type Console struct {
	transport Transport
	uploader  Uploader
	table     Table
	confirm   Confirmer
	notify    Notifier
	logger    *utils.Logger

	smtpConfigured bool

	mu    sync.Mutex
	roles []wire.Role
}

func New(opts Options) *Console {
	return &Console{
		transport:      opts.Transport,
		uploader:       opts.Uploader,
		table:          opts.Table,
		confirm:        opts.Confirmer,
		notify:         opts.Notifier,
		logger:         opts.Logger,
		smtpConfigured: opts.SMTPConfigured,
	}
}

// Init loads the role list and fills the table, in that order, so the first
// render already knows how to name roles.
func (c *Console) Init() {
	flow.NewSequencer().
		Add(c.loadRoles).
		Add(c.table.LoadData).
		Execute()
}

func (c *Console) loadRoles(r *flow.Run, _ flow.Args) {
	c.transport.PostJSON("/user/get-role-list", nil,
		func(resp wire.Response) {
			if resp.Code != wire.CodeOK {
				c.logger.Errorf("load roles: %s", wire.ErrorText(resp.Code, resp.Message))
				r.Done()
				return
			}
			var roles []wire.Role
			if err := resp.DecodeData(&roles); err != nil {
				c.logger.Errorf("decode roles: %v", err)
				r.Done()
				return
			}
			c.mu.Lock()
			c.roles = roles
			c.mu.Unlock()
			r.Done()
		},
		func(err error) {
			c.logger.Errorf("load roles: %v", err)
			r.Done()
		})
}

// Roles returns the lookup loaded at Init time.
func (c *Console) Roles() []wire.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]wire.Role, len(c.roles))
	copy(out, c.roles)
	return out
}

// RoleName resolves a role id for display. A nil or unknown id renders as
// the "not set" placeholder.
func (c *Console) RoleName(id *int64) string {
	if id == nil {
		return roleNotSet
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, role := range c.roles {
		if role.ID == *id {
			return role.Name
		}
	}
	return roleNotSet
}

// Reload refreshes the user list outside of any action flow, for example
// after the operator changes a filter.
func (c *Console) Reload() {
	flow.NewSequencer().Add(c.table.LoadData).Execute()
}

func (c *Console) errorf(format string, args ...any) {
	c.logger.Errorf(format, args...)
	c.notify.Error(fmt.Sprintf(format, args...))
}
