package console

import (
	"sync"

	"argus-console/core/flow"
	"argus-console/core/wire"
)

// PasswordDialog resets an account password, either by mailing the user a
// generated one or by setting a value the operator typed in.
type PasswordDialog struct {
	console *Console

	mu   sync.Mutex
	open bool
	user wire.User
}

func NewPasswordDialog(c *Console) *PasswordDialog {
	return &PasswordDialog{console: c}
}

func (d *PasswordDialog) Open(u wire.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.user = u
}

func (d *PasswordDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *PasswordDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
}

// CanSendEmail reports whether the mail path is usable: the service must
// have SMTP configured and the account must have an address. The frontend
// disables the mail option when this is false.
func (d *PasswordDialog) CanSendEmail() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.console.smtpConfigured && d.user.Email != ""
}

// SendResetEmail asks the service to generate a password and mail it.
func (d *PasswordDialog) SendResetEmail() {
	d.mu.Lock()
	u := d.user
	d.mu.Unlock()

	if !d.console.smtpConfigured {
		d.console.notify.Error("mail delivery is not configured on the server")
		return
	}
	if u.Email == "" {
		d.console.notify.Error("this account has no email address")
		return
	}
	d.submit(wire.ResetPasswordRequest{Mode: wire.ResetByEmail, ID: u.ID},
		"a reset email is on its way to "+u.Email)
}

// SetPassword writes the operator-supplied password directly.
func (d *PasswordDialog) SetPassword(password string) {
	if password == "" {
		d.console.notify.Error("password must not be empty")
		return
	}
	d.mu.Lock()
	u := d.user
	d.mu.Unlock()
	d.submit(wire.ResetPasswordRequest{Mode: wire.ResetDirect, ID: u.ID, Password: password},
		"password updated")
}

func (d *PasswordDialog) submit(req wire.ResetPasswordRequest, successMsg string) {
	flow.NewSequencer().
		AddArgs(d.submitStep, flow.Args{"req": req, "msg": successMsg}).
		Execute()
}

func (d *PasswordDialog) submitStep(r *flow.Run, args flow.Args) {
	req, _ := args["req"].(wire.ResetPasswordRequest)
	msg, _ := args["msg"].(string)
	d.console.transport.PostJSON("/user/do-reset-password", req,
		func(resp wire.Response) {
			if resp.Code == wire.CodeOK {
				d.console.notify.Success(msg)
				d.Close()
			} else {
				d.console.notify.Error(wire.ErrorText(resp.Code, resp.Message))
			}
			r.Done()
		},
		func(err error) {
			d.console.errorf("reset password: %v", err)
			r.Done()
		})
}
