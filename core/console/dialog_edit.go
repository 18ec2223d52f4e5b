package console

import (
	"sync"

	"argus-console/core/flow"
	"argus-console/core/utils"
	"argus-console/core/wire"
)

// EditForm is the dialog's working copy of an account. A nil ID means the
// dialog creates a new account; the wire sentinel is applied only at submit
// time. A nil RoleID means the operator has not chosen a role yet, which is
// a validation error rather than a storable value.
type EditForm struct {
	ID          *int64
	RoleID      *int64
	Auth        wire.AuthConfig
	Username    string
	DisplayName string
	Email       string
	Mobile      string
	QQ          string
	WeChat      string
	Desc        string
}

// EditDialog creates or edits one account. Validation failures and service
// rejections keep the dialog open with an inline error; only a confirmed
// save closes it and reloads the list.
type EditDialog struct {
	console *Console

	mu        sync.Mutex
	open      bool
	form      EditForm
	lastError string
}

func NewEditDialog(c *Console) *EditDialog {
	return &EditDialog{console: c}
}

// OpenCreate opens the dialog on a blank form.
func (d *EditDialog) OpenCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.lastError = ""
	d.form = EditForm{Auth: wire.AuthConfig{UseSystemDefault: true}}
}

// OpenEdit opens the dialog pre-filled from an existing row.
func (d *EditDialog) OpenEdit(u wire.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.lastError = ""
	id := u.ID
	d.form = EditForm{
		ID:          &id,
		RoleID:      u.RoleID,
		Auth:        wire.AuthFromBitmask(u.AuthType),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Mobile:      u.Mobile,
		QQ:          u.QQ,
		WeChat:      u.WeChat,
	}
	if u.Desc != nil {
		d.form.Desc = *u.Desc
	}
}

func (d *EditDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// LastError is the inline error shown in the dialog, empty when none.
func (d *EditDialog) LastError() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastError
}

func (d *EditDialog) Form() EditForm {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form
}

// SetForm replaces the working copy, as the frontend binds field edits.
func (d *EditDialog) SetForm(f EditForm) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.form = f
}

func (d *EditDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
}

// validate checks the form in the order the fields appear in the dialog, so
// the inline error always points at the topmost problem.
func validateForm(f EditForm) string {
	if f.RoleID == nil {
		return "please choose a role"
	}
	if err := utils.ValidateUsername(f.Username); err != nil {
		return err.Error()
	}
	if f.Email != "" {
		if err := utils.ValidateEmail(f.Email); err != nil {
			return err.Error()
		}
	}
	if !f.Auth.UseSystemDefault && len(f.Auth.Methods) == 0 {
		return "choose at least one authentication method"
	}
	return ""
}

// Submit validates and saves. On success the dialog closes and the list
// reloads; on any failure the dialog stays open with the error inline.
func (d *EditDialog) Submit() {
	d.mu.Lock()
	f := d.form
	d.mu.Unlock()

	if msg := validateForm(f); msg != "" {
		d.setError(msg)
		return
	}

	req := wire.UpdateUserRequest{
		ID:          wire.CreateID,
		RoleID:      *f.RoleID,
		AuthType:    f.Auth.Bitmask(),
		Username:    f.Username,
		DisplayName: f.DisplayName,
		Email:       f.Email,
		Mobile:      f.Mobile,
		QQ:          f.QQ,
		WeChat:      f.WeChat,
		Desc:        f.Desc,
	}
	if f.ID != nil {
		req.ID = *f.ID
	}

	flow.NewSequencer().
		AddArgs(d.submitStep, flow.Args{"req": req}).
		Execute()
}

func (d *EditDialog) submitStep(r *flow.Run, args flow.Args) {
	req, _ := args["req"].(wire.UpdateUserRequest)
	d.console.transport.PostJSON("/user/update-user", req,
		func(resp wire.Response) {
			if resp.Code == wire.CodeOK {
				d.mu.Lock()
				d.open = false
				d.lastError = ""
				d.mu.Unlock()
				if req.ID == wire.CreateID {
					d.console.notify.Success("user created")
				} else {
					d.console.notify.Success("user saved")
				}
				r.Append(d.console.table.LoadData)
			} else {
				d.setError(wire.ErrorText(resp.Code, resp.Message))
			}
			r.Done()
		},
		func(err error) {
			d.setError("network error, please try again")
			d.console.logger.Errorf("save user: %v", err)
			r.Done()
		})
}

func (d *EditDialog) setError(msg string) {
	d.mu.Lock()
	d.lastError = msg
	d.mu.Unlock()
}
