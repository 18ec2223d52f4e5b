package console

import (
	"fmt"
	"sync"

	"argus-console/core/flow"
	"argus-console/core/wire"
)

// InfoDialog shows the account detail. The list endpoint returns rows
// without the description, so the first open of a given row fetches the
// full record and writes it back into the table; later opens of the same
// row reuse the cached copy and never hit the network again.
type InfoDialog struct {
	console *Console

	// OnEdit opens the edit dialog for the shown user. Set by the wiring
	// code; invoked only after the info dialog has fully closed.
	OnEdit func(u wire.User)

	mu       sync.Mutex
	open     bool
	user     wire.User
	needEdit bool
}

func NewInfoDialog(c *Console) *InfoDialog {
	return &InfoDialog{console: c}
}

func (d *InfoDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// User returns the record currently on display.
func (d *InfoDialog) User() wire.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.user
}

// Open shows the detail for one row, fetching it first if the cached row
// has never been enriched.
func (d *InfoDialog) Open(userID int64) {
	row, ok := d.console.table.Row(userID)
	if !ok {
		d.console.notify.Error("user is no longer in the list")
		return
	}
	if row.Desc != nil {
		d.show(row)
		return
	}
	flow.NewSequencer().
		AddArgs(d.fetchStep, flow.Args{"id": userID}).
		Execute()
}

func (d *InfoDialog) fetchStep(r *flow.Run, args flow.Args) {
	id, _ := args["id"].(int64)
	d.console.transport.PostJSON(fmt.Sprintf("/user/get-user/%d", id), nil,
		func(resp wire.Response) {
			if resp.Code != wire.CodeOK {
				d.console.notify.Error(wire.ErrorText(resp.Code, resp.Message))
				r.Done()
				return
			}
			var u wire.User
			if err := resp.DecodeData(&u); err != nil {
				d.console.errorf("decode user detail: %v", err)
				r.Done()
				return
			}
			if u.Desc == nil {
				empty := ""
				u.Desc = &empty
			}
			d.console.table.UpdateRow(u)
			d.show(u)
			r.Done()
		},
		func(err error) {
			d.console.errorf("load user detail: %v", err)
			r.Done()
		})
}

func (d *InfoDialog) show(u wire.User) {
	d.mu.Lock()
	d.open = true
	d.user = u
	d.needEdit = false
	d.mu.Unlock()
}

// RequestEdit records that the operator wants to switch to editing. The
// edit dialog must not stack on top of this one, so the switch is deferred
// until Close has run.
func (d *InfoDialog) RequestEdit() {
	d.mu.Lock()
	if d.open {
		d.needEdit = true
	}
	d.mu.Unlock()
	d.Close()
}

// Close dismisses the dialog and, when an edit was requested while it was
// open, hands the user over to the edit dialog.
func (d *InfoDialog) Close() {
	d.mu.Lock()
	wasOpen := d.open
	edit := d.needEdit
	u := d.user
	d.open = false
	d.needEdit = false
	d.mu.Unlock()

	if wasOpen && edit && d.OnEdit != nil {
		d.OnEdit(u)
	}
}
