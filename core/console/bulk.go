package console

import (
	"fmt"

	"argus-console/core/flow"
	"argus-console/core/wire"
)

const msgNothingSelected = "please select at least one user"

// LockUsers locks the selected accounts. Locking is reversible, so it runs
// without a confirmation prompt.
func (c *Console) LockUsers() {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		c.notify.Error(msgNothingSelected)
		return
	}
	c.runBulk(wire.BulkLock, ids)
}

// UnlockUsers unlocks the selected accounts, also without confirmation.
func (c *Console) UnlockUsers() {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		c.notify.Error(msgNothingSelected)
		return
	}
	c.runBulk(wire.BulkUnlock, ids)
}

// RemoveUsers deletes the selected accounts after an explicit confirmation.
// Declining the prompt leaves the console exactly as it was: no request, no
// queued follow-up work.
func (c *Console) RemoveUsers() {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		c.notify.Error(msgNothingSelected)
		return
	}
	if !c.confirm.Confirm(fmt.Sprintf("Remove %d selected user(s)? This cannot be undone.", len(ids))) {
		return
	}
	c.runBulk(wire.BulkRemove, ids)
}

// AssignRole moves the selected accounts to a role after confirmation.
func (c *Console) AssignRole(roleID int64) {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		c.notify.Error(msgNothingSelected)
		return
	}
	if !c.confirm.Confirm(fmt.Sprintf("Assign role %q to %d selected user(s)?", c.RoleName(&roleID), len(ids))) {
		return
	}
	c.runAction("/user/set-role", wire.SetRoleRequest{Users: ids, RoleID: roleID},
		fmt.Sprintf("role %q assigned to the selected users", c.RoleName(&roleID)))
}

var bulkSuccessText = map[wire.BulkAction]string{
	wire.BulkLock:   "selected users locked",
	wire.BulkUnlock: "selected users unlocked",
	wire.BulkRemove: "selected users removed",
}

func (c *Console) runBulk(action wire.BulkAction, ids []int64) {
	c.runAction("/user/update-users",
		wire.UpdateUsersRequest{Action: action, Users: ids},
		bulkSuccessText[action])
}

// runAction posts one mutation and, on success, notifies the operator and
// extends the run with the selection re-sync followed by the list reload.
// Failures surface to the operator and deliberately skip the reload so the
// rows the action named are still on screen.
func (c *Console) runAction(path string, body any, successMsg string) {
	flow.NewSequencer().
		AddArgs(c.actionStep, flow.Args{"path": path, "body": body, "success": successMsg}).
		Execute()
}

func (c *Console) actionStep(r *flow.Run, args flow.Args) {
	path, _ := args["path"].(string)
	c.transport.PostJSON(path, args["body"],
		func(resp wire.Response) {
			if resp.Code == wire.CodeOK {
				if msg, _ := args["success"].(string); msg != "" {
					c.notify.Success(msg)
				}
				r.Append(c.recomputeStep)
				r.Append(c.table.LoadData)
			} else {
				c.notify.Error(wire.ErrorText(resp.Code, resp.Message))
			}
			r.Done()
		},
		func(err error) {
			c.errorf("network error, please try again: %v", err)
			r.Done()
		})
}
