package console

import "argus-console/core/flow"

// SelectedIDs reports the users whose row checkbox is ticked, in row order.
func (c *Console) SelectedIDs() []int64 {
	var ids []int64
	for _, box := range c.table.Checkboxes() {
		if box.Checked() {
			ids = append(ids, box.UserID())
		}
	}
	return ids
}

// RecomputeIndicator re-derives the select-all indicator from the rows: on
// only when there is at least one checkbox and every one of them is ticked.
// An empty table therefore always shows the indicator off.
func (c *Console) RecomputeIndicator() {
	boxes := c.table.Checkboxes()
	on := len(boxes) > 0
	for _, box := range boxes {
		if !box.Checked() {
			on = false
			break
		}
	}
	c.table.SetAllIndicator(on)
}

// recomputeStep is RecomputeIndicator in step form so bulk flows can queue
// it ahead of the list reload.
func (c *Console) recomputeStep(r *flow.Run, _ flow.Args) {
	c.RecomputeIndicator()
	r.Done()
}

// SetAll drives every row checkbox from the master indicator and syncs the
// indicator itself.
func (c *Console) SetAll(on bool) {
	for _, box := range c.table.Checkboxes() {
		box.SetChecked(on)
	}
	c.RecomputeIndicator()
}

// ToggleRow flips one row and re-derives the indicator, which is how ticking
// the last unticked row lights the master indicator up.
func (c *Console) ToggleRow(userID int64, on bool) {
	for _, box := range c.table.Checkboxes() {
		if box.UserID() == userID {
			box.SetChecked(on)
			break
		}
	}
	c.RecomputeIndicator()
}
