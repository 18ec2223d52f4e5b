// Package console implements the account management console: selection
// tracking, bulk actions, CSV import, and the edit/info/password dialogs.
// Everything here drives collaborators through small interfaces so the same
// logic runs against a real service in tests and against any frontend in
// production.
package console

import (
	"argus-console/core/flow"
	"argus-console/core/wire"
)

// Transport issues requests to the account service. Implementations may
// complete asynchronously; exactly one of the two callbacks is invoked.
// onFailure means the request never produced a decodable envelope (network
// trouble, non-200 status, garbage body). Service-level failures arrive
// through onSuccess with a non-zero envelope code.
type Transport interface {
	PostJSON(path string, body any, onSuccess func(wire.Response), onFailure func(err error))
}

// Uploader sends a file as a multipart request. Same callback contract as
// Transport.
type Uploader interface {
	Upload(path, filename string, content []byte, onSuccess func(wire.Response), onFailure func(err error))
}

// Checkbox is one per-row selection control.
type Checkbox interface {
	UserID() int64
	Checked() bool
	SetChecked(on bool)
}

// Table is the user list view. LoadData has the step signature so it can be
// queued on a sequencer run directly.
type Table interface {
	LoadData(r *flow.Run, args flow.Args)
	Row(id int64) (wire.User, bool)
	UpdateRow(u wire.User)
	Checkboxes() []Checkbox
	SetAllIndicator(on bool)
}

// Confirmer asks the operator to approve a destructive action. A false
// return means declined and the action must leave no trace.
type Confirmer interface {
	Confirm(message string) bool
}

// Notifier surfaces outcomes to the operator.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ImportView is the import panel: it renders line diagnostics and owns the
// file selector that must be cleared after every terminal outcome.
type ImportView interface {
	ShowDiagnostics(lines []string)
	ClearFile()
}
