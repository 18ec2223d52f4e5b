package console_test

import (
	"fmt"
	"sync"

	"argus-console/core/console"
	"argus-console/core/flow"
	"argus-console/core/wire"
)

// eventLog records what happened in order across all fakes, so tests can
// assert sequencing (indicator re-sync before list reload and so on).
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

type fakeCall struct {
	path string
	body any
}

// fakeTransport answers scripted responses per path and records every
// request. An unscripted path fails the request like a network error.
type fakeTransport struct {
	log       *eventLog
	responses map[string]wire.Response
	failPaths map[string]bool
	calls     []fakeCall
}

func newFakeTransport(log *eventLog) *fakeTransport {
	return &fakeTransport{
		log:       log,
		responses: map[string]wire.Response{},
		failPaths: map[string]bool{},
	}
}

func (t *fakeTransport) respond(path string, code wire.Code, message string, data any) {
	t.responses[path] = wire.NewResponse(code, message, data)
}

func (t *fakeTransport) deliver(path string, body any, onSuccess func(wire.Response), onFailure func(error)) {
	t.calls = append(t.calls, fakeCall{path: path, body: body})
	t.log.add("request " + path)
	if t.failPaths[path] {
		onFailure(fmt.Errorf("connection refused"))
		return
	}
	resp, ok := t.responses[path]
	if !ok {
		onFailure(fmt.Errorf("no route %s", path))
		return
	}
	onSuccess(resp)
}

func (t *fakeTransport) PostJSON(path string, body any, onSuccess func(wire.Response), onFailure func(error)) {
	t.deliver(path, body, onSuccess, onFailure)
}

func (t *fakeTransport) Upload(path, filename string, content []byte, onSuccess func(wire.Response), onFailure func(error)) {
	t.deliver(path, filename, onSuccess, onFailure)
}

type fakeCheckbox struct {
	id      int64
	checked bool
}

func (b *fakeCheckbox) UserID() int64      { return b.id }
func (b *fakeCheckbox) Checked() bool      { return b.checked }
func (b *fakeCheckbox) SetChecked(on bool) { b.checked = on }

type fakeTable struct {
	log       *eventLog
	rows      map[int64]wire.User
	boxes     []*fakeCheckbox
	indicator bool
	loads     int
}

func newFakeTable(log *eventLog) *fakeTable {
	return &fakeTable{log: log, rows: map[int64]wire.User{}}
}

func (t *fakeTable) addRow(u wire.User, checked bool) {
	t.rows[u.ID] = u
	t.boxes = append(t.boxes, &fakeCheckbox{id: u.ID, checked: checked})
}

func (t *fakeTable) LoadData(r *flow.Run, _ flow.Args) {
	t.loads++
	t.log.add("load")
	r.Done()
}

func (t *fakeTable) Row(id int64) (wire.User, bool) {
	u, ok := t.rows[id]
	return u, ok
}

func (t *fakeTable) UpdateRow(u wire.User) {
	t.rows[u.ID] = u
}

func (t *fakeTable) Checkboxes() []console.Checkbox {
	out := make([]console.Checkbox, len(t.boxes))
	for i, b := range t.boxes {
		out[i] = b
	}
	return out
}

func (t *fakeTable) SetAllIndicator(on bool) {
	t.indicator = on
	t.log.add("indicator")
}

type fakeConfirmer struct {
	answer   bool
	messages []string
}

func (c *fakeConfirmer) Confirm(message string) bool {
	c.messages = append(c.messages, message)
	return c.answer
}

type fakeNotifier struct {
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(message string) { n.successes = append(n.successes, message) }
func (n *fakeNotifier) Error(message string)   { n.errors = append(n.errors, message) }

type fakeImportView struct {
	diagnostics [][]string
	clears      int
}

func (v *fakeImportView) ShowDiagnostics(lines []string) {
	v.diagnostics = append(v.diagnostics, lines)
}

func (v *fakeImportView) ClearFile() { v.clears++ }

type harness struct {
	log       *eventLog
	transport *fakeTransport
	table     *fakeTable
	confirm   *fakeConfirmer
	notify    *fakeNotifier
	console   *console.Console
}

func newHarness(smtp bool) *harness {
	log := &eventLog{}
	h := &harness{
		log:       log,
		transport: newFakeTransport(log),
		table:     newFakeTable(log),
		confirm:   &fakeConfirmer{answer: true},
		notify:    &fakeNotifier{},
	}
	h.console = console.New(console.Options{
		Transport:      h.transport,
		Uploader:       h.transport,
		Table:          h.table,
		Confirmer:      h.confirm,
		Notifier:       h.notify,
		SMTPConfigured: smtp,
	})
	return h
}
