package console_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"argus-console/core/console"
	"argus-console/core/wire"
)

func newImporterHarness() (*harness, *fakeImportView, *console.Importer) {
	h := newHarness(false)
	view := &fakeImportView{}
	return h, view, console.NewImporter(h.console, view)
}

func TestChooseFileRejectsWrongExtension(t *testing.T) {
	h, view, im := newImporterHarness()

	im.ChooseFile("report.txt", []byte("username\n"))

	if im.State() != console.ImportIdle {
		t.Fatalf("state = %d, want idle", im.State())
	}
	if len(h.notify.errors) != 1 || !strings.Contains(h.notify.errors[0], "report.txt") {
		t.Fatalf("errors = %v", h.notify.errors)
	}
	if view.clears != 0 {
		t.Fatal("selector cleared on a rejected pick; it must stay so the operator can correct it")
	}
}

func TestChooseFileAcceptsUppercaseExtension(t *testing.T) {
	_, _, im := newImporterHarness()

	im.ChooseFile("DATA.CSV", []byte("username\n"))

	if im.State() != console.ImportValidated {
		t.Fatalf("state = %d, want validated", im.State())
	}
}

func TestChooseFileEnforcesSizeCap(t *testing.T) {
	h, view, im := newImporterHarness()

	im.ChooseFile("big.csv", bytes.Repeat([]byte("a"), 3<<20))
	if im.State() != console.ImportIdle {
		t.Fatal("3 MiB file accepted")
	}
	if len(h.notify.errors) != 1 || !strings.Contains(h.notify.errors[0], "MB") {
		t.Fatalf("errors = %v, want a human readable size", h.notify.errors)
	}
	if view.clears != 0 {
		t.Fatal("selector cleared on a rejected pick")
	}

	im.ChooseFile("ok.csv", bytes.Repeat([]byte("a"), 1<<20))
	if im.State() != console.ImportValidated {
		t.Fatal("1 MiB file rejected")
	}
}

func TestUploadWithoutFileNotifies(t *testing.T) {
	h, _, im := newImporterHarness()

	im.Upload()

	if len(h.transport.calls) != 0 {
		t.Fatalf("upload issued with no file: %v", h.transport.calls)
	}
	if len(h.notify.errors) != 1 {
		t.Fatalf("errors = %v", h.notify.errors)
	}
}

func TestUploadSuccessReloadsAndClears(t *testing.T) {
	h, view, im := newImporterHarness()
	h.transport.respond("/user/upload-import", wire.CodeOK, "3 users imported", map[string]int{"created": 3})

	im.ChooseFile("users.csv", []byte("username\n"))
	im.Upload()

	if im.State() != console.ImportSucceeded {
		t.Fatalf("state = %d, want succeeded", im.State())
	}
	if h.table.loads != 1 {
		t.Fatalf("loads = %d, want 1", h.table.loads)
	}
	if view.clears != 1 {
		t.Fatal("file selector not cleared after success")
	}
	if len(h.notify.successes) != 1 || !strings.Contains(h.notify.successes[0], "3 users imported") {
		t.Fatalf("successes = %v, want the server summary included", h.notify.successes)
	}
}

func TestUploadPartialFailureRendersLinesAndReloads(t *testing.T) {
	h, view, im := newImporterHarness()
	h.transport.respond("/user/upload-import", wire.CodeFailed, "2 of 4 rows rejected", []wire.ImportDiagnostic{
		{Line: 5, Error: "duplicate username, first used on line 2"},
		{Line: 7, Error: `unknown role "ops2"`},
	})

	im.ChooseFile("users.csv", []byte("username\n"))
	im.Upload()

	if im.State() != console.ImportFailed {
		t.Fatalf("state = %d, want failed", im.State())
	}
	want := []string{
		"line 5: duplicate username, first used on line 2",
		`line 7: unknown role "ops2"`,
	}
	if len(view.diagnostics) != 1 || !reflect.DeepEqual(view.diagnostics[0], want) {
		t.Fatalf("diagnostics = %v, want %v", view.diagnostics, want)
	}
	if h.table.loads != 1 {
		t.Fatal("valid rows were imported, the list must reload")
	}
	if view.clears != 1 {
		t.Fatal("file selector not cleared after failure")
	}
	if len(h.notify.errors) != 1 || !strings.Contains(h.notify.errors[0], "2 of 4 rows rejected") {
		t.Fatalf("errors = %v, want the failure summary alongside the line list", h.notify.errors)
	}
}

func TestUploadFailureWithoutDiagnosticsSkipsReload(t *testing.T) {
	h, view, im := newImporterHarness()
	h.transport.respond("/user/upload-import", wire.CodeFailed, "header must be wrong", nil)

	im.ChooseFile("users.csv", []byte("bogus\n"))
	im.Upload()

	if h.table.loads != 0 {
		t.Fatal("list reloaded although nothing was imported")
	}
	if len(h.notify.errors) != 1 {
		t.Fatalf("errors = %v, want one", h.notify.errors)
	}
	if view.clears != 1 {
		t.Fatal("file selector not cleared")
	}
}

func TestUploadTransportFailureSkipsReload(t *testing.T) {
	h, view, im := newImporterHarness()
	h.transport.failPaths["/user/upload-import"] = true

	im.ChooseFile("users.csv", []byte("username\n"))
	im.Upload()

	if im.State() != console.ImportTransportFailed {
		t.Fatalf("state = %d, want transport failed", im.State())
	}
	if h.table.loads != 0 {
		t.Fatal("list reloaded after a transport failure")
	}
	if view.clears != 1 {
		t.Fatal("file selector not cleared")
	}
}
