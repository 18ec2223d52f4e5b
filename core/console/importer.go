package console

import (
	"fmt"
	"strings"
	"sync"

	"argus-console/core/flow"
	"argus-console/core/wire"
)

// ImportState tracks the CSV import workflow. Terminal states keep the last
// outcome visible until the operator picks another file.
type ImportState int

const (
	ImportIdle ImportState = iota
	ImportValidated
	ImportUploading
	ImportSucceeded
	ImportFailed
	ImportTransportFailed
)

const (
	mb            = 1 << 20
	maxImportSize = 2 * mb
)

// Importer drives the CSV account import: local validation of the chosen
// file, the upload itself, and the rendering of line-numbered diagnostics
// when the service rejects part of the file.
type Importer struct {
	console *Console
	view    ImportView

	mu       sync.Mutex
	state    ImportState
	fileName string
	content  []byte
}

func NewImporter(c *Console, view ImportView) *Importer {
	return &Importer{console: c, view: view, state: ImportIdle}
}

func (im *Importer) State() ImportState {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.state
}

// ChooseFile validates the picked file before any network traffic: the name
// must end in .csv (any case) and the size must stay under the 2 MiB cap. A
// rejected pick leaves the selector alone so the operator can correct it;
// the importer just stays idle with the message.
func (im *Importer) ChooseFile(name string, content []byte) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		im.discard()
		im.console.notify.Error(fmt.Sprintf("%q is not a .csv file", name))
		return
	}
	if len(content) >= maxImportSize {
		im.discard()
		im.console.notify.Error(fmt.Sprintf("file is %s, the limit is %s", humanSize(int64(len(content))), humanSize(maxImportSize)))
		return
	}
	im.state = ImportValidated
	im.fileName = name
	im.content = content
}

// Upload sends the validated file. On success the list reloads. On a
// service failure that carries line diagnostics the diagnostics render AND
// the list reloads, because the valid rows were still imported. A failure
// without diagnostics, and any transport failure, leave the list untouched.
func (im *Importer) Upload() {
	im.mu.Lock()
	if im.state != ImportValidated {
		im.mu.Unlock()
		im.console.notify.Error("please choose a csv file first")
		return
	}
	im.state = ImportUploading
	name, content := im.fileName, im.content
	im.mu.Unlock()

	flow.NewSequencer().
		AddArgs(im.uploadStep, flow.Args{"name": name, "content": content}).
		Execute()
}

func (im *Importer) uploadStep(r *flow.Run, args flow.Args) {
	name, _ := args["name"].(string)
	content, _ := args["content"].([]byte)
	im.console.uploader.Upload("/user/upload-import", name, content,
		func(resp wire.Response) {
			im.finish(r, resp)
			r.Done()
		},
		func(err error) {
			im.setState(ImportTransportFailed)
			im.view.ClearFile()
			im.console.errorf("upload failed: %v", err)
			r.Done()
		})
}

// finish handles the service verdict. The file selector is cleared on every
// terminal outcome so the same file cannot be re-sent by accident.
func (im *Importer) finish(r *flow.Run, resp wire.Response) {
	defer im.view.ClearFile()

	if resp.Code == wire.CodeOK {
		im.setState(ImportSucceeded)
		msg := "import finished"
		if resp.Message != "" {
			msg = "import finished: " + resp.Message
		}
		im.console.notify.Success(msg)
		r.Append(im.console.table.LoadData)
		return
	}

	im.setState(ImportFailed)
	im.console.notify.Error(wire.ErrorText(resp.Code, resp.Message))
	var diags []wire.ImportDiagnostic
	if err := resp.DecodeData(&diags); err != nil {
		im.console.logger.Errorf("decode import diagnostics: %v", err)
	}
	if len(diags) == 0 {
		return
	}
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, fmt.Sprintf("line %d: %s", d.Line, d.Error))
	}
	im.view.ShowDiagnostics(lines)
	// some rows were imported even though others failed
	r.Append(im.console.table.LoadData)
}

func (im *Importer) setState(s ImportState) {
	im.mu.Lock()
	im.state = s
	im.fileName = ""
	im.content = nil
	im.mu.Unlock()
}

func (im *Importer) discard() {
	im.state = ImportIdle
	im.fileName = ""
	im.content = nil
}

func humanSize(n int64) string {
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
