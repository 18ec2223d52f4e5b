package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"argus-console/core/wire"
)

// HTTPTransport talks to the account service over HTTP. It implements both
// Transport and Uploader. Callbacks run synchronously on the calling
// goroutine once the response is in.
type HTTPTransport struct {
	base   string
	token  string
	client *http.Client
}

func NewHTTPTransport(base, token string) *HTTPTransport {
	return &HTTPTransport{
		base:   base,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *HTTPTransport) do(req *http.Request, onSuccess func(wire.Response), onFailure func(error)) {
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	httpResp, err := t.client.Do(req)
	if err != nil {
		onFailure(err)
		return
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		onFailure(fmt.Errorf("unexpected status %d", httpResp.StatusCode))
		return
	}
	var resp wire.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		onFailure(fmt.Errorf("decode response: %w", err))
		return
	}
	onSuccess(resp)
}

func (t *HTTPTransport) PostJSON(path string, body any, onSuccess func(wire.Response), onFailure func(error)) {
	payload, err := json.Marshal(body)
	if err != nil {
		onFailure(fmt.Errorf("encode request: %w", err))
		return
	}
	req, err := http.NewRequest(http.MethodPost, t.base+path, bytes.NewReader(payload))
	if err != nil {
		onFailure(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	t.do(req, onSuccess, onFailure)
}

func (t *HTTPTransport) Upload(path, filename string, content []byte, onSuccess func(wire.Response), onFailure func(error)) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("csvfile", filename)
	if err != nil {
		onFailure(err)
		return
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		onFailure(err)
		return
	}
	if err := writer.Close(); err != nil {
		onFailure(err)
		return
	}
	req, err := http.NewRequest(http.MethodPost, t.base+path, &buf)
	if err != nil {
		onFailure(err)
		return
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	t.do(req, onSuccess, onFailure)
}
