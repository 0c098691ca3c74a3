// Package attach bridges a locally picked file into an immediately
// renderable preview handle and a multipart transfer payload for the
// remote store.
package attach

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Kind classifies how an attachment should be rendered. Classification
// happens by file extension at render time, not at encode time.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".svg":  {},
}

// KindFor classifies an attachment reference (file name, local handle
// target or remote URL) by its extension.
func KindFor(ref string) Kind {
	ext := strings.ToLower(filepath.Ext(ref))
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	return KindDocument
}

// Previewer issues local preview handles for files picked by the user.
// A handle stays valid until released; the sync engine releases it when
// the optimistic message that owns it is replaced or dropped.
type Previewer struct {
	mu      sync.Mutex
	handles map[string]string // handle -> local file path
}

// NewPreviewer returns an empty preview registry.
func NewPreviewer() *Previewer {
	return &Previewer{handles: make(map[string]string)}
}

// Preview registers the file and returns a handle usable for rendering
// before any network call completes.
func (p *Previewer) Preview(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("preview %s: %w", filepath.Base(path), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	handle := "preview://" + uuid.NewString()
	p.handles[handle] = path
	return handle, nil
}

// Resolve returns the local path behind a live handle.
func (p *Previewer) Resolve(handle string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := p.handles[handle]
	return path, ok
}

// Release revokes the handle. Releasing an already revoked handle is a
// no-op; the bool reports whether the handle was live.
func (p *Previewer) Release(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.handles[handle]; !ok {
		return false
	}
	delete(p.handles, handle)
	return true
}

// Live returns the number of unreleased handles. Tests use it to catch
// preview leaks.
func (p *Previewer) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Payload is a transferable multipart request body.
type Payload struct {
	Body        []byte
	ContentType string

	// FileName is the base name of the attached file, empty for
	// text-only payloads.
	FileName string
}

// BuildPayload assembles the multipart body the remote store expects:
// destination topic, optional question text, optional model selector
// and the optional binary file content.
func BuildPayload(filePath, topicID, text, model string) (*Payload, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("subject", topicID); err != nil {
		return nil, err
	}
	if text != "" {
		if err := writer.WriteField("question", text); err != nil {
			return nil, err
		}
	}
	if model != "" {
		if err := writer.WriteField("model", model); err != nil {
			return nil, err
		}
	}

	fileName := ""
	if filePath != "" {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", filepath.Base(filePath), err)
		}
		defer file.Close()

		fileName = filepath.Base(filePath)
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, fmt.Errorf("read %s: %w", fileName, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &Payload{
		Body:        buf.Bytes(),
		ContentType: writer.FormDataContentType(),
		FileName:    fileName,
	}, nil
}
