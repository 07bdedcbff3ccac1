// Package objectkey computes bucket keys for uploaded media.
package objectkey

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Folders under which artifacts are stored.
const (
	FolderVideos     = "videos"
	FolderAudio      = "audio"
	FolderThumbnails = "thumbnails"
	FolderFiles      = "files"
)

// Generator builds keys of the form <folder>/<uuid><ext>. The extension is
// kept so the object is served with a recognizable name.
type Generator struct {
	// NewID returns the random part of the key (default: uuid.New)
	NewID func() uuid.UUID
}

func New() *Generator {
	return &Generator{NewID: uuid.New}
}

func (g *Generator) GenerateKey(folder, fileName string) string {
	id := g.NewID()
	ext := sanitizeExt(path.Ext(strings.ReplaceAll(fileName, "\\", "/")))
	folder = sanitizePathComponent(folder)
	if folder == "" {
		return id.String() + ext
	}
	return fmt.Sprintf("%s/%s%s", folder, id, ext)
}

// FuncGenerator adapts a plain function to the generator interface
type FuncGenerator func(folder, fileName string) string

func (f FuncGenerator) GenerateKey(folder, fileName string) string {
	return f(folder, fileName)
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	var b strings.Builder
	for i, r := range ext {
		switch {
		case i == 0 && r == '.':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	if b.Len() <= 1 {
		return ""
	}
	return b.String()
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		" ", "_",
	)
	return strings.Trim(replacer.Replace(component), "_")
}
