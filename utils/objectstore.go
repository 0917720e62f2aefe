package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalObjectStore writes artifacts under a base directory served as
// static files, returning their public URL. Implements certs.ObjectStore.
type LocalObjectStore struct {
	BaseDir string
	BaseURL string // public prefix, e.g. https://host/uploads
}

func NewLocalObjectStore(baseDir, baseURL string) *LocalObjectStore {
	return &LocalObjectStore{BaseDir: baseDir, BaseURL: baseURL}
}

var extByContentType = map[string]string{
	"image/svg+xml":   ".svg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// Put stores the bytes under a unique name and returns the public URL
func (s *LocalObjectStore) Put(data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.BaseDir, 0755); err != nil {
		return "", err
	}

	ext := extByContentType[contentType]
	if ext == "" {
		ext = ".bin"
	}
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102150405"), uuid.NewString()[:8], ext)

	if err := os.WriteFile(filepath.Join(s.BaseDir, name), data, 0644); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + name, nil
}
