package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// hashChunkSize is the read size used when hashing files
const hashChunkSize = 4096

// ComputeFileHash returns the hex SHA-256 of the file's bytes, read in 4 KiB chunks
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &HashError{Path: path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &HashError{Path: path, Cause: err}
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NeedsProcessing reports whether path exists and is new or changed since it
// was recorded. Missing files return false.
func NeedsProcessing(path string, m *ProcessingManifest) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	rec, ok := m.Documents[path]
	if !ok {
		return true
	}

	hash, err := ComputeFileHash(path)
	if err != nil {
		return true
	}
	return hash != rec.FileHash
}

// ListFiles walks inputDir recursively and returns every regular file whose
// extension is in exts (case-insensitive), in lexical order. A nil exts
// includes all files. A missing directory yields no files.
func ListFiles(inputDir string, exts []string) ([]string, error) {
	if _, err := os.Stat(inputDir); errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}

	files := make([]string, 0)
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if exts != nil && !hasExtension(path, exts) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &ManifestError{Message: "failed to scan input directory", Cause: err}
	}
	return files, nil
}

// FilesToProcess returns the files under inputDir that are new or changed
func FilesToProcess(inputDir string, m *ProcessingManifest, exts []string) ([]string, error) {
	files, err := ListFiles(inputDir, exts)
	if err != nil {
		return nil, err
	}
	pending := make([]string, 0, len(files))
	for _, path := range files {
		if NeedsProcessing(path, m) {
			pending = append(pending, path)
		}
	}
	return pending, nil
}

func hasExtension(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
