package router

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// copyVerified copies source into a hidden temporary file inside dir, syncs it,
// and re-reads it to confirm the sha256 matches. It returns the temp path.
func copyVerified(source, dir string, expectedSize int64) (string, error) {
	in, err := os.Open(source)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, ".birdtriage-*.partial")
	if err != nil {
		return "", err
	}
	tempPath := out.Name()
	cleanup := func() {
		_ = out.Close()
		_ = os.Remove(tempPath)
	}

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		cleanup()
		return "", err
	}
	if err := out.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}

	if written != expectedSize {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", expectedSize, written)
	}

	dstSum, err := fileSHA256(tempPath)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return tempPath, nil
}

func fileSHA256(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
