// Package fileutils provides shared file system helpers.
package fileutils

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// FileExists checks if a file exists and is not a directory.
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// EnsureDirectoryExists creates a directory if it doesn't already exist.
func EnsureDirectoryExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0750); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dirPath, err)
	}
	return nil
}

// WriteToTemp copies r into a fresh temporary file named after pattern and
// returns its path plus a cleanup that removes it. The file is removed
// eagerly when the copy fails, so a half-written temp file never outlives
// the call.
func WriteToTemp(pattern string, r io.Reader) (string, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("error creating temp file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("file", tmp.Name()).Warn("Failed to remove temp file")
		}
	}

	if _, err := io.Copy(tmp, r); err != nil {
		if cerr := tmp.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close temp file")
		}
		cleanup()
		return "", func() {}, fmt.Errorf("error writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("error closing temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}
