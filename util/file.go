package util

import (
	"os"
	"strings"
)

// WriteToFile writes the given lines to savePath, replacing the file
func WriteToFile(savePath string, content ...string) error {
	return os.WriteFile(savePath, []byte(strings.Join(content, "\n")), 0644)
}

// AppendToFile appends the given lines to savePath, creating it if needed
func AppendToFile(savePath string, content ...string) error {
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates the directory if it does not exist yet
func EnsureDir(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
