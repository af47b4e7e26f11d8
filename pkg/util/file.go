package util

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// AppendToFile appends content to filePath, creating the file if needed.
func AppendToFile(filePath string, content string) error {
	fileHandle, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	defer fileHandle.Close()

	_, err = fileHandle.WriteString(content)
	return err
}

// ReadLines returns the lines of a file with trailing whitespace removed.
// Empty lines are skipped.
func ReadLines(filePath string) ([]string, error) {
	fileHandle, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer fileHandle.Close()

	var lines []string
	scanner := bufio.NewScanner(fileHandle)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines, scanner.Err()
}

// FileNumberOfLines counts the newline-terminated lines of a file plus a
// trailing unterminated one.
func FileNumberOfLines(filePath string) (int, error) {
	fileHandle, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer fileHandle.Close()

	reader := bufio.NewReader(fileHandle)
	count := 0
	pending := false
	for {
		b, err := reader.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if b == '\n' {
			count++
			pending = false
		} else {
			pending = true
		}
	}
	if pending {
		count++
	}

	return count, nil
}

func FileExists(filePath string) bool {
	stat, err := os.Stat(filePath)
	return err == nil && !stat.IsDir()
}
