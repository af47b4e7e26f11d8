package session

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/bigmler/bigmler/pkg/util"
)

// Logs are the files of the working directory that record every command
// issued and the output directory each one used.
type Logs struct {
	WorkDir string
	Command string
	Dirs    string
	NewDirs string
}

// NewLogs returns the logs of a subcommand family. The main command uses
// ".bigmler" while "delete" uses ".bigmler_delete" and so on.
func NewLogs(workDir string, subcommand string) Logs {
	command := constants.CommandLog
	dirs := constants.DirsLog
	if subcommand != "" && subcommand != "main" {
		command = fmt.Sprintf("%s_%s", constants.CommandLog, subcommand)
		dirs = fmt.Sprintf("%s_%s_dir_stack", constants.CommandLog, subcommand)
	}
	return Logs{
		WorkDir: workDir,
		Command: command,
		Dirs:    dirs,
		NewDirs: constants.NewDirsLog,
	}
}

func (l Logs) path(name string) string {
	return filepath.Join(l.WorkDir, name)
}

// LogCommand stores a command line for later --resume calls.
func (l Logs) LogCommand(command string) error {
	return util.AppendToFile(l.path(l.Command), strings.ReplaceAll(strings.TrimRight(command, "\n"), "\n", " ")+"\n")
}

// LogDir stores the output directory of the last logged command.
func (l Logs) LogDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	return util.AppendToFile(l.path(l.Dirs), abs+"\n")
}

// Clear empties the command, directories and new directories logs.
func (l Logs) Clear() error {
	for _, name := range []string{l.Command, l.Dirs, l.NewDirs} {
		if err := os.WriteFile(l.path(name), nil, 0644); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}
	return nil
}

// CheckDir creates the directory of filePath when missing and records it
// in the new directories log. It returns the directory.
func (l Logs) CheckDir(filePath string) (string, error) {
	dir := filepath.Dir(filePath)
	if dir == "" {
		dir = "."
	}
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := util.AppendToFile(l.path(l.NewDirs), abs+"\n"); err != nil {
		return "", err
	}
	return dir, nil
}

// StoredCommand is a previously logged command retrieved to be resumed.
type StoredCommand struct {
	Command      string
	Args         []string
	OutputDir    string
	DefaultsFile string
}

// Stored retrieves the command logged stackLevel positions before the last one.
func (l Logs) Stored(stackLevel int) (*StoredCommand, error) {
	command, err := lineFromEnd(l.path(l.Command), stackLevel)
	if err != nil {
		return nil, fmt.Errorf("no command to resume: %w", err)
	}
	outputDir, err := lineFromEnd(l.path(l.Dirs), stackLevel)
	if err != nil {
		return nil, fmt.Errorf("no output directory to resume: %w", err)
	}

	args, err := util.SplitCommand(command)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		args = args[1:]
	}

	return &StoredCommand{
		Command:      command,
		Args:         args,
		OutputDir:    outputDir,
		DefaultsFile: filepath.Join(outputDir, constants.DefaultsFilename),
	}, nil
}

func lineFromEnd(filePath string, stackLevel int) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	index := len(lines) - 1 - stackLevel
	if stackLevel < 0 || index < 0 {
		return "", fmt.Errorf("%s has no entry at stack level %d", filepath.Base(filePath), stackLevel)
	}
	return lines[index], nil
}
