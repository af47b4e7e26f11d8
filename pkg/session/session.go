package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/bigmler/bigmler/pkg/loggers"
	"github.com/bigmler/bigmler/pkg/util"
	"go.uber.org/zap"
)

type Mode int

const (
	Append Mode = iota
	Overwrite
)

// Session is the output directory of a command run with its logs.
type Session struct {
	Dir       string
	Verbosity int
	Console   io.Writer
	Logger    *zap.Logger
	// LogFile receives every created resource id when set.
	LogFile string

	sessionLog string
	logFile    string

	mu   sync.Mutex
	last string
}

// New opens a session in dir, which must exist, with a file logger in
// dir/log.
func New(dir string, verbosity int, console io.Writer) (*Session, error) {
	logger, logFile, err := loggers.NewFileLogger("bigmler", dir)
	if err != nil {
		return nil, err
	}
	if console == nil {
		console = os.Stdout
	}

	return &Session{
		Dir:        dir,
		Verbosity:  verbosity,
		Console:    console,
		Logger:     logger,
		sessionLog: filepath.Join(dir, constants.SessionsLog),
		logFile:    logFile,
	}, nil
}

func (s *Session) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s *Session) SessionLog() string {
	return s.sessionLog
}

// LogMessage appends message to the sessions log and, when console is set
// and verbosity allows it, prints it.
func (s *Session) LogMessage(message string, console bool) {
	if console && s.Verbosity > 0 {
		fmt.Fprint(s.Console, message)
	}
	if err := util.AppendToFile(s.sessionLog, message); err != nil {
		s.Logger.Warn("failed to write sessions log", zap.Error(err))
	}
}

// Dated logs message prefixed with the current time.
func (s *Session) Dated(message string) {
	s.LogMessage(util.Dated(message), true)
}

// LogCreatedResource writes id to the given id log of the session. The
// comment, if any, follows the id.
func (s *Session) LogCreatedResource(fileName string, id string, comment string, mode Mode) error {
	message := ""
	if id != "" {
		message = id + "\n"
	}
	message += comment

	target := s.Path(fileName)
	var err error
	if mode == Overwrite {
		err = os.WriteFile(target, []byte(message), 0644)
	} else {
		err = util.AppendToFile(target, message)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	s.Logger.Info("resource logged", loggers.ResourceField(id), zap.String("file", fileName))
	if id != "" {
		s.mu.Lock()
		s.last = id
		s.mu.Unlock()
	}
	if s.LogFile != "" && id != "" {
		if err := util.AppendToFile(s.LogFile, id+"\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.LogFile, err)
		}
	}
	return nil
}

// LastResource is the last id logged in the session.
func (s *Session) LastResource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// PrintGeneratedFiles logs the tree of files of the session directory.
func (s *Session) PrintGeneratedFiles() error {
	tree, err := util.PrintTree(s.Dir, " ")
	if err != nil {
		return err
	}
	s.LogMessage("\nGenerated files:\n\n"+tree+"\n", true)
	return nil
}

// End writes the session separator and flushes the logger.
func (s *Session) End() {
	s.LogMessage(strings.Repeat("_", 80)+"\n", false)
	_ = s.Logger.Sync()
}
