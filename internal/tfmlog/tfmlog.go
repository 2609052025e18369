// Package tfmlog is the application's logging facade: github.com/sirupsen/
// logrus (in the teacher's go.mod) formats records; subject-tagged call
// sites follow the fs.Debugf(subject, "...")/fs.Errorf(subject, "...")
// convention visible throughout backend/local/local.go, generalized into
// a Logger.Debugf(subject, format, args...) method set instead of a
// package-level function family, since this package has no single global
// logger the way rclone's fs package does.
package tfmlog

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger with TFM's subject-tagged call convention.
type Logger struct {
	base *logrus.Logger
}

// ColorMode controls whether the stderr stream gets ANSI color codes.
type ColorMode int

const (
	// ColorAuto enables color only when stderr is an interactive
	// terminal, detected with github.com/mattn/go-isatty the way the
	// pack's CLI tools decide whether to colorize output.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Options configures New per spec.md §6's --log-file/--remote-log-port
// flags.
type Options struct {
	LogFilePath   string
	RemoteLogPort uint16
	Color         ColorMode
}

func (m ColorMode) resolve() bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	}
}

// New builds a Logger writing to stderr, plus (optionally) an append-mode
// log file and a TCP broadcaster, per spec.md §6.
func New(opts Options) (*Logger, func() error, error) {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   !opts.Color.resolve(),
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	var closers []io.Closer
	writers := []io.Writer{os.Stderr}

	if opts.LogFilePath != "" {
		f, err := os.OpenFile(opts.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("tfmlog: failed to open log file %q: %w", opts.LogFilePath, err)
		}
		writers = append(writers, f)
		closers = append(closers, f)
	}

	var broadcaster *Broadcaster
	if opts.RemoteLogPort != 0 {
		b, err := NewBroadcaster(opts.RemoteLogPort)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, err
		}
		writers = append(writers, b)
		broadcaster = b
	}

	base.SetOutput(io.MultiWriter(writers...))

	closeFn := func() error {
		var firstErr error
		if broadcaster != nil {
			if err := broadcaster.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for _, c := range closers {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	return &Logger{base: base}, closeFn, nil
}

// subject formats v the same way fs.Debugf's subject argument does:
// fmt.Sprint on whatever identifies the log's origin (a Path, a task kind,
// a bare string).
func subject(v interface{}) string {
	return fmt.Sprint(v)
}

func (l *Logger) Debugf(subj interface{}, format string, args ...interface{}) {
	l.base.WithField("subject", subject(subj)).Debugf(format, args...)
}

func (l *Logger) Infof(subj interface{}, format string, args ...interface{}) {
	l.base.WithField("subject", subject(subj)).Infof(format, args...)
}

func (l *Logger) Logf(subj interface{}, format string, args ...interface{}) {
	l.Infof(subj, format, args...)
}

func (l *Logger) Errorf(subj interface{}, format string, args ...interface{}) {
	l.base.WithField("subject", subject(subj)).Errorf(format, args...)
}

// SetLevel controls the minimum level that reaches any writer.
func (l *Logger) SetLevel(level logrus.Level) {
	l.base.SetLevel(level)
}
