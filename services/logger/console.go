package logsvc

import (
	"log"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
)

// ConsoleLogger writes every entry on std. Used when no Rollbar token is configured.
type ConsoleLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger, debug bool) *ConsoleLogger {
	return &ConsoleLogger{std: std, debug: debug}
}

// NewLogger returns a RollbarLogger when a token is configured, a ConsoleLogger otherwise.
func NewLogger(std *log.Logger, conf *core.Config) core.Logger {
	if conf.RollbarToken != "" {
		return NewRollbarLogger(std, conf)
	}
	return NewConsoleLogger(std, conf.Debug)
}

func printArgs(std *log.Logger, level, msg string, args []interface{}) {
	std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case member.Member:
			std.Printf("\tmember: %s <%s>", a.ID, a.Email)
		default:
			std.Printf("\t%+v", a)
		}
	}
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		printArgs(l.std, "DEBUG", msg, args)
	}
}

func (l ConsoleLogger) Info(msg string, args ...interface{}) {
	printArgs(l.std, "INFO", msg, args)
}

func (l ConsoleLogger) Warn(msg string, args ...interface{}) {
	printArgs(l.std, "WARN", msg, args)
}

func (l ConsoleLogger) Error(msg string, args ...interface{}) {
	printArgs(l.std, "ERROR", msg, args)
}

func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	printArgs(l.std, "FATAL", msg, args)
	l.std.Fatal(msg)
}
