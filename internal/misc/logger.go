package misc

import (
	"fmt"
	"strings"
	"sync"

	log "unknwon.dev/clog/v2"
)

const concealed = "******"

// Logger interface
type Logger interface {
	Trace(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
}

var secrets struct {
	sync.RWMutex
	values map[string]struct{}
}

// Conceal makes every Logger print s as ******. Blank values are ignored.
func Conceal(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	secrets.Lock()
	defer secrets.Unlock()
	if secrets.values == nil {
		secrets.values = make(map[string]struct{})
	}
	secrets.values[s] = struct{}{}
}

// Concealed returns msg with every value passed to Conceal replaced by ******.
func Concealed(msg string) string {
	return conceal(msg)
}

func conceal(msg string) string {
	secrets.RLock()
	defer secrets.RUnlock()
	for s := range secrets.values {
		msg = strings.ReplaceAll(msg, s, concealed)
	}
	return msg
}

// NewLogger returns a Logger writing "[PREFIX] message" through clog, `skip`
// is the call depth reported by `Error` and `Fatal`.
//
//	Example:
//		log := NewLogger("Fes", 2)
func NewLogger(prefix string, skip int) Logger {
	return &logPrefix{
		prefix: strings.ToTitle(prefix),
		skip:   skip,
	}
}

type logPrefix struct {
	prefix string
	skip   int
}

func (l *logPrefix) sprintf(format string, v ...interface{}) string {
	msg := conceal(fmt.Sprintf(format, v...))
	if l.prefix == "" {
		return msg
	}
	return "[" + l.prefix + "] " + msg
}

func (l *logPrefix) Trace(format string, v ...interface{}) {
	log.Trace("%s", l.sprintf(format, v...))
}

func (l *logPrefix) Info(format string, v ...interface{}) {
	log.Info("%s", l.sprintf(format, v...))
}

func (l *logPrefix) Warn(format string, v ...interface{}) {
	log.Warn("%s", l.sprintf(format, v...))
}

func (l *logPrefix) Error(format string, v ...interface{}) {
	log.ErrorDepth(l.skip, "%s", l.sprintf(format, v...))
}

func (l *logPrefix) Fatal(format string, v ...interface{}) {
	log.FatalDepth(l.skip, "%s", l.sprintf(format, v...))
}
