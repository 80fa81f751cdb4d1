package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

var debug atomic.Bool

type entry struct {
	Time   string         `json:"time"`
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

func Init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)
	Info("logger initialized", nil)
}

// SetOutput redirects log lines, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
	log.SetFlags(0)
}

func SetDebug(on bool) {
	debug.Store(on)
}

func Debug(msg string, fields map[string]any) {
	if debug.Load() {
		write("DEBUG", msg, fields)
	}
}

func Info(msg string, fields map[string]any) {
	write("INFO", msg, fields)
}

func Warn(msg string, fields map[string]any) {
	write("WARN", msg, fields)
}

func Error(msg string, fields map[string]any) {
	write("ERROR", msg, fields)
}

func Fatal(msg string, fields map[string]any) {
	write("FATAL", msg, fields)
	os.Exit(1)
}

func write(level, msg string, fields map[string]any) {
	e := entry{
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		Level:  level,
		Msg:    msg,
		Fields: normalize(fields),
	}

	b, err := json.Marshal(e)
	if err != nil {
		log.Printf(`{"level":"ERROR","msg":"logger: marshal failed","error":%q}`, err.Error())
		return
	}
	log.Print(string(b))
}

// normalize turns error values into strings; encoding/json renders
// most error types as {}.
func normalize(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok && err != nil {
			out[k] = err.Error()
			continue
		}
		out[k] = v
	}
	return out
}
