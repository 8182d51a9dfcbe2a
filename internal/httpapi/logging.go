package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger used by the HTTP layer; nil logs nothing.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging of removal calls.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error", "warn", "warning":
		return LevelError
	case "info":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetDefaultLogLevel sets the request log level used when a request does
// not override it.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLog emits start/end lines for one removal request at the level the
// request asked for.
type requestLog struct {
	lvl   LogLevel
	rid   string
	start time.Time
}

func newRequestLog(r *http.Request) *requestLog {
	return &requestLog{lvl: requestLogLevel(r), rid: middleware.GetReqID(r.Context()), start: time.Now()}
}

func (l *requestLog) event(lvl LogLevel) *zerolog.Event {
	if zlog == nil || l.lvl < lvl {
		return nil
	}
	var ev *zerolog.Event
	switch lvl {
	case LevelError:
		ev = zlog.Error()
	case LevelDebug:
		ev = zlog.Debug()
	default:
		ev = zlog.Info()
	}
	if l.rid != "" {
		ev = ev.Str("request_id", l.rid)
	}
	return ev
}

func (l *requestLog) begin(req string, transparent bool, size int) {
	if ev := l.event(LevelDebug); ev != nil {
		ev.Str("algorithm", req).Bool("transparent", transparent).Int("upload_bytes", size).Msg("remove-bg start")
	}
}

func (l *requestLog) end(status int, err error) {
	lvl := LevelInfo
	if status >= http.StatusInternalServerError {
		lvl = LevelError
	}
	if ev := l.event(lvl); ev != nil {
		ev.Int("status", status).Dur("dur", time.Since(l.start)).Err(err).Msg("remove-bg end")
	}
}
