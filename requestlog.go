package vhttpd

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// requestLog is the append-only per-run log of request headers. It is only
// opened in single-threaded mode, so writes are never concurrent.
type requestLog struct {
	file *os.File
	log  zerolog.Logger
}

// openRequestLog opens <dir>/<unix start time>.log for appending.
func openRequestLog(dir string, started time.Time) (*requestLog, error) {
	name := filepath.Join(dir, strconv.FormatInt(started.Unix(), 10)+".log")
	file, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, Wrapf(err, ErrInternal, "cannot open request log %s", name)
	}
	return &requestLog{
		file: file,
		log:  zerolog.New(file).With().Timestamp().Logger(),
	}, nil
}

func (l *requestLog) record(rc *requestCtx) {
	names := make([]string, 0, len(rc.Headers))
	for name := range rc.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := zerolog.Dict()
	for _, name := range names {
		headers = headers.Str(name, rc.Headers[name])
	}

	l.log.Info().
		Str("conn_id", rc.UUID).
		Str("remote_addr", rc.RemoteAddr).
		Str("method", rc.method()).
		Str("target", rc.target()).
		Dict("headers", headers).
		Msg("request")
}

func (l *requestLog) Close() error {
	return l.file.Close()
}
