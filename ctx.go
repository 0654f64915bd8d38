package vhttpd

import (
	"time"

	"github.com/google/uuid"
)

// requestCtx is the state of one pipeline run. It is owned by a single
// goroutine and discarded once the response is written.
type requestCtx struct {
	UUID       string
	RemoteAddr string
	StartTime  int64

	Request *Request
	Headers map[string]string
	Path    string

	// Err is the failure that ended the pipeline early, if any
	Err error
}

func newRequestCtx(remoteAddr string) *requestCtx {
	return &requestCtx{
		UUID:       uuid.New().String(),
		RemoteAddr: remoteAddr,
		StartTime:  time.Now().UnixNano(),
	}
}

func (c *requestCtx) method() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Method
}

func (c *requestCtx) target() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Target
}

func (c *requestCtx) elapsed() time.Duration {
	return time.Duration(time.Now().UnixNano() - c.StartTime)
}
