package vhttpd

import (
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// ServeRequest runs the pipeline over r and returns the complete response.
// It never fails: every exit produces exactly one response.
func (s *Server) ServeRequest(r io.Reader) string {
	rc := newRequestCtx("")
	res, status := s.serve(rc, r)
	s.finish(rc, status)
	return res
}

// ServeConn answers one request on conn and closes it.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()

	rc := newRequestCtx(conn.RemoteAddr().String())

	if s.config.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}
	res, status := s.serve(rc, conn)

	if s.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	if _, err := io.WriteString(conn, res); err != nil {
		s.log.Debug().Err(err).Str("conn_id", rc.UUID).Msg("[vhttpd] failed writing response")
	}

	s.finish(rc, status)
}

func (s *Server) serve(rc *requestCtx, r io.Reader) (string, int) {
	outcome, status := s.handle(rc, r)
	return s.respond(rc, outcome, status)
}

// handle classifies the request. Each early return is a terminal outcome.
func (s *Server) handle(rc *requestCtx, r io.Reader) (Outcome, int) {
	buf, err := ReadRequest(r, s.config.MaxHeaderBytes)
	if err != nil {
		rc.Err = err
		return FallbackOutcome(), http.StatusBadRequest
	}

	req, err := ParseRequest(buf)
	rc.Request = req
	if err != nil {
		rc.Err = err
		return FallbackOutcome(), http.StatusBadRequest
	}
	rc.Headers = req.HeaderMap()

	if s.reqLog != nil {
		s.reqLog.record(rc)
	}

	rc.Headers[HeaderAccessControlAllowOrigin] = s.policy.CORSValue(req.Header(HeaderOrigin))

	if !utf8.Valid(buf) {
		rc.Err = New(ErrBadRequest, "request is not valid UTF-8")
		return FallbackOutcome(), http.StatusBadRequest
	}

	if !s.policy.MethodAllowed(req.Method) {
		rc.Err = Newf(ErrMethodNotAllowed, "method %q is not allowed", req.Method)
		return FallbackOutcome(), http.StatusMethodNotAllowed
	}

	path, ok := ResolvePath(req.Target)
	if !ok {
		rc.Err = Newf(ErrBadRequest, "unresolvable request target %q", req.Target)
		return FallbackOutcome(), http.StatusBadRequest
	}
	rc.Path = path

	if s.cache != nil {
		if file, ok := s.cache.Get(path); ok {
			return FileOutcome(file), http.StatusOK
		}
	}

	full := filepath.Join(s.config.ContentRoot, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil {
		rc.Err = Wrapf(err, ErrNotFound, "cannot stat %s", path)
		return FallbackOutcome(), http.StatusNotFound
	}

	if info.IsDir() {
		return s.listDirectory(rc, full)
	}

	// a FIFO or device would block the worker or never hit EOF
	if !info.Mode().IsRegular() {
		rc.Err = Newf(ErrNotFound, "%s is not a regular file", path)
		return FallbackOutcome(), http.StatusNotFound
	}

	var file CachedFile
	if s.cache != nil {
		file, err = s.cache.GetOrLoad(s.config.ContentRoot, path)
	} else {
		file, err = loadFile(s.config.ContentRoot, path)
	}
	if err != nil {
		rc.Err = err
		return FallbackOutcome(), StatusOf(err)
	}
	return FileOutcome(file), http.StatusOK
}

// listDirectory is the only consumer of the query string, so a malformed query
// only fails directory requests.
func (s *Server) listDirectory(rc *requestCtx, full string) (Outcome, int) {
	if !s.config.DirectoryListing {
		rc.Err = Newf(ErrNotFound, "directory listing is disabled (%s)", rc.Path)
		return FallbackOutcome(), http.StatusNotFound
	}

	opts, err := decodeQuery(rc.Request.RawQuery)
	if err != nil {
		rc.Err = err
		return FallbackOutcome(), http.StatusBadRequest
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		rc.Err = Wrapf(err, ErrInternal, "cannot read directory %s", rc.Path)
		return FallbackOutcome(), http.StatusInternalServerError
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	format := s.config.DirectoryListingFormat
	if opts.Format != "" {
		format = opts.Format
	}
	return DirectoryOutcome(names, format), http.StatusOK
}

// respond assembles the outcome. If that fails it tries the 500 page for
// non-fallback outcomes and finally the built-in response, so a missing page
// never leaves the client without an answer.
func (s *Server) respond(rc *requestCtx, outcome Outcome, status int) (string, int) {
	headersOnly := rc.method() == http.MethodHead
	res, sent, err := assemble(outcome, status, rc.Headers, &s.config, headersOnly)
	if err == nil {
		return res, sent
	}
	LogErrorWithConn(&s.log, err, rc.UUID)

	if outcome.Kind != OutcomeFallback {
		status = http.StatusInternalServerError
		res, sent, err = assemble(FallbackOutcome(), status, rc.Headers, &s.config, headersOnly)
		if err == nil {
			return res, sent
		}
		LogErrorWithConn(&s.log, err, rc.UUID)
	}

	if _, ok := reasonPhrases[status]; !ok {
		status = http.StatusInternalServerError
	}
	return builtinResponse(s.config.Protocol, status, headersOnly), status
}

func (s *Server) finish(rc *requestCtx, status int) {
	s.stats.record(status)

	event := s.log.Debug()
	if status >= http.StatusInternalServerError {
		event = s.log.Error()
	}
	event = event.
		Str("conn_id", rc.UUID).
		Int("status", status).
		Str("method", rc.method()).
		Str("path", rc.Path).
		Dur("duration", rc.elapsed())
	if rc.RemoteAddr != "" {
		event = event.Str("ip", rc.RemoteAddr)
	}
	if rc.Err != nil {
		event = event.Err(rc.Err)
	}
	event.Msg("[vhttpd] request served")
}
