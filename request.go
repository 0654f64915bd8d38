package vhttpd

import (
	"bytes"
	"net/textproto"
	"strings"
)

// Header is one committed `name: value` line of a request.
type Header struct {
	Name  string
	Value string
}

// Request is the tokenized header block of one incoming request.
type Request struct {
	Method   string
	Target   string
	Proto    string
	Path     string
	RawQuery string
	Headers  []Header
}

// Header returns the value of the last header matching name, case-insensitively.
func (r *Request) Header(name string) string {
	for i := len(r.Headers) - 1; i >= 0; i-- {
		if strings.EqualFold(r.Headers[i].Name, name) {
			return r.Headers[i].Value
		}
	}
	return ""
}

// HeaderMap returns the headers keyed by canonical name. Later duplicates win.
func (r *Request) HeaderMap() map[string]string {
	headers := make(map[string]string, len(r.Headers)+1)
	for _, h := range r.Headers {
		headers[textproto.CanonicalMIMEHeaderKey(h.Name)] = h.Value
	}
	return headers
}

// ParseRequest tokenizes buf into a request line and a header list. The
// returned Request is usable even when err is non-nil.
//
// A line ends at CR, LF or CRLF. The header block ends at the first empty
// line after the request line. A header commits only when both its name and
// its value are non-empty; a request without any committed header is
// rejected.
func ParseRequest(buf []byte) (*Request, error) {
	req := &Request{}
	lines := splitLines(buf)

	// leading empty lines before the request line are ignored
	for len(lines) > 0 && len(lines[0]) == 0 {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return req, New(ErrBadRequest, "empty request")
	}

	parseRequestLine(req, string(lines[0]))

	for _, line := range lines[1:] {
		if len(line) == 0 {
			break
		}
		if h, ok := parseHeaderLine(line); ok {
			req.Headers = append(req.Headers, h)
		}
	}

	if len(req.Headers) == 0 {
		return req, New(ErrBadRequest, "request carries no headers")
	}
	return req, nil
}

// ParseHeaders returns the header mapping of buf. Zero headers is a bad request.
func ParseHeaders(buf []byte) (map[string]string, error) {
	req, err := ParseRequest(buf)
	if err != nil {
		return nil, err
	}
	return req.HeaderMap(), nil
}

func parseRequestLine(req *Request, line string) {
	parts := strings.SplitN(line, " ", 3)
	req.Method = parts[0]
	if len(parts) > 1 {
		req.Target = parts[1]
	}
	if len(parts) > 2 {
		req.Proto = strings.TrimSpace(parts[2])
	}
	req.Path, req.RawQuery = splitTarget(req.Target)
}

func parseHeaderLine(line []byte) (Header, bool) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return Header{}, false
	}
	name := strings.TrimSpace(string(line[:idx]))
	value := strings.TrimRight(strings.TrimLeft(string(line[idx+1:]), " \t"), " \t")
	if name == "" || value == "" {
		return Header{}, false
	}
	return Header{Name: name, Value: value}, true
}

// splitLines splits buf on CRLF, CR or LF. A trailing terminator does not
// produce an extra empty line.
func splitLines(buf []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '\r':
			lines = append(lines, buf[start:i])
			if i+1 < len(buf) && buf[i+1] == '\n' {
				i++
			}
			start = i + 1
		case '\n':
			lines = append(lines, buf[start:i])
			start = i + 1
		}
	}
	if start < len(buf) {
		lines = append(lines, buf[start:])
	}
	return lines
}

// splitTarget separates the path of a request-target from its query. A
// fragment, if a client sent one, is dropped.
func splitTarget(target string) (path, rawQuery string) {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}
