package vhttpd

import (
	"io"
)

const chunkSize = 1024

// ReadRequest reads r in chunkSize pieces until the header block is terminated
// by a blank line, the peer stops sending, or limit bytes have been buffered
// (limit <= 0 means unbounded). Any read error is a bad request. Bodies are not
// read.
func ReadRequest(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, chunkSize)
	n := 0

	for {
		if n == len(buf) {
			buf = append(buf, make([]byte, chunkSize)...)
		}

		count, err := r.Read(buf[n:])
		if count > 0 {
			// look back far enough to catch a terminator split across reads
			start := n - 3
			if start < 0 {
				start = 0
			}
			n += count
			if headerTerminated(buf[start:n]) {
				break
			}
			if limit > 0 && n >= limit {
				return nil, Newf(ErrBadRequest, "header block exceeds %d bytes", limit)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Wrap(err, ErrBadRequest, "failed reading request stream")
		}
		if count == 0 {
			break
		}
	}

	return buf[:n], nil
}

// headerTerminated reports whether b holds an empty line. Line endings are
// CR, LF or CRLF, the same ones the tokenizer splits on, so LF LF, CRLF CRLF
// and CR CR all match.
func headerTerminated(b []byte) bool {
	lastWasEnd := false
	for i, c := range b {
		switch c {
		case '\r':
			if lastWasEnd {
				return true
			}
			lastWasEnd = true
		case '\n':
			// second half of a CRLF
			if i > 0 && b[i-1] == '\r' {
				continue
			}
			if lastWasEnd {
				return true
			}
			lastWasEnd = true
		default:
			lastWasEnd = false
		}
	}
	return false
}
