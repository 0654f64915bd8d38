package vhttpd

import (
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// OutcomeKind tags what a finished pipeline answers with.
type OutcomeKind int

const (
	OutcomeFile OutcomeKind = iota
	OutcomeDirectory
	OutcomeFallback
)

// Outcome is the terminal result of one pipeline run.
type Outcome struct {
	Kind OutcomeKind

	// OutcomeFile
	File CachedFile

	// OutcomeDirectory
	Entries []string
	Format  string
}

func FileOutcome(file CachedFile) Outcome {
	return Outcome{Kind: OutcomeFile, File: file}
}

func DirectoryOutcome(entries []string, format string) Outcome {
	return Outcome{Kind: OutcomeDirectory, Entries: entries, Format: format}
}

func FallbackOutcome() Outcome {
	return Outcome{Kind: OutcomeFallback}
}

const emptyDirectoryMessage = "The requested directory is empty."

var reasonPhrases = map[int]string{
	http.StatusOK:                  "OK",
	http.StatusBadRequest:          "Bad Request",
	http.StatusNotFound:            "Not Found",
	http.StatusMethodNotAllowed:    "Method Not Allowed",
	http.StatusInternalServerError: "Internal Server Error",
}

// Assemble renders outcome as a complete response. reqHeaders supplies the
// precomputed CORS value. A status outside 200/400/404/405/500 or a missing
// fallback page is an error; callers fall back to builtinResponse.
func Assemble(outcome Outcome, status int, reqHeaders map[string]string, config *Config) (string, error) {
	res, _, err := assemble(outcome, status, reqHeaders, config, false)
	return res, err
}

// assemble also returns the status that went on the wire, which differs from
// status for an empty directory. headersOnly answers a HEAD request: the body is
// dropped but Content-Length still describes it.
func assemble(outcome Outcome, status int, reqHeaders map[string]string, config *Config, headersOnly bool) (string, int, error) {
	if _, ok := reasonPhrases[status]; !ok {
		return "", 0, Newf(ErrInternal, "invalid status code %d", status)
	}

	res := &responseBuilder{}

	if config.AppendExtraHeaders {
		for _, h := range config.ExtraHeaders {
			res.addHeader(h.Name, h.Value)
		}
	}

	if config.TimeHeader {
		res.addHeader(HeaderTime, strconv.FormatInt(time.Now().Unix(), 10))
	}

	cors := reqHeaders[HeaderAccessControlAllowOrigin]
	if cors == "" {
		cors = corsNull
	}
	res.addHeader(HeaderAccessControlAllowOrigin, cors)

	var contentType string
	switch outcome.Kind {
	case OutcomeFile:
		contentType = contentTypeFor(outcome.File.Ext)
		res.body = outcome.File.Content

	case OutcomeDirectory:
		var err error
		res.body, contentType, status, err = renderListing(outcome.Entries, outcome.Format)
		if err != nil {
			return "", 0, err
		}

	case OutcomeFallback:
		name := strconv.Itoa(status) + ".html"
		page, err := os.ReadFile(filepath.Join(config.ContentRoot, name))
		if err != nil {
			return "", 0, Wrapf(err, ErrInternal, "fallback page %s doesn't exist", name)
		}
		contentType = ContentTypeHTML
		res.body = string(page)

	default:
		return "", 0, Newf(ErrInternal, "unknown outcome kind %d", outcome.Kind)
	}

	res.addHeader(HeaderContentType, contentType)
	res.addHeader(HeaderContentLength, strconv.Itoa(len(res.body)))

	if config.SecurityHeaders {
		res.addHeader(HeaderXContentTypeOptions, nosniff)
		res.addHeader(HeaderCrossOriginResourcePolicy, sameOrigin)
		if !config.AllowIframes {
			res.addHeader(HeaderXFrameOptions, deny)
		}
	}

	if headersOnly {
		res.body = ""
	}
	return res.build(config.Protocol, status), status, nil
}

// renderListing returns body, content type and status for a directory.
func renderListing(entries []string, format string) (string, string, int, error) {
	if format == ListingJSON {
		var (
			body []byte
			err  error
		)
		status := http.StatusOK
		if len(entries) == 0 {
			status = http.StatusNotFound
			body, err = sonic.Marshal(map[string]string{"response": emptyDirectoryMessage})
		} else {
			body, err = sonic.Marshal(entries)
		}
		if err != nil {
			return "", "", 0, Wrap(err, ErrInternal, "cannot encode directory listing")
		}
		return string(body), ContentTypeJSON, status, nil
	}

	if len(entries) == 0 {
		return htmlDocument("<p>" + emptyDirectoryMessage + "</p>"), ContentTypeHTML, http.StatusNotFound, nil
	}

	var b strings.Builder
	b.WriteString("<p>Directory contents:</p><ul>")
	for _, entry := range entries {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(entry))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return htmlDocument(b.String()), ContentTypeHTML, http.StatusOK, nil
}

func htmlDocument(body string) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body>` + body + `</body></html>`
}

type responseBuilder struct {
	headers []Header
	body    string
}

func (r *responseBuilder) addHeader(name, value string) {
	r.headers = append(r.headers, Header{Name: name, Value: value})
}

func (r *responseBuilder) build(protocol string, status int) string {
	var b strings.Builder
	b.Grow(len(r.body) + 64*len(r.headers) + 32)

	writeStatusLine(&b, protocol, status)
	for _, h := range r.headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(r.body)
	return b.String()
}

func writeStatusLine(b *strings.Builder, protocol string, status int) {
	b.WriteString(protocol)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(status))
	b.WriteByte(' ')
	b.WriteString(reasonPhrases[status])
	b.WriteString("\r\n")
}

// builtinResponse is the last-resort answer when assembly itself fails. It
// cannot fail; an unknown status becomes 500.
func builtinResponse(protocol string, status int, headersOnly bool) string {
	if _, ok := reasonPhrases[status]; !ok {
		status = http.StatusInternalServerError
	}
	if protocol == "" {
		protocol = ProtocolHTTP11
	}
	body := strconv.Itoa(status) + " " + reasonPhrases[status]

	var b strings.Builder
	writeStatusLine(&b, protocol, status)
	b.WriteString(HeaderContentType + ": " + ContentTypePlain + "\r\n")
	b.WriteString(HeaderContentLength + ": " + strconv.Itoa(len(body)) + "\r\n")
	b.WriteString("\r\n")
	if !headersOnly {
		b.WriteString(body)
	}
	return b.String()
}
