package vhttpd

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

func corsHeaders(value string) map[string]string {
	return map[string]string{HeaderAccessControlAllowOrigin: value}
}

func TestAssembleFile(t *testing.T) {
	config := DefaultConfig()
	file := CachedFile{Ext: "css", Content: "body{}"}

	res, err := Assemble(FileOutcome(file), 200, corsHeaders("localhost"), &config)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	expected := "HTTP/1.1 200 OK\r\n" +
		"Access-Control-Allow-Origin: localhost\r\n" +
		"Content-Type: text/css\r\n" +
		"Content-Length: 6\r\n" +
		"X-Content-Type-Options: nosniff\r\n" +
		"Cross-Origin-Resource-Policy: same-origin\r\n" +
		"X-Frame-Options: DENY\r\n" +
		"\r\n" +
		"body{}"
	if res != expected {
		t.Errorf("Unexpected response:\n%q\nwant\n%q", res, expected)
	}
}

func TestAssembleHeaderOrder(t *testing.T) {
	config := DefaultConfig()
	config.TimeHeader = true
	config.AppendExtraHeaders = true
	config.ExtraHeaders = []ExtraHeader{
		{Name: "X-Powered-By", Value: "vhttpd"},
		{Name: "Cache-Control", Value: "no-store"},
	}
	config.AllowIframes = true

	before := time.Now().Unix()
	res, err := Assemble(FileOutcome(CachedFile{Ext: "html", Content: "<p>é</p>"}), 200, corsHeaders("*"), &config)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	p := parseResponse(t, res)

	expectedOrder := []string{
		"X-Powered-By",
		"Cache-Control",
		HeaderTime,
		HeaderAccessControlAllowOrigin,
		HeaderContentType,
		HeaderContentLength,
		HeaderXContentTypeOptions,
		HeaderCrossOriginResourcePolicy,
	}
	if !reflect.DeepEqual(p.order, expectedOrder) {
		t.Errorf("Expected header order %v, got %v", expectedOrder, p.order)
	}

	ts, err := strconv.ParseInt(p.headers[HeaderTime], 10, 64)
	if err != nil || ts < before || ts > time.Now().Unix() {
		t.Errorf("Unexpected Time header %q", p.headers[HeaderTime])
	}

	// length counts bytes, not characters
	if p.headers[HeaderContentLength] != strconv.Itoa(len("<p>é</p>")) {
		t.Errorf("Expected byte length, got %s", p.headers[HeaderContentLength])
	}
}

func TestAssembleWithoutSecurityHeaders(t *testing.T) {
	config := DefaultConfig()
	config.SecurityHeaders = false
	config.AppendExtraHeaders = false
	config.ExtraHeaders = []ExtraHeader{{Name: "X-Ignored", Value: "yes"}}

	res, err := Assemble(FileOutcome(CachedFile{Ext: "txt", Content: "x"}), 200, nil, &config)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	p := parseResponse(t, res)

	expectedOrder := []string{HeaderAccessControlAllowOrigin, HeaderContentType, HeaderContentLength}
	if !reflect.DeepEqual(p.order, expectedOrder) {
		t.Errorf("Expected header order %v, got %v", expectedOrder, p.order)
	}
	if p.headers[HeaderAccessControlAllowOrigin] != "null" {
		t.Errorf("Missing CORS value should be null, got %q", p.headers[HeaderAccessControlAllowOrigin])
	}
	if p.headers[HeaderContentType] != ContentTypePlain {
		t.Errorf("Expected text/plain, got %s", p.headers[HeaderContentType])
	}
}

func TestAssembleProtocolLabel(t *testing.T) {
	config := DefaultConfig()
	config.Protocol = ProtocolHTTP2

	res, err := Assemble(FileOutcome(CachedFile{Ext: "html", Content: ""}), 200, nil, &config)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !strings.HasPrefix(res, "HTTP/2 200 OK\r\n") {
		t.Errorf("Unexpected status line in %q", res)
	}
}

func TestAssembleInvalidStatus(t *testing.T) {
	config := DefaultConfig()
	for _, status := range []int{0, 201, 302, 403, 418, 503} {
		if _, err := Assemble(FileOutcome(CachedFile{}), status, nil, &config); !Is(err, ErrInternal) {
			t.Errorf("status %d: expected internal error, got %v", status, err)
		}
	}
}

func TestAssembleFallback(t *testing.T) {
	root := setupContentRoot(t)
	config := testConfig(root)

	for _, status := range []int{400, 404, 405, 500} {
		res, err := Assemble(FallbackOutcome(), status, corsHeaders("null"), &config)
		if err != nil {
			t.Fatalf("status %d: Assemble failed: %v", status, err)
		}
		p := parseResponse(t, res)
		if p.status != status || p.reason != reasonPhrases[status] {
			t.Errorf("Unexpected status line %d %s", p.status, p.reason)
		}
		if p.body != "<h1>"+strconv.Itoa(status)+"</h1>" {
			t.Errorf("status %d: unexpected body %q", status, p.body)
		}
		if p.headers[HeaderContentType] != ContentTypeHTML {
			t.Errorf("status %d: expected text/html, got %s", status, p.headers[HeaderContentType])
		}
	}

	config.ContentRoot = t.TempDir()
	if _, err := Assemble(FallbackOutcome(), 404, nil, &config); !Is(err, ErrInternal) {
		t.Errorf("Expected internal error for a missing fallback page, got %v", err)
	}
}

func TestAssembleDirectoryListing(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		name        string
		entries     []string
		format      string
		status      int
		contentType string
		body        string
	}{
		{
			name:        "html",
			entries:     []string{"a.html", "<b>.txt"},
			format:      ListingHTML,
			status:      200,
			contentType: ContentTypeHTML,
			body:        "<li>a.html</li><li>&lt;b&gt;.txt</li>",
		},
		{
			name:        "html empty",
			format:      ListingHTML,
			status:      404,
			contentType: ContentTypeHTML,
			body:        emptyDirectoryMessage,
		},
		{
			name:        "json",
			entries:     []string{"a.html", "b.html"},
			format:      ListingJSON,
			status:      200,
			contentType: ContentTypeJSON,
			body:        `["a.html","b.html"]`,
		},
		{
			name:        "json empty",
			format:      ListingJSON,
			status:      404,
			contentType: ContentTypeJSON,
			body:        `{"response":"` + emptyDirectoryMessage + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Assemble(DirectoryOutcome(tt.entries, tt.format), 200, nil, &config)
			if err != nil {
				t.Fatalf("Assemble failed: %v", err)
			}
			p := parseResponse(t, res)
			if p.status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, p.status)
			}
			if p.headers[HeaderContentType] != tt.contentType {
				t.Errorf("Expected content type %s, got %s", tt.contentType, p.headers[HeaderContentType])
			}
			if !strings.Contains(p.body, tt.body) {
				t.Errorf("Expected body to contain %q, got %q", tt.body, p.body)
			}
			if p.headers[HeaderContentLength] != strconv.Itoa(len(p.body)) {
				t.Errorf("Content-Length %s does not match body length %d", p.headers[HeaderContentLength], len(p.body))
			}
		})
	}
}

func TestBuiltinResponse(t *testing.T) {
	tests := []struct {
		protocol    string
		status      int
		headersOnly bool
		expected    string
	}{
		{ProtocolHTTP11, 404, false, "HTTP/1.1 404 Not Found\r\nContent-Type: text/plain\r\nContent-Length: 13\r\n\r\n404 Not Found"},
		{ProtocolHTTP2, 400, false, "HTTP/2 400 Bad Request\r\nContent-Type: text/plain\r\nContent-Length: 15\r\n\r\n400 Bad Request"},
		{"", 418, false, "HTTP/1.1 500 Internal Server Error\r\nContent-Type: text/plain\r\nContent-Length: 25\r\n\r\n500 Internal Server Error"},
		{ProtocolHTTP11, 405, true, "HTTP/1.1 405 Method Not Allowed\r\nContent-Type: text/plain\r\nContent-Length: 22\r\n\r\n"},
	}
	for _, tt := range tests {
		if got := builtinResponse(tt.protocol, tt.status, tt.headersOnly); got != tt.expected {
			t.Errorf("builtinResponse(%q, %d, %v) = %q, want %q", tt.protocol, tt.status, tt.headersOnly, got, tt.expected)
		}
	}
}

func TestAssembleHeadersOnly(t *testing.T) {
	config := DefaultConfig()
	file := FileOutcome(CachedFile{Ext: "html", Content: "<p>hello</p>"})

	full, _, err := assemble(file, 200, corsHeaders("localhost"), &config, false)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	head, sent, err := assemble(file, 200, corsHeaders("localhost"), &config, true)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	if sent != 200 {
		t.Errorf("Expected status 200, got %d", sent)
	}
	if full != head+"<p>hello</p>" {
		t.Errorf("Header-only response should be the full response minus its body:\n%q\n%q", head, full)
	}
	if p := parseResponse(t, head); p.headers[HeaderContentLength] != "12" {
		t.Errorf("Content-Length must describe the dropped body, got %s", p.headers[HeaderContentLength])
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"html": ContentTypeHTML,
		"css":  ContentTypeCSS,
		"js":   ContentTypeJavaScript,
		"txt":  ContentTypePlain,
		"json": ContentTypePlain,
		"":     ContentTypePlain,
	}
	for ext, expected := range tests {
		if got := contentTypeFor(ext); got != expected {
			t.Errorf("contentTypeFor(%q) = %s, want %s", ext, got, expected)
		}
	}
}
