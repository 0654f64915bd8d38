package vhttpd

// Header names written or read by the pipeline
const (
	HeaderContentType               = "Content-Type"
	HeaderContentLength             = "Content-Length"
	HeaderOrigin                    = "Origin"
	HeaderAccessControlAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderTime                      = "Time"
	HeaderXContentTypeOptions       = "X-Content-Type-Options"
	HeaderXFrameOptions             = "X-Frame-Options"
	HeaderCrossOriginResourcePolicy = "Cross-Origin-Resource-Policy"
)

// ContentType constants
const (
	ContentTypeHTML       = "text/html"
	ContentTypeCSS        = "text/css"
	ContentTypeJavaScript = "application/javascript"
	ContentTypePlain      = "text/plain"
	ContentTypeJSON       = "application/json"
)

// Security header values
const (
	nosniff    = "nosniff"
	deny       = "DENY"
	sameOrigin = "same-origin"

	// CORS value for a refused or missing origin
	corsNull = "null"
	corsAll  = "*"
)

// contentTypeFor maps a file extension (without the dot) to its MIME type.
func contentTypeFor(ext string) string {
	switch ext {
	case "html":
		return ContentTypeHTML
	case "css":
		return ContentTypeCSS
	case "js":
		return ContentTypeJavaScript
	default:
		return ContentTypePlain
	}
}
