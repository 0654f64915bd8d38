package vhttpd

// Policy gates request methods and computes the CORS response value.
type Policy struct {
	methods  map[string]struct{}
	origins  map[string]struct{}
	allowAll bool
}

// NewPolicy builds the access policy from config. An empty method list, or
// allow-all disabled without any origin, is a configuration error.
func NewPolicy(config *Config) (*Policy, error) {
	if len(config.AllowedMethods) == 0 {
		return nil, New(ErrConfig, "allowed_methods must name one or more methods (GET recommended)")
	}
	if !config.AllowAllOrigins && len(config.AllowedOrigins) == 0 {
		return nil, New(ErrConfig, "allow_all_origins is disabled and no allowed_origins are provided")
	}

	p := &Policy{
		methods:  make(map[string]struct{}, len(config.AllowedMethods)),
		origins:  make(map[string]struct{}, len(config.AllowedOrigins)),
		allowAll: config.AllowAllOrigins,
	}
	for _, m := range config.AllowedMethods {
		p.methods[m] = struct{}{}
	}
	for _, o := range config.AllowedOrigins {
		p.origins[o] = struct{}{}
	}
	return p, nil
}

// MethodAllowed reports whether the request-line method token is on the allow-list.
func (p *Policy) MethodAllowed(method string) bool {
	_, ok := p.methods[method]
	return ok
}

func (p *Policy) OriginAllowed(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORSValue is "*" under allow-all, the origin itself when permitted and
// "null" otherwise. An empty origin means the request sent none.
func (p *Policy) CORSValue(origin string) string {
	if p.allowAll {
		return corsAll
	}
	if origin != "" && p.OriginAllowed(origin) {
		return origin
	}
	return corsNull
}
