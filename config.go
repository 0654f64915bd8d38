package vhttpd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/yaml.v3"
)

var logger = zerolog.Nop()

// SetupLogger installs the package logger used when a Server is built without one.
func SetupLogger(l *zerolog.Logger) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	if l == nil {
		logger = zerolog.Nop()
		return
	}
	logger = *l
}

func GetLogger() *zerolog.Logger {
	return &logger
}

const (
	ProtocolHTTP11 = "HTTP/1.1"
	ProtocolHTTP2  = "HTTP/2"

	ListingHTML = "html"
	ListingJSON = "json"

	defaultMaxHeaderBytes = 64 * 1024
)

var knownMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"CONNECT": true,
	"OPTIONS": true,
	"TRACE":   true,
	"PATCH":   true,
}

// ExtraHeader is a static header appended verbatim to every response.
type ExtraHeader struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Config is the server policy. A Server keeps its own copy; nothing mutates it
// after NewServer returns.
type Config struct {
	ContentRoot string `yaml:"content_root"`
	LogPath     string `yaml:"log_path"`
	SaveLogs    bool   `yaml:"save_logs"`

	Addr           string `yaml:"addr"`
	Port           int    `yaml:"port"`
	Multithreading bool   `yaml:"multithreading"`
	Workers        int    `yaml:"workers"`
	Protocol       string `yaml:"protocol"`

	AllowedMethods  []string `yaml:"allowed_methods"`
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins"`

	SecurityHeaders    bool          `yaml:"security_headers"`
	AllowIframes       bool          `yaml:"allow_iframes"`
	TimeHeader         bool          `yaml:"time_header"`
	AppendExtraHeaders bool          `yaml:"append_extra_headers"`
	ExtraHeaders       []ExtraHeader `yaml:"extra_headers"`

	DirectoryListing       bool   `yaml:"directory_listing"`
	DirectoryListingFormat string `yaml:"directory_listing_format"`
	FileCaching            bool   `yaml:"file_caching"`

	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`

	// Optional listener for /healthz and /stats, disabled when empty
	AdminAddr string `yaml:"admin_addr"`
}

func DefaultConfig() Config {
	return Config{
		ContentRoot:            "/var/www/static",
		LogPath:                "/var/www/logs",
		SaveLogs:               false,
		Addr:                   "127.0.0.1",
		Port:                   80,
		Multithreading:         true,
		Workers:                10,
		Protocol:               ProtocolHTTP11,
		AllowedMethods:         []string{"GET"},
		AllowAllOrigins:        true,
		SecurityHeaders:        true,
		DirectoryListingFormat: ListingHTML,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		MaxHeaderBytes:         defaultMaxHeaderBytes,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. The result is not validated.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, Wrapf(err, ErrConfig, "cannot read config file %s", filename)
	}
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return config, Wrapf(err, ErrConfig, "cannot parse config file %s", filename)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.ContentRoot == "" {
		return New(ErrConfig, "content_root must be set")
	}
	if len(c.AllowedMethods) == 0 {
		return New(ErrConfig, "allowed_methods must name one or more methods (GET recommended)")
	}
	for _, method := range c.AllowedMethods {
		if !knownMethods[method] {
			return Newf(ErrConfig, "invalid method in allowed_methods (%s)", method)
		}
	}
	if !c.AllowAllOrigins && len(c.AllowedOrigins) == 0 {
		return New(ErrConfig, "allow_all_origins is disabled and no allowed_origins are provided")
	}
	if c.Protocol != ProtocolHTTP11 && c.Protocol != ProtocolHTTP2 {
		return Newf(ErrConfig, "unknown protocol label %q", c.Protocol)
	}
	if c.Multithreading && c.Workers < 1 {
		return Newf(ErrConfig, "workers must be at least 1, got %d", c.Workers)
	}
	switch c.DirectoryListingFormat {
	case ListingHTML, ListingJSON:
	default:
		return Newf(ErrConfig, "unknown directory_listing_format %q", c.DirectoryListingFormat)
	}
	if c.MaxHeaderBytes < 0 {
		return Newf(ErrConfig, "max_header_bytes must not be negative, got %d", c.MaxHeaderBytes)
	}
	return nil
}

// clone copies the slices so the caller's Config can't alias the server's.
func (c Config) clone() Config {
	c.AllowedMethods = append([]string(nil), c.AllowedMethods...)
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	c.ExtraHeaders = append([]ExtraHeader(nil), c.ExtraHeaders...)
	return c
}
