package vhttpd

import (
	"net/url"

	"github.com/go-playground/form/v4"
)

var queryDecoder = form.NewDecoder()

// queryOptions are the per-request knobs accepted in the query string.
type queryOptions struct {
	Format string `form:"format"`
}

// decodeQuery parses a raw query string. An unknown format is ignored so the
// configured listing format applies.
func decodeQuery(rawQuery string) (queryOptions, error) {
	var opts queryOptions
	if rawQuery == "" {
		return opts, nil
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return opts, Wrap(err, ErrBadRequest, "malformed query string")
	}
	if err := queryDecoder.Decode(&opts, values); err != nil {
		return opts, Wrap(err, ErrBadRequest, "cannot decode query string")
	}

	switch opts.Format {
	case ListingHTML, ListingJSON:
	default:
		opts.Format = ""
	}
	return opts, nil
}
