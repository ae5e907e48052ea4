// Package embed renders the third-party widget loader: the embed page
// URL and the HTML snippet a host site drops into its page, plus a
// mount/unmount lifecycle per container so the same container cannot
// be initialized twice.
package embed

import (
	"fmt"
	"net/url"
	"os"
)

const (
	defaultHost   = "cloud.servtech.com.tw:36000"
	defaultScheme = "https"

	envEmbedHost = "ASSISTANT_EMBED_HOST"
)

// Position places the widget in the host page.
type Position string

const (
	// PositionInline renders the iframe in normal document flow
	// inside its container.
	PositionInline Position = "inline"
	// PositionFixedBottomRight pins the iframe to the bottom-right
	// corner of the viewport.
	PositionFixedBottomRight Position = "fixed-bottom-right"
)

// Options is the bag a host site passes when mounting a widget.
// Zero values take the loader defaults.
type Options struct {
	// Width and Height are CSS lengths, "400px"/"600px" by default.
	Width  string
	Height string

	Position Position

	// Minimizable adds a floating toggle control. Only meaningful
	// with PositionFixedBottomRight.
	Minimizable bool

	Theme string
}

func (o Options) withDefaults() Options {
	if o.Width == "" {
		o.Width = "400px"
	}
	if o.Height == "" {
		o.Height = "600px"
	}
	if o.Position == "" {
		o.Position = PositionInline
	}
	if o.Theme == "" {
		o.Theme = "light"
	}
	return o
}

func (o Options) validate() error {
	switch o.Position {
	case PositionInline, PositionFixedBottomRight:
		return nil
	default:
		return fmt.Errorf("embed: unknown position %q", o.Position)
	}
}

// Loader resolves where the hosted embed page lives.
type Loader struct {
	scheme string
	host   string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHost overrides the embed host (host or host:port).
func WithHost(host string) LoaderOption {
	return func(l *Loader) { l.host = host }
}

// WithScheme overrides the page scheme, "https" by default.
func WithScheme(scheme string) LoaderOption {
	return func(l *Loader) { l.scheme = scheme }
}

// NewLoader builds a Loader. Host resolution order: explicit option,
// then ASSISTANT_EMBED_HOST, then the built-in production host.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{scheme: defaultScheme}
	if v := os.Getenv(envEmbedHost); v != "" {
		l.host = v
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.host == "" {
		l.host = defaultHost
	}
	return l
}

// PageURL returns the hosted embed page address for an assistant's
// public link.
func (l *Loader) PageURL(assistantLink string) string {
	u := url.URL{
		Scheme:   l.scheme,
		Host:     l.host,
		Path:     "/embed",
		RawQuery: url.Values{"id": {assistantLink}}.Encode(),
	}
	return u.String()
}
