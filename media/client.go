// ABOUTME: Client infrastructure for the media SDK with provider routing and middleware.
// ABOUTME: NewClient with functional options, middleware chain execution, and adapter registries per capability.

package media

import (
	"context"
	"fmt"
)

// ImageRequest is the input to an image generation call. Provider selects the
// registered adapter; empty means the client default.
type ImageRequest struct {
	Provider    string
	Model       string
	Prompt      string
	RefImage    string
	AspectRatio string
	N           int
}

// ImageResult is the outcome of an image generation call. Images holds URLs
// or data URLs, one per produced image.
type ImageResult struct {
	Images []string
	Text   string
}

// VideoRequest is the input to a video generation call.
type VideoRequest struct {
	Provider    string
	Model       string
	Prompt      string
	FirstFrame  string
	DurationSec int
}

// VideoResult is the outcome of a video generation call.
type VideoResult struct {
	URL string
}

// ImageProvider is the interface image generation adapters implement.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
	Close() error
}

// VideoProvider is the interface video generation adapters implement.
type VideoProvider interface {
	Name() string
	GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error)
	Close() error
}

// Middleware wraps an image generation call, enabling logging, caching, and
// other cross-cutting concerns. Middleware executes in registration order for
// requests and reverse order for responses.
type Middleware func(ctx context.Context, req ImageRequest, next NextFunc) (*ImageResult, error)

// NextFunc is the function signature passed to middleware to continue the chain.
type NextFunc func(ctx context.Context, req ImageRequest) (*ImageResult, error)

// Client is the primary entry point for media generation calls. It manages
// provider adapters, routes requests to the correct provider, and applies
// the middleware chain.
type Client struct {
	imageProviders map[string]ImageProvider
	videoProviders map[string]VideoProvider
	defaultImage   string
	defaultVideo   string
	middleware     []Middleware
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithImageProvider registers an image adapter under the given name. The first
// provider registered becomes the default if none has been set.
func WithImageProvider(name string, p ImageProvider) ClientOption {
	return func(c *Client) {
		c.imageProviders[name] = p
		if c.defaultImage == "" {
			c.defaultImage = name
		}
	}
}

// WithVideoProvider registers a video adapter under the given name. The first
// provider registered becomes the default if none has been set.
func WithVideoProvider(name string, p VideoProvider) ClientOption {
	return func(c *Client) {
		c.videoProviders[name] = p
		if c.defaultVideo == "" {
			c.defaultVideo = name
		}
	}
}

// WithDefaultImageProvider sets the provider used when an ImageRequest does
// not name one.
func WithDefaultImageProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultImage = name
	}
}

// WithDefaultVideoProvider sets the provider used when a VideoRequest does
// not name one.
func WithDefaultVideoProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultVideo = name
	}
}

// WithMiddleware appends one or more middleware functions to the client's
// chain. Middleware is executed in registration order for the request phase
// and reverse order for the response phase.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// NewClient creates a new Client with the given options applied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		imageProviders: make(map[string]ImageProvider),
		videoProviders: make(map[string]VideoProvider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) resolveImageProvider(req ImageRequest) (ImageProvider, error) {
	name := req.Provider
	if name == "" {
		name = c.defaultImage
	}
	if name == "" {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: "no image provider specified and no default configured",
		}}
	}
	p, ok := c.imageProviders[name]
	if !ok {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("image provider %q not registered", name),
		}}
	}
	return p, nil
}

func (c *Client) resolveVideoProvider(req VideoRequest) (VideoProvider, error) {
	name := req.Provider
	if name == "" {
		name = c.defaultVideo
	}
	if name == "" {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: "no video provider specified and no default configured",
		}}
	}
	p, ok := c.videoProviders[name]
	if !ok {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("video provider %q not registered", name),
		}}
	}
	return p, nil
}

// GenerateImage sends an image request through the middleware chain and then
// to the appropriate provider adapter.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	handler := func(ctx context.Context, req ImageRequest) (*ImageResult, error) {
		p, err := c.resolveImageProvider(req)
		if err != nil {
			return nil, err
		}
		return p.GenerateImage(ctx, req)
	}

	// Wrap with middleware in reverse order so the first middleware registered
	// is the outermost layer.
	chain := handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := chain
		chain = func(ctx context.Context, req ImageRequest) (*ImageResult, error) {
			return mw(ctx, req, next)
		}
	}

	return chain(ctx, req)
}

// GenerateVideo routes a video request to the appropriate provider adapter.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	p, err := c.resolveVideoProvider(req)
	if err != nil {
		return nil, err
	}
	return p.GenerateVideo(ctx, req)
}

// Close shuts down all registered provider adapters. Errors from individual
// adapters are collected and returned as a combined error.
func (c *Client) Close() error {
	var errs []error
	for name, p := range c.imageProviders {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing image provider %q: %w", name, err))
		}
	}
	for name, p := range c.videoProviders {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing video provider %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		combined := errs[0]
		for _, e := range errs[1:] {
			combined = fmt.Errorf("%w; %v", combined, e)
		}
		return combined
	}
	return nil
}
