// ABOUTME: Headless-browser backend implemented with chromedp
// ABOUTME: A process singleton browser with a bounded page pool; pages never leak

package chromedp

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"yana/core/interfaces"
)

// Client implements the Browser interface on a shared Chrome instance.
// Pages (tabs) are acquired from a fixed-size pool and released on every
// exit path.
type Client struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	pages       chan struct{}
	logger      interfaces.Logger
}

// Config holds browser backend configuration
type Config struct {
	// PoolSize bounds the number of concurrently open pages
	PoolSize int

	// ExecPath optionally points at a specific Chrome binary
	ExecPath string

	// Headless disables the visible browser window; on by default
	Headless bool
}

// DefaultConfig returns the default browser configuration
func DefaultConfig() Config {
	return Config{
		PoolSize: 4,
		Headless: true,
	}
}

// NewClient launches the shared browser instance
func NewClient(cfg Config, logger interfaces.Logger) (*Client, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultConfig().PoolSize
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=true"),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// Start the browser process eagerly so failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, err
	}

	return &Client{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
		pages:       make(chan struct{}, cfg.PoolSize),
		logger:      logger,
	}, nil
}

// RenderHTML navigates a pooled page to url and returns the rendered document
func (c *Client) RenderHTML(ctx context.Context, url string, waitForSelector string, timeout time.Duration) (string, error) {
	// Acquire a page slot
	select {
	case c.pages <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.pages }()

	// Tab contexts must derive from the browser context, so the caller's
	// cancellation is propagated by watching it separately.
	tabCtx, closeTab := chromedp.NewContext(c.browserCtx)
	defer closeTab()

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	// Headless defaults to a tiny viewport; some sites render a mobile
	// layout there that breaks the extraction selectors.
	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(1366, 900, 1, false),
		chromedp.Navigate(url),
	}
	if waitForSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(waitForSelector, chromedp.ByQuery))
	}
	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, tasks); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}

	return html, nil
}

// Close shuts down the browser process
func (c *Client) Close() error {
	if c.browserStop == nil {
		return errors.New("browser not started")
	}
	c.browserStop()
	c.allocCancel()
	return nil
}
