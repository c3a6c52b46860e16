package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"billboard-poi-scraper/utils"
)

// ErrLaunch is returned (wrapped) when the browser process cannot be started.
var ErrLaunch = errors.New("browser: launch failed")

// Options configures a browser session.
type Options struct {
	ExecPath      string
	Headless      bool
	NoSandbox     bool
	DisableDevShm bool
	UserAgent     string
	// PageTimeout bounds a single Fetch. Zero means no limit.
	PageTimeout time.Duration
}

// Flags returns the command-line switches applied on top of chromedp's defaults.
func (o Options) Flags() map[string]interface{} {
	return map[string]interface{}{
		"headless":                  o.Headless,
		"blink-settings":            "imagesEnabled=false",
		"no-sandbox":                o.NoSandbox,
		"disable-dev-shm-usage":     o.DisableDevShm,
		"ignore-certificate-errors": true,
	}
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range o.Flags() {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

// Session is one running browser with a single tab.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	proc        *os.Process
	registry    *Registry
	pageTimeout time.Duration
	logger      *utils.Logger
	closeOnce   sync.Once
}

// Open launches a browser. The process is started eagerly so that launch
// problems are reported here, wrapped in ErrLaunch.
func Open(ctx context.Context, opts Options, registry *Registry, logger *utils.Logger) (*Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts.allocatorOptions()...)

	// Suppress chromedp log noise
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		logger.Error("[browser] Launch failed (exec=%q headless=%v): %v", opts.ExecPath, opts.Headless, err)
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	s := &Session{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		registry:    registry,
		pageTimeout: opts.PageTimeout,
		logger:      logger,
	}
	if c := chromedp.FromContext(browserCtx); c != nil && c.Browser != nil {
		s.proc = c.Browser.Process()
	}
	if s.proc != nil && registry != nil {
		registry.Register(s.proc)
	}

	logger.Debug("[browser] Session started (pid=%d headless=%v)", s.PID(), opts.Headless)
	return s, nil
}

// PID returns the browser process id, or 0 when unknown.
func (s *Session) PID() int {
	if s.proc == nil {
		return 0
	}
	return s.proc.Pid
}

// Fetch navigates to url, waits settle for dynamic content to render and
// returns the page HTML.
func (s *Session) Fetch(ctx context.Context, url string, settle time.Duration) (string, error) {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if s.pageTimeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, s.pageTimeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser: fetch %s: %w", url, err)
	}
	return html, nil
}

const zoomScript = `(function(value) {
	var selectBox = document.querySelector("settings-ui").shadowRoot
		.querySelector("#main").shadowRoot
		.querySelector("settings-basic-page").shadowRoot
		.querySelector("settings-appearance-page").shadowRoot
		.querySelector("#zoomLevel");
	selectBox.value = value;
	selectBox.dispatchEvent(new Event("change"));
	return true;
})(%s)`

// SetZoom changes the browser-wide page zoom through the settings page.
// Only meaningful with a visible window.
func (s *Session) SetZoom(ctx context.Context, pct int) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	value := fmt.Sprintf("%.2f", float64(pct)/100)
	var ok bool
	err := chromedp.Run(runCtx,
		chromedp.Navigate("chrome://settings/"),
		chromedp.Evaluate(fmt.Sprintf(zoomScript, value), &ok),
	)
	if err != nil {
		return fmt.Errorf("browser: set zoom %d%%: %w", pct, err)
	}
	return nil
}

// Close shuts the browser down and stops tracking its process. Safe to call
// more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.cancelCtx()
		s.cancelAlloc()
		if s.proc != nil && s.registry != nil {
			s.registry.Unregister(s.proc)
		}
		s.logger.Debug("[browser] Session closed (pid=%d)", s.PID())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browser: close: %w", err)
	}
	return nil
}
