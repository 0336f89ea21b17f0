package chrome

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/store"
	"chart-relay-bot/internal/types"

	"github.com/chromedp/chromedp"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Capturer renders a chart page in headless Chrome and screenshots the chart
// element. Every call starts its own browser so a crashed tab never leaks into
// the next capture.
type Capturer struct {
	urlTemplate string
	selector    string
	profileDir  string
	execPath    string
	headless    bool
	width       int
	height      int
	navTimeout  time.Duration
	selTimeout  time.Duration
	settle      time.Duration
	now         func() time.Time
}

var _ interfaces.Capturer = (*Capturer)(nil)

func New(cfg *store.Config) *Capturer {
	return &Capturer{
		urlTemplate: cfg.Chart.URLTemplate,
		selector:    cfg.Chart.Selector,
		profileDir:  cfg.Chart.ProfileDir,
		execPath:    cfg.Chart.ExecPath,
		headless:    cfg.Chart.Headless,
		width:       cfg.Chart.ViewportWidth,
		height:      cfg.Chart.ViewportHeight,
		navTimeout:  cfg.Chart.NavigationTimeout,
		selTimeout:  cfg.Chart.SelectorTimeout,
		settle:      cfg.Chart.SettleDelay,
		now:         time.Now,
	}
}

// ChartURL fills the {symbol} and {interval} placeholders of the template.
func (c *Capturer) ChartURL(symbol, interval string) string {
	r := strings.NewReplacer(
		"{symbol}", url.QueryEscape(symbol),
		"{interval}", url.QueryEscape(interval),
	)
	return r.Replace(c.urlTemplate)
}

func (c *Capturer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", c.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(c.width, c.height),
	)
	if c.profileDir != "" {
		opts = append(opts, chromedp.UserDataDir(c.profileDir))
	}
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}
	return opts
}

func (c *Capturer) Capture(ctx context.Context, symbol string, tf types.Timeframe) (types.Capture, error) {
	fail := func(err error) (types.Capture, error) {
		return types.Capture{}, &types.CaptureError{Symbol: symbol, Timeframe: tf, Err: err}
	}

	chartURL := c.ChartURL(symbol, tf.Code)
	logger.Debug(ctx, "Opening chart", "symbol", symbol, "timeframe", tf.Code, "url", chartURL)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// The first Run starts the browser; it must not carry a step timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		return fail(fmt.Errorf("start browser: %w", err))
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, c.navTimeout)
	err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(int64(c.width), int64(c.height)),
		chromedp.Navigate(chartURL),
	)
	cancelNav()
	if err != nil {
		return fail(fmt.Errorf("navigate: %w", err))
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, c.selTimeout)
	err = chromedp.Run(waitCtx, chromedp.WaitVisible(c.selector, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		return fail(fmt.Errorf("wait for %q: %w", c.selector, err))
	}

	var buf []byte
	shotCtx, cancelShot := context.WithTimeout(browserCtx, c.settle+c.selTimeout)
	err = chromedp.Run(shotCtx,
		chromedp.Sleep(c.settle),
		chromedp.Screenshot(c.selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	cancelShot()
	if err != nil {
		return fail(fmt.Errorf("screenshot: %w", err))
	}
	if err := checkPNG(buf); err != nil {
		return fail(err)
	}

	return types.Capture{Timeframe: tf, PNG: buf, TakenAt: c.now()}, nil
}

func checkPNG(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty screenshot")
	}
	if !bytes.HasPrefix(b, pngSignature) {
		return errors.New("screenshot is not a PNG image")
	}
	return nil
}
