package scraper

import (
	"context"
	"errors"
	"log"
	"time"

	"wishshare/config"
	"wishshare/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	commitNavCap      = 20 * time.Second
	networkIdleWait   = 12 * time.Second
	settleDelay       = 1500 * time.Millisecond
	slowSiteDelay     = 6 * time.Second
	domQueryTimeout   = 15 * time.Second
	viewportWidth     = 1366
	viewportHeight    = 900
	browserTimezoneID = "Europe/Moscow"
	browserLocale     = "ru-RU"
)

// slowSites render their product card long after DOMContentLoaded
var slowSites = []string{"ozon.ru", "wildberries.ru", "wb.ru"}

const evasionScript = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
	Object.defineProperty(navigator, 'languages', { get: () => ['ru-RU', 'ru', 'en-US', 'en'] });
`

// BrowserRenderer renders pages in a fresh headless Chromium per call
type BrowserRenderer struct {
	bin        string
	navTimeout time.Duration
	extractor  *PageExtractor
}

// NewBrowserRenderer creates a renderer using cfg's browser settings
func NewBrowserRenderer(cfg *config.ParserConfig, extractor *PageExtractor) *BrowserRenderer {
	return &BrowserRenderer{
		bin:        cfg.BrowserBin,
		navTimeout: cfg.BrowserNavTimeout,
		extractor:  extractor,
	}
}

// Render navigates to targetURL and extracts a product from the rendered DOM.
// The browser process is torn down before Render returns on every path.
func (r *BrowserRenderer) Render(ctx context.Context, targetURL string) (*models.ProductRecord, error) {
	start := time.Now()
	renderErr := func(err error) error {
		return &ExtractionError{Kind: KindRender, Stage: "render", URL: targetURL, Err: err}
	}

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true).
		Leakless(false)
	if r.bin != "" {
		l = l.Bin(r.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, renderErr(err)
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, renderErr(err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Printf("⚠️ Failed to close browser for %s: %v", targetURL, err)
		}
	}()

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, renderErr(err)
	}
	defer incognito.Close()

	page, err := stealth.Page(incognito)
	if err != nil {
		return nil, renderErr(err)
	}
	defer page.Close()

	if err := preparePage(page); err != nil {
		return nil, renderErr(err)
	}

	log.Printf("🔍 Rendering %s", targetURL)
	if err := navigate(ctx, page, targetURL, r.navTimeout, true); err != nil {
		if ctx.Err() != nil {
			return nil, renderErr(ctx.Err())
		}
		log.Printf("🔄 DOMContentLoaded wait failed for %s (%v), retrying with commit wait", targetURL, err)
		if err := navigate(ctx, page, targetURL, min(r.navTimeout, commitNavCap), false); err != nil {
			return nil, renderErr(err)
		}
	}

	idle := page.Context(ctx).Timeout(networkIdleWait)
	idle.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	idle.CancelTimeout()

	delay := settleDelay
	if HostMatches(HostOf(targetURL), slowSites) {
		delay += slowSiteDelay
	}
	if err := sleepContext(ctx, delay); err != nil {
		return nil, renderErr(err)
	}

	live := page.Context(ctx).Timeout(domQueryTimeout)
	defer live.CancelTimeout()

	info, err := live.Info()
	if err != nil {
		return nil, renderErr(err)
	}
	html, err := live.HTML()
	if err != nil {
		return nil, renderErr(err)
	}

	record := r.extractor.ExtractRendered(&RenderedPage{
		URL:   info.URL,
		Title: info.Title,
		HTML:  html,
		DOM:   &rodQuerier{page: live},
	})
	if record == nil {
		log.Printf("⚠️ Render of %s produced no product data (%v)", targetURL, time.Since(start))
		return nil, &ExtractionError{Kind: KindEmpty, Stage: "render", URL: targetURL}
	}

	log.Printf("✅ Rendered %s in %v", targetURL, time.Since(start))
	return record, nil
}

// preparePage applies the desktop Russian-locale fingerprint
func preparePage(page *rod.Page) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      browserUserAgent,
		AcceptLanguage: browserHeaders["Accept-Language"],
		Platform:       "Win32",
	}); err != nil {
		return err
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return err
	}
	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: browserTimezoneID}).Call(page); err != nil {
		return err
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: browserLocale}).Call(page); err != nil {
		return err
	}
	if _, err := page.SetExtraHeaders([]string{
		"Accept-Language", browserHeaders["Accept-Language"],
		"sec-ch-ua", browserHeaders["sec-ch-ua"],
		"sec-ch-ua-mobile", browserHeaders["sec-ch-ua-mobile"],
		"sec-ch-ua-platform", browserHeaders["sec-ch-ua-platform"],
	}); err != nil {
		return err
	}
	_, err := page.EvalOnNewDocument(evasionScript)
	return err
}

// navigate loads targetURL. With waitDOM it also waits for DOMContentLoaded;
// without it, it returns as soon as the navigation is committed.
func navigate(ctx context.Context, page *rod.Page, targetURL string, timeout time.Duration, waitDOM bool) error {
	p := page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	var wait func()
	if waitDOM {
		wait = p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	}
	if err := p.Navigate(targetURL); err != nil {
		return err
	}
	if wait != nil {
		wait()
	}
	if err := p.GetContext().Err(); err != nil {
		return errors.New("timed out waiting for DOMContentLoaded")
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// rodQuerier answers selector queries against a live page
type rodQuerier struct {
	page *rod.Page
}

func (q *rodQuerier) Query(selector string) Element {
	has, el, err := q.page.Has(selector)
	if err != nil || !has {
		return nil
	}
	return &rodElement{el: el}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Attr(name string) (string, bool) {
	value, err := e.el.Attribute(name)
	if err != nil || value == nil {
		return "", false
	}
	return *value, true
}

func (e *rodElement) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return text
}
