package scraper

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"wishshare/config"
	"wishshare/models"
)

// Extraction strategies reported in the audit log
const (
	StrategyCache         = "cache"
	StrategyBrowser       = "browser"
	StrategyStatic        = "static"
	StrategyStaticBrowser = "static+browser"
	StrategyNone          = "none"
)

// PageFetcher performs the static HTTP tier
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*FetchResult, error)
}

// PageRenderer performs the headless browser tier
type PageRenderer interface {
	Render(ctx context.Context, targetURL string) (*models.ProductRecord, error)
}

// ResultCache stores finished records by URL. Implementations swallow their
// own backend failures.
type ResultCache interface {
	Get(ctx context.Context, targetURL string) (*models.ProductRecord, bool)
	Set(ctx context.Context, targetURL string, record *models.ProductRecord, ttl time.Duration) bool
}

// ParseRecorder receives one event per finished extraction
type ParseRecorder interface {
	RecordParse(ctx context.Context, event *models.ParseEvent) error
}

// ProductScraper decides which tiers run for a URL and merges their output
type ProductScraper struct {
	cfg       *config.ParserConfig
	extractor *PageExtractor
	fetcher   PageFetcher
	renderer  PageRenderer
	cache     ResultCache
	recorder  ParseRecorder
}

// NewProductScraper wires the static and browser tiers from cfg. cache and
// recorder are optional.
func NewProductScraper(cfg *config.ParserConfig, cache ResultCache, recorder ParseRecorder) *ProductScraper {
	extractor := NewPageExtractor(DefaultSiteProfiles(), cfg.BrowserFallbackDomains)
	return &ProductScraper{
		cfg:       cfg,
		extractor: extractor,
		fetcher:   NewStaticFetcher(cfg.StaticFetchTimeout),
		renderer:  NewBrowserRenderer(cfg, extractor),
		cache:     cache,
		recorder:  recorder,
	}
}

// ExtractProduct never fails: guard rejections and invalid input come back as
// an empty record.
func (s *ProductScraper) ExtractProduct(ctx context.Context, rawURL string) *models.ProductRecord {
	record, err := s.Extract(ctx, rawURL)
	if err != nil {
		log.Printf("⚠️ Extraction refused for %q: %v", rawURL, err)
		return &models.ProductRecord{}
	}
	return record
}

// Extract runs the extraction pipeline. The only errors returned are
// ErrInvalidURL and domain guard rejections; every network, parse or render
// failure degrades to a partial or empty record.
func (s *ProductScraper) Extract(ctx context.Context, rawURL string) (*models.ProductRecord, error) {
	start := time.Now()

	target, err := s.CheckURL(rawURL)
	if err != nil {
		return &models.ProductRecord{}, err
	}

	if s.cfg.CacheEnabled && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, target); ok {
			log.Printf("✅ Cache hit for %s", target)
			s.record(ctx, target, StrategyCache, cached, start)
			return cached, nil
		}
	}

	record, strategy := s.run(ctx, target)

	if record.HasCoreFields() && s.cfg.CacheEnabled && s.cache != nil {
		if ctx.Err() != nil {
			log.Printf("⚠️ Skipping cache write for %s: %v", target, ctx.Err())
		} else {
			s.cache.Set(ctx, target, record, s.cfg.CacheTTL)
		}
	}

	s.record(ctx, target, strategy, record, start)
	log.Printf("🔍 Extracted %s via %s in %v (title=%t price=%t image=%t)",
		target, strategy, time.Since(start), record.Title != nil, record.Price != nil, record.ImageURL != nil)
	return record, nil
}

// CheckURL normalizes rawURL and applies the domain guard
func (s *ProductScraper) CheckURL(rawURL string) (string, error) {
	target := NormalizeURL(rawURL)
	if target == "" {
		return "", ErrInvalidURL
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Hostname() == "" {
		return "", ErrInvalidURL
	}

	host := HostOf(target)
	if s.cfg.AllowedDomains != nil && !HostMatches(host, s.cfg.AllowedDomains) {
		return "", &DomainNotAllowedError{Host: host}
	}
	return target, nil
}

// run executes the tiers; the browser is launched at most once
func (s *ProductScraper) run(ctx context.Context, target string) (*models.ProductRecord, string) {
	browserUsed := false

	if s.browserTarget(target) {
		browserUsed = true
		if rendered := s.render(ctx, target); rendered.HasCoreFields() {
			return rendered, StrategyBrowser
		}
		log.Printf("🔄 Browser-first render of %s produced nothing, trying static fetch", target)
	}

	page, err := s.fetcher.Fetch(ctx, target)
	switch {
	case err == nil:
	case IsKind(err, KindBlocked):
		log.Printf("⚠️ Static fetch of %s blocked: %v", target, err)
		blockedURL := target
		if page != nil && page.FinalURL != "" {
			blockedURL = page.FinalURL
		}
		if !browserUsed && s.browserTarget(blockedURL) {
			browserUsed = true
			if rendered := s.render(ctx, blockedURL); rendered.HasCoreFields() {
				return rendered, StrategyBrowser
			}
		}
		if page == nil {
			return &models.ProductRecord{}, StrategyNone
		}
	case IsKind(err, KindHTTPStatus):
		log.Printf("❌ Static fetch of %s failed: %v", target, err)
		return &models.ProductRecord{}, StrategyNone
	default:
		// browser targets were already rendered above
		log.Printf("❌ Static fetch of %s failed: %v", target, err)
		return &models.ProductRecord{}, StrategyNone
	}

	static, err := s.extractor.ExtractStatic(page)
	if err != nil {
		log.Printf("❌ Static extraction of %s failed: %v", page.FinalURL, err)
		static = &models.ProductRecord{}
	}

	if static.NeedsBrowser() && !browserUsed && s.browserTarget(page.FinalURL) {
		log.Printf("🔄 Static result for %s is incomplete, escalating to browser", page.FinalURL)
		if rendered := s.render(ctx, page.FinalURL); rendered.HasCoreFields() {
			merged := rendered.Clone()
			merged.Fill(static)
			return merged, StrategyStaticBrowser
		}
	}

	if static.IsEmpty() {
		return static, StrategyNone
	}
	return static, StrategyStatic
}

// browserTarget reports whether the browser tier may run for u's host
func (s *ProductScraper) browserTarget(u string) bool {
	return s.cfg.BrowserFallbackEnabled && s.renderer != nil &&
		HostMatches(HostOf(u), s.cfg.BrowserFallbackDomains)
}

func (s *ProductScraper) render(ctx context.Context, target string) *models.ProductRecord {
	if s.renderer == nil {
		return nil
	}
	record, err := s.renderer.Render(ctx, target)
	if err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) && extractionErr.Kind == KindEmpty {
			log.Printf("⚠️ Browser found no product data on %s", target)
		} else {
			log.Printf("❌ Browser render of %s failed: %v", target, err)
		}
		return nil
	}
	return record
}

func (s *ProductScraper) record(ctx context.Context, target, strategy string, record *models.ProductRecord, start time.Time) {
	if s.recorder == nil {
		return
	}
	event := &models.ParseEvent{
		URL:        target,
		Host:       HostOf(target),
		Strategy:   strategy,
		Success:    record.HasCoreFields(),
		HasTitle:   record.Title != nil,
		HasPrice:   record.Price != nil,
		HasImage:   record.ImageURL != nil,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err := s.recorder.RecordParse(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("⚠️ Failed to record parse event for %s: %v", target, err)
	}
}
