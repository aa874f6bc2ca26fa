package scraper

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"wishshare/models"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minReadableText is how much body text a page needs before a readability
// excerpt is trusted as a description.
const minReadableText = 200

var (
	genericTitleSelectors = []string{
		`[itemprop="name"]`,
		".product-title",
		".product-name",
		"h1.product-title",
		`[class*="product-title"]`,
		`[class*="product-name"]`,
	}
	genericImageSelectors = []string{
		`img[itemprop="image"]`,
		"img.product-image",
		`img[class*="product"]`,
		`img[class*="main"]`,
		".product-image img",
		".main-image img",
		`meta[property="og:image:secure_url"]`,
	}
	genericPriceSelectors = []string{
		"[data-price]",
		`[itemprop="price"]`,
		".price",
		".product-price",
		`[class*="price"]`,
		`[id*="price"]`,
	}
)

// PageExtractor turns fetched HTML into a ProductRecord. Per field, site
// profile selectors win over JSON-LD, and JSON-LD wins over generic meta
// tags and fallback selectors.
type PageExtractor struct {
	jsonld         *StructuredDataExtractor
	profiles       *SiteProfileRegistry
	detector       *BotDetector
	browserDomains []string
}

// NewPageExtractor creates an extractor; browserDomains are the hosts whose
// bare <title> is not trusted because a browser render will follow.
func NewPageExtractor(profiles *SiteProfileRegistry, browserDomains []string) *PageExtractor {
	return &PageExtractor{
		jsonld:         NewStructuredDataExtractor(),
		profiles:       profiles,
		detector:       defaultBotDetector,
		browserDomains: browserDomains,
	}
}

// ExtractStatic extracts a product from a statically fetched page
func (e *PageExtractor) ExtractStatic(page *FetchResult) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, &ExtractionError{Kind: KindParse, Stage: "static", URL: page.FinalURL, Err: err}
	}
	q := NewDocumentQuerier(doc)

	record := e.profiles.ProfileFor(page.FinalURL).Extract(q, page.FinalURL, e.detector)

	sd := e.jsonld.Extract(doc)
	structured := sd.Record()
	if structured.Title != nil {
		structured.Title = e.detector.AcceptMetaTitle(*structured.Title)
	}
	if structured.ImageURL != nil {
		resolved := resolveURL(page.FinalURL, *structured.ImageURL)
		structured.ImageURL = &resolved
	}
	record.Fill(structured)

	record.Fill(e.genericStatic(doc, q, page.FinalURL, sd))
	return record, nil
}

// genericStatic reads meta tags and fallback selectors
func (e *PageExtractor) genericStatic(doc *goquery.Document, q DOMQuerier, pageURL string, sd *StructuredData) *models.ProductRecord {
	record := &models.ProductRecord{}

	record.Title = e.detector.AcceptMetaTitle(firstMetaContent(q,
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
		`meta[name="title"]`,
		`meta[itemprop="name"]`,
	))
	if record.Title == nil {
		record.Title = e.fallbackTitle(doc, q, pageURL, sd)
	}

	if image := firstMetaContent(q,
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[itemprop="image"]`,
		`meta[name="image"]`,
	); image != "" {
		resolved := resolveURL(pageURL, image)
		record.ImageURL = &resolved
	} else {
		for _, selector := range genericImageSelectors {
			if el := q.Query(selector); el != nil {
				if src := elementImage(el); src != "" {
					resolved := resolveURL(pageURL, src)
					record.ImageURL = &resolved
					break
				}
			}
		}
	}

	record.Price = ParsePrice(firstMetaContent(q,
		`meta[property="product:price:amount"]`,
		`meta[property="product:price"]`,
		`meta[property="og:price:amount"]`,
		`meta[name="price"]`,
		`meta[itemprop="price"]`,
	))
	if record.Price == nil {
		for _, selector := range genericPriceSelectors {
			if el := q.Query(selector); el != nil {
				if price := ParsePrice(elementValue(el)); price != nil {
					record.Price = price
					break
				}
			}
		}
	}

	record.Description = cleanText(firstMetaContent(q,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	))
	if record.Description == nil {
		record.Description = readableExcerpt(doc, pageURL)
	}

	record.Currency = NormalizeCurrency(firstMetaContent(q,
		`meta[property="product:price:currency"]`,
		`meta[property="og:price:currency"]`,
		`meta[itemprop="priceCurrency"]`,
	))
	record.Availability = NormalizeAvailability(firstMetaContent(q,
		`meta[property="product:availability"]`,
		`meta[property="og:availability"]`,
		`meta[itemprop="availability"]`,
	))
	record.Brand = cleanText(firstMetaContent(q,
		`meta[property="product:brand"]`,
		`meta[property="og:brand"]`,
		`meta[itemprop="brand"]`,
	))

	return record
}

// fallbackTitle tries h1, <title> and generic selectors. h1 and <title> are
// only trusted on pages that look like product pages.
func (e *PageExtractor) fallbackTitle(doc *goquery.Document, q DOMQuerier, pageURL string, sd *StructuredData) *string {
	signals := hasProductSignals(q, sd)

	if signals {
		if h1 := doc.Find("h1").First(); h1.Length() > 0 {
			if title := e.detector.AcceptTitle(h1.Text()); title != nil {
				return title
			}
		}
	}

	trustDocumentTitle := signals ||
		(!e.detector.LooksLikeHomeOrBlockPage(pageURL) && !HostMatches(HostOf(pageURL), e.browserDomains))
	if trustDocumentTitle {
		if title := e.detector.AcceptTitle(doc.Find("title").First().Text()); title != nil {
			return title
		}
	}

	for _, selector := range genericTitleSelectors {
		if el := q.Query(selector); el != nil {
			if title := e.detector.AcceptTitle(elementValue(el)); title != nil {
				return title
			}
		}
	}
	return nil
}

// hasProductSignals reports whether the page declares itself a product page
func hasProductSignals(q DOMQuerier, sd *StructuredData) bool {
	if strings.Contains(strings.ToLower(metaContent(q, `meta[property="og:type"]`)), "product") {
		return true
	}
	if q.Query(`meta[property="product:price:amount"]`) != nil || q.Query(`meta[itemprop="price"]`) != nil {
		return true
	}
	return sd != nil && sd.Title != nil
}

// readableExcerpt returns a readability excerpt for text-heavy pages
func readableExcerpt(doc *goquery.Document, pageURL string) *string {
	body := normalizeSpace(doc.Find("body").Text())
	if utf8.RuneCountInString(body) < minReadableText {
		return nil
	}

	html, err := doc.Html()
	if err != nil {
		return nil
	}
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return nil
	}
	return cleanText(article.Excerpt)
}
