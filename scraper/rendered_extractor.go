package scraper

import (
	"wishshare/models"
)

// renderPriceSelectors are tried against a rendered DOM until one yields a
// parseable price.
var renderPriceSelectors = []string{
	`[data-auto="mainPrice"]`,
	`[data-auto="price"]`,
	`[itemprop='price']`,
	".ui-price__main",
	".price",
	".product-price",
	`[class*="price"]`,
	"[data-price]",
	".price-block__price",
	".product-card-price",
}

// RenderedPage is the state of a browser tab after navigation settled
type RenderedPage struct {
	URL   string
	Title string
	HTML  string
	DOM   DOMQuerier
}

// ExtractRendered reads a product from a rendered page. It returns nil when
// title, price and image are all missing.
func (e *PageExtractor) ExtractRendered(page *RenderedPage) *models.ProductRecord {
	q := page.DOM
	sd := e.jsonld.ExtractFromHTML(page.HTML)
	profile := e.profiles.ProfileFor(page.URL)
	fromProfile := profile.Extract(q, page.URL, e.detector)

	record := &models.ProductRecord{}

	record.Title = e.detector.AcceptMetaTitle(metaContent(q, `meta[property="og:title"]`))
	if record.Title == nil {
		record.Title = e.detector.AcceptMetaTitle(metaContent(q, `meta[name="twitter:title"]`))
	}
	if record.Title == nil {
		record.Title = e.detector.AcceptTitle(page.Title)
	}
	if record.Title == nil {
		record.Title = fromProfile.Title
	}
	if record.Title == nil && sd.Title != nil {
		record.Title = e.detector.AcceptMetaTitle(*sd.Title)
	}

	record.Price = ParsePrice(firstMetaContent(q,
		`meta[property="product:price:amount"]`,
		`meta[property="og:price:amount"]`,
		`meta[itemprop="price"]`,
	))
	if record.Price == nil {
		for _, selector := range renderPriceSelectors {
			if el := q.Query(selector); el != nil {
				if price := ParsePrice(elementValue(el)); price != nil {
					record.Price = price
					break
				}
			}
		}
	}

	if image := firstMetaContent(q, `meta[property="og:image"]`, `meta[name="twitter:image"]`); image != "" {
		resolved := resolveURL(page.URL, image)
		record.ImageURL = &resolved
	}

	record.Description = cleanText(firstMetaContent(q,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	))
	record.Currency = NormalizeCurrency(firstMetaContent(q,
		`meta[property="product:price:currency"]`,
		`meta[itemprop="priceCurrency"]`,
	))
	record.Availability = NormalizeAvailability(firstMetaContent(q,
		`meta[property="product:availability"]`,
		`meta[property="og:availability"]`,
	))

	record.Fill(fromProfile)

	structured := sd.Record()
	structured.Title = nil
	if structured.ImageURL != nil {
		resolved := resolveURL(page.URL, *structured.ImageURL)
		structured.ImageURL = &resolved
	}
	record.Fill(structured)

	if !record.HasCoreFields() {
		return nil
	}
	return record
}
