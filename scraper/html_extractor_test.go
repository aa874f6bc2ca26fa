package scraper

import (
	"strings"
	"testing"

	"wishshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractStatic(t *testing.T, pageURL, html string) *ProductRecordView {
	t.Helper()
	extractor := NewPageExtractor(DefaultSiteProfiles(), []string{"ozon.ru", "wildberries.ru"})
	record, err := extractor.ExtractStatic(&FetchResult{StatusCode: 200, FinalURL: pageURL, HTML: html})
	require.NoError(t, err)
	return viewOf(record)
}

func TestExtractStaticOpenGraphOnly(t *testing.T) {
	got := extractStatic(t, "https://shop.test/lamp", `<html><head>
		<meta property="og:title" content="Lamp">
		<meta property="og:price:amount" content="1999">
	</head><body></body></html>`)

	assert.Equal(t, &ProductRecordView{Title: "Lamp", Price: 1999}, got)
}

func TestExtractStaticRejectsChallengeTitles(t *testing.T) {
	for _, title := range []string{"Just a moment...", "Доступ ограничен"} {
		t.Run(title, func(t *testing.T) {
			got := extractStatic(t, "https://shop.test/p/1",
				`<html><head><title>`+title+`</title></head><body></body></html>`)
			assert.Empty(t, got.Title)
		})
	}
}

func TestExtractStaticProfileBeatsJSONLDBeatsMeta(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Meta title wins nothing">
		<meta property="og:description" content="Meta description">
		<meta property="og:image" content="/meta.jpg">
		<script type="application/ld+json">
			{"@type":"Product","name":"Structured title","description":"Structured description",
			 "offers":{"price":"1500","priceCurrency":"RUB"}}
		</script>
	</head><body>
		<div class="brand-and-product__title">Selector title for dress</div>
	</body></html>`

	got := extractStatic(t, "https://www.wildberries.ru/catalog/1/detail.aspx", html)

	assert.Equal(t, "Selector title for dress", got.Title)
	assert.Equal(t, "Structured description", got.Description)
	assert.Equal(t, 1500.0, got.Price)
	assert.Equal(t, "RUB", got.Currency)
	assert.Equal(t, "https://www.wildberries.ru/meta.jpg", got.ImageURL)
}

func TestExtractStaticRejectedStructuredTitleFallsThrough(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Real kettle name">
		<script type="application/ld+json">{"@type":"Product","name":"Wildberries"}</script>
	</head></html>`

	got := extractStatic(t, "https://shop.test/kettle", html)

	assert.Equal(t, "Real kettle name", got.Title)
}

func TestExtractStaticHeadingNeedsProductSignals(t *testing.T) {
	withSignals := `<html><head><meta property="og:type" content="product"><title>Ozon</title></head>
		<body><h1>Кофемашина DeLonghi</h1></body></html>`
	got := extractStatic(t, "https://www.ozon.ru/product/coffee-1/", withSignals)
	assert.Equal(t, "Кофемашина DeLonghi", got.Title)

	withoutSignals := `<html><head><title>Кофемашина в каталоге</title></head>
		<body><h1>Кофемашина DeLonghi</h1></body></html>`
	got = extractStatic(t, "https://www.ozon.ru/product/coffee-1/", withoutSignals)
	assert.Empty(t, got.Title, "browser-target pages must not trust bare <title>")

	got = extractStatic(t, "https://shop.test/product/coffee-1/", withoutSignals)
	assert.Equal(t, "Кофемашина в каталоге", got.Title)
}

func TestExtractStaticFallbackSelectors(t *testing.T) {
	html := `<html><body>
		<div class="product-name">Электрический чайник</div>
		<img class="product-photo" data-src="//cdn.shop.test/kettle.jpg">
		<span class="old-price-label">нет</span>
		<span data-price="2 390,00"></span>
		<meta itemprop="priceCurrency" content="RUB">
		<meta property="product:availability" content="https://schema.org/InStock">
	</body></html>`

	got := extractStatic(t, "https://shop.test/kettle", html)

	assert.Equal(t, "Электрический чайник", got.Title)
	assert.Equal(t, "https://cdn.shop.test/kettle.jpg", got.ImageURL)
	assert.Equal(t, 2390.0, got.Price)
	assert.Equal(t, "RUB", got.Currency)
	assert.Equal(t, "InStock", got.Availability)
}

func TestExtractStaticReadableDescription(t *testing.T) {
	paragraph := "Этот чайник сделан из нержавеющей стали, быстро закипает и автоматически выключается, когда вода готова. "
	html := `<html><head><meta property="og:title" content="Чайник стальной"></head><body><article>` +
		"<p>" + strings.Repeat(paragraph, 3) + "</p>" +
		"<p>" + strings.Repeat(paragraph, 3) + "</p>" +
		"<p>" + strings.Repeat(paragraph, 3) + "</p>" +
		`</article></body></html>`

	got := extractStatic(t, "https://blog.test/review/kettle", html)

	assert.Equal(t, "Чайник стальной", got.Title)
	assert.NotEmpty(t, got.Description)
}

// ProductRecordView flattens a record for readable assertions
type ProductRecordView struct {
	Title, Currency, ImageURL, Description, Brand, Availability string
	Price                                                       float64
}

func viewOf(r *models.ProductRecord) *ProductRecordView {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	v := &ProductRecordView{
		Title:        deref(r.Title),
		Currency:     deref(r.Currency),
		ImageURL:     deref(r.ImageURL),
		Description:  deref(r.Description),
		Brand:        deref(r.Brand),
		Availability: deref(r.Availability),
	}
	if r.Price != nil {
		v.Price = *r.Price
	}
	return v
}
