package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderedPage(t *testing.T, pageURL, title, html string) *RenderedPage {
	t.Helper()
	return &RenderedPage{
		URL:   pageURL,
		Title: title,
		HTML:  html,
		DOM:   NewDocumentQuerier(mustDoc(t, html)),
	}
}

func TestExtractRenderedOpenGraph(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Chair">
		<meta property="og:image" content="/img/chair.jpg">
	</head><body><span class="price">4 990 ₽</span></body></html>`

	extractor := NewPageExtractor(DefaultSiteProfiles(), nil)
	record := extractor.ExtractRendered(renderedPage(t, "https://shop.test/chair", "Chair | Shop", html))
	require.NotNil(t, record)

	got := viewOf(record)
	assert.Equal(t, "Chair", got.Title)
	assert.Equal(t, 4990.0, got.Price)
	assert.Equal(t, "https://shop.test/img/chair.jpg", got.ImageURL)
}

func TestExtractRenderedDocumentTitleAndPriceSelectors(t *testing.T) {
	html := `<html><head><title>Настольная лампа Xiaomi</title></head><body>
		<div data-auto="mainPrice"><span>2 499 ₽</span></div>
		<div class="price">999 ₽</div>
	</body></html>`

	extractor := NewPageExtractor(DefaultSiteProfiles(), nil)
	record := extractor.ExtractRendered(renderedPage(t, "https://market.yandex.ru/product--lamp/1", "Настольная лампа Xiaomi", html))
	require.NotNil(t, record)

	got := viewOf(record)
	assert.Equal(t, "Настольная лампа Xiaomi", got.Title)
	assert.Equal(t, 2499.0, got.Price)
}

func TestExtractRenderedChallengePageIsEmpty(t *testing.T) {
	html := `<html><head><title>Just a moment...</title></head><body><h1>Checking your browser</h1></body></html>`

	extractor := NewPageExtractor(DefaultSiteProfiles(), nil)
	record := extractor.ExtractRendered(renderedPage(t, "https://www.ozon.ru/product/1", "Just a moment...", html))

	assert.Nil(t, record)
}

func TestExtractRenderedStructuredDataFillsGaps(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Кресло офисное">
		<script type="application/ld+json">
			{"@type":"Product","name":"Другое имя","image":"/chair-ld.jpg","brand":{"name":"Бюрократ"},
			 "offers":{"@type":"Offer","price":"12990","priceCurrency":"RUB","availability":"https://schema.org/InStock"}}
		</script>
	</head><body></body></html>`

	extractor := NewPageExtractor(DefaultSiteProfiles(), nil)
	record := extractor.ExtractRendered(renderedPage(t, "https://shop.test/chair", "", html))
	require.NotNil(t, record)

	got := viewOf(record)
	assert.Equal(t, "Кресло офисное", got.Title, "meta title must not be replaced by structured name")
	assert.Equal(t, 12990.0, got.Price)
	assert.Equal(t, "RUB", got.Currency)
	assert.Equal(t, "InStock", got.Availability)
	assert.Equal(t, "Бюрократ", got.Brand)
	assert.Equal(t, "https://shop.test/chair-ld.jpg", got.ImageURL)
}
