package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotDetectorRejectsTitles(t *testing.T) {
	bd := NewBotDetector()

	rejected := []string{
		"Just a moment...",
		"Доступ ограничен",
		"ДОСТУП ОГРАНИЧЕН",
		"Attention Required! | Cloudflare",
		"Подтвердите, что вы не робот",
		"Wildberries",
		"Ozon интернет-магазин",
		"Яндекс Маркет",
		"abc",
		"  a  b  ",
	}
	for _, title := range rejected {
		assert.True(t, bd.IsRejectedTitle(title), title)
		assert.Nil(t, bd.AcceptTitle(title), title)
	}
}

func TestBotDetectorAcceptsProductTitles(t *testing.T) {
	bd := NewBotDetector()

	for _, title := range []string{"Настольная лампа IKEA", "Ozonator 3000", "Wildberries-style dress"} {
		assert.False(t, bd.IsRejectedTitle(title), title)
	}

	got := bd.AcceptTitle("  Настольная   лампа\nIKEA ")
	require.NotNil(t, got)
	assert.Equal(t, "Настольная лампа IKEA", *got)
}

func TestBotDetectorMetaTitlesSkipLengthRule(t *testing.T) {
	bd := NewBotDetector()

	assert.True(t, bd.IsRejectedTitle("Lamp"))

	got := bd.AcceptMetaTitle(" Lamp ")
	require.NotNil(t, got)
	assert.Equal(t, "Lamp", *got)

	assert.Nil(t, bd.AcceptMetaTitle("Just a moment..."))
	assert.Nil(t, bd.AcceptMetaTitle("OZON"))
	assert.Nil(t, bd.AcceptMetaTitle("   "))
}

func TestLooksLikeHomeOrBlockPage(t *testing.T) {
	bd := NewBotDetector()

	assert.True(t, bd.LooksLikeHomeOrBlockPage("https://ozon.ru"))
	assert.True(t, bd.LooksLikeHomeOrBlockPage("https://ozon.ru/"))
	assert.True(t, bd.LooksLikeHomeOrBlockPage("https://ozon.ru/showcaptcha?retpath=x"))
	assert.True(t, bd.LooksLikeHomeOrBlockPage("https://shop.test/cdn-cgi/challenge-platform/h/b"))
	assert.False(t, bd.LooksLikeHomeOrBlockPage("https://ozon.ru/product/lamp-123/"))
}

func TestIsBlockedStatus(t *testing.T) {
	bd := NewBotDetector()

	for _, code := range []int{401, 403, 429} {
		assert.True(t, bd.IsBlockedStatus(code))
	}
	for _, code := range []int{200, 404, 500} {
		assert.False(t, bd.IsBlockedStatus(code))
	}
}
