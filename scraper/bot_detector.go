package scraper

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// BotDetector recognizes bot walls: challenge page titles, bare marketplace
// names used as titles, and status codes that mean "go away".
type BotDetector struct {
	challengePatterns []*regexp.Regexp
	genericTitles     []string
}

var challengePhrases = []string{
	"почти готово",
	"загрузка",
	"just a moment",
	"loading",
	"attention required",
	"access denied",
	"captcha",
	"robot check",
	"проверка, что вы человек",
	"cloudflare",
	"enable javascript",
	"доступ ограничен",
	"проверка безопасности",
	"подозрительная активность",
	"подтвердите, что вы не робот",
	"antibot challenge",
	"challenge page",
}

var genericMarketplaceTitles = []string{
	"wildberries",
	"ozon",
	"lamoda",
	"яндекс маркет",
	"яндекс.маркет",
	"market.yandex",
	"интернет-магазин",
	"маркетплейс",
}

var defaultBotDetector = NewBotDetector()

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	bd := &BotDetector{genericTitles: genericMarketplaceTitles}
	for _, phrase := range challengePhrases {
		bd.challengePatterns = append(bd.challengePatterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
	}
	return bd
}

// IsRejectedTitle reports whether a title candidate from a weak source
// (h1, <title>, CSS selector) is a challenge page, too short, or just the
// marketplace's own name.
func (bd *BotDetector) IsRejectedTitle(title string) bool {
	normalized := normalizeSpace(title)
	if utf8.RuneCountInString(normalized) <= 4 {
		return true
	}
	return bd.IsChallengeTitle(normalized)
}

// IsChallengeTitle is the check applied to explicit product metadata
// (og:title, twitter:title, JSON-LD name): short names pass, bot walls and
// bare marketplace names do not.
func (bd *BotDetector) IsChallengeTitle(title string) bool {
	normalized := normalizeSpace(title)
	if normalized == "" {
		return true
	}

	for _, pattern := range bd.challengePatterns {
		if pattern.MatchString(normalized) {
			return true
		}
	}

	lower := strings.ToLower(normalized)
	for _, generic := range bd.genericTitles {
		if lower == generic || strings.HasPrefix(lower, generic+" ") {
			return true
		}
	}
	return false
}

// AcceptTitle returns the whitespace-normalized weak-source title, or nil if rejected
func (bd *BotDetector) AcceptTitle(title string) *string {
	if bd.IsRejectedTitle(title) {
		return nil
	}
	normalized := normalizeSpace(title)
	return &normalized
}

// AcceptMetaTitle returns the whitespace-normalized metadata title, or nil if rejected
func (bd *BotDetector) AcceptMetaTitle(title string) *string {
	if bd.IsChallengeTitle(title) {
		return nil
	}
	normalized := normalizeSpace(title)
	return &normalized
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LooksLikeHomeOrBlockPage is true when a redirect landed on a site root or a
// captcha/challenge path instead of the product page.
func (bd *BotDetector) LooksLikeHomeOrBlockPage(finalURL string) bool {
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return true
	}
	return strings.Contains(path, "captcha") || strings.Contains(path, "challenge")
}

// IsBlockedStatus reports whether an HTTP status means the client was refused
func (bd *BotDetector) IsBlockedStatus(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}
