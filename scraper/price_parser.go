package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceSymbolReplacer = strings.NewReplacer("₽", "", "$", "", "€", "", "\u00a0", " ")
	priceNoiseRe        = regexp.MustCompile(`[^\d,.\s]`)
	priceRunRe          = regexp.MustCompile(`\d[\d\s.,]*`)
	// a leading sign ("-5", "− 10 ₽") or a sign glued to the first number ("Цена: -500");
	// a dash after a label ("Цена - 500 ₽") is a separator
	negativePriceRe     = regexp.MustCompile(`^[^\p{L}\d]*[-−]\s*\d|^[^\d]*?(?:^|[^\p{L}\d])[-−]\d`)
)

// ParsePrice converts free-form price text in either Russian/European
// ("1 234,56 ₽") or US ("$1,234.56") notation into a positive number.
// It returns nil when no positive number can be read.
func ParsePrice(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	cleaned := priceSymbolReplacer.Replace(text)
	if negativePriceRe.MatchString(cleaned) {
		return nil
	}
	cleaned = priceNoiseRe.ReplaceAllString(cleaned, "")

	match := priceRunRe.FindString(cleaned)
	if match == "" {
		return nil
	}
	number := whitespaceRe.ReplaceAllString(match, "")

	value, err := strconv.ParseFloat(normalizeDecimalSeparator(number), 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

// normalizeDecimalSeparator rewrites thousands/decimal separators into a plain
// dot-decimal number string.
func normalizeDecimalSeparator(number string) string {
	commas := strings.Count(number, ",")
	dots := strings.Count(number, ".")

	switch {
	case commas > 1 && dots == 0:
		// 1,234,567
		return strings.ReplaceAll(number, ",", "")
	case dots > 1 && commas == 0:
		// 1.234.567
		return strings.ReplaceAll(number, ".", "")
	case commas > 0 && dots > 0:
		// rightmost separator is the decimal one
		if strings.LastIndex(number, ",") > strings.LastIndex(number, ".") {
			number = strings.ReplaceAll(number, ".", "")
			return strings.Replace(number, ",", ".", 1)
		}
		return strings.ReplaceAll(number, ",", "")
	default:
		return strings.Replace(number, ",", ".", 1)
	}
}
