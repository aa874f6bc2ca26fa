package scraper

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"wishshare/models"

	"github.com/PuerkitoBio/goquery"
)

// maxLDDepth bounds nesting accepted from a single JSON-LD script
const maxLDDepth = 64

var (
	errLDTooDeep       = errors.New("json-ld nesting too deep")
	nonLetterRe        = regexp.MustCompile(`[^A-Za-z]`)
	productShapeFields = []string{"offers", "brand", "image", "sku", "mpn", "gtin", "aggregateRating"}
	offerPriceFields   = []string{"price", "lowPrice", "highPrice", "priceSpecification", "value"}
	currencyFields     = []string{"priceCurrency", "pricecurrency", "currency"}
	availabilityFields = []string{"availability", "inStock", "availabilityStatus"}
	imageObjectFields  = []string{"url", "contentUrl", "name", "text"}
)

type ldKind int

const (
	ldNull ldKind = iota
	ldBool
	ldNumber
	ldString
	ldArray
	ldObject
)

// ldNode is one value of a parsed JSON-LD document. Object keys keep their
// document order so "first found" means the same thing it does on the page.
type ldNode struct {
	kind  ldKind
	str   string // string value, or the literal text of a number
	b     bool
	items []*ldNode
	keys  []string
	props map[string]*ldNode
}

// get returns the named property of an object node, or nil
func (n *ldNode) get(key string) *ldNode {
	if n == nil || n.kind != ldObject {
		return nil
	}
	return n.props[key]
}

// truthy mirrors what a page author means by "the field is there"
func (n *ldNode) truthy() bool {
	if n == nil {
		return false
	}
	switch n.kind {
	case ldBool:
		return n.b
	case ldNumber:
		return strings.Trim(n.str, "0.-+eE") != ""
	case ldString:
		return n.str != ""
	case ldArray:
		return len(n.items) > 0
	case ldObject:
		return len(n.props) > 0
	}
	return false
}

// scalarText returns the text of a string or number node
func (n *ldNode) scalarText() (string, bool) {
	if n == nil {
		return "", false
	}
	if n.kind == ldString || n.kind == ldNumber {
		return n.str, true
	}
	return "", false
}

// priceValue reads a price from a number or string node. Numbers are taken
// as JSON numbers, strings go through ParsePrice.
func (n *ldNode) priceValue() *float64 {
	if n == nil {
		return nil
	}
	switch n.kind {
	case ldNumber:
		value, err := strconv.ParseFloat(n.str, 64)
		if err != nil || value <= 0 {
			return nil
		}
		return &value
	case ldString:
		return ParsePrice(n.str)
	}
	return nil
}

// children returns nested values in document order
func (n *ldNode) children() []*ldNode {
	switch n.kind {
	case ldArray:
		return n.items
	case ldObject:
		out := make([]*ldNode, 0, len(n.keys))
		for _, k := range n.keys {
			out = append(out, n.props[k])
		}
		return out
	}
	return nil
}

// parseLD decodes one JSON document into an ldNode tree
func parseLD(r io.Reader) (*ldNode, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return decodeLD(dec, 0)
}

func decodeLD(dec *json.Decoder, depth int) (*ldNode, error) {
	if depth > maxLDDepth {
		return nil, errLDTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node := &ldNode{kind: ldObject, props: make(map[string]*ldNode)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				child, err := decodeLD(dec, depth+1)
				if err != nil {
					return nil, err
				}
				if _, seen := node.props[key]; !seen {
					node.keys = append(node.keys, key)
				}
				node.props[key] = child
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &ldNode{kind: ldArray}
			for dec.More() {
				child, err := decodeLD(dec, depth+1)
				if err != nil {
					return nil, err
				}
				node.items = append(node.items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		}
	case string:
		return &ldNode{kind: ldString, str: v}, nil
	case json.Number:
		return &ldNode{kind: ldNumber, str: v.String()}, nil
	case bool:
		return &ldNode{kind: ldBool, b: v}, nil
	case nil:
		return &ldNode{kind: ldNull}, nil
	}
	return nil, errors.New("unexpected json token")
}

// StructuredData is the best product candidate found in a page's JSON-LD
type StructuredData struct {
	Title        *string
	Price        *float64
	Currency     *string
	ImageURL     *string
	Description  *string
	Brand        *string
	Availability *string
	Score        int
}

// Record converts the candidate into a ProductRecord
func (sd *StructuredData) Record() *models.ProductRecord {
	if sd == nil {
		return &models.ProductRecord{}
	}
	return &models.ProductRecord{
		Title:        sd.Title,
		Price:        sd.Price,
		Currency:     sd.Currency,
		ImageURL:     sd.ImageURL,
		Description:  sd.Description,
		Brand:        sd.Brand,
		Availability: sd.Availability,
	}
}

// StructuredDataExtractor finds schema.org Product data in JSON-LD scripts
type StructuredDataExtractor struct{}

// NewStructuredDataExtractor creates a new JSON-LD extractor
func NewStructuredDataExtractor() *StructuredDataExtractor {
	return &StructuredDataExtractor{}
}

// Extract returns the highest scoring product candidate of the document,
// or an empty StructuredData when there is none. Broken scripts are skipped.
func (e *StructuredDataExtractor) Extract(doc *goquery.Document) *StructuredData {
	var payloads []*ldNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		node, err := parseLD(strings.NewReader(raw))
		if err != nil {
			return
		}
		payloads = append(payloads, node)
	})
	return e.extractFromPayloads(payloads)
}

// ExtractFromHTML parses raw HTML and extracts structured data from it
func (e *StructuredDataExtractor) ExtractFromHTML(html string) *StructuredData {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &StructuredData{}
	}
	return e.Extract(doc)
}

// extractFromPayloads scores every product-like node across all payloads
func (e *StructuredDataExtractor) extractFromPayloads(payloads []*ldNode) *StructuredData {
	best := &StructuredData{}
	bestScore := -1

	for _, payload := range payloads {
		for _, candidate := range productCandidates(payload) {
			sd := extractCandidate(candidate)
			if sd.Score > bestScore {
				best = sd
				bestScore = sd.Score
			}
		}
	}
	return best
}

// productCandidates walks the tree depth-first in document order and returns
// every product-like object node.
func productCandidates(root *ldNode) []*ldNode {
	var candidates []*ldNode
	visited := make(map[*ldNode]struct{})
	stack := []*ldNode{root}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}

		children := node.children()
		if node.kind == ldObject {
			if isProductLike(node) {
				candidates = append(candidates, node)
			} else if hasType(node, "itemlist") {
				// list items first so they are found before unrelated siblings
				if list := node.get("itemListElement"); list != nil {
					children = append(append([]*ldNode{}, list.children()...), children...)
				}
			}
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return candidates
}

func isProductLike(node *ldNode) bool {
	if isProductType(node) {
		return true
	}
	if !node.get("name").truthy() {
		return false
	}
	for _, field := range productShapeFields {
		if node.get(field).truthy() {
			return true
		}
	}
	return false
}

func isProductType(node *ldNode) bool {
	return hasType(node, "product")
}

// hasType reports whether @type contains substr, case-insensitively
func hasType(node *ldNode, substr string) bool {
	t := node.get("@type")
	if t == nil {
		return false
	}
	var types []string
	switch t.kind {
	case ldString:
		types = []string{t.str}
	case ldArray:
		for _, item := range t.items {
			if item.kind == ldString {
				types = append(types, item.str)
			}
		}
	}
	for _, typ := range types {
		if strings.Contains(strings.ToLower(typ), substr) {
			return true
		}
	}
	return false
}

func extractCandidate(node *ldNode) *StructuredData {
	sd := &StructuredData{
		Title:       ldCleanText(node.get("name")),
		Description: ldCleanText(node.get("description")),
	}

	brandNode := node.get("brand")
	if !brandNode.truthy() {
		brandNode = node.get("manufacturer")
	}
	sd.Brand = ldBrand(brandNode, make(map[*ldNode]struct{}))

	imageNode := node.get("image")
	if !imageNode.truthy() {
		imageNode = node.get("thumbnailUrl")
	}
	sd.ImageURL = ldFirstString(imageNode, make(map[*ldNode]struct{}))

	offersNode := node.get("offers")
	if !offersNode.truthy() {
		offersNode = node.get("aggregateOffer")
	}
	if !offersNode.truthy() {
		offersNode = node
	}
	offer := &StructuredData{}
	ldScanOffers(offersNode, offer, make(map[*ldNode]struct{}))
	sd.Price, sd.Currency, sd.Availability = offer.Price, offer.Currency, offer.Availability

	sd.Score = scoreCandidate(sd, isProductType(node))
	return sd
}

func scoreCandidate(sd *StructuredData, explicitType bool) int {
	score := 0
	if sd.Title != nil {
		score += 4
	}
	if sd.Price != nil {
		score += 4
	}
	if sd.ImageURL != nil {
		score += 2
	}
	if sd.Description != nil {
		score++
	}
	if sd.Brand != nil {
		score++
	}
	if sd.Currency != nil {
		score++
	}
	if sd.Availability != nil {
		score++
	}
	if explicitType {
		score += 2
	}
	return score
}

// ldScanOffers fills the first price, currency and availability found
// anywhere under node.
func ldScanOffers(node *ldNode, out *StructuredData, visited map[*ldNode]struct{}) {
	if node == nil {
		return
	}
	if _, seen := visited[node]; seen {
		return
	}
	visited[node] = struct{}{}

	if node.kind == ldObject {
		if out.Price == nil {
			for _, field := range offerPriceFields {
				value := node.get(field)
				if value == nil {
					continue
				}
				if value.kind == ldObject {
					value = firstNonNil(value.get("price"), value.get("value"))
				}
				if price := value.priceValue(); price != nil {
					out.Price = price
					break
				}
			}
		}
		if out.Currency == nil {
			for _, field := range currencyFields {
				if text, ok := node.get(field).scalarText(); ok {
					if currency := NormalizeCurrency(text); currency != nil {
						out.Currency = currency
						break
					}
				}
			}
		}
		if out.Availability == nil {
			for _, field := range availabilityFields {
				if text, ok := node.get(field).scalarText(); ok {
					if availability := NormalizeAvailability(text); availability != nil {
						out.Availability = availability
						break
					}
				}
			}
		}
	}

	if out.Price != nil && out.Currency != nil && out.Availability != nil {
		return
	}
	for _, child := range node.children() {
		ldScanOffers(child, out, visited)
	}
}

// ldFirstString finds the first usable string by depth-first search,
// accepting plain strings, arrays and ImageObject-like objects.
func ldFirstString(node *ldNode, visited map[*ldNode]struct{}) *string {
	if node == nil {
		return nil
	}
	if _, seen := visited[node]; seen {
		return nil
	}
	visited[node] = struct{}{}

	switch node.kind {
	case ldString:
		return ldCleanText(node)
	case ldArray:
		for _, item := range node.items {
			if s := ldFirstString(item, visited); s != nil {
				return s
			}
		}
	case ldObject:
		for _, field := range imageObjectFields {
			if s := ldFirstString(node.get(field), visited); s != nil {
				return s
			}
		}
	}
	return nil
}

func ldBrand(node *ldNode, visited map[*ldNode]struct{}) *string {
	if node == nil {
		return nil
	}
	if _, seen := visited[node]; seen {
		return nil
	}
	visited[node] = struct{}{}

	switch node.kind {
	case ldString:
		return ldCleanText(node)
	case ldObject:
		if s := ldCleanText(node.get("name")); s != nil {
			return s
		}
		return ldCleanText(node.get("brand"))
	case ldArray:
		for _, item := range node.items {
			if s := ldBrand(item, visited); s != nil {
				return s
			}
		}
	}
	return nil
}

func ldCleanText(node *ldNode) *string {
	if node == nil || node.kind != ldString {
		return nil
	}
	return cleanText(node.str)
}

func firstNonNil(nodes ...*ldNode) *ldNode {
	for _, n := range nodes {
		if n != nil {
			return n
		}
	}
	return nil
}

// cleanText collapses whitespace and returns nil for empty strings
func cleanText(s string) *string {
	s = normalizeSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeCurrency returns an uppercase 3-letter code or nil
func NormalizeCurrency(value string) *string {
	code := strings.ToUpper(nonLetterRe.ReplaceAllString(value, ""))
	if len(code) != 3 {
		return nil
	}
	return &code
}

// NormalizeAvailability reduces a schema.org availability URL or token to
// its bare name, e.g. https://schema.org/InStock -> InStock.
func NormalizeAvailability(value string) *string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if i := strings.LastIndex(value, "/"); i >= 0 {
		value = value[i+1:]
	}
	if i := strings.LastIndex(value, "#"); i >= 0 {
		value = value[i+1:]
	}
	value = nonLetterRe.ReplaceAllString(value, "")
	if value == "" {
		return nil
	}
	return &value
}
