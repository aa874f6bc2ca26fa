package scraper

import (
	_ "embed"
	"fmt"
	"log"
	"sync"

	"wishshare/models"

	"gopkg.in/yaml.v2"
)

// Field names used in site profile selector tables
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldImage        = "image"
	FieldDescription  = "description"
	FieldBrand        = "brand"
	FieldAvailability = "availability"
)

//go:embed site_profiles.yaml
var siteProfilesYAML []byte

// SiteProfile maps a marketplace's domains to per-field CSS selectors
type SiteProfile struct {
	Name      string              `yaml:"name"`
	Domains   []string            `yaml:"domains"`
	Selectors map[string][]string `yaml:"selectors"`
}

// SiteProfileRegistry is the read-only table of known marketplaces
type SiteProfileRegistry struct {
	profiles []SiteProfile
}

type siteProfileFile struct {
	Profiles []SiteProfile `yaml:"profiles"`
}

var (
	defaultRegistry     *SiteProfileRegistry
	defaultRegistryOnce sync.Once
)

// LoadSiteProfiles parses a YAML selector table
func LoadSiteProfiles(data []byte) (*SiteProfileRegistry, error) {
	var file siteProfileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse site profiles: %w", err)
	}
	for i, p := range file.Profiles {
		if len(p.Domains) == 0 {
			return nil, fmt.Errorf("site profile %d (%s) has no domains", i, p.Name)
		}
	}
	return &SiteProfileRegistry{profiles: file.Profiles}, nil
}

// DefaultSiteProfiles returns the registry built from the embedded table
func DefaultSiteProfiles() *SiteProfileRegistry {
	defaultRegistryOnce.Do(func() {
		registry, err := LoadSiteProfiles(siteProfilesYAML)
		if err != nil {
			log.Fatalf("❌ Embedded site profiles are invalid: %v", err)
		}
		defaultRegistry = registry
	})
	return defaultRegistry
}

// ProfileFor returns the profile whose domains match the URL's host, or nil
func (r *SiteProfileRegistry) ProfileFor(rawURL string) *SiteProfile {
	if r == nil {
		return nil
	}
	host := HostOf(rawURL)
	for i := range r.profiles {
		if HostMatches(host, r.profiles[i].Domains) {
			return &r.profiles[i]
		}
	}
	return nil
}

// Len returns the number of profiles
func (r *SiteProfileRegistry) Len() int {
	return len(r.profiles)
}

// Extract reads every field the profile has selectors for. Titles go through
// the bot detector; images are resolved against pageURL.
func (p *SiteProfile) Extract(q DOMQuerier, pageURL string, bd *BotDetector) *models.ProductRecord {
	record := &models.ProductRecord{}
	if p == nil {
		return record
	}

	record.Title = p.firstValue(q, FieldTitle, func(v string) bool { return !bd.IsRejectedTitle(v) })
	if record.Title != nil {
		record.Title = bd.AcceptTitle(*record.Title)
	}

	if text := p.firstValue(q, FieldPrice, func(v string) bool { return ParsePrice(v) != nil }); text != nil {
		record.Price = ParsePrice(*text)
	}

	for _, selector := range p.Selectors[FieldImage] {
		el := q.Query(selector)
		if el == nil {
			continue
		}
		if src := elementImage(el); src != "" {
			resolved := resolveURL(pageURL, src)
			record.ImageURL = &resolved
			break
		}
	}

	record.Description = p.firstValue(q, FieldDescription, nil)
	record.Brand = p.firstValue(q, FieldBrand, nil)
	record.Availability = p.firstValue(q, FieldAvailability, nil)
	return record
}

// firstValue returns the first non-empty element value that passes accept
func (p *SiteProfile) firstValue(q DOMQuerier, field string, accept func(string) bool) *string {
	for _, selector := range p.Selectors[field] {
		el := q.Query(selector)
		if el == nil {
			continue
		}
		value := elementValue(el)
		if value == "" {
			continue
		}
		if accept != nil && !accept(value) {
			continue
		}
		return &value
	}
	return nil
}
