package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	"github.com/zatekoja/amalaspotdiscovery/pkg/config"
	"github.com/zatekoja/amalaspotdiscovery/pkg/utils"
)

const (
	defaultListingSelector = ".restaurant, .listing, .business-card, .place, article"
	maxNameFallbackLength  = 100
	minLineLength          = 10
	maxLineLength          = 500
)

var (
	namePattern          = regexp.MustCompile(`^([^-,|]{3,})[-,|]`)
	nigerianPhonePattern = regexp.MustCompile(`(?:\+?234|0)[\s\-]?\d{2,3}[\s\-]?\d{3}[\s\-]?\d{3,4}`)
)

// WebScrapingService discovers candidates by scraping configured websites
type WebScrapingService struct {
	fetcher providers.PageFetcher
	cfg     config.WebScrapingConfig
	vocab   *Vocabulary
	clock   providers.Clock
}

// NewWebScrapingService creates a new web scraping service
func NewWebScrapingService(fetcher providers.PageFetcher, cfg config.WebScrapingConfig, vocab *Vocabulary, clock providers.Clock) *WebScrapingService {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &WebScrapingService{
		fetcher: fetcher,
		cfg:     cfg,
		vocab:   vocab,
		clock:   clock,
	}
}

// ExtractCandidates scrapes every enabled target and returns the candidates
// that pass the content gate. Individual page failures are logged and
// skipped; the error return is reserved for cancellation.
func (s *WebScrapingService) ExtractCandidates(ctx context.Context) ([]*entities.SpotCandidate, error) {
	if !s.cfg.Enabled {
		return []*entities.SpotCandidate{}, nil
	}

	logger := observability.LoggerFromContext(ctx)
	candidates := []*entities.SpotCandidate{}

	for _, target := range s.cfg.Targets {
		if !target.Enabled {
			continue
		}

		pages := target.SearchURLs
		if s.cfg.MaxPagesPerSite > 0 && len(pages) > s.cfg.MaxPagesPerSite {
			pages = pages[:s.cfg.MaxPagesPerSite]
		}

		for i, pageURL := range pages {
			if i > 0 {
				if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
					return candidates, err
				}
			}

			html, err := s.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				logger.Warn().Err(err).Str("target", target.Name).Str("url", pageURL).Msg("page fetch failed")
				continue
			}

			extracted, err := s.extractFromPage(html, target, pageURL)
			if err != nil {
				logger.Warn().Err(err).Str("target", target.Name).Str("url", pageURL).Msg("page extraction failed")
				continue
			}

			logger.Debug().Str("target", target.Name).Str("url", pageURL).Int("candidates", len(extracted)).Msg("page scraped")
			candidates = append(candidates, extracted...)
		}

		if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
			return candidates, err
		}
	}

	return candidates, nil
}

// extractFromPage tries structured DOM extraction first and falls back to
// line-pattern heuristics only when the DOM yields nothing.
func (s *WebScrapingService) extractFromPage(html string, target config.ScrapeTarget, pageURL string) ([]*entities.SpotCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	candidates := s.extractStructured(doc, target, pageURL)
	if len(candidates) == 0 {
		candidates = s.extractFromText(doc.Text(), pageURL)
	}

	passed := candidates[:0]
	for _, candidate := range candidates {
		if s.passesContentGate(candidate) {
			passed = append(passed, candidate)
		}
	}

	return passed, nil
}

func (s *WebScrapingService) extractStructured(doc *goquery.Document, target config.ScrapeTarget, pageURL string) []*entities.SpotCandidate {
	listingSelector := target.Selectors["listing"]
	if listingSelector == "" {
		listingSelector = defaultListingSelector
	}

	candidates := []*entities.SpotCandidate{}
	doc.Find(listingSelector).Each(func(_ int, node *goquery.Selection) {
		name := selectField(node, target.Selectors["name"], "h1, h2, h3, .name, .title")
		if name == "" {
			// No name selector hit; use the element's own text when it is
			// short enough to plausibly be a name.
			own := utils.NormalizeText(node.Text())
			if len(own) > 0 && len(own) <= maxNameFallbackLength {
				name = own
			}
		}
		if name == "" {
			return
		}

		candidate := s.newCandidate(pageURL)
		candidate.Name = name
		candidate.Description = selectField(node, target.Selectors["description"], "p, .description, .summary")
		candidate.Address = selectField(node, target.Selectors["address"], ".address, .location, address")
		candidate.PhoneNumber = utils.NormalizePhone(selectField(node, target.Selectors["phone"], ".phone, .tel, a[href^='tel:']"))
		candidates = append(candidates, candidate)
	})

	return candidates
}

// extractFromText is the fallback strategy for pages without a usable DOM
// structure: keep keyword-bearing lines of plausible length and pull fields
// out with regular expressions.
func (s *WebScrapingService) extractFromText(text, pageURL string) []*entities.SpotCandidate {
	cityPattern := s.vocab.CityPattern()

	candidates := []*entities.SpotCandidate{}
	for _, line := range strings.Split(text, "\n") {
		line = utils.NormalizeText(line)
		if len(line) < minLineLength || len(line) > maxLineLength {
			continue
		}
		if !s.vocab.HasAnyKeyword(line) {
			continue
		}

		candidate := s.newCandidate(pageURL)
		candidate.Description = line

		if m := namePattern.FindStringSubmatch(line); m != nil {
			candidate.Name = strings.TrimSpace(m[1])
		} else {
			candidate.Name = line
		}
		if m := cityPattern.FindString(line); m != "" {
			candidate.Address = strings.TrimSpace(m)
		}
		if m := nigerianPhonePattern.FindString(line); m != "" {
			candidate.PhoneNumber = utils.NormalizePhone(m)
		}

		candidates = append(candidates, candidate)
	}

	return candidates
}

// passesContentGate is the cheap pre-filter applied to every scraped
// candidate; failures are dropped, not flagged.
func (s *WebScrapingService) passesContentGate(candidate *entities.SpotCandidate) bool {
	combined := candidate.Name + " " + candidate.Description
	if !s.vocab.HasAnyKeyword(combined) {
		return false
	}
	if len(candidate.Name) < 3 || len(candidate.Name) > 200 {
		return false
	}
	if utils.IsSpam(candidate.Name) || utils.IsSpam(candidate.Description) {
		return false
	}
	return true
}

func (s *WebScrapingService) newCandidate(pageURL string) *entities.SpotCandidate {
	return &entities.SpotCandidate{
		ID:           uuid.NewString(),
		Source:       entities.SourceWebScraping,
		SourceURL:    pageURL,
		Status:       entities.StatusDiscovered,
		DiscoveredAt: s.clock.Now(),
	}
}

func selectField(node *goquery.Selection, configured, fallback string) string {
	for _, selector := range []string{configured, fallback} {
		if selector == "" {
			continue
		}
		found := node.Find(selector).First()
		if found.Length() == 0 {
			continue
		}
		if text := utils.NormalizeText(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
