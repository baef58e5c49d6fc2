// Package scraper collects problem listings from competitive-programming
// sites, validates them and hands the resulting corpus to the exporters.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
)

// Platform keys used in configuration.
const (
	KeyLeetCode   = "leetcode"
	KeyCodeforces = "codeforces"
	KeyHackerRank = "hackerrank"
	KeyCodeChef   = "codechef"
)

const defaultTopic = "General"

// DefaultBaseURLs are the production site roots.
var DefaultBaseURLs = map[string]string{
	KeyLeetCode:   "https://leetcode.com",
	KeyCodeforces: "https://codeforces.com",
	KeyHackerRank: "https://www.hackerrank.com",
	KeyCodeChef:   "https://www.codechef.com",
}

// Scraper collects up to limit problems for a topic from one site.
type Scraper interface {
	Platform() string
	Scrape(ctx context.Context, topic string, limit int) (problem.Corpus, error)
}

// parseFunc extracts records from a downloaded listing page.
type parseFunc func(doc *html.Node, base *url.URL, topic string, limit int) problem.Corpus

// siteScraper is a Scraper built from a listing URL and a page parser.
type siteScraper struct {
	key      string
	platform string
	base     *url.URL
	fetcher  *Fetcher
	listing  func(topic string) string
	parse    parseFunc
}

func (s *siteScraper) Platform() string { return s.platform }

func (s *siteScraper) Scrape(ctx context.Context, topic string, limit int) (problem.Corpus, error) {
	pageURL := resolve(s.base, s.listing(topic))
	body, err := s.fetcher.Fetch(ctx, s.key, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", apperrors.ErrUpstream, pageURL, err)
	}
	return s.parse(doc, s.base, topic, limit), nil
}

// New returns the scraper for platform key, fetching from baseURL (or the
// production root when empty).
func New(key, baseURL string, fetcher *Fetcher) (Scraper, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURLs[key]
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: bad base url %q for %s", apperrors.ErrInvalidInput, baseURL, key)
	}
	s := &siteScraper{key: key, base: base, fetcher: fetcher}
	switch key {
	case KeyLeetCode:
		s.platform, s.listing, s.parse = problem.PlatformLeetCode, leetCodeListing, parseLeetCode
	case KeyCodeforces:
		s.platform, s.listing, s.parse = problem.PlatformCodeforces, codeforcesListing, parseCodeforces
	case KeyHackerRank:
		s.platform, s.listing, s.parse = problem.PlatformHackerRank, hackerRankListing, parseHackerRank
	case KeyCodeChef:
		s.platform, s.listing, s.parse = problem.PlatformCodeChef, codeChefListing, parseCodeChef
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", apperrors.ErrInvalidInput, key)
	}
	return s, nil
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return defaultTopic
	}
	return topic
}

func leetCodeListing(topic string) string {
	if topic == "" {
		return "/problemset/all/"
	}
	return "/problemset/all/?topicSlugs=" + url.QueryEscape(strings.ToLower(topic))
}

// parseLeetCode reads role=row blocks: the first link is the problem, a
// text-difficulty span carries the difficulty and a span with a percent
// sign carries the acceptance rate.
func parseLeetCode(doc *html.Node, base *url.URL, topic string, limit int) problem.Corpus {
	out := make(problem.Corpus, 0, limit)
	rows := findAll(doc, func(n *html.Node) bool { return n.Data == "div" && attr(n, "role") == "row" })
	for _, row := range rows {
		if len(out) >= limit {
			break
		}
		link := findFirst(row, func(n *html.Node) bool { return n.Data == "a" && attr(n, "href") != "" })
		if link == nil {
			continue
		}
		difficulty := problem.UnknownDifficulty
		if span := findFirst(row, classContains("span", "text-difficulty")); span != nil {
			difficulty = text(span)
		}
		acceptance := "N/A"
		if span := findFirst(row, func(n *html.Node) bool {
			return n.Data == "span" && strings.Contains(text(n), "%")
		}); span != nil {
			acceptance = text(span)
		}
		out = append(out, problem.Record{
			Title:          text(link),
			URL:            resolve(base, attr(link, "href")),
			Platform:       problem.PlatformLeetCode,
			Difficulty:     difficulty,
			AcceptanceRate: acceptance,
			Topic:          topicOrDefault(topic),
		})
	}
	return out
}

func codeforcesListing(topic string) string {
	if topic == "" {
		return "/problemset"
	}
	return "/problemset?tags=" + url.QueryEscape(strings.ToLower(topic))
}

// parseCodeforces reads the problems table: the second cell links the
// problem, the last cell is the rating and the one before it the solved
// count.
func parseCodeforces(doc *html.Node, base *url.URL, topic string, limit int) problem.Corpus {
	out := make(problem.Corpus, 0, limit)
	table := findFirst(doc, classContains("table", "problems"))
	if table == nil {
		return out
	}
	rows := findAll(table, isTag("tr"))
	if len(rows) > 0 {
		rows = rows[1:]
	}
	for _, row := range rows {
		if len(out) >= limit {
			break
		}
		cells := children(row, "td")
		if len(cells) < 2 {
			continue
		}
		link := findFirst(cells[1], isTag("a"))
		if link == nil {
			continue
		}
		rating := "Unrated"
		if len(cells) > 2 {
			if v := text(cells[len(cells)-1]); v != "" {
				rating = v
			}
		}
		solved := "N/A"
		if len(cells) > 3 {
			solved = strings.TrimPrefix(text(cells[len(cells)-2]), "x")
		}
		out = append(out, problem.Record{
			Title:       text(link),
			URL:         resolve(base, attr(link, "href")),
			Platform:    problem.PlatformCodeforces,
			Difficulty:  rating,
			SolvedCount: solved,
			Topic:       topicOrDefault(topic),
		})
	}
	return out
}

func hackerRankListing(topic string) string {
	if topic == "" {
		topic = "algorithms"
	}
	return "/domains/" + url.PathEscape(strings.ToLower(topic))
}

// parseHackerRank collects distinct /challenges/ links with a usable title.
// The difficulty comes from a difficulty span next to the link when there
// is one.
func parseHackerRank(doc *html.Node, base *url.URL, topic string, limit int) problem.Corpus {
	if topic == "" {
		topic = "algorithms"
	}
	out := make(problem.Corpus, 0, limit)
	seen := make(map[string]struct{})
	for _, link := range findAll(doc, linkContaining("/challenges/")) {
		if len(out) >= limit {
			break
		}
		href := attr(link, "href")
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		title := text(link)
		if len([]rune(title)) <= 3 {
			continue
		}
		difficulty := "Medium"
		if parent := link.Parent; parent != nil {
			if span := findFirst(parent, classContains("span", "difficulty")); span != nil {
				difficulty = text(span)
			}
		}
		out = append(out, problem.Record{
			Title:      title,
			URL:        resolve(base, href),
			Platform:   problem.PlatformHackerRank,
			Difficulty: difficulty,
			Domain:     topic,
			Topic:      topic,
		})
	}
	return out
}

func codeChefListing(string) string {
	return "/problems/school"
}

// parseCodeChef reads table rows that link a /problems/ page; a num cell
// holds the difficulty, otherwise the row is a school problem.
func parseCodeChef(doc *html.Node, base *url.URL, _ string, limit int) problem.Corpus {
	out := make(problem.Corpus, 0, limit)
	for _, row := range findAll(doc, isTag("tr")) {
		if len(out) >= limit {
			break
		}
		link := findFirst(row, linkContaining("/problems/"))
		if link == nil {
			continue
		}
		difficulty := "School"
		if cell := findFirst(row, classContains("td", "num")); cell != nil {
			difficulty = text(cell)
		}
		out = append(out, problem.Record{
			Title:      text(link),
			URL:        resolve(base, attr(link, "href")),
			Platform:   problem.PlatformCodeChef,
			Difficulty: difficulty,
			Topic:      "School",
		})
	}
	return out
}
