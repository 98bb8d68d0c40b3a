package scraper

import (
	"bytes"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// minProductContent is the shortest product-area text accepted before
// falling back to readability or the whole body
const minProductContent = 100

var (
	priceSelectors = []string{
		".price", "#price", `[itemprop="price"]`, ".product-price",
		".a-price-whole", ".a-offscreen", // Amazon
		".pdp-price",                     // Flipkart
		".seller-card__price",            // IndiaMART
	}

	specListSelector = ".specifications li, .specs li, .product-specs li"

	// page chrome that never describes the product
	chromeSelector = "nav, header, footer, .navigation, .menu, .sidebar, .related-products, .you-may-also-like, .recommendations"

	productContentSelectors = []string{
		".product-view", ".product-info", ".product-details", ".product-description",
		".product-content", "main", ".main-content", "#product", ".item-view",
		`[itemtype*="Product"]`,
	}
)

// Parse extracts a ProductRecord from a fetched product page
func (s *Scraper) Parse(body []byte, pageURL string) (*domain.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = &url.URL{}
	}
	article := lazyArticle(body, base, s.debug)

	rec := &domain.ProductRecord{
		URL:       pageURL,
		Source:    domain.SourceWebsite,
		FetchedAt: time.Now(),
	}

	rec.Title = firstNonEmpty(
		collapse(doc.Find("h1").First().Text()),
		collapse(doc.Find("title").First().Text()),
		attr(doc, `meta[property="og:title"]`, "content"),
	)

	rec.Description = firstNonEmpty(
		attr(doc, `meta[name="description"]`, "content"),
		attr(doc, `meta[property="og:description"]`, "content"),
		collapse(doc.Find("p").First().Text()),
	)
	if rec.Description == "" {
		if a := article(); a != nil {
			rec.Description = collapse(a.Excerpt)
		}
	}

	rec.Price = extractPrice(doc)
	rec.Specifications = extractSpecifications(doc)
	if s.normalizer != nil {
		rec.Specifications = s.normalizer.NormalizeSpecifications(rec.Specifications)
	}
	rec.Images = extractImages(doc, base, s.cfg.MaxImages)
	rec.MetaTags = extractMetaTags(doc)
	rec.RawText = truncate(extractProductText(doc, article), s.cfg.MaxRawText)

	if s.debug {
		log.Printf("[SCRAPER] Parsed %q: price=%q, %d specs, %d meta tags, %d chars of text",
			rec.Title, rec.Price, len(rec.Specifications), len(rec.MetaTags), len(rec.RawText))
	}

	return rec, nil
}

func extractPrice(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		if text := collapse(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractSpecifications reads two-cell table rows from the product area
// and "Key: Value" items from specification lists
func extractSpecifications(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)

	area := doc.Find("body").Clone()
	area.Find(chromeSelector).Remove()
	area.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() != 2 {
			return
		}
		key := collapse(cells.Eq(0).Text())
		value := collapse(cells.Eq(1).Text())
		if key != "" && value != "" {
			specs[key] = value
		}
	})

	doc.Find(specListSelector).Each(func(_ int, item *goquery.Selection) {
		parts := strings.Split(collapse(item.Text()), ":")
		if len(parts) != 2 {
			return
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if key != "" && value != "" {
			specs[key] = value
		}
	})

	return specs
}

func extractImages(doc *goquery.Document, base *url.URL, limit int) []string {
	images := make([]string, 0, limit)
	seen := make(map[string]bool)

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		lower := strings.ToLower(src)
		if src == "" || strings.Contains(lower, "icon") || strings.Contains(lower, "logo") || strings.HasPrefix(lower, "data:") {
			return true
		}

		ref, err := url.Parse(src)
		if err != nil {
			return true
		}
		full := base.ResolveReference(ref).String()
		if !seen[full] {
			seen[full] = true
			images = append(images, full)
		}
		return len(images) < limit
	})

	return images
}

func extractMetaTags(doc *goquery.Document) map[string]string {
	tags := make(map[string]string)
	doc.Find("meta").Each(func(_ int, meta *goquery.Selection) {
		name := meta.AttrOr("name", "")
		if name == "" {
			name = meta.AttrOr("property", "")
		}
		content := meta.AttrOr("content", "")
		if name != "" && content != "" {
			tags[name] = content
		}
	})
	return tags
}

// extractProductText returns the text of the main product container. Pages
// without one fall back to the readability article, then to the body.
func extractProductText(doc *goquery.Document, article func() *readability.Article) string {
	doc.Find(chromeSelector + ", script, style, noscript").Remove()

	for _, sel := range productContentSelectors {
		if text := collapse(doc.Find(sel).Text()); len(text) > minProductContent {
			return text
		}
	}

	if a := article(); a != nil {
		if text := articleText(a); len(text) > minProductContent {
			return text
		}
	}

	return collapse(doc.Find("body").Text())
}

// lazyArticle runs readability at most once, and only when a caller needs it
func lazyArticle(body []byte, pageURL *url.URL, debug bool) func() *readability.Article {
	var (
		done    bool
		article *readability.Article
	)
	return func() *readability.Article {
		if done {
			return article
		}
		done = true

		parser := readability.NewParser()
		a, err := parser.Parse(bytes.NewReader(body), pageURL)
		if err != nil {
			if debug {
				log.Printf("[SCRAPER] Readability fallback failed: %v", err)
			}
			return nil
		}
		article = &a
		return article
	}
}

func articleText(a *readability.Article) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Content))
	if err != nil {
		return ""
	}
	return collapse(doc.Text())
}

// FallbackRecord builds the limited record returned when a page cannot be
// scraped. The title is derived from the last URL path segment.
func FallbackRecord(pageURL, reason string) *domain.ProductRecord {
	return &domain.ProductRecord{
		Title:          titleFromURL(pageURL),
		Description:    "Unable to extract full product details. " + reason,
		URL:            pageURL,
		Specifications: map[string]string{},
		Images:         []string{},
		MetaTags:       map[string]string{},
		RawText: fmt.Sprintf("Product information could not be extracted from %s. "+
			"Please check vendor-provided files or search results for complete information.", pageURL),
		Source:        domain.SourceWebsite,
		ScrapingError: reason,
		IsLimitedData: true,
		FetchedAt:     time.Now(),
	}
}

func titleFromURL(pageURL string) string {
	const unknown = "Unknown Product"

	u, err := url.Parse(pageURL)
	if err != nil {
		return unknown
	}
	segment := path.Base(strings.Trim(u.Path, "/"))
	if segment == "." || segment == "/" || segment == "" {
		return unknown
	}
	if ext := strings.ToLower(path.Ext(segment)); ext == ".html" || ext == ".htm" {
		segment = strings.TrimSuffix(segment, path.Ext(segment))
	}

	words := strings.FieldsFunc(segment, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return unknown
	}
	return strings.Join(words, " ")
}

func attr(doc *goquery.Document, selector, name string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr(name, ""))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
