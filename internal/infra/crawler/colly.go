// Package crawler implements the crawl port with a Colly collector.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	MaxDepth  int // page recursion depth when Recurse is set; 0 means unlimited
}

type Crawler struct {
	cfg Config
}

func New(cfg Config) *Crawler {
	return &Crawler{cfg: cfg}
}

// Check walks the site starting at opts.StartURL and reports every discovered
// link with its resolution state. Pages on the start host are traversed when
// opts.Recurse is set; off-host links are fetched once for classification but
// never traversed.
func (c *Crawler) Check(ctx context.Context, opts domain.CrawlOptions) ([]links.LinkResult, error) {
	start, err := url.Parse(opts.StartURL)
	if err != nil {
		return nil, fmt.Errorf("parsing start url: %w", err)
	}
	if start.Scheme == "" || start.Host == "" {
		return nil, fmt.Errorf("start url %q must be absolute", opts.StartURL)
	}

	depth := 2
	if opts.Recurse {
		depth = c.cfg.MaxDepth
	}
	collector := colly.NewCollector(
		colly.Async(false),
		colly.MaxDepth(depth),
	)
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	if opts.Timeout > 0 {
		collector.SetRequestTimeout(opts.Timeout)
	}

	var (
		mu      sync.Mutex
		results = map[string]*links.LinkResult{}
	)
	record := func(link string) *links.LinkResult {
		if r, ok := results[link]; ok {
			return r
		}
		r := &links.LinkResult{URL: link}
		results[link] = r
		return r
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		// Links found on foreign hosts are out of scope; we fetch foreign
		// pages once to classify them but never harvest from them.
		if e.Request.URL.Host != start.Host {
			return
		}
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" || strings.HasPrefix(link, "mailto:") || strings.HasPrefix(link, "tel:") {
			return
		}
		mu.Lock()
		r := record(link)
		if r.Parent == "" {
			r.Parent = e.Request.URL.String()
		}
		if r.LinkText == "" {
			r.LinkText = strings.TrimSpace(e.Text)
		}
		mu.Unlock()

		e.Request.Visit(link)
	})

	collector.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()
		res := record(r.Request.URL.String())
		status := r.StatusCode
		res.Status = &status
		res.Broken = status >= 400
	})

	collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		res := record(r.Request.URL.String())
		res.Broken = true
		if r.StatusCode > 0 {
			status := r.StatusCode
			res.Status = &status
		}
	})

	if err := collector.Visit(start.String()); err != nil {
		return nil, fmt.Errorf("visiting %s: %w", start, err)
	}
	collector.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]links.LinkResult, 0, len(results))
	for _, r := range results {
		if r.Parent == "" {
			// The start page itself, not a discovered link.
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}
