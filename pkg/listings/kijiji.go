package listings

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	SourceKijiji = "kijiji"

	defaultKijijiBaseURL = "https://www.kijiji.ca"
	maxHTMLBodyBytes     = 1 << 20 // 1 MiB
)

// KijijiOptions configures the Kijiji source.
type KijijiOptions struct {
	BaseURL      string
	UserAgent    string
	RequestDelay time.Duration
}

// kijiji reads the RSS search feed, then each ad page for its attribute table.
type kijiji struct {
	client HTTPClient
	opts   KijijiOptions
	log    Logger
}

// NewKijiji builds the Kijiji listings source.
func NewKijiji(client HTTPClient, opts KijijiOptions, log Logger) Source {
	if client == nil {
		client = DefaultHTTPClient(0)
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if opts.BaseURL == "" {
		opts.BaseURL = defaultKijijiBaseURL
	}
	return &kijiji{client: client, opts: opts, log: ensureLogger(log)}
}

func (k *kijiji) Name() string { return SourceKijiji }

// Query fetches the search feed for the task and enriches every item with
// its ad page attributes. An ad page that cannot be read is kept without
// attributes; the feed itself failing fails the query.
func (k *kijiji) Query(ctx context.Context, task domain.SearchTask) ([]domain.RawAd, error) {
	if strings.TrimSpace(task.LocationID) == "" || strings.TrimSpace(task.CategoryID) == "" {
		return nil, fmt.Errorf("kijiji query requires location and category ids")
	}

	feedURL := fmt.Sprintf("%s/rss-srp/c%sl%s", k.opts.BaseURL, task.CategoryID, task.LocationID)
	body, err := k.get(ctx, feedURL, searchParams(task))
	if err != nil {
		return nil, fmt.Errorf("fetch kijiji feed: %w", err)
	}

	items, err := parseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("decode kijiji feed: %w", err)
	}

	ads := make([]domain.RawAd, 0, len(items))
	for i, item := range items {
		ad := item.toAd()
		if ad.URL != "" {
			info, err := k.adInfo(ctx, ad.URL)
			if err != nil {
				k.log.WarnObj("kijiji ad page scrape failed", "ad_page_error", map[string]any{
					"guid":  ad.GUID,
					"url":   ad.URL,
					"error": err.Error(),
				})
			} else {
				ad.Info = info
			}
		}
		ads = append(ads, ad)

		if err := k.pause(ctx, i, len(items)); err != nil {
			return nil, err
		}
	}
	return ads, nil
}

func (k *kijiji) pause(ctx context.Context, i, n int) error {
	if k.opts.RequestDelay <= 0 || i >= n-1 {
		return nil
	}
	timer := time.NewTimer(k.opts.RequestDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func searchParams(task domain.SearchTask) map[string]string {
	params := map[string]string{}
	if task.AdType != "" {
		params["adType"] = task.AdType
	}
	if task.Price.Min != nil {
		params["minPrice"] = strconv.FormatFloat(*task.Price.Min, 'f', -1, 64)
	}
	if task.Price.Max != nil {
		params["maxPrice"] = strconv.FormatFloat(*task.Price.Max, 'f', -1, 64)
	}
	return params
}

func (k *kijiji) get(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	headers := map[string]string{}
	if k.opts.UserAgent != "" {
		headers["User-Agent"] = k.opts.UserAgent
	}

	resp, err := k.client.Get(ctx, url, query, headers)
	if err != nil {
		return nil, err
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}
	return body, nil
}

func (k *kijiji) adInfo(ctx context.Context, url string) (map[string]string, error) {
	body, err := k.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	return parseAdAttributes(body)
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    string `xml:"guid"`
	DCDate  string `xml:"http://purl.org/dc/elements/1.1/ date"`
	PubDate string `xml:"pubDate"`
}

func (it rssItem) toAd() domain.RawAd {
	guid := strings.TrimSpace(it.GUID)
	link := strings.TrimSpace(it.Link)
	if guid == "" {
		guid = link
	}
	date := strings.TrimSpace(it.DCDate)
	if date == "" {
		date = strings.TrimSpace(it.PubDate)
	}
	return domain.RawAd{
		GUID:  guid,
		Title: strings.TrimSpace(it.Title),
		Date:  date,
		URL:   link,
	}
}

func parseFeed(data []byte) ([]rssItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	return feed.Items, nil
}

// parseAdAttributes collects label/value pairs from the ad page's attribute
// tables and definition lists.
func parseAdAttributes(body []byte) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	info := make(map[string]string)
	put := func(label, value string) {
		label = strings.TrimSpace(label)
		value = strings.Join(strings.Fields(value), " ")
		if label == "" || value == "" {
			return
		}
		if _, exists := info[label]; !exists {
			info[label] = value
		}
	}

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		put(tr.Find("th").First().Text(), tr.Find("td").First().Text())
	})
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			put(dt.Text(), dt.NextFiltered("dd").Text())
		})
	})

	if _, ok := info[domain.AttrPrice]; !ok {
		price := doc.Find(`[itemprop="price"]`).First()
		if v, ok := price.Attr("content"); ok {
			put(domain.AttrPrice, v)
		} else {
			put(domain.AttrPrice, price.Text())
		}
	}

	return info, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
