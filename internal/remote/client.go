// Package remote talks to the missingkids.org JSON search servlet.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/netx"
)

// Client is the remote fetch contract used by the pager, the enricher and
// the sync orchestrator. Calls block; callers decide where they run.
type Client interface {
	FetchPageCount(ctx context.Context) (models.SearchMetadata, error)
	FetchPage(ctx context.Context, page int) (models.PageResponse, error)
	// FetchDetail returns nil, nil when the server has no detail for the case.
	FetchDetail(ctx context.Context, orgPrefix, caseNumber string) (*models.Detail, error)
}

const (
	jsonPath      = "JSONDataServlet"
	statusSuccess = "success"
)

type HTTPClient struct {
	baseURL *url.URL
	state   string
	http    *http.Client
	log     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the servlet rooted at baseURL, searching
// cases missing from state. timeout applies per HTTP request; 0 disables it.
func NewHTTPClient(baseURL, state string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	hc, err := netx.NewClient(timeout)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{baseURL: u, state: state, http: hc, log: log.With("component", "remote")}, nil
}

func (c *HTTPClient) endpoint(params url.Values) string {
	u := c.baseURL.JoinPath(jsonPath)
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *HTTPClient) beginSearchURL() string {
	return c.endpoint(url.Values{
		"action":       {"publicSearch"},
		"search":       {"new"},
		"subjToSearch": {"child"},
		"missState":    {c.state},
	})
}

func (c *HTTPClient) pageURL(page int) string {
	return c.endpoint(url.Values{
		"action":    {"publicSearch"},
		"goToPage":  {strconv.Itoa(page)},
		"missState": {c.state},
	})
}

func (c *HTTPClient) detailURL(orgPrefix, caseNumber string) string {
	return c.endpoint(url.Values{
		"action":    {"childDetail"},
		"caseNum":   {caseNumber},
		"orgPrefix": {orgPrefix},
	})
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	if err := netx.GetJSON(ctx, c.http, url, out); err != nil {
		return fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	return nil
}

// FetchPageCount starts a new search and reports its size. The servlet keeps
// the search in the session, so this must precede page requests.
func (c *HTTPClient) FetchPageCount(ctx context.Context) (models.SearchMetadata, error) {
	var resp searchBeginResponse
	if err := c.get(ctx, c.beginSearchURL(), &resp); err != nil {
		return models.SearchMetadata{}, err
	}
	if resp.Status != statusSuccess {
		c.log.Info(ctx, "search begin returned no data", "status", resp.Status)
		return models.SearchMetadata{}, fmt.Errorf("search begin status %q: %w", resp.Status, common.ErrNoData)
	}
	return models.SearchMetadata{TotalRecords: resp.TotalRecords, TotalPages: resp.TotalPages}, nil
}

// FetchPage fetches one page of results. Pages are 1-based; a page past the
// reported total yields ErrNoData.
func (c *HTTPClient) FetchPage(ctx context.Context, page int) (models.PageResponse, error) {
	meta, err := c.FetchPageCount(ctx)
	if err != nil {
		return models.PageResponse{}, err
	}
	if page < 1 || page > meta.TotalPages {
		return models.PageResponse{}, fmt.Errorf("page %d of %d: %w", page, meta.TotalPages, common.ErrNoData)
	}

	var resp searchPageResponse
	if err := c.get(ctx, c.pageURL(page), &resp); err != nil {
		return models.PageResponse{}, err
	}
	if resp.Persons == nil {
		return models.PageResponse{}, fmt.Errorf("page %d has no persons: %w", page, common.ErrNoData)
	}

	records := make([]models.Record, 0, len(resp.Persons))
	for i, raw := range resp.Persons {
		rec, err := parsePerson(raw)
		if err != nil {
			c.log.Warn(ctx, "skipping unparsable record", "page", page, "index", i, "error", err)
			continue
		}
		if rec.dateErr != nil {
			c.log.Debug(ctx, "unparsable missing date", "key", rec.NaturalKey, "error", rec.dateErr)
		}
		records = append(records, rec.Record)
	}

	total := meta.TotalPages
	if resp.TotalPages > 0 {
		total = resp.TotalPages
	}
	return models.PageResponse{Page: page, TotalPages: total, Records: records}, nil
}

func (c *HTTPClient) FetchDetail(ctx context.Context, orgPrefix, caseNumber string) (*models.Detail, error) {
	var resp detailResponse
	if err := c.get(ctx, c.detailURL(orgPrefix, caseNumber), &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess || resp.ChildBean == nil {
		c.log.Debug(ctx, "no detail data", "key", models.NaturalKey(orgPrefix, caseNumber), "status", resp.Status)
		return nil, nil
	}

	d, err := resp.ChildBean.toDetail()
	if err != nil {
		c.log.Warn(ctx, "detail payload partially unparsable", "key", models.NaturalKey(orgPrefix, caseNumber), "error", err)
	}
	return d, nil
}
