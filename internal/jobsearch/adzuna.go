// Package jobsearch 根据技能查询在招职位
package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/types"
)

const (
	defaultLocation   = "India"
	defaultMaxResults = 5
	maxQuerySkills    = 3
)

// Provider 职位搜索提供方，任何失败都返回空结果而不是错误
type Provider interface {
	FetchJobs(ctx context.Context, skills []string, location string, maxResults int) types.JobSearchResult
}

// AdzunaClient Adzuna 职位搜索客户端
type AdzunaClient struct {
	baseURL         string
	appID           string
	appKey          string
	country         string
	defaultLocation string
	defaultMax      int
	httpClient      *http.Client
	logger          zerolog.Logger
}

// NewAdzunaClient 根据配置创建客户端
func NewAdzunaClient(cfg config.JobSearchConfig) *AdzunaClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &AdzunaClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		appID:           cfg.AppID,
		appKey:          cfg.AppKey,
		country:         cfg.Country,
		defaultLocation: cfg.DefaultLocation,
		defaultMax:      cfg.MaxResults,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger.Component("jobsearch.adzuna"),
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.adzuna.com"
	}
	if c.country == "" {
		c.country = "in"
	}
	if c.defaultLocation == "" {
		c.defaultLocation = defaultLocation
	}
	if c.defaultMax <= 0 {
		c.defaultMax = defaultMaxResults
	}
	return c
}

type adzunaResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Company struct {
			DisplayName string `json:"display_name"`
		} `json:"company"`
		Location struct {
			DisplayName string `json:"display_name"`
		} `json:"location"`
		Description string `json:"description"`
		RedirectURL string `json:"redirect_url"`
	} `json:"results"`
}

// FetchJobs 用前三个技能查询职位，结果最多 maxResults 条
func (c *AdzunaClient) FetchJobs(ctx context.Context, skills []string, location string, maxResults int) types.JobSearchResult {
	empty := types.JobSearchResult{Postings: []types.JobPosting{}}
	if len(skills) == 0 {
		return empty
	}
	if strings.TrimSpace(location) == "" {
		location = c.defaultLocation
	}
	if maxResults <= 0 {
		maxResults = c.defaultMax
	}

	degraded := func(reason string, err error) types.JobSearchResult {
		c.logger.Warn().Err(err).Str("reason", reason).Strs("skills", skills).Msg("职位搜索失败，返回空结果")
		return types.JobSearchResult{Postings: []types.JobPosting{}, Degraded: true, Reason: reason}
	}

	endpoint := fmt.Sprintf("%s/v1/api/jobs/%s/search/1", c.baseURL, url.PathEscape(c.country))
	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("results_per_page", strconv.Itoa(maxResults))
	params.Set("what", strings.Join(skills[:min(len(skills), maxQuerySkills)], "+"))
	params.Set("where", location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return degraded("build_request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return degraded("transport", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return degraded("read_body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return degraded(fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("%s", truncate(string(body), 200)))
	}

	var payload adzunaResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return degraded("decode", err)
	}

	postings := make([]types.JobPosting, 0, min(len(payload.Results), maxResults))
	for _, r := range payload.Results {
		if len(postings) >= maxResults {
			break
		}
		postings = append(postings, types.JobPosting{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			ApplyLink:   r.RedirectURL,
		})
	}

	c.logger.Debug().Int("postings", len(postings)).Str("where", location).Msg("职位搜索完成")
	return types.JobSearchResult{Postings: postings}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
