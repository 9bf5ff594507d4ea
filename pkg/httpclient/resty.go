package httpclient

import (
	"context"
	"net/http"
	"time"

	"golang-stock-tracker/pkg/logger"

	"github.com/go-resty/resty/v2"
)

type RestyClient struct {
	client *resty.Client
	log    *logger.Logger
}

type Option func(*resty.Client)

// WithRetry retries transport errors, 429 and 5xx responses with exponential backoff.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(wait * 8).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
			})
	}
}

func New(log *logger.Logger, baseURL string, timeout time.Duration, bearerToken string, opts ...Option) HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if bearerToken != "" {
		client.SetAuthToken(bearerToken)
	}
	for _, opt := range opts {
		opt(client)
	}

	return &RestyClient{client: client, log: log}
}

func (rc *RestyClient) toBaseResponse(ctx context.Context, method, endpoint string, resp *resty.Response, err error) (*BaseResponse, error) {
	if resp == nil {
		return &BaseResponse{}, err
	}
	rc.log.DebugContext(ctx, "HTTP request completed",
		logger.StringField("method", method),
		logger.StringField("endpoint", endpoint),
		logger.IntField("status_code", resp.StatusCode()),
		logger.DurationField("elapsed", resp.Time()),
	)
	return &BaseResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Headers:    resp.Header(),
	}, err
}

// GET request with optional query params
func (rc *RestyClient) Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result)
	}
	if queryParams != nil {
		req.SetQueryParams(queryParams)
	}
	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(endpoint)
	return rc.toBaseResponse(ctx, http.MethodGet, endpoint, resp, err)
}

// POST request with body
func (rc *RestyClient) Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().
		SetContext(ctx).
		SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Post(endpoint)
	return rc.toBaseResponse(ctx, http.MethodPost, endpoint, resp, err)
}

// PUT request
func (rc *RestyClient) Put(ctx context.Context, endpoint string, body interface{}, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().
		SetContext(ctx).
		SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Put(endpoint)
	return rc.toBaseResponse(ctx, http.MethodPut, endpoint, resp, err)
}

// DELETE request
func (rc *RestyClient) Delete(ctx context.Context, endpoint string, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result)
	}
	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Delete(endpoint)
	return rc.toBaseResponse(ctx, http.MethodDelete, endpoint, resp, err)
}
