// Package talentpool is the HTTP client for the talent-pool provider API. It
// implements the provider.Searcher and provider.Enricher contracts used by
// the sourcing pipeline.
package talentpool

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL = "https://api.talentpool.example.com/v1"
	userAgent     = "spigell/talent-sourcer (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: defaultAPIURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}
