package database

import (
	"context"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"compatibility-workers/internal/common/config"
)

// ElasticsearchClient is only built when candidates come from the search
// index.
type ElasticsearchClient struct {
	Client       *elasticsearch.Client
	profileIndex string
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses:  cfg.Addresses,
		MaxRetries: 2,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es, profileIndex: cfg.ProfileIndex}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// CheckProfileIndex reports an error when the candidate index is missing, so
// readiness fails instead of every candidate query.
func (c *ElasticsearchClient) CheckProfileIndex(ctx context.Context) error {
	res, err := c.Client.Indices.Exists([]string{c.profileIndex}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch index check failed: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("profile index %q does not exist", c.profileIndex)
	default:
		return fmt.Errorf("elasticsearch index check error: %s", res.Status())
	}
}
