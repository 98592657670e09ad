// Package recommender 调用外部推荐服务
package recommender

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	cfg "github.com/wyfcoding/ecommerce/pkg/config"
)

// Client 推荐服务 HTTP 客户端
type Client struct {
	http *resty.Client
}

// NewClient 创建推荐服务客户端
func NewClient(rc cfg.RecommenderConfig) *Client {
	timeout := time.Duration(rc.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	client := resty.New().
		SetBaseURL(rc.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(1)

	return &Client{http: client}
}

type recommendationResponse struct {
	ProductIDs []string `json:"productIds"`
}

// Recommend 获取用户的推荐商品 ID 列表，顺序即推荐顺序
func (c *Client) Recommend(ctx context.Context, userID string, n int) ([]string, error) {
	var body recommendationResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("n", fmt.Sprintf("%d", n)).
		SetResult(&body).
		Get("/recommendations/" + userID)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recommender returned status %d", resp.StatusCode())
	}
	return body.ProductIDs, nil
}
