// Package application 行为事件采集的应用服务
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/event/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// ErrMissingAction 事件类型缺失
var ErrMissingAction = errors.New("action is required")

const (
	dedupWindow      = 10 * time.Second
	defaultListLimit = 50
	maxListLimit     = 500
)

// EventPublisher 把事件异步发往消息队列，供离线推荐消费
type EventPublisher interface {
	SendMessage(ctx context.Context, topic, key string, value interface{}) error
}

// EventService 行为事件应用服务
type EventService struct {
	repo      domain.EventRepository
	publisher EventPublisher
	topic     string
	limiter   *windowLimiter
}

// NewEventService 创建事件服务。publisher 可为 nil，此时只落库不发 MQ。
func NewEventService(repo domain.EventRepository, publisher EventPublisher, topic string) *EventService {
	return &EventService{
		repo:      repo,
		publisher: publisher,
		topic:     topic,
		limiter:   newWindowLimiter(dedupWindow),
	}
}

// LogCommand 事件上报命令
type LogCommand struct {
	UserID    string
	SessionID string
	ProductID string
	Action    domain.Action
	Metadata  domain.Metadata
	IP        string
	UserAgent string
}

// LogResult 上报结果。RateLimited 为 true 时事件未持久化。
type LogResult struct {
	RateLimited bool
	Event       *domain.Event
}

// Log 记录一条事件。窗口内的重复事件静默丢弃，返回 RateLimited。
func (s *EventService) Log(ctx context.Context, cmd LogCommand) (*LogResult, error) {
	if cmd.Action == "" {
		return nil, ErrMissingAction
	}
	if !domain.ValidAction(cmd.Action) {
		return nil, domain.ErrInvalidAction
	}

	subject := cmd.UserID
	if subject == "" {
		subject = cmd.SessionID
	}
	if subject == "" {
		subject = cmd.IP
	}
	key := fmt.Sprintf("%s_%s_%s", subject, cmd.ProductID, cmd.Action)

	if !s.limiter.Allow(key) {
		metrics.EventsLimited.Inc()
		return &LogResult{RateLimited: true}, nil
	}

	event := &domain.Event{
		UserID:    cmd.UserID,
		SessionID: cmd.SessionID,
		ProductID: cmd.ProductID,
		Action:    cmd.Action,
		Metadata:  cmd.Metadata,
		IP:        cmd.IP,
		UserAgent: cmd.UserAgent,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	metrics.EventsTotal.WithLabelValues(string(cmd.Action)).Inc()

	if s.publisher != nil {
		// fire and forget，MQ 故障不影响上报链路
		go func(e domain.Event) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.publisher.SendMessage(ctx, s.topic, string(e.Action), e); err != nil {
				logger.Warn(ctx, "Failed to publish event", "action", e.Action, "error", err)
			}
		}(*event)
	}

	return &LogResult{Event: event}, nil
}

// List 查询事件（管理端）
func (s *EventService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Event, error) {
	if filter.Action != "" && !domain.ValidAction(filter.Action) {
		return nil, domain.ErrInvalidAction
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, filter)
}
