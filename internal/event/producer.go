package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/backoffice/internal/domain"
	pkgkafka "github.com/utafrali/backoffice/pkg/kafka"
	"github.com/utafrali/backoffice/pkg/logger"
)

// Kafka topics for backoffice domain events.
const (
	TopicUserRegistered   = "backoffice.user.registered"
	TopicSessionLoggedOut = "backoffice.session.logged_out"
	TopicProductCreated   = "backoffice.product.created"
	TopicProductUpdated   = "backoffice.product.updated"
	TopicProductDeleted   = "backoffice.product.deleted"
	TopicCustomerCreated  = "backoffice.customer.created"
	TopicTaskCompleted    = "backoffice.task.completed"
)

// Aggregate types.
const (
	AggregateUser     = "user"
	AggregateProduct  = "product"
	AggregateCustomer = "customer"
	AggregateTask     = "task"
)

// Source is stamped on every event this service emits.
const Source = "backoffice"

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Publisher writes a single event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

type discard struct{}

func (discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// Discard is a Publisher that drops every event. It is used when Kafka is disabled.
var Discard Publisher = discard{}

// BreakerConfig tunes the circuit breaker in front of the broker.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips after half of at least five publishes fail and
// probes again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Producer publishes backoffice domain events through a circuit breaker so a
// dead broker costs one fast failure per request instead of a write timeout.
type Producer struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

// NewProducer wraps publisher with a circuit breaker. The breaker state is
// exported as backoffice_event_breaker_state when reg is non-nil.
func NewProducer(publisher Publisher, cfg BreakerConfig, reg prometheus.Registerer, log *slog.Logger) (*Producer, error) {
	state := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backoffice_event_breaker_state",
		Help: "State of the event publisher circuit breaker (0=closed, 1=half-open, 2=open).",
	})
	if reg != nil {
		if err := reg.Register(state); err != nil {
			return nil, fmt.Errorf("register breaker metric: %w", err)
		}
	}

	settings := gobreaker.Settings{
		Name:        "kafka-publisher",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			state.Set(stateValue(to))
		},
	}

	return &Producer{
		publisher: publisher,
		breaker:   gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:    log,
	}, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// State returns the current breaker state.
func (p *Producer) State() gobreaker.State {
	return p.breaker.State()
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, aggregateType, aggregateID, Source, data)
	if err != nil {
		return err
	}
	ev.CorrelationID = logger.CorrelationIDFromContext(ctx)

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(ctx, topic, ev)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("publish %s: %w", topic, ErrCircuitOpen)
		}
		return err
	}
	return nil
}

// --- Payloads ---

// UserRegisteredData is the payload of user.registered.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SessionLoggedOutData is the payload of session.logged_out.
type SessionLoggedOutData struct {
	UserID         string `json:"user_id"`
	RefreshRevoked bool   `json:"refresh_token_revoked"`
}

// ProductData is the payload of the product events.
type ProductData struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Price      int64  `json:"price"`
	Currency   string `json:"currency"`
	Stock      int    `json:"stock"`
	IsActive   bool   `json:"is_active"`
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// CustomerCreatedData is the payload of customer.created.
type CustomerCreatedData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskCompletedData is the payload of task.completed.
type TaskCompletedData struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

// --- Typed publishers ---

// UserRegistered publishes user.registered.
func (p *Producer) UserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, AggregateUser, u.ID, UserRegisteredData{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

// SessionLoggedOut publishes session.logged_out.
func (p *Producer) SessionLoggedOut(ctx context.Context, userID string, refreshRevoked bool) error {
	return p.publish(ctx, TopicSessionLoggedOut, AggregateUser, userID, SessionLoggedOutData{
		UserID:         userID,
		RefreshRevoked: refreshRevoked,
	})
}

// ProductCreated publishes product.created.
func (p *Producer) ProductCreated(ctx context.Context, pr *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, AggregateProduct, pr.ID, productData(pr))
}

// ProductUpdated publishes product.updated.
func (p *Producer) ProductUpdated(ctx context.Context, pr *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, AggregateProduct, pr.ID, productData(pr))
}

// ProductDeleted publishes product.deleted.
func (p *Producer) ProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, AggregateProduct, id, ProductDeletedData{ID: id})
}

// CustomerCreated publishes customer.created.
func (p *Producer) CustomerCreated(ctx context.Context, c *domain.Customer) error {
	return p.publish(ctx, TopicCustomerCreated, AggregateCustomer, c.ID, CustomerCreatedData{
		ID:    c.ID,
		Name:  c.Name,
		Email: c.Email,
	})
}

// TaskCompleted publishes task.completed.
func (p *Producer) TaskCompleted(ctx context.Context, t *domain.Task) error {
	return p.publish(ctx, TopicTaskCompleted, AggregateTask, t.ID, TaskCompletedData{
		ID:          t.ID,
		Title:       t.Title,
		CompletedAt: t.UpdatedAt,
	})
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		Slug:       p.Slug,
		Price:      p.Price,
		Currency:   p.Currency,
		Stock:      p.Stock,
		IsActive:   p.IsActive,
	}
}
