package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/pagination"
)

const maxCustomerAge = 150

// CreateCustomerInput holds the parameters for creating a customer.
type CreateCustomerInput struct {
	Name        string
	LastName    *string
	Description *string
	Email       string
	Age         *int
}

// UpdateCustomerInput holds a partial customer update.
type UpdateCustomerInput struct {
	Name        *string
	LastName    *string
	Description *string
	Email       *string
	Age         *int
}

// CustomerService implements the business logic for customers.
type CustomerService struct {
	repo   repository.CustomerRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewCustomerService creates a new customer service.
func NewCustomerService(repo repository.CustomerRepository, events EventPublisher, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new customer. Emails are unique, compared case-insensitively.
func (s *CustomerService) Create(ctx context.Context, input CreateCustomerInput) (*domain.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("name must not be empty")
	}
	if err := checkAge(input.Age); err != nil {
		return nil, err
	}

	now := s.now()
	customer := &domain.Customer{
		ID:          uuid.NewString(),
		Name:        name,
		LastName:    input.LastName,
		Description: input.Description,
		Email:       normalizeEmail(input.Email),
		Age:         input.Age,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	logPublishError(ctx, s.logger, "customer.created", customer.ID, s.events.CustomerCreated(ctx, customer))

	s.logger.InfoContext(ctx, "customer created", slog.String("customer_id", customer.ID))
	return customer, nil
}

// Get returns a customer by ID.
func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, customerError("get customer", id, err)
	}
	return customer, nil
}

// Update applies a partial update.
func (s *CustomerService) Update(ctx context.Context, id string, input UpdateCustomerInput) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, customerError("get customer for update", id, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("name must not be empty")
		}
		customer.Name = name
	}
	if input.LastName != nil {
		customer.LastName = input.LastName
	}
	if input.Description != nil {
		customer.Description = input.Description
	}
	if input.Email != nil {
		customer.Email = normalizeEmail(*input.Email)
	}
	if input.Age != nil {
		if err := checkAge(input.Age); err != nil {
			return nil, err
		}
		customer.Age = input.Age
	}
	customer.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, customerError("update customer", id, err)
	}
	return customer, nil
}

// Delete removes a customer.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return customerError("delete customer", id, err)
	}
	s.logger.InfoContext(ctx, "customer deleted", slog.String("customer_id", id))
	return nil
}

// List returns one page of customers ordered by name.
func (s *CustomerService) List(ctx context.Context, page pagination.Params) (pagination.Page[domain.Customer], error) {
	items, total, err := s.repo.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return pagination.Page[domain.Customer]{}, fmt.Errorf("list customers: %w", err)
	}
	return pagination.NewPage(items, total, page), nil
}

func checkAge(age *int) error {
	if age != nil && (*age < 0 || *age > maxCustomerAge) {
		return apperrors.Validation(fmt.Sprintf("age must be between 0 and %d", maxCustomerAge))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func customerError(op, id string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		if _, ok := apperrors.IsAppError(err); !ok {
			return apperrors.NotFound("customer", id)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
