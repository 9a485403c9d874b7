package service

import (
	"context"
	"time"

	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/repository"
	"folio/internal/validation"
)

// NewsletterService handles newsletter subscriptions.
type NewsletterService struct {
	subscribers repository.SubscriberRepository
	now         func() time.Time
}

type SubscribeInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewNewsletterService(subscribers repository.SubscriberRepository) *NewsletterService {
	return &NewsletterService{subscribers: subscribers, now: time.Now}
}

// Subscribe validates and records a new subscription. Error messages
// are user-facing copy rendered directly by the subscribe form.
func (s *NewsletterService) Subscribe(ctx context.Context, in SubscribeInput) (*models.Subscriber, error) {
	if in.Email == "" {
		observability.SubscriptionsTotal.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError("Email is required")
	}
	if !validation.IsEmail(in.Email) {
		observability.SubscriptionsTotal.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError("Invalid email address")
	}

	existing, err := s.subscribers.FindByEmail(ctx, in.Email)
	if err != nil {
		observability.SubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if existing != nil {
		observability.SubscriptionsTotal.WithLabelValues("duplicate").Inc()
		return nil, models.NewDuplicateError("Email already subscribed")
	}

	sub := &models.Subscriber{
		Email:        in.Email,
		Name:         in.Name,
		SubscribedAt: s.now(),
	}
	if err := s.subscribers.Create(ctx, sub); err != nil {
		observability.SubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.SubscriptionsTotal.WithLabelValues("subscribed").Inc()
	return sub, nil
}

// SubscriberCount returns the current subscriber total.
func (s *NewsletterService) SubscriberCount(ctx context.Context) (int, error) {
	return s.subscribers.Count(ctx)
}
