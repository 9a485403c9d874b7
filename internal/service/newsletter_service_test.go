package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"folio/internal/models"
	"folio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriberRepo struct {
	existing  map[string]*models.Subscriber
	findErr   error
	createErr error
	created   []*models.Subscriber
	count     int
}

func (f *fakeSubscriberRepo) FindByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.existing[email], nil
}

func (f *fakeSubscriberRepo) Create(_ context.Context, sub *models.Subscriber) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubscriberRepo) Count(_ context.Context) (int, error) {
	return f.count, nil
}

func TestSubscribeValidation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantMsg string
	}{
		{"Empty email", "", "Email is required"},
		{"Missing at sign", "nobody.example.com", "Invalid email address"},
		{"Missing domain dot", "nobody@example", "Invalid email address"},
		{"Whitespace in local part", "no body@example.com", "Invalid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSubscriberRepo{}
			svc := NewNewsletterService(repo)

			_, err := svc.Subscribe(context.Background(), SubscribeInput{Email: tt.email})
			require.Error(t, err)
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Empty(t, repo.created, "invalid input must not reach the store")
		})
	}
}

func TestSubscribeDuplicate(t *testing.T) {
	existing := testutil.NewSubscriber(func(s *models.Subscriber) {
		s.Email = "taken@example.com"
	})
	repo := &fakeSubscriberRepo{existing: map[string]*models.Subscriber{
		"taken@example.com": &existing,
	}}
	svc := NewNewsletterService(repo)

	_, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "taken@example.com"})
	require.Error(t, err)
	assert.Equal(t, models.CodeDuplicate, models.ErrorCode(err))

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Email already subscribed", appErr.Message)
	assert.Empty(t, repo.created)
}

func TestSubscribeSuccess(t *testing.T) {
	repo := &fakeSubscriberRepo{}
	svc := NewNewsletterService(repo)
	at := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	sub, err := svc.Subscribe(context.Background(), SubscribeInput{
		Email: "new@example.com",
		Name:  "Ada",
	})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "new@example.com", sub.Email)
	assert.Equal(t, "Ada", sub.Name)
	assert.Equal(t, at, sub.SubscribedAt)
	require.Len(t, repo.created, 1)
}

func TestSubscribeUpstreamErrors(t *testing.T) {
	t.Run("Lookup failure", func(t *testing.T) {
		repo := &fakeSubscriberRepo{findErr: models.NewUpstreamError(errors.New("down"))}
		svc := NewNewsletterService(repo)

		_, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "a@b.co"})
		require.Error(t, err)
		assert.Equal(t, models.CodeUpstream, models.ErrorCode(err))
	})

	t.Run("Write failure", func(t *testing.T) {
		repo := &fakeSubscriberRepo{createErr: models.NewUpstreamError(errors.New("down"))}
		svc := NewNewsletterService(repo)

		_, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "a@b.co"})
		require.Error(t, err)
		assert.Equal(t, models.CodeUpstream, models.ErrorCode(err))
	})
}

func TestSubscriberCount(t *testing.T) {
	svc := NewNewsletterService(&fakeSubscriberRepo{count: 7})

	n, err := svc.SubscriberCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
