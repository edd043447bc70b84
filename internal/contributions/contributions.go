package contributions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status tracks a submitted corpus pair through review.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var ErrNotFound = errors.New("contribution not found")

// Contribution is one community-submitted Banglish/Bangla sentence pair used
// to grow the training corpus.
type Contribution struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	UserID       string    `bson:"userId" json:"userId"`
	BanglishText string    `bson:"banglishText" json:"banglishText"`
	BanglaText   string    `bson:"banglaText" json:"banglaText"`
	Status       Status    `bson:"status" json:"status"`
	ReviewedBy   string    `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Repository defines persistence operations for contributions
type Repository interface {
	Create(ctx context.Context, c *Contribution) error
	GetByID(ctx context.Context, id string) (*Contribution, error)
	ListByUser(ctx context.Context, userID string) ([]*Contribution, error)
	ListAll(ctx context.Context) ([]*Contribution, error)
	Update(ctx context.Context, c *Contribution) error
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// Service wraps repository operations with the review workflow
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Submit stores a new pair in PENDING state.
func (s *Service) Submit(ctx context.Context, userID, banglish, bangla string) (*Contribution, error) {
	c := &Contribution{
		UserID:       userID,
		BanglishText: banglish,
		BanglaText:   bangla,
		Status:       StatusPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser returns the caller's submissions, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Contribution, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns a single submission by id.
func (s *Service) Get(ctx context.Context, id string) (*Contribution, error) {
	return s.repo.GetByID(ctx, id)
}

// Amend lets the owner edit a pending or reviewed pair. Any edit sends the
// submission back through review, so the status resets to PENDING.
func (s *Service) Amend(ctx context.Context, id, userID, banglish, bangla string) (*Contribution, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrNotFound
	}
	if banglish != "" {
		c.BanglishText = banglish
	}
	if bangla != "" {
		c.BanglaText = bangla
	}
	c.Status = StatusPending
	c.ReviewedBy = ""
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes a submission. Admin-only at the route level.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ListAll returns every submission for admin review.
func (s *Service) ListAll(ctx context.Context) ([]*Contribution, error) {
	return s.repo.ListAll(ctx)
}

// Review moves a pending submission to APPROVED or REJECTED. Reviews are
// final: a decided submission cannot be moved again.
func (s *Service) Review(ctx context.Context, id, reviewerID string, decision Status) (*Contribution, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("invalid review decision %q", decision)
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusPending {
		return nil, fmt.Errorf("contribution already reviewed as %s", c.Status)
	}
	c.Status = decision
	c.ReviewedBy = reviewerID
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
