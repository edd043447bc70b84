package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("chat not found")

// Message is one prompt/reply exchange inside a chat.
type Message struct {
	Prompt    string    `bson:"prompt" json:"prompt"`
	Reply     string    `bson:"reply" json:"reply"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Chat is a saved conversation with the assistant.
type Chat struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Title     string    `bson:"title" json:"title"`
	Messages  []Message `bson:"messages" json:"messages"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Repository defines persistence operations for chats
type Repository interface {
	Create(ctx context.Context, c *Chat) error
	GetByID(ctx context.Context, id string) (*Chat, error)
	ListByUser(ctx context.Context, userID string) ([]*Chat, error)
	Update(ctx context.Context, c *Chat) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// PDFTextSource yields the text behind a previously exported PDF.
// Satisfied by translate.Service.
type PDFTextSource interface {
	PDFText(ctx context.Context, translationID, userID string) (string, error)
}

// Service is a thin wrapper over the external completion model plus history.
type Service struct {
	repo   Repository
	client Completer
	pdfs   PDFTextSource
}

func NewService(repo Repository, client Completer) *Service {
	return &Service{repo: repo, client: client}
}

// WithPDFSource enables seeding conversations from exported PDFs.
func (s *Service) WithPDFSource(src PDFTextSource) *Service {
	s.pdfs = src
	return s
}

// Ask sends the prompt upstream and appends the exchange to the chat. An
// empty chatID starts a new conversation titled after the prompt.
func (s *Service) Ask(ctx context.Context, userID, chatID, prompt string) (*Chat, error) {
	reply, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chatbot: %w", err)
	}

	msg := Message{Prompt: prompt, Reply: reply, CreatedAt: time.Now().UTC()}

	if chatID == "" {
		c := &Chat{UserID: userID, Title: title(prompt), Messages: []Message{msg}}
		if err := s.repo.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	c, err := s.repo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrNotFound
	}
	c.Messages = append(c.Messages, msg)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AskFromPDF starts a new conversation seeded with the text of one of the
// caller's exported PDFs. The text is already Bangla, so it goes straight to
// the completion model without another translation pass.
func (s *Service) AskFromPDF(ctx context.Context, userID, translationID string) (*Chat, error) {
	if s.pdfs == nil {
		return nil, fmt.Errorf("pdf chat is not configured")
	}
	text, err := s.pdfs.PDFText(ctx, translationID, userID)
	if err != nil {
		return nil, err
	}
	return s.Ask(ctx, userID, "", text)
}

// ListByUser returns the caller's saved chats, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Chat, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns a single chat when it belongs to the caller.
func (s *Service) Get(ctx context.Context, userID, chatID string) (*Chat, error) {
	c, err := s.repo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrNotFound
	}
	return c, nil
}

func title(prompt string) string {
	const max = 48
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max]
}
