package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aircnc/aircnc-server/internal/store"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/validation"
)

// Service encapsulates user-related business logic. Users are keyed by
// email; everything else in the document is opaque profile data.
type Service struct {
	users store.Collection
}

func NewService(s store.Store) *Service {
	return &Service{users: s.Users()}
}

func checkEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !validation.Email(email) {
		return "", apperrors.Validation("invalid email")
	}
	return email, nil
}

// Upsert replaces the user stored under email with doc, or inserts it.
// The email key always equals the path email.
func (s *Service) Upsert(ctx context.Context, email string, doc store.Document) (store.UpdateResult, error) {
	email, err := checkEmail(email)
	if err != nil {
		return store.UpdateResult{}, err
	}
	user := make(store.Document, len(doc)+1)
	for k, v := range doc {
		user[k] = v
	}
	user["email"] = email
	res, err := s.users.UpsertOne(ctx, store.Filter{"email": email}, user)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("upsert user: %w", err)
	}
	return res, nil
}

// Get returns the user stored under email, or nil when there is none.
func (s *Service) Get(ctx context.Context, email string) (store.Document, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	doc, err := s.users.FindOne(ctx, store.Filter{"email": email})
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc, nil
}
