package domain

import "context"

// AccountService is the accounts collaborator used when a deletion request
// is approved.
type AccountService interface {
	DeleteAccount(ctx context.Context, accountID string) error
}
