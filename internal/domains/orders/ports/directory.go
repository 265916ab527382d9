package ports

import "context"

// Directory resolves user ids managed outside the orders context.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
