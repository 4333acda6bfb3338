package contact

import "context"

type Repository interface {
	// Upsert creates or replaces the owner's contact record.
	Upsert(ctx context.Context, c *Contact) error
	Get(ctx context.Context, ownerID string) (*Contact, error)
}
