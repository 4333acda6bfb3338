package repositoryimpl

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tray3forse/tasknag/internal/contact"
	"github.com/tray3forse/tasknag/pkg/cerr"
	"github.com/tray3forse/tasknag/pkg/storage"
)

const contactsPrefix = "contacts"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(ownerID string) string {
	return fmt.Sprintf("%s/%s.yaml", contactsPrefix, ownerID)
}

func (r *YAMLRepository) Upsert(ctx context.Context, c *contact.Contact) error {
	c.UpdatedAt = time.Now()
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal contact: %w", err))
	}
	if err := r.storage.Write(ctx, path(c.OwnerID), data); err != nil {
		return cerr.WrapStorageWriteError("contact", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, ownerID string) (*contact.Contact, error) {
	data, err := r.storage.Read(ctx, path(ownerID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("contact", err)
	}
	var c contact.Contact
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal contact: %w", err))
	}
	return &c, nil
}
