// Package organize implements C6: per-account collections and tags, and
// the cross-cutting rule that moving entries between collections requires
// the caller to own both sides of the move.
package organize

import (
	"context"

	"github.com/shieldvault/vaultd/internal/domain"
)

// CollectionStore is the subset of the Postgres collection repository this
// service depends on.
type CollectionStore interface {
	Create(ctx context.Context, c *domain.Collection) error
	Get(ctx context.Context, id, accountID string) (*domain.Collection, error)
	List(ctx context.Context, accountID string) ([]*domain.Collection, error)
	Update(ctx context.Context, c *domain.Collection) error
	Delete(ctx context.Context, id, accountID string) error
}

// TagStore is the subset of the Postgres tag repository this service
// depends on.
type TagStore interface {
	GetOrCreate(ctx context.Context, accountID, name string) (*domain.Tag, error)
	Get(ctx context.Context, id, accountID string) (*domain.Tag, error)
	List(ctx context.Context, accountID string) ([]*domain.Tag, error)
	Delete(ctx context.Context, id, accountID string) error
	ListForEntry(ctx context.Context, entryID string) ([]*domain.Tag, error)
	SetEntryTags(ctx context.Context, entryID string, tagIDs []string) error
}

// EntryOwnershipStore is the narrow slice of the vault-entry repository
// this service needs to verify ownership before moving entries between
// collections or retagging them.
type EntryOwnershipStore interface {
	Get(ctx context.Context, id, accountID string) (*domain.VaultEntry, error)
	SetCollection(ctx context.Context, id, accountID string, collectionID *string) error
}

// Service implements C6.
type Service struct {
	collections CollectionStore
	tags        TagStore
	entries     EntryOwnershipStore
}

// New constructs an organization service.
func New(collections CollectionStore, tags TagStore, entries EntryOwnershipStore) *Service {
	return &Service{collections: collections, tags: tags, entries: entries}
}

// CreateCollection creates a new collection for accountID.
func (s *Service) CreateCollection(ctx context.Context, accountID, name string, description, icon, color *string) (*domain.Collection, error) {
	if name == "" {
		return nil, domain.NewError(domain.KindValidation, "collection name is required", nil)
	}
	c := &domain.Collection{AccountID: accountID, Name: name, Description: description, Icon: icon, Color: color}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCollections returns every collection the account owns.
func (s *Service) ListCollections(ctx context.Context, accountID string) ([]*domain.Collection, error) {
	return s.collections.List(ctx, accountID)
}

// UpdateCollection renames or restyles an existing collection.
func (s *Service) UpdateCollection(ctx context.Context, accountID, id string, name *string, description, icon, color **string) (*domain.Collection, error) {
	c, err := s.collections.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if *name == "" {
			return nil, domain.NewError(domain.KindValidation, "collection name cannot be empty", nil)
		}
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	if icon != nil {
		c.Icon = *icon
	}
	if color != nil {
		c.Color = *color
	}
	if err := s.collections.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCollection removes a collection. Member entries are not deleted —
// the schema's foreign key clears their collection_id to uncategorised.
func (s *Service) DeleteCollection(ctx context.Context, accountID, id string) error {
	return s.collections.Delete(ctx, id, accountID)
}

// MoveEntries moves a batch of entries into targetCollectionID, or to
// uncategorised when targetCollectionID is nil (the "null collection"
// sentinel). The caller must own every entry and the target collection;
// entries that are not owned are skipped rather than aborting the batch.
func (s *Service) MoveEntries(ctx context.Context, accountID string, entryIDs []string, targetCollectionID *string) (int, error) {
	if targetCollectionID != nil {
		if _, err := s.collections.Get(ctx, *targetCollectionID, accountID); err != nil {
			return 0, err
		}
	}

	moved := 0
	for _, id := range entryIDs {
		if _, err := s.entries.Get(ctx, id, accountID); err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				continue
			}
			return moved, err
		}
		if err := s.entries.SetCollection(ctx, id, accountID, targetCollectionID); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// CreateTag returns the existing tag of that name, creating it if absent.
// Concurrent creates of the same (accountId, name) pair collapse to a
// single row via the store's uniqueness constraint.
func (s *Service) CreateTag(ctx context.Context, accountID, name string) (*domain.Tag, error) {
	if name == "" {
		return nil, domain.NewError(domain.KindValidation, "tag name is required", nil)
	}
	return s.tags.GetOrCreate(ctx, accountID, name)
}

// ListTags returns every tag the account owns.
func (s *Service) ListTags(ctx context.Context, accountID string) ([]*domain.Tag, error) {
	return s.tags.List(ctx, accountID)
}

// DeleteTag removes a tag; membership rows (vault_entry_tags) cascade via
// the schema's foreign key.
func (s *Service) DeleteTag(ctx context.Context, accountID, id string) error {
	return s.tags.Delete(ctx, id, accountID)
}

// SetEntryTags replaces the full tag set on an owned entry, resolving each
// name to a tag row (creating it if new) before persisting the membership.
func (s *Service) SetEntryTags(ctx context.Context, accountID, entryID string, tagNames []string) ([]*domain.Tag, error) {
	if _, err := s.entries.Get(ctx, entryID, accountID); err != nil {
		return nil, err
	}

	tagIDs := make([]string, 0, len(tagNames))
	resolved := make([]*domain.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		if name == "" {
			continue
		}
		t, err := s.tags.GetOrCreate(ctx, accountID, name)
		if err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, t.ID)
		resolved = append(resolved, t)
	}

	if err := s.tags.SetEntryTags(ctx, entryID, tagIDs); err != nil {
		return nil, err
	}
	return resolved, nil
}

// EntryTags returns the tags attached to an owned entry.
func (s *Service) EntryTags(ctx context.Context, accountID, entryID string) ([]*domain.Tag, error) {
	if _, err := s.entries.Get(ctx, entryID, accountID); err != nil {
		return nil, err
	}
	return s.tags.ListForEntry(ctx, entryID)
}
