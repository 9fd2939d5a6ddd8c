package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/utils"
)

// AddItems inserts one or more new items in a single conditional write.
// Ids are assigned from the document's highest id onward and the items
// start available with no holders.  Items without a category default to
// Book; an item without a title fails validation before anything is
// written.
func (e *ReservationEngine) AddItems(ctx context.Context, doc *model.Document, token string, items []model.Item) ([]model.Item, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items given", ErrValidation)
	}
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			return nil, fmt.Errorf("%w: item title is required", ErrValidation)
		}
		if it.Category != "" && !it.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, it.Category)
		}
	}
	nextID := doc.NextItemID()
	added := make([]model.Item, 0, len(items))
	for _, it := range items {
		it.ID = nextID
		nextID++
		if it.Category == "" {
			it.Category = model.CategoryBook
		}
		it.ClearHolder()
		doc.Items = append(doc.Items, it)
		added = append(added, it)
	}
	msg := fmt.Sprintf("Admin added %d item(s)", len(added))
	if err := e.submit(ctx, doc, token, msg); err != nil {
		return nil, err
	}
	return added, nil
}

// ItemUpdate carries the corrections an admin may apply to an existing
// item.  Nil fields are left unchanged; availability and holders are never
// touched here, those move only through Reserve and Cancel.
type ItemUpdate struct {
	Title     *string
	Grade     *string
	ClassName *string
	Category  *model.Category
}

// UpdateItem applies metadata corrections to one item.
func (e *ReservationEngine) UpdateItem(ctx context.Context, doc *model.Document, token string, itemID int64, upd ItemUpdate) (model.Item, error) {
	item := doc.FindItem(itemID)
	if item == nil {
		return model.Item{}, ErrNotFound
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return model.Item{}, fmt.Errorf("%w: item title is required", ErrValidation)
		}
		item.Title = *upd.Title
	}
	if upd.Grade != nil {
		item.Grade = *upd.Grade
	}
	if upd.ClassName != nil {
		item.ClassName = *upd.ClassName
	}
	if upd.Category != nil {
		if !upd.Category.Valid() {
			return model.Item{}, fmt.Errorf("%w: unknown category %q", ErrValidation, *upd.Category)
		}
		item.Category = *upd.Category
	}
	msg := fmt.Sprintf("Admin edited item %d", itemID)
	if err := e.submit(ctx, doc, token, msg); err != nil {
		return model.Item{}, err
	}
	return *item, nil
}

// DeleteItem removes an item from the inventory.  Reserved items are
// protected: the family's reservation must be cancelled first.
func (e *ReservationEngine) DeleteItem(ctx context.Context, doc *model.Document, token string, itemID int64) error {
	idx := -1
	for i := range doc.Items {
		if doc.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if !doc.Items[idx].Available {
		return ErrForbidden
	}
	title := doc.Items[idx].Title
	doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)
	return e.submit(ctx, doc, token, fmt.Sprintf("Admin deleted item %d (%q)", itemID, title))
}

// VerifyAdminSecret checks a candidate secret against the stored bcrypt
// hash.
func (e *ReservationEngine) VerifyAdminSecret(doc *model.Document, secret string) bool {
	return utils.VerifySecret(doc.AdminConfig.SecretHash, secret)
}

// SetAdminSecret rotates the admin secret.  The new secret is stored as a
// bcrypt hash only.
func (e *ReservationEngine) SetAdminSecret(ctx context.Context, doc *model.Document, token, newSecret string) error {
	if len(strings.TrimSpace(newSecret)) < 8 {
		return fmt.Errorf("%w: secret must be at least 8 characters", ErrValidation)
	}
	hash, err := utils.HashSecret(newSecret)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	doc.AdminConfig.SecretHash = hash
	return e.submit(ctx, doc, token, "Admin rotated secret")
}
