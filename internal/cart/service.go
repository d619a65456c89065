package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/fees"
	"github.com/unieats/unieats-backend/internal/menu"
	"github.com/unieats/unieats-backend/pkg/db/models"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
)

// txRunner abstracts transactional execution so the service can be tested
// against an in-memory database.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the purchaser's single-vendor cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, menuItemID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, cartItemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, cartItemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ClearWithTx(tx *gorm.DB, userID uuid.UUID) error
}

type service struct {
	repo *Repository
	menu menu.Service
	tx   txRunner
}

// NewService wires cart dependencies.
func NewService(repo *Repository, menuSvc menu.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if menuSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "menu service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, menu: menuSvc, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, userID, menuItemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.menu.GetItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item is not available")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.repo.FindByUserWithTx(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = &models.Cart{
				ID:       uuid.New(),
				UserID:   userID,
				VendorID: item.VendorID,
			}
			if err := s.repo.CreateWithTx(tx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		// All cart lines must come from one vendor; mixing is rejected, not
		// silently merged.
		if cart.VendorID != item.VendorID {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart holds items from another vendor")
		}

		line := findLine(cart, menuItemID)
		if line == nil {
			line = &models.CartItem{
				ID:         uuid.New(),
				CartID:     cart.ID,
				MenuItemID: item.ID,
				Name:       item.Name,
				UnitPrice:  item.Price,
				Quantity:   quantity,
			}
		} else {
			line.Quantity += quantity
		}
		line.LineSubtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		if err := s.repo.SaveItemWithTx(tx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return s.recompute(tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, cartItemID uuid.UUID, quantity int) (*models.Cart, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, line, err := s.resolveLine(tx, userID, cartItemID)
		if err != nil {
			return err
		}
		if quantity < 1 {
			if err := s.repo.DeleteItemWithTx(tx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
			}
		} else {
			line.Quantity = quantity
			line.LineSubtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
			if err := s.repo.SaveItemWithTx(tx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
			}
		}
		return s.recompute(tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	cart, err := s.Get(ctx, userID)
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		// Removing the last line deletes the cart; report an empty cart
		// rather than a lookup failure.
		return nil, nil
	}
	return cart, err
}

func (s *service) RemoveItem(ctx context.Context, userID, cartItemID uuid.UUID) (*models.Cart, error) {
	return s.UpdateItemQuantity(ctx, userID, cartItemID, 0)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ClearWithTx(tx, userID)
	})
}

// ClearWithTx drops the purchaser's cart inside an enclosing transaction.
// A missing cart is not an error so payment confirmation stays idempotent.
func (s *service) ClearWithTx(tx *gorm.DB, userID uuid.UUID) error {
	if err := s.repo.DeleteByUserWithTx(tx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) resolveLine(tx *gorm.DB, userID, cartItemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.repo.FindByUserWithTx(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	for i := range cart.Items {
		if cart.Items[i].ID == cartItemID {
			return cart, &cart.Items[i], nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

// recompute rederives the cart totals from its lines; an emptied cart is
// deleted outright.
func (s *service) recompute(tx *gorm.DB, cartID uuid.UUID) error {
	var cart models.Cart
	if err := tx.Preload("Items").First(&cart, "id = ?", cartID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	if len(cart.Items) == 0 {
		if err := tx.Delete(&models.Cart{}, "id = ?", cart.ID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete empty cart")
		}
		return nil
	}

	subtotal := decimal.Zero
	for _, line := range cart.Items {
		subtotal = subtotal.Add(line.LineSubtotal)
	}
	cart.Subtotal = subtotal.Round(2)
	cart.PlatformFee = fees.PlatformFee(cart.Subtotal)
	cart.Total = cart.Subtotal.Add(cart.PlatformFee)
	if err := s.repo.SaveWithTx(tx, &cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart totals")
	}
	return nil
}

func findLine(cart *models.Cart, menuItemID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].MenuItemID == menuItemID {
			return &cart.Items[i]
		}
	}
	return nil
}
