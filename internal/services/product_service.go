package services

import (
	"context"
	"strings"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductService manages retail products and their stock.
type ProductService interface {
	Create(ctx context.Context, actor Actor, req *ProductRequest) (*models.Product, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *ProductRequest) (*models.Product, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *models.ProductFilter) ([]*models.Product, error)

	AdjustStock(ctx context.Context, actor Actor, id uuid.UUID, req *StockAdjustmentRequest) (*models.Product, error)
	ListMovements(ctx context.Context, tenantID, id uuid.UUID, limit, offset int) ([]*models.StockMovement, error)
	UploadImage(ctx context.Context, tenantID, id uuid.UUID, upload *ImageUpload) (*models.Product, error)
}

type ProductRequest struct {
	CategoryID        *uuid.UUID      `json:"category_id"`
	Name              string          `json:"name" validate:"required,max=160"`
	SKU               *string         `json:"sku" validate:"omitempty,max=64"`
	Brand             *string         `json:"brand" validate:"omitempty,max=80"`
	Description       *string         `json:"description" validate:"omitempty,max=2000"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	StockQuantity     int             `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"gte=0"`
	Active            *bool           `json:"active"`
}

type StockAdjustmentRequest struct {
	Change int     `json:"change" validate:"ne=0"`
	Reason string  `json:"reason" validate:"required,oneof=restock adjustment"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

type productService struct {
	tx           repositories.Transactor
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	audit        AuditLogsService
	media        MinioService
	clock        clock.Clock
}

func NewProductService(tx repositories.Transactor, productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository,
	audit AuditLogsService, media MinioService, clk clock.Clock) ProductService {
	return &productService{
		tx:           tx,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		audit:        audit,
		media:        media,
		clock:        clk,
	}
}

func (req *ProductRequest) validate() error {
	if req.Price.IsNegative() {
		return errors.NotValidf("price must not be negative")
	}
	if req.Cost.IsNegative() {
		return errors.NotValidf("cost must not be negative")
	}
	return nil
}

func (s *productService) checkCategory(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categoryRepo.GetByID(ctx, tenantID, models.CategoryKindProduct, *categoryID)
	if errors.Is(err, errors.NotFound) {
		return errors.NotValidf("category_id %s", categoryID)
	}
	return err
}

func (s *productService) withImageURL(ctx context.Context, p *models.Product) *models.Product {
	p.ImageURL = ""
	if p.ImageKey == nil || s.media == nil {
		return p
	}
	url, err := s.media.PresignedURL(ctx, *p.ImageKey)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("product_id", p.ID.String()).Msg("presign product image")
		return p
	}
	p.ImageURL = url
	return p
}

func (s *productService) Create(ctx context.Context, actor Actor, req *ProductRequest) (*models.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, actor.TenantID, req.CategoryID); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	p := &models.Product{
		ID:                uuid.New(),
		TenantID:          actor.TenantID,
		CategoryID:        req.CategoryID,
		Name:              strings.TrimSpace(req.Name),
		SKU:               req.SKU,
		Brand:             req.Brand,
		Description:       req.Description,
		Price:             req.Price.Round(2),
		Cost:              req.Cost.Round(2),
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Active:            req.Active == nil || *req.Active,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.SKU != nil {
		p.SKU = common.StringPtr(*req.SKU)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.productRepo.Create(ctx, p); err != nil {
			return err
		}
		if p.StockQuantity == 0 {
			return nil
		}
		note := "initial stock"
		return s.productRepo.CreateMovement(ctx, &models.StockMovement{
			ID:        uuid.New(),
			TenantID:  actor.TenantID,
			ProductID: p.ID,
			Change:    p.StockQuantity,
			Reason:    models.StockReasonRestock,
			Note:      &note,
			CreatedBy: actor.UserRef(),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	p, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.withImageURL(ctx, p), nil
}

// Update changes catalog fields only; stock moves through AdjustStock and sales.
func (s *productService) Update(ctx context.Context, tenantID, id uuid.UUID, req *ProductRequest) (*models.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, tenantID, req.CategoryID); err != nil {
		return nil, err
	}
	p.CategoryID = req.CategoryID
	p.Name = strings.TrimSpace(req.Name)
	p.SKU = nil
	if req.SKU != nil {
		p.SKU = common.StringPtr(*req.SKU)
	}
	p.Brand = req.Brand
	p.Description = req.Description
	p.Price = req.Price.Round(2)
	p.Cost = req.Cost.Round(2)
	p.LowStockThreshold = req.LowStockThreshold
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.UpdatedAt = s.clock.Now().UTC()
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.withImageURL(ctx, p), nil
}

func (s *productService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	p, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	err = s.productRepo.Delete(ctx, tenantID, id)
	if errors.Is(err, errors.NotValid) {
		return common.Conflictf("product has sales; deactivate it instead")
	}
	if err != nil {
		return err
	}
	if p.ImageKey != nil {
		if err := s.media.Delete(ctx, *p.ImageKey); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("delete product image")
		}
	}
	return nil
}

func (s *productService) List(ctx context.Context, tenantID uuid.UUID, filter *models.ProductFilter) ([]*models.Product, error) {
	if filter == nil {
		filter = &models.ProductFilter{}
	}
	filter.Query = common.SanitizeSearchQuery(filter.Query)
	products, err := s.productRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		s.withImageURL(ctx, p)
	}
	return products, nil
}

func (s *productService) AdjustStock(ctx context.Context, actor Actor, id uuid.UUID, req *StockAdjustmentRequest) (*models.Product, error) {
	if req.Change == 0 {
		return nil, errors.NotValidf("change must not be zero")
	}
	if req.Reason != models.StockReasonRestock && req.Reason != models.StockReasonAdjustment {
		return nil, errors.NotValidf("reason %q", req.Reason)
	}

	var quantity int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		quantity, err = s.productRepo.AdjustStock(ctx, actor.TenantID, id, req.Change)
		if err != nil {
			return err
		}
		movement := &models.StockMovement{
			ID:        uuid.New(),
			TenantID:  actor.TenantID,
			ProductID: id,
			Change:    req.Change,
			Reason:    req.Reason,
			Note:      req.Note,
			CreatedBy: actor.UserRef(),
			CreatedAt: s.clock.Now().UTC(),
		}
		if err := s.productRepo.CreateMovement(ctx, movement); err != nil {
			return err
		}
		details := map[string]interface{}{"change": req.Change, "reason": req.Reason, "stock_quantity": quantity}
		return s.audit.Record(ctx, actor.TenantID, actor.UserRef(), models.AuditStockAdjusted, models.EntityProduct, id, details)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("product_id", id.String()).Int("change", req.Change).Int("stock_quantity", quantity).Msg("stock adjusted")
	return s.Get(ctx, actor.TenantID, id)
}

func (s *productService) ListMovements(ctx context.Context, tenantID, id uuid.UUID, limit, offset int) ([]*models.StockMovement, error) {
	if _, err := s.productRepo.GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.productRepo.ListMovements(ctx, tenantID, id, limit, offset)
}

func (s *productService) UploadImage(ctx context.Context, tenantID, id uuid.UUID, upload *ImageUpload) (*models.Product, error) {
	ext, err := upload.Validate()
	if err != nil {
		return nil, err
	}
	p, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	key := ObjectKey(tenantID, "products", id, ext)
	if err := s.media.Upload(ctx, key, upload.Reader, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdateImage(ctx, tenantID, id, &key); err != nil {
		_ = s.media.Delete(ctx, key)
		return nil, err
	}
	if p.ImageKey != nil {
		if err := s.media.Delete(ctx, *p.ImageKey); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", *p.ImageKey).Msg("delete previous product image")
		}
	}
	p.ImageKey = &key
	return s.withImageURL(ctx, p), nil
}
