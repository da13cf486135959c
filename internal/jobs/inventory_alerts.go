package jobs

import (
	"context"

	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const lowStockPageSize = 500

type InventoryAlertService struct {
	tenantRepo  repositories.TenantRepository
	productRepo repositories.ProductRepository
	logger      zerolog.Logger
}

type InventoryAlert struct {
	TenantID     uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	CurrentStock int
	Threshold    int
}

func NewInventoryAlertService(tenantRepo repositories.TenantRepository, productRepo repositories.ProductRepository, logger zerolog.Logger) *InventoryAlertService {
	return &InventoryAlertService{
		tenantRepo:  tenantRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// CheckLowStock lists active products at or below their own threshold.
func (a *InventoryAlertService) CheckLowStock(ctx context.Context, tenantID uuid.UUID) ([]InventoryAlert, error) {
	active := true
	var alerts []InventoryAlert
	for offset := 0; ; offset += lowStockPageSize {
		products, err := a.productRepo.List(ctx, tenantID, &models.ProductFilter{
			Active:   &active,
			LowStock: true,
			Limit:    lowStockPageSize,
			Offset:   offset,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			alerts = append(alerts, InventoryAlert{
				TenantID:     tenantID,
				ProductID:    p.ID,
				ProductName:  p.Name,
				CurrentStock: p.StockQuantity,
				Threshold:    p.LowStockThreshold,
			})
		}
		if len(products) < lowStockPageSize {
			return alerts, nil
		}
	}
}

func (a *InventoryAlertService) LogLowStockAlerts(alerts []InventoryAlert) {
	for _, alert := range alerts {
		a.logger.Warn().
			Str("tenant_id", alert.TenantID.String()).
			Str("product_id", alert.ProductID.String()).
			Str("product", alert.ProductName).
			Int("stock", alert.CurrentStock).
			Int("threshold", alert.Threshold).
			Msg("low stock")
	}
}

// ScheduledLowStockCheck checks every active tenant and logs each product
// that needs restocking.
func (a *InventoryAlertService) ScheduledLowStockCheck(ctx context.Context) (*SweepResult, error) {
	return sweepTenants(ctx, a.tenantRepo, a.logger, "low-stock-alerts", 1,
		func(ctx context.Context, tenant *models.Tenant) (int, error) {
			alerts, err := a.CheckLowStock(ctx, tenant.ID)
			if err != nil {
				return 0, err
			}
			a.LogLowStockAlerts(alerts)
			return len(alerts), nil
		})
}
