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

type StylistService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *StylistRequest) (*models.Stylist, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Stylist, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *StylistRequest) (*models.Stylist, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, active *bool) ([]*models.Stylist, error)

	GetSchedule(ctx context.Context, tenantID, id uuid.UUID) ([]*models.Schedule, error)
	ReplaceSchedule(ctx context.Context, tenantID, id uuid.UUID, days []*models.Schedule) ([]*models.Schedule, error)
	UploadPhoto(ctx context.Context, tenantID, id uuid.UUID, upload *ImageUpload) (*models.Stylist, error)
}

type StylistRequest struct {
	Name           string           `json:"name" validate:"required,max=120"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	Phone          *string          `json:"phone" validate:"omitempty,max=40"`
	Bio            *string          `json:"bio" validate:"omitempty,max=2000"`
	Color          *string          `json:"color" validate:"omitempty,hexcolor"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	Active         *bool            `json:"active"`
}

type stylistService struct {
	tx              repositories.Transactor
	stylistRepo     repositories.StylistRepository
	appointmentRepo repositories.AppointmentRepository
	media           MinioService
	clock           clock.Clock
}

func NewStylistService(tx repositories.Transactor, stylistRepo repositories.StylistRepository,
	appointmentRepo repositories.AppointmentRepository, media MinioService, clk clock.Clock) StylistService {
	return &stylistService{
		tx:              tx,
		stylistRepo:     stylistRepo,
		appointmentRepo: appointmentRepo,
		media:           media,
		clock:           clk,
	}
}

func (req *StylistRequest) apply(st *models.Stylist) error {
	st.Name = strings.TrimSpace(req.Name)
	st.Email = req.Email
	st.Phone = req.Phone
	st.Bio = req.Bio
	st.Color = req.Color
	if req.CommissionRate != nil {
		if err := percentInRange("commission_rate", *req.CommissionRate); err != nil {
			return err
		}
		st.CommissionRate = req.CommissionRate.Round(2)
	}
	if req.Active != nil {
		st.Active = *req.Active
	}
	return nil
}

func (s *stylistService) withPhotoURL(ctx context.Context, st *models.Stylist) *models.Stylist {
	st.PhotoURL = ""
	if st.PhotoKey == nil || s.media == nil {
		return st
	}
	url, err := s.media.PresignedURL(ctx, *st.PhotoKey)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("stylist_id", st.ID.String()).Msg("presign stylist photo")
		return st
	}
	st.PhotoURL = url
	return st
}

func (s *stylistService) Create(ctx context.Context, tenantID uuid.UUID, req *StylistRequest) (*models.Stylist, error) {
	now := s.clock.Now().UTC()
	st := &models.Stylist{
		ID:             uuid.New(),
		TenantID:       tenantID,
		CommissionRate: decimal.Zero,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := req.apply(st); err != nil {
		return nil, err
	}
	if err := s.stylistRepo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *stylistService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Stylist, error) {
	st, err := s.stylistRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.withPhotoURL(ctx, st), nil
}

func (s *stylistService) Update(ctx context.Context, tenantID, id uuid.UUID, req *StylistRequest) (*models.Stylist, error) {
	st, err := s.stylistRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	wasActive := st.Active
	if err := req.apply(st); err != nil {
		return nil, err
	}
	if wasActive && !st.Active {
		if err := s.ensureNoUpcoming(ctx, tenantID, id); err != nil {
			return nil, err
		}
	}
	st.UpdatedAt = s.clock.Now().UTC()
	if err := s.stylistRepo.Update(ctx, st); err != nil {
		return nil, err
	}
	return s.withPhotoURL(ctx, st), nil
}

func (s *stylistService) ensureNoUpcoming(ctx context.Context, tenantID, id uuid.UUID) error {
	upcoming, err := s.appointmentRepo.CountUpcomingForStylist(ctx, tenantID, id, s.clock.Now())
	if err != nil {
		return err
	}
	if upcoming > 0 {
		return common.Conflictf("stylist has %d upcoming appointments", upcoming)
	}
	return nil
}

func (s *stylistService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	st, err := s.stylistRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.ensureNoUpcoming(ctx, tenantID, id); err != nil {
		return err
	}
	err = s.stylistRepo.Delete(ctx, tenantID, id)
	if errors.Is(err, errors.NotValid) {
		return common.Conflictf("stylist has appointment history; deactivate instead")
	}
	if err != nil {
		return err
	}
	if st.PhotoKey != nil {
		if err := s.media.Delete(ctx, *st.PhotoKey); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("delete stylist photo")
		}
	}
	return nil
}

func (s *stylistService) List(ctx context.Context, tenantID uuid.UUID, active *bool) ([]*models.Stylist, error) {
	stylists, err := s.stylistRepo.List(ctx, tenantID, active)
	if err != nil {
		return nil, err
	}
	for _, st := range stylists {
		s.withPhotoURL(ctx, st)
	}
	return stylists, nil
}

func (s *stylistService) GetSchedule(ctx context.Context, tenantID, id uuid.UUID) ([]*models.Schedule, error) {
	if _, err := s.stylistRepo.GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	days, err := s.stylistRepo.GetSchedule(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []*models.Schedule{}
	}
	return days, nil
}

func (s *stylistService) ReplaceSchedule(ctx context.Context, tenantID, id uuid.UUID, days []*models.Schedule) ([]*models.Schedule, error) {
	seen := make(map[int]bool, len(days))
	for i, d := range days {
		if d == nil {
			return nil, errors.NotValidf("schedule entry %d is empty", i)
		}
		if err := d.Validate(); err != nil {
			return nil, errors.NewNotValid(err, "schedule")
		}
		if seen[d.DayOfWeek] {
			return nil, errors.NotValidf("day_of_week %d listed twice", d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
		d.ID = uuid.New()
		d.TenantID = tenantID
		d.StylistID = id
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stylistRepo.GetByID(ctx, tenantID, id); err != nil {
			return err
		}
		return s.stylistRepo.ReplaceSchedule(ctx, tenantID, id, days)
	})
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []*models.Schedule{}
	}
	return days, nil
}

func (s *stylistService) UploadPhoto(ctx context.Context, tenantID, id uuid.UUID, upload *ImageUpload) (*models.Stylist, error) {
	ext, err := upload.Validate()
	if err != nil {
		return nil, err
	}
	st, err := s.stylistRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(tenantID, "stylists", id, ext)
	if err := s.media.Upload(ctx, key, upload.Reader, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}
	if err := s.stylistRepo.UpdatePhoto(ctx, tenantID, id, &key); err != nil {
		_ = s.media.Delete(ctx, key)
		return nil, err
	}
	if st.PhotoKey != nil {
		if err := s.media.Delete(ctx, *st.PhotoKey); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", *st.PhotoKey).Msg("delete previous stylist photo")
		}
	}
	st.PhotoKey = &key
	return s.withPhotoURL(ctx, st), nil
}
