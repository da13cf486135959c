package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func completedAppointment(stylistID uuid.UUID, stylist string, start time.Time, lines ...*models.AppointmentService) *models.Appointment {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price)
	}
	return &models.Appointment{
		ID:            uuid.New(),
		StylistID:     stylistID,
		StylistName:   stylist,
		StartAt:       start,
		Status:        models.AppointmentCompleted,
		TotalPrice:    total,
		DepositStatus: models.DepositNotRequired,
		Services:      lines,
	}
}

func line(id uuid.UUID, name, price string) *models.AppointmentService {
	return &models.AppointmentService{ID: uuid.New(), ServiceID: id, ServiceName: name, Price: dec(price)}
}

func TestSummarize(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	alex, sam := uuid.New(), uuid.New()
	cut, colour := uuid.New(), uuid.New()
	shampoo := uuid.New()

	deposited := completedAppointment(sam, "Sam", from.Add(10*time.Hour), line(colour, "Colour", "120.00"))
	deposited.DepositStatus = models.DepositReceived
	deposited.DepositAmount = dec("24.00")

	appointments := []*models.Appointment{
		completedAppointment(alex, "Alex", from.Add(9*time.Hour), line(cut, "Cut", "50.00")),
		deposited,
		completedAppointment(alex, "Alex", to.Add(15*time.Hour), line(cut, "Cut", "50.00"), line(colour, "Colour", "120.00")),
		{ID: uuid.New(), StylistID: sam, StartAt: to.Add(9 * time.Hour), Status: models.AppointmentCancelled, TotalPrice: dec("50.00")},
		{ID: uuid.New(), StylistID: sam, StartAt: to.Add(11 * time.Hour), Status: models.AppointmentNoShow, TotalPrice: dec("50.00")},
	}
	orders := []*models.Order{
		{
			ID: uuid.New(), Status: models.OrderStatusCompleted, Total: dec("27.50"), CreatedAt: from.Add(12 * time.Hour),
			Items: []*models.OrderItem{{ProductID: shampoo, ProductName: "Shampoo", Quantity: 2, LineTotal: dec("25.00")}},
		},
		{
			ID: uuid.New(), Status: models.OrderStatusRefunded, Total: dec("99.00"), CreatedAt: from.Add(13 * time.Hour),
			Items: []*models.OrderItem{{ProductID: uuid.New(), ProductName: "Dryer", Quantity: 1, LineTotal: dec("90.00")}},
		},
	}

	report := Summarize(from, to, time.UTC, appointments, orders, 4)

	assert.Equal(t, "2026-03-01", report.From)
	assert.Equal(t, "2026-03-03", report.To)
	assert.True(t, dec("340.00").Equal(report.ServiceRevenue), report.ServiceRevenue.String())
	assert.True(t, dec("27.50").Equal(report.ProductRevenue), report.ProductRevenue.String())
	assert.True(t, dec("367.50").Equal(report.TotalRevenue), report.TotalRevenue.String())
	// three completed appointments and one completed order
	assert.True(t, dec("91.88").Equal(report.AverageTicket), report.AverageTicket.String())
	assert.Equal(t, 1, report.CompletedOrders)
	assert.Equal(t, 4, report.NewClients)
	assert.True(t, dec("24.00").Equal(report.DepositsCollected))

	assert.Equal(t, 3, report.AppointmentsByStatus[models.AppointmentCompleted])
	assert.Equal(t, 1, report.AppointmentsByStatus[models.AppointmentCancelled])
	assert.Equal(t, 1, report.AppointmentsByStatus[models.AppointmentNoShow])
	assert.Equal(t, 0, report.AppointmentsByStatus[models.AppointmentPending])

	require.Len(t, report.RevenueByDay, 3)
	assert.Equal(t, "2026-03-01", report.RevenueByDay[0].Date)
	assert.True(t, dec("197.50").Equal(report.RevenueByDay[0].Total), report.RevenueByDay[0].Total.String())
	assert.Equal(t, "2026-03-02", report.RevenueByDay[1].Date)
	assert.True(t, report.RevenueByDay[1].Total.IsZero())
	assert.True(t, dec("170.00").Equal(report.RevenueByDay[2].ServiceRevenue))

	require.Len(t, report.ByStylist, 2)
	assert.Equal(t, "Alex", report.ByStylist[0].Name)
	assert.Equal(t, 2, report.ByStylist[0].Appointments)
	assert.True(t, dec("220.00").Equal(report.ByStylist[0].Revenue))

	require.Len(t, report.TopServices, 2)
	assert.Equal(t, "Colour", report.TopServices[0].Name)
	assert.Equal(t, 2, report.TopServices[0].Count)
	assert.Equal(t, "Cut", report.TopServices[1].Name)

	require.Len(t, report.TopProducts, 1)
	assert.Equal(t, "Shampoo", report.TopProducts[0].Name)
	assert.Equal(t, 2, report.TopProducts[0].Quantity)
}

func TestSummarize_Empty(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report := Summarize(day, day, time.UTC, nil, nil, 0)

	require.Len(t, report.RevenueByDay, 1)
	assert.True(t, report.AverageTicket.IsZero())
	assert.NotNil(t, report.ByStylist)
	assert.NotNil(t, report.TopServices)
	assert.NotNil(t, report.TopProducts)
}

func TestSummarize_TopServicesCapped(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stylist := uuid.New()
	var appointments []*models.Appointment
	for i := 0; i < 12; i++ {
		price := fmt.Sprintf("%d.00", 10+i)
		appointments = append(appointments, completedAppointment(stylist, "Sam", day.Add(time.Hour),
			line(uuid.New(), fmt.Sprintf("Service %02d", i), price)))
	}

	report := Summarize(day, day, time.UTC, appointments, nil, 0)
	require.Len(t, report.TopServices, topN)
	assert.Equal(t, "Service 11", report.TopServices[0].Name)
}

func TestSummarize_BucketsByBusinessDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	// 20:00 UTC on Mar 1 is 06:00 on Mar 2 locally
	a := completedAppointment(uuid.New(), "Sam", time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), line(uuid.New(), "Cut", "40.00"))
	report := Summarize(from, to, loc, []*models.Appointment{a}, nil, 0)

	require.Len(t, report.RevenueByDay, 2)
	assert.True(t, report.RevenueByDay[0].Total.IsZero())
	assert.True(t, dec("40.00").Equal(report.RevenueByDay[1].Total))
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	due := now.Add(2 * time.Hour)

	today := []*models.Appointment{
		{Status: models.AppointmentCompleted, TotalPrice: dec("50.00"), StartAt: now.Add(-2 * time.Hour)},
		{Status: models.AppointmentConfirmed, TotalPrice: dec("80.00"), StartAt: now.Add(time.Hour)},
		{Status: models.AppointmentCancelled, TotalPrice: dec("30.00"), StartAt: now.Add(2 * time.Hour)},
	}
	orders := []*models.Order{
		{Status: models.OrderStatusCompleted, Total: dec("22.00")},
		{Status: models.OrderStatusRefunded, Total: dec("15.00")},
	}
	pending := []*models.Appointment{
		{DepositStatus: models.DepositPending, DepositAmount: dec("16.00"), DepositDueAt: &due},
		{DepositStatus: models.DepositPending, DepositAmount: dec("9.50"), DepositDueAt: &due},
	}
	var upcoming []*models.Appointment
	for i := 0; i < 7; i++ {
		upcoming = append(upcoming, &models.Appointment{
			Status:        models.AppointmentPending,
			StartAt:       now.Add(time.Duration(i+1) * time.Hour),
			DepositStatus: models.DepositPending,
			DepositDueAt:  &due,
		})
	}
	upcoming[0].Status = models.AppointmentCancelled

	report := BuildDashboard(now, time.UTC, today, orders, pending, upcoming, 3)

	assert.Equal(t, "2026-03-02", report.Date)
	assert.True(t, dec("130.00").Equal(report.ExpectedServiceRevenue))
	assert.True(t, dec("22.00").Equal(report.ProductSales))
	assert.Equal(t, 2, report.PendingDeposits)
	assert.True(t, dec("25.50").Equal(report.PendingDepositAmount))
	assert.Equal(t, 3, report.LowStockProducts)
	assert.Equal(t, 1, report.AppointmentsByStatus[models.AppointmentCancelled])

	require.Len(t, report.Upcoming, upcomingMax)
	assert.Equal(t, upcoming[1], report.Upcoming[0])
	require.NotNil(t, report.Upcoming[0].DepositSecondsRemaining)
	assert.Equal(t, int64(7200), *report.Upcoming[0].DepositSecondsRemaining)
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to string
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{name: "defaults to last 30 days", wantFrom: "2026-02-14", wantTo: "2026-03-15"},
		{name: "explicit", from: "2026-03-01", to: "2026-03-10", wantFrom: "2026-03-01", wantTo: "2026-03-10"},
		{name: "single day", from: "2026-03-01", to: "2026-03-01", wantFrom: "2026-03-01", wantTo: "2026-03-01"},
		{name: "rfc3339", from: "2026-03-01T10:00:00Z", to: "2026-03-02", wantFrom: "2026-03-01", wantTo: "2026-03-02"},
		{name: "inverted", from: "2026-03-10", to: "2026-03-01", wantErr: true},
		{name: "full year", from: "2025-01-01", to: "2025-12-31", wantFrom: "2025-01-01", wantTo: "2025-12-31"},
		{name: "too long", from: "2025-01-01", to: "2026-01-02", wantErr: true},
		{name: "garbage", from: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseRange(tt.from, tt.to, now, time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, from.Format(dateLayout))
			assert.Equal(t, tt.wantTo, to.Format(dateLayout))
		})
	}
}

func TestWriteRevenueCSV(t *testing.T) {
	report := &models.SummaryReport{RevenueByDay: []models.DailyRevenue{
		{Date: "2026-03-01", ServiceRevenue: dec("50"), ProductRevenue: dec("12.5"), Total: dec("62.5")},
		{Date: "2026-03-02", ServiceRevenue: decimal.Zero, ProductRevenue: decimal.Zero, Total: decimal.Zero},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteRevenueCSV(&buf, report))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "service_revenue", "product_revenue", "total"}, records[0])
	assert.Equal(t, []string{"2026-03-01", "50.00", "12.50", "62.50"}, records[1])
	assert.Equal(t, []string{"2026-03-02", "0.00", "0.00", "0.00"}, records[2])
}

func TestRenderSummaryPDF(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := completedAppointment(uuid.New(), "Zoë", day.Add(9*time.Hour), line(uuid.New(), "Cut", "50.00"))
	report := Summarize(day, day.AddDate(0, 0, 6), time.UTC, []*models.Appointment{a}, nil, 1)

	out, err := RenderSummaryPDF(report, "Salon Zoë", "EUR")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
