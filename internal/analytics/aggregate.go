package analytics

import (
	"sort"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout  = "2006-01-02"
	topN        = 10
	upcomingMax = 5
)

// Summarize folds the appointments and orders of a period into a summary.
// Days are [from, to] inclusive, both given as midnight in loc. Revenue counts
// completed appointments and completed orders only; status counts cover every
// appointment that starts in the period.
func Summarize(from, to time.Time, loc *time.Location, appointments []*models.Appointment, orders []*models.Order, newClients int) *models.SummaryReport {
	report := &models.SummaryReport{
		From:                 from.Format(dateLayout),
		To:                   to.Format(dateLayout),
		ServiceRevenue:       decimal.Zero,
		ProductRevenue:       decimal.Zero,
		TotalRevenue:         decimal.Zero,
		AppointmentsByStatus: emptyStatusCounts(),
		AverageTicket:        decimal.Zero,
		RevenueByDay:         []models.DailyRevenue{},
		ByStylist:            []models.StylistRevenue{},
		TopServices:          []models.ServiceSales{},
		TopProducts:          []models.ProductSales{},
		NewClients:           newClients,
		DepositsCollected:    decimal.Zero,
	}

	days := make(map[string]*models.DailyRevenue)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		days[key] = &models.DailyRevenue{Date: key, ServiceRevenue: decimal.Zero, ProductRevenue: decimal.Zero, Total: decimal.Zero}
		report.RevenueByDay = append(report.RevenueByDay, models.DailyRevenue{Date: key})
	}

	stylists := make(map[uuid.UUID]*models.StylistRevenue)
	services := make(map[uuid.UUID]*models.ServiceSales)
	tickets := 0

	for _, a := range appointments {
		report.AppointmentsByStatus[a.Status]++
		if a.DepositStatus == models.DepositReceived {
			report.DepositsCollected = report.DepositsCollected.Add(a.DepositAmount)
		}
		if a.Status != models.AppointmentCompleted {
			continue
		}
		tickets++
		report.ServiceRevenue = report.ServiceRevenue.Add(a.TotalPrice)
		if d, ok := days[a.StartAt.In(loc).Format(dateLayout)]; ok {
			d.ServiceRevenue = d.ServiceRevenue.Add(a.TotalPrice)
		}

		s, ok := stylists[a.StylistID]
		if !ok {
			s = &models.StylistRevenue{StylistID: a.StylistID, Name: a.StylistName, Revenue: decimal.Zero}
			stylists[a.StylistID] = s
		}
		s.Appointments++
		s.Revenue = s.Revenue.Add(a.TotalPrice)

		for _, line := range a.Services {
			ss, ok := services[line.ServiceID]
			if !ok {
				ss = &models.ServiceSales{ServiceID: line.ServiceID, Name: line.ServiceName, Revenue: decimal.Zero}
				services[line.ServiceID] = ss
			}
			ss.Count++
			ss.Revenue = ss.Revenue.Add(line.Price)
		}
	}

	products := make(map[uuid.UUID]*models.ProductSales)
	for _, o := range orders {
		if o.Status != models.OrderStatusCompleted {
			continue
		}
		tickets++
		report.CompletedOrders++
		report.ProductRevenue = report.ProductRevenue.Add(o.Total)
		if d, ok := days[o.CreatedAt.In(loc).Format(dateLayout)]; ok {
			d.ProductRevenue = d.ProductRevenue.Add(o.Total)
		}
		for _, item := range o.Items {
			p, ok := products[item.ProductID]
			if !ok {
				p = &models.ProductSales{ProductID: item.ProductID, Name: item.ProductName, Revenue: decimal.Zero}
				products[item.ProductID] = p
			}
			p.Quantity += item.Quantity
			p.Revenue = p.Revenue.Add(item.LineTotal)
		}
	}

	for i := range report.RevenueByDay {
		d := days[report.RevenueByDay[i].Date]
		d.Total = d.ServiceRevenue.Add(d.ProductRevenue)
		report.RevenueByDay[i] = *d
	}

	report.TotalRevenue = report.ServiceRevenue.Add(report.ProductRevenue)
	if tickets > 0 {
		report.AverageTicket = report.TotalRevenue.Div(decimal.NewFromInt(int64(tickets))).Round(2)
	}

	for _, s := range stylists {
		report.ByStylist = append(report.ByStylist, *s)
	}
	sort.Slice(report.ByStylist, func(i, j int) bool {
		a, b := report.ByStylist[i], report.ByStylist[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})

	for _, s := range services {
		report.TopServices = append(report.TopServices, *s)
	}
	sort.Slice(report.TopServices, func(i, j int) bool {
		a, b := report.TopServices[i], report.TopServices[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(report.TopServices) > topN {
		report.TopServices = report.TopServices[:topN]
	}

	for _, p := range products {
		report.TopProducts = append(report.TopProducts, *p)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(report.TopProducts) > topN {
		report.TopProducts = report.TopProducts[:topN]
	}

	return report
}

// BuildDashboard assembles today's view. today holds the appointments that
// start on the business day, upcoming those starting from now on in start
// order, pending the appointments still waiting for a deposit.
func BuildDashboard(now time.Time, loc *time.Location, today []*models.Appointment, orders []*models.Order, pending []*models.Appointment, upcoming []*models.Appointment, lowStock int) *models.DashboardReport {
	report := &models.DashboardReport{
		Date:                   now.In(loc).Format(dateLayout),
		AppointmentsByStatus:   emptyStatusCounts(),
		ExpectedServiceRevenue: decimal.Zero,
		ProductSales:           decimal.Zero,
		PendingDeposits:        len(pending),
		PendingDepositAmount:   decimal.Zero,
		Upcoming:               []*models.Appointment{},
		LowStockProducts:       lowStock,
	}

	for _, a := range today {
		report.AppointmentsByStatus[a.Status]++
		if models.IsBlockingStatus(a.Status) {
			report.ExpectedServiceRevenue = report.ExpectedServiceRevenue.Add(a.TotalPrice)
		}
	}
	for _, o := range orders {
		if o.Status == models.OrderStatusCompleted {
			report.ProductSales = report.ProductSales.Add(o.Total)
		}
	}
	for _, a := range pending {
		report.PendingDepositAmount = report.PendingDepositAmount.Add(a.DepositAmount)
	}
	for _, a := range upcoming {
		if len(report.Upcoming) == upcomingMax {
			break
		}
		if a.Status != models.AppointmentPending && a.Status != models.AppointmentConfirmed {
			continue
		}
		if a.StartAt.Before(now) {
			continue
		}
		a.FillDepositCountdown(now)
		report.Upcoming = append(report.Upcoming, a)
	}
	return report
}

func emptyStatusCounts() map[string]int {
	return map[string]int{
		models.AppointmentPending:   0,
		models.AppointmentConfirmed: 0,
		models.AppointmentCompleted: 0,
		models.AppointmentCancelled: 0,
		models.AppointmentNoShow:    0,
	}
}

// dayBounds returns midnight of t's calendar day in loc and the following midnight.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
