package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardReport is the at-a-glance view of the current business day.
type DashboardReport struct {
	Date                   string          `json:"date"`
	AppointmentsByStatus   map[string]int  `json:"appointments_by_status"`
	ExpectedServiceRevenue decimal.Decimal `json:"expected_service_revenue"`
	ProductSales           decimal.Decimal `json:"product_sales"`
	PendingDeposits        int             `json:"pending_deposits"`
	PendingDepositAmount   decimal.Decimal `json:"pending_deposit_amount"`
	Upcoming               []*Appointment  `json:"upcoming"`
	LowStockProducts       int             `json:"low_stock_products"`
}

// SummaryReport aggregates revenue and activity over a date range.
type SummaryReport struct {
	From                 string           `json:"from"`
	To                   string           `json:"to"`
	ServiceRevenue       decimal.Decimal  `json:"service_revenue"`
	ProductRevenue       decimal.Decimal  `json:"product_revenue"`
	TotalRevenue         decimal.Decimal  `json:"total_revenue"`
	AppointmentsByStatus map[string]int   `json:"appointments_by_status"`
	CompletedOrders      int              `json:"completed_orders"`
	AverageTicket        decimal.Decimal  `json:"average_ticket"`
	RevenueByDay         []DailyRevenue   `json:"revenue_by_day"`
	ByStylist            []StylistRevenue `json:"by_stylist"`
	TopServices          []ServiceSales   `json:"top_services"`
	TopProducts          []ProductSales   `json:"top_products"`
	NewClients           int              `json:"new_clients"`
	DepositsCollected    decimal.Decimal  `json:"deposits_collected"`
}

type DailyRevenue struct {
	Date           string          `json:"date"`
	ServiceRevenue decimal.Decimal `json:"service_revenue"`
	ProductRevenue decimal.Decimal `json:"product_revenue"`
	Total          decimal.Decimal `json:"total"`
}

type StylistRevenue struct {
	StylistID    uuid.UUID       `json:"stylist_id"`
	Name         string          `json:"name"`
	Appointments int             `json:"appointments"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type ServiceSales struct {
	ServiceID uuid.UUID       `json:"service_id"`
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type ProductSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}
