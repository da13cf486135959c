package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"salonhub/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// WriteRevenueCSV writes one row per day of the summary.
func WriteRevenueCSV(w io.Writer, report *models.SummaryReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "service_revenue", "product_revenue", "total"}); err != nil {
		return err
	}
	for _, d := range report.RevenueByDay {
		row := []string{d.Date, d.ServiceRevenue.StringFixed(2), d.ProductRevenue.StringFixed(2), d.Total.StringFixed(2)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderSummaryPDF lays the summary out on A4 pages.
func RenderSummaryPDF(report *models.SummaryReport, businessName, currency string) ([]byte, error) {
	money := func(d decimal.Decimal) string {
		return fmt.Sprintf("%s %s", currency, d.StringFixed(2))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	const marginX, marginY = 15.0, 15.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, tr(businessName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Summary %s to %s", report.From, report.To), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Totals", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	totals := [][2]string{
		{"Service revenue", money(report.ServiceRevenue)},
		{"Product revenue", money(report.ProductRevenue)},
		{"Total revenue", money(report.TotalRevenue)},
		{"Average ticket", money(report.AverageTicket)},
		{"Completed orders", strconv.Itoa(report.CompletedOrders)},
		{"Completed appointments", strconv.Itoa(report.AppointmentsByStatus[models.AppointmentCompleted])},
		{"Cancelled appointments", strconv.Itoa(report.AppointmentsByStatus[models.AppointmentCancelled])},
		{"No-shows", strconv.Itoa(report.AppointmentsByStatus[models.AppointmentNoShow])},
		{"New clients", strconv.Itoa(report.NewClients)},
		{"Deposits collected", money(report.DepositsCollected)},
	}
	for _, row := range totals {
		pdf.CellFormat(70, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	table := func(title string, headers []string, widths []float64, rows [][]string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
		if len(rows) == 0 {
			pdf.CellFormat(0, 7, "No data", "", 1, "L", false, 0, "")
		}
		for _, row := range rows {
			for i, cell := range row {
				align := "R"
				if i == 0 {
					align = "L"
				}
				pdf.CellFormat(widths[i], 7, tr(cell), "1", 0, align, false, 0, "")
			}
			pdf.Ln(7)
		}
		pdf.Ln(4)
	}

	var stylistRows [][]string
	for _, s := range report.ByStylist {
		stylistRows = append(stylistRows, []string{s.Name, strconv.Itoa(s.Appointments), money(s.Revenue)})
	}
	table("By stylist", []string{"Stylist", "Appointments", "Revenue"}, []float64{80, 40, 50}, stylistRows)

	var serviceRows [][]string
	for _, s := range report.TopServices {
		serviceRows = append(serviceRows, []string{s.Name, strconv.Itoa(s.Count), money(s.Revenue)})
	}
	table("Top services", []string{"Service", "Count", "Revenue"}, []float64{80, 40, 50}, serviceRows)

	var productRows [][]string
	for _, p := range report.TopProducts {
		productRows = append(productRows, []string{p.Name, strconv.Itoa(p.Quantity), money(p.Revenue)})
	}
	table("Top products", []string{"Product", "Quantity", "Revenue"}, []float64{80, 40, 50}, productRows)

	var dayRows [][]string
	for _, d := range report.RevenueByDay {
		dayRows = append(dayRows, []string{d.Date, money(d.ServiceRevenue), money(d.ProductRevenue), money(d.Total)})
	}
	table("Revenue by day", []string{"Date", "Services", "Products", "Total"}, []float64{40, 45, 45, 45}, dayRows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
