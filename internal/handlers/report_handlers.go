package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"salonhub/internal/analytics"
	"salonhub/internal/common"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves the dashboard and period summaries
type ReportHandlers struct {
	reportService analytics.ReportService
	tenantService services.TenantService
}

func NewReportHandlers(reportService analytics.ReportService, tenantService services.TenantService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService, tenantService: tenantService}
}

// Dashboard handles GET /v1/reports/dashboard
func (h *ReportHandlers) Dashboard(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	report, err := h.reportService.Dashboard(c.Request().Context(), actor.TenantID)
	if err != nil {
		return common.HandleError(c, "load dashboard", err)
	}
	return c.JSON(http.StatusOK, report)
}

// Summary handles GET /v1/reports/summary?from=&to=
func (h *ReportHandlers) Summary(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	report, err := h.reportService.Summary(c.Request().Context(), actor.TenantID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return common.HandleError(c, "load summary", err)
	}
	return c.JSON(http.StatusOK, report)
}

// SummaryCSV handles GET /v1/reports/summary.csv
func (h *ReportHandlers) SummaryCSV(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	report, err := h.reportService.Summary(c.Request().Context(), actor.TenantID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return common.HandleError(c, "export summary", err)
	}
	var buf bytes.Buffer
	if err := analytics.WriteRevenueCSV(&buf, report); err != nil {
		return common.HandleError(c, "export summary", err)
	}

	filename := fmt.Sprintf("revenue_%s_%s.csv", report.From, report.To)
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

// SummaryPDF handles GET /v1/reports/summary.pdf
func (h *ReportHandlers) SummaryPDF(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	ctx := c.Request().Context()

	tenant, err := h.tenantService.Get(ctx, actor.TenantID)
	if err != nil {
		return common.HandleError(c, "export summary", err)
	}
	report, err := h.reportService.Summary(ctx, actor.TenantID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return common.HandleError(c, "export summary", err)
	}
	pdf, err := analytics.RenderSummaryPDF(report, tenant.Name, tenant.Currency)
	if err != nil {
		return common.HandleError(c, "export summary", err)
	}

	filename := fmt.Sprintf("summary_%s_%s.pdf", report.From, report.To)
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
