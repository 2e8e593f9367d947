package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/application/service"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles daily/range report HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Daily returns the aggregate report for one local day (default today).
func (h *ReportHandler) Daily(c *gin.Context) {
	date, err := parseReportDate(c.Query("date"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.reportService.GenerateDailyReport(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Daily report generated", report)
}

// DailyDownload serves the daily report as a downloadable JSON file named
// tagesbericht-<YYYY-MM-DD>.json, the shape the accountant's tooling expects.
func (h *ReportHandler) DailyDownload(c *gin.Context) {
	date, err := parseReportDate(c.Query("date"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.reportService.GenerateDailyReport(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("tagesbericht-%s.json", date.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(200, "application/json; charset=utf-8", body)
}

// Range returns the aggregate report for an inclusive date window.
func (h *ReportHandler) Range(c *gin.Context) {
	start, end, err := parseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.reportService.GenerateRangeReport(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Range report generated", report)
}

func parseReportDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return time.Time{}, errInvalidDate("date")
	}
	return date, nil
}
