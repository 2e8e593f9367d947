package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/application/service"
	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/internal/domain/repository"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/dto/request"
	"github.com/gastrokasse/fiskal-api/internal/presentation/http/dto/response"
	"github.com/gastrokasse/fiskal-api/pkg/export"
	"github.com/gastrokasse/fiskal-api/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceiptHandler handles fiscal receipt HTTP requests
type ReceiptHandler struct {
	fiscalService *service.FiscalService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(fiscalService *service.FiscalService) *ReceiptHandler {
	return &ReceiptHandler{fiscalService: fiscalService}
}

// Create handles the order-completion event: it builds, signs and
// persists the fiscal receipt for the posted order.
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req request.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid receipt payload: "+err.Error())
		return
	}

	input := &service.CreateReceiptInput{
		PaymentMethod: enum.PaymentMethod(req.PaymentMethod),
		CashierName:   req.CashierName,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Category: enum.ProductCategory(item.Category),
		})
	}

	receipt, err := h.fiscalService.CreateReceipt(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Fiscal receipt created", receipt)
}

// List returns stored receipts. Without a date range the listing is
// paginated newest first; with start_date and end_date it returns the
// receipts of the window oldest first.
func (h *ReceiptHandler) List(c *gin.Context) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if startStr != "" || endStr != "" {
		start, end, err := parseDateRange(startStr, endStr)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		receipts, err := h.fiscalService.ListReceiptsByDateRange(c.Request.Context(), start, end)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "Receipts retrieved successfully", receipts)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))

	result, err := h.fiscalService.ListReceipts(c.Request.Context(), &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Receipts retrieved successfully", result)
}

// Get returns a single receipt by id.
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.fiscalService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// Cancel soft-cancels a receipt.
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.fiscalService.CancelReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt cancelled", receipt)
}

// Export streams matching receipts as a CSV or JSON download.
func (h *ReceiptHandler) Export(c *gin.Context) {
	filter := repository.ExportFilter{}

	if startStr := c.Query("start_date"); startStr != "" {
		start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
		if err != nil {
			response.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		filter.Start = &start
	}
	if endStr := c.Query("end_date"); endStr != "" {
		end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
		if err != nil {
			response.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		_, endOfDay := service.DayBounds(end)
		filter.End = &endOfDay
	}
	if methodStr := c.Query("payment_method"); methodStr != "" {
		method := enum.PaymentMethod(methodStr)
		if !method.Valid() {
			response.BadRequest(c, "Invalid payment_method")
			return
		}
		filter.PaymentMethod = &method
	}

	var fields []string
	if fieldsStr := c.Query("fields"); fieldsStr != "" {
		fields = strings.Split(fieldsStr, ",")
	}

	receipts, err := h.fiscalService.ExportReceipts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch export.Format(c.DefaultQuery("format", "json")) {
	case export.FormatCSV:
		body, err := export.ToCSV(receipts, fields)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="fiscal-receipts.csv"`)
		c.Data(200, "text/csv; charset=utf-8", []byte(body))
	case export.FormatJSON:
		body, err := export.ToJSON(receipts, fields)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="fiscal-receipts.json"`)
		c.Data(200, "application/json; charset=utf-8", body)
	default:
		response.BadRequest(c, "Invalid format, expected csv or json")
	}
}

// parseDateRange turns YYYY-MM-DD query values into an inclusive local
// time window spanning whole days.
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate("start_date")
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate("end_date")
	}
	dayStart, _ := service.DayBounds(start)
	_, dayEnd := service.DayBounds(end)
	return dayStart, dayEnd, nil
}

type errInvalidDate string

func (e errInvalidDate) Error() string {
	return "Invalid " + string(e) + ", expected YYYY-MM-DD"
}
