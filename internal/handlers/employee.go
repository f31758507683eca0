package handlers

import (
	"strconv"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/pagination"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// EmployeeHandler exposes the read-only directory browsing used to pick
// migration candidates.
type EmployeeHandler struct {
	service *services.EmployeeService
}

func NewEmployeeHandler(service *services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
	}
}

// GetAll lists directory records.
func (h *EmployeeHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	keyword := c.Query("keyword")
	onlyUnmigrated := c.Query("unmigrated") == "true"

	employees, total, err := h.service.GetWithPage(keyword, onlyUnmigrated, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, employees, pageInfo)
}

// GetByCode fetches one directory record.
func (h *EmployeeHandler) GetByCode(c *gin.Context) {
	code, err := strconv.ParseUint(c.Param("code"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid code")
		return
	}

	employee, err := h.service.GetByCode(uint(code))
	if err != nil {
		respondServiceError(c, err, "employee not found")
		return
	}

	response.Success(c, employee)
}
