package handler

import (
	"fmt"
	"net/http"

	"erpledger/internal/middleware"
	"erpledger/internal/model"
	"erpledger/internal/service"
	"erpledger/pkg/pagination"
	"erpledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type BOQHandler struct {
	boqService service.BOQService
}

func NewBOQHandler(boqService service.BOQService) *BOQHandler {
	return &BOQHandler{boqService: boqService}
}

func (h *BOQHandler) RegisterRoutes(router *gin.RouterGroup) {
	boqs := router.Group("/api/boqs")
	{
		boqs.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.ListBOQs)
		boqs.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.GetBOQ)
		boqs.GET("/:id/export", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.ExportBOQ)
		boqs.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateBOQ)
		boqs.POST("/import", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ImportBOQ)
		boqs.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateBOQ)
		boqs.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteBOQ)
	}
}

// CreateBOQ creates a bill of quantities with its line items
// @Summary      Create BOQ
// @Description  Creates a BOQ; item amounts, subtotal, contingency and total are computed server side
// @Tags         boqs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBOQRequest  true  "Create BOQ Payload"
// @Success      201      {object}  response.Response{data=service.BOQResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/boqs [post]
func (h *BOQHandler) CreateBOQ(c *gin.Context) {
	var req service.CreateBOQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	boq, err := h.boqService.CreateBOQ(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, boq))
}

// UpdateBOQ updates a BOQ and replaces its line items
// @Summary      Update BOQ
// @Description  Updates header fields and/or replaces line items; all derived amounts are recomputed
// @Tags         boqs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "BOQ ID"
// @Param        payload  body      service.UpdateBOQRequest  true  "Update BOQ Payload"
// @Success      200      {object}  response.Response{data=service.BOQResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/boqs/{id} [put]
func (h *BOQHandler) UpdateBOQ(c *gin.Context) {
	var req service.UpdateBOQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	boq, err := h.boqService.UpdateBOQ(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, boq))
}

// GetBOQ returns one BOQ with its line items
// @Summary      Get BOQ
// @Tags         boqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "BOQ ID"
// @Success      200  {object}  response.Response{data=service.BOQResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/boqs/{id} [get]
func (h *BOQHandler) GetBOQ(c *gin.Context) {
	boq, err := h.boqService.GetBOQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, boq))
}

// ListBOQs returns a paginated list of BOQs
// @Summary      List BOQs
// @Tags         boqs
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project"
// @Param        status      query     string  false  "Filter by status (DRAFT, SUBMITTED, APPROVED)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/boqs [get]
func (h *BOQHandler) ListBOQs(c *gin.Context) {
	p := pagination.Parse(c)

	boqs, total, err := h.boqService.ListBOQs(c.Request.Context(), service.BOQFilter{
		ProjectID: c.Query("project_id"),
		Status:    c.Query("status"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "boqs", boqs, total, p))
}

// DeleteBOQ removes a BOQ
// @Summary      Delete BOQ
// @Tags         boqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "BOQ ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/boqs/{id} [delete]
func (h *BOQHandler) DeleteBOQ(c *gin.Context) {
	if err := h.boqService.DeleteBOQ(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "BOQ deleted"}))
}

// ImportBOQ creates a BOQ from an uploaded Excel workbook
// @Summary      Import BOQ from Excel
// @Description  Multipart upload; the first sheet's rows become line items, amounts are recomputed server side
// @Tags         boqs
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file                 formData  file    true   "Workbook (.xlsx)"
// @Param        project_id           formData  string  true   "Project ID"
// @Param        contractor_name      formData  string  true   "Contractor name"
// @Param        contingency_percent  formData  string  false  "Contingency percent (default 5)"
// @Success      201  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/boqs/import [post]
func (h *BOQHandler) ImportBOQ(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close()

	req := service.ImportBOQRequest{
		ProjectID:          c.PostForm("project_id"),
		ContractorName:     c.PostForm("contractor_name"),
		ContractorContact:  c.PostForm("contractor_contact"),
		BOQDate:            c.PostForm("boq_date"),
		ContingencyPercent: c.PostForm("contingency_percent"),
		File:               file,
	}

	boq, report, err := h.boqService.ImportFromExcel(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"boq":    boq,
		"report": report,
	}))
}

// ExportBOQ streams a BOQ as an Excel workbook
// @Summary      Export BOQ to Excel
// @Tags         boqs
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path  string  true  "BOQ ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  response.Response
// @Router       /api/boqs/{id}/export [get]
func (h *BOQHandler) ExportBOQ(c *gin.Context) {
	data, filename, err := h.boqService.ExportToExcel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
