// internal/handlers/supplier.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trendora/admin-backend/internal/models"
	"github.com/trendora/admin-backend/internal/services"
	"github.com/trendora/admin-backend/internal/utils"
)

type SupplierHandler struct {
	supplierService *services.SupplierService
	productService  *services.ProductService
}

func NewSupplierHandler(supplierService *services.SupplierService, productService *services.ProductService) *SupplierHandler {
	return &SupplierHandler{
		supplierService: supplierService,
		productService:  productService,
	}
}

// GET /admin/suppliers
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.supplierService.ListSuppliers(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// POST /admin/suppliers/:id/approve
func (h *SupplierHandler) ApproveSupplier(c *gin.Context) {
	h.setSupplierStatus(c, models.ApprovalStatusApproved)
}

// POST /admin/suppliers/:id/reject
func (h *SupplierHandler) RejectSupplier(c *gin.Context) {
	h.setSupplierStatus(c, models.ApprovalStatusRejected)
}

func (h *SupplierHandler) setSupplierStatus(c *gin.Context, status models.ApprovalStatus) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid supplier ID", nil)
		return
	}

	supplier, err := h.supplierService.SetSupplierStatus(id, status)
	if err != nil {
		utils.NotFoundResponse(c, "supplier")
		return
	}

	utils.SuccessResponse(c, supplier)
}

// GET /admin/supplier-products
func (h *SupplierHandler) GetSupplierProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.supplierService.ListSupplierProducts(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /admin/supplier-products/:id
func (h *SupplierHandler) GetSupplierProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid supplier product ID", nil)
		return
	}

	product, err := h.productService.GetSupplierProduct(id)
	if err != nil {
		utils.NotFoundResponse(c, "supplier product")
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /admin/supplier-products/:id/approve
func (h *SupplierHandler) ApproveSupplierProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid supplier product ID", nil)
		return
	}

	var req services.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.supplierService.ApproveSupplierProduct(id, req.Remarks)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /admin/supplier-products/:id/reject
func (h *SupplierHandler) RejectSupplierProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid supplier product ID", nil)
		return
	}

	var req services.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.supplierService.RejectSupplierProduct(id, req.Remarks)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /admin/supplier-products/:id
func (h *SupplierHandler) DeleteSupplierProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid supplier product ID", nil)
		return
	}

	if err := h.supplierService.DeleteSupplierProduct(id); err != nil {
		utils.NotFoundResponse(c, "supplier product")
		return
	}

	c.Status(http.StatusNoContent)
}
