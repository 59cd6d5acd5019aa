package handler

import (
	"net/http"
	"strconv"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/repository"

	"github.com/gin-gonic/gin"
)

type ExcursionHandler struct {
	excursionRepo *repository.ExcursionRepository
}

func NewExcursionHandler(excursionRepo *repository.ExcursionRepository) *ExcursionHandler {
	return &ExcursionHandler{excursionRepo: excursionRepo}
}

func (h *ExcursionHandler) List(c *gin.Context) {
	out, err := h.excursionRepo.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"excursions": out})
}

func (h *ExcursionHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid excursion id"})
		return
	}
	exc, err := h.excursionRepo.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "excursion not found"})
		return
	}
	c.JSON(http.StatusOK, exc)
}
