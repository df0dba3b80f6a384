package recs

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopgraph/shop-graph-backend/internal/recs"
)

type RecommendationsResponse struct {
	CustomerID      string                `json:"customer_id,omitempty"`
	ProductID       string                `json:"product_id,omitempty"`
	CategoryID      string                `json:"category_id,omitempty"`
	Strategy        string                `json:"strategy"`
	Recommendations []recs.Recommendation `json:"recommendations"`
}

type CustomersResponse struct {
	Customers []recs.CustomerSummary `json:"customers"`
}

type ProductsResponse struct {
	Products []recs.ProductSummary `json:"products"`
}

// Handler serves the read-only graph analytics endpoints. Every endpoint is
// a stateless parameterized query against the loaded graph.
type Handler struct {
	service *recs.Service
}

func NewHandler(service *recs.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/stats", h.HandleStats)
	r.GET("/recs/collaborative/:customer_id", h.HandleCollaborative)
	r.GET("/recs/similar/:product_id", h.HandleSimilar)
	r.GET("/recs/category/:category_id", h.HandleCategory)
	r.GET("/recs/trending", h.HandleTrending)
	r.GET("/customers", h.HandleCustomers)
	r.GET("/products", h.HandleProducts)
}

func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		log.Printf("[error] stats query: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) HandleCollaborative(c *gin.Context) {
	customerID := c.Param("customer_id")
	out, err := h.service.Collaborative(c.Request.Context(), customerID, limitParam(c))
	if err != nil {
		log.Printf("[error] collaborative recs for %s: %v", customerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, RecommendationsResponse{
		CustomerID:      customerID,
		Strategy:        "collaborative_filtering",
		Recommendations: out,
	})
}

func (h *Handler) HandleSimilar(c *gin.Context) {
	productID := c.Param("product_id")
	out, err := h.service.Similar(c.Request.Context(), productID, limitParam(c))
	if err != nil {
		log.Printf("[error] similar recs for %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, RecommendationsResponse{
		ProductID:       productID,
		Strategy:        "product_similarity",
		Recommendations: out,
	})
}

func (h *Handler) HandleCategory(c *gin.Context) {
	categoryID := c.Param("category_id")
	out, err := h.service.Category(c.Request.Context(), categoryID, limitParam(c))
	if err != nil {
		log.Printf("[error] category recs for %s: %v", categoryID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, RecommendationsResponse{
		CategoryID:      categoryID,
		Strategy:        "category_popularity",
		Recommendations: out,
	})
}

func (h *Handler) HandleTrending(c *gin.Context) {
	out, err := h.service.Trending(c.Request.Context(), limitParam(c))
	if err != nil {
		log.Printf("[error] trending recs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, RecommendationsResponse{
		Strategy:        "trending",
		Recommendations: out,
	})
}

func (h *Handler) HandleCustomers(c *gin.Context) {
	out, err := h.service.Customers(c.Request.Context())
	if err != nil {
		log.Printf("[error] customers listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, CustomersResponse{Customers: out})
}

func (h *Handler) HandleProducts(c *gin.Context) {
	out, err := h.service.Products(c.Request.Context())
	if err != nil {
		log.Printf("[error] products listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, ProductsResponse{Products: out})
}

func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return recs.DefaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return recs.DefaultLimit
	}
	return recs.ClampLimit(limit)
}
