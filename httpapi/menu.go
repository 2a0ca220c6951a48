package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kopi-store/models"
)

func (s *Server) listMenu(c *gin.Context) {
	items, err := s.svc.Menu.List(c.Request.Context(), s.storeID, models.Category(c.Query("category")))
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, items)
}

// menuItemInStore loads the :id item, answering 404 for items of other
// stores.
func (s *Server) menuItemInStore(c *gin.Context) (*models.MenuItem, bool) {
	item, err := s.svc.Menu.GetInStore(c.Request.Context(), s.storeID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return item, true
}

func (s *Server) getMenuItem(c *gin.Context) {
	item, ok := s.menuItemInStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) createMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}
	item.StoreID = s.storeID
	created, err := s.svc.Menu.Create(c.Request.Context(), item)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := s.menuItemInStore(c); !ok {
		return
	}
	item.ID = c.Param("id")
	updated, err := s.svc.Menu.Update(c.Request.Context(), item)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) setStock(c *gin.Context) {
	var body struct {
		Stock *int `json:"stock"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.Stock == nil {
		badRequest(c, errMissingField("stock"))
		return
	}
	if _, ok := s.menuItemInStore(c); !ok {
		return
	}
	item, err := s.svc.Menu.SetStock(c.Request.Context(), c.Param("id"), *body.Stock)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) deleteMenuItem(c *gin.Context) {
	if _, ok := s.menuItemInStore(c); !ok {
		return
	}
	if err := s.svc.Menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
