package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kopi-store/models"
)

const recentOrders = 5

func (s *Server) listOrders(c *gin.Context) {
	f := models.OrderFilter{
		StoreID: s.storeID,
		Status:  models.OrderStatus(c.Query("status")),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, errInvalidQuery("limit", v))
			return
		}
		f.Limit = n
	}
	orders, err := s.svc.Orders.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// orderInStore loads the :id order, answering 404 for orders of other
// stores.
func (s *Server) orderInStore(c *gin.Context) (*models.Order, bool) {
	o, err := s.svc.Orders.GetInStore(c.Request.Context(), s.storeID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return o, true
}

func (s *Server) getOrder(c *gin.Context) {
	o, ok := s.orderInStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) orderHistory(c *gin.Context) {
	if _, ok := s.orderInStore(c); !ok {
		return
	}
	h, err := s.svc.Orders.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if h == nil {
		h = []models.StatusChange{}
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) bindIntake(c *gin.Context) (models.OrderIntake, bool) {
	var in models.OrderIntake
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return in, false
	}
	in.StoreID = s.storeID
	return in, true
}

func (s *Server) placeOrder(c *gin.Context) {
	in, ok := s.bindIntake(c)
	if !ok {
		return
	}
	o, err := s.svc.Orders.Place(c.Request.Context(), in, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

type checkResponse struct {
	Accepted bool          `json:"accepted"`
	Reason   *errorBody    `json:"reason,omitempty"`
	Order    *models.Order `json:"order,omitempty"`
}

func (s *Server) checkOrder(c *gin.Context) {
	in, ok := s.bindIntake(c)
	if !ok {
		return
	}
	v, err := s.svc.Orders.Check(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := checkResponse{Accepted: v.Accepted, Order: v.Order}
	if v.Reason != nil {
		body, _ := errorCode(v.Reason)
		resp.Reason = &body
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) advanceOrder(c *gin.Context) {
	if _, ok := s.orderInStore(c); !ok {
		return
	}
	o, err := s.svc.Orders.Advance(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) cancelOrder(c *gin.Context) {
	if _, ok := s.orderInStore(c); !ok {
		return
	}
	o, err := s.svc.Orders.Cancel(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) dashboard(c *gin.Context) {
	var day models.Date
	if v := c.Query("date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		day = d
	}
	ctx := c.Request.Context()
	sum, err := s.svc.Orders.Summary(ctx, s.storeID, day)
	if err != nil {
		writeError(c, err)
		return
	}
	recent, err := s.svc.Orders.Recent(ctx, s.storeID, recentOrders)
	if err != nil {
		writeError(c, err)
		return
	}
	if recent == nil {
		recent = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum, "recent": recent})
}
