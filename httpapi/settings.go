package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kopi-store/models"
)

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.svc.Settings.Get(c.Request.Context(), s.storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateInfo(c *gin.Context) {
	var info models.StoreInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := s.svc.Settings.UpdateInfo(c.Request.Context(), s.storeID, info)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// updateHours takes the seven weekday entries as an array, Sunday first.
func (s *Server) updateHours(c *gin.Context) {
	var weekly []models.DayHours
	if err := c.ShouldBindJSON(&weekly); err != nil {
		badRequest(c, err)
		return
	}
	if len(weekly) != 7 {
		badRequest(c, errWeekLength(len(weekly)))
		return
	}
	var w models.WeeklyHours
	copy(w[:], weekly)
	settings, err := s.svc.Settings.UpdateWeeklyHours(c.Request.Context(), s.storeID, w)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updatePolicy(c *gin.Context) {
	var p models.AdmissionPolicy
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := s.svc.Settings.UpdatePolicy(c.Request.Context(), s.storeID, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) addSpecialDay(c *gin.Context) {
	var sd models.SpecialDay
	if err := c.ShouldBindJSON(&sd); err != nil {
		badRequest(c, err)
		return
	}
	sd.ID = ""
	created, err := s.svc.Settings.AddSpecialDay(c.Request.Context(), s.storeID, sd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) removeSpecialDay(c *gin.Context) {
	if err := s.svc.Settings.RemoveSpecialDay(c.Request.Context(), s.storeID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) storeStatus(c *gin.Context) {
	st, err := s.svc.Settings.Status(c.Request.Context(), s.storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type calendarDay struct {
	Date       models.Date        `json:"date"`
	Open       bool               `json:"open"`
	OpenTime   *models.TimeOfDay  `json:"open_time,omitempty"`
	CloseTime  *models.TimeOfDay  `json:"close_time,omitempty"`
	SpecialDay *models.SpecialDay `json:"special_day,omitempty"`
}

func (s *Server) calendarDay(c *gin.Context) {
	d, err := models.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	cal, err := s.svc.Settings.Calendar(c.Request.Context(), s.storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := calendarDay{Date: d, Open: cal.IsOpenOn(d)}
	if opens, closes, ok := cal.EffectiveHours(d); ok {
		resp.OpenTime, resp.CloseTime = &opens, &closes
	}
	if sd, ok := cal.SpecialDayOn(d); ok {
		resp.SpecialDay = &sd
	}
	c.JSON(http.StatusOK, resp)
}
