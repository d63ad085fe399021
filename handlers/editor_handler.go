package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coverage-route-server/models"
	"coverage-route-server/services"
)

type EditorHandler struct {
	sessions *services.SessionService
}

func NewEditorHandler(sessions *services.SessionService) *EditorHandler {
	return &EditorHandler{sessions: sessions}
}

func (h *EditorHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/graphs", h.ListGraphs)
	api.GET("/sessions", h.ListSessions)
	api.POST("/sessions", h.OpenSession)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.CloseSession)
	api.GET("/sessions/:id/graph", h.GetGraph)
	api.POST("/sessions/:id/commands", h.ApplyCommand)
	api.POST("/sessions/:id/undo", h.Undo)
	api.POST("/sessions/:id/redo", h.Redo)
	api.POST("/sessions/:id/circuit", h.Circuit)
	api.POST("/sessions/:id/save", h.Save)
	api.POST("/sessions/:id/completed", h.MarkCompleted)
}

func meta(start time.Time, count *int) *models.MetaData {
	return &models.MetaData{
		ProcessTime: fmt.Sprintf("%d", time.Since(start).Milliseconds()),
		ApiVersion:  apiVersion,
		ResultCount: count,
	}
}

func respond(c *gin.Context, start time.Time, status int, data interface{}) {
	c.JSON(status, models.ApiResponse{Success: true, Data: data, Meta: meta(start, nil)})
}

func fail(c *gin.Context, start time.Time, err error) {
	status, apiErr := apiError(err)
	c.JSON(status, models.ApiResponse{Success: false, Error: apiErr, Meta: meta(start, nil)})
}

func badRequest(c *gin.Context, start time.Time, err error) {
	c.JSON(http.StatusBadRequest, models.ApiResponse{
		Success: false,
		Error:   &models.ApiError{Code: "invalid_request", Message: "Invalid request body", Details: err.Error()},
		Meta:    meta(start, nil),
	})
}

func (h *EditorHandler) ListGraphs(c *gin.Context) {
	start := time.Now()
	graphs, err := h.sessions.ListGraphs(c.Request.Context())
	if err != nil {
		fail(c, start, err)
		return
	}
	count := len(graphs)
	c.JSON(http.StatusOK, models.ApiResponse{Success: true, Data: graphs, Meta: meta(start, &count)})
}

func (h *EditorHandler) ListSessions(c *gin.Context) {
	start := time.Now()
	sessions := h.sessions.Sessions()
	count := len(sessions)
	c.JSON(http.StatusOK, models.ApiResponse{Success: true, Data: sessions, Meta: meta(start, &count)})
}

func (h *EditorHandler) OpenSession(c *gin.Context) {
	start := time.Now()
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, start, err)
		return
	}

	sess, err := h.sessions.Open(c.Request.Context(), req)
	if err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusCreated, sess)
}

func (h *EditorHandler) GetSession(c *gin.Context) {
	start := time.Now()
	sess, err := h.sessions.Session(c.Param("id"))
	if err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, sess)
}

func (h *EditorHandler) CloseSession(c *gin.Context) {
	start := time.Now()
	if err := h.sessions.Close(c.Param("id")); err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, gin.H{"closed": c.Param("id")})
}

// GetGraph returns the bare GeoJSON feature collection for map clients
func (h *EditorHandler) GetGraph(c *gin.Context) {
	start := time.Now()
	fc, err := h.sessions.Graph(c.Param("id"))
	if err != nil {
		fail(c, start, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (h *EditorHandler) ApplyCommand(c *gin.Context) {
	start := time.Now()
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, start, err)
		return
	}

	resp, err := h.sessions.Apply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, resp)
}

func (h *EditorHandler) Undo(c *gin.Context) {
	start := time.Now()
	resp, err := h.sessions.Undo(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, resp)
}

func (h *EditorHandler) Redo(c *gin.Context) {
	start := time.Now()
	resp, err := h.sessions.Redo(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, resp)
}

// Circuit answers an unroutable graph with 422 and an empty route
func (h *EditorHandler) Circuit(c *gin.Context) {
	start := time.Now()
	var req models.CircuitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, start, err)
			return
		}
	}

	resp, err := h.sessions.Circuit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status, apiErr := apiError(err)
		body := models.ApiResponse{Success: false, Error: apiErr, Meta: meta(start, nil)}
		if resp.Route != nil {
			body.Data = resp
		}
		c.JSON(status, body)
		return
	}
	respond(c, start, http.StatusOK, resp)
}

func (h *EditorHandler) Save(c *gin.Context) {
	start := time.Now()
	var req models.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, start, err)
		return
	}

	if err := h.sessions.Save(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, gin.H{"saved": req.Name})
}

func (h *EditorHandler) MarkCompleted(c *gin.Context) {
	start := time.Now()
	resp, err := h.sessions.MarkCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, start, err)
		return
	}
	respond(c, start, http.StatusOK, resp)
}
