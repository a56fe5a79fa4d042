package handlers

import (
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/ArowuTest/easyearning-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// TaskHandler handles task catalog and earning requests
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks handles GET /tasks?q=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.taskService.ListTasks(c.Request.Context(), c.Query("q")))
}

// StartTask handles POST /tasks/:id/start. For AD tasks the request stays open
// while the waterfall runs; a client disconnect abandons the run.
func (h *TaskHandler) StartTask(c *gin.Context) {
	resp, err := h.taskService.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.View != nil {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// ClaimView handles POST /tasks/views/:viewId/claim
func (h *TaskHandler) ClaimView(c *gin.Context) {
	resp, err := h.taskService.Claim(c.Request.Context(), c.Param("viewId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetStreak handles GET /me/streak
func (h *TaskHandler) GetStreak(c *gin.Context) {
	status, err := h.taskService.Streak(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// CreateTask handles POST /admin/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var in models.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.taskService.CreateTask(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /admin/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /admin/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportTasks handles POST /admin/tasks/import with a multipart "file" CSV
func (h *TaskHandler) ImportTasks(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	result, err := utils.ParseTaskCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created := h.taskService.ImportTasks(c.Request.Context(), result)
	c.JSON(http.StatusOK, gin.H{
		"totalRows": result.TotalRows,
		"created":   created,
		"errors":    result.Errors,
	})
}
