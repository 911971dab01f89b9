package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library/internal/tasks"
)

// TaskQueue is the part of the task client the controller needs.
type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue TaskQueue
}

func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var taskDescriptions = map[string]string{
	tasks.TypeReconcileBookStatus: "Recompute every book's status from open borrow records",
	tasks.TypeCleanupAuditEvents:  "Delete audit events older than the retention period",
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := make([]TaskTypeInfo, 0, len(tasks.Types))
	for _, t := range tasks.Types {
		types = append(types, TaskTypeInfo{Type: t, Description: taskDescriptions[t]})
	}
	c.JSON(http.StatusOK, gin.H{"taskTypes": types})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	id, err := tc.queue.Enqueue(c.Request.Context(), taskType)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownTaskType) {
			respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId": id,
		"type":   taskType,
	})
}
