package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"depot-api/domain"
)

type updateTaskResponse struct {
	Task domain.Task `json:"task"`
	// Effect reports the outcome of the inventory side effect, present only
	// when the update completed a task that carries a query payload.
	Effect *effectResult `json:"effect,omitempty"`
}

type taskMoveRequest struct {
	NewStatus   domain.TaskStatus `json:"new_status"`
	NewAssignee *string           `json:"new_assignee"`
}

func postTask(tasks TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req domain.TaskCreate
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := tasks.Create(req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func getTasks(tasks TaskStore, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newBoardRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		fetchStart := time.Now()
		board := tasks.All()
		metrics.ObserveFetch(time.Since(fetchStart))
		count := 0
		for _, byUser := range board {
			for _, list := range byUser {
				count += len(list)
			}
		}
		metrics.SetTasksReturned(count)

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, board)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getUserTasks(tasks TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, tasks.ForUser(c.Param("user")))
	}
}

// applyTaskUpdate runs a task patch and, when the patch completes a task
// carrying a query payload, attempts its inventory effect. The task update is
// durable before the effect runs; an effect failure is reported in the
// response but never rolls the task back.
func applyTaskUpdate(c echo.Context, tasks TaskStore, inv InventoryStore, deduper Deduper, logger *log.Logger, id string, patch domain.TaskUpdate) error {
	task, prevStatus, err := tasks.Update(id, patch)
	if err != nil {
		return respondError(c, err)
	}
	resp := updateTaskResponse{Task: task}
	if task.Status == domain.StatusDone && prevStatus != domain.StatusDone && len(task.Query) > 0 {
		resp.Effect = applyEffect(c.Request().Context(), inv, deduper, task, logger)
	}
	return c.JSON(http.StatusOK, resp)
}

func putTask(tasks TaskStore, inv InventoryStore, auth Authenticator, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var patch domain.TaskUpdate
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		return applyTaskUpdate(c, tasks, inv, deduper, logger, c.Param("id"), patch)
	}
}

func postTaskMove(tasks TaskStore, inv InventoryStore, auth Authenticator, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req taskMoveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		status := req.NewStatus
		patch := domain.TaskUpdate{Status: &status, AssignedTo: req.NewAssignee}
		return applyTaskUpdate(c, tasks, inv, deduper, logger, c.Param("id"), patch)
	}
}

func deleteTask(tasks TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := tasks.Delete(c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "task deleted successfully"})
	}
}
