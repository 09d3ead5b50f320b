package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Coachraj/Reminder-tool/contacts"
	"github.com/Coachraj/Reminder-tool/domain"
	"github.com/Coachraj/Reminder-tool/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, broker *Broker, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(store, logger))
	e.POST("/api/tasks", postTasks(store))
	e.POST("/api/tasks/:id/complete", completeTask(store))
	e.POST("/api/tasks/:id/reopen", reopenTask(store))
	e.POST("/api/tasks/:id/items/:itemID/toggle", toggleItem(store))
	e.GET("/api/emails", getEmails(store))
	e.POST("/api/emails/:id/read", markEmailRead(store))
	e.GET("/api/settings", getSettings(store))
	e.PUT("/api/settings", putSettings(store))
	e.GET("/api/contacts", getContacts(store))
	e.POST("/api/contacts/import", importContacts(store))
	if broker != nil {
		e.GET("/api/stream", streamState(store, broker))
	}
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newListRequestMetrics("/api/tasks", logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		tasks := store.GetTasks()
		metrics.ObserveFetch(time.Since(fetchStart))
		metrics.SetItemsReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postTasks(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		lr := io.LimitReader(c.Request().Body, createTaskMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		var req createTasksRequest
		if err := dec.Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			return c.String(http.StatusBadRequest, "title is required")
		}
		if req.IntervalHours <= 0 {
			return c.String(http.StatusBadRequest, "intervalHours must be greater than zero")
		}

		assignees, errMsg := resolveAssignees(store, req)
		if errMsg != "" {
			return c.String(http.StatusBadRequest, errMsg)
		}

		settings := store.GetSettings()
		sender := strings.TrimSpace(req.SenderEmail)
		if sender == "" {
			sender = settings.SenderEmail
		}
		company := strings.TrimSpace(req.CompanyName)
		if company == "" {
			company = settings.CompanyName
		}

		created, err := store.AddTasks(ctx, domain.TaskParams{
			Title:         req.Title,
			Description:   req.Description,
			Items:         req.Items,
			SenderEmail:   sender,
			CompanyName:   company,
			IntervalHours: req.IntervalHours,
		}, assignees)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, createTasksResponse{Tasks: created})
	}
}

// resolveAssignees picks the recipient list for a creation request. Batch
// mode expands over the saved-contacts set; otherwise an explicit list or a
// single address is accepted.
func resolveAssignees(store Store, req createTasksRequest) ([]string, string) {
	if req.Batch {
		saved := store.GetContacts()
		if len(saved) == 0 {
			return nil, "batch mode requires saved contacts"
		}
		return saved, ""
	}
	if len(req.AssigneeEmails) > 0 {
		out := make([]string, 0, len(req.AssigneeEmails))
		for _, addr := range req.AssigneeEmails {
			addr = strings.TrimSpace(addr)
			if addr != "" {
				out = append(out, addr)
			}
		}
		if len(out) == 0 {
			return nil, "assigneeEmails contains no addresses"
		}
		return out, ""
	}
	addr := strings.TrimSpace(req.AssigneeEmail)
	if addr == "" {
		return nil, "assigneeEmail is required"
	}
	return []string{addr}, ""
}

func completeTask(store Store) echo.HandlerFunc {
	return setTaskStatus(store, func(t *domain.Task) { t.Complete() })
}

func reopenTask(store Store) echo.HandlerFunc {
	return setTaskStatus(store, func(t *domain.Task) { t.Reopen() })
}

func setTaskStatus(store Store, mutate func(*domain.Task)) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		task, err := store.UpdateTask(ctx, c.Param("id"), mutate)
		if err != nil {
			if errors.Is(err, storage.ErrTaskNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, task)
	}
}

func toggleItem(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		itemID := c.Param("itemID")
		found := false
		task, err := store.UpdateTask(ctx, c.Param("id"), func(t *domain.Task) {
			found = t.ToggleItem(itemID)
		})
		if err != nil {
			if errors.Is(err, storage.ErrTaskNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if !found {
			return c.String(http.StatusNotFound, "checklist item not found")
		}
		return c.JSON(http.StatusOK, task)
	}
}

func getEmails(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, emailsResponse{Emails: store.GetEmails()})
	}
}

func markEmailRead(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		email, err := store.MarkEmailRead(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrEmailNotFound) {
				return c.String(http.StatusNotFound, "email not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, email)
	}
}

func getSettings(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, store.GetSettings())
	}
}

func putSettings(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		lr := io.LimitReader(c.Request().Body, createTaskMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		var settings domain.Settings
		if err := dec.Decode(&settings); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.SetSettings(ctx, settings); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, settings)
	}
}

func getContacts(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, contactsResponse{Contacts: store.GetContacts()})
	}
}

// importContacts accepts arbitrary text content and unions every address
// found in it into the saved-contacts set. Finding nothing is not an error;
// the response just reports zero imported.
func importContacts(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		body, err := io.ReadAll(io.LimitReader(c.Request().Body, importMaxSize))
		if err != nil {
			return c.String(http.StatusBadRequest, "unreadable body")
		}
		found := contacts.Extract(string(body))
		imported := 0
		if len(found) > 0 {
			imported, err = store.AddContacts(ctx, found)
			if err != nil {
				c.Logger().Error(err)
				return c.String(http.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(http.StatusOK, importResponse{
			Imported: imported,
			Total:    len(store.GetContacts()),
		})
	}
}
