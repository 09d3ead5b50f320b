package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Coachraj/Reminder-tool/domain"
	"github.com/Coachraj/Reminder-tool/storage"
)

type nopPersister struct{}

func (nopPersister) Save(ctx context.Context, st storage.State) error { return nil }
func (nopPersister) Load(ctx context.Context) (storage.State, bool, error) {
	return storage.State{}, false, nil
}

func newTestServer(t *testing.T) (*echo.Echo, *storage.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := storage.New(nopPersister{}, domain.NewFakeClock(time.UnixMilli(1_000)), logger)
	e := echo.New()
	Register(e, store, NewBroker(), logger)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []domain.Task {
	t.Helper()
	var resp struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Tasks
}

func TestPostTasksSingleAssignee(t *testing.T) {
	e, store := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/tasks",
		`{"title":"Q3 Report","description":"numbers","items":["draft","send"],"assigneeEmail":"a@x.com","companyName":"Acme","intervalHours":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeTasks(t, rec)
	if len(created) != 1 {
		t.Fatalf("created %d tasks", len(created))
	}
	task := created[0]
	if task.ID == "" || task.Status != domain.StatusPending || task.ReminderCount != 0 {
		t.Fatalf("task = %+v", task)
	}
	if len(task.Items) != 2 {
		t.Fatalf("items = %+v", task.Items)
	}
	if got := store.GetTasks(); len(got) != 1 {
		t.Fatalf("store holds %d tasks", len(got))
	}
}

func TestPostTasksValidation(t *testing.T) {
	e, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"assigneeEmail":"a@x.com","intervalHours":1}`},
		{"missing assignee", `{"title":"t","intervalHours":1}`},
		{"zero interval", `{"title":"t","assigneeEmail":"a@x.com","intervalHours":0}`},
		{"negative interval", `{"title":"t","assigneeEmail":"a@x.com","intervalHours":-2}`},
		{"unknown field", `{"title":"t","assigneeEmail":"a@x.com","intervalHours":1,"extra":true}`},
		{"not json", `title=t`},
	}
	for _, tc := range cases {
		rec := doJSON(t, e, http.MethodPost, "/api/tasks", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, rec.Code)
		}
	}
}

func TestPostTasksExplicitList(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/tasks",
		`{"title":"Timesheet","assigneeEmails":["a@x.com"," b@x.com ",""],"intervalHours":24}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeTasks(t, rec)
	if len(created) != 2 {
		t.Fatalf("created %d tasks", len(created))
	}
	if created[0].ID == created[1].ID {
		t.Fatal("tasks share an id")
	}
}

func TestPostTasksBatchUsesSavedContacts(t *testing.T) {
	e, store := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/tasks", `{"title":"t","batch":true,"intervalHours":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("batch without contacts: status = %d", rec.Code)
	}

	if _, err := store.AddContacts(context.Background(), []string{"a@x.com", "b@x.com"}); err != nil {
		t.Fatalf("seed contacts: %v", err)
	}
	rec = doJSON(t, e, http.MethodPost, "/api/tasks", `{"title":"t","batch":true,"intervalHours":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if created := decodeTasks(t, rec); len(created) != 2 {
		t.Fatalf("created %d tasks", len(created))
	}
}

func TestPostTasksAppliesSettingsDefaults(t *testing.T) {
	e, store := newTestServer(t)
	if err := store.SetSettings(context.Background(), domain.Settings{
		SenderEmail: "system@remindme.ai",
		CompanyName: "Acme",
	}); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	rec := doJSON(t, e, http.MethodPost, "/api/tasks",
		`{"title":"t","assigneeEmail":"a@x.com","intervalHours":1}`)
	created := decodeTasks(t, rec)
	if created[0].SenderEmail != "system@remindme.ai" || created[0].CompanyName != "Acme" {
		t.Fatalf("defaults not applied: %+v", created[0])
	}

	rec = doJSON(t, e, http.MethodPost, "/api/tasks",
		`{"title":"t","assigneeEmail":"a@x.com","companyName":"Globex","intervalHours":1}`)
	created = decodeTasks(t, rec)
	if created[0].CompanyName != "Globex" {
		t.Fatalf("explicit company overridden: %+v", created[0])
	}
}

func TestCompleteAndReopenTask(t *testing.T) {
	e, store := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/tasks",
		`{"title":"t","assigneeEmail":"a@x.com","intervalHours":1}`)
	id := decodeTasks(t, rec)[0].ID

	rec = doJSON(t, e, http.MethodPost, "/api/tasks/"+id+"/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d", rec.Code)
	}
	if store.GetTasks()[0].Status != domain.StatusCompleted {
		t.Fatal("task not completed")
	}

	rec = doJSON(t, e, http.MethodPost, "/api/tasks/"+id+"/reopen", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen: status = %d", rec.Code)
	}
	if store.GetTasks()[0].Status != domain.StatusPending {
		t.Fatal("task not reopened")
	}

	rec = doJSON(t, e, http.MethodPost, "/api/tasks/missing/complete", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: status = %d", rec.Code)
	}
}

func TestToggleItemAutoCompletes(t *testing.T) {
	e, store := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/tasks",
		`{"title":"t","assigneeEmail":"a@x.com","items":["one","two"],"intervalHours":1}`)
	task := decodeTasks(t, rec)[0]

	rec = doJSON(t, e, http.MethodPost, "/api/tasks/"+task.ID+"/items/"+task.Items[0].ID+"/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status = %d", rec.Code)
	}
	if store.GetTasks()[0].Status != domain.StatusPending {
		t.Fatal("status changed with items outstanding")
	}

	rec = doJSON(t, e, http.MethodPost, "/api/tasks/"+task.ID+"/items/"+task.Items[1].ID+"/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status = %d", rec.Code)
	}
	if store.GetTasks()[0].Status != domain.StatusCompleted {
		t.Fatal("last item toggle did not complete the task")
	}

	rec = doJSON(t, e, http.MethodPost, "/api/tasks/"+task.ID+"/items/missing/toggle", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing item: status = %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPost, "/api/tasks/missing/items/x/toggle", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: status = %d", rec.Code)
	}
}

func TestEmailsEndpoints(t *testing.T) {
	e, store := newTestServer(t)
	if _, err := store.AppendEmail(context.Background(), domain.Email{ID: "e1", Subject: "Reminder"}); err != nil {
		t.Fatalf("append email: %v", err)
	}

	rec := doJSON(t, e, http.MethodGet, "/api/emails", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Emails []domain.Email `json:"emails"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Emails) != 1 || resp.Emails[0].IsRead {
		t.Fatalf("emails = %+v", resp.Emails)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/emails/e1/read", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: status = %d", rec.Code)
	}
	if !store.GetEmails()[0].IsRead {
		t.Fatal("email not marked read")
	}

	rec = doJSON(t, e, http.MethodPost, "/api/emails/missing/read", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing email: status = %d", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPut, "/api/settings",
		`{"senderEmail":"system@remindme.ai","companyName":"Acme"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: status = %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/settings", "")
	var settings domain.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if settings.CompanyName != "Acme" || settings.SenderEmail != "system@remindme.ai" {
		t.Fatalf("settings = %+v", settings)
	}
}

func TestImportContacts(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/contacts/import",
		"name,email\nAlice,alice@example.com\nBob,BOB@corp.io\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Imported != 2 || resp.Total != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	// re-importing the same addresses is a no-op
	rec = doJSON(t, e, http.MethodPost, "/api/contacts/import", "alice@example.com bob@corp.io")
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Imported != 0 || resp.Total != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	// nothing found is informational, not an error
	rec = doJSON(t, e, http.MethodPost, "/api/contacts/import", "no addresses here")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Imported != 0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
