package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/service"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	domainwf "github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/memory"
)

const (
	requesterID    int64 = 10
	adminID        int64 = 20
	professionalID int64 = 30
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type apiResponse struct {
	Success   bool                  `json:"success"`
	Data      json.RawMessage       `json:"data"`
	Error     string                `json:"error"`
	Code      string                `json:"code"`
	Allowed   []domainwf.Permission `json:"allowed"`
	Retryable bool                  `json:"retryable"`
}

type requestData struct {
	Request          entity.ServiceRequest `json:"request"`
	AvailableActions []domainwf.Action     `json:"available_actions"`
}

type fixture struct {
	router *gin.Engine
	now    time.Time
}

func newFixture(t *testing.T, repo port.ServiceRequestRepository, health HealthReporter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	engine := workflow.NewEngine(repo, workflow.WithClock(func() time.Time { return f.now }))
	backfill := service.NewBackfillService(repo, migration.NewMigrator(), nopLogger{})

	server := NewServer(DefaultServerConfig(), engine, backfill, health, nopLogger{})
	f.router = server.Router()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, actorID int64, role domainwf.Role, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actorID != 0 {
		req.Header.Set(HeaderActorID, strconv.FormatInt(actorID, 10))
		req.Header.Set(HeaderActorRole, role.String())
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func decodeRequest(t *testing.T, resp apiResponse) requestData {
	t.Helper()
	var data requestData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	code, resp := f.do(t, http.MethodPost, "/api/requests", requesterID, domainwf.RoleRequester,
		CreateRequestBody{Title: "Fix leaking sink", Address: "Rua Augusta 10"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	return decodeRequest(t, resp).Request.ID
}

func TestHandlers_RequireActor(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)

	code, resp := f.do(t, http.MethodPost, "/api/requests", 0, "", CreateRequestBody{Title: "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", resp.Code)

	code, _ = f.do(t, http.MethodPost, "/api/requests", requesterID, domainwf.Role("Guest"), CreateRequestBody{Title: "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHandlers_CreateAndGet(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)
	id := f.create(t)

	code, resp := f.do(t, http.MethodGet, "/api/requests/"+id, adminID, domainwf.RoleAdministrator, nil)
	require.Equal(t, http.StatusOK, code)

	data := decodeRequest(t, resp)
	assert.Equal(t, domainwf.StatusRequested, data.Request.Status)
	assert.Equal(t, requesterID, data.Request.RequesterID)
	require.Len(t, data.Request.History, 1)
	assert.Contains(t, data.AvailableActions, domainwf.ActionAssign)
}

func TestHandlers_RoleMismatch(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)

	code, resp := f.do(t, http.MethodPost, "/api/requests", professionalID, domainwf.RoleProfessional, CreateRequestBody{Title: "x"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", resp.Code)

	id := f.create(t)
	code, _ = f.do(t, http.MethodPost, "/api/requests/"+id+"/assign", requesterID, domainwf.RoleRequester,
		AssignBody{ProfessionalID: professionalID})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHandlers_ErrorMapping(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)
	id := f.create(t)

	t.Run("not found", func(t *testing.T) {
		code, resp := f.do(t, http.MethodGet, "/api/requests/missing", adminID, domainwf.RoleAdministrator, nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "not_found", resp.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		code, resp := f.do(t, http.MethodPost, "/api/requests/"+id+"/assign", adminID, domainwf.RoleAdministrator, "{")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid_payload", resp.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		code, resp := f.do(t, http.MethodPost, "/api/requests/"+id+"/assign", adminID, domainwf.RoleAdministrator, AssignBody{})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid_payload", resp.Code)
	})

	t.Run("invalid transition lists allowed actions", func(t *testing.T) {
		code, resp := f.do(t, http.MethodPost, "/api/requests/"+id+"/finalize", adminID, domainwf.RoleAdministrator, nil)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "invalid_transition", resp.Code)
		assert.False(t, resp.Retryable)
		assert.NotEmpty(t, resp.Allowed)
	})
}

func TestHandlers_ScheduledFlow(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)
	id := f.create(t)
	base := "/api/requests/" + id

	code, resp := f.do(t, http.MethodPost, base+"/assign", adminID, domainwf.RoleAdministrator, AssignBody{ProfessionalID: professionalID})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domainwf.StatusAssigned, decodeRequest(t, resp).Request.Status)

	code, resp = f.do(t, http.MethodPost, base+"/open-confirmation", adminID, domainwf.RoleAdministrator, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)

	accepted := true
	code, resp = f.do(t, http.MethodPost, base+"/respond", professionalID, domainwf.RoleProfessional, RespondBody{Accepted: &accepted})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domainwf.StatusAccepted, decodeRequest(t, resp).Request.Status)

	code, resp = f.do(t, http.MethodPost, base+"/propose-date", professionalID, domainwf.RoleProfessional,
		ProposeDateBody{ProposedAt: f.now.Add(24 * time.Hour)})
	require.Equal(t, http.StatusOK, code, resp.Error)

	approved := true
	code, resp = f.do(t, http.MethodPost, base+"/confirm-date", requesterID, domainwf.RoleRequester, ConfirmDateBody{Approved: &approved})
	require.Equal(t, http.StatusOK, code, resp.Error)
	data := decodeRequest(t, resp)
	assert.Equal(t, domainwf.StatusDateSet, data.Request.Status)
	require.NotNil(t, data.Request.ScheduledStartAt)

	// too early
	code, resp = f.do(t, http.MethodPost, base+"/start", professionalID, domainwf.RoleProfessional, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "temporal_violation", resp.Code)

	f.now = f.now.Add(25 * time.Hour)
	code, resp = f.do(t, http.MethodPost, base+"/start", professionalID, domainwf.RoleProfessional, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domainwf.StatusInProgress, decodeRequest(t, resp).Request.Status)

	code, resp = f.do(t, http.MethodPost, base+"/finish", professionalID, domainwf.RoleProfessional, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = f.do(t, http.MethodPost, base+"/quote", adminID, domainwf.RoleAdministrator, `{"amount":"107.00"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = f.do(t, http.MethodPost, base+"/payment", adminID, domainwf.RoleAdministrator, `{"amount":"107.00","method":"pix"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	data = decodeRequest(t, resp)
	assert.Equal(t, domainwf.StatusPaymentMade, data.Request.Status)
	require.NotNil(t, data.Request.PlatformFee)
	require.NotNil(t, data.Request.ProfessionalPayout)
	assert.True(t, data.Request.PlatformFee.Add(*data.Request.ProfessionalPayout).Equal(*data.Request.QuotedAmount))

	code, resp = f.do(t, http.MethodPost, base+"/finalize", adminID, domainwf.RoleAdministrator, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	data = decodeRequest(t, resp)
	assert.Equal(t, domainwf.StatusCompleted, data.Request.Status)
	assert.Empty(t, data.AvailableActions)

	code, _ = f.do(t, http.MethodPost, base+"/cancel", adminID, domainwf.RoleAdministrator, CancelBody{Reason: "late"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestHandlers_Cancel(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)
	id := f.create(t)

	code, resp := f.do(t, http.MethodPost, "/api/requests/"+id+"/cancel", requesterID, domainwf.RoleRequester, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domainwf.StatusCancelled, decodeRequest(t, resp).Request.Status)
}

type unavailableRepo struct{}

func (unavailableRepo) Create(ctx context.Context, req *entity.ServiceRequest) (int64, error) {
	return 0, domainwf.ErrPersistenceUnavailable
}

func (unavailableRepo) Load(ctx context.Context, id string) (*entity.ServiceRequest, int64, error) {
	return nil, 0, domainwf.ErrPersistenceUnavailable
}

func (unavailableRepo) Commit(ctx context.Context, req *entity.ServiceRequest, expectedVersion int64, entry entity.StatusHistoryEntry) (int64, error) {
	return 0, domainwf.ErrPersistenceUnavailable
}

func (unavailableRepo) ListStatuses(ctx context.Context, limit, offset int) ([]port.StoredStatus, error) {
	return nil, domainwf.ErrPersistenceUnavailable
}

func TestHandlers_PersistenceUnavailable(t *testing.T) {
	f := newFixture(t, unavailableRepo{}, nil)

	code, resp := f.do(t, http.MethodGet, "/api/requests/any", adminID, domainwf.RoleAdministrator, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "persistence_unavailable", resp.Code)
	assert.True(t, resp.Retryable)

	code, _ = f.do(t, http.MethodGet, "/api/admin/status-report", adminID, domainwf.RoleAdministrator, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHandlers_ListActions(t *testing.T) {
	f := newFixture(t, memory.NewRequestStore(), nil)

	code, resp := f.do(t, http.MethodGet, "/api/actions?status=Requested&role=Administrator", 0, "", nil)
	require.Equal(t, http.StatusOK, code)
	var actions []domainwf.Action
	require.NoError(t, json.Unmarshal(resp.Data, &actions))
	assert.Contains(t, actions, domainwf.ActionAssign)

	code, _ = f.do(t, http.MethodGet, "/api/actions?status=Aguardando&role=Administrator", 0, "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandlers_StatusReportAndBackfill(t *testing.T) {
	store := memory.NewRequestStore()
	f := newFixture(t, store, nil)
	f.create(t)

	legacy := &entity.ServiceRequest{ID: "legacy-1", RequesterID: requesterID, Title: "Old", Status: domainwf.Status("Orçamento aprovado")}
	_, err := store.Create(context.Background(), legacy)
	require.NoError(t, err)

	code, _ := f.do(t, http.MethodGet, "/api/admin/status-report", requesterID, domainwf.RoleRequester, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := f.do(t, http.MethodGet, "/api/admin/status-report", adminID, domainwf.RoleAdministrator, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	var report migration.Report
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Migrated)

	code, resp = f.do(t, http.MethodPost, "/api/admin/status-backfill", adminID, domainwf.RoleAdministrator, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	var result service.BackfillResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 1, result.Updated)

	code, resp = f.do(t, http.MethodGet, "/api/requests/legacy-1", adminID, domainwf.RoleAdministrator, nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domainwf.StatusAssigned, decodeRequest(t, resp).Request.Status)
}

func TestHandlers_HealthCheck(t *testing.T) {
	healthy := newFixture(t, memory.NewRequestStore(), func(ctx context.Context) (bool, interface{}) {
		return true, map[string]string{"storage": "ok"}
	})
	code, resp := healthy.do(t, http.MethodGet, "/health", 0, "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	sick := newFixture(t, memory.NewRequestStore(), func(ctx context.Context) (bool, interface{}) {
		return false, nil
	})
	code, resp = sick.do(t, http.MethodGet, "/health", 0, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, resp.Success)
}
