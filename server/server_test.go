package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpline-scheduler/config"
	"helpline-scheduler/coverage"
	"helpline-scheduler/models"
	"helpline-scheduler/risk"
	"helpline-scheduler/store"
)

const testPassword = "let-me-in"

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "test.db"), log.Default())
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		AdminPassword:   testPassword,
		DepartmentOrder: config.DefaultDepartmentOrder,
		Coverage:        coverage.Config{Queue: "988/CRISIS", Minimum: 2, Preferred: 3},
		Risk:            risk.DefaultConfig(),
	}

	ts := httptest.NewServer(New(st, cfg, log.Default()).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url string, body any, admin bool) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if admin {
		req.Header.Set(adminHeader, testPassword)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestEmployeeEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("create requires admin", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/employees",
			models.Employee{Name: "Nope"}, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create and list", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/employees",
			models.Employee{Name: "Ana Lopez, (covers 211)", Position: "Crisis Counselor", Department: "988/CRISIS"}, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeBody[models.Employee](t, resp)
		assert.Equal(t, "Ana Lopez", created.DisplayName)

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/employees", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		employees := decodeBody[[]models.Employee](t, resp)
		require.Len(t, employees, 1)
		assert.Equal(t, created.ID, employees[0].ID)
	})

	t.Run("positions are deduplicated", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/employees",
			models.Employee{Name: "Ben Ochoa", Position: "crisis counselor", Department: "988/CRISIS"}, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/positions", nil, false)
		positions := decodeBody[[]string](t, resp)
		assert.Len(t, positions, 1)
	})

	t.Run("filter by position and department", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet,
			ts.URL+"/api/employees/by-position/"+url.PathEscape("Crisis Counselor"), nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeBody[[]models.Employee](t, resp), 2)

		resp = doJSON(t, http.MethodGet,
			ts.URL+"/api/employees/by-department/"+url.PathEscape("211 HELPLINE"), nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decodeBody[[]models.Employee](t, resp))
	})
}

func TestShiftEditEndpoint(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	emp, err := st.CreateEmployee(ctx, models.Employee{Name: "Cara Diaz", Department: "988/CRISIS"})
	require.NoError(t, err)
	url := ts.URL + "/api/employee/" + itoa(emp.ID) + "/schedule/monday"

	t.Run("requires admin", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, url, map[string]string{"shift_time": "8a-5p"}, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid range persists", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, url, map[string]string{"shift_time": "8a-5p"}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cells, err := st.ShiftCells(ctx)
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "8a-5p", cells[0].Value)
	})

	t.Run("zero length rejected, previous value kept", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, url, map[string]string{"shift_time": "9a-9a"}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		cells, err := st.ShiftCells(ctx)
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "8a-5p", cells[0].Value)
	})

	t.Run("sentinel replaces range", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, url, map[string]string{"shift_time": "OFF"}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cells, err := st.ShiftCells(ctx)
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "OFF", cells[0].Value)
	})

	t.Run("empty value deletes the cell", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, url, map[string]string{"shift_time": ""}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cells, err := st.ShiftCells(ctx)
		require.NoError(t, err)
		assert.Empty(t, cells)
	})

	t.Run("unknown day rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, ts.URL+"/api/employee/"+itoa(emp.ID)+"/schedule/blursday",
			map[string]string{"shift_time": "8a-5p"}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestScheduleAndAvailability(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	emp, err := st.CreateEmployee(ctx, models.Employee{Name: "Dana Wells", Position: "Crisis Counselor", Department: "988/CRISIS"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateShiftCell(ctx, emp.ID, "monday", "8a-5p"))

	t.Run("schedule view", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/schedule", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		view := decodeBody[map[string]any](t, resp)
		groups, ok := view["groups"].([]any)
		require.True(t, ok)
		require.Len(t, groups, 1)
	})

	t.Run("availability conflict", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet,
			ts.URL+"/api/employees/available?day=monday&start_time=9a&end_time=1p", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		results := decodeBody[[]models.EmployeeAvailability](t, resp)
		require.Len(t, results, 1)
		assert.Equal(t, models.StatusConflict, results[0].Status)
		assert.Equal(t, 240, results[0].OverlapMinutes)
	})

	t.Run("availability missing params", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/employees/available?day=monday", nil, false)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTimeOffEndpoints(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	emp, err := st.CreateEmployee(ctx, models.Employee{Name: "Eve Park", Department: "211 HELPLINE"})
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/timeoff", map[string]any{
		"employee_id": emp.ID,
		"type":        "vacation",
		"start_date":  "2026-09-07",
		"end_date":    "2026-09-09",
	}, false)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.TimeOffRequest](t, resp)
	assert.Equal(t, models.TimeOffPending, created.Status)

	t.Run("resolve requires admin", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, ts.URL+"/api/timeoff/"+created.ID,
			map[string]string{"status": "approved"}, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("approve then terminal", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, ts.URL+"/api/timeoff/"+created.ID,
			map[string]string{"status": "approved"}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, http.MethodPatch, ts.URL+"/api/timeoff/"+created.ID,
			map[string]string{"status": "denied"}, true)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("conflicts from scheduled shifts", func(t *testing.T) {
		require.NoError(t, st.UpdateShiftCell(ctx, emp.ID, "monday", "8a-5p"))

		resp := doJSON(t, http.MethodGet, ts.URL+
			"/api/timeoff/conflicts?employee_id="+itoa(emp.ID)+
			"&start_date=2026-09-14&end_date=2026-09-16", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[map[string][]string](t, resp)
		// 2026-09-14 is a Monday.
		assert.Equal(t, []string{"2026-09-14"}, body["conflicts"])
	})
}

func TestAdminVerify(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/verify",
		map[string]string{"password": testPassword}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[map[string]bool](t, resp)["authenticated"])

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/admin/verify",
		map[string]string{"password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCoverageAndInsights(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	emp, err := st.CreateEmployee(ctx, models.Employee{Name: "Finn Ray", Position: "Crisis Counselor", Department: "988/CRISIS"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateShiftCell(ctx, emp.ID, "monday", "9a-5p"))

	t.Run("coverage detail reports gaps", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/coverage/detail", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		gaps := decodeBody[[]coverage.Gap](t, resp)
		assert.NotEmpty(t, gaps)
	})

	t.Run("insights return both analytics", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/insights", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]any](t, resp)
		assert.Contains(t, body, "risk")
		assert.Contains(t, body, "coverage")
	})
}

func TestAnnouncementEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/announcements", map[string]string{
		"title":   "Holiday hours",
		"content": "Closed Thursday",
		"date":    "2026-11-26",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Announcement](t, resp)
	assert.Equal(t, "normal", created.Type)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/announcements", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]models.Announcement](t, resp), 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/announcements/"+created.ID, nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
