package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	intdb "rideshare/internal/db"
	"rideshare/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dbCheck(t *testing.T, present func(table string) bool) (*httptest.ResponseRecorder, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	for _, table := range intdb.Tables {
		rows := sqlmock.NewRows([]string{"table_name"})
		if present(table) {
			rows.AddRow(table)
		}
		mock.ExpectQuery(`FROM information_schema.tables`).WithArgs(table).WillReturnRows(rows)
	}

	h := &Handler{Store: repositories.MySQLStore{DB: db}}
	r := gin.New()
	r.GET("/api/db-check", h.DBCheck)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/db-check", nil))
	return w, mock
}

func TestDBCheckReportsMissingTables(t *testing.T) {
	w, mock := dbCheck(t, func(table string) bool { return table != "negotiation_events" })
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Error         string   `json:"error"`
		MissingTables []string `json:"missing_tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "schema incomplete", body.Error)
	assert.Equal(t, []string{"negotiation_events"}, body.MissingTables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCheckSchemaComplete(t *testing.T) {
	w, mock := dbCheck(t, func(string) bool { return true })
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
