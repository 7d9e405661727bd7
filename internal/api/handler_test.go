package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fitness-booking-backend/config"
	"fitness-booking-backend/internal/booking"
	"fitness-booking-backend/internal/db"
	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/store"
)

var testNow = time.Date(2030, 5, 20, 6, 0, 0, 0, time.UTC)

type testServer struct {
	now    time.Time
	router *gin.Engine
	db     *gorm.DB
	sqlDB  *sql.DB
	store  store.Store
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts *webpush.Options) *testServer {
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	ts := &testServer{now: testNow, db: gormDB, sqlDB: sqlDB}
	ts.store = store.NewGormStore(gormDB)
	svc := booking.NewService(ts.store, booking.WithClock(func() time.Time { return ts.now }))
	ts.router = NewRouter(ts.store, svc, opts, config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	})
	return ts
}

func (ts *testServer) addClass(t *testing.T, name string, at time.Time, total, available int) model.FitnessClass {
	t.Helper()
	class := model.FitnessClass{
		Name: name, Instructor: "Test Instructor",
		ScheduledAt: at.UTC(), TotalSlots: total, AvailableSlots: available,
	}
	require.NoError(t, ts.db.Omit("Bookings").Create(&class).Error)
	return class
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Detail
}
