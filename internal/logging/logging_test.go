package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingHandler struct {
	level   slog.Level
	records []slog.Record
}

func (r *recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= r.level }
func (r *recordingHandler) Handle(_ context.Context, rec slog.Record) error {
	r.records = append(r.records, rec)
	return nil
}
func (r *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *recordingHandler) WithGroup(string) slog.Handler      { return r }

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var buf bytes.Buffer
	errorsOnly := &recordingHandler{level: slog.LevelError}
	log := slog.New(newHandler(&buf, slog.LevelInfo, errorsOnly))

	log.Info("appointment created", "action", "appointment.create")
	log.Error("appointment operation failed", "action", "appointment.create")

	assert.Len(t, errorsOnly.records, 1)
	assert.Equal(t, "appointment operation failed", errorsOnly.records[0].Message)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestToSystemLogMapsKnownKeys(t *testing.T) {
	rec := slog.NewRecord(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelError, "appointment operation failed", 0)
	rec.AddAttrs(
		slog.String("action", "appointment.cancel"),
		slog.String("appointment_id", "a-1"),
		slog.String("error", "boom"),
		slog.Float64("latency_ms", 12.6),
		slog.String("therapist_id", "t-1"),
	)

	entry := toSystemLog(rec, []slog.Attr{slog.String("request_id", "req-9"), slog.String("user_id", "u-1")})

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "appointment.cancel", entry.Action)
	assert.Equal(t, "req-9", entry.RequestID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	require.NotNil(t, entry.AppointmentID)
	assert.Equal(t, "a-1", *entry.AppointmentID)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, 13, entry.LatencyMs)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "t-1", extra["therapist_id"])
}

func TestPGHandlerOnlyErrors(t *testing.T) {
	h := &PGHandler{}
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPurgeDeletesOldLogs(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	now := time.Date(2030, 3, 31, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "system_logs" WHERE timestamp <`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	assert.Equal(t, int64(4), purge(db, 30, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingHandler struct{ recordingHandler }

func (f *failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandlerKeepsGoingAfterSinkFailure(t *testing.T) {
	broken := &failingHandler{recordingHandler{level: slog.LevelDebug}}
	healthy := &recordingHandler{level: slog.LevelDebug}
	h := NewMultiHandler(broken, nil, healthy)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "appointment operation failed", 0))
	assert.EqualError(t, err, "sink down")
	assert.Len(t, healthy.records, 1)
}
