package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	testingpkg "github.com/aristath/rfqdesk/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	err  error
	runs int
}

func (j *stubJob) Name() string { return j.name }
func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func TestScheduler_AddJobAndRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &stubJob{name: "ok"}
	failing := &stubJob{name: "failing", err: errors.New("boom")}

	require.NoError(t, s.AddJob("@every 1h", ok))
	require.NoError(t, s.AddJob("0 3 * * *", failing))
	assert.True(t, s.Has("ok"))

	require.NoError(t, s.RunNow("ok"))
	assert.EqualError(t, s.RunNow("failing"), "boom")
	assert.Error(t, s.RunNow("missing"))

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "failing", status[0].Name)
	assert.Equal(t, "boom", status[0].LastErr)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, "ok", status[1].Name)
	assert.Empty(t, status[1].LastErr)
	assert.False(t, status[1].LastRun.IsZero())
}

func TestScheduler_AddJobRejects(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", &stubJob{name: "bad"}))
	assert.False(t, s.Has("bad"))

	require.NoError(t, s.AddJob("@hourly", &stubJob{name: "dup"}))
	assert.Error(t, s.AddJob("@hourly", &stubJob{name: "dup"}))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	s.Start()
	s.Stop()
}

func TestCheckWALCheckpointsJob(t *testing.T) {
	db, _ := testingpkg.NewTestDB(t, "procurement")
	job := NewCheckWALCheckpointsJob(db, zerolog.Nop())

	assert.Equal(t, "check_wal_checkpoints", job.Name())
	assert.NoError(t, job.Run())
}

func TestCheckWALCheckpointsJob_NoDatabase(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil, zerolog.Nop())
	assert.NoError(t, job.Run())
}

type MockBackuper struct {
	mock.Mock
}

func (m *MockBackuper) Backup(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func TestBackupDatabaseJob(t *testing.T) {
	backups := new(MockBackuper)
	backups.On("Backup", mock.Anything).Return("rfqdesk/rfqdesk-backup-2026-10-18-030000.tar.gz", nil).Once()
	backups.On("Backup", mock.Anything).Return("", errors.New("upload failed")).Once()

	job := NewBackupDatabaseJob(backups, time.Minute, zerolog.Nop())
	assert.Equal(t, "backup_database", job.Name())
	assert.NoError(t, job.Run())
	assert.EqualError(t, job.Run(), "upload failed")
	backups.AssertExpectations(t)
}
