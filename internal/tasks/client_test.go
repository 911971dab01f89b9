package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/logging"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "library.db")

	client, err := NewClient(dbPath, DefaultConfig(), logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "library-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "library-tasks.db"), TasksDBPath(filepath.Join("data", "library.db")))
	assert.Equal(t, "library-tasks", TasksDBPath("library"))
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestStopWithoutStart(t *testing.T) {
	client := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type stubReconciler struct {
	mu    sync.Mutex
	calls int
	fixed int64
	err   error
	done  chan struct{}
}

func (s *stubReconciler) ReconcileBookStatuses(ctx context.Context) (int64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.fixed, s.err
}

type stubCleaner struct {
	retention time.Duration
	deleted   int64
}

func (s *stubCleaner) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	s.retention = retention
	return s.deleted, nil
}

type recordedMaintenance struct {
	action      string
	description string
	err         error
}

type stubAuditor struct {
	events []recordedMaintenance
}

func (s *stubAuditor) LogMaintenance(action, description string, err error) {
	s.events = append(s.events, recordedMaintenance{action, description, err})
}

func TestEnqueueRunsReconcile(t *testing.T) {
	client := newTestClient(t)

	reconciler := &stubReconciler{fixed: 2, done: make(chan struct{}, 1)}
	client.Register(NewReconcileBookStatusQueue(reconciler, nil, logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ctx, TypeReconcileBookStatus)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case <-reconciler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("reconcile task was not executed within timeout")
	}

	assert.Eventually(t, func() bool {
		status, err := client.Status(ctx, id)
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 50*time.Millisecond)
}

func TestEnqueueUnknownType(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Enqueue(context.Background(), "enrich_book")
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestReconcileProcessor(t *testing.T) {
	t.Run("audits success", func(t *testing.T) {
		auditor := &stubAuditor{}
		process := ReconcileBookStatusProcessor(&stubReconciler{fixed: 3}, auditor, logging.Discard())

		require.NoError(t, process(context.Background(), ReconcileBookStatusTask{}))
		require.Len(t, auditor.events, 1)
		assert.Equal(t, TypeReconcileBookStatus, auditor.events[0].action)
		assert.Equal(t, "3 book statuses corrected", auditor.events[0].description)
		assert.NoError(t, auditor.events[0].err)
	})

	t.Run("audits and returns failure", func(t *testing.T) {
		auditor := &stubAuditor{}
		boom := errors.New("database is locked")
		process := ReconcileBookStatusProcessor(&stubReconciler{err: boom}, auditor, logging.Discard())

		err := process(context.Background(), ReconcileBookStatusTask{})
		assert.ErrorIs(t, err, boom)
		require.Len(t, auditor.events, 1)
		assert.ErrorIs(t, auditor.events[0].err, boom)
	})

	t.Run("missing reconciler", func(t *testing.T) {
		process := ReconcileBookStatusProcessor(nil, nil, logging.Discard())
		assert.Error(t, process(context.Background(), ReconcileBookStatusTask{}))
	})
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &stubCleaner{deleted: 4}
	process := CleanupAuditEventsProcessor(cleaner, logging.Discard())

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, 30*24*time.Hour, cleaner.retention)
}

func TestNewTask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuditRetentionDays = 14

	task, err := NewTask(TypeCleanupAuditEvents, cfg)
	require.NoError(t, err)
	assert.Equal(t, CleanupAuditEventsTask{RetentionDays: 14}, task)

	task, err = NewTask(TypeReconcileBookStatus, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeReconcileBookStatus, task.Config().Name)
}

func TestQueueConfigs(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()
	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Retention)

	cfg = ReconcileBookStatusTask{}.Config()
	assert.Equal(t, "reconcile_book_status", cfg.Name)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Tasks{Workers: 4}, config.Audit{RetentionDays: 90})
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 90, cfg.AuditRetentionDays)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusString(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusString(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusString(backlite.TaskStatusNotFound))
}
