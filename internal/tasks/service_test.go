package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
	"github.com/felixgeelhaar/portalctl/internal/session"
)

type fakeBackend struct {
	tasks   []gateway.Task
	listErr error

	listCalls   int
	created     []string
	renamed     map[string]string
	deleted     []string
	mutationErr error
}

func (f *fakeBackend) ListTasks(ctx context.Context) ([]gateway.Task, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tasks, nil
}

func (f *fakeBackend) CreateTask(ctx context.Context, title string) (gateway.Task, error) {
	if f.mutationErr != nil {
		return gateway.Task{}, f.mutationErr
	}
	f.created = append(f.created, title)
	return gateway.Task{Name: "TASK-001", Title: title, Status: "Open"}, nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, name, title string) error {
	if f.mutationErr != nil {
		return f.mutationErr
	}
	if f.renamed == nil {
		f.renamed = make(map[string]string)
	}
	f.renamed[name] = title
	return nil
}

func (f *fakeBackend) DeleteTask(ctx context.Context, name string) error {
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

type fakeSessions struct {
	snap        session.Snapshot
	invalidated int
}

func (f *fakeSessions) Snapshot() session.Snapshot { return f.snap }
func (f *fakeSessions) Invalidate()                { f.invalidated++ }

func sessionWith(roles ...string) *fakeSessions {
	return &fakeSessions{snap: session.Snapshot{
		State:    session.StateAuthenticated,
		Settled:  true,
		Identity: "user@example.com",
		Roles:    roles,
	}}
}

func TestCapabilityMatrix(t *testing.T) {
	tests := []struct {
		role      string
		canView   bool
		canManage bool
	}{
		{"Company Admin", true, true},
		{"Task Manager", true, true},
		{"Task Viewer", true, false},
		{"Reports Only", true, false},
		{"Company Employee", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			snap := sessionWith(tt.role).snap
			assert.Equal(t, tt.canView, CanView(snap))
			assert.Equal(t, tt.canManage, CanManage(snap))
		})
	}

	anon := session.Snapshot{State: session.StateAnonymous, Settled: true}
	assert.False(t, CanView(anon))
	assert.False(t, CanManage(anon))
}

func TestLoadRequiresViewCapability(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(backend, sessionWith("Company Employee"))

	err := s.Load(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsAuthFailure(err))
	assert.Zero(t, backend.listCalls, "a capability miss must not reach the backend")
}

func TestLoadPopulatesList(t *testing.T) {
	backend := &fakeBackend{tasks: []gateway.Task{
		{Name: "TASK-001", Title: "Quarterly report", Status: "Open"},
	}}
	s := NewService(backend, sessionWith("Task Viewer"))

	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Tasks(), 1)
}

func TestLoadForbiddenByBackendInvalidatesSession(t *testing.T) {
	backend := &fakeBackend{listErr: errors.NewForbiddenError()}
	sessions := sessionWith("Task Viewer")
	s := NewService(backend, sessions)

	require.Error(t, s.Load(context.Background()))
	assert.Equal(t, 1, sessions.invalidated)
}

func TestViewerCannotMutate(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(backend, sessionWith("Task Viewer"))

	assert.True(t, errors.IsAuthFailure(s.Create(context.Background(), "New task")))
	assert.True(t, errors.IsAuthFailure(s.Rename(context.Background(), "TASK-001", "Renamed")))
	assert.True(t, errors.IsAuthFailure(s.Delete(context.Background(), "TASK-001")))

	assert.Empty(t, backend.created)
	assert.Empty(t, backend.renamed)
	assert.Empty(t, backend.deleted)
}

func TestManagerLifecycle(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(backend, sessionWith("Task Manager"))

	require.NoError(t, s.Create(context.Background(), "  Quarterly report  "))
	assert.Equal(t, []string{"Quarterly report"}, backend.created, "titles are trimmed before submission")

	require.NoError(t, s.Rename(context.Background(), "TASK-001", "Annual report"))
	assert.Equal(t, "Annual report", backend.renamed["TASK-001"])

	require.NoError(t, s.Delete(context.Background(), "TASK-001"))
	assert.Equal(t, []string{"TASK-001"}, backend.deleted)

	// Every confirmed mutation refreshes the list.
	assert.Equal(t, 3, backend.listCalls)
}

func TestCreateValidatesTitle(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(backend, sessionWith("Task Manager"))

	err := s.Create(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, backend.created)
}

func TestMutationRejectionInvalidatesOnAuthzOnly(t *testing.T) {
	backend := &fakeBackend{mutationErr: errors.NewDomainError("task is locked")}
	sessions := sessionWith("Task Manager")
	s := NewService(backend, sessions)

	require.Error(t, s.Delete(context.Background(), "TASK-001"))
	assert.Zero(t, sessions.invalidated, "a domain rejection keeps the session")

	backend.mutationErr = errors.NewForbiddenError()
	require.Error(t, s.Delete(context.Background(), "TASK-001"))
	assert.Equal(t, 1, sessions.invalidated)
}
