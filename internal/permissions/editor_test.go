package permissions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
)

// fakeBackend serves scripted permission data. Per-role gates let tests hold
// a load open to simulate slow responses.
type fakeBackend struct {
	mu sync.Mutex

	roles      []gateway.Role
	catalog    map[string][]string
	rowsByRole map[string][]gateway.PermissionRow

	rolesErr   error
	catalogErr error
	permsErr   error
	updateErr  error

	permGates map[string]chan struct{}

	updates     []gateway.PermissionUpdate
	updateGate  chan struct{}
	createCalls []string
	deleteCalls []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		roles: []gateway.Role{
			{Name: "Company Employee", RoleName: "Company Employee"},
			{Name: "Task Manager", RoleName: "Task Manager"},
		},
		catalog: map[string][]string{
			"Accounts": {"Invoice", "Payment Entry"},
			"HR":       {"Employee"},
		},
		rowsByRole: map[string][]gateway.PermissionRow{
			"Company Employee": {
				{DocType: "Invoice", Read: true},
			},
			"Task Manager": {
				{DocType: "Invoice", Read: true, Write: true},
				{DocType: "Employee", Read: true},
			},
		},
		permGates: make(map[string]chan struct{}),
	}
}

func (f *fakeBackend) ListRoles(ctx context.Context) ([]gateway.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return append([]gateway.Role(nil), f.roles...), nil
}

func (f *fakeBackend) CreateRole(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, name)
	f.roles = append(f.roles, gateway.Role{Name: name, RoleName: name})
	return nil
}

func (f *fakeBackend) DeleteRole(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, name)
	kept := f.roles[:0]
	for _, r := range f.roles {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	f.roles = kept
	return nil
}

func (f *fakeBackend) ModuleCatalog(ctx context.Context) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeBackend) RolePermissions(ctx context.Context, role string) ([]gateway.PermissionRow, error) {
	f.mu.Lock()
	gate := f.permGates[role]
	err := f.permsErr
	rows := append([]gateway.PermissionRow(nil), f.rowsByRole[role]...)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *fakeBackend) UpdatePermission(ctx context.Context, update gateway.PermissionUpdate) error {
	f.mu.Lock()
	f.updates = append(f.updates, update)
	gate := f.updateGate
	err := f.updateErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}

	// Upsert the row the way the backend would, so the reload after a toggle
	// reflects the write.
	f.mu.Lock()
	defer f.mu.Unlock()
	row := gateway.PermissionRow{
		DocType: update.DocType,
		Read:    update.Read != 0,
		Write:   update.Write != 0,
		Create:  update.Create != 0,
		Delete:  update.Delete != 0,
		Submit:  update.Submit != 0,
	}
	rows := f.rowsByRole[update.Role]
	for i := range rows {
		if rows[i].DocType == update.DocType {
			rows[i] = row
			f.rowsByRole[update.Role] = rows
			return nil
		}
	}
	f.rowsByRole[update.Role] = append(rows, row)
	return nil
}

func TestLoadRolesAndCatalogIndependently(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)

	require.NoError(t, e.LoadRoles(context.Background()))
	require.NoError(t, e.LoadCatalog(context.Background()))

	assert.Len(t, e.Roles(), 2)
	assert.Equal(t, []string{"Accounts", "HR"}, e.Modules())
	assert.Equal(t, []string{"Invoice", "Payment Entry"}, e.DocTypes("Accounts"))

	// A failing catalog reload must not blank the role list, and vice versa.
	backend.mu.Lock()
	backend.catalogErr = errors.NewDomainError("catalog unavailable")
	backend.mu.Unlock()

	require.Error(t, e.LoadCatalog(context.Background()))
	assert.Len(t, e.Roles(), 2)
	assert.Equal(t, []string{"Accounts", "HR"}, e.Modules(), "failed reload keeps the previous catalog")
}

func TestSelectRoleReplacesMatrix(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)

	require.NoError(t, e.SelectRole(context.Background(), "Task Manager"))
	assert.True(t, e.Row("Employee").Read)

	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))
	assert.Equal(t, "Company Employee", e.SelectedRole())
	assert.True(t, e.Row("Invoice").Read)
	assert.False(t, e.Row("Employee").Read, "previous role's rows must not survive a selection change")
}

func TestSelectRoleDropsStaleResponse(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.permGates["Task Manager"] = gate

	e := NewEditor(backend)

	// First selection hangs on the backend.
	done := make(chan error, 1)
	go func() {
		done <- e.SelectRole(context.Background(), "Task Manager")
	}()

	// Second selection completes while the first is still in flight.
	waitForSelection(t, e, "Task Manager")
	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))

	// Release the stale response; it must be discarded.
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, "Company Employee", e.SelectedRole())
	assert.False(t, e.Row("Employee").Read, "a stale load must never overwrite the current role's matrix")
	assert.True(t, e.Row("Invoice").Read)
}

// waitForSelection waits until the in-flight SelectRole has recorded its role
func waitForSelection(t *testing.T, e *Editor, role string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for e.SelectedRole() != role {
		select {
		case <-deadline:
			t.Fatalf("selection never reached %q", role)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestToggleSubmitsFullRow(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)

	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))
	require.NoError(t, e.Toggle(context.Background(), "Invoice", FlagWrite))

	require.Len(t, backend.updates, 1)
	assert.Equal(t, gateway.PermissionUpdate{
		Role:    "Company Employee",
		DocType: "Invoice",
		Read:    1,
		Write:   1,
		Create:  0,
		Delete:  0,
		Submit:  0,
	}, backend.updates[0], "the untouched flags travel with the toggled one")

	row := e.Row("Invoice")
	assert.True(t, row.Read)
	assert.True(t, row.Write)
	assert.False(t, e.Updating())
}

func TestToggleOnMissingRowStartsAllFalse(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)

	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))
	require.NoError(t, e.Toggle(context.Background(), "Payment Entry", FlagCreate))

	require.Len(t, backend.updates, 1)
	assert.Equal(t, gateway.PermissionUpdate{
		Role:    "Company Employee",
		DocType: "Payment Entry",
		Create:  1,
	}, backend.updates[0])
	assert.True(t, e.Row("Payment Entry").Create)
}

func TestToggleWhileUpdateInFlightIsRejected(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.updateGate = gate

	e := NewEditor(backend)
	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))

	done := make(chan error, 1)
	go func() {
		done <- e.Toggle(context.Background(), "Invoice", FlagWrite)
	}()

	deadline := time.After(2 * time.Second)
	for !e.Updating() {
		select {
		case <-deadline:
			t.Fatal("first toggle never started")
		case <-time.After(time.Millisecond):
		}
	}

	err := e.Toggle(context.Background(), "Invoice", FlagRead)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEditorUpdateInFlight, errors.CodeOf(err))

	close(gate)
	require.NoError(t, <-done)

	// Only the first toggle reached the backend.
	assert.Len(t, backend.updates, 1)

	// With the update settled the next toggle goes through.
	require.NoError(t, e.Toggle(context.Background(), "Invoice", FlagRead))
	assert.Len(t, backend.updates, 2)
}

func TestToggleRequiresSelection(t *testing.T) {
	e := NewEditor(newFakeBackend())

	err := e.Toggle(context.Background(), "Invoice", FlagRead)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEditorNoSelection, errors.CodeOf(err))
}

func TestToggleRejectsUnknownFlag(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)
	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))

	err := e.Toggle(context.Background(), "Invoice", "execute")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEditorUnknownFlag, errors.CodeOf(err))
	assert.Empty(t, backend.updates)
}

func TestToggleFailureLeavesMatrixAndLatchClean(t *testing.T) {
	backend := newFakeBackend()
	backend.updateErr = errors.NewDomainError("permission update rejected")

	e := NewEditor(backend)
	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))

	err := e.Toggle(context.Background(), "Invoice", FlagWrite)
	require.Error(t, err)

	row := e.Row("Invoice")
	assert.True(t, row.Read)
	assert.False(t, row.Write, "a rejected update must not change the displayed matrix")
	assert.False(t, e.Updating())

	// The latch is released, so the user can retry.
	backend.mu.Lock()
	backend.updateErr = nil
	backend.mu.Unlock()
	require.NoError(t, e.Toggle(context.Background(), "Invoice", FlagWrite))
}

func TestCreateRoleValidatesAndRefreshes(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)
	require.NoError(t, e.LoadRoles(context.Background()))

	err := e.CreateRole(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, backend.createCalls)

	require.NoError(t, e.CreateRole(context.Background(), "Reports Only"))
	assert.Equal(t, []string{"Reports Only"}, backend.createCalls)
	assert.Len(t, e.Roles(), 3)
	assert.Empty(t, e.SelectedRole(), "a new role is not auto-selected")
}

func TestDeleteSelectedRoleClearsSelection(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)

	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))
	require.NoError(t, e.DeleteRole(context.Background(), "Company Employee"))

	assert.Empty(t, e.SelectedRole())
	assert.False(t, e.Row("Invoice").Read)
	assert.Len(t, e.Roles(), 1)
}

func TestDeleteOtherRoleKeepsSelection(t *testing.T) {
	backend := newFakeBackend()
	e := NewEditor(backend)

	require.NoError(t, e.SelectRole(context.Background(), "Company Employee"))
	require.NoError(t, e.DeleteRole(context.Background(), "Task Manager"))

	assert.Equal(t, "Company Employee", e.SelectedRole())
	assert.True(t, e.Row("Invoice").Read)
}
