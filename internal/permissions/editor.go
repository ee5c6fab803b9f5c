// Package permissions implements the role permission matrix editor.
//
// The editor is a view model over the role administration API. It holds the
// role list, the module catalog, and the permission rows of the currently
// selected role. Two rules keep the matrix truthful under slow or reordered
// backend responses:
//
//  1. Loads carry a sequence number. Every role selection bumps it, and a
//     response is applied only when its number still matches, so a late
//     response for a previously selected role can never overwrite the matrix.
//  2. Toggles are strictly serialized. While one update is in flight every
//     further toggle is rejected, so the displayed matrix always reflects a
//     state the backend has confirmed.
package permissions

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
	"github.com/felixgeelhaar/portalctl/internal/log"
)

// Permission flag names as the backend spells them
const (
	FlagRead   = "read"
	FlagWrite  = "write"
	FlagCreate = "create"
	FlagDelete = "delete"
	FlagSubmit = "submit"
)

// FlagNames lists the five flags in display order
var FlagNames = []string{FlagRead, FlagWrite, FlagCreate, FlagDelete, FlagSubmit}

// Backend is the slice of the gateway the editor depends on
type Backend interface {
	ListRoles(ctx context.Context) ([]gateway.Role, error)
	CreateRole(ctx context.Context, name string) error
	DeleteRole(ctx context.Context, name string) error
	ModuleCatalog(ctx context.Context) (map[string][]string, error)
	RolePermissions(ctx context.Context, role string) ([]gateway.PermissionRow, error)
	UpdatePermission(ctx context.Context, update gateway.PermissionUpdate) error
}

// Editor is the permission matrix view model
type Editor struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger

	roles    []gateway.Role
	catalog  map[string][]string
	selected string
	rows     map[string]gateway.PermissionRow

	// loadSeq invalidates in-flight permission loads on every selection
	// change; updating serializes toggles.
	loadSeq  uint64
	updating bool
}

// EditorOption configures an Editor
type EditorOption func(*Editor)

// WithLogger sets the editor logger
func WithLogger(logger *log.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

// NewEditor creates an editor with no roles loaded and no selection
func NewEditor(backend Backend, opts ...EditorOption) *Editor {
	e := &Editor{
		backend: backend,
		logger:  log.DefaultLogger(),
		rows:    make(map[string]gateway.PermissionRow),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadRoles refreshes the role list. A failure leaves the previous list in
// place and does not touch the catalog or the matrix.
func (e *Editor) LoadRoles(ctx context.Context) error {
	roles, err := e.backend.ListRoles(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.roles = roles
	return nil
}

// LoadCatalog refreshes the module catalog. Catalog and role list load
// independently; one failing does not blank the other.
func (e *Editor) LoadCatalog(ctx context.Context) error {
	catalog, err := e.backend.ModuleCatalog(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog = catalog
	return nil
}

// SelectRole makes role the edited role and loads its permission rows. The
// previous role's rows are discarded immediately so the matrix never shows
// one role's flags under another role's name. When a newer selection happens
// while this load is still in flight, the late response is dropped.
func (e *Editor) SelectRole(ctx context.Context, role string) error {
	e.mu.Lock()
	e.loadSeq++
	seq := e.loadSeq
	e.selected = role
	e.rows = make(map[string]gateway.PermissionRow)
	e.mu.Unlock()

	rows, err := e.backend.RolePermissions(ctx, role)

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.loadSeq {
		e.logger.Debug("discarding stale permission load", "role", role)
		return nil
	}
	if err != nil {
		return err
	}

	e.applyRows(rows)
	return nil
}

// applyRows replaces the matrix content. Caller holds the lock.
func (e *Editor) applyRows(rows []gateway.PermissionRow) {
	e.rows = make(map[string]gateway.PermissionRow, len(rows))
	for _, row := range rows {
		e.rows[row.DocType] = row
	}
}

// CreateRole creates a new role and refreshes the role list. The new role is
// not auto-selected.
func (e *Editor) CreateRole(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewRequiredFieldError("role name")
	}

	if err := e.backend.CreateRole(ctx, name); err != nil {
		return err
	}
	return e.LoadRoles(ctx)
}

// DeleteRole deletes a role and refreshes the role list. Deleting the
// selected role clears the selection and the matrix.
func (e *Editor) DeleteRole(ctx context.Context, name string) error {
	if err := e.backend.DeleteRole(ctx, name); err != nil {
		return err
	}

	e.mu.Lock()
	if e.selected == name {
		e.loadSeq++
		e.selected = ""
		e.rows = make(map[string]gateway.PermissionRow)
	}
	e.mu.Unlock()

	return e.LoadRoles(ctx)
}

// Toggle flips one flag for one document type of the selected role. The
// backend upserts whole rows, so the entire five-flag row is submitted with
// the one flag flipped. A second toggle while an update is in flight is
// rejected rather than queued. After a confirmed update the role's rows are
// reloaded so the matrix shows what the backend actually stored.
func (e *Editor) Toggle(ctx context.Context, docType, flag string) error {
	e.mu.Lock()

	if e.selected == "" {
		e.mu.Unlock()
		return errors.NewNoRoleSelectedError()
	}
	if e.updating {
		e.mu.Unlock()
		return errors.NewUpdateInFlightError()
	}

	// A document type without a stored row is an all-false row.
	row := e.rows[docType]
	row.DocType = docType

	update, err := flippedRow(e.selected, row, flag)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.updating = true
	role := e.selected
	seq := e.loadSeq
	e.mu.Unlock()

	if err := e.backend.UpdatePermission(ctx, update); err != nil {
		e.mu.Lock()
		e.updating = false
		e.mu.Unlock()
		return err
	}

	rows, loadErr := e.backend.RolePermissions(ctx, role)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.updating = false

	if seq != e.loadSeq {
		// The selection moved on while the update ran; the reload belongs
		// to the old role.
		return nil
	}
	if loadErr != nil {
		return loadErr
	}

	e.applyRows(rows)
	return nil
}

// flippedRow builds the full-row update with the named flag inverted
func flippedRow(role string, row gateway.PermissionRow, flag string) (gateway.PermissionUpdate, error) {
	switch flag {
	case FlagRead:
		row.Read = !row.Read
	case FlagWrite:
		row.Write = !row.Write
	case FlagCreate:
		row.Create = !row.Create
	case FlagDelete:
		row.Delete = !row.Delete
	case FlagSubmit:
		row.Submit = !row.Submit
	default:
		return gateway.PermissionUpdate{}, errors.NewUnknownFlagError(flag)
	}

	return gateway.PermissionUpdate{
		Role:    role,
		DocType: row.DocType,
		Read:    flagBit(row.Read),
		Write:   flagBit(row.Write),
		Create:  flagBit(row.Create),
		Delete:  flagBit(row.Delete),
		Submit:  flagBit(row.Submit),
	}, nil
}

func flagBit(set bool) int {
	if set {
		return 1
	}
	return 0
}

// Roles returns the loaded role list
func (e *Editor) Roles() []gateway.Role {
	e.mu.Lock()
	defer e.mu.Unlock()

	roles := make([]gateway.Role, len(e.roles))
	copy(roles, e.roles)
	return roles
}

// Modules returns the catalog's module names in stable order
func (e *Editor) Modules() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	modules := make([]string, 0, len(e.catalog))
	for name := range e.catalog {
		modules = append(modules, name)
	}
	sort.Strings(modules)
	return modules
}

// DocTypes returns the document types of one module in stable order
func (e *Editor) DocTypes(module string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	docTypes := make([]string, len(e.catalog[module]))
	copy(docTypes, e.catalog[module])
	sort.Strings(docTypes)
	return docTypes
}

// SelectedRole returns the currently edited role, or "" when none is selected
func (e *Editor) SelectedRole() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Row returns the flags for one document type. Document types without a
// stored row come back all-false.
func (e *Editor) Row(docType string) gateway.PermissionRow {
	e.mu.Lock()
	defer e.mu.Unlock()

	row := e.rows[docType]
	row.DocType = docType
	return row
}

// Updating reports whether a permission update is in flight
func (e *Editor) Updating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updating
}
