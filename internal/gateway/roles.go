package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Backend API method names for role and permission management
const (
	methodListRoles        = "company_access_portal.api.role_api.list_roles"
	methodCreateRole       = "company_access_portal.api.role_api.create_role"
	methodDeleteRole       = "company_access_portal.api.role_api.delete_role"
	methodModuleCatalog    = "company_access_portal.api.role_api.list_modules_with_doctypes"
	methodRolePermissions  = "company_access_portal.api.role_api.get_role_permissions"
	methodUpdatePermission = "company_access_portal.api.role_api.update_doctype_permission"
)

// Role is a named permission group. Name is the primary key.
type Role struct {
	Name     string `json:"name"`
	RoleName string `json:"role_name"`
}

// PermissionRow is the five-flag capability row for one document type under
// the currently queried role
type PermissionRow struct {
	DocType string
	Read    bool
	Write   bool
	Create  bool
	Delete  bool
	Submit  bool
}

// permissionWire matches the backend's row shape: the document type arrives
// in `parent`, the flags as 0/1 integers
type permissionWire struct {
	Parent string `json:"parent"`
	Read   int    `json:"read"`
	Write  int    `json:"write"`
	Create int    `json:"create"`
	Delete int    `json:"delete"`
	Submit int    `json:"submit"`
}

// PermissionUpdate is the full row submitted on every toggle. The backend
// upserts the whole row, never a single field.
type PermissionUpdate struct {
	Role    string `json:"role"`
	DocType string `json:"doctype"`
	Read    int    `json:"read"`
	Write   int    `json:"write"`
	Create  int    `json:"create"`
	Delete  int    `json:"delete"`
	Submit  int    `json:"submit"`
}

// ListRoles retrieves all roles, excluding the backend's built-in ones
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := c.callMethod(ctx, http.MethodGet, methodListRoles, nil, nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

type roleNameRequest struct {
	RoleName string `json:"role_name"`
}

// CreateRole creates a new role. Duplicate names are rejected by the backend.
func (c *Client) CreateRole(ctx context.Context, name string) error {
	return c.callMethod(ctx, http.MethodPost, methodCreateRole, nil, roleNameRequest{RoleName: name}, nil)
}

// DeleteRole deletes a role. The backend rejects the call when the role is
// still assigned; the client only surfaces that rejection.
func (c *Client) DeleteRole(ctx context.Context, name string) error {
	return c.callMethod(ctx, http.MethodPost, methodDeleteRole, nil, roleNameRequest{RoleName: name}, nil)
}

// ModuleCatalog retrieves the read-only module → document types mapping
func (c *Client) ModuleCatalog(ctx context.Context) (map[string][]string, error) {
	var catalog map[string][]string
	if err := c.callMethod(ctx, http.MethodGet, methodModuleCatalog, nil, nil, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// RolePermissions retrieves every permission row stored for the role.
// Document types without a row simply do not appear; the editor treats them
// as all-false.
func (c *Client) RolePermissions(ctx context.Context, role string) ([]PermissionRow, error) {
	query := url.Values{"role": {role}}

	var wire []permissionWire
	if err := c.callMethod(ctx, http.MethodGet, methodRolePermissions, query, nil, &wire); err != nil {
		return nil, err
	}

	rows := make([]PermissionRow, 0, len(wire))
	for _, w := range wire {
		rows = append(rows, PermissionRow{
			DocType: w.Parent,
			Read:    w.Read != 0,
			Write:   w.Write != 0,
			Create:  w.Create != 0,
			Delete:  w.Delete != 0,
			Submit:  w.Submit != 0,
		})
	}
	return rows, nil
}

// UpdatePermission upserts the full five-flag row for (role, doctype)
func (c *Client) UpdatePermission(ctx context.Context, update PermissionUpdate) error {
	return c.callMethod(ctx, http.MethodPost, methodUpdatePermission, nil, update, nil)
}
