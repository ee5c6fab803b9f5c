package tui

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/portalctl/internal/guard"
	"github.com/felixgeelhaar/portalctl/internal/permissions"
	"github.com/felixgeelhaar/portalctl/internal/tasks"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.quitting {
		return ""
	}

	if !m.sessions.Snapshot().Settled {
		return m.styles.Muted.Render("Restoring session...")
	}

	switch m.route {
	case guard.RouteLogin:
		return m.renderLogin()
	case guard.RouteTasks:
		return m.renderTasks()
	case guard.RouteAdmin:
		return m.renderUsers()
	case guard.RouteRoles:
		return m.renderRoles()
	default:
		return "Unknown view"
	}
}

// renderLogin renders the login form
func (m Model) renderLogin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("🔐 Company Portal"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Muted.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.emailInput.View())
	b.WriteString("\n\n")

	b.WriteString(m.styles.Muted.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.passwordInput.View())
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(m.styles.Status.Render("Signing in..."))
		b.WriteString("\n")
	}
	b.WriteString(m.renderError())

	help := []string{
		m.styles.Key.Render("tab") + " " + m.styles.KeyDesc.Render("switch field"),
		m.styles.Key.Render("enter") + " " + m.styles.KeyDesc.Render("sign in"),
		m.styles.Key.Render("esc") + " " + m.styles.KeyDesc.Render("quit"),
	}
	b.WriteString(m.styles.Help.Render(strings.Join(help, " • ")))

	return b.String()
}

// renderTasks renders the task list view
func (m Model) renderTasks() string {
	var b strings.Builder

	b.WriteString(m.renderHeader("📋 Tasks"))

	snap := m.sessions.Snapshot()
	if !tasks.CanView(snap) {
		b.WriteString(m.styles.Muted.Render("Your roles do not include task access."))
		b.WriteString("\n")
		b.WriteString(m.renderNavLine())
		return b.String()
	}

	list := m.tasks.Tasks()
	if m.busy {
		b.WriteString(m.styles.Status.Render("Loading..."))
		b.WriteString("\n\n")
	} else if len(list) == 0 {
		b.WriteString(m.styles.Muted.Render("No tasks yet"))
		b.WriteString("\n\n")
	}

	for _, task := range list {
		status := m.styles.Muted.Render(fmt.Sprintf("[%s]", task.Status))
		if task.Status == "Completed" {
			status = m.styles.Success.Render("[Completed]")
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", m.styles.Muted.Render(task.Name), task.Title, status))
	}
	b.WriteString("\n")

	if !tasks.CanManage(snap) {
		b.WriteString(m.styles.Muted.Render("(read only)"))
		b.WriteString("\n")
	}

	b.WriteString(m.renderError())
	b.WriteString(m.renderNavLine())
	return b.String()
}

// renderUsers renders the user administration view
func (m Model) renderUsers() string {
	var b strings.Builder

	b.WriteString(m.renderHeader("👥 Users"))

	users := m.console.Users()
	if m.busy {
		b.WriteString(m.styles.Status.Render("Loading..."))
		b.WriteString("\n\n")
	} else if len(users) == 0 {
		b.WriteString(m.styles.Muted.Render("No portal users"))
		b.WriteString("\n\n")
	}

	for _, user := range users {
		state := m.styles.Success.Render("enabled")
		if user.Enabled == 0 {
			state = m.styles.Error.Render("disabled")
		}
		name := strings.TrimSpace(user.FirstName + " " + user.LastName)
		b.WriteString(fmt.Sprintf("%s  %s  %s\n", user.Name, m.styles.Subtitle.Render(name), state))
	}
	b.WriteString("\n")

	b.WriteString(m.renderError())
	b.WriteString(m.renderNavLine())
	return b.String()
}

// renderRoles renders the role list and the permission matrix
func (m Model) renderRoles() string {
	var b strings.Builder

	b.WriteString(m.renderHeader("🗂  Roles & Permissions"))

	// The two loads fail independently; whichever data arrived still renders.
	if m.rolesError != "" {
		b.WriteString(m.styles.Error.Render("✗ roles: " + m.rolesError))
		b.WriteString("\n")
	}
	if m.catalogError != "" {
		b.WriteString(m.styles.Error.Render("✗ modules: " + m.catalogError))
		b.WriteString("\n")
	}
	if m.rolesError != "" || m.catalogError != "" {
		b.WriteString("\n")
	}

	roles := m.editor.Roles()
	selected := m.editor.SelectedRole()

	if len(roles) == 0 {
		b.WriteString(m.styles.Muted.Render("No roles loaded"))
		b.WriteString("\n\n")
	} else {
		var roleLine []string
		for i, role := range roles {
			label := role.RoleName
			if label == "" {
				label = role.Name
			}
			switch {
			case i == m.roleCursor:
				label = m.styles.Highlighted.Render(label)
			case role.Name == selected:
				label = m.styles.Status.Render(label)
			default:
				label = m.styles.Muted.Render(label)
			}
			roleLine = append(roleLine, label)
		}
		b.WriteString(strings.Join(roleLine, "  "))
		b.WriteString("\n\n")
	}

	if selected == "" {
		b.WriteString(m.styles.Muted.Render("Select a role (J/K to move, enter to load its matrix)"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderMatrix(selected))
	}

	if m.editor.Updating() {
		b.WriteString(m.styles.Status.Render("Saving..."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderError())

	help := []string{
		m.styles.Key.Render("J/K") + " " + m.styles.KeyDesc.Render("role"),
		m.styles.Key.Render("enter") + " " + m.styles.KeyDesc.Render("load"),
		m.styles.Key.Render("↑↓←→") + " " + m.styles.KeyDesc.Render("cell"),
		m.styles.Key.Render("space") + " " + m.styles.KeyDesc.Render("toggle"),
		m.styles.Key.Render("L") + " " + m.styles.KeyDesc.Render("logout"),
		m.styles.Key.Render("q") + " " + m.styles.KeyDesc.Render("quit"),
	}
	b.WriteString(m.styles.Help.Render(strings.Join(help, " • ")))
	return b.String()
}

// renderMatrix renders the five-flag grid for the selected role
func (m Model) renderMatrix(role string) string {
	var b strings.Builder

	b.WriteString(m.styles.Subtitle.Render("Permissions for " + role))
	b.WriteString("\n")

	header := fmt.Sprintf("%-28s", "")
	for _, flag := range permissions.FlagNames {
		header += fmt.Sprintf("%-8s", flag)
	}
	b.WriteString(m.styles.Muted.Render(header))
	b.WriteString("\n")

	lastModule := ""
	for i, row := range m.docRows {
		if row.Module != lastModule {
			b.WriteString(m.styles.Status.Render(row.Module))
			b.WriteString("\n")
			lastModule = row.Module
		}

		line := fmt.Sprintf("  %-26s", row.DocType)
		flags := m.editor.Row(row.DocType)
		values := []bool{flags.Read, flags.Write, flags.Create, flags.Delete, flags.Submit}
		for col, set := range values {
			cell := "[ ]"
			if set {
				cell = "[x]"
			}
			if i == m.rowCursor && col == m.colCursor {
				cell = m.styles.Highlighted.Render(cell)
			} else if set {
				cell = m.styles.Success.Render(cell)
			} else {
				cell = m.styles.Muted.Render(cell)
			}
			line += cell + "     "
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderHeader renders the title plus the signed-in identity
func (m Model) renderHeader(title string) string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	snap := m.sessions.Snapshot()
	if snap.Authenticated() {
		identity := m.styles.Muted.Render("Signed in as ") + m.styles.Subtitle.Render(snap.Identity)
		b.WriteString(identity)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderError renders the status line for the last failure, if any
func (m Model) renderError() string {
	if m.lastError == "" {
		return ""
	}
	return m.styles.Error.Render("✗ "+m.lastError) + "\n\n"
}

// renderNavLine renders the view switcher help line
func (m Model) renderNavLine() string {
	items := []string{
		m.styles.Key.Render("1") + " " + m.styles.KeyDesc.Render("tasks"),
	}
	if m.sessions.Snapshot().IsAdmin() {
		items = append(items,
			m.styles.Key.Render("2")+" "+m.styles.KeyDesc.Render("users"),
			m.styles.Key.Render("3")+" "+m.styles.KeyDesc.Render("roles"),
		)
	}
	items = append(items,
		m.styles.Key.Render("r")+" "+m.styles.KeyDesc.Render("refresh"),
		m.styles.Key.Render("L")+" "+m.styles.KeyDesc.Render("logout"),
		m.styles.Key.Render("q")+" "+m.styles.KeyDesc.Render("quit"),
	)
	return m.styles.Help.Render(strings.Join(items, " • "))
}
