// Package tui implements the interactive portal client.
//
// The Model is a single bubbletea state machine. Every view transition goes
// through the route guard, and every backend call runs as a tea.Cmd that
// reports back with a typed message; the Update loop itself never blocks.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/portalctl/internal/admin"
	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/guard"
	"github.com/felixgeelhaar/portalctl/internal/permissions"
	"github.com/felixgeelhaar/portalctl/internal/session"
	"github.com/felixgeelhaar/portalctl/internal/tasks"
)

// Model represents the TUI application state
type Model struct {
	// Domain view models. These own the data; the Model only renders their
	// state and forwards key presses.
	sessions *session.Manager
	tasks    *tasks.Service
	console  *admin.Console
	editor   *permissions.Editor

	// Navigation state
	route guard.Route

	// Login form state
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusPassword bool

	// Matrix cursor: which role, document type, and flag the cursor is on
	roleCursor int
	rowCursor  int
	colCursor  int
	docRows    []docRow

	// UI state
	width    int
	height   int
	ready    bool
	quitting bool
	busy     bool

	// Error state. The roles view degrades to partial data, so its two loads
	// report separately instead of sharing the general slot.
	lastError    string
	rolesError   string
	catalogError string

	// Styles
	styles Styles
}

// docRow is one rendered matrix line: a document type under its module
type docRow struct {
	Module  string
	DocType string
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Help        lipgloss.Style
	Key         lipgloss.Style
	KeyDesc     lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginBottom(1),
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(1, 2),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).  // Purple
			Foreground(lipgloss.Color("230")). // Light yellow
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
	}
}

// NewModel creates the TUI model. The session manager may be settled or not;
// Init triggers restoration either way.
func NewModel(sessions *session.Manager, taskSvc *tasks.Service, console *admin.Console, editor *permissions.Editor) Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return Model{
		sessions:      sessions,
		tasks:         taskSvc,
		console:       console,
		editor:        editor,
		route:         guard.RouteTasks,
		emailInput:    email,
		passwordInput: password,
		styles:        DefaultStyles(),
	}
}

// Custom messages for backend events

// sessionSettledMsg indicates restoration finished
type sessionSettledMsg struct{}

// loginResultMsg carries the outcome of a login attempt
type loginResultMsg struct {
	err error
}

// tasksLoadedMsg indicates the task list load finished
type tasksLoadedMsg struct {
	err error
}

// usersLoadedMsg indicates the user list load finished
type usersLoadedMsg struct {
	err error
}

// rolesLoadedMsg indicates the role list and catalog loads finished. The two
// loads are independent; either may fail while the other delivered data.
type rolesLoadedMsg struct {
	rolesErr   error
	catalogErr error
}

// loggedOutMsg indicates the logout teardown finished
type loggedOutMsg struct{}

// permissionsLoadedMsg indicates the selected role's matrix load finished
type permissionsLoadedMsg struct {
	role string
	err  error
}

// toggleResultMsg carries the outcome of a permission toggle
type toggleResultMsg struct {
	err error
}

// Init starts session restoration (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		m.sessions.Restore(context.Background())
		return sessionSettledMsg{}
	}
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case sessionSettledMsg:
		return m.navigate(m.route)

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.passwordInput.SetValue("")
		return m.navigate(guard.RouteTasks)

	case tasksLoadedMsg:
		return m.afterLoad(msg.err)

	case usersLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = msg.err.Error()
			// The backend refuses the user list to non-admins. That is a
			// routing matter, not a dead session: keep the login and send
			// the user back to the landing view.
			if errors.IsAuthFailure(msg.err) {
				return m.navigate(guard.RouteTasks)
			}
			return m, nil
		}
		m.lastError = ""
		return m.checkRoute()

	case rolesLoadedMsg:
		m.busy = false
		m.rolesError = ""
		m.catalogError = ""
		if msg.rolesErr != nil {
			m.rolesError = msg.rolesErr.Error()
		}
		if msg.catalogErr != nil {
			m.catalogError = msg.catalogErr.Error()
		}
		m.docRows = m.buildDocRows()
		return m.checkRoute()

	case loggedOutMsg:
		m.busy = false
		m.lastError = ""
		return m.navigate(guard.RouteLogin)

	case permissionsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = msg.err.Error()
		}
		return m.checkRoute()

	case toggleResultMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
		} else {
			m.lastError = ""
		}
		return m.checkRoute()
	}

	return m, nil
}

// afterLoad finishes a list load: clear the busy flag, remember the error,
// and re-check the route because a 403 may have dropped the session.
func (m Model) afterLoad(err error) (tea.Model, tea.Cmd) {
	m.busy = false
	if err != nil {
		m.lastError = err.Error()
	} else {
		m.lastError = ""
	}
	return m.checkRoute()
}

// navigate asks the guard where to go and triggers the target view's load
func (m Model) navigate(requested guard.Route) (tea.Model, tea.Cmd) {
	decision := guard.Decide(m.sessions.Snapshot(), requested)
	switch decision.Verdict {
	case guard.VerdictWait:
		return m, nil
	case guard.VerdictRedirect:
		return m.enter(decision.Target)
	default:
		return m.enter(requested)
	}
}

// checkRoute re-validates the current route against the session, without
// re-triggering the view's load. Used after backend responses that may have
// invalidated the session.
func (m Model) checkRoute() (tea.Model, tea.Cmd) {
	decision := guard.Decide(m.sessions.Snapshot(), m.route)
	if decision.Verdict == guard.VerdictRedirect {
		return m.enter(decision.Target)
	}
	return m, nil
}

// enter switches to a route the guard already approved and starts its load
func (m Model) enter(route guard.Route) (tea.Model, tea.Cmd) {
	m.route = route

	switch route {
	case guard.RouteLogin:
		m.emailInput.Focus()
		m.passwordInput.Blur()
		m.focusPassword = false
		return m, textinput.Blink

	case guard.RouteTasks:
		m.busy = true
		return m, func() tea.Msg {
			return tasksLoadedMsg{err: m.tasks.Load(context.Background())}
		}

	case guard.RouteAdmin:
		m.busy = true
		return m, func() tea.Msg {
			return usersLoadedMsg{err: m.console.LoadUsers(context.Background())}
		}

	case guard.RouteRoles:
		m.busy = true
		// Both loads always run; one failing must not block the other.
		return m, func() tea.Msg {
			return rolesLoadedMsg{
				rolesErr:   m.editor.LoadRoles(context.Background()),
				catalogErr: m.editor.LoadCatalog(context.Background()),
			}
		}
	}

	return m, nil
}

// buildDocRows flattens the module catalog into display order
func (m Model) buildDocRows() []docRow {
	var rows []docRow
	for _, module := range m.editor.Modules() {
		for _, docType := range m.editor.DocTypes(module) {
			rows = append(rows, docRow{Module: module, DocType: docType})
		}
	}
	return rows
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.route == guard.RouteLogin {
		return m.handleLoginKeys(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "1":
		return m.navigate(guard.RouteTasks)

	case "2":
		return m.navigate(guard.RouteAdmin)

	case "3":
		return m.navigate(guard.RouteRoles)

	case "r":
		return m.navigate(m.route)

	case "L":
		m.busy = true
		return m, func() tea.Msg {
			m.sessions.Logout(context.Background())
			return loggedOutMsg{}
		}
	}

	if m.route == guard.RouteRoles {
		return m.handleMatrixKeys(msg)
	}

	return m, nil
}

// handleLoginKeys routes input to the login form
func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.focusPassword = !m.focusPassword
		if m.focusPassword {
			m.emailInput.Blur()
			m.passwordInput.Focus()
		} else {
			m.passwordInput.Blur()
			m.emailInput.Focus()
		}
		return m, textinput.Blink

	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.lastError = ""
		email := m.emailInput.Value()
		password := m.passwordInput.Value()
		return m, func() tea.Msg {
			return loginResultMsg{err: m.sessions.Login(context.Background(), email, password)}
		}

	case "esc":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.focusPassword {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	} else {
		m.emailInput, cmd = m.emailInput.Update(msg)
	}
	return m, cmd
}

// handleMatrixKeys moves the matrix cursor and toggles flags
func (m Model) handleMatrixKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	roles := m.editor.Roles()

	switch msg.String() {
	case "j", "down":
		if m.rowCursor < len(m.docRows)-1 {
			m.rowCursor++
		}

	case "k", "up":
		if m.rowCursor > 0 {
			m.rowCursor--
		}

	case "h", "left":
		if m.colCursor > 0 {
			m.colCursor--
		}

	case "l", "right":
		if m.colCursor < len(permissions.FlagNames)-1 {
			m.colCursor++
		}

	case "J":
		if m.roleCursor < len(roles)-1 {
			m.roleCursor++
		}

	case "K":
		if m.roleCursor > 0 {
			m.roleCursor--
		}

	case "enter":
		if m.roleCursor < len(roles) {
			role := roles[m.roleCursor].Name
			m.busy = true
			return m, func() tea.Msg {
				return permissionsLoadedMsg{role: role, err: m.editor.SelectRole(context.Background(), role)}
			}
		}

	case " ":
		// Toggles while an update is in flight are rejected by the editor;
		// the resulting message just lands in the status line.
		if m.rowCursor < len(m.docRows) {
			docType := m.docRows[m.rowCursor].DocType
			flag := permissions.FlagNames[m.colCursor]
			return m, func() tea.Msg {
				return toggleResultMsg{err: m.editor.Toggle(context.Background(), docType, flag)}
			}
		}
	}

	return m, nil
}
