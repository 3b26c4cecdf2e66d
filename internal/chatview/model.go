// Package chatview is the interactive terminal view of one conversation.
package chatview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/chat"
)

// Conversation is what the view drives. *chat.Conversation satisfies it.
type Conversation interface {
	Mount(ctx context.Context) error
	Unmount()
	Send(ctx context.Context, body string, product *internal.Product) (internal.Message, error)
	Messages() []internal.Message
	State() chat.State
	Err() error
	Changes() <-chan struct{}
	SenderID() internal.ID
	ReceiverID() internal.ID
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selfStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	peerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type mountedMsg struct{ err error }
type changedMsg struct{}
type sentMsg struct{ err error }

const chromeHeight = 5

// Model is the Bubble Tea model for a conversation
type Model struct {
	ctx   context.Context
	conv  Conversation
	title string

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	messages []internal.Message
	state    chat.State
	loadErr  error
	sendErr  error
	sending  bool
	// product is attached to the next message, then cleared
	product *internal.Product
}

// New creates the view. product, when set, is attached to the first message.
func New(ctx context.Context, conv Conversation, title string, product *internal.Product) Model {
	in := textinput.New()
	in.Placeholder = "Type a message"
	in.Prompt = "> "
	in.CharLimit = 0
	in.Width = 60
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return Model{
		ctx:      ctx,
		conv:     conv,
		title:    title,
		input:    in,
		viewport: viewport.New(80, 20),
		spin:     s,
		state:    chat.StateUninitialized,
		product:  product,
	}
}

// Init mounts the conversation and starts watching it
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, mount(m.ctx, m.conv), waitForChange(m.ctx, m.conv))
}

func mount(ctx context.Context, conv Conversation) tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{err: conv.Mount(ctx)}
	}
}

func waitForChange(ctx context.Context, conv Conversation) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-conv.Changes():
			return changedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func send(ctx context.Context, conv Conversation, body string, product *internal.Product) tea.Cmd {
	return func() tea.Msg {
		_, err := conv.Send(ctx, body, product)
		return sentMsg{err: err}
	}
}

// Update handles input and conversation events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - chromeHeight
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case mountedMsg:
		m.loadErr = msg.err
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.ctx, m.conv)

	case sentMsg:
		m.sending = false
		m.sendErr = msg.err
		if msg.err == nil {
			m.product = nil
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	body := m.input.Value()
	if m.sending || m.state != chat.StateLive {
		return m, nil
	}
	if strings.TrimSpace(body) == "" && m.product == nil {
		return m, nil
	}
	m.sending = true
	m.sendErr = nil
	m.input.Reset()
	return m, send(m.ctx, m.conv, body, m.product)
}

func (m *Model) refresh() {
	m.state = m.conv.State()
	m.messages = m.conv.Messages()
	if err := m.conv.Err(); err != nil {
		m.loadErr = err
	}
	m.viewport.SetContent(Render(m.messages, m.conv.SenderID(), m.viewport.Width))
	m.viewport.GotoBottom()
}

// View draws the conversation
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	switch m.state {
	case chat.StateUninitialized, chat.StateLoading:
		b.WriteString(m.spin.View() + " Loading messages...\n")
	case chat.StateError:
		b.WriteString(errorStyle.Render("Could not load messages: "+describe(m.loadErr)) + "\n")
	default:
		if len(m.messages) == 0 {
			b.WriteString(helpStyle.Render("No messages yet. Say hello!") + "\n")
		} else {
			b.WriteString(m.viewport.View() + "\n")
		}
	}

	if m.sendErr != nil {
		b.WriteString(errorStyle.Render("Send failed: "+describe(m.sendErr)) + "\n")
	}
	if m.product != nil {
		b.WriteString(itemStyle.Render(fmt.Sprintf("Attached: %s %s", m.product.Name, internal.FormatPrice(m.product.Price))) + "\n")
	}
	if m.sending {
		b.WriteString(m.spin.View() + " Sending...\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter to send, Esc to quit."))
	return b.String()
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	return internal.LoginHint(err)
}

// Render formats messages for display relative to the local user
func Render(messages []internal.Message, self internal.ID, width int) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		speaker := peerStyle.Render("User " + string(msg.SenderID))
		if msg.SenderID == self {
			speaker = selfStyle.Render("You")
		}
		b.WriteString(speaker)
		if !msg.Timestamp.IsZero() {
			b.WriteString(" " + timeStyle.Render(msg.Timestamp.Local().Format("Jan 02 15:04")))
		}
		b.WriteString("\n")
		if body := strings.TrimSpace(msg.Body); body != "" {
			if width > 0 {
				body = lipgloss.NewStyle().Width(width).Render(body)
			}
			b.WriteString(body + "\n")
		}
		if msg.Product != nil {
			b.WriteString(itemStyle.Render(fmt.Sprintf("Item: %s %s", msg.Product.Name, internal.FormatPrice(msg.Product.Price))) + "\n")
		}
	}
	return b.String()
}

// Run shows the view until the user quits, then unmounts the conversation
func Run(ctx context.Context, conv Conversation, title string, product *internal.Product) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conv.Unmount()

	p := tea.NewProgram(New(ctx, conv, title, product), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
