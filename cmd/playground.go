package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/game"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/games/hotpotato"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/manifest"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/router"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/view"
)

const playChannel = "playground"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	channelBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	controlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))
)

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Drive minigames against a simulated channel",
	Long: `Starts an interactive playground hosting the enabled minigames in a
simulated chat channel. Commands:
	/potato start|toggle|delete|score    lifecycle and game commands
	click <n>                            press the n-th control of the board
	user <id>                            act as another simulated user
	exit                                 quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newPlayground()
		if err != nil {
			return err
		}
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}

// playground wires the full stack against a ChatSim: store, views, scheduler,
// lifecycle manager and router, exactly as a real platform adapter would.
type playground struct {
	sim    *platform.ChatSim
	router *router.Router
	user   platform.User
}

func newPlayground() (*playModel, error) {
	mf, err := manifest.Load([]string{viper.GetString("data_dir"), "."})
	if err != nil {
		return nil, err
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}

	sim := platform.NewChatSim()
	for _, u := range []platform.User{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	} {
		sim.AddUser(u)
	}

	views := view.NewRegistry()
	sched := game.NewScheduler()

	deps := &hotpotato.Deps{
		Messenger: sim,
		Resolver:  sim,
		Views:     views,
		Scheduler: sched,
	}
	factory := hotpotato.NewFactory(deps)
	factory.Configure(mf.GameSettings("hotpotato"))
	mgr := game.NewManager(factory, st)
	deps.Persist = mgr

	rt := router.New(mgr, views, sim, mf.OperatorChannel)
	hotpotato.RegisterCommands(rt)
	sim.SetSink(func(ic platform.Interaction) {
		rt.HandleInteraction(context.Background(), ic)
	})

	if err := mgr.LoadAll(context.Background()); err != nil {
		return nil, err
	}

	pg := &playground{
		sim:    sim,
		router: rt,
		user:   platform.User{ID: "alice", Name: "Alice"},
	}
	return newPlayModel(pg), nil
}

// execute runs one playground input line and returns local feedback, if any.
func (pg *playground) execute(input string) string {
	ctx := context.Background()
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ""
	}

	switch {
	case strings.HasPrefix(fields[0], "/"):
		module := strings.TrimPrefix(fields[0], "/")
		if module != "potato" {
			return fmt.Sprintf("Unknown module %q", module)
		}
		pg.router.HandleCommand(ctx, router.Request{
			Channel: playChannel,
			User:    pg.user,
			Args:    fields[1:],
		})
		return ""
	case fields[0] == "click":
		if len(fields) != 2 {
			return "Usage: click <n>"
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return "Usage: click <n>"
		}
		return pg.click(n)
	case fields[0] == "user":
		if len(fields) != 2 {
			return "Usage: user <id>"
		}
		name := strings.ToUpper(fields[1][:1]) + fields[1][1:]
		pg.user = platform.User{ID: fields[1], Name: name}
		pg.sim.AddUser(pg.user)
		return fmt.Sprintf("Now acting as %s", pg.user.Name)
	default:
		return fmt.Sprintf("Unknown input %q", fields[0])
	}
}

// click presses the n-th control, numbered the way the transcript labels
// them: 1-based, in reading order, across every message in posting order.
func (pg *playground) click(n int) string {
	count := 0
	for _, msg := range pg.sim.ChannelMessages(playChannel) {
		for _, row := range msg.Rows {
			for _, c := range row {
				count++
				if count == n {
					pg.sim.Click(msg.Ref.ID, c.Token, pg.user.ID)
					return ""
				}
			}
		}
	}
	if count == 0 {
		return "No message with controls in the channel"
	}
	return fmt.Sprintf("The channel only has %d controls", count)
}

// transcript renders the simulated channel: messages, their control grids,
// and the trailing notices.
func (pg *playground) transcript() string {
	var b strings.Builder
	count := 0
	for _, msg := range pg.sim.ChannelMessages(playChannel) {
		b.WriteString(msg.Content)
		b.WriteString("\n")
		for _, row := range msg.Rows {
			var cells []string
			for _, c := range row {
				count++
				label := c.Label
				if c.Emoji != "" {
					label = c.Emoji + " " + label
				}
				cells = append(cells, fmt.Sprintf("[%d] %s", count, label))
			}
			if len(cells) > 0 {
				b.WriteString(controlStyle.Render(strings.Join(cells, "  ")))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	notices := pg.sim.Notices()
	if len(notices) > 5 {
		notices = notices[len(notices)-5:]
	}
	for _, n := range notices {
		fmt.Fprintf(&b, "%s\n", infoStyle.Render("· "+n.Content))
	}
	if b.Len() == 0 {
		return "The channel is empty. Try '/potato start'."
	}
	return b.String()
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type playModel struct {
	pg        *playground
	textInput textinput.Model
	viewport  viewport.Model
	history   []string
	feedback  string
	width     int
	height    int
}

func newPlayModel(pg *playground) *playModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command (e.g., /potato start)..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	vp := viewport.New(0, 0)

	return &playModel{pg: pg, textInput: ti, viewport: vp}
}

func (m *playModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" || val == "quit" {
				return m, tea.Quit
			}
			if val != "" {
				m.history = append(m.history, val)
				m.textInput.SetValue("")
				m.feedback = m.pg.execute(val)
				m.refresh()
			}
		default:
			m.textInput, tiCmd = m.textInput.Update(msg)
		}

	case tickMsg:
		// Timers mutate the channel in the background; keep the view fresh.
		m.refresh()
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		if m.viewport.Height < 4 {
			m.viewport.Height = 4
		}
		m.refresh()
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *playModel) refresh() {
	m.viewport.SetContent(m.pg.transcript())
	m.viewport.GotoBottom()
}

func (m *playModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render(fmt.Sprintf(" br4nd0n playground | #%s | acting as %s ", playChannel, m.pg.user.Name))
	channelBox := channelBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	footer := infoStyle.Render("(esc to quit · /potato start · click <n> · user <id>)")
	if m.feedback != "" {
		footer = infoStyle.Render(m.feedback) + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		channelBox,
		m.textInput.View(),
		footer,
	)
}
