package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"qvmdis/internal/analysis"
	"qvmdis/internal/qvmdis/styles"
	"qvmdis/internal/render"
	"qvmdis/internal/ui/colorize"
)

var browseCmd = &cobra.Command{
	Use:   "browse [file]",
	Short: "Browse functions interactively",
	Long:  "Open a terminal browser with the image summary, the function list and per-function listings.",
	Example: `
qvmdis browse --map cgame.map cgame.qvm
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		program := tea.NewProgram(
			newBrowser(args[0], opts),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		final, err := program.Run()
		if err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		if b, ok := final.(browser); ok && b.err != nil {
			return b.err
		}
		return nil
	},
}

type viewMode int

const (
	viewInfo viewMode = iota
	viewFunctions
	viewCode
)

type funcItem struct {
	hash analysis.FuncHash
	name string
}

func (i funcItem) Title() string {
	return fmt.Sprintf("%08x  %s", i.hash.Offset, i.label())
}

func (i funcItem) Description() string { return "" }

func (i funcItem) FilterValue() string {
	return fmt.Sprintf("%x %s", i.hash.Offset, i.label())
}

func (i funcItem) label() string {
	if i.name != "" {
		return i.name
	}
	return fmt.Sprintf("sub_%x", i.hash.Entry)
}

type funcDelegate struct{}

func (d funcDelegate) Height() int                               { return 1 }
func (d funcDelegate) Spacing() int                              { return 0 }
func (d funcDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d funcDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(funcItem)
	if !ok {
		return
	}

	indicator, addr := " ", styles.Dim
	if index == m.Index() {
		indicator, addr = ">", styles.Selected
	}
	name := styles.FuncName.Render(i.label())
	if i.name == "" {
		name = styles.Dim.Render(i.label())
	}
	fmt.Fprintf(w, " %s  %s  %s  %s",
		indicator,
		addr.Render(fmt.Sprintf("%08x", i.hash.Offset)),
		name,
		styles.Dim.Render(fmt.Sprintf("(%d)", i.hash.Size)))
}

type sessionMsg struct {
	s   *session
	err error
}

func loadSessionCmd(path string, opts options) tea.Cmd {
	return func() tea.Msg {
		s, err := openSession(path, opts)
		return sessionMsg{s: s, err: err}
	}
}

type browser struct {
	info    viewport.Model
	funcs   list.Model
	code    viewport.Model
	spinner spinner.Model
	mode    viewMode
	path    string
	opts    options
	s       *session
	err     error
	width   int
	height  int
}

func newBrowser(path string, opts options) browser {
	info := viewport.New()
	info.SetWidth(80)
	info.SetHeight(24)
	code := viewport.New()
	code.SetWidth(80)
	code.SetHeight(24)

	funcs := list.New([]list.Item{}, funcDelegate{}, 80, 24)
	funcs.SetShowStatusBar(false)
	funcs.SetFilteringEnabled(true)
	funcs.Title = "Functions"
	funcs.Styles.Title = styles.Title
	funcs.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Selected

	b := browser{
		info:    info,
		funcs:   funcs,
		code:    code,
		spinner: s,
		path:    path,
		opts:    opts,
		width:   80,
		height:  24,
	}
	b.updateInfo()
	return b
}

func (b browser) Init() tea.Cmd {
	return tea.Batch(loadSessionCmd(b.path, b.opts), b.spinner.Tick)
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case sessionMsg:
		if msg.err != nil {
			b.err = msg.err
			return b, tea.Quit
		}
		b.s = msg.s
		b.updateFunctions()
		b.updateInfo()
		return b, nil

	case spinner.TickMsg:
		if b.s != nil {
			return b, nil
		}
		b.spinner, cmd = b.spinner.Update(msg)
		b.updateInfo()
		return b, cmd

	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.info.SetWidth(msg.Width)
		b.info.SetHeight(msg.Height - 2)
		b.funcs.SetWidth(msg.Width)
		b.funcs.SetHeight(msg.Height - 2)
		b.code.SetWidth(msg.Width)
		b.code.SetHeight(msg.Height - 2)
		b.updateInfo()

	case tea.KeyMsg:
		if b.mode == viewFunctions && b.funcs.FilterState() == list.Filtering {
			if k := msg.String(); k == "ctrl+c" {
				return b, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "i":
			b.mode = viewInfo
			return b, nil
		case "f":
			if b.s != nil {
				b.mode = viewFunctions
			}
			return b, nil
		case "enter":
			if b.mode == viewFunctions {
				if item, ok := b.funcs.SelectedItem().(funcItem); ok {
					b.showFunction(item)
				}
			}
			return b, nil
		case "tab":
			if b.s != nil {
				b.mode = (b.mode + 1) % 3
			}
			return b, nil
		case "shift+tab":
			if b.s != nil {
				b.mode = (b.mode + 2) % 3
			}
			return b, nil
		}
	}

	switch b.mode {
	case viewFunctions:
		b.funcs, cmd = b.funcs.Update(msg)
	case viewCode:
		b.code, cmd = b.code.Update(msg)
	default:
		b.info, cmd = b.info.Update(msg)
	}
	return b, cmd
}

func (b browser) View() string {
	var content, menu string
	switch b.mode {
	case viewFunctions:
		content = b.funcs.View()
		menu = " Enter: view code • I: info • Tab: cycle • Q: quit "
	case viewCode:
		content = b.code.View()
		menu = " F: functions • I: info • Tab: cycle • Q: quit "
	default:
		content = b.info.View()
		if b.s != nil {
			menu = " F: functions • Tab: cycle • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}
	return content + "\n" + styles.MenuBar.Width(b.width).Render(menu)
}

func (b *browser) updateInfo() {
	var md string
	if b.s == nil {
		md = fmt.Sprintf("# %s\n\n%s Decoding...", b.path, b.spinner.View())
	} else {
		md = infoMarkdown(b.path, b.s)
	}
	if !b.opts.color {
		b.info.SetContent(md)
		return
	}
	width := b.width
	if width == 0 {
		width = 80
	}
	rendered, err := styles.GetMarkdownRenderer(width - 2).Render(md)
	if err != nil {
		rendered = md
	}
	b.info.SetContent(strings.TrimSuffix(rendered, "\n"))
}

func (b *browser) updateFunctions() {
	items := make([]list.Item, 0, len(b.s.hashes))
	for _, h := range b.s.hashes {
		name, _ := b.s.names.Function(int32(h.Entry))
		items = append(items, funcItem{hash: h, name: name})
	}
	b.funcs.SetItems(items)
	b.funcs.Title = fmt.Sprintf("Functions (%d total)", len(items))
}

func (b *browser) showFunction(item funcItem) {
	var sb strings.Builder
	if err := render.Instructions(&sb, b.s.functionListing(item.hash)); err != nil {
		return
	}
	text := strings.TrimPrefix(sb.String(), "\n")
	if b.opts.color && colorize.Enabled() {
		if hl, err := colorize.Listing(text); err == nil {
			text = hl
		}
	}
	b.code.SetContent(text + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(styles.ColorComment)).Render("// "+item.hash.Hash))
	b.code.GotoTop()
	b.mode = viewCode
}
