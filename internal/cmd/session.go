package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/pagelist/internal/adapter"
	"github.com/charmbracelet/pagelist/internal/app"
	"github.com/charmbracelet/pagelist/internal/cheese"
	"github.com/charmbracelet/pagelist/internal/diff"
	"github.com/charmbracelet/pagelist/internal/log"
	"github.com/charmbracelet/pagelist/internal/ui/list"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const (
	defaultSessionHeight = 10
	sessionWidth         = 60
)

const sessionHelp = `Start a line-oriented session over the live list. Mutations are queued and
applied in the background; the visible rows follow every change.

Commands:
  add NAME      queue an insert
  rm [POS]      queue a delete of the row at POS, or of the selection
  sel POS       select the row at POS
  up [N]        move the selection up
  down [N]      move the selection down
  top, bottom   jump to the first or last row
  get POS       print the row at POS
  show          print the visible rows
  stats         print loader and surface counters
  quit          leave the session`

func init() {
	sessionCmd.Flags().IntP("height", "H", defaultSessionHeight, "Number of rows shown")
	sessionCmd.Flags().Bool("diff", false, "Print a diff of the visible rows after every update")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start an interactive session",
	Long:  sessionHelp,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCmd(cmd)
	},
}

func runSessionCmd(cmd *cobra.Command) error {
	height, _ := cmd.Flags().GetInt("height")
	showDiff, _ := cmd.Flags().GetBool("diff")
	if height <= 0 {
		return fmt.Errorf("invalid height %d", height)
	}

	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	s := newSession(a, cmd.OutOrStdout(), height, showDiff)
	lipgloss.Fprintln(s.out, faintStyle.Render("Type help for commands."))
	return s.run(cmd.Context(), cmd.InOrStdin())
}

var errQuit = errors.New("quit")

// session owns the list surface. Every surface call happens on the
// goroutine running run.
type session struct {
	app      *app.App
	list     *list.List
	ad       *adapter.Adapter[cheese.Cheese]
	styles   list.Styles
	out      io.Writer
	showDiff bool
	logger   *slog.Logger

	view string
}

func newSession(a *app.App, out io.Writer, height int, showDiff bool) *session {
	s := &session{
		app:      a,
		styles:   list.DefaultStyles(),
		out:      out,
		showDiff: showDiff,
		logger:   slog.Default().With("component", "session"),
	}
	s.list = list.New(s.bind)
	s.list.SetSize(sessionWidth, height)
	s.list.Focus()
	s.ad = a.Present(s.list)
	return s
}

func (s *session) bind(pos int) list.Item {
	c, ok := s.ad.ItemAt(pos)
	if !ok {
		s.logger.Debug("Bind placeholder", "position", pos)
		return list.NewPlaceholderItem(s.styles.Placeholder)
	}
	s.logger.Debug("Bind", "position", pos, "id", c.ID)
	return list.NewStringItem(c.Name).WithStyles(s.styles.Normal, s.styles.Selected)
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer log.RecoverPanic("session.input", nil)
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	results := s.app.Mutations.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := s.exec(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				lipgloss.Fprintln(s.out, errStyle.Render("error:"), err.Error())
			}
		case u, ok := <-s.ad.Updates():
			if !ok {
				return nil
			}
			s.apply(u)
		case evt, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			printResult(s.out, evt)
		}
	}
}

// apply dispatches u to the list and redraws it.
func (s *session) apply(u adapter.Update[cheese.Cheese]) {
	before := s.view
	if !s.ad.Apply(u) {
		return
	}
	s.redraw()
	if s.showDiff {
		if d := diff.Unified("before", "after", viewLines(before), viewLines(s.view)); d != "" {
			lipgloss.Fprint(s.out, d)
		}
	}
}

func (s *session) redraw() {
	s.view = s.list.Render()
}

func viewLines(view string) []string {
	if view == "" {
		return nil
	}
	return strings.Split(ansi.Strip(view), "\n")
}

func (s *session) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "quit", "exit", "q":
		return errQuit
	case "help":
		lipgloss.Fprintln(s.out, sessionHelp)
	case "add":
		row := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), name))
		if row == "" {
			return errors.New("usage: add NAME")
		}
		id := s.app.Mutations.Insert(cheese.Cheese{Name: row})
		lipgloss.Fprintln(s.out, faintStyle.Render("queued insert "+shortID(id)))
	case "rm":
		pos := s.list.Selected()
		if len(args) > 0 {
			p, err := s.position(args[0])
			if err != nil {
				return err
			}
			pos = p
		}
		if pos < 0 {
			return errors.New("nothing selected")
		}
		c, ok := s.ad.ItemAt(pos)
		if !ok {
			return fmt.Errorf("row %d is not loaded yet", pos)
		}
		id := s.app.Mutations.Delete(c.ID)
		lipgloss.Fprintln(s.out, faintStyle.Render("queued delete "+shortID(id)), c.Name)
	case "sel":
		if len(args) != 1 {
			return errors.New("usage: sel POS")
		}
		pos, err := s.position(args[0])
		if err != nil {
			return err
		}
		s.list.SetSelected(pos)
		s.list.ScrollToSelected()
		s.show()
	case "up", "down":
		n, err := count(args)
		if err != nil {
			return err
		}
		for range n {
			if name == "up" {
				s.list.SelectPrev()
			} else {
				s.list.SelectNext()
			}
		}
		s.list.ScrollToSelected()
		s.show()
	case "top":
		s.list.SelectFirst()
		s.list.ScrollToTop()
		s.show()
	case "bottom":
		s.list.SelectLast()
		s.list.ScrollToBottom()
		s.show()
	case "get":
		if len(args) != 1 {
			return errors.New("usage: get POS")
		}
		pos, err := s.position(args[0])
		if err != nil {
			return err
		}
		c, ok := s.ad.ItemAt(pos)
		if !ok {
			lipgloss.Fprintln(s.out, faintStyle.Render(strconv.Itoa(pos)), list.Placeholder)
			return nil
		}
		lipgloss.Fprintln(s.out, faintStyle.Render(strconv.Itoa(pos)), c.Name, idStyle.Render("#"+strconv.FormatInt(c.ID, 10)))
	case "show":
		s.show()
	case "stats":
		s.stats()
	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func (s *session) show() {
	s.redraw()
	if s.view == "" {
		lipgloss.Fprintln(s.out, faintStyle.Render("(empty)"))
		return
	}
	lipgloss.Fprintln(s.out, s.view)
}

func (s *session) stats() {
	p := s.app.Pager
	rows := []struct {
		label string
		value int64
	}{
		{"rows shown", int64(s.ad.ItemCount())},
		{"rows in store", int64(p.TotalCount())},
		{"rows loaded", int64(p.LoadedCount())},
		{"pages loaded", int64(len(p.Pages()))},
		{"slots bound", int64(s.list.Bound())},
		{"binds", int64(s.list.Binds())},
		{"updates discarded", s.ad.Discarded()},
		{"mutations pending", int64(s.app.Mutations.Pending())},
	}
	for _, r := range rows {
		lipgloss.Fprintln(s.out, faintStyle.Render(fmt.Sprintf("%-18s", r.label)), humanize.Comma(r.value))
	}
}

func (s *session) position(arg string) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	if pos < 0 || pos >= s.list.Len() {
		return 0, fmt.Errorf("position %d out of range [0, %d)", pos, s.list.Len())
	}
	return pos, nil
}

func count(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count %q", args[0])
	}
	return n, nil
}
