// Package tui plays a game session in the terminal.
package tui

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/inference"
	"github.com/vancomm/minesweeper-ai/internal/mines"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	coveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	mineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	safeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	hintColors = []lipgloss.Color{"250", "33", "34", "160", "19", "88", "30", "90", "243"}
)

type tickMsg time.Time

type Model struct {
	params  game.Params
	opts    game.Options
	rnd     *rand.Rand
	session *game.Session

	row, col int
	autoplay bool
	interval time.Duration
	showHint bool
	status   string
}

// New starts a session with params. interval paces autoplay.
func New(params game.Params, rnd *rand.Rand, opts game.Options, interval time.Duration) (Model, error) {
	s, err := game.NewSession(params, rnd, opts)
	if err != nil {
		return Model{}, err
	}
	return Model{
		params:   params,
		opts:     opts,
		rnd:      rnd,
		session:  s,
		interval: interval,
		status:   "new game",
	}, nil
}

func (m Model) Session() *game.Session { return m.session }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) cursor() mines.Cell {
	return mines.Cell{Row: m.row, Col: m.col}
}

func (m Model) aiMove() Model {
	move, err := m.session.AIMove()
	switch {
	case errors.Is(err, inference.ErrNoMoveAvailable), errors.Is(err, game.ErrGameOver):
		m.autoplay = false
		m.status = err.Error()
	case err != nil:
		m.autoplay = false
		m.status = "error: " + err.Error()
	default:
		m.row, m.col = move.Cell.Row, move.Cell.Col
		m.status = fmt.Sprintf("ai opened %s (%s)", move.Cell, move.Kind)
	}
	return m.finished()
}

func (m Model) finished() Model {
	switch {
	case m.session.Won:
		m.autoplay = false
		m.status = "you won"
	case m.session.Dead:
		m.autoplay = false
		m.status = "boom"
	}
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.autoplay {
			return m, nil
		}
		m = m.aiMove()
		if m.autoplay {
			return m, m.tick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.row = max(m.row-1, 0)
		case "down", "j":
			m.row = min(m.row+1, m.params.Height-1)
		case "left", "h":
			m.col = max(m.col-1, 0)
		case "right", "l":
			m.col = min(m.col+1, m.params.Width-1)
		case " ", "o":
			if err := m.session.Open(m.cursor()); err != nil {
				m.status = err.Error()
			} else {
				m.status = "opened " + m.cursor().String()
			}
			m = m.finished()
		case "f":
			if err := m.session.Flag(m.cursor()); err != nil {
				m.status = err.Error()
			}
			m = m.finished()
		case "a":
			m = m.aiMove()
		case "p":
			m.autoplay = !m.autoplay && !m.session.Over()
			if m.autoplay {
				m.status = "autoplay"
				return m, m.tick()
			}
		case "?":
			m.showHint = !m.showHint
		case "n":
			s, err := game.NewSession(m.params, m.rnd, m.opts)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.session, m.autoplay, m.status = s, false, "new game"
		}
	}
	return m, nil
}

func (m Model) cellView(c mines.Cell, hint game.Hint) string {
	st := m.session.State(c)
	var text string
	var style lipgloss.Style
	switch {
	case st == game.Unknown:
		text, style = ".", coveredStyle
		if m.showHint {
			for _, s := range hint.Safes {
				if s == c {
					text, style = "o", safeStyle
				}
			}
			for _, mine := range hint.Mines {
				if mine == c {
					text, style = "x", mineStyle
				}
			}
		}
	case st == game.Flagged || st == game.CorrectFlag:
		text, style = "F", flagStyle
	case st == game.WrongFlag:
		text, style = "X", flagStyle
	case st == game.ExplodedMine || st == game.UnflaggedMine:
		text, style = "*", mineStyle
	case st == 0:
		text, style = " ", lipgloss.NewStyle()
	default:
		text, style = st.String(), lipgloss.NewStyle().Foreground(hintColors[st])
	}
	if c == m.cursor() {
		style = style.Inherit(cursorStyle)
	}
	return style.Render(text)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(
		"minesweeper %dx%d, %d mines, %s propagation",
		m.params.Height, m.params.Width, m.params.MineCount, m.session.Propagation(),
	)))
	b.WriteString("\n\n")

	hint := m.session.Hint()
	for row := range m.params.Height {
		for col := range m.params.Width {
			b.WriteString(m.cellView(mines.Cell{Row: row, Col: col}, hint))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"%s | ai moves %d | safe %d | mines %d | sentences %d",
		m.status, m.session.AIMoves, len(hint.Safes), len(hint.Mines), len(hint.Sentences),
	)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("arrows move  space open  f flag  a ai move  p autoplay  ? hints  n new  q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run blocks until the player quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m).Run()
	return err
}
