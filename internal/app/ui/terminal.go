/*
Package ui renders the chat in a terminal and reads the user's input.

Terminal is the chat screen: it implements the session's View with the same pieces the
web client had (login screen, user list sidebar, user info panel, system badges and
chat bubbles) drawn as text. Console is the input side: the login form, the chat form
and the sidebar toggle.
*/
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"wschat/internal/app/chat"
	"wschat/internal/app/user"
)

const (
	// label used for bubbles sent by the local user.
	selfLabel = "Você"

	minBubbleCols = 16
)

// Terminal draws the chat screen. Output is buffered and reaches the terminal on
// ScrollToBottom or on screen-level changes. It is safe for concurrent use.
type Terminal struct {
	mu sync.Mutex

	out   *bufio.Writer
	term  *termenv.Output
	width int
	style palette

	// measure gives the display width of text in terminal columns.
	measure *runewidth.Condition

	// sidebar state and the latest user list.
	sidebarOpen bool
	users       []user.User

	// prompt is the input prompt currently waiting for a line; interrupted is set when
	// output was written after it, so it must be drawn again.
	prompt      string
	pending     bool
	interrupted bool
}

// NewTerminal returns a Terminal writing to out, laid out for width columns.
func NewTerminal(out io.Writer, width int, color bool) *Terminal {
	buf := bufio.NewWriter(out)
	style := newPalette(color)

	measure := runewidth.NewCondition()
	measure.EastAsianWidth = runewidth.IsEastAsian()

	return &Terminal{
		out:     buf,
		term:    termenv.NewOutput(buf, termenv.WithProfile(style.profile)),
		width:   width,
		style:   style,
		measure: measure,
	}
}

var _ chat.View = (*Terminal)(nil)

// ShowLogin draws the login screen.
func (t *Terminal) ShowLogin() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writeCentered(t.style.bold("Bem-vindo ao Chat"), "Bem-vindo ao Chat")
	t.writeCentered(t.style.dim("Digite seu nome para entrar"), "Digite seu nome para entrar")
	t.out.WriteString("\n")
	t.flush()
}

// LoginPrompt asks for the user's name.
func (t *Terminal) LoginPrompt() {
	t.showPrompt("Seu nome: ")
}

// Prompt asks for the next chat line. A pending draft is shown so the user knows an
// empty line will re-send it.
func (t *Terminal) Prompt(draft string) {
	if draft == "" {
		t.showPrompt("> ")
		return
	}
	t.showPrompt(t.style.dim(fmt.Sprintf("(enter reenvia: %s) ", draft)) + "> ")
}

// Consumed records that the pending prompt received its line.
func (t *Terminal) Consumed() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = false
	t.interrupted = false
}

// LeaveLogin clears the login screen.
func (t *Terminal) LeaveLogin() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = false
	if t.style.enabled() {
		t.term.ClearScreen()
	} else {
		t.out.WriteString("\n")
	}
	t.flush()
}

// EnterChat draws the chat screen header.
func (t *Terminal) EnterChat() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interrupt()
	title := "Chat"
	t.writeCentered(t.style.bold(title), title)
	help := "/users mostra quem está online · /close esconde · /me · /quit"
	t.writeCentered(t.style.dim(help), help)
	t.out.WriteString("\n")
	t.flush()
}

// RenderUserList replaces the stored user list and redraws the sidebar if it is open.
func (t *Terminal) RenderUserList(users []user.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.users = append(t.users[:0:0], users...)

	if t.sidebarOpen {
		t.interrupt()
		t.writeSidebar()
		t.flush()
	}
}

// RenderUserInfo draws the "logged in as" panel.
func (t *Terminal) RenderUserInfo(self user.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interrupt()
	t.out.WriteString(t.style.dim("Logado como:") + "\n")
	t.out.WriteString(t.avatar(self) + " " + t.style.bold(self.Name) + "\n\n")
	t.flush()
}

// RenderSystemMessage appends a centered badge.
func (t *Terminal) RenderSystemMessage(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interrupt()
	badge := "[ " + content + " ]"
	t.writeCentered(t.style.fg(systemBadgeColor, badge), badge)
}

// RenderChatMessage appends a chat bubble: right-aligned and labelled "Você" for the
// local user, left-aligned with the sender's name otherwise.
func (t *Terminal) RenderChatMessage(msg chat.ChatMessage, isSelf bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interrupt()

	label := msg.Sender.Name
	if isSelf {
		label = selfLabel
	}

	header := label
	styledHeader := t.style.strong(msg.Sender.Color, label)
	if msg.Timestamp != "" {
		header += "  " + string(msg.Timestamp)
		styledHeader += "  " + t.style.dim(string(msg.Timestamp))
	}

	lines := wrap(t.measure, msg.Content, t.bubbleCols())
	bubbleColor := otherBubbleColor
	if isSelf {
		bubbleColor = selfBubbleColor
	}

	avatar := "(" + msg.Sender.Initial() + ")"
	avatarCols := t.measure.StringWidth(avatar) + 1

	t.out.WriteString("\n")

	if isSelf {
		t.out.WriteString(pad(t.width-avatarCols-t.measure.StringWidth(header)) + styledHeader + "\n")
		for i, line := range lines {
			text := " " + line + " "
			t.out.WriteString(pad(t.width - avatarCols - t.measure.StringWidth(text)))
			t.out.WriteString(t.style.bg(bubbleColor, text))
			if i == len(lines)-1 {
				t.out.WriteString(" " + t.avatar(msg.Sender))
			}
			t.out.WriteString("\n")
		}
		return
	}

	t.out.WriteString(t.avatar(msg.Sender) + " " + styledHeader + "\n")
	for _, line := range lines {
		t.out.WriteString(pad(avatarCols) + t.style.bg(bubbleColor, " "+line+" ") + "\n")
	}
}

// ScrollToBottom flushes everything rendered so far.
func (t *Terminal) ScrollToBottom() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flush()
}

// OpenSidebar shows the online user list and keeps it updated.
func (t *Terminal) OpenSidebar() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sidebarOpen = true
	t.writeSidebar()
	t.flush()
}

// CloseSidebar stops drawing user list updates.
func (t *Terminal) CloseSidebar() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.sidebarOpen {
		return
	}
	t.sidebarOpen = false
	t.out.WriteString(t.style.dim("(lista de usuários oculta)") + "\n")
	t.flush()
}

// SidebarOpen reports whether the user list is shown.
func (t *Terminal) SidebarOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sidebarOpen
}

func (t *Terminal) showPrompt(prompt string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prompt = prompt
	t.pending = true
	t.interrupted = false
	t.out.WriteString(prompt)
	t.flush()
}

// interrupt moves off a pending prompt line before asynchronous output.
func (t *Terminal) interrupt() {
	if !t.pending || t.interrupted {
		return
	}
	t.interrupted = true

	if t.style.enabled() {
		t.out.WriteString("\r")
		t.term.ClearLine()
	} else {
		t.out.WriteString("\n")
	}
}

// flush writes buffered output, redrawing a prompt that output went past.
func (t *Terminal) flush() {
	if t.pending && t.interrupted {
		t.out.WriteString(t.prompt)
		t.interrupted = false
	}
	t.out.Flush()
}

func (t *Terminal) writeSidebar() {
	title := fmt.Sprintf("── Online (%d) ──", len(t.users))
	t.out.WriteString(t.style.bold(title) + "\n")
	for _, u := range t.users {
		t.out.WriteString(" " + t.style.fg(u.Color, "●") + " " + u.Name + "\n")
	}
}

// writeCentered writes styled centered on its own line; plain is its unstyled text.
func (t *Terminal) writeCentered(styled, plain string) {
	t.out.WriteString(pad((t.width-t.measure.StringWidth(plain))/2) + styled + "\n")
}

func (t *Terminal) avatar(u user.User) string {
	return t.style.strong(u.Color, "("+u.Initial()+")")
}

func (t *Terminal) bubbleCols() int {
	n := t.width*2/3 - 2
	if n < minBubbleCols {
		return minBubbleCols
	}
	return n
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// wrap breaks s into lines of at most width columns, preferring spaces and breaking
// long words where needed.
func wrap(measure *runewidth.Condition, s string, width int) []string {
	var lines []string

	for _, paragraph := range strings.Split(s, "\n") {
		line, lineCols := "", 0

		for _, word := range strings.Fields(paragraph) {
			w := measure.StringWidth(word)

			if lineCols > 0 && lineCols+1+w > width {
				lines = append(lines, line)
				line, lineCols = "", 0
			}

			for w > width {
				if lineCols > 0 {
					lines = append(lines, line)
					line, lineCols = "", 0
				}

				head := measure.Truncate(word, width, "")
				if head == "" {
					// a single rune wider than the line
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				lines = append(lines, head)
				word = word[len(head):]
				w = measure.StringWidth(word)
			}

			if lineCols > 0 {
				line += " "
				lineCols++
			}
			line += word
			lineCols += w
		}
		lines = append(lines, line)
	}

	return lines
}
