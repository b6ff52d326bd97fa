// Package terminal binds one keyboard endpoint to one shell.Executor: a
// line-editing input buffer, a bounded command history ring, a streaming
// FNV-1a marker hash, and the lines-executed/cwd-cache bookkeeping a
// multi-window desktop needs per open terminal. Grounded on the reference
// tree's terminal_session.c, adapted to drive the full pipe/redirection
// shell.Executor instead of that file's inline seven-builtin dispatch.
package terminal

import (
	"errors"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/keyboard"
	"tinykernel/internal/pagealloc"
	"tinykernel/internal/shell"
	"tinykernel/internal/vfs"
	"tinykernel/internal/wm"
)

const hashBasis uint32 = 2166136261
const hashPrime uint32 = 16777619

// errInputFull is returned by HandleEvent when a printable keystroke
// arrives with no room left in the input buffer.
var errInputFull = errors.New("terminal: input buffer full")

// Session is one terminal bound to a keyboard endpoint and, optionally, a
// window it renders into.
type Session struct {
	endpointID uint32
	window     *wm.Window

	executor *shell.Executor
	fs       *vfs.Context
	console  *shell.FDTable

	inputBuffer []rune
	history     []string
	historyHead int

	linesExecuted uint32
	markerHash    uint32
	cwdCache      string
}

// NewSession returns a session bound to endpointID (which must be
// non-zero) and, optionally, window. console backs the executor's stdout;
// fs is the namespace the shell's builtins operate against; pages backs
// the shell's meminfo builtin and may be nil.
func NewSession(endpointID uint32, window *wm.Window, console shell.StringWriter, fs *vfs.Context, pages *pagealloc.Pool) *Session {
	fd := shell.NewFDTable(console)
	s := &Session{
		endpointID: endpointID,
		window:     window,
		executor:   shell.NewExecutor(fd, fs, pages),
		fs:         fs,
		console:    fd,
		history:    make([]string, 0, kconfig.TerminalHistoryCap),
		markerHash: hashBasis,
		cwdCache:   "/",
	}
	s.hashU32(endpointID)
	s.refreshCwdCache()
	return s
}

func (s *Session) hashByte(b byte) {
	s.markerHash ^= uint32(b)
	s.markerHash *= hashPrime
}

func (s *Session) hashText(text string) {
	for i := 0; i < len(text); i++ {
		s.hashByte(text[i])
	}
	s.hashByte(0)
}

func (s *Session) hashU32(v uint32) {
	s.hashByte(byte(v))
	s.hashByte(byte(v >> 8))
	s.hashByte(byte(v >> 16))
	s.hashByte(byte(v >> 24))
}

func (s *Session) storeHistory(line string) {
	if len(s.history) < kconfig.TerminalHistoryCap {
		s.history = append(s.history, line)
		return
	}
	s.history[s.historyHead] = line
	s.historyHead = (s.historyHead + 1) % kconfig.TerminalHistoryCap
}

func (s *Session) refreshCwdCache() {
	cwd, err := s.fs.Pwd()
	if err != nil {
		s.cwdCache = "/"
		return
	}
	s.cwdCache = cwd
}

// EndpointID returns the keyboard endpoint this session is bound to.
func (s *Session) EndpointID() uint32 { return s.endpointID }

// Window returns the window this session renders into, or nil.
func (s *Session) Window() *wm.Window { return s.window }

// InputLen returns the number of runes currently buffered.
func (s *Session) InputLen() int { return len(s.inputBuffer) }

// InputBuffer returns the text typed so far but not yet committed.
func (s *Session) InputBuffer() string { return string(s.inputBuffer) }

// HistoryCount returns the number of commands retained in history.
func (s *Session) HistoryCount() int { return len(s.history) }

// LinesExecuted returns the number of lines committed via Enter.
func (s *Session) LinesExecuted() uint32 { return s.linesExecuted }

// Marker returns the session's running FNV-1a accumulator, fed by every
// endpoint id, committed line, and executed command's output — a cheap
// deterministic fingerprint of everything this session has done.
func (s *Session) Marker() uint32 { return s.markerHash }

// Cwd returns the session's cached current working directory, refreshed
// after every executed line.
func (s *Session) Cwd() string { return s.cwdCache }

// HandleEvent feeds one decoded keyboard event to the session: printable
// text accumulates into the input buffer (bounded by
// kconfig.TerminalInputCap), Backspace trims the last rune, Enter commits
// the buffered line for execution and clears the buffer. Returns an error
// if the input buffer is full and more text arrives, or, on Enter,
// whatever error ExecuteLine returns for the committed line.
func (s *Session) HandleEvent(ev keyboard.Event) error {
	switch ev.Kind {
	case keyboard.KindText:
		if ev.Text < 0x20 || ev.Text > 0x7e {
			return nil
		}
		if len(s.inputBuffer)+1 >= kconfig.TerminalInputCap {
			return errInputFull
		}
		s.inputBuffer = append(s.inputBuffer, ev.Text)
		return nil

	case keyboard.KindControl:
		switch ev.Code {
		case keyboard.Backspace:
			if len(s.inputBuffer) > 0 {
				s.inputBuffer = s.inputBuffer[:len(s.inputBuffer)-1]
			}
			return nil
		case keyboard.Enter:
			line := string(s.inputBuffer)
			s.inputBuffer = s.inputBuffer[:0]
			return s.ExecuteLine(line)
		}
	}
	return nil
}

// HandleText implements wm.TextHandler, letting an EndpointKeyboardRouter
// register a session directly as a window's text handler.
func (s *Session) HandleText(ch rune) {
	s.HandleEvent(keyboard.Event{Kind: keyboard.KindText, Text: ch})
}

// HandleControl implements wm.ControlHandler, letting an
// EndpointKeyboardRouter register a session directly as a window's
// control handler.
func (s *Session) HandleControl(code keyboard.ControlCode) {
	s.HandleEvent(keyboard.Event{Kind: keyboard.KindControl, Code: code})
}

// ExecuteLine runs line directly, bypassing the input buffer — used by
// HandleEvent on Enter and available to callers that already have a
// complete command line (e.g. scripted tests).
func (s *Session) ExecuteLine(line string) error {
	argv := shell.ParseLine(line)
	if len(argv) == 0 {
		return nil
	}

	s.storeHistory(line)
	s.linesExecuted++
	s.hashText(line)

	s.console.Reset()
	err := s.executor.ExecuteLine(line, line)
	s.hashText(s.console.AllOutput())

	s.refreshCwdCache()
	return err
}
