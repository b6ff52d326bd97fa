package shell

import (
	"tinykernel/internal/pagealloc"
	"tinykernel/internal/vfs"
)

// pipeInputCap mirrors the reference's SHELL_PIPE_INPUT_CAP, expressed here
// as a plain truncation limit rather than a fixed buffer size.
const pipeInputCap = 2047

// Executor runs parsed shell lines against an FD table, a vfs.Context for
// builtins and redirection targets, and (for meminfo) a page pool.
type Executor struct {
	fd    *FDTable
	fs    *vfs.Context
	pages *pagealloc.Pool
}

// NewExecutor returns an executor writing console output through fd,
// resolving paths against fs, and reporting allocator stats from pages
// (which may be nil if meminfo is never exercised).
func NewExecutor(fd *FDTable, fs *vfs.Context, pages *pagealloc.Pool) *Executor {
	return &Executor{fd: fd, fs: fs, pages: pages}
}

func (e *Executor) executeOrFallback(argv []string, fallback string) ExecStatus {
	status := ExecuteBuiltin(e, argv)
	if status == ExecNotFound {
		e.fd.Write("echo: ")
		e.fd.Write(fallback)
		e.fd.Write("\n")
	}
	return status
}

func (e *Executor) writeRedirection(mode RedirMode, path string) error {
	if err := e.fs.WriteFile(path, e.fd.CaptureData(), mode == RedirAppend); err != nil {
		e.fd.SetStdoutConsole()
		e.fd.Write("redir: write failed\n")
		return err
	}
	return nil
}

// ExecuteLine parses line (with the full pipe/redirection grammar) and
// runs it. rawLine is the original, untokenized text used as the
// unknown-command echo fallback for a single (non-piped) command.
func (e *Executor) ExecuteLine(line, rawLine string) error {
	result, err := ParseWithRedirection(line)
	if err != nil {
		e.fd.SetStdoutConsole()
		e.fd.Write("parse: invalid command\n")
		return err
	}

	if result.HasPipe {
		return e.executePipe(result)
	}
	return e.executeSingle(result, rawLine)
}

func (e *Executor) executeSingle(result ParseResult, rawLine string) error {
	if result.RedirMode == RedirNone {
		e.fd.SetStdoutConsole()
		e.fd.SetStdin("")
		e.executeOrFallback(result.Left.Argv, rawLine)
		return nil
	}

	e.fd.SetStdoutCapture()
	e.fd.SetStdin("")
	e.executeOrFallback(result.Left.Argv, rawLine)
	return e.writeRedirection(result.RedirMode, result.RedirPath)
}

func (e *Executor) executePipe(result ParseResult) error {
	leftText := fallbackText(result.Left.Argv)
	rightText := fallbackText(result.Right.Argv)

	e.fd.SetStdoutCapture()
	e.fd.SetStdin("")
	e.executeOrFallback(result.Left.Argv, leftText)

	pipeInput := e.fd.CaptureData()
	if len(pipeInput) > pipeInputCap {
		pipeInput = pipeInput[:pipeInputCap]
	}
	e.fd.SetStdin(pipeInput)

	if result.RedirMode == RedirNone {
		e.fd.SetStdoutConsole()
		e.executeOrFallback(result.Right.Argv, rightText)
		e.fd.SetStdin("")
		return nil
	}

	e.fd.SetStdoutCapture()
	e.executeOrFallback(result.Right.Argv, rightText)
	e.fd.SetStdin("")
	return e.writeRedirection(result.RedirMode, result.RedirPath)
}
