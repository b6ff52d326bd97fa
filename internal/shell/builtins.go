package shell

import (
	"fmt"
	"strings"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/vfs"
)

// ExecStatus is a builtin's result: either it ran (Ok) or its name was
// not recognized (NotFound), the Go counterpart of SHELL_EXEC_OK /
// SHELL_EXEC_NOT_FOUND.
type ExecStatus int

const (
	ExecOK ExecStatus = iota
	ExecNotFound
)

// builtin is one registered command, in the fixed order help lists them.
type builtin struct {
	name string
	help string
	fn   func(e *Executor, argv []string) ExecStatus
}

var builtins = []builtin{
	{"help", "show this help", builtinHelp},
	{"echo", "print arguments", builtinEcho},
	{"meminfo", "show allocator usage", builtinMeminfo},
	{"ls", "list files and directories", builtinLs},
	{"cat", "print file contents", builtinCat},
	{"pwd", "print current directory", builtinPwd},
	{"cd", "change current directory", builtinCd},
	{"mkdir", "create directory", builtinMkdir},
}

// ExecuteBuiltin dispatches argv[0] to its registered builtin, or returns
// ExecNotFound for an unrecognized name.
func ExecuteBuiltin(e *Executor, argv []string) ExecStatus {
	if len(argv) == 0 {
		return ExecOK
	}
	for _, b := range builtins {
		if b.name == argv[0] {
			return b.fn(e, argv)
		}
	}
	return ExecNotFound
}

func builtinHelp(e *Executor, argv []string) ExecStatus {
	e.fd.Write("available commands:\n")
	for _, b := range builtins {
		e.fd.Write(fmt.Sprintf("  %s - %s\n", b.name, b.help))
	}
	return ExecOK
}

func builtinEcho(e *Executor, argv []string) ExecStatus {
	e.fd.Write("echo:")
	if len(argv) > 1 {
		e.fd.Write(" ")
	}
	e.fd.Write(strings.Join(argv[1:], " "))
	e.fd.Write("\n")
	return ExecOK
}

func builtinMeminfo(e *Executor, argv []string) ExecStatus {
	if e.pages == nil {
		e.fd.Write("meminfo: unavailable\n")
		return ExecOK
	}
	total := e.pages.TotalPages()
	free := e.pages.FreePages()
	used := total - free
	e.fd.Write(fmt.Sprintf(
		"meminfo: range=0x%x-0x%x page_size=%d total_pages=%d free_pages=%d used_pages=%d\n",
		e.pages.RangeStart(), e.pages.RangeEnd(), kconfig.PageSize, total, free, used))
	return ExecOK
}

func builtinPwd(e *Executor, argv []string) ExecStatus {
	cwd, err := e.fs.Pwd()
	if err != nil {
		e.fd.Write("pwd: error\n")
		return ExecOK
	}
	e.fd.Write(cwd)
	e.fd.Write("\n")
	return ExecOK
}

func builtinCd(e *Executor, argv []string) ExecStatus {
	target := "/"
	if len(argv) >= 2 {
		target = argv[1]
	}
	if err := e.fs.Cd(target); err != nil {
		e.fd.Write("cd: no such directory\n")
	}
	return ExecOK
}

func builtinMkdir(e *Executor, argv []string) ExecStatus {
	if len(argv) < 2 {
		e.fd.Write("mkdir: missing path\n")
		return ExecOK
	}
	for _, path := range argv[1:] {
		if err := e.fs.Mkdir(path); err != nil {
			e.fd.Write("mkdir: failed: " + path + "\n")
		}
	}
	return ExecOK
}

func builtinLs(e *Executor, argv []string) ExecStatus {
	target := "."
	if len(argv) >= 2 {
		target = argv[1]
	}
	entries, err := e.fs.Ls(target)
	if err != nil {
		e.fd.Write("ls: cannot access\n")
		return ExecOK
	}
	for _, entry := range entries {
		e.fd.Write(entry.Name)
		if entry.Kind == vfs.EntryDir {
			e.fd.Write("/")
		}
		e.fd.Write("\n")
	}
	return ExecOK
}

func builtinCat(e *Executor, argv []string) ExecStatus {
	if len(argv) < 2 {
		if e.fd.HasStdin() {
			input := e.fd.Stdin()
			e.fd.Write(input)
			if input == "" || input[len(input)-1] != '\n' {
				e.fd.Write("\n")
			}
			return ExecOK
		}
		e.fd.Write("cat: missing path\n")
		return ExecOK
	}
	for _, path := range argv[1:] {
		content, err := e.fs.Cat(path)
		if err != nil {
			e.fd.Write("cat: not found: " + path + "\n")
			continue
		}
		e.fd.Write(content)
		if content == "" || content[len(content)-1] != '\n' {
			e.fd.Write("\n")
		}
	}
	return ExecOK
}
