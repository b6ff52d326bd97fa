// Package vfs is the shell's path-addressed namespace: a pathtree.Tree
// for directories plus a flat map of file content keyed by absolute path,
// the Go counterpart of the original reference's path_state.c, which
// layers a small seeded/writable file table on top of fs_dir.c's
// directory tree. Unlike OTFS (internal/otfs), this is an in-memory,
// non-persistent namespace — it is what the shell's ls/cat/cd/mkdir and
// `>`/`>>` redirection operate against.
package vfs

import (
	"sort"
	"strings"

	"tinykernel/internal/kerr"
	"tinykernel/internal/pathtree"
)

// EntryKind distinguishes a directory from a file in a Ls listing.
type EntryKind int

const (
	EntryDir EntryKind = iota
	EntryFile
)

// Entry is one Ls result.
type Entry struct {
	Name string
	Kind EntryKind
}

// seedFile is a file present at boot without ever being written, mirroring
// path_state.c's g_seed_files.
type seedFile struct {
	path    string
	content string
}

var seedFiles = []seedFile{
	{"/hello.txt", "hello from shell fs\n"},
	{"/etc/motd", "openTiger shell filesystem\n"},
	{"/home/readme.txt", "use ls, cat, pwd, cd, mkdir\n"},
}

// Context is one shell namespace: a directory tree plus writable file
// content, seeded at construction with the fixed seed files and their
// parent directories.
type Context struct {
	tree  *pathtree.Tree
	files map[string]string
}

// NewContext returns a namespace seeded with /etc, /home, /tmp and the
// fixed seed files.
func NewContext() *Context {
	c := &Context{tree: pathtree.NewTree(), files: make(map[string]string)}
	for _, dir := range []string{"/etc", "/home", "/tmp"} {
		_ = c.tree.Mkdir(dir)
	}
	for _, f := range seedFiles {
		parent := parentOf(f.path)
		if parent != "/" {
			_ = c.tree.MkdirP(parent)
		}
		c.files[f.path] = f.content
	}
	return c
}

func parentOf(absPath string) string {
	i := strings.LastIndex(absPath, "/")
	if i <= 0 {
		return "/"
	}
	return absPath[:i]
}

func baseOf(absPath string) string {
	i := strings.LastIndex(absPath, "/")
	return absPath[i+1:]
}

func (c *Context) resolve(path string) (string, error) {
	cwd, err := c.tree.Pwd()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = "."
	}
	return pathtree.Resolve(cwd, path)
}

// Pwd returns the current working directory.
func (c *Context) Pwd() (string, error) {
	return c.tree.Pwd()
}

// Cd changes the current working directory; on failure cwd is unchanged.
func (c *Context) Cd(path string) error {
	return c.tree.Cd(path)
}

// Mkdir creates a single directory component; it fails if the resolved
// path is the root, or if a file already occupies that absolute path.
func (c *Context) Mkdir(path string) error {
	absPath, err := c.resolve(path)
	if err != nil {
		return err
	}
	if absPath == "/" {
		return kerr.ErrArgument
	}
	if _, ok := c.files[absPath]; ok {
		return kerr.ErrArgument
	}
	return c.tree.Mkdir(absPath)
}

// Ls lists a directory's children in sorted order, or — when path names a
// file directly — a single-entry listing for that file, merging
// directory-tree children with any files whose parent is that directory.
func (c *Context) Ls(path string) ([]Entry, error) {
	absPath, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	if _, ok := c.files[absPath]; ok {
		return []Entry{{Name: baseOf(absPath), Kind: EntryFile}}, nil
	}

	names, err := c.tree.Readdir(absPath)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, Entry{Name: n, Kind: EntryDir})
	}
	for p := range c.files {
		if parentOf(p) == absPath {
			entries = append(entries, Entry{Name: baseOf(p), Kind: EntryFile})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Cat returns a file's full content.
func (c *Context) Cat(path string) (string, error) {
	absPath, err := c.resolve(path)
	if err != nil {
		return "", err
	}
	content, ok := c.files[absPath]
	if !ok {
		return "", kerr.ErrNotFound
	}
	return content, nil
}

// WriteFile creates or overwrites (append=false) / appends to (append=true)
// the file at path with content, the counterpart of the declared-but-
// unimplemented path_state_write_file contract: `>` truncates, `>>`
// appends, and either creates the file if it did not already exist.
func (c *Context) WriteFile(path string, content string, append bool) error {
	absPath, err := c.resolve(path)
	if err != nil {
		return err
	}
	if append {
		c.files[absPath] += content
		return nil
	}
	c.files[absPath] = content
	return nil
}
