package pathtree_test

import (
	"reflect"
	"testing"

	"tinykernel/internal/pathtree"
)

func TestNormalizeCollapsesDotAndDotDot(t *testing.T) {
	cases := map[string]string{
		"/a/./b":     "/a/b",
		"/a/b/../c":  "/a/c",
		"/../a":      "/a",
		"a/../../b":  "../b",
		"":           "",
		"a/./b/./c":  "a/b/c",
		"/a/b/..":    "/a",
		"/":          "/",
	}
	for in, want := range cases {
		if in == "" {
			continue
		}
		got, err := pathtree.Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmptyRelativeBecomesDot(t *testing.T) {
	got, err := pathtree.Normalize(".")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "." {
		t.Fatalf("Normalize(\".\") = %q, want \".\"", got)
	}
}

func TestNormalizeRejectsEmptyInput(t *testing.T) {
	if _, err := pathtree.Normalize(""); err == nil {
		t.Fatal("Normalize(\"\") should fail")
	}
}

func TestResolveAbsoluteIgnoresCwd(t *testing.T) {
	got, err := pathtree.Resolve("/home/user", "/etc/passwd")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/etc/passwd" {
		t.Fatalf("Resolve = %q, want /etc/passwd", got)
	}
}

func TestResolveEmptyPathReturnsCwd(t *testing.T) {
	got, err := pathtree.Resolve("/home/user", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/home/user" {
		t.Fatalf("Resolve = %q, want /home/user", got)
	}
}

func TestResolveRelativeJoinsCwd(t *testing.T) {
	got, err := pathtree.Resolve("/home/user", "docs/../notes")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/home/user/notes" {
		t.Fatalf("Resolve = %q, want /home/user/notes", got)
	}
}

func TestResolveFromRoot(t *testing.T) {
	got, err := pathtree.Resolve("/", "etc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/etc" {
		t.Fatalf("Resolve = %q, want /etc", got)
	}
}

func TestMkdirPAndWalk(t *testing.T) {
	tr := pathtree.NewTree()
	if err := tr.MkdirP("/a/b/c"); err != nil {
		t.Fatalf("MkdirP: %v", err)
	}
	if _, err := tr.Walk("/a/b/c"); err != nil {
		t.Fatalf("Walk after MkdirP: %v", err)
	}
}

func TestMkdirFailsOnMissingIntermediate(t *testing.T) {
	tr := pathtree.NewTree()
	if err := tr.Mkdir("/a/b"); err == nil {
		t.Fatal("Mkdir should fail when an intermediate directory is missing")
	}
}

func TestMkdirFailsOnExisting(t *testing.T) {
	tr := pathtree.NewTree()
	if err := tr.Mkdir("/a"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := tr.Mkdir("/a"); err == nil {
		t.Fatal("Mkdir should fail when the final component already exists")
	}
}

func TestReaddirSortedOrder(t *testing.T) {
	tr := pathtree.NewTree()
	tr.MkdirP("/a/zeta")
	tr.MkdirP("/a/alpha")
	tr.MkdirP("/a/mid")

	got, err := tr.Readdir("/a")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Readdir = %v, want %v", got, want)
	}
}

func TestCdLeavesCwdUnchangedOnFailure(t *testing.T) {
	tr := pathtree.NewTree()
	tr.MkdirP("/a")
	if err := tr.Cd("/a"); err != nil {
		t.Fatalf("Cd: %v", err)
	}
	before, _ := tr.Pwd()

	if err := tr.Cd("/does/not/exist"); err == nil {
		t.Fatal("Cd to a missing path should fail")
	}
	after, _ := tr.Pwd()
	if before != after {
		t.Fatalf("cwd changed on failed Cd: %q -> %q", before, after)
	}
}

func TestPwdAfterNestedCd(t *testing.T) {
	tr := pathtree.NewTree()
	tr.MkdirP("/a/b/c")
	if err := tr.Cd("/a/b/c"); err != nil {
		t.Fatalf("Cd: %v", err)
	}
	got, err := tr.Pwd()
	if err != nil {
		t.Fatalf("Pwd: %v", err)
	}
	if got != "/a/b/c" {
		t.Fatalf("Pwd = %q, want /a/b/c", got)
	}
}

func TestRelativeMkdirUsesCwd(t *testing.T) {
	tr := pathtree.NewTree()
	tr.MkdirP("/a")
	tr.Cd("/a")
	if err := tr.Mkdir("b"); err != nil {
		t.Fatalf("Mkdir(relative): %v", err)
	}
	if _, err := tr.Walk("/a/b"); err != nil {
		t.Fatalf("Walk: %v", err)
	}
}
