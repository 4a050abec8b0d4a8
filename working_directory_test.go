package headlessvt

import "testing"

func TestWorkingDirectoryOSC7(t *testing.T) {
	for _, tt := range []struct {
		name, seq, uri, path string
	}{
		{"bel terminated", "\x1b]7;file://host/srv/www\x07", "file://host/srv/www", "/srv/www"},
		{"st terminated", "\x1b]7;file://box/home/me\x1b\\", "file://box/home/me", "/home/me"},
		{"empty host", "\x1b]7;file:///tmp\x07", "file:///tmp", "/tmp"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			term := New(WithSize(3, 40))
			term.WriteString(tt.seq)
			if got := term.WorkingDirectory(); got != tt.uri {
				t.Errorf("uri = %q, want %q", got, tt.uri)
			}
			if got := term.WorkingDirectoryPath(); got != tt.path {
				t.Errorf("path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestWorkingDirectoryUpdates(t *testing.T) {
	term := New(WithSize(3, 40))
	term.WriteString("\x1b]7;file://h/first\x07")
	term.WriteString("\x1b]7;file://h/second\x07")
	if got := term.WorkingDirectoryPath(); got != "/second" {
		t.Errorf("latest OSC 7 must win, path = %q", got)
	}
}

func TestWorkingDirectoryNonFileScheme(t *testing.T) {
	term := New(WithSize(3, 40))
	term.WriteString("\x1b]7;kitty-shell-cwd://h/x\x07")
	// The raw uri is kept, but path extraction only understands file://.
	if got := term.WorkingDirectoryPath(); got != "" {
		t.Errorf("non-file scheme path = %q, want empty", got)
	}
}

func TestWorkingDirectoryMiddlewareIntercepts(t *testing.T) {
	var seen string
	term := New(WithSize(3, 40), WithMiddleware(&Middleware{
		SetWorkingDirectory: func(uri string, next func(string)) {
			seen = uri
			next(uri)
		},
	}))
	term.WriteString("\x1b]7;file://h/dir\x07")
	if seen != "file://h/dir" {
		t.Errorf("middleware saw %q", seen)
	}
	if got := term.WorkingDirectoryPath(); got != "/dir" {
		t.Errorf("path = %q", got)
	}
}
