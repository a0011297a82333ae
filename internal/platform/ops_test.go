package platform

import (
	"reflect"
	"testing"
)

func TestInterpreterArgsPerFamily(t *testing.T) {
	cases := []struct {
		family Family
		path   string
		want   []string
		ok     bool
	}{
		{FamilyLinux, "deploy.sh", []string{"bash", "deploy.sh"}, true},
		{FamilyLinux, "tool.py", []string{"python3", "tool.py"}, true},
		{FamilyDarwin, "app.js", []string{"node", "app.js"}, true},
		{FamilyWindows, "tool.py", []string{"python", "tool.py"}, true},
		// POSIX shell scripts have no contract on the windows family.
		{FamilyWindows, "deploy.sh", nil, false},
		// Bare program names run as-is.
		{FamilyLinux, "df", []string{"df"}, true},
	}
	for _, tc := range cases {
		got, ok := OpsFor(tc.family).InterpreterArgs(tc.path)
		if ok != tc.ok || !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s InterpreterArgs(%q) = %v %v, want %v %v",
				tc.family, tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestOpenAndShellArgs(t *testing.T) {
	if got := OpsFor(FamilyDarwin).OpenArgs("report.pdf"); got[0] != "open" {
		t.Fatalf("darwin open=%v", got)
	}
	if got := OpsFor(FamilyLinux).OpenArgs("report.pdf"); got[0] != "xdg-open" {
		t.Fatalf("linux open=%v", got)
	}
	got := OpsFor(FamilyWindows).OpenArgs("report.pdf")
	want := []string{"cmd", "/C", "start", "", "report.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("windows open=%v want %v", got, want)
	}

	if got := OpsFor(FamilyLinux).ShellArgs("ls -la"); !reflect.DeepEqual(got, []string{"/bin/sh", "-lc", "ls -la"}) {
		t.Fatalf("linux shell=%v", got)
	}
	if got := OpsFor(FamilyWindows).ShellArgs("dir"); !reflect.DeepEqual(got, []string{"cmd", "/C", "dir"}) {
		t.Fatalf("windows shell=%v", got)
	}
}

func TestSearchURLEncodesQuery(t *testing.T) {
	got := SearchURL("go generics & slices")
	want := "https://www.google.com/search?q=go+generics+%26+slices"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestResultErr(t *testing.T) {
	if err := (Result{ExitCode: 0}).Err(); err != nil {
		t.Fatalf("exit 0: %v", err)
	}
	err := (Result{ExitCode: 2, Stderr: "bad flag"}).Err()
	cmdErr, ok := err.(*CommandError)
	if !ok || cmdErr.ExitCode != 2 {
		t.Fatalf("err=%v", err)
	}
}
