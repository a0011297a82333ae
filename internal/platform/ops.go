package platform

import (
	"net/url"
	"runtime"
	"strings"
)

// Family groups operating systems into the three families the command
// synthesizer distinguishes between.
type Family string

const (
	FamilyDarwin  Family = "darwin"
	FamilyLinux   Family = "linux"
	FamilyWindows Family = "windows"
)

// Detect maps runtime.GOOS to a Family. Anything that is not darwin or
// windows is treated as the linux family (BSDs behave the same for our
// purposes: xdg-open, sh, unix paths).
func Detect() Family {
	switch runtime.GOOS {
	case "darwin":
		return FamilyDarwin
	case "windows":
		return FamilyWindows
	default:
		return FamilyLinux
	}
}

// Ops centralizes every per-OS command decision. Exactly one implementation
// exists per family; callers receive an Ops once at construction time and
// never branch on GOOS themselves.
type Ops interface {
	// Family returns the OS family this implementation serves.
	Family() Family

	// OpenArgs returns the argv that opens a file, URL or application bundle
	// with the platform's default handler.
	OpenArgs(target string) []string

	// ShellArgs returns the argv that runs command through the platform shell.
	ShellArgs(command string) []string

	// InterpreterArgs resolves a script path to an interpreter invocation by
	// extension. ok=false means the extension is not runnable on this family.
	InterpreterArgs(path string) (argv []string, ok bool)

	// AppCandidates returns executable candidates to probe for an application
	// alias, in preference order.
	AppCandidates(alias string) []string
}

// OpsFor returns the Ops implementation for a family.
func OpsFor(family Family) Ops {
	switch family {
	case FamilyDarwin:
		return darwinOps{}
	case FamilyWindows:
		return windowsOps{}
	default:
		return linuxOps{}
	}
}

// SearchURL builds the web-search URL for a free-text query. The query is
// URL-encoded; opening the URL goes through Ops.OpenArgs.
func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(strings.TrimSpace(query))
}

type darwinOps struct{}

func (darwinOps) Family() Family { return FamilyDarwin }

func (darwinOps) OpenArgs(target string) []string {
	return []string{"open", target}
}

func (darwinOps) ShellArgs(command string) []string {
	return []string{"/bin/sh", "-lc", command}
}

func (darwinOps) InterpreterArgs(path string) ([]string, bool) {
	switch scriptExt(path) {
	case ".sh":
		return []string{"bash", path}, true
	case ".py":
		return []string{"python3", path}, true
	case ".js":
		return []string{"node", path}, true
	default:
		return []string{path}, true
	}
}

func (darwinOps) AppCandidates(alias string) []string {
	// "open -a" resolves bundle names; try the alias as given and capitalized.
	return []string{titleCase(alias), alias}
}

type linuxOps struct{}

func (linuxOps) Family() Family { return FamilyLinux }

func (linuxOps) OpenArgs(target string) []string {
	return []string{"xdg-open", target}
}

func (linuxOps) ShellArgs(command string) []string {
	return []string{"/bin/sh", "-lc", command}
}

func (linuxOps) InterpreterArgs(path string) ([]string, bool) {
	switch scriptExt(path) {
	case ".sh":
		return []string{"bash", path}, true
	case ".py":
		return []string{"python3", path}, true
	case ".js":
		return []string{"node", path}, true
	default:
		return []string{path}, true
	}
}

func (linuxOps) AppCandidates(alias string) []string {
	// Desktop launchers commonly prefix the tool name.
	return []string{alias, "gnome-" + alias, alias + "-bin"}
}

type windowsOps struct{}

func (windowsOps) Family() Family { return FamilyWindows }

func (windowsOps) OpenArgs(target string) []string {
	// Empty title argument keeps "start" from treating quoted paths as titles.
	return []string{"cmd", "/C", "start", "", target}
}

func (windowsOps) ShellArgs(command string) []string {
	return []string{"cmd", "/C", command}
}

func (windowsOps) InterpreterArgs(path string) ([]string, bool) {
	switch scriptExt(path) {
	case ".sh":
		// No POSIX shell contract on this family; fail before spawning.
		return nil, false
	case ".py":
		return []string{"python", path}, true
	case ".js":
		return []string{"node", path}, true
	default:
		return []string{path}, true
	}
}

func (windowsOps) AppCandidates(alias string) []string {
	return []string{alias, alias + ".exe"}
}

func scriptExt(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
