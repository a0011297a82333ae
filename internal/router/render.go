package router

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hebbarp/c9ai/internal/platform"
)

const maxShellOutputLines = 40

var (
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	styleLogo  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
)

var (
	mdOnce     sync.Once
	mdRenderer *glamour.TermRenderer
)

// renderMarkdown renders conversational replies as terminal markdown,
// falling back to the raw text if the renderer is unavailable.
func renderMarkdown(content string) string {
	mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			mdRenderer = r
		}
	})
	if mdRenderer == nil {
		return content
	}
	rendered, err := mdRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func renderError(out io.Writer, err error) {
	fmt.Fprintln(out, styleError.Render("error: ")+err.Error())
}

func renderOK(msg string) string  { return styleOK.Render(msg) }
func renderDim(msg string) string { return styleDim.Render(msg) }

// formatShellResult echoes the command, its exit status, and bounded
// stdout/stderr blocks.
func formatShellResult(command string, res platform.Result) string {
	var b strings.Builder
	b.WriteString("$ ")
	b.WriteString(command)
	b.WriteString("\n")
	fmt.Fprintf(&b, "exit=%d duration=%dms", res.ExitCode, res.DurationMS)
	if res.Truncated {
		b.WriteString(" (truncated)")
	}
	if strings.TrimSpace(res.Stdout) != "" {
		limited, cut := limitOutputLines(res.Stdout, maxShellOutputLines)
		b.WriteString("\nstdout:\n")
		b.WriteString(strings.TrimRight(limited, "\n"))
		if cut {
			b.WriteString("\n...[output truncated for display]")
		}
	}
	if strings.TrimSpace(res.Stderr) != "" {
		limited, cut := limitOutputLines(res.Stderr, maxShellOutputLines)
		b.WriteString("\nstderr:\n")
		b.WriteString(strings.TrimRight(limited, "\n"))
		if cut {
			b.WriteString("\n...[error output truncated for display]")
		}
	}
	if strings.TrimSpace(res.Stdout) == "" && strings.TrimSpace(res.Stderr) == "" {
		b.WriteString("\n(no output)")
	}
	return strings.TrimRight(b.String(), "\n")
}

func limitOutputLines(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	normalized := strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) <= max {
		return s, false
	}
	return strings.Join(lines[:max], "\n"), true
}

// Banner is the startup logo, also served by the logo command.
func Banner() string {
	logo := strings.TrimLeft(`
  ____ ___        _
 / ___/ _ \  __ _(_)
| |  | (_) |/ _'  | |
| |___\__, | (_|  | |
 \____|  /_/ \__,_|_|
`, "\n")
	return styleLogo.Render(strings.TrimRight(logo, "\n")) + "\n" +
		styleDim.Render("  your cloud-nine assistant. type help to begin.")
}
