package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/statekit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┌─┐┌┬┐┌─┐┬┌─┬┌┬┐
  └─┐ │ ├─┤ │ ├┤ ├┴┐│ │
  └─┘ ┴ ┴ ┴ ┴ └─┘┴ ┴┴ ┴
`

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "statekit",
		Short: "Reactive application stores with persistence",
		Long: `statekit runs the application stores (counter, user, auth, products,
cart, notifications and settings) against a persistent key-value cache.

  • serve starts the HTTP/WebSocket inspector
  • settings and login act on the configured cache
  • demo walks through every store in memory`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to statekit.yaml (default: ./statekit.yaml if present)")

	env := &environment{configPath: &configPath}
	rootCmd.AddCommand(
		serveCmd(env),
		demoCmd(),
		settingsCmd(env),
		loginCmd(env),
		logoutCmd(env),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(bannerStyle.Render(banner))
	fmt.Println()
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", successStyle.Render("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

// field prints a label and value pair.
func field(label string, value any) {
	fmt.Printf("  %s %v\n", labelStyle.Render(fmt.Sprintf("%-14s", label+":")), value)
}
