package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// preferredEditor returns the editor command from the environment or a default
func preferredEditor() string {
	if env := os.Getenv("VISUAL"); env != "" {
		return env
	}
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	return "vi"
}

// openerCommand returns the OS command that opens path in its default application
func openerCommand(goos, path string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("cmd", "/c", "start", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

// openFile opens a file (e.g. an HTML report) with the OS default application.
// The viewer is detached so stg can exit while it stays open.
func openFile(path string) error {
	cmd := openerCommand(runtime.GOOS, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}
	return nil
}
