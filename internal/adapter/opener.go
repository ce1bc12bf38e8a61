package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// Seams replaced in tests
var (
	openURL        = browser.OpenURL
	openFile       = browser.OpenFile
	writeClipboard = clipboard.WriteAll
	startCommand   = func(name string, args ...string) error { return exec.Command(name, args...).Start() }
	lookPath       = exec.LookPath
)

// candidateViewers lists image viewers tried in order before the system default
var candidateViewers = map[string][]string{
	"darwin":  {},
	"linux":   {"imv", "feh", "eog", "sxiv"},
	"windows": {},
}

// Opener hands works to the outside world: an image viewer for original
// files, the browser for links, and the clipboard.
type Opener struct {
	command string   // configured viewer command, empty for auto-detection
	args    []string // additional arguments for the viewer
	logger  *slog.Logger
}

func NewOpener(command string, args []string, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{command: command, args: args, logger: logger}
}

// OpenFile shows a local file (the original image or novel text)
func (o *Opener) OpenFile(path string) error {
	// Tier 1: User configured a specific viewer
	if o.command != "" {
		args := append(append([]string{}, o.args...), path)
		o.logger.Info("launching viewer", "command", o.command, "args", args)
		return startCommand(o.command, args...)
	}

	// Tier 2: Try installed viewers for this platform
	if isImage(path) {
		for _, viewer := range candidateViewers[runtime.GOOS] {
			if _, err := lookPath(viewer); err != nil {
				o.logger.Debug("viewer not available", "viewer", viewer)
				continue
			}
			if err := startCommand(viewer, path); err == nil {
				o.logger.Info("launched with detected viewer", "viewer", viewer)
				return nil
			}
		}
	}

	// Tier 3: Fall back to system default
	o.logger.Info("opening with system default", "path", path)
	if err := openFile(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// OpenURL opens a web page or deep link with the system handler
func (o *Opener) OpenURL(url string) error {
	o.logger.Info("opening url", "url", url)
	if err := openURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// Copy puts text on the system clipboard
func (o *Opener) Copy(text string) error {
	if err := writeClipboard(text); err != nil {
		o.logger.Warn("clipboard unavailable", "error", err)
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	o.logger.Debug("copied to clipboard", "text", text)
	return nil
}

func isImage(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
