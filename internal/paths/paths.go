// Package paths locates the Cursor installation on each supported OS. It is
// a pure lookup table over well-known locations; the patch engine itself
// never searches the filesystem beyond reading and writing the paths
// resolved here.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Paths is the immutable bundle of resolved install locations. Every field
// is optional; "" means the component was not found.
type Paths struct {
	// AppDir is the IDE's resources/app directory (contains product.json).
	AppDir string
	// CLIAgentDir is the CLI agent's versions directory.
	CLIAgentDir string
	// CLIIndex is the newest CLI agent's index.js.
	CLIIndex string
	// IDEMain is the IDE agent bundle (main.js).
	IDEMain string
	// ExtHost is the extension host bootstrap script, which embeds the IDE
	// agent's hash.
	ExtHost string
	// ProductJSON is the product manifest carrying the checksum map.
	ProductJSON string
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// localAppData resolves %LOCALAPPDATA%, falling back to
// %USERPROFILE%\AppData\Local.
func localAppData() string {
	if v := os.Getenv("LOCALAPPDATA"); v != "" {
		return v
	}
	if v := os.Getenv("USERPROFILE"); v != "" {
		return filepath.Join(v, "AppData", "Local")
	}
	return ""
}

func detectAppDir() string {
	candidate := func(p string) bool {
		return p != "" && isFile(filepath.Join(p, "product.json"))
	}

	switch runtime.GOOS {
	case "windows":
		if local := localAppData(); local != "" {
			p := filepath.Join(local, "Programs", "cursor", "resources", "app")
			if candidate(p) {
				return p
			}
		}
	case "darwin":
		if p := "/Applications/Cursor.app/Contents/Resources/app"; candidate(p) {
			return p
		}
		if home := os.Getenv("HOME"); home != "" {
			p := filepath.Join(home, "Applications", "Cursor.app", "Contents", "Resources", "app")
			if candidate(p) {
				return p
			}
		}
	default:
		for _, p := range []string{"/opt/Cursor/resources/app", "/usr/share/cursor/resources/app"} {
			if candidate(p) {
				return p
			}
		}
		if home := os.Getenv("HOME"); home != "" {
			p := filepath.Join(home, ".local", "share", "cursor", "resources", "app")
			if candidate(p) {
				return p
			}
		}
	}
	return ""
}

func detectCLIAgentDir() string {
	if runtime.GOOS == "windows" {
		if local := localAppData(); local != "" {
			p := filepath.Join(local, "cursor-agent", "versions")
			if isDir(p) {
				return p
			}
		}
		return ""
	}
	if home := os.Getenv("HOME"); home != "" {
		p := filepath.Join(home, ".cursor-agent", "versions")
		if isDir(p) {
			return p
		}
	}
	return ""
}

// FindCLIIndex returns index.js of the most recently modified version
// directory under the CLI agent dir.
func FindCLIIndex(cliDir string) string {
	entries, err := os.ReadDir(cliDir)
	if err != nil {
		return ""
	}

	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(cliDir, e.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return ""
	}

	index := filepath.Join(newest, "index.js")
	if !isFile(index) {
		return ""
	}
	return index
}

// Detect resolves every known install location on this system.
func Detect() Paths {
	return DetectWith("", "")
}

// DetectWith resolves install locations, preferring the supplied overrides
// over the per-OS lookup when non-empty.
func DetectWith(appDir, cliAgentDir string) Paths {
	if appDir == "" {
		appDir = detectAppDir()
	}
	if cliAgentDir == "" {
		cliAgentDir = detectCLIAgentDir()
	}
	p := Paths{
		AppDir:      appDir,
		CLIAgentDir: cliAgentDir,
	}
	if p.CLIAgentDir != "" {
		p.CLIIndex = FindCLIIndex(p.CLIAgentDir)
	}
	if p.AppDir != "" {
		ide := filepath.Join(p.AppDir, "extensions", "cursor-agent-exec", "dist", "main.js")
		host := filepath.Join(p.AppDir, "out", "vs", "workbench", "api", "node", "extensionHostProcess.js")
		manifest := filepath.Join(p.AppDir, "product.json")

		if isFile(ide) {
			p.IDEMain = ide
		}
		if isFile(host) {
			p.ExtHost = host
		}
		if isFile(manifest) {
			p.ProductJSON = manifest
		}
	}
	return p
}
