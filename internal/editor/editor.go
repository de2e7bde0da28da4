// Package editor lets the user compose upload remarks in $VISUAL/$EDITOR.
package editor

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	FilePrefix = "File: "
	TagsPrefix = "Tags: "
)

// ComposeRemarks creates the text presented to the editor.
func ComposeRemarks(fileName string, tags []string, remarks string) string {
	var b bytes.Buffer
	b.WriteString("# docman upload\n")
	b.WriteString("# Lines starting with '#' are ignored.\n")
	b.WriteString("# Tags are comma-separated. Write the remarks after '---'.\n")
	b.WriteString(FilePrefix)
	b.WriteString(fileName)
	b.WriteString("\n")
	b.WriteString(TagsPrefix)
	if len(tags) > 0 {
		b.WriteString(strings.Join(tags, ", "))
	}
	b.WriteString("\n---\n")
	if remarks != "" {
		if !strings.HasSuffix(remarks, "\n") {
			remarks += "\n"
		}
		b.WriteString(remarks)
	}
	return b.String()
}

// ParseRemarks extracts tags and remarks from the editor output. The File
// line is informational and ignored.
func ParseRemarks(s string) (tags []string, remarks string) {
	lines := strings.Split(s, "\n")
	inBody := false
	var bodyLines []string
	for _, line := range lines {
		if inBody {
			bodyLines = append(bodyLines, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(line, strings.TrimSpace(TagsPrefix)):
			raw := strings.TrimSpace(strings.TrimPrefix(line, strings.TrimSpace(TagsPrefix)))
			for _, t := range strings.Split(raw, ",") {
				if tt := strings.TrimSpace(t); tt != "" {
					tags = append(tags, tt)
				}
			}
		case trimmed == "---":
			inBody = true
		}
	}
	return tags, strings.TrimSpace(strings.Join(bodyLines, "\n"))
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi", "nano"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathFor returns a temp file path for composing remarks of fileName.
func PathFor(fileName string) (string, error) {
	name := sanitize(filepath.Base(fileName)) + ".remarks.md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "docman", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "docman", "edit", name), nil
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}

func writeFile0600(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, fs.FileMode(0o600))
}

// OpenAt opens the editor at path with initial content and returns final bytes and whether it changed.
func OpenAt(path string, initial []byte) (final []byte, changed bool, err error) {
	if err := writeFile0600(path, initial); err != nil {
		return nil, false, err
	}
	// Honor VISUAL/EDITOR including flags by running via a shell wrapper.
	ed := os.Getenv("VISUAL")
	if ed == "" {
		ed = os.Getenv("EDITOR")
	}
	var cmd *exec.Cmd
	if strings.TrimSpace(ed) != "" {
		cmd = exec.Command("sh", "-c", "$EDITORCMD \"$FILEPATH\"")
		cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	} else {
		prog, err := PreferredEditor()
		if err != nil {
			return nil, false, err
		}
		cmd = exec.Command(prog, path)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(out, initial), nil
}
