package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandLine recognizes text by invoking an external tesseract binary, for
// installations where the library bindings are unavailable or a specific
// tesseract build must be used. The binary path comes from TESSERACT_CMD.
type CommandLine struct {
	cmd       string
	languages []string
}

// NewCommandLine constructs an exec-based engine around the given binary path.
func NewCommandLine(cmd string, languages []string) *CommandLine {
	return &CommandLine{cmd: cmd, languages: languages}
}

func (c *CommandLine) Name() string { return "tesseract-cli" }

// Recognize pipes the image through `tesseract stdin stdout` and returns the
// trimmed output.
func (c *CommandLine) Recognize(ctx context.Context, image []byte) (string, error) {
	args := []string{"stdin", "stdout"}
	if len(c.languages) > 0 {
		args = append(args, "-l", strings.Join(c.languages, "+"))
	}

	cmd := exec.CommandContext(ctx, c.cmd, args...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("tesseract %q failed: %w (%s)", c.cmd, err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
