package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chatlens/internal/store"
)

// Session opens the stored transcript of a session in $EDITOR, positioned
// at the header line of message seq (or the top when seq < 0).
func Session(db *store.DB, sessionID string, seq int) error {
	session, err := db.GetSession(sessionID)
	if err != nil {
		return err
	}

	filePath := session.TranscriptPath
	if filePath == "" {
		filePath = session.SourcePath
	}
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("transcript not found: %s", filePath)
	}

	lineNum := 1
	if seq >= 0 {
		m, err := db.GetMessage(sessionID, seq)
		if err != nil {
			return err
		}
		lineNum = m.LineNumber
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"less"}
	}
	name, extra := fields[0], fields[1:]

	line := strconv.Itoa(lineNum)
	var args []string
	switch base := baseName(name); {
	case strings.Contains(base, "vim"), base == "vi", base == "nano", base == "emacs", base == "less":
		args = []string{"+" + line, filePath}
	case strings.Contains(base, "code"):
		args = []string{"--goto", filePath + ":" + line}
	case base == "subl", base == "hx":
		args = []string{filePath + ":" + line}
	default:
		args = []string{filePath}
	}
	return exec.Command(name, append(extra, args...)...)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
