package shell

import (
	"os"
	"path/filepath"
	"strings"
)

const pathSep = string(filepath.Separator)

// CompleteNone never completes.
func CompleteNone(sh *Shell, args []string, c *Completions) bool {
	return false
}

// CompleteFiles returns a completer for a single path argument. The last
// token is split at its final separator into a directory and a name
// prefix; entries of that directory (the working directory when there is
// no separator) matching the prefix become candidates. Directories get a
// trailing separator. With dirsOnly, other entries are skipped.
func CompleteFiles(dirsOnly bool) Completer {
	return func(sh *Shell, args []string, c *Completions) bool {
		if len(args) > 2 {
			return false
		}

		arg := args[len(args)-1]
		dirPart, base, dir := "", arg, "."
		if i := strings.LastIndex(arg, pathSep); i >= 0 {
			dirPart, base = arg[:i+1], arg[i+1:]
			dir = dirPart
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			sh.log.Debugw("completion: read dir", "dir", dir, "error", err)
			return false
		}

		lead := strings.Join(args[:len(args)-1], " ") + " " + dirPart
		found := false
		for _, entry := range entries {
			name := entry.Name()
			if name == "." || name == ".." || !strings.HasPrefix(name, base) {
				continue
			}
			isDir := entryIsDir(dir, entry)
			if dirsOnly && !isDir {
				continue
			}

			line := lead + name
			if isDir {
				line += pathSep
			}
			c.Add(line)
			found = true
		}
		return found
	}
}

// entryIsDir follows symlinks so a link to a directory completes like one.
func entryIsDir(dir string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.IsDir()
}

// CompleteEnum returns a completer for a single argument drawn from a
// fixed set of literals.
func CompleteEnum(values ...string) Completer {
	return func(sh *Shell, args []string, c *Completions) bool {
		if len(args) != 2 {
			return false
		}

		found := false
		for _, v := range values {
			if strings.HasPrefix(v, args[1]) {
				c.Add(args[0] + " " + v)
				found = true
			}
		}
		return found
	}
}

// completeHelp completes a command name as the argument of help.
func completeHelp(sh *Shell, args []string, c *Completions) bool {
	if len(args) != 2 {
		return false
	}
	return sh.completeCommandName(args[1], args[0]+" ", c)
}
