package shell

import (
	"fmt"
	"path/filepath"
	"strings"
)

// destructiveCommands are executables that warrant an extra warning before
// the user confirms a command.
var destructiveCommands = map[string]struct{}{
	"rm":         {},
	"rmdir":      {},
	"dd":         {},
	"mkfs":       {},
	"fdisk":      {},
	"shutdown":   {},
	"reboot":     {},
	"halt":       {},
	"poweroff":   {},
	"init":       {},
	"killall":    {},
	"kill":       {},
	"pkill":      {},
	"killall5":   {},
	"chmod":      {},
	"chown":      {},
	"chgrp":      {},
	"mount":      {},
	"umount":     {},
	"parted":     {},
	"sfdisk":     {},
	"wipefs":     {},
	"mkfs.ext2":  {},
	"mkfs.ext3":  {},
	"mkfs.ext4":  {},
	"mkfs.vfat":  {},
	"mkfs.ntfs":  {},
	"mkfs.xfs":   {},
	"mkfs.btrfs": {},
}

// prefixCommands run their first argument as the real command.
var prefixCommands = map[string]struct{}{
	"sudo":  {},
	"doas":  {},
	"nohup": {},
	"exec":  {},
	"time":  {},
	"env":   {},
}

// IsDestructive reports whether an executable name is in the deny list.
func IsDestructive(executable string) bool {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(executable)))
	if base == "" {
		return false
	}
	_, ok := destructiveCommands[base]
	return ok
}

// DestructiveExecutables lists the deny-listed executables a shell command
// line would start, in order of appearance. Segments that do not parse are
// skipped.
func DestructiveExecutables(command string) []string {
	var found []string
	for _, segment := range splitSegments(command) {
		argv, err := ParseCommandLine(segment)
		if err != nil {
			continue
		}
		if exe, ok := leadingExecutable(argv); ok && IsDestructive(exe) {
			found = append(found, filepath.Base(exe))
		}
	}
	return found
}

// splitSegments breaks a command line at control operators.
func splitSegments(command string) []string {
	r := strings.NewReplacer("&&", "\n", "||", "\n", ";", "\n", "|", "\n", "&", "\n", "`", "\n", "$(", "\n", "(", "\n", ")", "\n")
	return strings.Split(r.Replace(command), "\n")
}

// leadingExecutable skips variable assignments and prefix commands.
func leadingExecutable(argv []string) (string, bool) {
	for _, arg := range argv {
		if strings.Contains(arg, "=") && !strings.HasPrefix(arg, "=") && !strings.Contains(arg, "/") {
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if _, ok := prefixCommands[filepath.Base(arg)]; ok {
			continue
		}
		return arg, true
	}
	return "", false
}

// ParseCommandLine parses a command string into argv without shell execution.
func ParseCommandLine(input string) ([]string, error) {
	var (
		args     []string
		current  strings.Builder
		inSingle bool
		inDouble bool
		escaped  bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		args = append(args, current.String())
		current.Reset()
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case (r == ' ' || r == '\t') && !inSingle && !inDouble:
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if escaped {
		return nil, fmt.Errorf("unterminated escape in command")
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote in command")
	}
	flush()

	return args, nil
}
