package dispatch

import (
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
)

// Family is the remote-access tool a command forwards to.
type Family int

const (
	SSH Family = iota
	SCP
	SFTP
	Rsync
	CopyID
	Mussh
)

// Families lists every family in declaration order.
func Families() []Family {
	return []Family{SSH, SCP, SFTP, Rsync, CopyID, Mussh}
}

// String returns the name of the underlying tool.
func (f Family) String() string {
	switch f {
	case SSH:
		return "ssh"
	case SCP:
		return "scp"
	case SFTP:
		return "sftp"
	case Rsync:
		return "rsync"
	case CopyID:
		return "ssh-copy-id"
	case Mussh:
		return "mussh"
	default:
		return "unknown"
	}
}

// Command returns the helper command name for the family.
func (f Family) Command() string {
	switch f {
	case SSH:
		return "tssh"
	case SCP:
		return "tscp"
	case SFTP:
		return "tsftp"
	case Rsync:
		return "trsync"
	case CopyID:
		return "tssh_copy_id"
	case Mussh:
		return "tmussh"
	default:
		return ""
	}
}

// FamilyForCommand maps a command name (as found in argv[0]) to its family.
// "ts" is an alias for tssh. A ".exe" suffix and "-" for "_" are tolerated.
func FamilyForCommand(name string) (Family, bool) {
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")
	name = strings.ReplaceAll(name, "-", "_")
	if name == "ts" {
		return SSH, true
	}
	for _, f := range Families() {
		if f.Command() == name {
			return f, true
		}
	}
	return 0, false
}

// Binary returns the configured executable for the family.
func (f Family) Binary(tools config.ToolsConfig) string {
	switch f {
	case SSH:
		return tools.SSH
	case SCP:
		return tools.SCP
	case SFTP:
		return tools.SFTP
	case Rsync:
		return tools.Rsync
	case CopyID:
		return tools.SSHCopyID
	case Mussh:
		return tools.Mussh
	default:
		return ""
	}
}

// MultiHost reports whether every operand may name a remote host
// (scp, rsync) rather than a single destination.
func (f Family) MultiHost() bool {
	return f == SCP || f == Rsync
}

// valueOptions lists the short options that consume the next argument
// (or the rest of their cluster) as a value.
func (f Family) valueOptions() string {
	switch f {
	case SSH:
		return "BbcDEeFIiJLlmOoPpQRSWw"
	case SCP:
		return "cDFiJloPSX"
	case SFTP:
		return "BbcDFiJloPRSsX"
	case Rsync:
		return "BefMT@"
	case CopyID:
		return "iFopt"
	case Mussh:
		return "CcHiJLlopst"
	default:
		return ""
	}
}

// rsyncLongValueOptions are rsync long options that may take their value
// as the following argument.
var rsyncLongValueOptions = map[string]bool{
	"--address": true, "--backup-dir": true, "--block-size": true,
	"--bwlimit": true, "--checksum-choice": true, "--chmod": true,
	"--chown": true, "--compare-dest": true, "--compress-choice": true,
	"--contimeout": true, "--copy-dest": true, "--debug": true,
	"--exclude": true, "--exclude-from": true, "--files-from": true,
	"--filter": true, "--groupmap": true, "--iconv": true,
	"--include": true, "--include-from": true, "--info": true,
	"--link-dest": true, "--log-file": true, "--log-file-format": true,
	"--max-delete": true, "--max-size": true, "--min-size": true,
	"--modify-window": true, "--out-format": true, "--partial-dir": true,
	"--password-file": true, "--port": true, "--read-batch": true,
	"--remote-option": true, "--rsh": true, "--rsync-path": true,
	"--skip-compress": true, "--sockopts": true, "--suffix": true,
	"--temp-dir": true, "--timeout": true, "--usermap": true,
	"--write-batch": true, "--only-write-batch": true,
}

// TakesValue reports whether the option arg consumes the next argument.
func (f Family) TakesValue(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	if strings.HasPrefix(arg, "--") {
		return f == Rsync && !strings.Contains(arg, "=") && rsyncLongValueOptions[arg]
	}
	opts := f.valueOptions()
	cluster := arg[1:]
	for i, c := range cluster {
		if strings.ContainsRune(opts, c) {
			// A value glued to the option (-p22, -oUser=x) leaves nothing to consume.
			return i == len(cluster)-1
		}
	}
	return false
}

// HelperFlags are stripped by the CLI before anything is forwarded.
var HelperFlags = []string{"--ts-dry-run", "--ts-pick", "--ts-no-cache", "--ts-completion", "--help"}

// Flags returns the fixed flag set offered by completion for the family.
func (f Family) Flags() []string {
	var flags []string
	switch f {
	case SSH:
		flags = []string{"-4", "-6", "-A", "-C", "-F", "-i", "-J", "-L", "-l", "-N", "-o", "-p", "-q", "-R", "-T", "-t", "-v", "-X", "-Y"}
	case SCP:
		flags = []string{"-3", "-4", "-6", "-C", "-F", "-i", "-J", "-l", "-o", "-P", "-p", "-q", "-r", "-v"}
	case SFTP:
		flags = []string{"-4", "-6", "-b", "-C", "-F", "-i", "-J", "-l", "-o", "-P", "-p", "-q", "-r", "-v"}
	case Rsync:
		flags = []string{"-a", "-e", "-n", "-P", "-r", "-v", "-z", "--checksum", "--delete", "--dry-run", "--exclude", "--include", "--partial", "--progress", "--rsh"}
	case CopyID:
		flags = []string{"-f", "-F", "-i", "-n", "-o", "-p", "-s"}
	case Mussh:
		flags = []string{"-a", "-b", "-c", "-C", "-h", "-H", "-i", "-l", "-m", "-o", "-q", "-t", "-u", "-v"}
	}
	return append(flags, HelperFlags...)
}
