package dispatch

import (
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/resolve"
)

// remoteSchemes are the URI forms whose authority names a host.
var remoteSchemes = []string{"scp://", "sftp://", "ssh://", "rsync://"}

// operand is an argument split around its host component:
// scheme + user@ + host + rest reassembles the original.
type operand struct {
	scheme string
	target resolve.Target
	rest   string
}

func newOperand(scheme, user, host, rest string) operand {
	return operand{scheme: scheme, target: resolve.Target{User: user, HostQuery: host}, rest: rest}
}

// token rebuilds the operand with host substituted. IPv6 literals are
// bracketed wherever a port or path follows them.
func (o operand) token(host string) string {
	if strings.Contains(host, ":") && (o.scheme != "" || o.rest != "") {
		host = "[" + host + "]"
	}
	return o.scheme + o.target.Token(host) + o.rest
}

func isURI(arg string) bool {
	lower := strings.ToLower(arg)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// parseURI splits scheme://[user@]host[:port][/path].
func parseURI(arg string) (operand, bool) {
	for _, scheme := range remoteSchemes {
		if !strings.HasPrefix(strings.ToLower(arg), scheme) {
			continue
		}
		authority := arg[len(scheme):]
		rest := ""
		if i := strings.IndexByte(authority, '/'); i >= 0 {
			authority, rest = authority[:i], authority[i:]
		}
		user, hostport := resolve.SplitUserHost(authority)
		host := hostport
		if i := strings.IndexByte(hostport, ':'); i >= 0 {
			host, rest = hostport[:i], hostport[i:]+rest
		}
		if host == "" {
			return operand{}, false
		}
		return newOperand(arg[:len(scheme)], user, host, rest), true
	}
	return operand{}, false
}

// parseRemotePath splits scp/rsync style [user@]host:path and host::module.
// A colon after the first slash means a local path, as does a leading colon.
func parseRemotePath(arg string) (operand, bool) {
	if isURI(arg) {
		return parseURI(arg)
	}
	colon := strings.IndexByte(arg, ':')
	if colon <= 0 {
		return operand{}, false
	}
	if slash := strings.IndexByte(arg, '/'); slash >= 0 && slash < colon {
		return operand{}, false
	}
	user, host := resolve.SplitUserHost(arg[:colon])
	if host == "" {
		return operand{}, false
	}
	return newOperand("", user, host, arg[colon:]), true
}

// parseDestination splits the single destination of ssh, sftp and
// ssh-copy-id. sftp also accepts host:path.
func parseDestination(f Family, arg string) (operand, bool) {
	if isURI(arg) {
		return parseURI(arg)
	}
	if f == SFTP && strings.Contains(arg, ":") {
		return parseRemotePath(arg)
	}
	target, _ := resolve.ParseTarget([]string{arg})
	if target.HostQuery == "" {
		return operand{}, false
	}
	return operand{target: target}, true
}

// scanner walks an argument list the way the tool's option parser would.
type scanner struct {
	family Family
	args   []string
	// seen records the short options present before the first operand.
	seen map[rune]bool
}

func newScanner(f Family, args []string) *scanner {
	return &scanner{family: f, args: args, seen: make(map[rune]bool)}
}

// operands returns the indexes of non-option arguments. With first set it
// stops at the first operand.
func (s *scanner) operands(first bool) []int {
	var idx []int
	endOfOptions := false
	for i := 0; i < len(s.args); i++ {
		arg := s.args[i]
		switch {
		case endOfOptions || arg == "-" || !strings.HasPrefix(arg, "-"):
			idx = append(idx, i)
			if first {
				return idx
			}
		case arg == "--":
			endOfOptions = true
		default:
			if !strings.HasPrefix(arg, "--") {
				s.mark(arg)
			}
			if s.family.TakesValue(arg) {
				i++
			}
		}
	}
	return idx
}

// mark records each option in a cluster up to the first one taking a value.
func (s *scanner) mark(arg string) {
	opts := s.family.valueOptions()
	for _, c := range arg[1:] {
		s.seen[c] = true
		if strings.ContainsRune(opts, c) {
			return
		}
	}
}

// hasOption reports whether the short option c appeared before the host,
// either alone or in a cluster. Valid after operands has run.
func (s *scanner) hasOption(c rune) bool {
	return s.seen[c]
}

// hasSSHOption reports whether -o Key=... was passed for key, which would
// override what the helpers re-attach.
func hasSSHOption(args []string, key string) bool {
	key = strings.ToLower(key)
	for i, arg := range args {
		var value string
		switch {
		case arg == "-o" && i+1 < len(args):
			value = args[i+1]
		case strings.HasPrefix(arg, "-o") && len(arg) > 2:
			value = arg[2:]
		default:
			continue
		}
		value = strings.ToLower(strings.TrimSpace(value))
		if len(value) > len(key) && strings.HasPrefix(value, key) && (value[len(key)] == '=' || value[len(key)] == ' ') {
			return true
		}
	}
	return false
}

// FirstOperand returns the index of the first non-option argument, or -1.
func (f Family) FirstOperand(args []string) int {
	if idx := newScanner(f, args).operands(true); len(idx) > 0 {
		return idx[0]
	}
	return -1
}
