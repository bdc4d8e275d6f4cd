package resolve

import "strings"

// Target is a parsed host argument: `[user@]host` plus whatever followed it.
type Target struct {
	User      string
	HostQuery string
	Remainder []string
}

// ParseTarget splits args into the host token and the remaining arguments.
// ok is false when args is empty.
func ParseTarget(args []string) (Target, bool) {
	if len(args) == 0 {
		return Target{}, false
	}
	user, host := SplitUserHost(args[0])
	return Target{
		User:      user,
		HostQuery: host,
		Remainder: append([]string(nil), args[1:]...),
	}, true
}

// SplitUserHost splits "user@host" at the last '@'. A token without '@'
// has an empty user.
func SplitUserHost(token string) (user, host string) {
	if i := strings.LastIndexByte(token, '@'); i >= 0 {
		return token[:i], token[i+1:]
	}
	return "", token
}

// JoinUserHost is the inverse of SplitUserHost.
func JoinUserHost(user, host string) string {
	if user == "" {
		return host
	}
	return user + "@" + host
}

// Token returns the target as it would be typed, with host substituted.
func (t Target) Token(host string) string {
	return JoinUserHost(t.User, host)
}
