package core

import (
	"fmt"
	"strings"
)

// AuthLevel is a call-level authentication level (RPC_C_AUTHN_LEVEL_*).
type AuthLevel int

// Authentication levels.
const (
	AuthLevelDefault      AuthLevel = 0
	AuthLevelNone         AuthLevel = 1
	AuthLevelConnect      AuthLevel = 2
	AuthLevelCall         AuthLevel = 3
	AuthLevelPacket       AuthLevel = 4
	AuthLevelPktIntegrity AuthLevel = 5
	AuthLevelPktPrivacy   AuthLevel = 6
)

var authLevelNames = []string{"default", "none", "connect", "call", "packet", "pkt_integrity", "pkt_privacy"}

func (a AuthLevel) String() string {
	if a >= 0 && int(a) < len(authLevelNames) {
		return authLevelNames[a]
	}
	return fmt.Sprintf("AuthLevel(%d)", int(a))
}

// ParseAuthLevel converts a configuration name to an AuthLevel.
func ParseAuthLevel(s string) (AuthLevel, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range authLevelNames {
		if n == name {
			return AuthLevel(i), nil
		}
	}
	return AuthLevelDefault, fmt.Errorf("unknown authentication level %q (valid: %s)", s, strings.Join(authLevelNames, ", "))
}

// ImpLevel is an impersonation level (RPC_C_IMP_LEVEL_*).
type ImpLevel int

// Impersonation levels.
const (
	ImpLevelDefault     ImpLevel = 0
	ImpLevelAnonymous   ImpLevel = 1
	ImpLevelIdentify    ImpLevel = 2
	ImpLevelImpersonate ImpLevel = 3
	ImpLevelDelegate    ImpLevel = 4
)

var impLevelNames = []string{"default", "anonymous", "identify", "impersonate", "delegate"}

func (l ImpLevel) String() string {
	if l >= 0 && int(l) < len(impLevelNames) {
		return impLevelNames[l]
	}
	return fmt.Sprintf("ImpLevel(%d)", int(l))
}

// ParseImpLevel converts a configuration name to an ImpLevel.
func ParseImpLevel(s string) (ImpLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range impLevelNames {
		if n == name {
			return ImpLevel(i), nil
		}
	}
	return ImpLevelDefault, fmt.Errorf("unknown impersonation level %q (valid: %s)", s, strings.Join(impLevelNames, ", "))
}

// Security is the authentication/impersonation policy of a connection.
// Process is applied once per process before the locator exists; Proxy
// is applied to the service handle after connecting.
type Security struct {
	Authentication      AuthLevel
	Impersonation       ImpLevel
	ProxyAuthentication AuthLevel
}

// DefaultSecurity is the policy used when none is configured: default
// process authentication, per-call authentication on the proxy, and
// impersonation for both.
func DefaultSecurity() Security {
	return Security{
		Authentication:      AuthLevelDefault,
		Impersonation:       ImpLevelImpersonate,
		ProxyAuthentication: AuthLevelCall,
	}
}
