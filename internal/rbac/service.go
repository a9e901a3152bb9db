package rbac

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/diarydesk/diarydesk/internal/shared"
)

// Service resolves effective permissions from a static policy.
type Service struct {
	mu     sync.RWMutex
	policy Policy
}

// NewService constructs a Service from an already parsed policy.
func NewService(policy Policy) *Service {
	return &Service{policy: normalizePolicy(policy)}
}

// LoadPolicyFile reads and parses a YAML policy. An empty path yields a
// policy that grants nothing.
func LoadPolicyFile(path string) (Policy, error) {
	if strings.TrimSpace(path) == "" {
		return Policy{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("rbac: read policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(raw []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("rbac: parse policy: %w", err)
	}
	known := map[string]struct{}{Wildcard: {}}
	for _, perm := range shared.DiaryScopes() {
		known[perm] = struct{}{}
	}
	for role, perms := range p.Roles {
		for _, perm := range perms {
			if _, ok := known[strings.ToLower(strings.TrimSpace(perm))]; !ok {
				return Policy{}, fmt.Errorf("rbac: role %q grants unknown permission %q", role, perm)
			}
		}
	}
	for user, roles := range p.Users {
		for _, role := range roles {
			if _, ok := p.Roles[role]; !ok {
				return Policy{}, fmt.Errorf("rbac: user %q references unknown role %q", user, role)
			}
		}
	}
	return p, nil
}

// Replace swaps the active policy.
func (s *Service) Replace(policy Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = normalizePolicy(policy)
}

// EffectivePermissions returns the sorted permission set of username.
func (s *Service) EffectivePermissions(_ context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := append([]string(nil), s.policy.DefaultRoles...)
	roles = append(roles, s.policy.Users[strings.TrimSpace(username)]...)

	set := make(map[string]struct{})
	for _, role := range roles {
		for _, perm := range s.policy.Roles[role] {
			set[perm] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out, nil
}

func normalizePolicy(p Policy) Policy {
	roles := make(map[string][]string, len(p.Roles))
	for name, perms := range p.Roles {
		roles[name] = normalizePermissions(perms)
	}
	p.Roles = roles
	return p
}
