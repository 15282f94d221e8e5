// Package auth resolves operator credentials into an explicit set of
// permissions that routes check before running.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type Role int

const (
	RoleViewer Role = iota + 1
	RoleBookkeeper
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleBookkeeper:
		return "bookkeeper"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "viewer":
		return RoleViewer, nil
	case "bookkeeper":
		return RoleBookkeeper, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", raw)
	}
}

// Permission is a single capability a route can require.
type Permission int

const (
	ViewLedger Permission = iota + 1
	EditDrafts
	CommitBatches
)

func (p Permission) String() string {
	switch p {
	case ViewLedger:
		return "view-ledger"
	case EditDrafts:
		return "edit-drafts"
	case CommitBatches:
		return "commit-batches"
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}

// Permissions is the capability set granted to an operator.
type Permissions struct {
	ViewLedger    bool `json:"viewLedger"`
	EditDrafts    bool `json:"editDrafts"`
	CommitBatches bool `json:"commitBatches"`
}

func PermissionsFor(r Role) Permissions {
	switch r {
	case RoleViewer:
		return Permissions{ViewLedger: true}
	case RoleBookkeeper:
		return Permissions{ViewLedger: true, EditDrafts: true}
	case RoleAdmin:
		return Permissions{ViewLedger: true, EditDrafts: true, CommitBatches: true}
	default:
		return Permissions{}
	}
}

func (p Permissions) Allows(perm Permission) bool {
	switch perm {
	case ViewLedger:
		return p.ViewLedger
	case EditDrafts:
		return p.EditDrafts
	case CommitBatches:
		return p.CommitBatches
	default:
		return false
	}
}

// Principal is an authenticated operator.
type Principal struct {
	ID          string      `json:"id"`
	Role        Role        `json:"-"`
	Permissions Permissions `json:"permissions"`
}

type operator struct {
	id      string
	keyHash []byte
	role    Role
}

// Registry holds the operators allowed to use the service.
type Registry struct {
	operators map[string]operator
}

// ParseRegistry reads "id:bcrypt-hash:role" entries separated by commas.
func ParseRegistry(raw string) (*Registry, error) {
	reg := &Registry{operators: make(map[string]operator)}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("operator entry %q: expected id:hash:role", entry)
		}
		id := strings.TrimSpace(parts[0])
		if id == "" {
			return nil, fmt.Errorf("operator entry %q: empty id", entry)
		}
		if _, err := bcrypt.Cost([]byte(parts[1])); err != nil {
			return nil, fmt.Errorf("operator %s: invalid key hash: %w", id, err)
		}
		role, err := ParseRole(parts[2])
		if err != nil {
			return nil, fmt.Errorf("operator %s: %w", id, err)
		}
		reg.operators[id] = operator{id: id, keyHash: []byte(parts[1]), role: role}
	}

	return reg, nil
}

func (r *Registry) Len() int {
	return len(r.operators)
}

// Authenticate checks key against the operator's bcrypt hash.
func (r *Registry) Authenticate(id, key string) (Principal, error) {
	op, ok := r.operators[id]
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(op.keyHash, []byte(key)); err != nil {
		return Principal{}, ErrUnauthorized
	}
	return Principal{ID: op.id, Role: op.role, Permissions: PermissionsFor(op.role)}, nil
}

// HashKey produces a hash suitable for an operator entry.
func HashKey(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
