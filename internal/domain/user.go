package domain

import "strings"

// UserRole is the caller's role as asserted by the auth service
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleArtist   UserRole = "artist"
	RoleAdmin    UserRole = "admin"
)

// ParseUserRole maps a token claim to a role
func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleArtist, RoleAdmin:
		return r, nil
	case "":
		return RoleCustomer, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r UserRole) CanManageConcerts() bool {
	return r == RoleArtist || r == RoleAdmin
}

func (r UserRole) CanViewAllPurchases() bool {
	return r == RoleAdmin
}

func (r UserRole) CanBuy() bool {
	return r == RoleCustomer || r == RoleArtist || r == RoleAdmin
}

// Actor is an authenticated caller
type Actor struct {
	UserID   string
	Email    string
	Role     UserRole
	ArtistID string // linked artist profile, artists only
}
