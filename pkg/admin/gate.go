package admin

import "crypto/subtle"

// Gate guards the admin area with one shared password. It is a convenience
// lock for a single showroom, not an authentication system.
type Gate struct {
	password string
}

// NewGate creates a Gate for password. An empty password never matches.
func NewGate(password string) *Gate {
	return &Gate{password: password}
}

// Login reports whether password matches the shared secret
func (g *Gate) Login(password string) bool {
	if g.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(password)) == 1
}
