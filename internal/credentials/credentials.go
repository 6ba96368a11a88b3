// Package credentials derives tenant database resources from an
// organization's display name. Name and user derivation is deterministic;
// passwords are fresh on every call. Global uniqueness of the derived names
// is not guaranteed here; a collision surfaces as a create-database failure
// on the control panel.
package credentials

import (
	"crypto/rand"
	"math/big"

	"github.com/view360/provisioning/pkg/models"
)

const (
	prefixMaxLen   = 8
	databaseSuffix = "360view"
	userSuffix     = "360u"
	passwordLen    = 12

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	upperAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitAlphabet    = "0123456789"
)

// Derive computes the database name, database user, and a fresh password
// for a tenant named by the given company display name.
func Derive(companyName string) models.TenantCredentials {
	return models.TenantCredentials{
		Database: DatabaseName(companyName),
		User:     DatabaseUser(companyName),
		Password: NewPassword(),
	}
}

// DatabaseName returns the tenant database name: the alphanumeric prefix of
// the company name, capped at 8 characters, with a fixed suffix.
func DatabaseName(companyName string) string {
	return sanitizePrefix(companyName) + databaseSuffix
}

// DatabaseUser returns the tenant database user for the company.
func DatabaseUser(companyName string) string {
	return sanitizePrefix(companyName) + userSuffix
}

// NewPassword returns a random alphanumeric password with a guaranteed
// uppercase letter and digit appended, satisfying hosting-provider
// complexity rules.
func NewPassword() string {
	b := make([]byte, 0, passwordLen+2)
	for i := 0; i < passwordLen; i++ {
		b = append(b, randomByte(passwordAlphabet))
	}
	b = append(b, randomByte(upperAlphabet))
	b = append(b, randomByte(digitAlphabet))
	return string(b)
}

func sanitizePrefix(name string) string {
	b := make([]byte, 0, prefixMaxLen)
	for i := 0; i < len(name) && len(b) < prefixMaxLen; i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			b = append(b, c)
		}
	}
	return string(b)
}

func randomByte(alphabet string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(err)
	}
	return alphabet[n.Int64()]
}
