package cache

import (
	"errors"
	"fmt"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache keys.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Key identifies availability data for one hotel and stay window.
type Key struct {
	HotelID  string
	CheckIn  string // YYYY-MM-DD
	CheckOut string // YYYY-MM-DD
}

// String returns the canonical form "hotelID:checkIn:checkOut".
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.HotelID, k.CheckIn, k.CheckOut)
}

// Validate checks that the key can be stored.
func (k Key) Validate() error {
	for _, part := range []string{k.HotelID, k.CheckIn, k.CheckOut} {
		if strings.TrimSpace(part) == "" {
			return ErrInvalidKey
		}
		if strings.ContainsAny(part, ":\n\r") {
			return ErrInvalidKey
		}
	}
	if len(k.String()) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// ParseKey parses the canonical "hotelID:checkIn:checkOut" form.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Key{}, ErrInvalidKey
	}
	k := Key{HotelID: parts[0], CheckIn: parts[1], CheckOut: parts[2]}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}
