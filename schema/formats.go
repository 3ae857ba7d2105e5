package schema

import (
	"net"
	"net/mail"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Format is a `format` annotation value. Formats validate string
// values only; unknown formats validate vacuously, matching the
// JSON Schema annotation vocabulary.
type Format string

const (
	DateTimeFormat Format = "date-time"
	DateFormat     Format = "date"
	TimeFormat     Format = "time"
	EmailFormat    Format = "email"
	HostnameFormat Format = "hostname"
	IPv4Format     Format = "ipv4"
	IPv6Format     Format = "ipv6"
	UUIDFormat     Format = "uuid"
	URIFormat      Format = "uri"
	IntegerFormat  Format = "integer"
	NumberFormat   Format = "number"
)

// Validate reports whether s satisfies the format.
func (f Format) Validate(s string) bool {
	switch f {
	case DateTimeFormat:
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	case DateFormat:
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case TimeFormat:
		_, err := time.Parse("15:04:05Z07:00", s)
		return err == nil
	case EmailFormat:
		_, err := mail.ParseAddress(s)
		return err == nil
	case HostnameFormat:
		return len(s) > 0 && len(s) < 256
	case IPv4Format:
		ip := net.ParseIP(s)
		return ip != nil && ip.To4() != nil
	case IPv6Format:
		ip := net.ParseIP(s)
		return ip != nil && ip.To4() == nil
	case UUIDFormat:
		_, err := uuid.Parse(s)
		return err == nil
	case URIFormat:
		u, err := url.Parse(s)
		return err == nil && u.IsAbs()
	case IntegerFormat:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case NumberFormat:
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
	return true
}
