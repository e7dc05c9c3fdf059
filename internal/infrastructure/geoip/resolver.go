package geoip

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// Resolver maps IP addresses to "<country ISO>/<city>" location strings
// using a MaxMind GeoIP2 or GeoLite2 City database.
type Resolver struct {
	db cityReader
}

// Open loads the City database at path.
func Open(path string) (*Resolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database at %s: %w", path, err)
	}
	return &Resolver{db: db}, nil
}

// ResolveLocation returns "<country ISO>/<city>", or just the country code
// when the database has no city for ip.
func (r *Resolver) ResolveLocation(ctx context.Context, ip string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid ip address %q", ip)
	}

	record, err := r.db.City(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip lookup failed for %s: %w", ip, err)
	}

	country := record.Country.IsoCode
	if country == "" {
		return "", fmt.Errorf("no location known for %s", ip)
	}
	if city, ok := record.City.Names["en"]; ok && city != "" {
		return country + "/" + city, nil
	}
	return country, nil
}

func (r *Resolver) Close() error {
	return r.db.Close()
}
