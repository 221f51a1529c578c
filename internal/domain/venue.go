package domain

import "time"

type Venue struct {
	ID           string
	OwnerID      string
	Name         string
	Address      string
	Lat          float64
	Lng          float64
	Sports       []string
	Images       []string
	PricePerHour float64
	Amenities    []string
	Rating       float64
	IsSeeded     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VenueFilter narrows venue listings. Zero values mean "no constraint".
type VenueFilter struct {
	Sport      string
	City       string
	Query      string
	MinPrice   *float64
	MaxPrice   *float64
	SeededOnly bool
	Limit      int
	Skip       int
}
