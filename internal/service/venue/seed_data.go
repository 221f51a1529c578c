package venue

import "github.com/sportease/sportease/internal/domain"

var seedSlotRanges = [][2]string{
	{"06:00", "07:00"},
	{"07:00", "08:00"},
	{"08:00", "09:00"},
	{"17:00", "18:00"},
	{"18:00", "19:00"},
	{"19:00", "20:00"},
}

var sampleVenues = []domain.Venue{
	{
		Name:         "Emerald Arena 5v5 Turf",
		Address:      "Vadodara, Gujarat",
		Lat:          22.3072,
		Lng:          73.1812,
		Sports:       []string{"football", "cricket"},
		Images:       []string{},
		PricePerHour: 1200,
		Amenities:    []string{"Lights", "Parking", "Locker"},
	},
	{
		Name:         "Charcoal Courts Badminton",
		Address:      "Alkapuri, Vadodara",
		Lat:          22.3100,
		Lng:          73.1800,
		Sports:       []string{"badminton"},
		Images:       []string{},
		PricePerHour: 500,
		Amenities:    []string{"AC", "Pro Shop"},
	},
	{
		Name:         "Blue Wave Swimming",
		Address:      "Gotri, Vadodara",
		Lat:          22.3201,
		Lng:          73.1609,
		Sports:       []string{"swimming"},
		Images:       []string{},
		PricePerHour: 300,
		Amenities:    []string{"Coach", "Shower"},
	},
	{
		Name:         "City Tennis Hub",
		Address:      "Akota, Vadodara",
		Lat:          22.2999,
		Lng:          73.1702,
		Sports:       []string{"tennis"},
		Images:       []string{},
		PricePerHour: 700,
		Amenities:    []string{"Clay Court", "Lights"},
	},
	{
		Name:         "Cricket Dome",
		Address:      "Manjalpur, Vadodara",
		Lat:          22.2700,
		Lng:          73.2000,
		Sports:       []string{"cricket"},
		Images:       []string{},
		PricePerHour: 900,
		Amenities:    []string{"Pitch", "Bowling Machine"},
	},
	{
		Name:         "Skate & Play Park",
		Address:      "Vasna Road, Vadodara",
		Lat:          22.3105,
		Lng:          73.1501,
		Sports:       []string{"skate"},
		Images:       []string{},
		PricePerHour: 400,
		Amenities:    []string{"Rentals", "Coach"},
	},
	{
		Name:         "Hoops Central",
		Address:      "Karelibaug, Vadodara",
		Lat:          22.3302,
		Lng:          73.2003,
		Sports:       []string{"basketball"},
		Images:       []string{},
		PricePerHour: 800,
		Amenities:    []string{"Indoor", "Scoreboard"},
	},
	{
		Name:         "Founding Partner Turf",
		Address:      "Fatehgunj, Vadodara",
		Lat:          22.3205,
		Lng:          73.2009,
		Sports:       []string{"football"},
		Images:       []string{},
		PricePerHour: 1100,
		Amenities:    []string{"Lights", "Cafe"},
	},
}
