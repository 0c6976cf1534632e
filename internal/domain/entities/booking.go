package entities

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for travel dates.
const DateLayout = "2006-01-02"

// Booking is a confirmed reservation of a package for a date and party size
type Booking struct {
	ID              string  `json:"id"`
	PackageID       string  `json:"package_id"`
	PackageTitle    string  `json:"package_title"`
	PackageLocation string  `json:"package_location,omitempty"`
	Date            string  `json:"date"`
	Persons         int     `json:"persons"`
	Total           float64 `json:"total"`
	CreatedAt       string  `json:"created_at"`
	CustomerEmail   string  `json:"customer_email,omitempty"`
	UserEmail       string  `json:"user_email,omitempty"`
	PaymentID       string  `json:"payment_id,omitempty"`
	PaymentStatus   string  `json:"payment_status,omitempty"`
}

// BookingRequest is what the quick booking dialog collects
type BookingRequest struct {
	Date    string `json:"date"`
	Persons int    `json:"persons"`
}

// TravelerInfo is what the full booking form collects
type TravelerInfo struct {
	FullName  string `json:"fullname"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Travelers int    `json:"travelers"`
	Date      string `json:"date"`
}

// ClampPersons enforces a party of at least one.
func ClampPersons(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// BookingTotal is price times persons, with no tax or fee.
func BookingTotal(price float64, persons int) float64 {
	return price * float64(ClampPersons(persons))
}

// NewBooking builds the local booking record for pkg at time now.
func NewBooking(pkg TravelPackage, req BookingRequest, now time.Time) Booking {
	persons := ClampPersons(req.Persons)
	return Booking{
		ID:              fmt.Sprintf("%s_%d", pkg.ID, now.UnixMilli()),
		PackageID:       pkg.ID,
		PackageTitle:    pkg.Title,
		PackageLocation: pkg.Location,
		Date:            req.Date,
		Persons:         persons,
		Total:           BookingTotal(pkg.Price, persons),
		CreatedAt:       now.UTC().Format(time.RFC3339),
	}
}

// BookingStats summarise an agent's sales
type BookingStats struct {
	TotalBookings int     `json:"total_bookings"`
	Revenue       float64 `json:"revenue"`
	Commission    float64 `json:"commission"`
}
