package entities

import (
	"math"
	"strings"
)

// PackageStatus tracks a package through the approval workflow
type PackageStatus string

const (
	PackageStatusPending  PackageStatus = "pending"
	PackageStatusApproved PackageStatus = "approved"
	PackageStatusRejected PackageStatus = "rejected"
)

// CanTransition reports whether a review may move a package from s to next.
// Only pending packages can be approved or rejected.
func (s PackageStatus) CanTransition(next PackageStatus) bool {
	return s == PackageStatusPending && (next == PackageStatusApproved || next == PackageStatusRejected)
}

const (
	DefaultCategory    = "packages"
	DefaultDescription = "Premium travel experience"
	PlaceholderImage   = "https://via.placeholder.com/400x300?text=Travel+Package"
	AllCategories      = "All"
)

// TravelPackage is a bookable trip offered in the catalog
type TravelPackage struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Discount    *float64      `json:"discount,omitempty"`
	Days        int           `json:"days"`
	Location    string        `json:"location"`
	Category    string        `json:"category"`
	Image       string        `json:"image,omitempty"`
	Gallery     []string      `json:"gallery,omitempty"`
	Offers      []string      `json:"offers,omitempty"`
	Inclusions  []string      `json:"inclusions,omitempty"`
	Highlights  []string      `json:"highlights,omitempty"`
	Itinerary   []string      `json:"itinerary,omitempty"`
	Rating      *float64      `json:"rating,omitempty"`
	Reviews     *int          `json:"reviews,omitempty"`
	Status      PackageStatus `json:"status,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
}

// FinalPrice applies the percentage discount and rounds to the nearest unit.
func (p TravelPackage) FinalPrice() float64 {
	if p.Discount == nil || *p.Discount == 0 {
		return p.Price
	}
	return math.Round(p.Price * (1 - *p.Discount/100))
}

// Matches reports whether the lowercased query occurs in the title, description or location.
func (p TravelPackage) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	haystack := strings.ToLower(p.Title + " " + p.Description + " " + p.Location)
	return strings.Contains(haystack, q)
}

// InCategory reports whether the package belongs to category. "All" and "" match everything.
func (p TravelPackage) InCategory(category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return p.Category == category
}

// PackageDraft is an agent's submission before the remote service assigns an id
type PackageDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Duration    int      `json:"duration"`
	Destination string   `json:"travel_destination"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Offers      []string `json:"offers"`
	Inclusions  []string `json:"inclusions"`
	Highlights  []string `json:"highlights"`
	Plans       string   `json:"plans"`
	Gallery     []string `json:"gallery"`
}

// ToPackage fills defaults and stamps the draft as a pending package owned by createdBy.
func (d PackageDraft) ToPackage(createdBy string) TravelPackage {
	pkg := TravelPackage{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Price:       d.Price,
		Days:        d.Duration,
		Location:    strings.TrimSpace(d.Destination),
		Category:    d.Category,
		Image:       d.Image,
		Offers:      nonNil(d.Offers),
		Inclusions:  nonNil(d.Inclusions),
		Highlights:  nonNil(d.Highlights),
		Itinerary:   []string{d.Plans},
		Gallery:     nonNil(d.Gallery),
		Status:      PackageStatusPending,
		CreatedBy:   createdBy,
	}
	if pkg.Description == "" {
		pkg.Description = DefaultDescription
	}
	if pkg.Category == "" {
		pkg.Category = DefaultCategory
	}
	if pkg.Image == "" {
		pkg.Image = PlaceholderImage
	}
	return pkg
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// DemoPackages are the fixed offers shown on the traveler dashboard.
func DemoPackages() []TravelPackage {
	return []TravelPackage{
		{ID: "pkg_basic", Title: "Purple Hills Weekend", Price: 4999, Days: 2, Category: DefaultCategory, Status: PackageStatusApproved},
		{ID: "pkg_deluxe", Title: "Lavender Coast Experience", Price: 8999, Days: 4, Category: DefaultCategory, Status: PackageStatusApproved},
		{ID: "pkg_premium", Title: "Royal Violet Escape", Price: 14999, Days: 6, Category: DefaultCategory, Status: PackageStatusApproved},
	}
}

// FindDemoPackage looks up a demo package by id.
func FindDemoPackage(id string) (TravelPackage, bool) {
	for _, p := range DemoPackages() {
		if p.ID == id {
			return p, true
		}
	}
	return TravelPackage{}, false
}

// PartitionByStatus splits packages into pending, approved and rejected lists.
func PartitionByStatus(pkgs []TravelPackage) (pending, approved, rejected []TravelPackage) {
	pending, approved, rejected = []TravelPackage{}, []TravelPackage{}, []TravelPackage{}
	for _, p := range pkgs {
		switch p.Status {
		case PackageStatusPending:
			pending = append(pending, p)
		case PackageStatusApproved:
			approved = append(approved, p)
		case PackageStatusRejected:
			rejected = append(rejected, p)
		}
	}
	return pending, approved, rejected
}
