package model

import (
	"math"
	"time"

	"tasteit/internal/cursor"
)

// Price bounds for a search, in €-levels.
const (
	MinPrice        = 1
	MaxPrice        = 5
	DefaultMaxPrice = 3
)

// UnknownTravel is the distance and duration reported when a route could not be computed.
const UnknownTravel = 100000

const earthRadiusMeters = 6371000

// GeneralPlace is a named geographic point.
type GeneralPlace struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// DistanceTo returns the great-circle distance in meters between p and o.
func (p GeneralPlace) DistanceTo(o GeneralPlace) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := o.Latitude * math.Pi / 180
	dLat := (o.Latitude - p.Latitude) * math.Pi / 180
	dLon := (o.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

// TravelMode is how the user intends to reach a restaurant.
type TravelMode int

const (
	TravelWalking TravelMode = iota
	TravelDriving
)

func (m TravelMode) String() string {
	if m == TravelDriving {
		return "driving"
	}
	return "walking"
}

// Toggle returns the other travel mode.
func (m TravelMode) Toggle() TravelMode {
	if m == TravelDriving {
		return TravelWalking
	}
	return TravelDriving
}

// ResearchCriteria holds the parameters of an in-progress search.
type ResearchCriteria struct {
	Origin     GeneralPlace
	Food       string
	MaxPrice   int
	OpenNow    bool
	TravelMode TravelMode
}

// NewResearchCriteria returns criteria starting at origin with default price and hours.
func NewResearchCriteria(origin GeneralPlace) *ResearchCriteria {
	return &ResearchCriteria{
		Origin:   origin,
		MaxPrice: DefaultMaxPrice,
	}
}

// Relax drops the open-now constraint and resets the price ceiling.
func (c *ResearchCriteria) Relax() {
	c.OpenNow = false
	c.MaxPrice = DefaultMaxPrice
}

// Travel is the routed distance and duration between two places.
type Travel struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// UnknownRoute is the sentinel travel value used when routing fails.
var UnknownRoute = Travel{DistanceMeters: UnknownTravel, DurationSeconds: UnknownTravel}

// Known reports whether t holds a real route rather than the sentinel.
func (t Travel) Known() bool {
	return t.DistanceMeters < UnknownTravel && t.DurationSeconds < UnknownTravel
}

// Review is a single user review of a restaurant.
type Review struct {
	Author string
	Rating int
	Text   string
	Date   time.Time
}

// Clone returns a copy of the review.
func (r Review) Clone() Review {
	return r
}

// RestaurantDetail holds the fields fetched on demand for a restaurant.
type RestaurantDetail struct {
	Address   string
	Phone     string
	Website   string
	MapsURL   string
	Timetable string
	Reviews   *cursor.List[Review] // nil when the provider returned no review block
}

// Restaurant is a search result. Detail fields are empty until IsDetailed is set.
type Restaurant struct {
	GeneralPlace
	ID           string
	PriceLevel   int // 0 (cheap) to 4 (very expensive)
	Rating       float64
	TotalRatings int
	Travel       Travel

	Address   string
	Phone     string
	Website   string
	MapsURL   string
	Timetable string
	Reviews   *cursor.List[Review]

	IsDetailed     bool
	ReviewsFetched bool
}

// ApplyDetail copies fetched detail fields onto r and marks it detailed.
func (r *Restaurant) ApplyDetail(d RestaurantDetail) {
	r.Address = d.Address
	r.Phone = d.Phone
	r.Website = d.Website
	r.MapsURL = d.MapsURL
	r.Timetable = d.Timetable
	if d.Reviews != nil {
		r.SetReviews(d.Reviews)
	}
	r.IsDetailed = true
}

// SetReviews caches reviews on r.
func (r *Restaurant) SetReviews(reviews *cursor.List[Review]) {
	if reviews == nil {
		reviews = &cursor.List[Review]{}
	}
	r.Reviews = reviews
	r.ReviewsFetched = true
}

// Clone returns a deep copy of r, reviews included.
func (r *Restaurant) Clone() *Restaurant {
	c := *r
	if r.Reviews != nil {
		c.Reviews = r.Reviews.Clone()
	}
	return &c
}

// FavoriteList is a user-named collection of saved restaurants.
type FavoriteList struct {
	ID          int64
	Category    string
	Restaurants *cursor.List[*Restaurant]
}

// ChatKind is the kind of chat an update comes from.
type ChatKind string

const (
	ChatPrivate    ChatKind = "private"
	ChatGroup      ChatKind = "group"
	ChatSupergroup ChatKind = "supergroup"
)

// IsGroup reports whether polls can be started in this chat.
func (k ChatKind) IsGroup() bool {
	return k == ChatGroup || k == ChatSupergroup
}

// FlowKind identifies one of the independent conversations.
type FlowKind string

const (
	FlowSearch    FlowKind = "search"
	FlowFavorites FlowKind = "favorites"
	FlowSettings  FlowKind = "settings"
	FlowLanguage  FlowKind = "language"
)

// Prefix returns the callback-data prefix owned by the flow.
func (f FlowKind) Prefix() string {
	switch f {
	case FlowSearch:
		return "s"
	case FlowFavorites:
		return "f"
	case FlowSettings:
		return "c"
	case FlowLanguage:
		return "l"
	}
	return ""
}

// FlowForPrefix maps a callback-data prefix back to its flow.
func FlowForPrefix(prefix string) (FlowKind, bool) {
	for _, f := range []FlowKind{FlowSearch, FlowFavorites, FlowSettings, FlowLanguage} {
		if f.Prefix() == prefix {
			return f, true
		}
	}
	return "", false
}
