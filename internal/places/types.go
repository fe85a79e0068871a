package places

import (
	"errors"
	"fmt"

	"tasteit/internal/model"
)

// API response types

type statusChecker interface {
	check(op string) error
}

type apiStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (s apiStatus) check(op string) error {
	switch s.Status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	perr := &model.ProviderError{Op: op, Status: s.Status}
	if s.ErrorMessage != "" {
		perr.Err = errors.New(s.ErrorMessage)
	}
	return perr
}

type findPlaceResponse struct {
	apiStatus
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Name     string   `json:"name"`
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	Location latLngLiteral `json:"location"`
}

type latLngLiteral struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type nearbySearchResponse struct {
	apiStatus
	Results []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Geometry         geometry `json:"geometry"`
	PriceLevel       *int     `json:"price_level,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
}

type detailsResponse struct {
	apiStatus
	Result placeDetails `json:"result"`
}

type placeDetails struct {
	FormattedAddress     string        `json:"formatted_address"`
	FormattedPhoneNumber string        `json:"formatted_phone_number"`
	Website              string        `json:"website"`
	URL                  string        `json:"url"`
	OpeningHours         *openingHours `json:"opening_hours,omitempty"`
	Reviews              []review      `json:"reviews"`
}

type openingHours struct {
	WeekdayText []string `json:"weekday_text"`
}

type review struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

type directionsResponse struct {
	apiStatus
	Routes []route `json:"routes"`
}

type route struct {
	Legs []leg `json:"legs"`
}

type leg struct {
	Distance textValue `json:"distance"`
	Duration textValue `json:"duration"`
}

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}
