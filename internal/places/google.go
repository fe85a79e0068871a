package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"tasteit/internal/cursor"
	"tasteit/internal/i18n"
	"tasteit/internal/model"
	"tasteit/internal/util"
)

const (
	// DefaultBaseURL is the Google Maps web services root.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	fallbackWebsite = "https://www.google.com/"
	fallbackMaps    = "https://maps.google.com/"
)

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	CacheSize  int
	Retries    int // attempts per request, at least 1
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the Google Places, Geocoding and Directions APIs.
type Client struct {
	apiKey     string
	baseURL    string
	retries    int
	httpClient *http.Client
	geocode    *lru.Cache[string, model.GeneralPlace]
	logger     *slog.Logger
}

// NewClient creates a new Google Maps API client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Retries <= 0 {
		opts.Retries = 2
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cache, err := lru.New[string, model.GeneralPlace](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		retries:    opts.Retries,
		httpClient: opts.HTTPClient,
		geocode:    cache,
		logger:     opts.Logger,
	}, nil
}

// FindPlaceByText geocodes a free-text place name. The first candidate wins.
func (c *Client) FindPlaceByText(ctx context.Context, query string) (model.GeneralPlace, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if key == "" {
		return model.GeneralPlace{}, fmt.Errorf("find place: %w", model.ErrNotFound)
	}
	if p, ok := c.geocode.Get(key); ok {
		return p, nil
	}

	params := url.Values{}
	params.Set("fields", "name,geometry")
	params.Set("input", query)
	params.Set("inputtype", "textquery")

	var result findPlaceResponse
	if err := c.get(ctx, "find place", "/place/findplacefromtext/json", params, &result); err != nil {
		return model.GeneralPlace{}, err
	}
	if len(result.Candidates) == 0 {
		return model.GeneralPlace{}, fmt.Errorf("find place: %w", model.ErrNotFound)
	}

	first := result.Candidates[0]
	p := model.GeneralPlace{
		Name:      first.Name,
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
	}
	c.geocode.Add(key, p)
	return p, nil
}

// SearchRestaurants lists restaurants near the criteria origin ranked by
// distance. Results are not bounded by any radius.
func (c *Client) SearchRestaurants(ctx context.Context, criteria model.ResearchCriteria, lang string) ([]*model.Restaurant, error) {
	params := url.Values{}
	params.Set("keyword", criteria.Food)
	params.Set("maxprice", strconv.Itoa(criteria.MaxPrice-1))
	if criteria.OpenNow {
		params.Set("opennow", "true")
	}
	params.Set("language", lang)
	params.Set("location", latLng(criteria.Origin))
	params.Set("rankby", "distance")
	params.Set("type", "restaurant")

	var result nearbySearchResponse
	if err := c.get(ctx, "nearby search", "/place/nearbysearch/json", params, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("nearby search: %w", model.ErrNotFound)
	}

	restaurants := make([]*model.Restaurant, 0, len(result.Results))
	for _, r := range result.Results {
		restaurant := &model.Restaurant{
			GeneralPlace: model.GeneralPlace{
				Name:      r.Name,
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			},
			ID:     r.PlaceID,
			Travel: model.UnknownRoute,
		}
		if r.PriceLevel != nil {
			restaurant.PriceLevel = *r.PriceLevel
		}
		if r.Rating != nil {
			restaurant.Rating = *r.Rating
		}
		if r.UserRatingsTotal != nil {
			restaurant.TotalRatings = *r.UserRatingsTotal
		}
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, nil
}

// FetchDetail fetches the address, contacts, opening hours and reviews of a
// place. Missing fields get a localized or generic fallback.
func (c *Client) FetchDetail(ctx context.Context, id, lang string) (model.RestaurantDetail, error) {
	params := url.Values{}
	params.Set("fields", "formatted_address,formatted_phone_number,opening_hours/weekday_text,reviews,website,url")
	params.Set("language", lang)
	params.Set("place_id", id)

	var result detailsResponse
	if err := c.get(ctx, "place details", "/place/details/json", params, &result); err != nil {
		return model.RestaurantDetail{}, err
	}

	r := result.Result
	detail := model.RestaurantDetail{
		Address:   orDefault(r.FormattedAddress, i18n.Render("ERROR_AddressNotAvailable", lang)),
		Phone:     orDefault(r.FormattedPhoneNumber, i18n.Render("ERROR_PhoneNumberNotAvailable", lang)),
		Website:   orDefault(r.Website, fallbackWebsite),
		MapsURL:   orDefault(r.URL, fallbackMaps),
		Timetable: i18n.Render("ERROR_TimetableNotAvailable", lang),
	}
	if r.OpeningHours != nil && len(r.OpeningHours.WeekdayText) > 0 {
		detail.Timetable = strings.Join(r.OpeningHours.WeekdayText, "\n")
	}
	if r.Reviews != nil {
		detail.Reviews = toReviews(r.Reviews)
	}
	return detail, nil
}

// FetchReviews fetches only the reviews of a place.
func (c *Client) FetchReviews(ctx context.Context, id, lang string) (*cursor.List[model.Review], error) {
	params := url.Values{}
	params.Set("fields", "reviews")
	params.Set("language", lang)
	params.Set("place_id", id)

	var result detailsResponse
	if err := c.get(ctx, "place reviews", "/place/details/json", params, &result); err != nil {
		return nil, err
	}
	return toReviews(result.Result.Reviews), nil
}

// ComputeTravel routes from origin to destination. Any failure yields
// model.UnknownRoute rather than an error.
func (c *Client) ComputeTravel(ctx context.Context, origin, destination model.GeneralPlace, mode model.TravelMode) model.Travel {
	params := url.Values{}
	params.Set("origin", latLng(origin))
	params.Set("destination", latLng(destination))
	params.Set("mode", mode.String())

	var result directionsResponse
	if err := c.get(ctx, "directions", "/directions/json", params, &result); err != nil {
		c.logger.Debug("route unavailable", "destination", destination.Name, "error", err)
		return model.UnknownRoute
	}
	if len(result.Routes) == 0 || len(result.Routes[0].Legs) == 0 {
		return model.UnknownRoute
	}
	leg := result.Routes[0].Legs[0]
	return model.Travel{
		DistanceMeters:  leg.Distance.Value,
		DurationSeconds: leg.Duration.Value,
	}
}

// get performs a GET against endpoint and decodes the JSON body into out,
// mapping the API status to the domain error taxonomy.
func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, out statusChecker) error {
	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	err := util.RetryWithBackoff(ctx, c.retries, 200*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return util.Permanent(&model.ProviderError{Op: op, Err: fmt.Errorf("request creation failed: %w", err)})
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				// Keep the API key out of error reports.
				uerr.URL = c.baseURL + endpoint
			}
			return &model.ProviderError{Op: op, Err: fmt.Errorf("network error: %w", err)}
		}
		defer resp.Body.Close()

		// Non-2xx response
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			perr := &model.ProviderError{Op: op, Status: strconv.Itoa(resp.StatusCode), Err: fmt.Errorf("API error: status %d", resp.StatusCode)}
			if resp.StatusCode < 500 {
				return util.Permanent(perr)
			}
			return perr
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return util.Permanent(&model.ProviderError{Op: op, Err: fmt.Errorf("JSON decode error: %w", err)})
		}
		return nil
	}, c.logger)
	if err != nil {
		var perr *model.ProviderError
		if errors.As(err, &perr) {
			return perr
		}
		return &model.ProviderError{Op: op, Err: err}
	}
	return out.check(op)
}

func latLng(p model.GeneralPlace) string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func toReviews(in []review) *cursor.List[model.Review] {
	reviews := &cursor.List[model.Review]{}
	for _, r := range in {
		var date time.Time
		if r.Time > 0 {
			date = time.Unix(r.Time, 0).UTC()
		}
		reviews.Append(model.Review{
			Author: r.AuthorName,
			Rating: r.Rating,
			Text:   r.Text,
			Date:   date,
		})
	}
	return reviews
}
