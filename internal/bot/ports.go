package bot

import (
	"context"
	"time"

	"tasteit/internal/cursor"
	"tasteit/internal/model"
)

// PlacesProvider geocodes places, searches restaurants and routes between points.
type PlacesProvider interface {
	FindPlaceByText(ctx context.Context, query string) (model.GeneralPlace, error)
	SearchRestaurants(ctx context.Context, criteria model.ResearchCriteria, lang string) ([]*model.Restaurant, error)
	FetchDetail(ctx context.Context, id, lang string) (model.RestaurantDetail, error)
	FetchReviews(ctx context.Context, id, lang string) (*cursor.List[model.Review], error)
	ComputeTravel(ctx context.Context, origin, destination model.GeneralPlace, mode model.TravelMode) model.Travel
}

// Repository persists chat preferences and favorite lists.
type Repository interface {
	Language(ctx context.Context, chatID int64) (string, bool, error)
	CreateChat(ctx context.Context, chatID int64, lang string) error
	SetChatLanguage(ctx context.Context, chatID int64, lang string) error

	WalkRadius(ctx context.Context, chatID int64) (int, error)
	DriveRadius(ctx context.Context, chatID int64) (int, error)
	SetWalkRadius(ctx context.Context, chatID int64, meters int) error
	SetDriveRadius(ctx context.Context, chatID int64, meters int) error

	ListCategories(ctx context.Context, chatID int64) ([]model.FavoriteList, error)
	CreateList(ctx context.Context, chatID int64, category string) (int64, error)
	ListFavoriteRestaurants(ctx context.Context, listID int64) ([]*model.Restaurant, error)
	UpsertRestaurant(ctx context.Context, r *model.Restaurant) error
	LinkRestaurantToList(ctx context.Context, listID int64, restaurantID string) error
	UnlinkRestaurantFromList(ctx context.Context, listID int64, restaurantID string) error
	DeleteList(ctx context.Context, listID int64) error
}

// Incident is a failure worth an operator's attention.
type Incident struct {
	ID     string
	Time   time.Time
	ChatID int64
	Flow   model.FlowKind
	State  State
	Op     string
	Err    error
}

// Reporter delivers incidents to the operator channel.
type Reporter interface {
	Report(ctx context.Context, in Incident)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, in Incident)

func (f ReporterFunc) Report(ctx context.Context, in Incident) { f(ctx, in) }
