package db

import (
	"context"
	"database/sql"

	"tasteit/internal/model"
)

type restaurantRow struct {
	ID           string          `db:"restaurant_id"`
	Name         string          `db:"name"`
	Latitude     float64         `db:"latitude"`
	Longitude    float64         `db:"longitude"`
	Address      sql.NullString  `db:"address"`
	Phone        sql.NullString  `db:"phone"`
	Website      sql.NullString  `db:"website"`
	MapsURL      sql.NullString  `db:"maps_url"`
	Rating       sql.NullFloat64 `db:"rating"`
	TotalRatings sql.NullInt64   `db:"total_ratings"`
	PriceLevel   sql.NullInt64   `db:"price_level"`
	Timetable    sql.NullString  `db:"timetable"`
}

func (r restaurantRow) toModel() *model.Restaurant {
	return &model.Restaurant{
		GeneralPlace: model.GeneralPlace{
			Name:      r.Name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		},
		ID:           r.ID,
		PriceLevel:   int(r.PriceLevel.Int64),
		Rating:       r.Rating.Float64,
		TotalRatings: int(r.TotalRatings.Int64),
		Travel:       model.UnknownRoute,
		Address:      r.Address.String,
		Phone:        r.Phone.String,
		Website:      r.Website.String,
		MapsURL:      r.MapsURL.String,
		Timetable:    r.Timetable.String,
		IsDetailed:   true,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// UpsertRestaurant saves a restaurant. A restaurant already saved is left as is.
func (s *Store) UpsertRestaurant(ctx context.Context, r *model.Restaurant) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO restaurant (
			restaurant_id, name, latitude, longitude, address, phone, website,
			maps_url, rating, total_ratings, price_level, timetable
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (restaurant_id) DO NOTHING
	`),
		r.ID, r.Name, r.Latitude, r.Longitude,
		nullString(r.Address), nullString(r.Phone), nullString(r.Website), nullString(r.MapsURL),
		r.Rating, r.TotalRatings, r.PriceLevel, nullString(r.Timetable),
	)
	if err != nil {
		return &model.PersistenceError{Op: "upsert restaurant", Err: err}
	}
	return nil
}

// ListFavoriteRestaurants returns the restaurants of a list in the order they
// were added.
func (s *Store) ListFavoriteRestaurants(ctx context.Context, listID int64) ([]*model.Restaurant, error) {
	var rows []restaurantRow
	err := s.db.SelectContext(ctx, &rows, s.rebind(`
		SELECT
			r.restaurant_id, r.name, r.latitude, r.longitude, r.address, r.phone,
			r.website, r.maps_url, r.rating, r.total_ratings, r.price_level, r.timetable
		FROM restaurant_for_list rl
		JOIN restaurant r ON r.restaurant_id = rl.restaurant_id
		WHERE rl.list_id = ?
		ORDER BY rl.added_at, r.name
	`), listID)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list favorite restaurants", Err: err}
	}

	restaurants := make([]*model.Restaurant, 0, len(rows))
	for _, row := range rows {
		restaurants = append(restaurants, row.toModel())
	}
	return restaurants, nil
}
