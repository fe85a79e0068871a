package bot

import (
	"tasteit/internal/cursor"
	"tasteit/internal/model"
)

// State tags a conversation step.
type State string

// Search states.
const (
	AwaitingOrigin      State = "AwaitingOrigin"
	AwaitingFood        State = "AwaitingFood"
	ReviewingCriteria   State = "ReviewingCriteria"
	PickingPrice        State = "PickingPrice"
	Searching           State = "Searching"
	BrowsingResults     State = "BrowsingResults"
	ViewingDetail       State = "ViewingDetail"
	BrowsingReviews     State = "BrowsingReviews"
	PickingFavoriteList State = "PickingFavoriteList"
	NamingNewList       State = "NamingNewList"
)

// Favorites states.
const (
	ListingCategories      State = "ListingCategories"
	ViewingListRestaurants State = "ViewingListRestaurants"
	ViewingListReviews     State = "ViewingListReviews"
)

// Settings and language states.
const (
	SettingsMenu       State = "SettingsMenu"
	EditingWalkRadius  State = "EditingWalkRadius"
	EditingDriveRadius State = "EditingDriveRadius"
	PickingLanguage    State = "PickingLanguage"
)

// Ended is the terminal state of every flow.
const Ended State = "Ended"

// Session is the transient state of one conversation. It is owned by a single
// Conversation and never shared.
type Session struct {
	ChatID   int64
	UserID   int64
	ChatKind model.ChatKind
	Lang     string

	State State

	// ActiveMessage is the bot message edited in place as the flow advances.
	ActiveMessage model.MessageRef

	WalkRadius  int
	DriveRadius int

	// Search.
	Criteria *model.ResearchCriteria
	Results  *cursor.List[*model.Restaurant]

	// Lists shown by the last category or list picker.
	Lists []model.FavoriteList
	// Favorite is the list being browsed in the favorites flow.
	Favorite *model.FavoriteList
	// ReturnTo is where the favorite list picker goes back to.
	ReturnTo State
}

// Radius returns the radius for the active travel mode.
func (s *Session) Radius() int {
	if s.Criteria != nil && s.Criteria.TravelMode == model.TravelDriving {
		return s.DriveRadius
	}
	return s.WalkRadius
}

func (s *Session) findList(id int64) (model.FavoriteList, bool) {
	for _, l := range s.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return model.FavoriteList{}, false
}
