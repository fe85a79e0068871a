package bot

import (
	"errors"
	"html"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"tasteit/internal/cursor"
	"tasteit/internal/model"
	"tasteit/internal/util"
)

// foodPattern accepts alphabetic words separated by single spaces.
var foodPattern = regexp.MustCompile(`^[a-zA-Z]+( [a-zA-Z]+)*$`)

// ValidFood reports whether text is an acceptable food keyword.
func ValidFood(text string) bool {
	return foodPattern.MatchString(strings.TrimSpace(text))
}

const (
	maxPollOptions = 10
	maxListName    = 64
)

func (t *turn) startSearch() {
	t.loadRadii()
	t.s.State = AwaitingOrigin
	t.show(t.text("GENERAL_SendRequiredPositionInfos"), nil)
}

// loadRadii reads the chat radii, keeping the defaults on failure.
func (t *turn) loadRadii() {
	if r, err := t.e.repo.WalkRadius(t.ctx, t.s.ChatID); err == nil && r > 0 {
		t.s.WalkRadius = r
	} else if err != nil {
		t.e.logger.Warn("load walk radius", "chat_id", t.s.ChatID, "error", err)
	}
	if r, err := t.e.repo.DriveRadius(t.ctx, t.s.ChatID); err == nil && r > 0 {
		t.s.DriveRadius = r
	} else if err != nil {
		t.e.logger.Warn("load drive radius", "chat_id", t.s.ChatID, "error", err)
	}
}

func (t *turn) search(u model.Update) {
	switch t.s.State {
	case AwaitingOrigin:
		t.awaitingOrigin(u)
	case AwaitingFood:
		t.awaitingFood(u)
	case NamingNewList:
		t.namingNewList(u)
	default:
		if u.Kind != model.EventCallback {
			return
		}
		cb, ok := parseCallback(u.Callback)
		if !ok {
			return
		}
		if cb.action == actEnd {
			t.finish(t.text("GENERAL_OperationCanceled"))
			return
		}
		switch t.s.State {
		case ReviewingCriteria:
			t.reviewingCriteria(cb)
		case PickingPrice:
			t.pickingPrice(cb)
		case BrowsingResults:
			t.browsingResults(cb)
		case ViewingDetail:
			t.viewingDetail(cb)
		case BrowsingReviews:
			t.browsingReviews(cb)
		case PickingFavoriteList:
			t.pickingFavoriteList(cb)
		}
	}
}

// isEnd reports whether u is the end button of the flow.
func isEnd(u model.Update) bool {
	if u.Kind != model.EventCallback {
		return false
	}
	cb, ok := parseCallback(u.Callback)
	return ok && cb.action == actEnd
}

func (t *turn) awaitingOrigin(u model.Update) {
	if isEnd(u) {
		t.finish(t.text("GENERAL_OperationCanceled"))
		return
	}
	switch u.Kind {
	case model.EventLocation:
		t.consume(u)
		loc := u.Location
		if loc == nil || !validCoordinates(loc.Latitude, loc.Longitude) {
			t.show(t.text("ERROR_InvalidPosition"), nil)
			return
		}
		t.s.Criteria = model.NewResearchCriteria(model.GeneralPlace{Latitude: loc.Latitude, Longitude: loc.Longitude})
		t.s.State = AwaitingFood
		t.show(t.text("GENERAL_SearchRestaurantCurrentPositionAccepted"), nil)

	case model.EventText:
		t.consume(u)
		place, err := t.e.places.FindPlaceByText(t.ctx, u.Text)
		switch {
		case errors.Is(err, model.ErrNotFound):
			t.show(t.text("ERROR_NoPlacesFound"), nil)
			return
		case err != nil:
			t.fail("find place", err)
			return
		}
		t.s.Criteria = model.NewResearchCriteria(place)
		t.s.State = AwaitingFood
		t.show(t.text("GENERAL_SearchRestaurantStartingLocation", html.EscapeString(place.Name)), nil)
	}
}

func validCoordinates(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (t *turn) awaitingFood(u model.Update) {
	if isEnd(u) {
		t.finish(t.text("GENERAL_OperationCanceled"))
		return
	}
	if u.Kind != model.EventText {
		return
	}
	t.consume(u)
	food := strings.TrimSpace(u.Text)
	if !ValidFood(food) {
		t.show(t.text("ERROR_InvalidFood")+"\n\n"+t.text("GENERAL_FoodPreferenceReset"), nil)
		return
	}
	t.s.Criteria.Food = food
	t.s.State = ReviewingCriteria
	t.show(renderRecap(t.s))
}

func (t *turn) reviewingCriteria(cb callback) {
	c := t.s.Criteria
	switch cb.action {
	case actFood:
		t.s.State = AwaitingFood
		t.show(t.text("GENERAL_FoodPreferenceReset"), nil)
	case actTime:
		c.OpenNow = !c.OpenNow
		t.show(renderRecap(t.s))
	case actPrice:
		if cb.arg != "" {
			return
		}
		t.s.State = PickingPrice
		t.show(renderPricePicker(t.s))
	case actDistance:
		c.TravelMode = c.TravelMode.Toggle()
		t.show(renderRecap(t.s))
	case actSearch:
		t.runSearch()
	}
}

func (t *turn) pickingPrice(cb callback) {
	if cb.action != actPrice {
		return
	}
	level, ok := cb.intArg()
	if !ok || level < model.MinPrice || level > model.MaxPrice {
		return
	}
	t.s.Criteria.MaxPrice = int(level)
	t.s.State = ReviewingCriteria
	t.show(renderRecap(t.s))
}

// runSearch queries the provider, keeps the results within the active radius
// and starts browsing them. No results relax the criteria instead.
func (t *turn) runSearch() {
	t.s.State = Searching
	c := t.s.Criteria

	found, err := t.e.places.SearchRestaurants(t.ctx, *c, t.s.Lang)
	switch {
	case errors.Is(err, model.ErrNotFound):
		t.relax()
		return
	case err != nil:
		t.fail("search restaurants", err)
		return
	}

	radius := float64(t.s.Radius())
	kept := make([]*model.Restaurant, 0, len(found))
	for _, r := range found {
		if c.Origin.DistanceTo(r.GeneralPlace) <= radius {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		t.relax()
		return
	}

	t.computeTravel(kept)
	t.s.Results = cursor.New(kept...)
	t.s.State = BrowsingResults
	t.show(renderResult(t.s))
}

// computeTravel fills in travel metrics concurrently. Failed routes keep the
// unknown sentinel.
func (t *turn) computeTravel(restaurants []*model.Restaurant) {
	origin := t.s.Criteria.Origin
	mode := t.s.Criteria.TravelMode

	g, ctx := errgroup.WithContext(t.ctx)
	g.SetLimit(t.e.travelLimit)
	for _, r := range restaurants {
		g.Go(func() error {
			r.Travel = t.e.places.ComputeTravel(ctx, origin, r.GeneralPlace, mode)
			return nil
		})
	}
	_ = g.Wait()
}

// relax drops the open-now filter and resets the price, then shows the recap
// in a new message.
func (t *turn) relax() {
	t.s.Criteria.Relax()
	t.s.Results = nil
	t.s.State = ReviewingCriteria
	t.show(t.text("ERROR_NoRestaurantsFound"), nil)
	t.reset()
	t.show(renderRecap(t.s))
}

func (t *turn) browsingResults(cb callback) {
	switch cb.action {
	case actPrev, actNext:
		if t.navigate(t.s.Results, cb.action == actNext) {
			t.show(renderResult(t.s))
		}
	case actInfo:
		if !t.ensureDetail() {
			return
		}
		t.s.State = ViewingDetail
		t.show(renderDetail(t.s))
	case actPoll:
		t.poll(t.s.Results)
	case actAddToList:
		t.openListPicker(BrowsingResults)
	}
}

// ensureDetail fetches the current result's detail once. It reports false
// when the flow was aborted.
func (t *turn) ensureDetail() bool {
	r, err := t.s.Results.Current()
	if t.invariant("current result", err) {
		return false
	}
	if r.IsDetailed {
		return true
	}
	detail, err := t.e.places.FetchDetail(t.ctx, r.ID, t.s.Lang)
	if err != nil {
		t.fail("fetch detail", err)
		return false
	}
	r.ApplyDetail(detail)
	return true
}

// ensureReviews fetches the reviews of r once. It reports false when the flow
// was aborted.
func (t *turn) ensureReviews(r *model.Restaurant) bool {
	if r.ReviewsFetched {
		return true
	}
	reviews, err := t.e.places.FetchReviews(t.ctx, r.ID, t.s.Lang)
	if err != nil {
		t.fail("fetch reviews", err)
		return false
	}
	r.SetReviews(reviews)
	return true
}

func (t *turn) viewingDetail(cb callback) {
	switch cb.action {
	case actReviews:
		r, err := t.s.Results.Current()
		if t.invariant("current result", err) || !t.ensureReviews(r) {
			return
		}
		if r.Reviews.IsEmpty() {
			t.notify("ERROR_NoReviewsAvailable")
			return
		}
		t.s.State = BrowsingReviews
		t.show(renderReviews(t.s))
	case actBackToList:
		t.s.State = BrowsingResults
		t.show(renderResult(t.s))
	case actAddToList:
		t.openListPicker(ViewingDetail)
	}
}

func (t *turn) browsingReviews(cb callback) {
	r, err := t.s.Results.Current()
	if t.invariant("current result", err) {
		return
	}
	switch cb.action {
	case actPrevReview, actNextReview:
		if t.navigate(r.Reviews, cb.action == actNextReview) {
			t.show(renderReviews(t.s))
		}
	case actBackToInfo:
		t.s.State = ViewingDetail
		t.show(renderDetail(t.s))
	}
}

// poll starts a group poll over up to ten restaurants from the cursor onward.
// The live list is cloned so the browsing position is untouched.
func (t *turn) poll(l *cursor.List[*model.Restaurant]) {
	if !t.s.ChatKind.IsGroup() {
		t.notify("ERROR_PollGroupOnly")
		return
	}
	if l.Len() < 2 {
		t.notify("ERROR_InsufficientPollOptions")
		return
	}
	window := l.Clone().Window(maxPollOptions)
	options := make([]string, 0, len(window))
	for _, r := range window {
		options = append(options, util.TruncateString(r.Name, 100))
	}
	t.emit(model.StartPoll(t.text("GENERAL_PollQuestion"), options, int(t.e.pollDuration.Seconds())))
}

// openListPicker lists the chat's favorite lists so the current result can be
// saved. Lists are fetched fresh every time.
func (t *turn) openListPicker(returnTo State) {
	lists, err := t.e.repo.ListCategories(t.ctx, t.s.ChatID)
	if err != nil {
		t.e.logger.Warn("list categories", "chat_id", t.s.ChatID, "error", err)
		t.notify("ERROR_AddToListFailed")
		return
	}
	t.s.Lists = lists
	t.s.ReturnTo = returnTo
	t.s.State = PickingFavoriteList
	t.show(renderListPicker(t.s))
}

// back returns to the state the list picker was opened from.
func (t *turn) back() {
	t.s.Lists = nil
	switch t.s.ReturnTo {
	case ViewingDetail:
		t.s.State = ViewingDetail
		t.show(renderDetail(t.s))
	default:
		t.s.State = BrowsingResults
		t.show(renderResult(t.s))
	}
}

func (t *turn) pickingFavoriteList(cb callback) {
	switch cb.action {
	case actList:
		id, ok := cb.intArg()
		if !ok {
			return
		}
		list, ok := t.s.findList(id)
		if !ok {
			return
		}
		t.saveToList(list)
	case actNewList:
		t.s.State = NamingNewList
		t.show(renderNaming(t.s))
	case actBack:
		t.back()
	}
}

func (t *turn) saveToList(list model.FavoriteList) {
	if !t.ensureDetail() {
		return
	}
	r, _ := t.s.Results.Current()

	err := t.e.repo.UpsertRestaurant(t.ctx, r)
	if err == nil {
		err = t.e.repo.LinkRestaurantToList(t.ctx, list.ID, r.ID)
	}
	if err != nil {
		t.e.logger.Warn("save to list", "chat_id", t.s.ChatID, "list_id", list.ID, "error", err)
		t.notify("ERROR_AddToListFailed")
	} else {
		t.notify("GENERAL_RestaurantAddedToList", html.EscapeString(r.Name), html.EscapeString(list.Category))
	}
	t.back()
}

func (t *turn) namingNewList(u model.Update) {
	switch u.Kind {
	case model.EventCallback:
		cb, ok := parseCallback(u.Callback)
		if !ok {
			return
		}
		switch cb.action {
		case actEnd:
			t.finish(t.text("GENERAL_OperationCanceled"))
		case actBack:
			t.openListPicker(t.s.ReturnTo)
		}
	case model.EventText:
		t.consume(u)
		name := strings.TrimSpace(u.Text)
		if name == "" {
			t.show(t.text("ERROR_InvalidListName")+"\n\n"+t.text("GENERAL_InsertListName"), nil)
			return
		}
		name = util.TruncateString(name, maxListName)
		if _, err := t.e.repo.CreateList(t.ctx, t.s.ChatID, name); err != nil {
			t.e.logger.Warn("create list", "chat_id", t.s.ChatID, "error", err)
			t.notify("ERROR_CreateListFailed")
		} else {
			t.notify("GENERAL_ListCreated", html.EscapeString(name))
		}
		t.openListPicker(t.s.ReturnTo)
		if t.s.State == NamingNewList {
			// Listing failed; fall back to the result.
			t.back()
		}
	}
}
