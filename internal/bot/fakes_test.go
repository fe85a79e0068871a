package bot_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"tasteit/internal/bot"
	"tasteit/internal/cursor"
	"tasteit/internal/model"
)

type fakePlaces struct {
	mu sync.Mutex

	place   model.GeneralPlace
	findErr error

	results   []*model.Restaurant
	searchErr error
	searches  []model.ResearchCriteria

	detail      model.RestaurantDetail
	detailErr   error
	detailCalls map[string]int

	reviews     []model.Review
	reviewCalls map[string]int

	travel model.Travel
}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{
		detailCalls: map[string]int{},
		reviewCalls: map[string]int{},
		travel:      model.Travel{DistanceMeters: 120, DurationSeconds: 90},
		detail: model.RestaurantDetail{
			Address:   "Via Roma 1",
			Phone:     "+39 02 1234",
			Website:   "https://example.com",
			MapsURL:   "https://maps.google.com/?cid=1",
			Timetable: "Monday: 12:00 – 15:00",
		},
	}
}

func (f *fakePlaces) FindPlaceByText(_ context.Context, query string) (model.GeneralPlace, error) {
	if f.findErr != nil {
		return model.GeneralPlace{}, f.findErr
	}
	p := f.place
	if p.Name == "" {
		p.Name = query
	}
	return p, nil
}

func (f *fakePlaces) SearchRestaurants(_ context.Context, c model.ResearchCriteria, _ string) ([]*model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, c)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.results) == 0 {
		return nil, model.ErrNotFound
	}
	out := make([]*model.Restaurant, 0, len(f.results))
	for _, r := range f.results {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (f *fakePlaces) FetchDetail(_ context.Context, id, _ string) (model.RestaurantDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[id]++
	return f.detail, f.detailErr
}

func (f *fakePlaces) FetchReviews(_ context.Context, id, _ string) (*cursor.List[model.Review], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls[id]++
	return cursor.New(f.reviews...), nil
}

func (f *fakePlaces) ComputeTravel(context.Context, model.GeneralPlace, model.GeneralPlace, model.TravelMode) model.Travel {
	return f.travel
}

type fakeList struct {
	chatID      int64
	category    string
	restaurants []string
}

type fakeRepo struct {
	mu sync.Mutex

	langs       map[int64]string
	walk        map[int64]int
	drive       map[int64]int
	lists       map[int64]*fakeList
	restaurants map[string]*model.Restaurant
	nextList    int64

	createErr error
	linkErr   error
	saveErr   error
	listErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		langs:       map[int64]string{},
		walk:        map[int64]int{},
		drive:       map[int64]int{},
		lists:       map[int64]*fakeList{},
		restaurants: map[string]*model.Restaurant{},
	}
}

func (r *fakeRepo) Language(_ context.Context, chatID int64) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lang, ok := r.langs[chatID]
	return lang, ok, nil
}

func (r *fakeRepo) CreateChat(_ context.Context, chatID int64, lang string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.langs[chatID]; !ok {
		r.langs[chatID] = lang
	}
	return nil
}

func (r *fakeRepo) SetChatLanguage(_ context.Context, chatID int64, lang string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.langs[chatID] = lang
	return nil
}

func (r *fakeRepo) WalkRadius(_ context.Context, chatID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.walk[chatID], nil
}

func (r *fakeRepo) DriveRadius(_ context.Context, chatID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drive[chatID], nil
}

func (r *fakeRepo) SetWalkRadius(_ context.Context, chatID int64, meters int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.walk[chatID] = meters
	return nil
}

func (r *fakeRepo) SetDriveRadius(_ context.Context, chatID int64, meters int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.drive[chatID] = meters
	return nil
}

func (r *fakeRepo) ListCategories(_ context.Context, chatID int64) ([]model.FavoriteList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.FavoriteList
	for id, l := range r.lists {
		if l.chatID == chatID {
			out = append(out, model.FavoriteList{ID: id, Category: l.category})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) CreateList(_ context.Context, chatID int64, category string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	if strings.TrimSpace(category) == "" {
		return 0, &model.PersistenceError{Op: "create list", Err: errors.New("empty category")}
	}
	r.nextList++
	r.lists[r.nextList] = &fakeList{chatID: chatID, category: category}
	return r.nextList, nil
}

func (r *fakeRepo) ListFavoriteRestaurants(_ context.Context, listID int64) ([]*model.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	l, ok := r.lists[listID]
	if !ok {
		return nil, nil
	}
	out := make([]*model.Restaurant, 0, len(l.restaurants))
	for _, id := range l.restaurants {
		c := r.restaurants[id].Clone()
		c.Reviews = nil
		c.ReviewsFetched = false
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeRepo) UpsertRestaurant(_ context.Context, rest *model.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.restaurants[rest.ID]; !ok {
		r.restaurants[rest.ID] = rest.Clone()
	}
	return nil
}

func (r *fakeRepo) LinkRestaurantToList(_ context.Context, listID int64, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.linkErr != nil {
		return r.linkErr
	}
	l, ok := r.lists[listID]
	if !ok {
		return &model.PersistenceError{Op: "link restaurant", Err: model.ErrNotFound}
	}
	for _, id := range l.restaurants {
		if id == restaurantID {
			return nil
		}
	}
	l.restaurants = append(l.restaurants, restaurantID)
	return nil
}

func (r *fakeRepo) UnlinkRestaurantFromList(_ context.Context, listID int64, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[listID]
	if !ok {
		return nil
	}
	kept := l.restaurants[:0]
	for _, id := range l.restaurants {
		if id != restaurantID {
			kept = append(kept, id)
		}
	}
	l.restaurants = kept
	return nil
}

func (r *fakeRepo) DeleteList(_ context.Context, listID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lists, listID)
	return nil
}

// seedList stores a list holding the given restaurants.
func (r *fakeRepo) seedList(chatID int64, category string, rs ...*model.Restaurant) int64 {
	id, _ := r.CreateList(context.Background(), chatID, category)
	for _, rest := range rs {
		rest.IsDetailed = true
		_ = r.UpsertRestaurant(context.Background(), rest)
		_ = r.LinkRestaurantToList(context.Background(), id, rest.ID)
	}
	return id
}

type harness struct {
	t        *testing.T
	places   *fakePlaces
	repo     *fakeRepo
	engine   *bot.Engine
	reported []bot.Incident
	mu       sync.Mutex
	nextRef  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, places: newFakePlaces(), repo: newFakeRepo()}
	h.engine = bot.New(bot.Options{
		Places: h.places,
		Repo:   h.repo,
		Reporter: bot.ReporterFunc(func(_ context.Context, in bot.Incident) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.reported = append(h.reported, in)
		}),
		DefaultLanguage:    "en",
		DefaultWalkRadius:  1000,
		DefaultDriveRadius: 10000,
	})
	return h
}

const chatID = 42

func baseUpdate(kind model.ChatKind) model.Update {
	return model.Update{ChatID: chatID, UserID: 7, ChatKind: kind, UserLanguage: "en-US"}
}

// deliver binds refs for tracked sends the way the dispatcher does.
func (h *harness) deliver(c *bot.Conversation, effects []model.Effect) []model.Effect {
	for _, e := range effects {
		if e.Kind == model.EffectSend && e.Track {
			h.nextRef++
			c.Track(model.MessageRef("m" + strconv.Itoa(h.nextRef)))
		}
	}
	return effects
}

func (h *harness) start(kind model.FlowKind, chat model.ChatKind) (*bot.Conversation, []model.Effect) {
	h.t.Helper()
	c, out := h.engine.Start(context.Background(), kind, baseUpdate(chat))
	return c, h.deliver(c, out)
}

func (h *harness) text(c *bot.Conversation, text string) []model.Effect {
	u := baseUpdate(c.Session().ChatKind)
	u.Kind = model.EventText
	u.Text = text
	u.MessageRef = "user-msg"
	return h.deliver(c, c.Handle(context.Background(), u))
}

func (h *harness) location(c *bot.Conversation, lat, lon float64) []model.Effect {
	u := baseUpdate(c.Session().ChatKind)
	u.Kind = model.EventLocation
	u.Location = &model.Location{Latitude: lat, Longitude: lon}
	u.MessageRef = "user-loc"
	return h.deliver(c, c.Handle(context.Background(), u))
}

func (h *harness) press(c *bot.Conversation, data string) []model.Effect {
	u := baseUpdate(c.Session().ChatKind)
	u.Kind = model.EventCallback
	u.Callback = data
	return h.deliver(c, c.Handle(context.Background(), u))
}

func findText(effects []model.Effect, text string) bool {
	for _, e := range effects {
		if (e.Kind == model.EffectSend || e.Kind == model.EffectEdit) && e.Text == text {
			return true
		}
	}
	return false
}

func findKind(effects []model.Effect, kind model.EffectKind) (model.Effect, bool) {
	for _, e := range effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return model.Effect{}, false
}

func restaurantAt(id, name string, lat, lon float64) *model.Restaurant {
	return &model.Restaurant{
		GeneralPlace: model.GeneralPlace{Name: name, Latitude: lat, Longitude: lon},
		ID:           id,
		PriceLevel:   1,
		Rating:       4.2,
		TotalRatings: 120,
		Travel:       model.UnknownRoute,
	}
}
