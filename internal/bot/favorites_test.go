package bot_test

import (
	"errors"
	"fmt"
	"testing"

	"tasteit/internal/bot"
	"tasteit/internal/i18n"
	"tasteit/internal/model"
)

func TestFavoritesWithoutLists(t *testing.T) {
	h := newHarness(t)
	c, out := h.start(model.FlowFavorites, model.ChatPrivate)

	if c.State() != bot.Ended {
		t.Fatalf("state = %s", c.State())
	}
	if !findText(out, i18n.Render("ERROR_NoListsAvailable", "en")) {
		t.Errorf("missing no lists message: %+v", out)
	}
	if _, ok := findKind(out, model.EffectEndFlow); !ok {
		t.Error("missing EndFlow")
	}
}

func TestFavoritesEmptyCategory(t *testing.T) {
	h := newHarness(t)
	empty := h.repo.seedList(chatID, "Empty")
	h.repo.seedList(chatID, "Full", restaurantAt("a", "Alpha", originLat, originLon))

	c, _ := h.start(model.FlowFavorites, model.ChatPrivate)
	if c.State() != bot.ListingCategories {
		t.Fatalf("state = %s", c.State())
	}
	out := h.press(c, fmt.Sprintf("f:LIST:%d", empty))

	if c.State() != bot.ListingCategories {
		t.Fatalf("state = %s, want ListingCategories", c.State())
	}
	if !findText(out, i18n.Render("ERROR_EmptyList", "en")) {
		t.Errorf("missing empty list message: %+v", out)
	}
	if c.Session().Favorite != nil {
		t.Error("empty list opened")
	}
}

func TestFavoritesLoadFailureStaysOnCategories(t *testing.T) {
	h := newHarness(t)
	id := h.repo.seedList(chatID, "Pizza", restaurantAt("a", "Alpha", originLat, originLon))
	c, _ := h.start(model.FlowFavorites, model.ChatPrivate)

	h.repo.listErr = &model.PersistenceError{Op: "list favorite restaurants", Err: errors.New("disk full")}
	out := h.press(c, fmt.Sprintf("f:LIST:%d", id))

	if c.State() != bot.ListingCategories {
		t.Fatalf("state = %s, want ListingCategories", c.State())
	}
	if !findText(out, i18n.Render("ERROR_LoadListFailed", "en")) {
		t.Errorf("missing load failure message: %+v", out)
	}
	if _, ended := findKind(out, model.EffectEndFlow); ended || findText(out, i18n.Render("ERROR_InternalError", "en")) {
		t.Errorf("flow aborted: %+v", out)
	}

	h.repo.listErr = nil
	h.press(c, fmt.Sprintf("f:LIST:%d", id))
	if c.State() != bot.ViewingListRestaurants {
		t.Errorf("state after retry = %s", c.State())
	}
}

func TestFavoritesBrowse(t *testing.T) {
	h := newHarness(t)
	id := h.repo.seedList(chatID, "Pizza",
		restaurantAt("a", "Alpha", originLat, originLon),
		restaurantAt("b", "Beta", originLat, originLon),
	)
	c, _ := h.start(model.FlowFavorites, model.ChatPrivate)
	h.press(c, fmt.Sprintf("f:LIST:%d", id))

	if c.State() != bot.ViewingListRestaurants {
		t.Fatalf("state = %s", c.State())
	}
	fav := c.Session().Favorite
	if fav.Category != "Pizza" || fav.Restaurants.Len() != 2 {
		t.Fatalf("favorite = %+v", fav)
	}
	h.press(c, "f:NEXT")
	if cur, _ := fav.Restaurants.Current(); cur.ID != "b" {
		t.Errorf("current = %s, want b", cur.ID)
	}
	h.press(c, "f:BACK_TO_LISTS")
	if c.State() != bot.ListingCategories || c.Session().Favorite != nil {
		t.Errorf("state = %s", c.State())
	}
}

func TestFavoritesReviews(t *testing.T) {
	h := newHarness(t)
	h.places.reviews = []model.Review{{Author: "Ada", Rating: 4, Text: "nice"}}
	id := h.repo.seedList(chatID, "Pizza", restaurantAt("a", "Alpha", originLat, originLon))
	c, _ := h.start(model.FlowFavorites, model.ChatPrivate)
	h.press(c, fmt.Sprintf("f:LIST:%d", id))

	h.press(c, "f:REVIEWS")
	if c.State() != bot.ViewingListReviews {
		t.Fatalf("state = %s", c.State())
	}
	h.press(c, "f:BACK_TO_INFO")
	h.press(c, "f:REVIEWS")
	if got := h.places.reviewCalls["a"]; got != 1 {
		t.Errorf("FetchReviews called %d times, want 1", got)
	}
}

func TestFavoritesRemove(t *testing.T) {
	h := newHarness(t)
	id := h.repo.seedList(chatID, "Pizza",
		restaurantAt("a", "Alpha", originLat, originLon),
		restaurantAt("b", "Beta", originLat, originLon),
	)
	c, _ := h.start(model.FlowFavorites, model.ChatPrivate)
	h.press(c, fmt.Sprintf("f:LIST:%d", id))

	out := h.press(c, "f:REMOVE")
	if !findText(out, i18n.Render("GENERAL_RestaurantRemoved", "en", "Alpha")) {
		t.Errorf("missing removed message: %+v", out)
	}
	if c.State() != bot.ViewingListRestaurants {
		t.Fatalf("state = %s", c.State())
	}
	if cur, _ := c.Session().Favorite.Restaurants.Current(); cur.ID != "b" {
		t.Errorf("current = %s, want b", cur.ID)
	}

	h.press(c, "f:REMOVE")
	if c.State() != bot.ListingCategories {
		t.Fatalf("state after emptying = %s, want ListingCategories", c.State())
	}
	if got := h.repo.lists[id].restaurants; len(got) != 0 {
		t.Errorf("links left: %v", got)
	}
}

func TestFavoritesDeleteList(t *testing.T) {
	h := newHarness(t)
	keep := h.repo.seedList(chatID, "Keep", restaurantAt("k", "Kappa", originLat, originLon))
	drop := h.repo.seedList(chatID, "Drop", restaurantAt("d", "Delta", originLat, originLon))

	c, _ := h.start(model.FlowFavorites, model.ChatPrivate)
	h.press(c, fmt.Sprintf("f:LIST:%d", drop))
	out := h.press(c, "f:DELETE")

	if !findText(out, i18n.Render("GENERAL_ListDeleted", "en", "Drop")) {
		t.Errorf("missing deleted message: %+v", out)
	}
	if c.State() != bot.ListingCategories {
		t.Fatalf("state = %s", c.State())
	}
	if lists := c.Session().Lists; len(lists) != 1 || lists[0].ID != keep {
		t.Errorf("lists = %+v", lists)
	}

	h.press(c, fmt.Sprintf("f:LIST:%d", keep))
	out = h.press(c, "f:DELETE")
	if c.State() != bot.Ended {
		t.Fatalf("state = %s, want Ended", c.State())
	}
	if !findText(out, i18n.Render("ERROR_NoListsAvailable", "en")) {
		t.Errorf("missing no lists message: %+v", out)
	}
}

func TestFavoritesPoll(t *testing.T) {
	h := newHarness(t)
	id := h.repo.seedList(chatID, "Pizza",
		restaurantAt("a", "Alpha", originLat, originLon),
		restaurantAt("b", "Beta", originLat, originLon),
		restaurantAt("c", "Gamma", originLat, originLon),
	)
	c, _ := h.start(model.FlowFavorites, model.ChatGroup)
	h.press(c, fmt.Sprintf("f:LIST:%d", id))
	h.press(c, "f:PREV")

	out := h.press(c, "f:POLL")
	poll, ok := findKind(out, model.EffectPoll)
	if !ok {
		t.Fatalf("no poll: %+v", out)
	}
	want := []string{"Gamma", "Alpha", "Beta"}
	for i, name := range want {
		if poll.Poll.Options[i] != name {
			t.Errorf("option %d = %q, want %q", i, poll.Poll.Options[i], name)
		}
	}
}
