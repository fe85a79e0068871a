package bot

import (
	"html"

	"tasteit/internal/cursor"
	"tasteit/internal/model"
)

func (t *turn) startFavorites() {
	t.s.State = ListingCategories
	lists, err := t.e.repo.ListCategories(t.ctx, t.s.ChatID)
	if err != nil {
		t.fail("list categories", err)
		return
	}
	if len(lists) == 0 {
		t.finish(t.text("ERROR_NoListsAvailable"))
		return
	}
	t.s.Lists = lists
	t.show(renderCategories(t.s))
}

func (t *turn) favorites(u model.Update) {
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
	case ListingCategories:
		if cb.action == actList {
			t.openFavorite(cb)
		}
	case ViewingListRestaurants:
		t.viewingListRestaurants(cb)
	case ViewingListReviews:
		t.viewingListReviews(cb)
	}
}

func (t *turn) openFavorite(cb callback) {
	id, ok := cb.intArg()
	if !ok {
		return
	}
	list, ok := t.s.findList(id)
	if !ok {
		return
	}
	restaurants, err := t.e.repo.ListFavoriteRestaurants(t.ctx, list.ID)
	if err != nil {
		t.e.logger.Warn("list favorite restaurants", "chat_id", t.s.ChatID, "list_id", list.ID, "error", err)
		t.notify("ERROR_LoadListFailed")
		t.show(renderCategories(t.s))
		return
	}
	if len(restaurants) == 0 {
		t.notify("ERROR_EmptyList")
		t.show(renderCategories(t.s))
		return
	}
	list.Restaurants = cursor.New(restaurants...)
	t.s.Favorite = &list
	t.s.State = ViewingListRestaurants
	t.show(renderFavorite(t.s))
}

// relist reloads the categories after a list changed. It shows them, or ends
// the flow when none are left.
func (t *turn) relist() {
	t.s.Favorite = nil
	t.s.State = ListingCategories
	lists, err := t.e.repo.ListCategories(t.ctx, t.s.ChatID)
	if err != nil {
		t.fail("list categories", err)
		return
	}
	if len(lists) == 0 {
		t.finish(t.text("ERROR_NoListsAvailable"))
		return
	}
	t.s.Lists = lists
	t.show(renderCategories(t.s))
}

func (t *turn) viewingListRestaurants(cb callback) {
	fav := t.s.Favorite
	switch cb.action {
	case actPrev, actNext:
		if t.navigate(fav.Restaurants, cb.action == actNext) {
			t.show(renderFavorite(t.s))
		}

	case actReviews:
		r, err := fav.Restaurants.Current()
		if t.invariant("current favorite", err) || !t.ensureReviews(r) {
			return
		}
		if r.Reviews.IsEmpty() {
			t.notify("ERROR_NoReviewsAvailable")
			return
		}
		t.s.State = ViewingListReviews
		t.show(renderFavoriteReviews(t.s))

	case actRemove:
		r, err := fav.Restaurants.Current()
		if t.invariant("current favorite", err) {
			return
		}
		if err := t.e.repo.UnlinkRestaurantFromList(t.ctx, fav.ID, r.ID); err != nil {
			t.e.logger.Warn("unlink restaurant", "chat_id", t.s.ChatID, "list_id", fav.ID, "error", err)
			t.notify("ERROR_RemoveFromListFailed")
			return
		}
		if _, err := fav.Restaurants.RemoveCurrent(); t.invariant("remove favorite", err) {
			return
		}
		t.notify("GENERAL_RestaurantRemoved", html.EscapeString(r.Name))
		if fav.Restaurants.IsEmpty() {
			t.relist()
			return
		}
		t.show(renderFavorite(t.s))

	case actDelete:
		if err := t.e.repo.DeleteList(t.ctx, fav.ID); err != nil {
			t.e.logger.Warn("delete list", "chat_id", t.s.ChatID, "list_id", fav.ID, "error", err)
			t.notify("ERROR_DeleteListFailed")
			return
		}
		t.notify("GENERAL_ListDeleted", html.EscapeString(fav.Category))
		t.relist()

	case actPoll:
		t.poll(fav.Restaurants)

	case actBackToLists:
		t.s.Favorite = nil
		t.s.State = ListingCategories
		t.show(renderCategories(t.s))
	}
}

func (t *turn) viewingListReviews(cb callback) {
	r, err := t.s.Favorite.Restaurants.Current()
	if t.invariant("current favorite", err) {
		return
	}
	switch cb.action {
	case actPrevReview, actNextReview:
		if t.navigate(r.Reviews, cb.action == actNextReview) {
			t.show(renderFavoriteReviews(t.s))
		}
	case actBackToInfo:
		t.s.State = ViewingListRestaurants
		t.show(renderFavorite(t.s))
	}
}
