package bot

import (
	"html"
	"strconv"

	"tasteit/internal/i18n"
	"tasteit/internal/model"
	"tasteit/internal/util"
)

const maxReviewRunes = 3000

func btn(text string, flow model.FlowKind, action string, arg ...string) model.Button {
	return model.Button{Text: text, Data: CallbackData(flow, action, arg...)}
}

func link(text, url string) model.Button {
	return model.Button{Text: text, URL: url}
}

func endRow(flow model.FlowKind) []model.Button {
	return []model.Button{btn("❌", flow, actEnd)}
}

func travelModeLabel(lang string, m model.TravelMode) string {
	if m == model.TravelDriving {
		return i18n.Render("GENERAL_Driving", lang)
	}
	return i18n.Render("GENERAL_Walking", lang)
}

// renderRecap renders the search criteria recap with its mutators.
func renderRecap(s *Session) (string, model.Keyboard) {
	c := s.Criteria
	text := i18n.Render("GENERAL_SearchRestaurantInfoRecap", s.Lang,
		html.EscapeString(c.Food),
		util.FormatCheck(c.OpenNow),
		util.FormatEuros(c.MaxPrice),
		travelModeLabel(s.Lang, c.TravelMode),
		s.Radius(),
	)
	kb := model.Keyboard{
		{
			btn("🍝", model.FlowSearch, actFood),
			btn("🕧", model.FlowSearch, actTime),
			btn("💶", model.FlowSearch, actPrice),
			btn(modeIcon(c.TravelMode.Toggle()), model.FlowSearch, actDistance),
		},
		{
			btn("🔎", model.FlowSearch, actSearch),
			btn("❌", model.FlowSearch, actEnd),
		},
	}
	return text, kb
}

func modeIcon(m model.TravelMode) string {
	if m == model.TravelDriving {
		return "🚗"
	}
	return "🚶"
}

// renderPricePicker renders the recap with the five price levels.
func renderPricePicker(s *Session) (string, model.Keyboard) {
	text, _ := renderRecap(s)
	text += "\n\n" + i18n.Render("GENERAL_PickPrice", s.Lang)

	var first, second []model.Button
	for level := model.MinPrice; level <= model.MaxPrice; level++ {
		b := btn(util.FormatEuros(level), model.FlowSearch, actPrice, strconv.Itoa(level))
		if level <= 3 {
			first = append(first, b)
		} else {
			second = append(second, b)
		}
	}
	return text, model.Keyboard{first, second}
}

func renderSummary(s *Session, r *model.Restaurant, index, total int) string {
	return i18n.Render("GENERAL_RestaurantInfoDisplay", s.Lang,
		html.EscapeString(r.Name),
		util.FormatRatingStars(r.Rating),
		util.FormatRating(r.Rating),
		util.FormatCount(r.TotalRatings),
		util.FormatPriceLevel(r.PriceLevel),
		util.FormatDistance(r.Travel.DistanceMeters),
		util.FormatDuration(r.Travel.DurationSeconds),
		index+1, total,
	)
}

func renderDetailText(s *Session, r *model.Restaurant) string {
	return i18n.Render("GENERAL_DetailedInfoOfRestaurant", s.Lang,
		html.EscapeString(r.Name),
		html.EscapeString(r.Address),
		html.EscapeString(r.Phone),
		util.FormatPriceLevel(r.PriceLevel),
		util.FormatRatingStars(r.Rating),
		util.FormatRating(r.Rating),
		util.FormatCount(r.TotalRatings),
		html.EscapeString(r.Timetable),
	)
}

// renderResult renders the current search result.
func renderResult(s *Session) (string, model.Keyboard) {
	r, err := s.Results.Current()
	if err != nil {
		return "", nil
	}
	text := renderSummary(s, r, s.Results.Index(), s.Results.Len())

	last := []model.Button{btn("📄+", model.FlowSearch, actAddToList)}
	if s.ChatKind.IsGroup() {
		last = append(last, btn("📊", model.FlowSearch, actPoll))
	}
	last = append(last, btn("❌", model.FlowSearch, actEnd))

	kb := model.Keyboard{
		{btn("⬅️", model.FlowSearch, actPrev), btn("➡️", model.FlowSearch, actNext)},
		{btn(i18n.Render("GENERAL_MoreInfos", s.Lang), model.FlowSearch, actInfo)},
		last,
	}
	return text, kb
}

// renderDetail renders the detail page of the current search result.
func renderDetail(s *Session) (string, model.Keyboard) {
	r, err := s.Results.Current()
	if err != nil {
		return "", nil
	}
	kb := model.Keyboard{
		{link("🌐", r.Website), link("🗺", r.MapsURL), btn("⭐️", model.FlowSearch, actReviews)},
		{btn("📄+", model.FlowSearch, actAddToList)},
		{btn("↩️", model.FlowSearch, actBackToList), btn("❌", model.FlowSearch, actEnd)},
	}
	return renderDetailText(s, r), kb
}

func renderReviewText(s *Session, r *model.Restaurant) string {
	rev, err := r.Reviews.Current()
	if err != nil {
		return ""
	}
	return i18n.Render("GENERAL_ReviewContent", s.Lang,
		html.EscapeString(rev.Author),
		util.FormatDate(rev.Date),
		util.FormatRatingStars(float64(rev.Rating)),
		rev.Rating,
		html.EscapeString(util.TruncateString(rev.Text, maxReviewRunes)),
		r.Reviews.Index()+1, r.Reviews.Len(),
	)
}

func reviewKeyboard(flow model.FlowKind) model.Keyboard {
	return model.Keyboard{
		{btn("⬅️", flow, actPrevReview), btn("➡️", flow, actNextReview)},
		{btn("↩️ Info", flow, actBackToInfo), btn("❌", flow, actEnd)},
	}
}

// renderReviews renders the current review of the current search result.
func renderReviews(s *Session) (string, model.Keyboard) {
	r, err := s.Results.Current()
	if err != nil {
		return "", nil
	}
	return renderReviewText(s, r), reviewKeyboard(model.FlowSearch)
}

// renderListPicker renders the favorite lists a restaurant can be saved to.
func renderListPicker(s *Session) (string, model.Keyboard) {
	name := ""
	if r, err := s.Results.Current(); err == nil {
		name = r.Name
	}
	kb := make(model.Keyboard, 0, len(s.Lists)+2)
	for _, l := range s.Lists {
		kb = append(kb, []model.Button{btn(l.Category, model.FlowSearch, actList, strconv.FormatInt(l.ID, 10))})
	}
	kb = append(kb,
		[]model.Button{btn(i18n.Render("GENERAL_NewList", s.Lang), model.FlowSearch, actNewList)},
		[]model.Button{btn("↩️", model.FlowSearch, actBack), btn("❌", model.FlowSearch, actEnd)},
	)
	return i18n.Render("GENERAL_ChooseFavoriteList", s.Lang, html.EscapeString(name)), kb
}

// renderNaming renders the new list name prompt.
func renderNaming(s *Session) (string, model.Keyboard) {
	return i18n.Render("GENERAL_InsertListName", s.Lang), model.Keyboard{
		{btn("↩️", model.FlowSearch, actBack), btn("❌", model.FlowSearch, actEnd)},
	}
}

// renderCategories renders the chat's favorite lists.
func renderCategories(s *Session) (string, model.Keyboard) {
	kb := make(model.Keyboard, 0, len(s.Lists)+1)
	for _, l := range s.Lists {
		kb = append(kb, []model.Button{btn(l.Category, model.FlowFavorites, actList, strconv.FormatInt(l.ID, 10))})
	}
	kb = append(kb, endRow(model.FlowFavorites))
	return i18n.Render("GENERAL_ShowCategories", s.Lang), kb
}

// renderFavorite renders the current restaurant of the browsed list.
func renderFavorite(s *Session) (string, model.Keyboard) {
	l := s.Favorite.Restaurants
	r, err := l.Current()
	if err != nil {
		return "", nil
	}
	text := html.EscapeString(s.Favorite.Category) + " · " + strconv.Itoa(l.Index()+1) + "/" + strconv.Itoa(l.Len()) +
		"\n\n" + renderDetailText(s, r)

	kb := model.Keyboard{
		{
			btn("⬅️", model.FlowFavorites, actPrev),
			link("🌐", r.Website),
			link("🗺️", r.MapsURL),
			btn("⭐️", model.FlowFavorites, actReviews),
			btn("➡️", model.FlowFavorites, actNext),
		},
		{
			btn(i18n.Render("GENERAL_RemoveRestaurantFromList", s.Lang), model.FlowFavorites, actRemove),
			btn(i18n.Render("GENERAL_DeleteList", s.Lang), model.FlowFavorites, actDelete),
		},
	}
	last := []model.Button{btn("↩", model.FlowFavorites, actBackToLists)}
	if s.ChatKind.IsGroup() {
		last = append(last, btn("📊", model.FlowFavorites, actPoll))
	}
	last = append(last, btn("❌", model.FlowFavorites, actEnd))
	return text, append(kb, last)
}

// renderFavoriteReviews renders the current review of a saved restaurant.
func renderFavoriteReviews(s *Session) (string, model.Keyboard) {
	r, err := s.Favorite.Restaurants.Current()
	if err != nil {
		return "", nil
	}
	return renderReviewText(s, r), reviewKeyboard(model.FlowFavorites)
}

// renderSettings renders the radius settings menu.
func renderSettings(s *Session) (string, model.Keyboard) {
	return i18n.Render("GENERAL_SettingsRecap", s.Lang, s.WalkRadius, s.DriveRadius), model.Keyboard{
		{btn("🚶", model.FlowSettings, actWalk), btn("🚗", model.FlowSettings, actDrive)},
		endRow(model.FlowSettings),
	}
}

// renderRadiusPrompt renders the prompt for the radius being edited.
func renderRadiusPrompt(s *Session) (string, model.Keyboard) {
	id := "GENERAL_ChangeWalkDistance"
	if s.State == EditingDriveRadius {
		id = "GENERAL_ChangeDriveDistance"
	}
	return i18n.Render(id, s.Lang), model.Keyboard{
		{btn("↩️", model.FlowSettings, actBack), btn("❌", model.FlowSettings, actEnd)},
	}
}

var languageLabels = map[string]string{
	"it": "🇮🇹 Italiano",
	"en": "🇬🇧 English",
}

// renderLanguages renders the language picker.
func renderLanguages(s *Session) (string, model.Keyboard) {
	var row []model.Button
	for _, code := range i18n.Codes() {
		label, ok := languageLabels[code]
		if !ok {
			label = code
		}
		row = append(row, btn(label, model.FlowLanguage, actSet, code))
	}
	return i18n.Render("GENERAL_ChooseLanguageString", s.Lang), model.Keyboard{row, endRow(model.FlowLanguage)}
}
