package bot

import (
	"strconv"
	"strings"

	"tasteit/internal/model"
)

// MaxRadius bounds a configurable search radius, in meters.
const MaxRadius = 50000

// ParseRadius parses a radius in meters within (0, MaxRadius].
func ParseRadius(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 || n > MaxRadius {
		return 0, false
	}
	return n, true
}

func (t *turn) startSettings() {
	t.loadRadii()
	t.s.State = SettingsMenu
	t.show(renderSettings(t.s))
}

func (t *turn) settings(u model.Update) {
	switch u.Kind {
	case model.EventText:
		if t.s.State == EditingWalkRadius || t.s.State == EditingDriveRadius {
			t.saveRadius(u)
		}
	case model.EventCallback:
		cb, ok := parseCallback(u.Callback)
		if !ok {
			return
		}
		switch cb.action {
		case actEnd:
			t.finish(t.text("GENERAL_OperationCanceled"))
		case actWalk:
			if t.s.State == SettingsMenu {
				t.s.State = EditingWalkRadius
				t.show(renderRadiusPrompt(t.s))
			}
		case actDrive:
			if t.s.State == SettingsMenu {
				t.s.State = EditingDriveRadius
				t.show(renderRadiusPrompt(t.s))
			}
		case actBack:
			if t.s.State != SettingsMenu {
				t.s.State = SettingsMenu
				t.show(renderSettings(t.s))
			}
		}
	}
}

func (t *turn) saveRadius(u model.Update) {
	t.consume(u)
	meters, ok := ParseRadius(u.Text)
	if !ok {
		text, kb := renderRadiusPrompt(t.s)
		t.show(t.text("ERROR_InvalidDistance")+"\n\n"+text, kb)
		return
	}

	walk := t.s.State == EditingWalkRadius
	var err error
	if walk {
		err = t.e.repo.SetWalkRadius(t.ctx, t.s.ChatID, meters)
	} else {
		err = t.e.repo.SetDriveRadius(t.ctx, t.s.ChatID, meters)
	}
	if err != nil {
		t.e.logger.Warn("save radius", "chat_id", t.s.ChatID, "walk", walk, "error", err)
		t.notify("ERROR_SaveSettingsFailed")
		t.s.State = SettingsMenu
		t.show(renderSettings(t.s))
		return
	}

	if walk {
		t.s.WalkRadius = meters
		t.finish(t.text("GENERAL_ReachableOnFootSet", meters))
		return
	}
	t.s.DriveRadius = meters
	t.finish(t.text("GENERAL_ReachableByCarSet", meters))
}
