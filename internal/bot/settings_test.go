package bot_test

import (
	"errors"
	"testing"

	"tasteit/internal/bot"
	"tasteit/internal/i18n"
	"tasteit/internal/model"
)

func TestParseRadius(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{" 2500 ", 2500, true},
		{"50000", 50000, true},
		{"50001", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"ten", 0, false},
		{"1.5", 0, false},
	}
	for _, tt := range tests {
		got, ok := bot.ParseRadius(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRadius(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSettingsWalkRadius(t *testing.T) {
	h := newHarness(t)
	c, out := h.start(model.FlowSettings, model.ChatPrivate)
	if c.State() != bot.SettingsMenu {
		t.Fatalf("state = %s", c.State())
	}
	if !findText(out, i18n.Render("GENERAL_SettingsRecap", "en", 1000, 10000)) {
		t.Errorf("missing recap: %+v", out)
	}

	h.press(c, "c:WALK")
	if c.State() != bot.EditingWalkRadius {
		t.Fatalf("state = %s", c.State())
	}
	ref := c.Session().ActiveMessage

	out = h.text(c, "99999")
	if c.State() != bot.EditingWalkRadius {
		t.Fatalf("state = %s", c.State())
	}
	edit, ok := findKind(out, model.EffectEdit)
	if !ok || edit.Ref != ref {
		t.Errorf("invalid input did not re-prompt in place: %+v", out)
	}

	out = h.text(c, "2500")
	if c.State() != bot.Ended {
		t.Fatalf("state = %s", c.State())
	}
	if !findText(out, i18n.Render("GENERAL_ReachableOnFootSet", "en", 2500)) {
		t.Errorf("missing confirmation: %+v", out)
	}
	if got := h.repo.walk[chatID]; got != 2500 {
		t.Errorf("stored walk radius = %d", got)
	}
}

func TestSettingsDriveRadius(t *testing.T) {
	h := newHarness(t)
	c, _ := h.start(model.FlowSettings, model.ChatPrivate)
	h.press(c, "c:DRIVE")
	h.text(c, "20000")
	if got := h.repo.drive[chatID]; got != 20000 {
		t.Errorf("stored drive radius = %d", got)
	}
}

func TestSettingsBack(t *testing.T) {
	h := newHarness(t)
	c, _ := h.start(model.FlowSettings, model.ChatPrivate)
	h.press(c, "c:DRIVE")
	h.press(c, "c:BACK")
	if c.State() != bot.SettingsMenu {
		t.Errorf("state = %s", c.State())
	}
}

func TestSettingsSaveFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.saveErr = &model.PersistenceError{Op: "set walk radius", Err: errors.New("locked")}
	c, _ := h.start(model.FlowSettings, model.ChatPrivate)
	h.press(c, "c:WALK")

	out := h.text(c, "800")
	if c.State() != bot.SettingsMenu {
		t.Fatalf("state = %s", c.State())
	}
	if !findText(out, i18n.Render("ERROR_SaveSettingsFailed", "en")) {
		t.Errorf("missing failure message: %+v", out)
	}
}

func TestSettingsUsesStoredRadii(t *testing.T) {
	h := newHarness(t)
	h.repo.walk[chatID] = 700
	h.repo.drive[chatID] = 7000
	c, _ := h.start(model.FlowSettings, model.ChatPrivate)
	if s := c.Session(); s.WalkRadius != 700 || s.DriveRadius != 7000 {
		t.Errorf("radii = %d/%d", s.WalkRadius, s.DriveRadius)
	}
}

func TestLanguage(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		h := newHarness(t)
		c, _ := h.start(model.FlowLanguage, model.ChatPrivate)
		if c.State() != bot.PickingLanguage {
			t.Fatalf("state = %s", c.State())
		}
		out := h.press(c, "l:SET:it")
		if c.State() != bot.Ended {
			t.Fatalf("state = %s", c.State())
		}
		if !findText(out, i18n.Render("GENERAL_LanguageUpdated", "it")) {
			t.Errorf("confirmation not in the new language: %+v", out)
		}
		if h.repo.langs[chatID] != "it" {
			t.Errorf("stored language = %q", h.repo.langs[chatID])
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		h := newHarness(t)
		c, _ := h.start(model.FlowLanguage, model.ChatPrivate)
		if out := h.press(c, "l:SET:fr"); len(out) != 0 {
			t.Errorf("expected no effects, got %+v", out)
		}
		if c.State() != bot.PickingLanguage {
			t.Errorf("state = %s", c.State())
		}
	})

	t.Run("save failure", func(t *testing.T) {
		h := newHarness(t)
		h.repo.saveErr = errors.New("locked")
		c, _ := h.start(model.FlowLanguage, model.ChatPrivate)
		out := h.press(c, "l:SET:it")
		if !findText(out, i18n.Render("ERROR_SaveLanguageFailed", "en")) {
			t.Errorf("missing failure message: %+v", out)
		}
	})
}
