package bot

import (
	"tasteit/internal/i18n"
	"tasteit/internal/model"
)

func (t *turn) startLanguage() {
	t.s.State = PickingLanguage
	t.show(renderLanguages(t.s))
}

func (t *turn) language(u model.Update) {
	if u.Kind != model.EventCallback {
		return
	}
	cb, ok := parseCallback(u.Callback)
	if !ok {
		return
	}
	switch cb.action {
	case actEnd:
		t.finish(t.text("GENERAL_OperationCanceled"))
	case actSet:
		if !i18n.IsSupported(cb.arg) {
			return
		}
		if err := t.e.repo.SetChatLanguage(t.ctx, t.s.ChatID, cb.arg); err != nil {
			t.e.logger.Warn("save language", "chat_id", t.s.ChatID, "lang", cb.arg, "error", err)
			t.finish(t.text("ERROR_SaveLanguageFailed"))
			return
		}
		t.s.Lang = cb.arg
		t.finish(t.text("GENERAL_LanguageUpdated"))
	}
}
