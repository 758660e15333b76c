package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pagerbot/core/telegram/callbacks"
)

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// ControlsPerRow is how many pager controls share one keyboard row.
const ControlsPerRow = 6

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineButtonsNPerRow splits a flat list of buttons into rows with up to n buttons per row.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n < 1 {
		n = 1
	}
	var rows [][]InlineBtn
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return InlineButtonsRows(rows...)
}

// PagerControls renders pager control symbols as inline buttons.
// A press arrives as a callback with unique callbacks.PagerUnique and the symbol as payload.
// No symbols yields nil, which removes the keyboard on edit.
func PagerControls(symbols []string) *tele.ReplyMarkup {
	if len(symbols) == 0 {
		return nil
	}
	buttons := make([]InlineBtn, len(symbols))
	for i, s := range symbols {
		buttons[i] = InlineBtn{Text: s, Unique: callbacks.PagerUnique, Data: s}
	}
	return InlineButtonsNPerRow(buttons, ControlsPerRow)
}
