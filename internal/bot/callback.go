package bot

import (
	"strconv"
	"strings"

	"tasteit/internal/model"
)

// Callback actions. Data is "<flow prefix>:<action>[:<arg>]".
const (
	actFood        = "FOOD"
	actTime        = "TIME"
	actPrice       = "PRICE"
	actDistance    = "DISTANCE"
	actSearch      = "SEARCH"
	actPrev        = "PREV"
	actNext        = "NEXT"
	actInfo        = "INFO"
	actPoll        = "POLL"
	actReviews     = "REVIEWS"
	actPrevReview  = "PREV_REVIEW"
	actNextReview  = "NEXT_REVIEW"
	actBackToList  = "BACK_TO_LIST"
	actBackToInfo  = "BACK_TO_INFO"
	actAddToList   = "ADD_TO_LIST"
	actList        = "LIST"
	actNewList     = "NEW_LIST"
	actBack        = "BACK"
	actRemove      = "REMOVE"
	actDelete      = "DELETE"
	actBackToLists = "BACK_TO_LISTS"
	actWalk        = "WALK"
	actDrive       = "DRIVE"
	actSet         = "SET"
	actEnd         = "END"
)

// CallbackData builds the callback token for a flow action.
func CallbackData(flow model.FlowKind, action string, arg ...string) string {
	parts := append([]string{flow.Prefix(), action}, arg...)
	return strings.Join(parts, ":")
}

// CallbackFlow returns the flow owning a callback token.
func CallbackFlow(data string) (model.FlowKind, bool) {
	prefix, _, ok := strings.Cut(data, ":")
	if !ok {
		return "", false
	}
	return model.FlowForPrefix(prefix)
}

type callback struct {
	action string
	arg    string
}

func parseCallback(data string) (callback, bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return callback{}, false
	}
	cb := callback{action: parts[1]}
	if len(parts) == 3 {
		cb.arg = parts[2]
	}
	return cb, true
}

func (c callback) intArg() (int64, bool) {
	n, err := strconv.ParseInt(c.arg, 10, 64)
	return n, err == nil
}
