package simpleslots

// EditSlotRequest contains parameters for editing one slot of a page.
//
// Text replaces the slot content, or is appended to it when Append is set.
// An empty result removes the slot unless it is main. Watchlist "nochange"
// keeps the edit out of recent changes.
type EditSlotRequest struct {
	Actor     Actor
	Page      PageRef
	Text      string
	Slot      string
	Append    bool
	Summary   string
	Watchlist string
}

// RefreshRequest contains parameters for a null edit
type RefreshRequest struct {
	Actor Actor
	Title string
}
