package tui

type View int

const (
	ViewStories View = iota
	ViewFavorites
	ViewMine
	ViewDetail
	ViewSubmit
	ViewLogin
	ViewSignup
	ViewProfile
	ViewDeleteConfirm
	ViewSearch
)

// isList reports whether v shows a list of stories.
func (v View) isList() bool {
	return v == ViewStories || v == ViewFavorites || v == ViewMine
}

// isForm reports whether v is one of the text forms.
func (v View) isForm() bool {
	switch v {
	case ViewSubmit, ViewLogin, ViewSignup, ViewProfile:
		return true
	}
	return false
}
