package ui

// menuEntry binds a label to the screen it opens.
type menuEntry struct {
	labelID string
	target  ScreenID
}

// MenuScreen is the top-level menu.
type MenuScreen struct {
	labels *Labels
	nav    Navigator
	items  []menuEntry
	cursor int
}

func NewMenuScreen(labels *Labels, nav Navigator) *MenuScreen {
	return &MenuScreen{
		labels: labels,
		nav:    nav,
		items: []menuEntry{
			{labelID: "MenuNowPlaying", target: ScreenNowPlaying},
			{labelID: "MenuPlaylists", target: ScreenPlaylists},
			{labelID: "MenuContacts", target: ScreenContacts},
			{labelID: "MenuCallStatus", target: ScreenCallStatus},
		},
	}
}

func (s *MenuScreen) ID() ScreenID  { return ScreenMenu }
func (s *MenuScreen) Overlay() bool { return false }
func (s *MenuScreen) Enter()        {}
func (s *MenuScreen) Exit()         {}

func (s *MenuScreen) Render(d Display) {
	d.Line(0, s.labels.T("MenuTitle"))
	for i, item := range s.items {
		marker := "  "
		if i == s.cursor {
			marker = "> "
		}
		d.Line(i+2, marker+s.labels.T(item.labelID))
	}
}

func (s *MenuScreen) HandleAction(a Action) {
	switch a {
	case ActionUp:
		if s.cursor > 0 {
			s.cursor--
		}
	case ActionDown:
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case ActionSelect, ActionConfirm:
		s.nav.Push(s.items[s.cursor].target)
	}
}
