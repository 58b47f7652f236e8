package template

import "fmt"

// Localizer resolves catalog keys into display strings.
type Localizer interface {
	String(key string) string
}

// keyLocalizer echoes catalog keys back unchanged.
type keyLocalizer struct{}

// String returns the key itself.
func (keyLocalizer) String(key string) string {
	return key
}

// Provider builds starter templates with localized strings.
type Provider struct {
	Localizer Localizer
}

// NewProvider constructs a provider; a nil localizer renders raw keys.
func NewProvider(loc Localizer) Provider {
	if loc == nil {
		loc = keyLocalizer{}
	}
	return Provider{Localizer: loc}
}

// prefixes maps each template to its catalog key prefix.
var prefixes = map[Type]string{
	PlanEvent:            "project_plan_an_event",
	TrackGoal:            "project_track_a_goal",
	ManageProject:        "project_manage_a_project",
	IncreaseProductivity: "project_increase_productivity",
	SomethingElse:        "project_something_else",
}

// backgrounds maps each template to its board background.
var backgrounds = map[Type]BackgroundColor{
	PlanEvent:            Purple,
	TrackGoal:            Blue,
	ManageProject:        Green,
	IncreaseProductivity: Orange,
	SomethingElse:        Gray,
}

// Template returns the starter template for t.
func (p Provider) Template(t Type) (Template, error) {
	prefix, ok := prefixes[t]
	if !ok {
		return Template{}, fmt.Errorf("%w %q", ErrUnknownType, t)
	}
	s := p.localizer().String
	key := func(suffix string) string {
		return s(prefix + "_" + suffix)
	}
	board := Board{
		Background:  backgrounds[t],
		DefaultName: key("board_name"),
		Lists: []List{
			{
				DefaultName: key("list_1_name"),
				Cards: []Card{
					{Placeholder: key("card_1_name")},
					{Placeholder: key("card_2_name")},
					{Placeholder: key("card_3_name")},
				},
			},
			{
				DefaultName: key("list_2_name"),
				Cards:       []Card{{}, {}},
			},
			{
				DefaultName: key("list_3_name"),
				Cards:       []Card{},
			},
		},
		Overlays: []Overlay{
			{Title: key("board_overlay_title"), Subtitle: key("board_overlay_subtitle")},
			{Title: key("list_overlay_title"), Subtitle: key("list_overlay_subtitle")},
			{Title: key("card_overlay_title"), Subtitle: key("card_overlay_subtitle")},
			{Title: key("create_overlay_title"), Subtitle: key("create_overlay_subtitle")},
		},
	}
	return Template{Type: t, Name: s(prefix), Board: board}, nil
}

// Templates returns every starter template in picker order.
func (p Provider) Templates() []Template {
	out := make([]Template, 0, len(types))
	for _, t := range types {
		tpl, err := p.Template(t)
		if err != nil {
			continue
		}
		out = append(out, tpl)
	}
	return out
}

// DefaultBoard returns the board created when onboarding is skipped.
func (p Provider) DefaultBoard() Board {
	s := p.localizer().String
	untitled := s("default_board_card_untitled")
	return Board{
		Background:  Green,
		DefaultName: s("default_board_title"),
		Lists: []List{
			{
				DefaultName: s("default_board_list_to_do"),
				Cards:       []Card{{Placeholder: untitled, CustomName: &untitled}},
			},
			{DefaultName: s("default_board_list_doing"), Cards: []Card{}},
			{DefaultName: s("default_board_list_done"), Cards: []Card{}},
		},
	}
}

// localizer returns the configured localizer or the key echo fallback.
func (p Provider) localizer() Localizer {
	if p.Localizer == nil {
		return keyLocalizer{}
	}
	return p.Localizer
}
