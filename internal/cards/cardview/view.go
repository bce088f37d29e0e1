// Package cardview turns catalog entries into the data the card templates
// render. Build is pure; Renderer executes the embedded templates.
package cardview

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/i18n"
)

const (
	// MaxSlots caps the stamp slots drawn on a card.
	MaxSlots = 10
	// DemoFilledSlots are shown filled on cards the viewer does not own.
	DemoFilledSlots = 3

	DefaultGradient = "linear-gradient(135deg, #7C3AED, #8B5CF6)"
)

type Action string

const (
	ActionGetCard      Action = "get-card"
	ActionShowCode     Action = "show-code"
	ActionRewardEarned Action = "reward-earned"
)

type Slot struct {
	Filled bool
}

type CardView struct {
	ID           string
	QRCode       string
	RestaurantID string
	// DataName and DataLocation are lowercased for client-side filtering.
	DataName     string
	DataLocation string
	Owned        bool
	Completed    bool

	Name            string
	LocationName    string
	LocationAddress string
	LogoURL         string
	Initial         string
	Background      string
	TextColor       string
	RewardLabel     string
	Reward          string

	Slots   []Slot
	Current int
	Target  int

	CardNumber int64

	Action      Action
	ActionLabel string
	Disabled    bool
	// Dimmed draws the partial-opacity overlay of unowned cards.
	Dimmed bool

	OwnedBadge          string
	StampsLabel         string
	StampsToRewardLabel string
}

// DataOwned renders the data-owned attribute value.
func (v CardView) DataOwned() string {
	return strconv.FormatBool(v.Owned)
}

// FilledCount is the number of filled slots.
func (v CardView) FilledCount() int {
	n := 0
	for _, s := range v.Slots {
		if s.Filled {
			n++
		}
	}
	return n
}

// Build derives the view of one card. Completion wins over ownership, which
// wins over the default "get this card" state.
func Build(e catalog.Entry, t i18n.Translator) CardView {
	p := e.Program
	target := p.StampTarget()

	name := p.DisplayName
	if name == "" {
		name = t.T(i18n.CardRestaurantDefault)
	}
	reward := p.RewardText
	if reward == "" {
		reward = t.T(i18n.CardRewardDefault)
	}

	v := CardView{
		ID:                  p.ID,
		QRCode:              p.DiscoveryQRCode,
		RestaurantID:        p.RestaurantID,
		DataName:            strings.ToLower(p.DisplayName),
		DataLocation:        strings.ToLower(p.LocationName),
		Owned:               e.Owned(),
		Name:                name,
		LocationName:        p.LocationName,
		LocationAddress:     p.LocationAddress,
		LogoURL:             p.LogoURL,
		Initial:             initial(name),
		Background:          Background(p.BackgroundImageURL, p.CardColor),
		TextColor:           safeColor(p.TextColor),
		RewardLabel:         t.T(i18n.CardReward),
		Reward:              reward,
		Target:              target,
		StampsLabel:         t.T(i18n.CardStamps),
		StampsToRewardLabel: t.T(i18n.CardStampsToReward),
	}

	filled := DemoFilledSlots
	if e.Enrollment != nil {
		v.Current = e.Enrollment.CurrentStamps
		v.Completed = e.Enrollment.IsCompleted
		v.CardNumber = e.Enrollment.CardNumber
		v.OwnedBadge = t.T(i18n.CardYourCard)
		filled = v.Current
	}
	v.Slots = Slots(target, filled)

	switch {
	case v.Completed:
		v.Action = ActionRewardEarned
		v.ActionLabel = t.T(i18n.CardRewardEarned)
		v.Disabled = true
	case v.Owned:
		v.Action = ActionShowCode
		v.ActionLabel = t.T(i18n.CardShowQRCode)
	default:
		v.Action = ActionGetCard
		v.ActionLabel = t.T(i18n.CardGetThisCard)
		v.Dimmed = true
	}
	return v
}

// BuildAll builds every entry in order.
func BuildAll(entries []catalog.Entry, t i18n.Translator) []CardView {
	views := make([]CardView, 0, len(entries))
	for _, e := range entries {
		views = append(views, Build(e, t))
	}
	return views
}

// Slots returns min(target, MaxSlots) slots with the first filled ones set.
func Slots(target, filled int) []Slot {
	n := target
	if n > MaxSlots {
		n = MaxSlots
	}
	if n < 0 {
		n = 0
	}
	slots := make([]Slot, n)
	for i := range slots {
		slots[i].Filled = i < filled
	}
	return slots
}

var (
	cssColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9., %]+\))$`)
	cssURL   = strings.NewReplacer("'", "%27", `"`, "%22", "(", "%28", ")", "%29", `\`, "%5C", "\n", "", "\r", "")
)

// Background picks the card background CSS: image, then color, then the
// default gradient. Colors that are not plain CSS colors are ignored.
func Background(imageURL, color string) string {
	color = strings.TrimSpace(color)
	switch {
	case imageURL != "":
		return "background-image: url('" + cssURL.Replace(imageURL) + "'); background-size: cover; background-position: center;"
	case color != "" && cssColor.MatchString(color):
		return "background: " + color + ";"
	default:
		return "background: " + DefaultGradient + ";"
	}
}

func safeColor(c string) string {
	c = strings.TrimSpace(c)
	if cssColor.MatchString(c) {
		return c
	}
	return ""
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}
