package dashboard

import (
	"strings"

	"github.com/smileynet/campdesk/internal/campaign"
)

// cityPicker cycles through the cached city dictionary. A chosen name
// missing from the dictionary, such as one seeded from an existing
// campaign, is kept as an extra choice.
type cityPicker struct {
	names  []string
	index  int
	custom string
}

func (p *cityPicker) setCities(cs []campaign.City) {
	current := p.value()
	p.names = nil
	for _, c := range cs {
		if c.Name != "" {
			p.names = append(p.names, c.Name)
		}
	}
	p.choose(current)
}

// choose selects name, or clears the choice when name is blank.
func (p *cityPicker) choose(name string) {
	p.custom = ""
	p.index = -1
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for i, n := range p.names {
		if strings.EqualFold(n, name) {
			p.index = i
			return
		}
	}
	p.custom = name
}

func (p *cityPicker) move(delta int) {
	if len(p.names) == 0 {
		return
	}
	p.custom = ""
	if p.index < 0 {
		if delta < 0 {
			p.index = len(p.names) - 1
		} else {
			p.index = 0
		}
		return
	}
	p.index = (p.index + delta + len(p.names)) % len(p.names)
}

func (p cityPicker) value() string {
	if p.custom != "" {
		return p.custom
	}
	if p.index >= 0 && p.index < len(p.names) {
		return p.names[p.index]
	}
	return ""
}

func (p cityPicker) View(focused bool) string {
	v := p.value()
	switch {
	case v == "" && len(p.names) == 0:
		return dimStyle.Render("loading cities…")
	case v == "":
		v = dimStyle.Render("choose a city")
	}
	if focused {
		return cursorStyle.Render("‹ ") + v + cursorStyle.Render(" ›")
	}
	return v
}
