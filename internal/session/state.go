package session

import "github.com/starford/koinecards/internal/models"

// View is the active panel of a session. It is one of DomainView, ListView
// or CardView and is the single source of the current selection.
type View interface {
	// Name returns "domain", "list" or "card".
	Name() string
	isView()
}

// DomainView is the root panel listing every domain.
type DomainView struct{}

// ListView lists the cards of one domain.
type ListView struct {
	Domain string
}

// CardView shows one card of a domain.
type CardView struct {
	Domain string
	Card   models.Card
}

func (DomainView) Name() string { return "domain" }
func (ListView) Name() string   { return "list" }
func (CardView) Name() string   { return "card" }

func (DomainView) isView() {}
func (ListView) isView()   {}
func (CardView) isView()   {}

// State is the navigation state of one session over a loaded deck.
// It is owned by a single goroutine; create one per session.
type State struct {
	deck *Deck
	view View
}

// NewState returns a session positioned at the domain panel.
func NewState(deck *Deck) *State {
	return &State{deck: deck, view: DomainView{}}
}

// Deck returns the deck the session navigates.
func (s *State) Deck() *Deck {
	return s.deck
}

// View returns the active view.
func (s *State) View() View {
	return s.view
}

// CurrentDomain returns the selected domain, if any.
func (s *State) CurrentDomain() (string, bool) {
	switch v := s.view.(type) {
	case ListView:
		return v.Domain, true
	case CardView:
		return v.Domain, true
	default:
		return "", false
	}
}

// CurrentCard returns the selected card, if any.
func (s *State) CurrentCard() (models.Card, bool) {
	if v, ok := s.view.(CardView); ok {
		return v.Card, true
	}
	return models.Card{}, false
}

// OpenDomain selects domain, clears the card selection and shows the list.
func (s *State) OpenDomain(domain string) {
	s.view = ListView{Domain: domain}
}

// OpenCard selects domain and card and shows the card.
func (s *State) OpenCard(domain string, card models.Card) {
	s.view = CardView{Domain: domain, Card: card}
}

// GoBack unwinds one level: card to list, list to domain. At the domain
// panel it does nothing.
func (s *State) GoBack() {
	s.view = s.BackTarget()
}

// BackTarget returns the view GoBack would switch to.
func (s *State) BackTarget() View {
	switch v := s.view.(type) {
	case CardView:
		return ListView{Domain: v.Domain}
	case ListView:
		return DomainView{}
	default:
		return s.view
	}
}

// CanGoBack reports whether a back target exists, i.e. the view is not the
// root panel.
func (s *State) CanGoBack() bool {
	_, root := s.view.(DomainView)
	return !root
}
