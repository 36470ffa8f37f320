package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/koinecards/internal/models"
)

func card(filename, domain string) models.Card {
	return models.Card{ID: filename, Filename: filename, Title: filename, Domain: domain}
}

func TestNewDeck_Partition(t *testing.T) {
	cards := []models.Card{
		card("03_c.txt", "Beta"),
		card("01_a.txt", "Alpha"),
		card("02_b.txt", "Beta"),
		card("10_j.txt", "Alpha"),
		card("05_e.txt", "Gamma"),
	}
	d := NewDeck(cards)

	if diff := cmp.Diff([]string{"Alpha", "Beta", "Gamma"}, d.Domains()); diff != "" {
		t.Errorf("domains mismatch (-want +got):\n%s", diff)
	}
	if d.Len() != len(cards) {
		t.Errorf("Len = %d, want %d", d.Len(), len(cards))
	}

	seen := make(map[string]int)
	total := 0
	for _, dom := range d.Domains() {
		bucket := d.Cards(dom)
		total += len(bucket)
		for i, c := range bucket {
			if c.Domain != dom {
				t.Errorf("card %s in bucket %s has domain %s", c.Filename, dom, c.Domain)
			}
			if i > 0 && bucket[i-1].Filename > c.Filename {
				t.Errorf("bucket %s not sorted: %s before %s", dom, bucket[i-1].Filename, c.Filename)
			}
			seen[c.Filename]++
		}
	}
	if total != len(cards) {
		t.Errorf("partition size = %d, want %d", total, len(cards))
	}
	for _, c := range cards {
		if seen[c.Filename] != 1 {
			t.Errorf("card %s appears %d times", c.Filename, seen[c.Filename])
		}
	}
}

func TestNewDeck_CollatedDomains(t *testing.T) {
	d := NewDeck([]models.Card{
		card("a.txt", "beta"),
		card("b.txt", "Alpha"),
		card("c.txt", "Ἄγνωστος"),
		card("d.txt", "Λόγος"),
	})
	want := []string{"Alpha", "beta", "Ἄγνωστος", "Λόγος"}
	if diff := cmp.Diff(want, d.Domains()); diff != "" {
		t.Errorf("domains mismatch (-want +got):\n%s", diff)
	}
}

func TestDeck_Lookup(t *testing.T) {
	d := NewDeck([]models.Card{card("01_a.txt", "A"), card("02_b.txt", "B")})

	if d.Count("A") != 1 || d.Count("missing") != 0 {
		t.Errorf("Count mismatch: A=%d missing=%d", d.Count("A"), d.Count("missing"))
	}
	if !d.HasDomain("B") || d.HasDomain("C") {
		t.Error("HasDomain mismatch")
	}
	if _, ok := d.Card("A", "02_b.txt"); ok {
		t.Error("card from another domain should not be found")
	}
	c, ok := d.Card("B", "02_b.txt")
	if !ok || c.Filename != "02_b.txt" {
		t.Errorf("Card = %+v, %v", c, ok)
	}
	if d.Cards("missing") != nil {
		t.Error("unknown domain should yield nil")
	}
}

func TestNavigation_OpenAndBack(t *testing.T) {
	c := card("01_a.txt", "D")
	s := NewState(NewDeck([]models.Card{c}))

	if s.View().Name() != "domain" || s.CanGoBack() {
		t.Fatalf("initial view = %s", s.View().Name())
	}

	s.OpenDomain("D")
	if s.View().Name() != "list" {
		t.Fatalf("after OpenDomain view = %s", s.View().Name())
	}
	if dom, ok := s.CurrentDomain(); !ok || dom != "D" {
		t.Errorf("current domain = %q, %v", dom, ok)
	}
	if _, ok := s.CurrentCard(); ok {
		t.Error("OpenDomain must clear the card selection")
	}

	s.OpenCard("D", c)
	if got, ok := s.CurrentCard(); !ok || got.Filename != c.Filename {
		t.Errorf("current card = %+v, %v", got, ok)
	}
	if s.View().Name() != "card" {
		t.Fatalf("after OpenCard view = %s", s.View().Name())
	}

	s.GoBack()
	if v, ok := s.View().(ListView); !ok || v.Domain != "D" {
		t.Fatalf("after first back view = %#v", s.View())
	}
	s.GoBack()
	if _, ok := s.View().(DomainView); !ok {
		t.Fatalf("after second back view = %#v", s.View())
	}
	if _, ok := s.CurrentDomain(); ok {
		t.Error("domain selection should be cleared at root")
	}
	if _, ok := s.CurrentCard(); ok {
		t.Error("card selection should be cleared at root")
	}

	s.GoBack()
	if _, ok := s.View().(DomainView); !ok {
		t.Errorf("GoBack at root should be a no-op, got %#v", s.View())
	}
}

func TestBackTarget_DoesNotMutate(t *testing.T) {
	s := NewState(NewDeck(nil))
	s.OpenDomain("X")
	if _, ok := s.BackTarget().(DomainView); !ok {
		t.Errorf("BackTarget = %#v", s.BackTarget())
	}
	if s.View().Name() != "list" {
		t.Errorf("BackTarget changed the view to %s", s.View().Name())
	}
}
