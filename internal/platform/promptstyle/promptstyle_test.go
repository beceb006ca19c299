package promptstyle

import "testing"

func TestPersonaForUnknownFallsBack(t *testing.T) {
	p := PersonaFor("no_such_persona")
	if p.Key != DefaultPersonaKey {
		t.Fatalf("persona key: want=%q got=%q", DefaultPersonaKey, p.Key)
	}
}

func TestPersonaForIsCaseInsensitive(t *testing.T) {
	p := PersonaFor("  Financial_Advisor ")
	if p.Key != "financial_advisor" {
		t.Fatalf("persona key: want=%q got=%q", "financial_advisor", p.Key)
	}
}

func TestCultureForKnownGeo(t *testing.T) {
	c := CultureFor("de", "de")
	if c.CountryName != "Deutschland" {
		t.Fatalf("country: want=%q got=%q", "Deutschland", c.CountryName)
	}
	if c.Currency != "Euro (€)" {
		t.Fatalf("currency: got=%q", c.Currency)
	}
}

func TestCultureForUnknownGeoDefaults(t *testing.T) {
	c := CultureFor("XX", "en")
	if c.CountryName != "International" {
		t.Fatalf("country: want=%q got=%q", "International", c.CountryName)
	}
}

func TestCultureForQuebecFrench(t *testing.T) {
	c := CultureFor("CA", "fr")
	if c.CountryName != "Canada (Québec)" {
		t.Fatalf("country: want=%q got=%q", "Canada (Québec)", c.CountryName)
	}

	// The CA base context survives under the Québécois supplement.
	notes := map[string]bool{}
	for _, n := range c.CulturalNotes {
		notes[n] = true
	}
	if !notes["Reference Canadian success stories and local experts"] {
		t.Fatalf("CA base notes missing: %v", c.CulturalNotes)
	}
	if !notes["Québécois have strong cultural identity - they are NOT French, they are Québécois"] {
		t.Fatalf("Québécois supplement notes missing: %v", c.CulturalNotes)
	}
	expr := map[string]bool{}
	for _, e := range c.LocalExpressions {
		expr[e] = true
	}
	if !expr["To be honest"] || !expr["Icitte"] {
		t.Fatalf("expressions must combine base and supplement: %v", c.LocalExpressions)
	}

	// English Canada keeps the plain CA context.
	en := CultureFor("CA", "en")
	if en.CountryName != "Canada" {
		t.Fatalf("country: want=%q got=%q", "Canada", en.CountryName)
	}
	for _, n := range en.CulturalNotes {
		if n == "Québécois have strong cultural identity - they are NOT French, they are Québécois" {
			t.Fatalf("supplement leaked into the English CA context")
		}
	}
}

func TestCultureForReturnsCopies(t *testing.T) {
	a := CultureFor("DE", "de")
	a.CulturalNotes[0] = "mutated"
	b := CultureFor("DE", "de")
	if b.CulturalNotes[0] == "mutated" {
		t.Fatal("shared slice leaked between calls")
	}
}

func TestPersonasCoversAllVoices(t *testing.T) {
	all := Personas()
	if len(all) != 12 {
		t.Fatalf("personas: want=12 got=%d", len(all))
	}
	for key, p := range all {
		if p.Key != key {
			t.Fatalf("persona key mismatch: map=%q struct=%q", key, p.Key)
		}
		if p.Tone == "" || p.Hook == "" || p.Style == "" {
			t.Fatalf("persona %q incomplete", key)
		}
	}
}
