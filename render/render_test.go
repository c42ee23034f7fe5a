package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sfxrentals/dossier/preview"
	"github.com/sfxrentals/dossier/reader"
)

func testPreview(t *testing.T, pyro, sfx bool) preview.Preview {
	t.Helper()
	raw := map[string]any{
		"avm": map[string]any{
			"name": "Testfeest aan Zee",
			"customer": map[string]any{
				"name":    "Gemeente Oostende",
				"address": "Vindictivelaan 1, Oostende",
			},
			"location": map[string]any{
				"name":    "Klein Strand",
				"address": "Zeedijk, Oostende",
			},
			"project_start_date": "2024-07-20",
			"project_end_date":   "2024-07-21",
		},
		"responsible": "J. Peeters",
	}
	materials := map[string]any{}
	if pyro {
		materials["dees"] = []map[string]any{
			{"displayname": "Cake 25 shots", "quantity_total": 4, "type": "F4", "nec": "120 g",
				"links": map[string]any{"ce": "https://docs.example/ce.pdf", "msds": true}},
		}
	}
	if sfx {
		materials["avm"] = []map[string]any{
			{"displayname": "CO2 Jet", "quantity_total": 2, "type": "Effect"},
		}
	}
	raw["materials"] = materials

	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	var pv preview.Preview
	if err := json.Unmarshal(data, &pv); err != nil {
		t.Fatalf("unmarshal preview: %v", err)
	}
	return pv
}

func TestSectionsConditionalRisk(t *testing.T) {
	cases := []struct {
		pyro, sfx bool
		want      []string
	}{
		{false, false, []string{KeyProject, KeyEmergency, KeyInsurance, KeyResponsible,
			KeyMaterials, KeySiteplan, KeyWind, KeyDrought, KeyPermits}},
		{true, false, []string{KeyProject, KeyEmergency, KeyInsurance, KeyResponsible,
			KeyMaterials, KeySiteplan, KeyRiskPyro, KeyWind, KeyDrought, KeyPermits}},
		{false, true, []string{KeyProject, KeyEmergency, KeyInsurance, KeyResponsible,
			KeyMaterials, KeySiteplan, KeyRiskSFX, KeyWind, KeyDrought, KeyPermits}},
		{true, true, []string{KeyProject, KeyEmergency, KeyInsurance, KeyResponsible,
			KeyMaterials, KeySiteplan, KeyRiskPyro, KeyRiskSFX, KeyWind, KeyDrought, KeyPermits}},
	}
	for _, tc := range cases {
		secs := Sections(testPreview(t, tc.pyro, tc.sfx))
		if len(secs) != len(tc.want) {
			t.Fatalf("pyro=%v sfx=%v: got %d sections, want %d", tc.pyro, tc.sfx, len(secs), len(tc.want))
		}
		for i, sec := range secs {
			if sec.Key != tc.want[i] {
				t.Errorf("pyro=%v sfx=%v: section %d = %q, want %q", tc.pyro, tc.sfx, i, sec.Key, tc.want[i])
			}
			if sec.Number != i+1 {
				t.Errorf("section %q numbered %d, want %d", sec.Key, sec.Number, i+1)
			}
		}
	}
}

func TestBuildBaseMarkersMatchPageTable(t *testing.T) {
	for _, tc := range []struct{ pyro, sfx bool }{
		{false, false}, {true, false}, {false, true}, {true, true},
	} {
		g := NewGenerator()
		base, err := g.BuildBase(context.Background(), testPreview(t, tc.pyro, tc.sfx))
		if err != nil {
			t.Fatalf("BuildBase: %v", err)
		}

		doc, err := reader.Parse(base.PDF)
		if err != nil {
			t.Fatalf("parse base: %v", err)
		}
		// Cover and table of contents precede the sections.
		if want := 2 + len(base.Sections); doc.NumPages() < want {
			t.Fatalf("got %d pages, want at least %d", doc.NumPages(), want)
		}

		markers := reader.FindSectionMarkers(doc)
		for _, sec := range base.Sections {
			got, ok := markers[sec.Key]
			if !ok {
				t.Fatalf("marker for %q not found", sec.Key)
			}
			if got != base.Pages[sec.Key] {
				t.Errorf("section %q: marker on page %d, table says %d", sec.Key, got, base.Pages[sec.Key])
			}
		}
	}
}

func TestBuildBaseCoverAndTOC(t *testing.T) {
	fixed := time.Date(2024, 7, 19, 9, 30, 0, 0, time.UTC)
	g := NewGenerator(
		WithClock(func() time.Time { return fixed }),
		WithVerifyBaseURL("https://verify.example/dossier"),
	)
	base, err := g.BuildBase(context.Background(), testPreview(t, true, true))
	if err != nil {
		t.Fatalf("BuildBase: %v", err)
	}

	doc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cover, err := doc.Page(1)
	if err != nil {
		t.Fatal(err)
	}
	text, err := cover.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Veiligheidsdossier", "Testfeest aan Zee", "Gegenereerd: 19/07/2024 09:30"} {
		if !strings.Contains(text, want) {
			t.Errorf("cover text missing %q", want)
		}
	}

	toc, err := doc.Page(2)
	if err != nil {
		t.Fatal(err)
	}
	text, err = toc.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Inhoudstafel") {
		t.Error("TOC page missing title")
	}
	for _, sec := range base.Sections {
		if !strings.Contains(text, sec.Label()) {
			t.Errorf("TOC missing %q", sec.Label())
		}
	}
}

func TestBuildBaseMaterialsContent(t *testing.T) {
	g := NewGenerator()
	base, err := g.BuildBase(context.Background(), testPreview(t, true, true))
	if err != nil {
		t.Fatalf("BuildBase: %v", err)
	}
	doc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatal(err)
	}

	page, err := doc.Page(base.Pages[KeyMaterials] + 1)
	if err != nil {
		t.Fatal(err)
	}
	text, err := page.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Pyrotechnische materialen", "Speciale effecten", "Cake 25 shots", "CO2 Jet", "NEC"} {
		if !strings.Contains(text, want) {
			t.Errorf("materials page missing %q", want)
		}
	}
}

func materialsPageText(t *testing.T, pyro, sfx bool) string {
	t.Helper()
	g := NewGenerator()
	base, err := g.BuildBase(context.Background(), testPreview(t, pyro, sfx))
	if err != nil {
		t.Fatalf("BuildBase: %v", err)
	}
	doc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatal(err)
	}
	page, err := doc.Page(base.Pages[KeyMaterials] + 1)
	if err != nil {
		t.Fatal(err)
	}
	text, err := page.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestBuildBaseEmptyMaterialsPlaceholder(t *testing.T) {
	text := materialsPageText(t, false, false)
	for _, want := range []string{
		"5.1 Pyrotechnische materialen",
		"5.2 Speciale effecten",
		"Geen items geselecteerd.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("empty materials page missing %q", want)
		}
	}
}

func TestBuildBaseMaterialsOneCategoryEmpty(t *testing.T) {
	text := materialsPageText(t, false, true)
	for _, want := range []string{
		"5.1 Pyrotechnische materialen",
		"Geen items geselecteerd.",
		"5.2 Speciale effecten",
		"CO2 Jet",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("materials page missing %q", want)
		}
	}
	// The empty pyro category keeps its heading before the placeholder.
	if strings.Index(text, "5.1 Pyrotechnische materialen") > strings.Index(text, "Geen items geselecteerd.") {
		t.Error("placeholder should follow the empty category heading")
	}
}

func TestExternalRefsMapping(t *testing.T) {
	var pv preview.Preview
	payload := `{
		"documents": {
			"emergency": ["https://docs.example/e1.pdf", "https://docs.example/e2.pdf"],
			"insurance": "https://docs.example/verz.pdf",
			"windplan": "https://docs.example/wind.pdf",
			"risk_pyro": "https://docs.example/risk.pdf",
			"crew_bio_full": "https://docs.example/bio.pdf"
		},
		"uploads": {
			"siteplan": [{"name": "plan.pdf", "data": "data:application/pdf;base64,AAAA"}]
		}
	}`
	if err := json.Unmarshal([]byte(payload), &pv); err != nil {
		t.Fatal(err)
	}

	refs := ExternalRefs(pv)
	if got := len(refs[KeyEmergency]); got != 2 {
		t.Errorf("emergency: got %d refs, want 2", got)
	}
	if got := len(refs[KeyInsurance]); got != 1 {
		t.Errorf("insurance: got %d refs, want 1", got)
	}
	if refs[KeyWind][0].Ref != "https://docs.example/wind.pdf" {
		t.Errorf("wind ref = %q", refs[KeyWind][0].Ref)
	}
	if refs[KeyResponsible][0].Ref != "https://docs.example/bio.pdf" {
		t.Errorf("responsible ref = %q", refs[KeyResponsible][0].Ref)
	}
	if refs[KeySiteplan][0].Name != "plan.pdf" {
		t.Errorf("siteplan name = %q", refs[KeySiteplan][0].Name)
	}
	if _, ok := refs[KeyDrought]; ok {
		t.Error("drought should have no refs")
	}
	if _, ok := refs[KeyPermits]; ok {
		t.Error("permits should have no refs")
	}
}
