// Package render assembles the base dossier PDF: cover page, table of
// contents, and one banner page per section with the in-process content
// (project data, responsible person, material tables) already rendered.
//
// Pages for externally backed sections carry only their banner and an
// invisible section marker; the splice package fills them in afterwards.
package render

import (
	"fmt"

	"github.com/sfxrentals/dossier/preview"
)

// Section keys, stable across payloads and revisions.
const (
	KeyProject     = "project"
	KeyEmergency   = "emergency"
	KeyInsurance   = "insurance"
	KeyResponsible = "responsible"
	KeyMaterials   = "materials"
	KeySiteplan    = "siteplan"
	KeyRiskPyro    = "risk_pyro"
	KeyRiskSFX     = "risk_sfx"
	KeyWind        = "wind"
	KeyDrought     = "drought"
	KeyPermits     = "permits"
)

// Section is one chapter of the dossier.
type Section struct {
	Key    string
	Title  string
	Number int
}

// Label returns the numbered display title, e.g. "3. Verzekeringen".
func (s Section) Label() string {
	return fmt.Sprintf("%d. %s", s.Number, s.Title)
}

var sectionTitles = map[string]string{
	KeyProject:     "Projectgegevens",
	KeyEmergency:   "Emergency",
	KeyInsurance:   "Verzekeringen",
	KeyResponsible: "Verantwoordelijke",
	KeyMaterials:   "Materialen",
	KeySiteplan:    "Inplantingsplan",
	KeyRiskPyro:    "Risicoanalyse Pyro",
	KeyRiskSFX:     "Risicoanalyse Speciale effecten",
	KeyWind:        "Windplan",
	KeyDrought:     "Droogteplan",
	KeyPermits:     "Vergunningen & Toelatingen",
}

// Sections returns the canonical ordered chapter list for a payload. The
// risk-analysis chapters appear only when the corresponding material
// category is present; numbering is assigned after that selection so the
// table of contents and the body always agree.
func Sections(pv preview.Preview) []Section {
	keys := []string{KeyProject, KeyEmergency, KeyInsurance, KeyResponsible, KeyMaterials, KeySiteplan}
	if pv.Materials.HasPyro() {
		keys = append(keys, KeyRiskPyro)
	}
	if pv.Materials.HasSFX() {
		keys = append(keys, KeyRiskSFX)
	}
	keys = append(keys, KeyWind, KeyDrought, KeyPermits)

	sections := make([]Section, len(keys))
	for i, key := range keys {
		sections[i] = Section{Key: key, Title: sectionTitles[key], Number: i + 1}
	}
	return sections
}

// External is a reference to one externally supplied document of a section.
type External struct {
	Ref  string // URL or data URI
	Name string // display name, when the wizard supplied one
}

// ExternalRefs maps section keys to their external document references, in
// payload order. Sections without external backing are absent from the map.
// The responsible section carries the full crew bio when one is linked.
func ExternalRefs(pv preview.Preview) map[string][]External {
	docs := pv.Documents
	out := make(map[string][]External)

	add := func(key string, refs ...string) {
		for _, ref := range refs {
			if ref != "" {
				out[key] = append(out[key], External{Ref: ref})
			}
		}
	}

	add(KeyEmergency, docs.Emergency...)
	add(KeyInsurance, docs.Insurance...)
	add(KeyResponsible, docs.CrewBioFull)
	add(KeyRiskPyro, docs.RiskPyro)
	add(KeyRiskSFX, docs.RiskGeneral)
	add(KeyWind, docs.Windplan)
	add(KeyDrought, docs.Droughtplan)

	for _, up := range pv.Uploads.Siteplan {
		if up.Data != "" {
			out[KeySiteplan] = append(out[KeySiteplan], External{Ref: up.Data, Name: up.Name})
		}
	}
	for _, up := range pv.Uploads.Permits {
		if up.Data != "" {
			out[KeyPermits] = append(out[KeyPermits], External{Ref: up.Data, Name: up.Name})
		}
	}
	return out
}
