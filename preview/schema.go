// Package preview defines the typed wizard payload that drives dossier
// generation, together with the display normalization rules applied to it.
//
// The payload arrives as loosely structured JSON from the event wizard. All
// fields are optional: a missing field never fails generation, it only
// degrades the affected section to an empty value or placeholder.
package preview

import (
	"encoding/json"
	"strings"
)

// Preview is the top-level wizard payload describing one event.
type Preview struct {
	AVM         AVM        `json:"avm"`
	Responsible string     `json:"responsible"`
	Documents   Documents  `json:"documents"`
	Uploads     Uploads    `json:"uploads"`
	Materials   Materials  `json:"materials"`
	Language    string     `json:"language,omitempty"`
}

// AVM carries the project metadata block.
type AVM struct {
	Name     string   `json:"name"`
	Customer Customer `json:"customer"`
	Location Location `json:"location"`

	// Older wizard revisions sent start_date/end_date, newer ones
	// project_start_date/project_end_date. Both are accepted.
	ProjectStartDate string `json:"project_start_date"`
	ProjectEndDate   string `json:"project_end_date"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
}

// Start returns the project start date, preferring the newer field name.
func (a AVM) Start() string {
	if a.ProjectStartDate != "" {
		return a.ProjectStartDate
	}
	return a.StartDate
}

// End returns the project end date, preferring the newer field name.
func (a AVM) End() string {
	if a.ProjectEndDate != "" {
		return a.ProjectEndDate
	}
	return a.EndDate
}

// Customer identifies the commissioning party.
type Customer struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Contact Contact `json:"contact"`
}

// Contact is the customer's contact person.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// HasAny reports whether any contact field is filled in.
func (c Contact) HasAny() bool {
	return c.Name != "" || c.Phone != "" || c.Email != ""
}

// Location is where the event takes place.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Documents holds externally hosted supporting documents. Each reference is
// either an http(s) URL or a base64 data URI.
type Documents struct {
	Emergency   RefList `json:"emergency"`
	Insurance   RefList `json:"insurance"`
	Windplan    string  `json:"windplan"`
	Droughtplan string  `json:"droughtplan"`
	RiskPyro    string  `json:"risk_pyro"`
	RiskGeneral string  `json:"risk_general"`
	CrewBioMini string  `json:"crew_bio_mini"`
	CrewBioFull string  `json:"crew_bio_full"`
	Logo        string  `json:"logo"`
}

// RefList is a document reference field that older payloads sent as a single
// string and newer ones as a list. It unmarshals from either form.
type RefList []string

// UnmarshalJSON accepts a string, a list of strings, or null.
func (r *RefList) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*r = nil
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := list[:0]
		for _, v := range list {
			if v != "" {
				out = append(out, v)
			}
		}
		*r = out
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*r = nil
	} else {
		*r = RefList{single}
	}
	return nil
}

// Uploads holds files the user uploaded directly in the wizard,
// as base64 data URIs.
type Uploads struct {
	Permits  []Upload `json:"permits"`
	Siteplan []Upload `json:"siteplan"`
}

// Upload is one user-uploaded file.
type Upload struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Materials groups the selected material lists by category: avm for
// special-effects equipment, dees for pyrotechnic items.
type Materials struct {
	AVM  []Material `json:"avm"`
	Dees []Material `json:"dees"`
}

// HasPyro reports whether any pyrotechnic materials were selected.
func (m Materials) HasPyro() bool { return len(m.Dees) > 0 }

// HasSFX reports whether any special-effects materials were selected.
func (m Materials) HasSFX() bool { return len(m.AVM) > 0 }

// Material is one selected material item.
type Material struct {
	DisplayName   string         `json:"displayname"`
	QuantityTotal Quantity       `json:"quantity_total"`
	Type          string         `json:"type"`
	NEC           string         `json:"nec,omitempty"`
	Links         Links          `json:"links"`
	Files         []MaterialFile `json:"files"`
}

// Quantity returns the total quantity as display text.
func (m Material) Quantity() string { return string(m.QuantityTotal) }

// Quantity is a material quantity kept in display form. Older payloads send
// a number, newer ones free text ("ca. 4 stuks"); any scalar is accepted.
type Quantity string

// UnmarshalJSON accepts a JSON string, number, boolean, or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*q = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*q = Quantity(str)
		return nil
	}
	*q = Quantity(s)
	return nil
}

// Links flags which certificate documents are linked to a material.
// The wizard sends URLs or booleans; only presence matters here.
type Links struct {
	CE     json.RawMessage `json:"ce"`
	Manual json.RawMessage `json:"manual"`
	MSDS   json.RawMessage `json:"msds"`
}

// MaterialFile is a certificate file attached to a material directly.
type MaterialFile struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HasCE reports whether a CE certificate is available for the material,
// either as a link flag or as an attached file.
func (m Material) HasCE() bool { return truthy(m.Links.CE) || m.hasFile("ce") }

// HasManual reports whether a manual is available for the material.
func (m Material) HasManual() bool { return truthy(m.Links.Manual) || m.hasFile("manual") }

// HasMSDS reports whether a safety data sheet is available for the material.
func (m Material) HasMSDS() bool { return truthy(m.Links.MSDS) || m.hasFile("msds") }

func (m Material) hasFile(kind string) bool {
	for _, f := range m.Files {
		if strings.EqualFold(f.Kind, kind) {
			return true
		}
	}
	return false
}

// truthy reports whether a raw JSON value counts as present: anything but
// absent, null, false, empty string, or zero.
func truthy(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
