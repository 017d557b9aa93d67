package phone

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ExclusionPolicy says what verdict a matched exclusion forces.
type ExclusionPolicy string

const (
	// ExclusionValid forces the number to be accepted as-is.
	ExclusionValid ExclusionPolicy = "valid"
	// ExclusionFixable forces invalid-but-fixable with the entry's Fix.
	ExclusionFixable ExclusionPolicy = "fixable"
)

// Exclusion is one static override: a (country, national number) pair that
// bypasses normal validation when the feature carries the required tags.
type Exclusion struct {
	Country      string            `yaml:"country"`
	Number       string            `yaml:"number"` // national significant digits
	RequiredTags map[string]string `yaml:"required_tags"`
	Policy       ExclusionPolicy   `yaml:"policy"`
	Fix          string            `yaml:"fix,omitempty"`
}

// Rules is the immutable configuration injected into validator construction:
// per-country extension conventions, phoneword tolerance, field taxonomy and
// the exclusion override table. Tests substitute alternate tables.
type Rules struct {
	// ExtensionMarkers maps a country to extra extension keywords recognized
	// there, on top of the generic x/ext/extension set.
	ExtensionMarkers map[string][]string `yaml:"extension_markers"`

	// DINExtensionCountries use the hyphen-separated short suffix convention:
	// a dash plus 1-5 digits after an already-valid core number is an
	// extension, not part of the number.
	DINExtensionCountries []string `yaml:"din_extension_countries"`

	// PhonewordCountries tolerate alphabetic vanity numbers.
	PhonewordCountries []string `yaml:"phoneword_countries"`

	// MobileOnlyFields may hold mobile numbers only.
	MobileOnlyFields []string `yaml:"mobile_only_fields"`

	// Field families, each ordered by precedence (highest first) for
	// cross-field duplicate resolution.
	VoiceFields     []string `yaml:"voice_fields"`
	FaxFields       []string `yaml:"fax_fields"`
	MessagingFields []string `yaml:"messaging_fields"`

	Exclusions []Exclusion `yaml:"exclusions"`
}

// DefaultRules returns the compiled-in rule tables.
func DefaultRules() *Rules {
	return &Rules{
		ExtensionMarkers: map[string][]string{
			"PL": {"wewn", "wew"},
			"FR": {"poste"},
		},
		DINExtensionCountries: []string{"DE", "AT"},
		PhonewordCountries:    []string{"US", "CA", "AU"},
		MobileOnlyFields:      []string{"mobile", "contact:mobile"},
		VoiceFields:           []string{"phone", "contact:phone", "mobile", "contact:mobile"},
		FaxFields:             []string{"fax", "contact:fax"},
		MessagingFields:       []string{"contact:whatsapp"},
		Exclusions: []Exclusion{
			// La Poste's national short code is the published contact number
			// for post offices and is not parseable as a regular number.
			{
				Country:      "FR",
				Number:       "3631",
				RequiredTags: map[string]string{"amenity": "post_office"},
				Policy:       ExclusionValid,
			},
		},
	}
}

// LoadRules reads a YAML rules file, starting from the defaults and
// overriding any section the file provides.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "rules: read file")
	}
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, eris.Wrap(err, "rules: unmarshal")
	}
	return rules, nil
}

// MarkersFor returns the country-specific extension keywords, if any.
func (r *Rules) MarkersFor(country string) []string {
	return r.ExtensionMarkers[country]
}

// HasDINExtensions reports whether the country uses hyphen-suffix extensions.
func (r *Rules) HasDINExtensions(country string) bool {
	return contains(r.DINExtensionCountries, country)
}

// AllowsPhonewords reports whether vanity numbers are conventional there.
func (r *Rules) AllowsPhonewords(country string) bool {
	return contains(r.PhonewordCountries, country)
}

// IsMobileOnlyField reports whether the field may hold mobile numbers only.
func (r *Rules) IsMobileOnlyField(field string) bool {
	return contains(r.MobileOnlyFields, field)
}

// Families returns the field families in reconciliation order.
func (r *Rules) Families() [][]string {
	return [][]string{r.VoiceFields, r.FaxFields, r.MessagingFields}
}

// KnownFields returns every recognized phone-like field name.
func (r *Rules) KnownFields() []string {
	var fields []string
	for _, fam := range r.Families() {
		fields = append(fields, fam...)
	}
	return fields
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
