package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Keywords is one category's keyword universe. Brand hits weigh 2, generic
// hits weigh 1.
type Keywords struct {
	Brands  []string `yaml:"brands"`
	Generic []string `yaml:"generic"`
}

// Tables holds every keyword list the classifier and the override rules use.
type Tables struct {
	FullService Keywords `yaml:"fullservice"`
	NonContact  Keywords `yaml:"noncontact"`
	Contact     Keywords `yaml:"contact"`

	// FuelStationTags are category tags that add a flat +1 to CONTACT.
	FuelStationTags []string `yaml:"fuel_station_tags"`

	// ForceFullService substrings force FULLSERVICE regardless of score.
	ForceFullService []string `yaml:"force_fullservice"`

	// Exclude substrings drop the place from results entirely.
	Exclude []string `yaml:"exclude"`
}

// DefaultTables returns the built-in Czech-market tables.
func DefaultTables() Tables {
	return Tables{
		FullService: Keywords{
			Brands: []string{
				"kk detail", "kkdetail", "solid car wash", "solid carwash", "mobilewash",
				"wash&go", "wash and go", "automycka express", "automyckaexpress",
			},
			Generic: []string{
				"rucni myti", "rucni cisteni", "rucne", "hand wash", "handwash", "manual wash",
				"detailing", "autodetail", "cisteni interieru", "myti interieru", "tepovani",
				"impregnace", "voskovani", "lesteni", "valet", "valeting", "steam wash",
				"parni myti", "myti s obsluhou", "mobilni myti", "mobile wash",
			},
		},
		NonContact: Keywords{
			Brands: []string{
				"ehrle", "elephant blue", "elephant", "bkf", "sb wash", "sb mycka",
				"washbox", "wash box", "jetwash", "jet wash",
			},
			Generic: []string{
				"bezkontakt", "bez kontakt", "touchless", "brushless", "self service", "self-service",
				"samoobsluz", "samoobsluzna", "samoobsluzne", "wap", "vapka", "pressure",
				"box", "boxy", "wash point", "washpoint",
			},
		},
		Contact: Keywords{
			Brands: []string{"imo", "washtec", "christ"},
			Generic: []string{
				"automat", "automatic", "tunnel", "tunel", "rollover", "portal", "portalova",
				"brush", "kartac", "kartace", "myci linka", "myci tunel",
				// Fuel-station chains usually host a tunnel or portal wash.
				"shell", "mol", "omv", "orlen", "benzina", "eurooil", "ono", "globus", "tesco",
			},
		},
		FuelStationTags:  []string{"gas_station"},
		ForceFullService: []string{"kk detail", "solid car wash", "solid carwash", "mobilewash"},
		Exclude:          []string{"auto podbabska", "autopodbabska"},
	}
}

// LoadTables reads keyword tables from a YAML file with a top-level
// "classify" key. Sections the file leaves empty keep their defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read tables %s", path)
	}

	var wrapper struct {
		Classify Tables `yaml:"classify"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "classify: parse tables")
	}

	t := wrapper.Classify
	def := DefaultTables()
	fillKeywords(&t.FullService, def.FullService)
	fillKeywords(&t.NonContact, def.NonContact)
	fillKeywords(&t.Contact, def.Contact)
	if t.FuelStationTags == nil {
		t.FuelStationTags = def.FuelStationTags
	}
	if t.ForceFullService == nil {
		t.ForceFullService = def.ForceFullService
	}
	if t.Exclude == nil {
		t.Exclude = def.Exclude
	}

	return &t, nil
}

func fillKeywords(k *Keywords, def Keywords) {
	if k.Brands == nil {
		k.Brands = def.Brands
	}
	if k.Generic == nil {
		k.Generic = def.Generic
	}
}
