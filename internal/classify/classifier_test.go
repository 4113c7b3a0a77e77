package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/iwash/internal/model"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Automyčka Říčany", "Automycka Ricany"},
		{"Ruční mytí", "Rucni myti"},
		{"Auto Podbabská", "Auto Podbabska"},
		{"plain ascii", "plain ascii"},
		{"a\u20d7", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestInfer(t *testing.T) {
	t.Parallel()
	c := Default()

	tests := []struct {
		name    string
		place   string
		tags    []string
		address string
		want    model.ServiceType
	}{
		{"no signal", "Myčka U Lípy", nil, "Praha", model.ServiceUnknown},
		{"fuel brand", "Shell Automyčka", []string{"car_wash"}, "Evropská 2, Praha 6", model.ServiceContact},
		{"generic full service", "Ruční mytí aut", nil, "", model.ServiceFullService},
		{"noncontact brand", "Ehrle", []string{"car_wash"}, "", model.ServiceNonContact},
		{"tie full service over noncontact", "Detailing Touchless", nil, "", model.ServiceFullService},
		{"tie noncontact over contact", "Touchless Tunnel", nil, "", model.ServiceNonContact},
		{"fuel station tag alone", "Myčka", []string{"car_wash", "gas_station"}, "", model.ServiceContact},
		{"diacritics in address", "Myčka", nil, "Samoobslužná 5", model.ServiceNonContact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.Infer(tt.place, tt.tags, tt.address))
		})
	}
}

func TestInfer_Deterministic(t *testing.T) {
	t.Parallel()
	c := Default()

	first := c.Infer("Washbox Tunnel", []string{"car_wash"}, "Praha")
	for range 20 {
		assert.Equal(t, first, c.Infer("Washbox Tunnel", []string{"car_wash"}, "Praha"))
	}
}

func TestScores(t *testing.T) {
	t.Parallel()
	c := Default()

	t.Run("brand weighs two", func(t *testing.T) {
		t.Parallel()
		s := c.Scores("Washtec", nil, "")
		assert.Equal(t, Scores{Contact: 2}, s)
	})

	t.Run("keyword counted once", func(t *testing.T) {
		t.Parallel()
		s := c.Scores("Tunnel tunnel tunnel", nil, "")
		assert.Equal(t, 1, s.Contact)
	})

	t.Run("fuel boost is flat", func(t *testing.T) {
		t.Parallel()
		s := c.Scores("Myčka", []string{"gas_station", "gas_station"}, "")
		assert.Equal(t, 1, s.Contact)
	})

	t.Run("fuel boost only from tags", func(t *testing.T) {
		t.Parallel()
		s := c.Scores("Myčka gas_station", nil, "")
		assert.Equal(t, 0, s.Contact)
	})
}

func TestClassify_Override(t *testing.T) {
	t.Parallel()
	c := Default()

	name := "Solid Car Wash Tunnel Portal Automat Shell"
	require.Equal(t, model.ServiceContact, c.Infer(name, nil, ""))

	d := c.Classify(name, nil, "")
	assert.Equal(t, model.ServiceFullService, d.Type)
	assert.True(t, d.Overridden)
	assert.False(t, d.Excluded)
	assert.Greater(t, d.Scores.Contact, d.Scores.FullService)

	d = c.Classify("KK Detail Mobile Wash", []string{"car_wash"}, "")
	assert.Equal(t, model.ServiceFullService, d.Type)
	assert.True(t, d.Overridden)

	d = c.Classify("Myčka", nil, "Areál Solid Car Wash, Praha")
	assert.Equal(t, model.ServiceFullService, d.Type)
	assert.True(t, d.Overridden)
}

func TestClassify_Exclusion(t *testing.T) {
	t.Parallel()
	c := Default()

	for _, name := range []string{"Auto Podbabská", "AUTO PODBABSKÁ Touchless", "Autopodbabska s.r.o."} {
		d := c.Classify(name, []string{"car_wash"}, "")
		assert.True(t, d.Excluded, name)
		assert.Empty(t, d.Type, name)
	}

	assert.True(t, c.Excluded("Myčka", "Autopodbabská 1"))
	assert.False(t, c.Excluded("Podbabská myčka", "Praha"))
}

func TestNew_FoldsKeywords(t *testing.T) {
	t.Parallel()

	c := New(Tables{
		FullService: Keywords{Generic: []string{"Ruční Mytí"}},
		Exclude:     []string{"  Pneuservis Řež  "},
	})

	assert.Equal(t, model.ServiceFullService, c.Infer("rucni myti", nil, ""))
	assert.True(t, c.Excluded("PNEUSERVIS REZ", ""))
	assert.Equal(t, model.ServiceUnknown, c.Infer("Shell", []string{"gas_station"}, ""))
}

func TestLoadTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	content := `classify:
  contact:
    brands:
      - karcher
  exclude:
    - pneuservis
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	def := DefaultTables()
	assert.Equal(t, []string{"karcher"}, tables.Contact.Brands)
	assert.Equal(t, def.Contact.Generic, tables.Contact.Generic)
	assert.Equal(t, []string{"pneuservis"}, tables.Exclude)
	assert.Equal(t, def.FullService, tables.FullService)
	assert.Equal(t, def.ForceFullService, tables.ForceFullService)
	assert.Equal(t, def.FuelStationTags, tables.FuelStationTags)

	c := New(*tables)
	assert.Equal(t, model.ServiceContact, c.Infer("Karcher", nil, ""))
	assert.False(t, c.Excluded("Auto Podbabská", ""))
	assert.True(t, c.Excluded("Pneuservis Novák", ""))
}

func TestLoadTables_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classify: [unclosed"), 0o644))
	_, err = LoadTables(path)
	assert.Error(t, err)
}
