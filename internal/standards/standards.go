// Package standards holds the IRS Collection Financial Standards tables.
//
// Tables are versioned, embedded, parsed once per version and never
// mutated afterward. All lookups are pure.
package standards

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
)

// DefaultVersion is the standards release used when none is configured.
const DefaultVersion = "2025-Q1"

const component = "standards"

//go:embed data/*.yaml
var dataFS embed.FS

// Kind selects a standards table.
type Kind string

const (
	KindNational       Kind = "national"
	KindHousing        Kind = "housing"
	KindTransportation Kind = "transportation"
	KindHealthcare     Kind = "healthcare"
)

// Query carries the household keys a lookup may need.
type Query struct {
	FamilySize int
	State      string
	Under65    int
	Over65     int
	Vehicles   int
}

// TransportationStandard breaks the transportation allowance into components.
type TransportationStandard struct {
	Region    string          `json:"region"`
	Vehicles  int             `json:"vehicles"`
	Ownership decimal.Decimal `json:"ownership"`
	Operating decimal.Decimal `json:"operating"`
	Public    decimal.Decimal `json:"public"`
	Total     decimal.Decimal `json:"total"`
}

// Table is one immutable standards release.
type Table struct {
	version       string
	effectiveFrom time.Time
	effectiveTo   time.Time

	national         map[int]decimal.Decimal
	additionalPerson decimal.Decimal

	healthUnder65 decimal.Decimal
	healthOver65  decimal.Decimal

	maxVehicles int
	ownership   decimal.Decimal
	public      decimal.Decimal
	operating   map[string]decimal.Decimal
	regionOf    map[string]string

	housing map[string][5]decimal.Decimal
}

type tableFile struct {
	Version       string `yaml:"version"`
	EffectiveFrom string `yaml:"effective_from"`
	EffectiveTo   string `yaml:"effective_to"`
	National      struct {
		ByFamilySize     map[int]decimal.Decimal `yaml:"by_family_size"`
		AdditionalPerson decimal.Decimal         `yaml:"additional_person"`
	} `yaml:"national"`
	Healthcare struct {
		Under65 decimal.Decimal `yaml:"under_65"`
		Over65  decimal.Decimal `yaml:"over_65"`
	} `yaml:"healthcare"`
	Transportation struct {
		MaxVehicles         int                        `yaml:"max_vehicles"`
		OwnershipPerVehicle decimal.Decimal            `yaml:"ownership_per_vehicle"`
		Public              decimal.Decimal            `yaml:"public"`
		OperatingPerVehicle map[string]decimal.Decimal `yaml:"operating_per_vehicle"`
		Regions             map[string][]string        `yaml:"regions"`
	} `yaml:"transportation"`
	Housing map[string][]decimal.Decimal `yaml:"housing"`
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*loadOnce{}
)

type loadOnce struct {
	once  sync.Once
	table *Table
	err   error
}

// Load returns the table for a version, parsing it on first use.
func Load(version string) (*Table, error) {
	cacheMu.Lock()
	entry, ok := cache[version]
	if !ok {
		entry = &loadOnce{}
		cache[version] = entry
	}
	cacheMu.Unlock()

	entry.once.Do(func() {
		data, err := dataFS.ReadFile("data/" + version + ".yaml")
		if err != nil {
			entry.err = faults.Configf(component, "version", "unknown standards version %q", version)
			return
		}
		entry.table, entry.err = Parse(data)
	})
	return entry.table, entry.err
}

// Default returns the table for DefaultVersion.
func Default() *Table {
	t, err := Load(DefaultVersion)
	if err != nil {
		panic(fmt.Sprintf("embedded standards %s: %v", DefaultVersion, err))
	}
	return t
}

// Versions lists the embedded releases.
func Versions() []string {
	entries, _ := dataFS.ReadDir("data")
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Parse builds a Table from YAML data.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing standards: %w", err)
	}

	t := &Table{
		version:          f.Version,
		national:         f.National.ByFamilySize,
		additionalPerson: f.National.AdditionalPerson,
		healthUnder65:    f.Healthcare.Under65,
		healthOver65:     f.Healthcare.Over65,
		maxVehicles:      f.Transportation.MaxVehicles,
		ownership:        f.Transportation.OwnershipPerVehicle,
		public:           f.Transportation.Public,
		operating:        f.Transportation.OperatingPerVehicle,
		regionOf:         make(map[string]string),
		housing:          make(map[string][5]decimal.Decimal, len(f.Housing)),
	}

	var err error
	if t.effectiveFrom, err = time.Parse("2006-01-02", f.EffectiveFrom); err != nil {
		return nil, fmt.Errorf("parsing effective_from: %w", err)
	}
	if t.effectiveTo, err = time.Parse("2006-01-02", f.EffectiveTo); err != nil {
		return nil, fmt.Errorf("parsing effective_to: %w", err)
	}

	for size := 1; size <= 4; size++ {
		if _, ok := t.national[size]; !ok {
			return nil, faults.Configf(component, fmt.Sprintf("national.%d", size), "missing family size")
		}
	}
	if t.maxVehicles < 1 {
		return nil, faults.Configf(component, "transportation.max_vehicles", "must be at least 1")
	}

	for region, states := range f.Transportation.Regions {
		if _, ok := t.operating[region]; !ok {
			return nil, faults.Configf(component, "transportation.operating_per_vehicle."+region, "missing operating cost")
		}
		for _, s := range states {
			t.regionOf[strings.ToUpper(s)] = region
		}
	}

	for state, row := range f.Housing {
		if len(row) != 5 {
			return nil, faults.Configf(component, "housing."+state, "want 5 family sizes, got %d", len(row))
		}
		key := strings.ToUpper(state)
		if _, ok := t.regionOf[key]; !ok {
			return nil, faults.Configf(component, "transportation.regions", "state %s has no region", key)
		}
		t.housing[key] = [5]decimal.Decimal(row)
	}
	return t, nil
}

// Version returns the release tag, e.g. "2025-Q1".
func (t *Table) Version() string { return t.version }

// EffectiveFrom returns the first day the release applies.
func (t *Table) EffectiveFrom() time.Time { return t.effectiveFrom }

// EffectiveTo returns the last day the release applies.
func (t *Table) EffectiveTo() time.Time { return t.effectiveTo }

// Lookup returns the standard amount for a kind and household.
func (t *Table) Lookup(kind Kind, q Query) (decimal.Decimal, error) {
	switch kind {
	case KindNational:
		return t.National(q.FamilySize)
	case KindHousing:
		return t.Housing(q.State, q.FamilySize)
	case KindTransportation:
		ts, err := t.Transportation(q.State, q.Vehicles)
		if err != nil {
			return decimal.Zero, err
		}
		return ts.Total, nil
	case KindHealthcare:
		return t.Healthcare(q.Under65, q.Over65)
	default:
		return decimal.Zero, faults.Configf(component, "kind", "unknown standard kind %q", kind)
	}
}

// National returns the food, clothing and miscellaneous allowance.
func (t *Table) National(familySize int) (decimal.Decimal, error) {
	if familySize <= 0 {
		return decimal.Zero, faults.Configf(component, "national.family_size", "family size must be positive, got %d", familySize)
	}
	if familySize <= 4 {
		return t.national[familySize], nil
	}
	extra := decimal.NewFromInt(int64(familySize - 4)).Mul(t.additionalPerson)
	return t.national[4].Add(extra), nil
}

// Housing returns the housing and utilities allowance for a state.
func (t *Table) Housing(state string, familySize int) (decimal.Decimal, error) {
	if familySize <= 0 {
		return decimal.Zero, faults.Configf(component, "housing.family_size", "family size must be positive, got %d", familySize)
	}
	key := strings.ToUpper(strings.TrimSpace(state))
	row, ok := t.housing[key]
	if !ok {
		return decimal.Zero, faults.Configf(component, "housing."+key, "no housing standard for state %q", state)
	}
	return row[min(familySize, 5)-1], nil
}

// Region returns the transportation region for a state.
func (t *Table) Region(state string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(state))
	region, ok := t.regionOf[key]
	if !ok {
		return "", faults.Configf(component, "transportation."+key, "no transportation region for state %q", state)
	}
	return region, nil
}

// Transportation returns the transportation allowance components.
// Vehicles above the table maximum are capped; zero vehicles means public transit.
func (t *Table) Transportation(state string, vehicles int) (TransportationStandard, error) {
	region, err := t.Region(state)
	if err != nil {
		return TransportationStandard{}, err
	}
	n := min(max(vehicles, 0), t.maxVehicles)
	ts := TransportationStandard{
		Region:    region,
		Vehicles:  n,
		Ownership: decimal.Zero,
		Operating: decimal.Zero,
		Public:    decimal.Zero,
	}
	if n == 0 {
		ts.Public = t.public
	} else {
		count := decimal.NewFromInt(int64(n))
		ts.Ownership = t.ownership.Mul(count)
		ts.Operating = t.operating[region].Mul(count)
	}
	ts.Total = ts.Ownership.Add(ts.Operating).Add(ts.Public)
	return ts, nil
}

// Healthcare returns the out-of-pocket healthcare allowance.
func (t *Table) Healthcare(under65, over65 int) (decimal.Decimal, error) {
	if under65 < 0 || over65 < 0 {
		return decimal.Zero, faults.Configf(component, "healthcare", "negative member count")
	}
	u := t.healthUnder65.Mul(decimal.NewFromInt(int64(under65)))
	o := t.healthOver65.Mul(decimal.NewFromInt(int64(over65)))
	return u.Add(o), nil
}

// States lists the states with housing standards.
func (t *Table) States() []string {
	out := make([]string, 0, len(t.housing))
	for s := range t.housing {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
