package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyothesheep/MySoilMate/internal/data"
	"github.com/yoyothesheep/MySoilMate/internal/validator"
)

func plant(id int64, name string, zones ...string) *data.Plant {
	p := &data.Plant{ID: id, Name: name, ScientificName: name + " sp."}
	for i, z := range zones {
		p.Zones = append(p.Zones, data.Zone{ID: int64(i + 1), Zone: z})
	}
	return p
}

func names(plants []*data.Plant) []string {
	out := make([]string, 0, len(plants))
	for _, p := range plants {
		out = append(out, p.Name)
	}
	return out
}

func defaultSpec() FilterSpec {
	return FilterSpec{Page: DefaultPage, PageSize: DefaultPageSize}
}

func alphabet(n int) []*data.Plant {
	plants := make([]*data.Plant, 0, n)
	// Insert in reverse so sorting by name has work to do.
	for i := n - 1; i >= 0; i-- {
		plants = append(plants, plant(int64(n-i), string(rune('A'+i))))
	}
	return plants
}

func newTestService(t *testing.T, plants ...*data.Plant) (*Service, *data.MemoryStore) {
	t.Helper()
	store := data.NewMemoryStore()
	for _, p := range plants {
		require.NoError(t, store.InsertPlant(context.Background(), p))
	}
	svc, err := NewService(store, Options{})
	require.NoError(t, err)
	return svc, store
}

func TestListPlants_FirstPageOfSixteen(t *testing.T) {
	svc, _ := newTestService(t, alphabet(16)...)

	spec := defaultSpec()
	spec.Sort = SortName
	page, err := svc.ListPlants(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O"}, names(page.Plants))
	assert.Equal(t, Metadata{TotalCount: 16, CurrentPage: 1, TotalPages: 2, HasNextPage: true, HasPreviousPage: false}, page.Metadata)
}

func TestListPlants_SecondPageOfSixteen(t *testing.T) {
	svc, _ := newTestService(t, alphabet(16)...)

	spec := defaultSpec()
	spec.Sort = SortName
	spec.Page = 2
	page, err := svc.ListPlants(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"P"}, names(page.Plants))
	assert.Equal(t, Metadata{TotalCount: 16, CurrentPage: 2, TotalPages: 2, HasNextPage: false, HasPreviousPage: true}, page.Metadata)
}

func TestListPlants_EmptyCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	page, err := svc.ListPlants(context.Background(), defaultSpec())
	require.NoError(t, err)

	assert.NotNil(t, page.Plants)
	assert.Empty(t, page.Plants)
	assert.Equal(t, Metadata{TotalCount: 0, CurrentPage: 1, TotalPages: 0}, page.Metadata)
}

func TestFilter_LightLevels(t *testing.T) {
	var plants []*data.Plant
	levels := []data.LightLevel{data.LightLow, data.LightMedium, data.LightBright, data.LightLow, data.LightBright,
		data.LightMedium, data.LightLow, data.LightBright, data.LightMedium, data.LightBright}
	for i, l := range levels {
		p := plant(int64(i+1), fmt.Sprintf("plant-%d", i))
		p.LightLevel = l
		plants = append(plants, p)
	}

	spec := defaultSpec()
	spec.LightLevels = []data.LightLevel{data.LightLow}
	got := Filter(plants, spec)

	require.Len(t, got, 3)
	for _, p := range got {
		assert.Equal(t, data.LightLow, p.LightLevel)
	}
}

func TestFilter_GrowZoneNumberMatchesSubZones(t *testing.T) {
	x := plant(1, "X", "6a", "6b")
	y := plant(2, "Y", "5a")
	none := plant(3, "Bare")

	spec := defaultSpec()
	spec.GrowZones = []string{"6"}
	assert.Equal(t, []string{"X"}, names(Filter([]*data.Plant{x, y, none}, spec)))

	spec.GrowZones = []string{"5a"}
	assert.Equal(t, []string{"Y"}, names(Filter([]*data.Plant{x, y, none}, spec)))

	spec.GrowZones = []string{"5b", "6b"}
	assert.Equal(t, []string{"X"}, names(Filter([]*data.Plant{x, y, none}, spec)))
}

func TestFilter_SearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	campion := plant(1, "Rose Campion")
	border := plant(2, "Border Mix")
	border.Description = "Pairs well with old garden roses."
	latin := plant(3, "Dog Briar")
	latin.ScientificName = "ROSA canina"
	tulip := plant(4, "Tulip")
	tulip.Description = "Spring bulb."

	spec := defaultSpec()
	spec.Search = "rose"
	assert.Equal(t, []string{"Rose Campion", "Border Mix"}, names(Filter([]*data.Plant{campion, border, latin, tulip}, spec)))

	spec.Search = "rosa"
	assert.Equal(t, []string{"Dog Briar"}, names(Filter([]*data.Plant{campion, border, latin, tulip}, spec)))
}

func TestFilter_BloomSeasonsAndHeight(t *testing.T) {
	a := plant(1, "A")
	a.BloomSeasons = []data.BloomSeason{{ID: 1, Season: "Spring"}, {ID: 2, Season: "Summer"}}
	a.HeightCategory = data.HeightTall
	b := plant(2, "B")
	b.BloomSeasons = []data.BloomSeason{{ID: 3, Season: "Fall"}}
	b.HeightCategory = data.HeightShort
	c := plant(3, "C")
	c.HeightCategory = data.HeightTall

	all := []*data.Plant{a, b, c}

	spec := defaultSpec()
	spec.BloomSeasons = []string{"Summer", "Fall"}
	assert.Equal(t, []string{"A", "B"}, names(Filter(all, spec)))

	spec.HeightCategories = []data.HeightCategory{data.HeightTall}
	assert.Equal(t, []string{"A"}, names(Filter(all, spec)))
}

func TestFilter_Monotonic(t *testing.T) {
	var plants []*data.Plant
	lights := data.LightLevels
	waters := data.WaterNeeds
	for i := 0; i < 30; i++ {
		p := plant(int64(i+1), fmt.Sprintf("p%02d", i), fmt.Sprintf("%d%c", 3+i%8, 'a'+rune(i%2)))
		p.LightLevel = lights[i%len(lights)]
		p.WaterNeeds = waters[(i/3)%len(waters)]
		plants = append(plants, p)
	}

	count := func(spec FilterSpec) int { return len(Filter(plants, spec)) }

	one := defaultSpec()
	one.LightLevels = []data.LightLevel{data.LightLow}
	two := defaultSpec()
	two.LightLevels = []data.LightLevel{data.LightLow, data.LightBright}
	assert.GreaterOrEqual(t, count(two), count(one))

	water := defaultSpec()
	water.WaterNeeds = []data.WaterNeed{data.WaterHigh}
	both := one
	both.WaterNeeds = water.WaterNeeds
	assert.LessOrEqual(t, count(both), count(one))
	assert.LessOrEqual(t, count(both), count(water))

	assert.Equal(t, len(plants), count(defaultSpec()))
}

func TestSort_ByZoneUsesMinimumAndPutsBareLast(t *testing.T) {
	plants := []*data.Plant{
		plant(1, "bare"),
		plant(2, "wide", "9a", "4b"),
		plant(3, "warm", "7a", "8b"),
		plant(4, "cold", "4a"),
		plant(5, "tropic", "10b"),
	}

	Sort(plants, SortZone)
	assert.Equal(t, []string{"wide", "cold", "warm", "tropic", "bare"}, names(plants))

	prev := -1
	for _, p := range plants[:4] {
		z, ok := minZone(p)
		require.True(t, ok)
		assert.GreaterOrEqual(t, z, prev)
		prev = z
	}
}

func TestSort_ByLight(t *testing.T) {
	bright := plant(1, "bright")
	bright.LightLevel = data.LightBright
	unknown := plant(2, "unknown")
	low := plant(3, "low")
	low.LightLevel = data.LightLow
	medium := plant(4, "medium")
	medium.LightLevel = data.LightMedium

	plants := []*data.Plant{bright, unknown, low, medium}
	Sort(plants, SortLight)
	assert.Equal(t, []string{"low", "medium", "bright", "unknown"}, names(plants))
}

func TestSort_TiesBreakByID(t *testing.T) {
	plants := []*data.Plant{plant(3, "same"), plant(1, "same"), plant(2, "same")}
	Sort(plants, SortName)
	assert.Equal(t, []int64{1, 2, 3}, []int64{plants[0].ID, plants[1].ID, plants[2].ID})
}

func TestSort_NoneKeepsOrder(t *testing.T) {
	plants := []*data.Plant{plant(3, "c"), plant(1, "a"), plant(2, "b")}
	Sort(plants, SortNone)
	assert.Equal(t, []string{"c", "a", "b"}, names(plants))
}

func TestPaginate_LengthAndStability(t *testing.T) {
	plants := alphabet(26)
	Sort(plants, SortName)

	for _, size := range []int{1, 7, 15, 26, 100} {
		for page := 1; page <= 5; page++ {
			got := Paginate(plants, page, size)
			want := min(size, max(0, len(plants)-(page-1)*size))
			assert.Len(t, got.Plants, want, "page=%d size=%d", page, size)
			assert.Equal(t, len(plants), got.TotalCount)
			assert.Equal(t, page < got.TotalPages, got.HasNextPage)
			assert.Equal(t, page > 1, got.HasPreviousPage)
		}
	}

	second := Paginate(plants, 2, 15)
	assert.Equal(t, names(plants[15:26]), names(second.Plants))
}

func TestPaginate_BeyondLastPage(t *testing.T) {
	got := Paginate(alphabet(3), 9, 15)
	assert.Empty(t, got.Plants)
	assert.Equal(t, Metadata{TotalCount: 3, CurrentPage: 9, TotalPages: 1, HasNextPage: false, HasPreviousPage: true}, got.Metadata)
}

func TestListPlants_TotalIndependentOfPage(t *testing.T) {
	svc, _ := newTestService(t, alphabet(20)...)

	spec := defaultSpec()
	spec.PageSize = 4
	var totals []int
	for page := 1; page <= 6; page++ {
		spec.Page = page
		got, err := svc.ListPlants(context.Background(), spec)
		require.NoError(t, err)
		totals = append(totals, got.TotalCount)
	}
	assert.Equal(t, []int{20, 20, 20, 20, 20, 20}, totals)
}

func TestParseFilters(t *testing.T) {
	v := validator.New()
	spec := ParseFilters(v, FilterInput{
		Search:           "  rose ",
		LightLevels:      []string{"LOW", "low", "bright"},
		WaterNeeds:       []string{"medium"},
		GrowZones:        []string{"6", "5A"},
		BloomSeasons:     []string{"summer"},
		HeightCategories: []string{"tall"},
		Sort:             "Zone",
		Page:             2,
		PageSize:         30,
	})
	require.True(t, v.Valid(), v.Errors)

	assert.Equal(t, "rose", spec.Search)
	assert.Equal(t, []data.LightLevel{data.LightLow, data.LightBright}, spec.LightLevels)
	assert.Equal(t, []data.WaterNeed{data.WaterMedium}, spec.WaterNeeds)
	assert.Equal(t, []string{"6", "5a"}, spec.GrowZones)
	assert.Equal(t, []string{"Summer"}, spec.BloomSeasons)
	assert.Equal(t, []data.HeightCategory{data.HeightTall}, spec.HeightCategories)
	assert.Equal(t, SortZone, spec.Sort)
}

func TestParseFilters_Rejects(t *testing.T) {
	v := validator.New()
	ParseFilters(v, FilterInput{
		LightLevels:      []string{"dim"},
		GrowZones:        []string{"zone6"},
		BloomSeasons:     []string{"monsoon"},
		HeightCategories: []string{"huge"},
		Sort:             "popularity",
		Page:             0,
		PageSize:         101,
	})

	assert.False(t, v.Valid())
	for _, key := range []string{"lightLevels", "growZones", "bloomSeasons", "heightTexts", "sort", "page", "limit"} {
		assert.Contains(t, v.Errors, key)
	}
}
