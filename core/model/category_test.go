package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySatisfies(t *testing.T) {
	cases := []struct {
		driver    VehicleCategory
		requested VehicleCategory
		want      bool
	}{
		{CategoryMini, CategoryMini, true},
		{CategorySedan, CategoryMini, true},
		{CategorySUV, CategoryMini, true},
		{CategoryEV, CategorySedan, true},
		{CategoryMini, CategorySedan, false},
		{CategoryEV, CategorySUV, false},
		{CategoryAuto, CategoryAuto, true},
		{CategorySedan, CategoryAuto, false},
		{CategoryAuto, CategoryMini, false},
		{CategoryBike, CategoryAuto, false},
		{CategorySUV, CategoryBike, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.driver.Satisfies(c.requested), "%s serving %s", c.driver, c.requested)
	}
}

func TestCategoryNext(t *testing.T) {
	next, ok := CategoryMini.Next()
	assert.True(t, ok)
	assert.Equal(t, CategorySedan, next)

	next, ok = CategoryEV.Next()
	assert.True(t, ok)
	assert.Equal(t, CategorySUV, next)

	_, ok = CategorySUV.Next()
	assert.False(t, ok)
	_, ok = CategoryAuto.Next()
	assert.False(t, ok)
}

func TestCategoryExactMatchOnly(t *testing.T) {
	for _, c := range Categories() {
		want := c == CategoryAuto || c == CategoryBike
		assert.Equal(t, want, c.IsExactMatchOnly(), c.String())
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" SEDAN ")
	require.NoError(t, err)
	assert.Equal(t, CategorySedan, c)

	_, err = ParseCategory("truck")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryJSON(t *testing.T) {
	var v struct {
		Category VehicleCategory `json:"category"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"category":"ev"}`), &v))
	assert.Equal(t, CategoryEV, v.Category)
	assert.Error(t, json.Unmarshal([]byte(`{"category":"rickshaw"}`), &v))
}
