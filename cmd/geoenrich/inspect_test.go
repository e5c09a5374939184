package main

import (
	"bytes"
	"testing"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	"github.com/lintang-b-s/osm-geoenrich/pkg/di"
	"github.com/lintang-b-s/osm-geoenrich/pkg/osmload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintInspection(t *testing.T) {
	var out bytes.Buffer
	err := printInspection(&out, &di.Inspection{
		OSMFile: "minsk.osm.pbf",
		Rules: []osmload.CategoryRule{
			{Category: datastructure.Subway, Key: "railway", Value: "subway_entrance"},
			{Category: datastructure.Bank, Key: "amenity", Value: "bank"},
		},
		Counts: map[datastructure.Category]int{
			datastructure.Subway: 29,
			datastructure.Bank:   112,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "extract: minsk.osm.pbf\n\n"+
		"CATEGORY  TAG                      POIS\n"+
		"bank      amenity=bank             112\n"+
		"subway    railway=subway_entrance  29\n"+
		"total                              141\n", out.String())
}
