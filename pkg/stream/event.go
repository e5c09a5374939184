package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
)

var (
	ErrMalformedRecord = errors.New("malformed stream record")
)

const (
	FieldLat      = "lat"
	FieldLon      = "lon"
	FieldCity     = "city"
	FieldImages   = "images"
	FieldDistrict = "city_district"
	FieldShop     = "nearby_shop"

	nearbyPrefix = "nearby_"
	joinSep      = ", "
)

// nearbyFields are always written, empty when nothing matched.
var nearbyFields = []datastructure.Category{
	datastructure.Subway,
	datastructure.Pharmacy,
	datastructure.Kindergarten,
	datastructure.Bank,
	datastructure.School,
}

// Query is what the pipeline reads out of one inbound record.
type Query struct {
	Lat    float64
	Lon    float64
	City   string
	Images []json.RawMessage
}

// ParseEvent extracts the query fields. Missing or unparseable coordinates become 0, the
// upstream "no coordinate" sentinel. images must be a JSON array when present.
func ParseEvent(fields map[string]string) (Query, error) {
	q := Query{
		Lat:    parseCoordinate(fields[FieldLat]),
		Lon:    parseCoordinate(fields[FieldLon]),
		City:   fields[FieldCity],
		Images: []json.RawMessage{},
	}

	raw, ok := fields[FieldImages]
	if !ok {
		return q, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	var images []json.RawMessage
	if err := dec.Decode(&images); err != nil {
		return Query{}, fmt.Errorf("%w: images: %w", ErrMalformedRecord, err)
	}
	if dec.More() {
		return Query{}, fmt.Errorf("%w: images: trailing data after json array", ErrMalformedRecord)
	}
	if images != nil {
		q.Images = images
	}
	return q, nil
}

func parseCoordinate(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// MergeEvent returns a new field map: the inbound fields plus the derived geo fields and the
// re-serialized images. fields is not modified.
func MergeEvent(fields map[string]string, q Query, res datastructure.EnrichmentResult) (map[string]string, error) {
	out := make(map[string]string, len(fields)+len(nearbyFields)+3)
	for k, v := range fields {
		out[k] = v
	}

	images, err := encodeImages(q.Images)
	if err != nil {
		return nil, fmt.Errorf("%w: images: %w", ErrMalformedRecord, err)
	}
	out[FieldImages] = images
	out[FieldDistrict] = res.District

	for _, category := range nearbyFields {
		out[nearbyPrefix+string(category)] = strings.Join(res.Nearby[category], joinSep)
	}

	// categories added through the rules configuration
	for category, names := range res.Nearby {
		if isShop(category) || isFixedField(category) {
			continue
		}
		out[nearbyPrefix+string(category)] = strings.Join(names, joinSep)
	}

	out[FieldShop] = strings.Join(ShopNames(res.Nearby), joinSep)
	return out, nil
}

// ShopNames merges the shop-like categories into one list, deduplicated in first-seen order.
func ShopNames(nearby datastructure.NearbyResult) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, category := range datastructure.ShopCategories {
		for _, name := range nearby[category] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func isShop(category datastructure.Category) bool {
	return slices.Contains(datastructure.ShopCategories, category)
}

func isFixedField(category datastructure.Category) bool {
	return slices.Contains(nearbyFields, category)
}

// encodeImages writes the array back in compact form. Element bytes, key order and number
// literals are kept as received.
func encodeImages(images []json.RawMessage) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, img := range images {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := json.Compact(&buf, img); err != nil {
			return "", err
		}
	}
	buf.WriteByte(']')
	return buf.String(), nil
}
