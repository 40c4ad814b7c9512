package yelp

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const milesPerMeter = 0.000621371

// ExtractBusinesses walks a raw chat payload and normalizes every business
// record it finds. The entities container has shipped in two shapes: a list of
// entity objects (current) and a map keyed by entity id (legacy). Anything
// else is logged and yields an empty slice; this function never fails the
// whole response.
func ExtractBusinesses(payload map[string]any) []Business {
	businesses := []Business{}

	switch entities := payload["entities"].(type) {
	case []any:
		for _, item := range entities {
			entity, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if nestedRaw, present := entity["businesses"]; present {
				nested, _ := nestedRaw.([]any)
				for _, rec := range nested {
					if m, ok := rec.(map[string]any); ok {
						if b, ok := normalizeBusiness(m); ok {
							businesses = append(businesses, b)
						}
					}
				}
			} else if _, hasName := entity["name"]; hasName {
				if b, ok := normalizeBusiness(entity); ok {
					businesses = append(businesses, b)
				}
			}
		}
	case map[string]any:
		// Decoded JSON maps do not preserve provider key order, so the
		// legacy shape iterates entity ids in sorted order to keep output
		// deterministic.
		ids := make([]string, 0, len(entities))
		for id := range entities {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			entity, ok := entities[id].(map[string]any)
			if !ok {
				continue
			}
			if _, hasName := entity["name"]; hasName {
				if b, ok := normalizeBusiness(entity); ok {
					businesses = append(businesses, b)
				}
			}
		}
	default:
		log.Printf("[WARN] unexpected entities shape: %T", payload["entities"])
	}

	return businesses
}

// normalizeBusiness reduces one raw provider record to the canonical Business
// shape. A record without a name is not a business and is dropped; any other
// malformed field rejects just that record, never the batch.
func normalizeBusiness(raw map[string]any) (b Business, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] failed to parse business entity: %v", r)
			b, ok = Business{}, false
		}
	}()

	name, hasName := raw["name"].(string)
	if !hasName {
		log.Printf("[WARN] dropping entity without name")
		return Business{}, false
	}
	b.Name = name

	b.ID = firstNonEmpty(stringValue(raw["id"]), stringValue(raw["alias"]), hashID(name))

	b.Tags = []string{}
	if cats, ok := raw["categories"].([]any); ok {
		for _, c := range cats {
			if m, ok := c.(map[string]any); ok {
				if title, ok := m["title"].(string); ok && title != "" {
					b.Tags = append(b.Tags, title)
				}
			}
		}
	}

	b.Image = resolveImage(raw)

	if coords, ok := raw["coordinates"].(map[string]any); ok {
		latRaw, hasLat := coords["latitude"]
		lonRaw, hasLon := coords["longitude"]
		if hasLat && hasLon {
			lat, okLat := asFloat(latRaw)
			lon, okLon := asFloat(lonRaw)
			if !okLat || !okLon {
				log.Printf("[WARN] dropping %q: non-numeric coordinates", name)
				return Business{}, false
			}
			b.Coordinates = &Coordinates{Latitude: lat, Longitude: lon}
		}
	}

	if distRaw, present := raw["distance"]; present && !isFalsy(distRaw) {
		meters, okDist := asFloat(distRaw)
		if !okDist {
			log.Printf("[WARN] dropping %q: malformed distance %v", name, distRaw)
			return Business{}, false
		}
		s := fmt.Sprintf("%.1f mi", meters*milesPerMeter)
		b.Distance = &s
	}

	if f, ok := asFloat(raw["rating"]); ok {
		b.Rating = &f
	}
	if f, ok := asFloat(raw["review_count"]); ok {
		b.Reviews = int(f)
	}
	if s, ok := raw["price"].(string); ok {
		b.Price = &s
	}
	if m, ok := raw["location"].(map[string]any); ok {
		b.Location = m
	}
	if s, ok := raw["phone"].(string); ok {
		b.Phone = &s
	}
	if s, ok := raw["url"].(string); ok {
		b.URL = &s
	}
	if cats, ok := raw["categories"].([]any); ok {
		b.Categories = cats
	}

	// Votes belong to the downstream poll; a votes-like field in the raw
	// record is ignored.
	b.Votes = 0

	return b, true
}

// hashID derives a stable id from the business name. xxhash of the UTF-8 name
// keeps ids reproducible across processes, unlike the per-process hashes some
// providers lean on.
func hashID(name string) string {
	return strconv.FormatUint(xxhash.Sum64String(name), 10)
}

// Image resolution is an ordered chain of independent extractors; the first
// one that claims the record wins.
var imageExtractors = []func(map[string]any) (*string, bool){
	imageFromField,
	imageFromContextualPhotos,
	imageFromPhotos,
}

func resolveImage(raw map[string]any) *string {
	for _, extract := range imageExtractors {
		if url, found := extract(raw); found {
			return url
		}
	}
	return nil
}

// imageFromField claims the record whenever the image_url key exists, even
// with a null value. Presence of the key ends the search; a null stays null
// rather than falling through to the photo fields.
func imageFromField(raw map[string]any) (*string, bool) {
	v, present := raw["image_url"]
	if !present {
		return nil, false
	}
	if s, ok := v.(string); ok {
		return &s, true
	}
	return nil, true
}

func imageFromContextualPhotos(raw map[string]any) (*string, bool) {
	info, ok := raw["contextual_info"].(map[string]any)
	if !ok {
		return nil, false
	}
	photos, ok := info["photos"].([]any)
	if !ok || len(photos) == 0 {
		return nil, false
	}
	return firstPhotoURL(photos[0])
}

func imageFromPhotos(raw map[string]any) (*string, bool) {
	photos, ok := raw["photos"].([]any)
	if !ok || len(photos) == 0 {
		return nil, false
	}
	return firstPhotoURL(photos[0])
}

// firstPhotoURL handles both photo entry shapes: an object carrying
// original_url, or a bare URL string.
func firstPhotoURL(entry any) (*string, bool) {
	switch p := entry.(type) {
	case map[string]any:
		if s, ok := p["original_url"].(string); ok && s != "" {
			return &s, true
		}
	case string:
		if p != "" {
			return &p, true
		}
	}
	return nil, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		f, ok := asFloat(v)
		return ok && f == 0
	}
}
