// Package ingest turns uploaded spill documents into records for the store.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/huangsam/slick/schema"
)

// ErrNoEntries is returned when an upload carries no timestamp entries.
var ErrNoEntries = errors.New("upload has no spill entries")

// upload is the document produced by the field survey tooling.
type upload struct {
	ID          string        `json:"id"`
	Coordinates *[2]float64   `json:"coordinates"`
	Area        float64       `json:"area"`
	Spill       []uploadEntry `json:"spill"`
}

type uploadEntry struct {
	Timestamp string        `json:"timestamp"`
	Actor     []uploadActor `json:"actor"`
}

type uploadActor struct {
	Type    string          `json:"type"`
	Density float64         `json:"density"`
	Color   string          `json:"color"`
	Polygon json.RawMessage `json:"polygon"`
	Name    string          `json:"name"`
	URL     string          `json:"url"`
	Scale   *float64        `json:"scale"`
}

// ParseUpload reads one upload document. The id argument wins over the id in
// the document; a fresh UUID is used when neither is set.
func ParseUpload(r io.Reader, id string) (schema.RawSpillRecord, error) {
	var doc upload
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return schema.RawSpillRecord{}, fmt.Errorf("failed to decode upload: %w", err)
	}
	if len(doc.Spill) == 0 {
		return schema.RawSpillRecord{}, ErrNoEntries
	}

	rec := schema.RawSpillRecord{
		ID:          strings.TrimSpace(id),
		Coordinates: doc.Coordinates,
		Area:        doc.Area,
		Data:        make([]schema.TimestampEntry, 0, len(doc.Spill)),
	}
	if rec.ID == "" {
		rec.ID = strings.TrimSpace(doc.ID)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	for _, e := range doc.Spill {
		entry := schema.TimestampEntry{Timestamp: e.Timestamp, Actors: []schema.RawActor{}}
		for _, a := range e.Actor {
			geom, ok := Polygon(a.Polygon)
			if !ok {
				continue
			}
			entry.Actors = append(entry.Actors, schema.RawActor{
				Type:     actorType(a.Type),
				Density:  a.Density,
				Color:    a.Color,
				Geometry: geom,
				Name:     a.Name,
				URL:      a.URL,
				Scale:    a.Scale,
			})
		}
		rec.Data = append(rec.Data, entry)
	}
	return rec, nil
}

// actorType maps the free-form upload type onto the two known actor kinds.
func actorType(s string) schema.ActorType {
	if strings.EqualFold(strings.TrimSpace(s), string(schema.ActorObject)) {
		return schema.ActorObject
	}
	return schema.ActorOil
}

// Polygon classifies an upload polygon field by its nesting depth: a single
// pair is a Point, a list of pairs is a one-ring Polygon and a list of rings
// is a Polygon.
func Polygon(raw json.RawMessage) (*schema.Geometry, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}

	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil {
		if len(pair) < 2 {
			return nil, false
		}
		return encode(schema.PointGeometry, pair[:2])
	}

	var ring [][]float64
	if err := json.Unmarshal(raw, &ring); err == nil {
		if !validRing(ring) {
			return nil, false
		}
		return encode(schema.PolygonGeometry, [][][]float64{ring})
	}

	var rings [][][]float64
	if err := json.Unmarshal(raw, &rings); err == nil {
		if len(rings) == 0 {
			return nil, false
		}
		for _, r := range rings {
			if !validRing(r) {
				return nil, false
			}
		}
		return encode(schema.PolygonGeometry, rings)
	}
	return nil, false
}

func validRing(ring [][]float64) bool {
	if len(ring) == 0 {
		return false
	}
	for _, p := range ring {
		if len(p) < 2 {
			return false
		}
	}
	return true
}

func encode(kind schema.GeometryType, coords any) (*schema.Geometry, bool) {
	data, err := json.Marshal(coords)
	if err != nil {
		return nil, false
	}
	return &schema.Geometry{Type: kind, Coordinates: data}, true
}

// ParseRecords reads records in the store's own JSON form, either a single
// object or an array of them.
func ParseRecords(r io.Reader) ([]schema.RawSpillRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	dec := json.NewDecoder(br)
	var records []schema.RawSpillRecord
	switch first {
	case '[':
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
	case '{':
		var rec schema.RawSpillRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	default:
		return nil, fmt.Errorf("unexpected %q at start of records document", first)
	}

	for i, rec := range records {
		if strings.TrimSpace(rec.ID) == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
	}
	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, br.UnreadByte()
	}
}
