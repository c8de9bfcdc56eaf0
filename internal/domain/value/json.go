package value

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/laminadb/lamina/internal/domain"
)

// The JSON form is the storage encoding shared by every driver: a one-field
// object tagging the variant. Integers and doubles are encoded as strings
// to survive the float64 round trip of encoding/json, and map fields are an
// ordered array of {k, v} pairs so iteration order survives reloads.

type valueJSON struct {
	Null   *bool              `json:"null,omitempty"`
	Bool   *bool              `json:"bool,omitempty"`
	Int    *string            `json:"int,omitempty"`
	Double *string            `json:"double,omitempty"`
	Time   *string            `json:"time,omitempty"`
	Str    *string            `json:"string,omitempty"`
	Bytes  *string            `json:"bytes,omitempty"`
	Ref    *string            `json:"ref,omitempty"`
	Geo    *geoJSON           `json:"geo,omitempty"`
	Array  *[]json.RawMessage `json:"array,omitempty"`
	Map    *[]mapEntryJSON    `json:"map,omitempty"`
}

type geoJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type mapEntryJSON struct {
	K string          `json:"k"`
	V json.RawMessage `json:"v"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var dto valueJSON
	switch v.kind {
	case KindNull:
		t := true
		dto.Null = &t
	case KindBoolean:
		dto.Bool = &v.b
	case KindInteger:
		s := strconv.FormatInt(v.i, 10)
		dto.Int = &s
	case KindDouble:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		dto.Double = &s
	case KindTimestamp:
		s := v.t.Format(time.RFC3339Nano)
		dto.Time = &s
	case KindString:
		dto.Str = &v.s
	case KindBytes:
		s := base64.StdEncoding.EncodeToString(v.blob)
		dto.Bytes = &s
	case KindReference:
		dto.Ref = &v.s
	case KindGeoPoint:
		dto.Geo = &geoJSON{Lat: v.geo.Latitude, Lng: v.geo.Longitude}
	case KindArray:
		raws := make([]json.RawMessage, len(v.arr))
		for i, e := range v.arr {
			raw, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			raws[i] = raw
		}
		dto.Array = &raws
	case KindMap:
		entries := make([]mapEntryJSON, len(v.entries))
		for i, e := range v.entries {
			raw, err := json.Marshal(e.Value)
			if err != nil {
				return nil, err
			}
			entries[i] = mapEntryJSON{K: e.Key, V: raw}
		}
		dto.Map = &entries
	default:
		return nil, fmt.Errorf("%w: cannot encode zero value", domain.ErrInvalidValue)
	}
	return json.Marshal(dto)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var dto valueJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}

	switch {
	case dto.Null != nil:
		*v = Null()
	case dto.Bool != nil:
		*v = Boolean(*dto.Bool)
	case dto.Int != nil:
		i, err := strconv.ParseInt(*dto.Int, 10, 64)
		if err != nil {
			return fmt.Errorf("decode integer value: %w", err)
		}
		*v = Integer(i)
	case dto.Double != nil:
		f, err := strconv.ParseFloat(*dto.Double, 64)
		if err != nil {
			return fmt.Errorf("decode double value: %w", err)
		}
		*v = Double(f)
	case dto.Time != nil:
		t, err := time.Parse(time.RFC3339Nano, *dto.Time)
		if err != nil {
			return fmt.Errorf("decode timestamp value: %w", err)
		}
		*v = Timestamp(t)
	case dto.Str != nil:
		*v = String(*dto.Str)
	case dto.Bytes != nil:
		b, err := base64.StdEncoding.DecodeString(*dto.Bytes)
		if err != nil {
			return fmt.Errorf("decode bytes value: %w", err)
		}
		*v = Value{kind: KindBytes, blob: b}
	case dto.Ref != nil:
		*v = Reference(*dto.Ref)
	case dto.Geo != nil:
		*v = Geo(dto.Geo.Lat, dto.Geo.Lng)
	case dto.Array != nil:
		elements := make([]Value, len(*dto.Array))
		for i, raw := range *dto.Array {
			if err := json.Unmarshal(raw, &elements[i]); err != nil {
				return err
			}
		}
		*v = Value{kind: KindArray, arr: elements}
	case dto.Map != nil:
		entries := make([]MapEntry, len(*dto.Map))
		for i, raw := range *dto.Map {
			var ev Value
			if err := json.Unmarshal(raw.V, &ev); err != nil {
				return err
			}
			entries[i] = MapEntry{Key: raw.K, Value: ev}
		}
		*v = Value{kind: KindMap, entries: entries}
	default:
		return fmt.Errorf("%w: no variant tag in %q", domain.ErrInvalidValue, data)
	}
	return nil
}
