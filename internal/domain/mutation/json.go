package mutation

import (
	"encoding/json"
	"fmt"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// The JSON form is the storage encoding shared by the redis and sqlite
// mutation queues. Kinds and transform ops are encoded by name, update
// times as UTC microseconds and field paths in canonical string form.

type mutationJSON struct {
	Kind       string               `json:"kind"`
	Key        string               `json:"key"`
	Pre        *preconditionJSON    `json:"pre,omitempty"`
	Data       *value.Value         `json:"data,omitempty"`
	Mask       []string             `json:"mask,omitempty"`
	Transforms []fieldTransformJSON `json:"transforms,omitempty"`
}

type preconditionJSON struct {
	Exists       *bool  `json:"exists,omitempty"`
	UpdateTimeUS *int64 `json:"update_time_us,omitempty"`
}

type fieldTransformJSON struct {
	Field    string        `json:"field"`
	Op       string        `json:"op"`
	Operand  *value.Value  `json:"operand,omitempty"`
	Elements []value.Value `json:"elements,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Mutation) MarshalJSON() ([]byte, error) {
	dto := mutationJSON{
		Kind: m.kind.String(),
		Key:  m.key.String(),
		Pre:  encodePrecondition(m.precondition),
	}

	if m.data != nil {
		data := m.data.Value()
		dto.Data = &data
	}
	for _, fp := range m.mask.Paths() {
		dto.Mask = append(dto.Mask, fp.String())
	}
	for _, ft := range m.transforms {
		enc := fieldTransformJSON{
			Field: ft.path.String(),
			Op:    ft.transform.kind.String(),
		}
		switch ft.transform.kind {
		case TransformKindIncrement:
			op := ft.transform.operand
			enc.Operand = &op
		case TransformKindArrayUnion, TransformKindArrayRemove:
			enc.Elements = ft.transform.elements
		}
		dto.Transforms = append(dto.Transforms, enc)
	}

	return json.Marshal(dto)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mutation) UnmarshalJSON(data []byte) error {
	var dto mutationJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return fmt.Errorf("decode mutation: %w", err)
	}

	key, err := path.ParseDocumentKey(dto.Key)
	if err != nil {
		return fmt.Errorf("decode mutation key: %w", err)
	}
	pre := decodePrecondition(dto.Pre)

	transforms := make([]FieldTransform, 0, len(dto.Transforms))
	for _, enc := range dto.Transforms {
		ft, err := decodeFieldTransform(enc)
		if err != nil {
			return err
		}
		transforms = append(transforms, ft)
	}

	switch dto.Kind {
	case "set":
		if dto.Data == nil {
			return fmt.Errorf("decode mutation: set without data")
		}
		*m = NewSet(key, *dto.Data, pre, transforms...)
	case "patch":
		if dto.Data == nil {
			return fmt.Errorf("decode mutation: patch without data")
		}
		maskPaths := make([]path.FieldPath, 0, len(dto.Mask))
		for _, s := range dto.Mask {
			fp, err := path.ParseFieldPath(s)
			if err != nil {
				return fmt.Errorf("decode mutation mask: %w", err)
			}
			maskPaths = append(maskPaths, fp)
		}
		*m = NewPatch(key, *dto.Data, NewFieldMask(maskPaths...), pre, transforms...)
	case "delete":
		*m = NewDelete(key, pre)
	case "verify":
		*m = NewVerify(key, pre)
	default:
		return fmt.Errorf("decode mutation: unknown kind %q", dto.Kind)
	}
	return nil
}

func encodePrecondition(p Precondition) *preconditionJSON {
	switch p.kind {
	case preconditionExists:
		e := p.exists
		return &preconditionJSON{Exists: &e}
	case preconditionUpdateTime:
		us := p.updateTime.Micros()
		return &preconditionJSON{UpdateTimeUS: &us}
	default:
		return nil
	}
}

func decodePrecondition(dto *preconditionJSON) Precondition {
	switch {
	case dto == nil:
		return PreconditionNone()
	case dto.Exists != nil:
		return PreconditionExists(*dto.Exists)
	case dto.UpdateTimeUS != nil:
		return PreconditionUpdateTime(domain.VersionFromMicros(*dto.UpdateTimeUS))
	default:
		return PreconditionNone()
	}
}

func decodeFieldTransform(enc fieldTransformJSON) (FieldTransform, error) {
	fp, err := path.ParseFieldPath(enc.Field)
	if err != nil {
		return FieldTransform{}, fmt.Errorf("decode transform field: %w", err)
	}
	switch enc.Op {
	case "server_timestamp":
		return NewFieldTransform(fp, ServerTimestamp()), nil
	case "increment":
		if enc.Operand == nil || !enc.Operand.IsNumber() {
			return FieldTransform{}, fmt.Errorf("decode transform: increment needs a numeric operand")
		}
		return NewFieldTransform(fp, Increment(*enc.Operand)), nil
	case "array_union":
		return NewFieldTransform(fp, ArrayUnion(enc.Elements...)), nil
	case "array_remove":
		return NewFieldTransform(fp, ArrayRemove(enc.Elements...)), nil
	default:
		return FieldTransform{}, fmt.Errorf("decode transform: unknown op %q", enc.Op)
	}
}
