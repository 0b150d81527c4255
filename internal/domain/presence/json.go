package presence

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EncodeUUIDs packs a uuid slice into a JSONB column value.
func EncodeUUIDs(ids []uuid.UUID) (datatypes.JSON, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// DecodeUUIDs unpacks a JSONB column value written by EncodeUUIDs.
func DecodeUUIDs(raw datatypes.JSON) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
