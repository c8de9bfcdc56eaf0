package mutationq

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/laminadb/lamina/internal/domain/mutation"
)

// Hash field names shared by the redis layout and the sqlite column set.
const (
	fieldWriteTime = "local_write_time_us"
	fieldBase      = "base_mutations"
	fieldMutations = "mutations"
)

// encodeBatchFields flattens a batch into the stored string fields. The
// batch id is carried by the storage key, not the fields.
func encodeBatchFields(b mutation.Batch) (map[string]string, error) {
	base, err := json.Marshal(b.BaseMutations())
	if err != nil {
		return nil, fmt.Errorf("marshal batch %d base mutations: %w", b.ID(), err)
	}
	muts, err := json.Marshal(b.Mutations())
	if err != nil {
		return nil, fmt.Errorf("marshal batch %d mutations: %w", b.ID(), err)
	}
	return map[string]string{
		fieldWriteTime: strconv.FormatInt(b.LocalWriteTime().UnixMicro(), 10),
		fieldBase:      string(base),
		fieldMutations: string(muts),
	}, nil
}

// decodeBatchFields rebuilds a batch from stored fields.
func decodeBatchFields(id int64, m map[string]string) (mutation.Batch, error) {
	writeUS, err := strconv.ParseInt(m[fieldWriteTime], 10, 64)
	if err != nil {
		return mutation.Batch{}, fmt.Errorf("decode batch %d: bad write time %q", id, m[fieldWriteTime])
	}

	var base []mutation.Mutation
	if raw := m[fieldBase]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &base); err != nil {
			return mutation.Batch{}, fmt.Errorf("decode batch %d base mutations: %w", id, err)
		}
	}
	var muts []mutation.Mutation
	if err := json.Unmarshal([]byte(m[fieldMutations]), &muts); err != nil {
		return mutation.Batch{}, fmt.Errorf("decode batch %d mutations: %w", id, err)
	}

	return mutation.ReconstructBatch(id, time.UnixMicro(writeUS).UTC(), base, muts), nil
}
