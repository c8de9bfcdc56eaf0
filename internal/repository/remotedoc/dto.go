package remotedoc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// Hash field names shared by the redis layout and the sqlite column set.
const (
	fieldType      = "doc_type"
	fieldVersion   = "version_us"
	fieldReadTime  = "read_time_us"
	fieldCommitted = "has_committed"
	fieldData      = "data"
)

// encodeDocFields flattens a document into the stored string fields.
func encodeDocFields(doc *document.Document, readTime domain.SnapshotVersion) (map[string]string, error) {
	m := map[string]string{
		fieldType:      strconv.Itoa(int(doc.Type())),
		fieldVersion:   strconv.FormatInt(doc.Version().Micros(), 10),
		fieldReadTime:  strconv.FormatInt(readTime.Micros(), 10),
		fieldCommitted: "0",
		fieldData:      "",
	}
	if doc.HasCommittedMutations() {
		m[fieldCommitted] = "1"
	}
	if doc.IsFound() {
		data, err := json.Marshal(doc.Data().Value())
		if err != nil {
			return nil, fmt.Errorf("marshal document %s: %w", doc.Key(), err)
		}
		m[fieldData] = string(data)
	}
	return m, nil
}

// decodeDocFields rebuilds a document from stored fields. An empty field
// map decodes to an invalid document.
func decodeDocFields(key path.DocumentKey, m map[string]string) (*document.Document, error) {
	if len(m) == 0 {
		return document.NewInvalid(key), nil
	}

	docType, err := strconv.Atoi(m[fieldType])
	if err != nil {
		return nil, fmt.Errorf("decode document %s: bad type %q", key, m[fieldType])
	}
	versionUS, err := strconv.ParseInt(m[fieldVersion], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: bad version %q", key, m[fieldVersion])
	}
	readTimeUS, err := strconv.ParseInt(m[fieldReadTime], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: bad read time %q", key, m[fieldReadTime])
	}
	version := domain.VersionFromMicros(versionUS)

	doc := document.NewInvalid(key)
	switch document.Type(docType) {
	case document.TypeFound:
		var data value.Value
		if err := json.Unmarshal([]byte(m[fieldData]), &data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", key, err)
		}
		doc.ConvertToFound(version, data)
	case document.TypeDeleted:
		doc.ConvertToDeleted(version)
	case document.TypeUnknown:
		doc.ConvertToUnknown(version)
	default:
		return nil, fmt.Errorf("decode document %s: unknown type %d", key, docType)
	}

	if m[fieldCommitted] == "1" {
		doc.SetHasCommittedMutations()
	}
	doc.SetReadTime(domain.VersionFromMicros(readTimeUS))
	return doc, nil
}
