package pipeline

import (
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tabular"
)

// PrepareUpload detects the name column of table and builds one UploadedRecord per row.
// The name column's value is replaced by its normalized form, so the output carries the
// cleaned name.
func PrepareUpload(table *tabular.Table, detector *matching.FieldDetector) (*models.Upload, matching.Detection, error) {
	detection, err := detector.Detect(table.Columns)
	if err != nil {
		return nil, detection, err
	}

	upload := &models.Upload{
		Columns:   append([]string(nil), table.Columns...),
		NameField: detection.Column,
		Records:   make([]models.UploadedRecord, table.Len()),
	}
	for i := range table.Rows {
		fields := table.Record(i)
		name := fields[detection.Column]
		normalized := normalizers.Apply(name, normalizers.OrgName)
		fields[detection.Column] = normalized
		upload.Records[i] = models.UploadedRecord{
			Position:       i,
			Fields:         fields,
			Name:           name,
			NormalizedName: normalized,
		}
	}
	return upload, detection, nil
}
