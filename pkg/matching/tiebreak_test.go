package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestSelectReference(t *testing.T) {
	small := &models.ReferenceRecord{Identifier: "1", Revenue: ptr(10.0), Ordinal: 0}
	large := &models.ReferenceRecord{Identifier: "2", Revenue: ptr(500.0), Ordinal: 1}
	unknown := &models.ReferenceRecord{Identifier: "3", Ordinal: 2}
	largeLater := &models.ReferenceRecord{Identifier: "4", Revenue: ptr(500.0), Ordinal: 3}
	unknownEarly := &models.ReferenceRecord{Identifier: "5", Ordinal: -1}

	t.Run("highest revenue wins", func(t *testing.T) {
		assert.Equal(t, "2", SelectReference([]*models.ReferenceRecord{small, large, unknown}).Identifier)
	})

	t.Run("revenue tie falls back to ingestion order", func(t *testing.T) {
		assert.Equal(t, "2", SelectReference([]*models.ReferenceRecord{largeLater, large}).Identifier)
	})

	t.Run("unknown revenue sorts last", func(t *testing.T) {
		assert.Equal(t, "1", SelectReference([]*models.ReferenceRecord{unknownEarly, small}).Identifier)
	})

	t.Run("all unknown uses ingestion order", func(t *testing.T) {
		assert.Equal(t, "5", SelectReference([]*models.ReferenceRecord{unknown, unknownEarly}).Identifier)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, SelectReference(nil))
	})
}
