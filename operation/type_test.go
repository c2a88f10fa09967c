package operation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dataman-Cloud/jetcd/operation"
)

func TestTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typ      operation.Type
		expected string
		write    bool
	}{
		{"TypeGet", operation.TypeGet, "Get", false},
		{"TypePut", operation.TypePut, "Put", true},
		{"TypeDelete", operation.TypeDelete, "Delete", true},
		{"UnknownType", operation.Type(99), "Unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.typ.String())
			assert.Equal(t, tt.write, tt.typ.IsWrite())
		})
	}
}

func TestSortString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Key", operation.SortByKey.String())
	assert.Equal(t, "Version", operation.SortByVersion.String())
	assert.Equal(t, "CreateRevision", operation.SortByCreateRevision.String())
	assert.Equal(t, "ModRevision", operation.SortByModRevision.String())
	assert.Equal(t, "Value", operation.SortByValue.String())
	assert.Equal(t, "Unknown", operation.SortTarget(42).String())

	assert.Equal(t, "None", operation.SortNone.String())
	assert.Equal(t, "Ascend", operation.SortAscend.String())
	assert.Equal(t, "Descend", operation.SortDescend.String())
	assert.Equal(t, "Unknown", operation.SortOrder(42).String())
}
