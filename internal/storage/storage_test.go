package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr bool
	}{
		{"gs://bucket/statement.pdf", Location{Bucket: "bucket", Object: "statement.pdf"}, false},
		{"gs://bucket/2024/03/statement.csv", Location{Bucket: "bucket", Object: "2024/03/statement.csv"}, false},
		{"gs://bucket", Location{}, true},
		{"gs://bucket/", Location{}, true},
		{"gs:///object", Location{}, true},
		{"gs://bucket/dir/", Location{}, true},
		{"s3://bucket/object", Location{}, true},
		{"statement.pdf", Location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.uri, got.String())
		})
	}
}

func TestLocationBase(t *testing.T) {
	loc, err := ParseURI("gs://bucket/2024/03/statement.csv")
	require.NoError(t, err)
	assert.Equal(t, "statement.csv", loc.Base())
}

func TestIsURI(t *testing.T) {
	assert.True(t, IsURI("gs://b/o"))
	assert.False(t, IsURI("/tmp/gs://b/o"))
}
