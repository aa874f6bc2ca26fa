package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRecordFillKeepsExistingFields(t *testing.T) {
	rec := &ProductRecord{Title: StringPtr("Lamp"), Price: FloatPtr(1999)}
	rec.Fill(&ProductRecord{
		Title:    StringPtr("Other"),
		Price:    FloatPtr(1),
		Currency: StringPtr("RUB"),
		ImageURL: StringPtr("https://x.com/a.jpg"),
	})

	assert.Equal(t, "Lamp", *rec.Title)
	assert.Equal(t, 1999.0, *rec.Price)
	assert.Equal(t, "RUB", *rec.Currency)
	assert.Equal(t, "https://x.com/a.jpg", *rec.ImageURL)
	assert.Nil(t, rec.Brand)

	rec.Fill(nil)
	assert.Equal(t, "Lamp", *rec.Title)
}

func TestProductRecordPredicates(t *testing.T) {
	tests := []struct {
		name         string
		rec          *ProductRecord
		empty        bool
		core         bool
		needsBrowser bool
	}{
		{"nil", nil, true, false, true},
		{"zero", &ProductRecord{}, true, false, true},
		{"title only", &ProductRecord{Title: StringPtr("Lamp")}, false, true, true},
		{"title and price", &ProductRecord{Title: StringPtr("Lamp"), Price: FloatPtr(10)}, false, true, false},
		{"title and image", &ProductRecord{Title: StringPtr("Lamp"), ImageURL: StringPtr("i")}, false, true, false},
		{"price only", &ProductRecord{Price: FloatPtr(10)}, false, true, true},
		{"price and image", &ProductRecord{Price: FloatPtr(10), ImageURL: StringPtr("i")}, false, true, true},
		{"brand only", &ProductRecord{Brand: StringPtr("Acme")}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.rec.IsEmpty())
			assert.Equal(t, tt.core, tt.rec.HasCoreFields())
			assert.Equal(t, tt.needsBrowser, tt.rec.NeedsBrowser())
		})
	}
}

func TestPreviewResponseSerializesNullFields(t *testing.T) {
	data, err := json.Marshal(PreviewResponse{URL: "https://x.com/p", ProductRecord: &ProductRecord{Title: StringPtr("Lamp")}})
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "https://x.com/p", payload["url"])
	assert.Equal(t, "Lamp", payload["title"])
	for _, key := range []string{"price", "currency", "image_url", "description", "brand", "availability"} {
		v, ok := payload[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
}

func TestPreviewTaskLifecycle(t *testing.T) {
	task := NewPreviewTask("https://x.com/p")
	assert.True(t, task.IsActive())
	assert.Zero(t, task.Duration())

	task.Start()
	task.Complete(&ProductRecord{Title: StringPtr("Lamp")})

	view := task.Snapshot()
	assert.True(t, task.IsCompleted())
	assert.Equal(t, TaskStatusCompleted, view.Status)
	assert.Equal(t, "Lamp", *view.Result.Title)
	assert.NotNil(t, view.CompletedAt)
}
