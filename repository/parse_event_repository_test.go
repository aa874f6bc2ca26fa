package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	summary := summarize([]strategyCount{
		{strategy: "static", total: 6, successful: 5},
		{strategy: "browser", total: 3, successful: 2},
		{strategy: "none", total: 3, successful: 0},
	})

	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 7, summary.Successful)
	assert.Equal(t, 58.33, summary.SuccessRate)
	assert.Equal(t, map[string]int{"static": 6, "browser": 3, "none": 3}, summary.ByStrategy)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := summarize(nil)

	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.SuccessRate)
	assert.NotNil(t, summary.ByStrategy)
}
