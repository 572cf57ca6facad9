package location

import (
	"testing"

	"github.com/matst80/jobboard/pkg/query"
	"github.com/matst80/jobboard/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestReplaceNotifiesSubscribers(t *testing.T) {
	h := NewHistory("?title=go")
	assert.Equal(t, "go", h.Criteria().Title)

	var got []types.SearchCriteria
	unsubscribe := h.Subscribe(func(c types.SearchCriteria) {
		got = append(got, c)
	})

	query.Navigate(h, types.SearchCriteria{Page: 3, Title: "rust"})
	assert.Equal(t, "page=3&title=rust", h.Current())
	assert.Equal(t, []types.SearchCriteria{{Page: 3, Title: "rust"}}, got)

	unsubscribe()
	h.Replace("title=java")
	assert.Len(t, got, 1)
	assert.Equal(t, "java", h.Criteria().Title)
}
