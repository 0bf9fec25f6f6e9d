package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLinkingAndTags(t *testing.T) {
	oldTags := Tags
	defer func() { Tags = oldTags }()

	for _, test := range []struct {
		tags        []string
		wantLinking string
		wantTags    string
	}{
		{nil, "static", "none"},
		{[]string{"cgo"}, "dynamic", "none"},
		{[]string{"osusergo", "cgo", "netgo"}, "dynamic", "netgo osusergo"},
		{[]string{"race"}, "static", "race"},
	} {
		Tags = test.tags
		linking, tags := GetLinkingAndTags()
		assert.Equal(t, test.wantLinking, linking, "%v", test.tags)
		assert.Equal(t, test.wantTags, tags, "%v", test.tags)
	}
}
