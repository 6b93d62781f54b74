package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/chatdemo-server/internal/model"
)

func TestMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "trimmed", in: "  hello  ", want: "hello"},
		{name: "tags stripped", in: "<b>bold</b> move", want: "bold move"},
		{name: "script removed", in: "<script>alert(1)</script>hi", want: "hi"},
		{name: "ampersand kept", in: "tom & jerry", want: "tom & jerry"},
		{name: "comparison kept", in: "1 < 2", want: "1 < 2"},
		{name: "empty", in: "", want: ""},
		{name: "only markup", in: "<p></p>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Markup(tt.in))
		})
	}
}

func TestName(t *testing.T) {
	got, err := Name(" <i>Trip</i> ")
	require.NoError(t, err)
	assert.Equal(t, "Trip", got)

	exact := strings.Repeat("ж", MaxNameLength)
	got, err = Name(exact)
	require.NoError(t, err)
	assert.Equal(t, exact, got)

	_, err = Name(strings.Repeat("ж", MaxNameLength+1))
	assert.ErrorIs(t, err, model.ErrValidation)
}
