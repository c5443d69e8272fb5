package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "first"},
			{Type: "text", Text: ""},
			{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", resp.Text())
}

func TestMessageResponse_Text_Nil(t *testing.T) {
	var resp *MessageResponse
	assert.Equal(t, "", resp.Text())
}

func TestMessageResponse_Text_Empty(t *testing.T) {
	resp := &MessageResponse{}
	assert.Equal(t, "", resp.Text())
}
