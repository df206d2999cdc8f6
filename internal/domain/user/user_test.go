package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	assert.ErrorIs(t, Identity{ID: "  "}.Validate(), ErrIDRequired)

	id := Identity{ID: "G", Name: " Gus ", Email: " Gus@Campus.EDU "}
	assert.NoError(t, id.Validate())
	p := id.Participant()
	assert.Equal(t, "G", p.ID)
	assert.Equal(t, "Gus", p.Name)
	assert.Equal(t, "gus@campus.edu", p.Email)
}

func TestProfileParticipant(t *testing.T) {
	p := Profile{ID: "H", Name: "Hana", Image: " http://img/h.png "}.Participant()
	assert.Equal(t, "http://img/h.png", p.Image)
}
