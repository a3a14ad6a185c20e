package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateCriteria_GenderFilter(t *testing.T) {
	tests := []struct {
		name    string
		genders []string
		want    []string
	}{
		{"unset", nil, nil},
		{"blank entries", []string{" ", ""}, nil},
		{"everyone", []string{"everyone"}, nil},
		{"everyone mixed in", []string{"male", "Everyone"}, nil},
		{"lower cased", []string{"Male", " FEMALE "}, []string{"male", "female"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CandidateCriteria{Genders: tt.genders}.GenderFilter()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfile_SeeksMatchesGenderFilter(t *testing.T) {
	open := &Profile{InterestedIn: []string{"Everyone"}}
	assert.True(t, open.Seeks("male"))
	assert.Nil(t, CandidateCriteria{Genders: open.InterestedIn}.GenderFilter())

	picky := &Profile{InterestedIn: []string{"Female"}}
	assert.True(t, picky.Seeks("female"))
	assert.False(t, picky.Seeks("male"))
	assert.Equal(t, []string{"female"}, CandidateCriteria{Genders: picky.InterestedIn}.GenderFilter())
}
