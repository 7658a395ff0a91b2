package papi_test

import (
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
)

func TestEntityTypePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "structural-objects", papi.EntityTypeStructuralObject.Path())
	assert.Equal(t, "information-objects", papi.EntityTypeInformationObject.Path())
	assert.Equal(t, "content-objects", papi.EntityTypeContentObject.Path())
	assert.Empty(t, papi.EntityTypeUnknown.Path())
}

func TestEntityTypeFromTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, papi.EntityTypeStructuralObject, papi.EntityTypeFromTag("SO"))
	assert.Equal(t, papi.EntityTypeInformationObject, papi.EntityTypeFromTag("IO"))
	assert.Equal(t, papi.EntityTypeContentObject, papi.EntityTypeFromTag("CO"))
	assert.Equal(t, papi.EntityTypeUnknown, papi.EntityTypeFromTag("XO"))
	assert.Equal(t, papi.EntityTypeUnknown, papi.EntityTypeFromTag(""))
}

func TestParseSecurityTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, papi.SecurityTagOpen, papi.ParseSecurityTag("open"))
	assert.Equal(t, papi.SecurityTagClosed, papi.ParseSecurityTag("closed"))
	assert.Equal(t, papi.SecurityTagUnknown, papi.ParseSecurityTag("internal"))
	assert.Equal(t, papi.SecurityTagUnknown, papi.ParseSecurityTag(""))
}

func TestEntityPathFollowsType(t *testing.T) {
	t.Parallel()

	entity := &papi.Entity{Type: papi.EntityTypeInformationObject, Ref: "abc"}
	assert.Equal(t, "information-objects", entity.Path())

	entity.Type = papi.EntityTypeUnknown
	assert.Empty(t, entity.Path())
}
