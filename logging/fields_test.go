package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mixpanel/carbon/obserr"
)

func TestMergeFields(t *testing.T) {
	lhs := Fields{"key": "value"}
	rhs := Fields{"key2": "value2", "key": "override"}

	merged := MergeFields(lhs, rhs)
	assert.Equal(t, "override", merged["key"])
	assert.Equal(t, "value2", merged["key2"])
	assert.Equal(t, "value", lhs["key"])
}

func TestDupeFields(t *testing.T) {
	lhs := Fields{"key": "value"}
	duped := lhs.Dupe()
	lhs["key"] = "value2"
	assert.Equal(t, "value", duped["key"])
}

type testError struct {
	PublicField string
	message     string
}

func (te testError) Error() string {
	return te.message
}

func TestWithError(t *testing.T) {
	fields := Fields{"key": "value"}
	fields = fields.WithError(testError{"Public", "message"})
	assert.Equal(t, "message", fields["error_message"])
	assert.Equal(t, "value", fields["key"])
}

func TestWithErrorVals(t *testing.T) {
	err := obserr.Kind(obserr.ErrTransportFailure, "broken pipe").Set("sent", 2)
	fields := Fields{}.WithError(err)
	assert.Equal(t, 2, fields["sent"])
	assert.Equal(t, "transport failure: broken pipe", fields["error_message"])
}

func TestLocalhostFields(t *testing.T) {
	assert.NotNil(t, localhostFields)
	assert.NotNil(t, localhostFields["pid"])
	assert.NotNil(t, localhostFields["executable"])
}
