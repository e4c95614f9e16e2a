package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClass(t *testing.T) {
	assert.Equal(t, classInteger, Class(Serial))
	assert.Equal(t, classInteger, Class(Integer))
	assert.Equal(t, classDouble, Class(Double))
	assert.Equal(t, classText, Class(String))
	assert.Equal(t, "", Class(FieldType("bogus")))
}

func TestClass_SerialAndIntegerShareClass(t *testing.T) {
	assert.Equal(t, Class(Serial), Class(Integer))
	assert.NotEqual(t, Class(Integer), Class(Double))
	assert.NotEqual(t, Class(Double), Class(String))
}
