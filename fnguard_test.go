package fnguard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEnums(t *testing.T) {
	for _, m := range Models() {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, Model("").Valid())
	assert.False(t, Model("cusotom").Valid())

	assert.True(t, ResponseFormatText.Valid())
	assert.True(t, ResponseFormatJSONObject.Valid())
	assert.False(t, ResponseFormat("json").Valid())

	for _, typ := range PropertyTypes() {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, PropertyType("array").Valid())
	assert.False(t, PropertyType("object").Valid())
	assert.Equal(t, "char, string, bool, int, double, float, date, enum", propertyTypeList)
}

func TestFormatBound(t *testing.T) {
	assert.Equal(t, "-2", formatBound(-2))
	assert.Equal(t, "0", formatBound(0))
	assert.Equal(t, "0.5", formatBound(0.5))
	assert.Equal(t, "1000000", formatBound(1_000_000))
}

func TestValidate_Concurrent(t *testing.T) {
	shared := &Profile{
		Name:        "demo",
		Temperature: ptr(2.5),
		Tools:       []Tool{lookupTool([]string{"q"}, props("q", "string"))},
	}
	valid := &Profile{Name: "ok", Tools: []Tool{lookupTool(nil, props("q", "int"))}}
	v := NewValidator(WithCollectAll())

	var wg sync.WaitGroup
	errs := make([]error, 64)
	for i := range errs {
		wg.Go(func() {
			if i%2 == 0 {
				errs[i] = ValidateProfile(shared)
			} else {
				errs[i] = v.ValidateProfile(valid)
			}
		})
	}
	wg.Wait()
	for i, err := range errs {
		if i%2 == 0 {
			assert.EqualError(t, err, "temperature must be a value between 0 and 2")
		} else {
			assert.NoError(t, err)
		}
	}
}
