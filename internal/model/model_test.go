package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureRecord_Validate(t *testing.T) {
	fix := "+44 20 7946 0000"

	t.Run("matching key sets", func(t *testing.T) {
		rec := &FeatureRecord{
			Type:           FeatureNode,
			ID:             1,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"phone": &fix},
		}
		assert.NoError(t, rec.Validate())
	})

	t.Run("nil fix entry still counts", func(t *testing.T) {
		rec := &FeatureRecord{
			Type:           FeatureNode,
			ID:             1,
			InvalidNumbers: map[string]string{"contact:phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"contact:phone": nil},
		}
		assert.NoError(t, rec.Validate())
	})

	t.Run("missing fix", func(t *testing.T) {
		rec := &FeatureRecord{
			Type:           FeatureWay,
			ID:             2,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{},
		}
		assert.Error(t, rec.Validate())
	})

	t.Run("mismatched fields", func(t *testing.T) {
		rec := &FeatureRecord{
			Type:           FeatureNode,
			ID:             3,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"fax": &fix},
		}
		assert.Error(t, rec.Validate())
	})
}
