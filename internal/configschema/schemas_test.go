package configschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/constants"
)

func TestValidatePartnerPatterns(t *testing.T) {
	require.NoError(t, ValidatePartnerPatterns(map[string]string{"ticket_no": `TKT-(\d+)`}))
	assert.Error(t, ValidatePartnerPatterns(map[string]string{"bogus": "x"}))
	assert.Error(t, ValidatePartnerPatterns(map[string]string{"material": ""}))
}

func TestValidateRuleLogic(t *testing.T) {
	tests := []struct {
		name    string
		t       constants.RuleType
		raw     string
		wantErr bool
	}{
		{"empty", constants.RuleDistance, "", false},
		{"null", constants.RuleTime, "null", false},
		{"distance ok", constants.RuleDistance, `{"max_variance_percent": 12}`, false},
		{"negative hours", constants.RuleTime, `{"max_hours": -1}`, true},
		{"photo flag type", constants.RulePhoto, `{"require_photo": "yes"}`, true},
		{"not an object", constants.RuleWeight, `[1,2]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleLogic(tt.t, []byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMaterialRates(t *testing.T) {
	assert.NoError(t, ValidateMaterialRates([]byte(`{"Gravel": {"pay_rate": 30}}`)))
	assert.NoError(t, ValidateMaterialRates(nil))
	assert.Error(t, ValidateMaterialRates([]byte(`{"Gravel": {"rate": 30}}`)))
}
