//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request AccessRequest
		wantErr bool
	}{
		{name: "valid secret", request: AccessRequest{Secret: "open-sesame"}, wantErr: false},
		{name: "missing secret", request: AccessRequest{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
