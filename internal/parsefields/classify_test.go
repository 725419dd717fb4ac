package parsefields

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/monicap360/move-around-tms/constants"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		hint string
		want constants.DocKind
	}{
		{"hr hint wins", "Ticket #12 Gravel 10 tons", "hr", constants.KindHR},
		{"ticket hint wins", "DRIVER LICENSE", "ticket", constants.KindTicket},
		{"license keyword", "Texas Driver LICENSE Class A", "", constants.KindHR},
		{"medical keyword", "Medical Examiner's Certificate", "", constants.KindHR},
		{"mvr keyword", "MVR report 2024", "", constants.KindHR},
		{"plain ticket", "Jones Const Ticket #8842", "", constants.KindTicket},
		{"empty", "", "", constants.KindTicket},
		{"known false positive", "Exam Rd Quarry Ticket 55 gravel 12 tons", "", constants.KindHR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.hint))
		})
	}
}
