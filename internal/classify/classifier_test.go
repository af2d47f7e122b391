package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxline/internal/classify"
	"taxline/internal/domain"
)

const w2Text = `
Form W-2 Wage and Tax Statement 2023
1 Wages, tips, other compensation  50,000.00
2 Federal income tax withheld      6,000.00
3 Social security wages            50,000.00
5 Medicare wages and tips          50,000.00
`

const intText = `
Form 1099-INT Interest Income
1 Interest income  812.50
2 Early withdrawal penalty  0.00
8 Tax-exempt interest  100.00
`

func TestClassify_W2(t *testing.T) {
	res := classify.Classify(w2Text)
	assert.Equal(t, domain.CategoryW2, res.Category)
	assert.Greater(t, res.Confidence, 0.0)
}

func TestClassify_InformationReturnSubtypes(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.DocumentCategory
	}{
		{"int", intText, domain.Category1099INT},
		{"div", "1099-DIV Dividends and Distributions\n1a Total ordinary dividends 300.00\n1b Qualified dividends 250.00", domain.Category1099DIV},
		{"misc", "Form 1099-MISC Miscellaneous Information\n1 Rents 12,000.00\n2 Royalties 0.00", domain.Category1099MISC},
		{"nec", "Form 1099-NEC\n1 Nonemployee compensation 8,200.00", domain.Category1099NEC},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify.Classify(tc.text).Category)
		})
	}
}

func TestClassify_Unknown(t *testing.T) {
	assert.Equal(t, domain.CategoryUnknown, classify.Classify("grocery receipt, thank you for shopping").Category)
	assert.Equal(t, domain.CategoryUnknown, classify.Classify("").Category)
	assert.Equal(t, domain.CategoryUnknown, classify.Classify("   \n ").Category)
}

func TestClassify_Deterministic(t *testing.T) {
	first := classify.Classify(intText)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classify.Classify(intText))
	}
}

// A 1099-INT with an "other income"-ish phrase must not drift to 1099-MISC:
// the subtype pass counts unique phrases only.
func TestClassify_SubtypePassKeepsWinnerOnTie(t *testing.T) {
	text := intText + "\nsee instructions for other income reporting"
	assert.Equal(t, domain.Category1099INT, classify.Classify(text).Category)
}
