package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"materiais/internal"
)

func TestClassifyCategory(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: "Cabo VV 3G2,5", want: internal.CategoryCables},
		{name: "Fio H07V-U azul", want: internal.CategoryCables},
		{name: "Condutor XV 1x16", want: internal.CategoryCables},
		{name: "Tomada schuko 16A", want: internal.CategorySockets},
		{name: "Interruptor simples", want: internal.CategorySwitches},
		{name: "INT. comutador de escada", want: internal.CategorySwitches},
		{name: "Caixa de aparelhagem", want: internal.CategoryGeneral},
		{name: "Intermédio de escada", want: internal.CategoryGeneral},
		{name: "Cabo para tomada", want: internal.CategoryCables},
		{name: "Tomada com interruptor", want: internal.CategorySockets},
		{name: "", want: internal.CategoryGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyCategory(tc.name))
		})
	}
}
