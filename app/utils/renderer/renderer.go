package renderer

import (
	"html/template"
	"time"

	"github.com/klioshop/klio/app/utils/format"
	"github.com/unrolled/render"
)

func New() *render.Render {
	return NewWithDirectory("templates")
}

func NewWithDirectory(dir string) *render.Render {
	return render.New(render.Options{
		Directory:     dir,
		Extensions:    []string{".html"},
		IsDevelopment: false,
		Funcs: []template.FuncMap{
			{
				"money": format.Money,
				"date": func(t *time.Time) string {
					if t == nil {
						return ""
					}
					return t.Format("02.01.2006 15:04")
				},
				"add": func(a, b int) int { return a + b },
			},
		},
	})
}
