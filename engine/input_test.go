package engine

import "testing"

func TestComposite(t *testing.T) {
	tests := []struct {
		name  string
		items []InputItem
		want  string
	}{
		{
			name:  "texts in arrival order",
			items: []InputItem{TextItem{Body: "oi"}, TextItem{Body: "tudo bem?"}},
			want:  "oi\ntudo bem?",
		},
		{
			name: "media with caption",
			items: []InputItem{
				TextItem{Body: "segue a foto"},
				MediaItem{Kind: "imagem", Reference: "media-1", Caption: "comprovante"},
			},
			want: "segue a foto\n[imagem] comprovante",
		},
		{
			name:  "media without caption",
			items: []InputItem{MediaItem{Kind: "audio", Reference: "media-2"}},
			want:  "[audio]",
		},
		{
			name:  "contact payload",
			items: []InputItem{ContactItem{Payload: `[{"name":"Ana"}]`}},
			want:  `[contato] [{"name":"Ana"}]`,
		},
		{
			name:  "blank items skipped",
			items: []InputItem{TextItem{Body: "  "}, TextItem{Body: "ok"}},
			want:  "ok",
		},
		{
			name:  "empty",
			items: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Composite(tt.items); got != tt.want {
				t.Errorf("Composite() = %q, want %q", got, tt.want)
			}
		})
	}
}
