package classify

import (
	"testing"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

func TestIntent_Classify(t *testing.T) {
	c := NewIntent(nil, nil)

	tests := []struct {
		name           string
		in             Input
		wantKind       models.TaskKind
		wantRefinement bool
	}{
		{
			name:     "first turn defaults to image",
			in:       Input{Text: "hello there", HasCurrentImage: false},
			wantKind: models.TaskImage,
		},
		{
			name:           "keyword with current image is refinement",
			in:             Input{Text: "make it blue", HasCurrentImage: true},
			wantKind:       models.TaskImage,
			wantRefinement: true,
		},
		{
			name:     "override phrase forces creation",
			in:       Input{Text: "create new dragon logo", HasCurrentImage: true},
			wantKind: models.TaskImage,
		},
		{
			name:     "portuguese override phrase forces creation",
			in:       Input{Text: "criar novo escudo", HasCurrentImage: true},
			wantKind: models.TaskImage,
		},
		{
			name:     "no keywords with current image is chat",
			in:       Input{Text: "what style do you recommend?", HasCurrentImage: true},
			wantKind: models.TaskChat,
		},
		{
			name:           "upload with current image is image refinement",
			in:             Input{Text: "", HasUpload: true, HasCurrentImage: true},
			wantKind:       models.TaskImage,
			wantRefinement: true,
		},
		{
			name:     "empty text with upload and no current image",
			in:       Input{Text: "", HasUpload: true},
			wantKind: models.TaskImage,
		},
		{
			name:           "portuguese keyword refines",
			in:             Input{Text: "mude o fundo", HasCurrentImage: true},
			wantKind:       models.TaskImage,
			wantRefinement: true,
		},
		{
			name:           "keyword is case-insensitive",
			in:             Input{Text: "CHANGE the crest", HasCurrentImage: true},
			wantKind:       models.TaskImage,
			wantRefinement: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.in)
			if got.Kind != tt.wantKind {
				t.Errorf("Classify() Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Kind == models.TaskImage && got.Refinement != tt.wantRefinement {
				t.Errorf("Classify() Refinement = %v, want %v", got.Refinement, tt.wantRefinement)
			}
		})
	}
}

func TestIntent_CustomKeywords(t *testing.T) {
	c := NewIntent([]string{"forge"}, []string{"from scratch"})

	got := c.Classify(Input{Text: "forge it brighter", HasCurrentImage: true})
	if got.Kind != models.TaskImage || !got.Refinement {
		t.Errorf("Classify() = %+v, want image refinement", got)
	}

	got = c.Classify(Input{Text: "forge one from scratch", HasCurrentImage: true})
	if got.Kind != models.TaskImage || got.Refinement {
		t.Errorf("Classify() = %+v, want image creation", got)
	}

	got = c.Classify(Input{Text: "make it blue", HasCurrentImage: true})
	if got.Kind != models.TaskChat {
		t.Errorf("Classify() Kind = %v, want chat (default keywords replaced)", got.Kind)
	}
}
