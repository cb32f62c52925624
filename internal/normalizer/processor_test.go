package normalizer

import (
	"errors"
	"testing"

	"xkcdharvest/internal/models"
)

func TestNewProcessor(t *testing.T) {
	p := NewProcessor()
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor()

	noID := models.Record{Title: "Main Page", ExplainedURL: "https://www.explainxkcd.com/wiki/index.php/Main_Page"}
	input := []models.Record{rec(503, "c"), noID, rec(502, "b"), rec(502, "dup")}

	batch := p.Process(input)

	if got := ids(batch.Records); len(got) != 2 || got[0] != 502 || got[1] != 503 {
		t.Fatalf("ids = %v, want [502 503]", got)
	}

	if batch.Invalid != 1 {
		t.Errorf("Invalid = %d, want 1", batch.Invalid)
	}

	if len(batch.Rejections) != 1 || !errors.Is(batch.Rejections[0].Err, ErrMissingID) {
		t.Errorf("Rejections = %+v, want one ErrMissingID", batch.Rejections)
	}

	if batch.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", batch.Duplicates)
	}

	if batch.MinID != 502 || batch.MaxID != 503 {
		t.Errorf("range = %d-%d, want 502-503", batch.MinID, batch.MaxID)
	}

	// input order is untouched
	if input[0].IDValue() != 503 {
		t.Error("Process reordered its input")
	}
}

func TestProcessor_Process_AllInvalid(t *testing.T) {
	batch := NewProcessor().Process([]models.Record{{Title: "x", ExplainedURL: "u"}})

	if !batch.Empty() {
		t.Errorf("expected empty batch, got %d records", len(batch.Records))
	}

	if batch.Invalid != 1 {
		t.Errorf("Invalid = %d, want 1", batch.Invalid)
	}
}
